// Package csvexport формирует CSV для выгрузок админки.
//
// Формат намеренно простой: поле, содержащее запятую, заключается в двойные
// кавычки, остальные поля выводятся как есть. Поля разделяются запятой,
// строки переводом строки. Кавычки внутри поля не экранируются.
package csvexport

import (
	"io"
	"strings"
)

// Field приводит значение поля к виду для выгрузки.
func Field(value string) string {
	if strings.Contains(value, ",") {
		return `"` + value + `"`
	}
	return value
}

// Row склеивает поля одной строки.
func Row(fields []string) string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = Field(f)
	}
	return strings.Join(out, ",")
}

// Build собирает документ из заголовка и строк. Завершающего перевода строки нет.
func Build(header []string, rows [][]string) string {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, Row(header))
	for _, r := range rows {
		lines = append(lines, Row(r))
	}
	return strings.Join(lines, "\n")
}

// Write записывает документ в w.
func Write(w io.Writer, header []string, rows [][]string) error {
	_, err := io.WriteString(w, Build(header, rows))
	return err
}
