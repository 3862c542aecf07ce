// Package sl содержит вспомогательные функции для работы с логгером slog,
// чтобы поля ошибок и операций во всех пакетах выглядели одинаково.
package sl

import "log/slog"

// Err возвращает slog.Attr с ключом "error" и значением текста ошибки.
// Для nil возвращается пустая строка, чтобы логирование не паниковало.
//
// Пример:
//
//	log.Error("failed to start session", sl.Err(err))
func Err(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// Op возвращает атрибут с именем операции в формате "пакет.Функция".
func Op(op string) slog.Attr {
	return slog.String("op", op)
}
