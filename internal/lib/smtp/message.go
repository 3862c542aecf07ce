package smtp

import (
	"mime"
	"strings"
)

// BuildMessage собирает текстовое письмо в UTF-8 с заголовками RFC 5322.
// Тема кодируется по RFC 2047, поэтому может содержать не-ASCII символы.
func BuildMessage(from string, to []string, subject, body string) []byte {
	return []byte(strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ", "),
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		strings.ReplaceAll(body, "\n", "\r\n"),
	}, "\r\n"))
}
