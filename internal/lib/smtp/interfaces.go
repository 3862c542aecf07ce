// Package smtp отправляет письма участникам через SMTP с обязательным STARTTLS.
package smtp

import "io"

// Client сеанс SMTP, в котором отправляется одно напоминание.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Dialer открывает сеанс для письма о неоплаченном или истекающем периоде.
// Каждое письмо идёт в отдельном сеансе, Connect вызывается на каждое сообщение
// из очереди. Отправитель по умолчанию совпадает с логином SMTP.
type Dialer interface {
	Connect() (Client, error)
	GetSMTPUser() string
}
