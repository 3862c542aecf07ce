// Package sender отправляет участникам письма-напоминания из очереди уведомлений.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/coworking-membership/internal/lib/sl"
	"github.com/magabrotheeeer/coworking-membership/internal/lib/smtp"
	"github.com/magabrotheeeer/coworking-membership/internal/metrics"
	"github.com/magabrotheeeer/coworking-membership/internal/models"
)

const dateLayout = "2006-01-02"

// SenderService формирует и отправляет письма.
type SenderService struct {
	transport smtp.Dialer
	from      string
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
// Пустой from означает адрес пользователя SMTP.
func NewSenderService(transport smtp.Dialer, from string, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		from:      from,
		log:       log,
	}
}

// SendUnpaidReminder обрабатывает сообщение очереди unpaid.
func (s *SenderService) SendUnpaidReminder(body []byte) error {
	const op = "sender.SendUnpaidReminder"
	info, err := s.decode(op, body)
	if err != nil {
		return err
	}

	subject := "Payment reminder"
	text := fmt.Sprintf("Hi %s,\n\nyour current membership period (until %s) is not paid yet.\nPlease settle it at the front desk.",
		info.Name, info.PeriodEnd.Format(dateLayout))
	return s.sendEmail([]string{info.Email}, subject, text)
}

// SendExpiringReminder обрабатывает сообщение очереди expiring.
func (s *SenderService) SendExpiringReminder(body []byte) error {
	const op = "sender.SendExpiringReminder"
	info, err := s.decode(op, body)
	if err != nil {
		return err
	}

	subject := "Your membership ends tomorrow"
	text := fmt.Sprintf("Hi %s,\n\nyour membership period ends on %s.\nRenew at the front desk to keep your access.",
		info.Name, info.PeriodEnd.Format(dateLayout))
	return s.sendEmail([]string{info.Email}, subject, text)
}

func (s *SenderService) decode(op string, body []byte) (*models.ReminderInfo, error) {
	var info models.ReminderInfo
	if err := json.Unmarshal(body, &info); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Op(op), sl.Err(err))
		return nil, fmt.Errorf("%s: error unmarshalling message: %w", op, err)
	}
	if info.Email == "" {
		return nil, fmt.Errorf("%s: message without recipient", op)
	}
	return &info, nil
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) (err error) {
	defer func() { metrics.RecordEmail(err) }()

	from := s.from
	if from == "" {
		from = s.transport.GetSMTPUser()
	}
	msg := smtp.BuildMessage(from, to, subject, bodyText)

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err = client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", s.transport.GetSMTPUser()), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err = client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write(msg); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to))
	return nil
}
