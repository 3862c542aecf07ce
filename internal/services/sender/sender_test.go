package sender

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/coworking-membership/internal/lib/smtp"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	args := m.Called(from)
	return args.Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	args := m.Called(to)
	return args.Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSMTPClient) Quit() error {
	args := m.Called()
	return args.Error(0)
}

type MockSMTPWriter struct {
	mock.Mock
}

func (m *MockSMTPWriter) Write(p []byte) (n int, err error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *MockSMTPWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

const reminderBody = `{"member_id":"6f1c1f1e-7d4a-4b55-9a33-2b1f0c5c6a10","email":"ana@example.com","name":"Ana","period_end":"2024-05-15T18:00:00+08:00","paid":false}`

// expectDelivery настраивает успешную отправку и возвращает writer для проверки тела письма.
func expectDelivery(tr *MockTransport) *MockSMTPWriter {
	client := new(MockSMTPClient)
	writer := new(MockSMTPWriter)

	tr.On("GetSMTPUser").Return("desk@cowork.local")
	tr.On("Connect").Return(client, nil).Once()
	client.On("Mail", "desk@cowork.local").Return(nil).Once()
	client.On("Rcpt", "ana@example.com").Return(nil).Once()
	client.On("Data").Return(writer, nil).Once()
	writer.On("Write", mock.AnythingOfType("[]uint8")).Return(100, nil).Once()
	writer.On("Close").Return(nil).Once()
	client.On("Quit").Return(nil).Once()
	client.On("Close").Return(nil).Once()
	return writer
}

func TestSenderService_Handlers(t *testing.T) {
	tests := []struct {
		name          string
		send          func(*SenderService, []byte) error
		body          []byte
		setupMocks    func(*MockTransport)
		expectedError bool
		errorMessage  string
	}{
		{
			name:       "unpaid reminder sent",
			send:       (*SenderService).SendUnpaidReminder,
			body:       []byte(reminderBody),
			setupMocks: func(tr *MockTransport) { expectDelivery(tr) },
		},
		{
			name:       "expiring reminder sent",
			send:       (*SenderService).SendExpiringReminder,
			body:       []byte(reminderBody),
			setupMocks: func(tr *MockTransport) { expectDelivery(tr) },
		},
		{
			name:          "invalid JSON",
			send:          (*SenderService).SendUnpaidReminder,
			body:          []byte(`invalid json`),
			setupMocks:    func(_ *MockTransport) {},
			expectedError: true,
			errorMessage:  "error unmarshalling message",
		},
		{
			name:          "message without email",
			send:          (*SenderService).SendExpiringReminder,
			body:          []byte(`{"name":"Ana"}`),
			setupMocks:    func(_ *MockTransport) {},
			expectedError: true,
			errorMessage:  "without recipient",
		},
		{
			name: "SMTP connection error",
			send: (*SenderService).SendExpiringReminder,
			body: []byte(reminderBody),
			setupMocks: func(tr *MockTransport) {
				tr.On("GetSMTPUser").Return("desk@cowork.local")
				tr.On("Connect").Return(nil, errors.New("connection error")).Once()
			},
			expectedError: true,
			errorMessage:  "connection error",
		},
		{
			name: "recipient rejected",
			send: (*SenderService).SendUnpaidReminder,
			body: []byte(reminderBody),
			setupMocks: func(tr *MockTransport) {
				client := new(MockSMTPClient)
				tr.On("GetSMTPUser").Return("desk@cowork.local")
				tr.On("Connect").Return(client, nil).Once()
				client.On("Mail", "desk@cowork.local").Return(nil).Once()
				client.On("Rcpt", "ana@example.com").Return(errors.New("550 mailbox unavailable")).Once()
				client.On("Close").Return(nil).Once()
			},
			expectedError: true,
			errorMessage:  "mailbox unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			tt.setupMocks(transport)
			service := NewSenderService(transport, "", newNoopLogger())

			err := tt.send(service, tt.body)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMessage)
			} else {
				assert.NoError(t, err)
			}
			transport.AssertExpectations(t)
		})
	}
}

func TestSenderService_MessageContent(t *testing.T) {
	transport := new(MockTransport)
	writer := expectDelivery(transport)
	service := NewSenderService(transport, "Front Desk <hello@cowork.local>", newNoopLogger())

	err := service.SendUnpaidReminder([]byte(reminderBody))
	assert.NoError(t, err)

	written := string(writer.Calls[0].Arguments.Get(0).([]byte))
	assert.True(t, strings.HasPrefix(written, "From: Front Desk <hello@cowork.local>\r\n"))
	assert.Contains(t, written, "To: ana@example.com")
	assert.Contains(t, written, "Hi Ana,")
	assert.Contains(t, written, "2024-05-15")
}
