package rabbitmq

// ExchangeNotifications direct-обменник напоминаний участникам.
const ExchangeNotifications = "notifications"

// Ключи маршрутизации напоминаний.
const (
	RoutingUnpaid   = "unpaid"
	RoutingExpiring = "expiring"
)

// Очереди, которые слушает отправитель писем.
const (
	QueueUnpaid   = "notifications.unpaid"
	QueueExpiring = "notifications.expiring"
)

// QueueConfig очередь и ключ, которым она привязана к ExchangeNotifications.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди, которые слушает отправитель писем.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: QueueUnpaid, RoutingKey: RoutingUnpaid},
		{QueueName: QueueExpiring, RoutingKey: RoutingExpiring},
	}
}
