package rabbitmq

import "github.com/magabrotheeeer/content-generator/internal/models"

const prefetch = 10

// QueueConfig очередь и ключи маршрутизации, по которым она привязана к обменнику.
type QueueConfig struct {
	QueueName   string
	RoutingKeys []string
}

// BillingQueues очереди уведомлений о событиях биллинга.
func BillingQueues(queueName string) []QueueConfig {
	return []QueueConfig{
		{
			QueueName: queueName,
			RoutingKeys: []string{
				models.EventTrialExpired,
				models.EventCycleReset,
				models.EventPaymentSucceeded,
			},
		},
	}
}
