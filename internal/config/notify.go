package config

import (
	"os"
	"time"
)

// NotifyConfig configures ticket delivery over RabbitMQ.  An empty URL
// disables publishing; bookings still succeed with notification_sent=false.
type NotifyConfig struct {
	URL             string        // RABBITMQ_URL or AMQP_URL
	Queue           string        // durable queue the ticket mailer consumes
	Timeout         time.Duration // publish + confirm budget per ticket
	BreakerFailures int           // consecutive failures before the breaker opens
	BreakerCooldown time.Duration // how long the breaker stays open
	ConsumerEnabled bool          // run the ticket consumer in-process
	TicketLogPath   string        // where the log mailer appends delivered tickets
}

func LoadNotifyConfig() NotifyConfig {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		url = os.Getenv("AMQP_URL")
	}
	return NotifyConfig{
		URL:             url,
		Queue:           envStr("NOTIFY_QUEUE", "tickets.issued"),
		Timeout:         envDur("NOTIFY_TIMEOUT", 3*time.Second),
		BreakerFailures: envInt("NOTIFY_BREAKER_FAILURES", 5),
		BreakerCooldown: envDur("NOTIFY_BREAKER_COOLDOWN", 30*time.Second),
		ConsumerEnabled: envBool("NOTIFY_CONSUMER_ENABLED", true),
		TicketLogPath:   envStr("NOTIFY_TICKET_LOG", "logs/tickets.log"),
	}
}
