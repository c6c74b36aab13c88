package testutil

import (
	"testing"

	"github.com/testcontainers/testcontainers-go/wait"
)

// StartRabbitMQ returns the AMQP URL of a broker that lives for the test.
func StartRabbitMQ(t *testing.T) string {
	t.Helper()
	addr := start(t, service{
		image: "rabbitmq:3.13-alpine",
		port:  "5672",
		ready: wait.ForListeningPort("5672/tcp").WithStartupTimeout(startupTimeout),
	})
	return "amqp://guest:guest@" + addr + "/"
}
