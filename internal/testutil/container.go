// Package testutil starts throwaway infrastructure for integration tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const startupTimeout = 90 * time.Second

type service struct {
	image string
	port  string
	env   map[string]string
	ready wait.Strategy
}

// start runs the container until the test ends and returns host:port of
// the service port.
func start(t *testing.T, svc service) string {
	t.Helper()
	if testing.Short() {
		t.Skipf("skipping %s container in short mode", svc.image)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        svc.image,
			ExposedPorts: []string{svc.port + "/tcp"},
			Env:          svc.env,
			WaitingFor:   svc.ready,
		},
		Started: true,
	})
	require.NoError(t, err, "start %s", svc.image)
	t.Cleanup(func() {
		stop, done := context.WithTimeout(context.Background(), 30*time.Second)
		defer done()
		_ = c.Terminate(stop)
	})

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mapped, err := c.MappedPort(ctx, nat.Port(svc.port))
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, mapped.Port())
}
