package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/joue-zero/homemade-dishes/internal/db"
)

const (
	dbUser     = "homemade"
	dbPassword = "homemade_pass"
	dbName     = "homemade"
)

// StartPostgres launches a temporary Postgres, applies the migrations and
// returns its DSN.
func StartPostgres(t *testing.T) string {
	t.Helper()
	dsn := StartEmptyPostgres(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, db.RunMigrations(ctx, db.DriverPostgres, dsn, zerolog.Nop()))
	return dsn
}

// StartEmptyPostgres returns the DSN of a Postgres without any schema.
func StartEmptyPostgres(t *testing.T) string {
	t.Helper()
	addr := start(t, service{
		image: "postgres:16-alpine",
		port:  "5432",
		env: map[string]string{
			"POSTGRES_USER":     dbUser,
			"POSTGRES_PASSWORD": dbPassword,
			"POSTGRES_DB":       dbName,
		},
		// postgres restarts once after init
		ready: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(startupTimeout),
	})
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", dbUser, dbPassword, addr, dbName)
}
