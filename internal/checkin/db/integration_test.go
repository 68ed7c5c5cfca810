package db_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-checkin/internal/checkin/db"
	"ms-checkin/internal/models"
)

// TestPostgresIntegration exercises the conditional status update against
// a real Postgres, where concurrent writers actually contend.
func TestPostgresIntegration(t *testing.T) {
	// Skip if short test mode
	if testing.Short() {
		t.Skip("Skipping Postgres integration test in short mode")
	}

	ctx := context.Background()
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "checkin",
				"POSTGRES_PASSWORD": "checkin",
				"POSTGRES_DB":       "checkin_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start Postgres container: %v", err)
	}
	defer pgContainer.Terminate(ctx)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://checkin:checkin@%s:%s/checkin_test?sslmode=disable", host, port.Port())
	sqldb, err := sql.Open("postgres", dsn)
	require.NoError(t, err)

	bunDB := bun.NewDB(sqldb, pgdialect.New())
	defer bunDB.Close()

	for _, model := range []interface{}{(*models.Ticket)(nil), (*models.ScanEvent)(nil)} {
		_, err := bunDB.NewCreateTable().Model(model).Exec(ctx)
		require.NoError(t, err)
	}

	store := &db.DB{Bun: bunDB}

	t.Run("compare and swap", func(t *testing.T) {
		ticket := pendingTicket("PG-0001")
		require.NoError(t, store.InsertTicket(ctx, ticket))

		ok, err := store.CompareAndSwapStatus(ctx, ticket.ID, models.StatusPending, models.StatusEntered, nil)
		require.NoError(t, err)
		assert.True(t, ok)

		// Stale expectation loses
		ok, err = store.CompareAndSwapStatus(ctx, ticket.ID, models.StatusPending, models.StatusEntered, nil)
		require.NoError(t, err)
		assert.False(t, ok)

		current, err := store.GetTicketByID(ctx, ticket.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusEntered, current.Status)
	})

	t.Run("concurrent swaps admit one winner", func(t *testing.T) {
		ticket := pendingTicket("PG-0002")
		require.NoError(t, store.InsertTicket(ctx, ticket))

		const writers = 10
		var wg sync.WaitGroup
		wins := make(chan bool, writers)

		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := store.CompareAndSwapStatus(ctx, ticket.ID, models.StatusPending, models.StatusEntered, nil)
				if err == nil && ok {
					wins <- true
				}
			}()
		}
		wg.Wait()
		close(wins)

		assert.Equal(t, 1, len(wins))
	})

	t.Run("sold timestamp persists", func(t *testing.T) {
		ticket := pendingTicket("PG-0003")
		require.NoError(t, store.InsertTicket(ctx, ticket))

		soldAt := time.Now().UTC().Truncate(time.Millisecond)
		ok, err := store.CompareAndSwapStatus(ctx, ticket.ID, models.StatusPending, models.StatusVendu, &soldAt)
		require.NoError(t, err)
		require.True(t, ok)

		current, err := store.GetTicketByID(ctx, ticket.ID)
		require.NoError(t, err)
		require.NotNil(t, current.SoldAt)
		assert.True(t, current.SoldAt.Equal(soldAt))

		sold, err := store.CountSold(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, sold)
	})
}
