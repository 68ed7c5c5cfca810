package checkin_test

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"ms-checkin/internal/checkin/db"
	"ms-checkin/internal/checkin/ledger"
	checkin "ms-checkin/internal/checkin/service"
	"ms-checkin/internal/models"
)

// End-to-end flows against a real store and ledger, in-memory sqlite.

func setupScenario(t *testing.T) (*checkin.AdmissionService, *ledger.Ledger, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}
	// One connection so every query sees the same in-memory database
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())

	for _, model := range []interface{}{(*models.Ticket)(nil), (*models.ScanEvent)(nil)} {
		if _, err := bunDB.NewCreateTable().Model(model).Exec(context.Background()); err != nil {
			t.Fatalf("Failed to create table: %v", err)
		}
	}

	store := &db.DB{Bun: bunDB}
	scanLedger := &ledger.Ledger{Bun: bunDB}
	svc := checkin.NewAdmissionService(store, scanLedger, nil)
	return svc, scanLedger, bunDB
}

func provision(t *testing.T, svc *checkin.AdmissionService, number string) *models.Ticket {
	t.Helper()
	ticket, err := svc.ProvisionTicket(context.Background(), number)
	require.NoError(t, err)
	return ticket
}

func TestNormalVisitFlow(t *testing.T) {
	svc, scanLedger, bunDB := setupScenario(t)
	defer bunDB.Close()
	ctx := context.Background()

	ticket := provision(t, svc, "T-0001")

	// Enter, exit, re-enter
	snapshot, err := svc.RecordGateScan(ctx, "T-0001", models.ActionEnter)
	require.NoError(t, err)
	assert.Equal(t, models.StatusEntered, snapshot.Status)

	snapshot, err = svc.RecordGateScan(ctx, "T-0001", models.ActionExit)
	require.NoError(t, err)
	assert.Equal(t, models.StatusExited, snapshot.Status)

	snapshot, err = svc.RecordGateScan(ctx, "T-0001", models.ActionEnter)
	require.NoError(t, err)
	assert.Equal(t, models.StatusEntered, snapshot.Status)

	events, err := scanLedger.ListForTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, models.ActionEnter, events[0].Action)
	assert.Equal(t, models.ActionExit, events[1].Action)
	assert.Equal(t, models.ActionEnter, events[2].Action)
}

func TestSaleThenGateRefused(t *testing.T) {
	svc, scanLedger, bunDB := setupScenario(t)
	defer bunDB.Close()
	ctx := context.Background()

	ticket := provision(t, svc, "T-0001")

	sold, err := svc.RecordSale(ctx, "T-0001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusVendu, sold.Status)
	require.NotNil(t, sold.SoldAt)

	// Every gate attempt on a sold ticket is refused and leaves no trace
	for _, action := range []string{models.ActionEnter, models.ActionExit} {
		_, err := svc.RecordGateScan(ctx, "T-0001", action)
		var aerr *checkin.AdmissionError
		require.ErrorAs(t, err, &aerr)
		assert.Equal(t, checkin.ReasonTicketSold, aerr.Reason)
	}

	events, err := scanLedger.ListForTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.ActionSell, events[0].Action)
}

func TestRejectedScanLeavesNoLedgerEntry(t *testing.T) {
	svc, scanLedger, bunDB := setupScenario(t)
	defer bunDB.Close()
	ctx := context.Background()

	ticket := provision(t, svc, "T-0001")

	_, err := svc.RecordGateScan(ctx, "T-0001", models.ActionExit)
	var aerr *checkin.AdmissionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, checkin.ReasonNotYetEntered, aerr.Reason)

	// Status untouched, ledger empty
	current, err := svc.Store.GetTicketByNumber(ctx, "T-0001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, current.Status)

	events, err := scanLedger.ListForTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestConcurrentEnterAdmitsExactlyOnce(t *testing.T) {
	svc, scanLedger, bunDB := setupScenario(t)
	defer bunDB.Close()
	ctx := context.Background()

	ticket := provision(t, svc, "T-0001")

	const gates = 8
	var wg sync.WaitGroup
	results := make(chan error, gates)

	for i := 0; i < gates; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordGateScan(ctx, "T-0001", models.ActionEnter)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	accepted := 0
	for err := range results {
		if err == nil {
			accepted++
			continue
		}
		// Losers see the flipped status or run out of retries
		var aerr *checkin.AdmissionError
		if errors.As(err, &aerr) {
			assert.Equal(t, checkin.ReasonAlreadyEntered, aerr.Reason)
		} else {
			assert.ErrorIs(t, err, checkin.ErrConflict)
		}
	}
	assert.Equal(t, 1, accepted)

	events, err := scanLedger.ListForTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.ActionEnter, events[0].Action)
}

func TestConcurrentSaleSellsExactlyOnce(t *testing.T) {
	svc, scanLedger, bunDB := setupScenario(t)
	defer bunDB.Close()
	ctx := context.Background()

	ticket := provision(t, svc, "T-0001")

	const sellers = 4
	var wg sync.WaitGroup
	results := make(chan error, sellers)

	for i := 0; i < sellers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordSale(ctx, "T-0001")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	accepted := 0
	for err := range results {
		if err == nil {
			accepted++
			continue
		}
		var aerr *checkin.AdmissionError
		if errors.As(err, &aerr) {
			assert.Equal(t, checkin.ReasonAlreadySold, aerr.Reason)
		} else {
			assert.ErrorIs(t, err, checkin.ErrConflict)
		}
	}
	assert.Equal(t, 1, accepted)

	events, err := scanLedger.ListForTicket(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestProvisionDuplicateNumberOnDisk(t *testing.T) {
	svc, _, bunDB := setupScenario(t)
	defer bunDB.Close()
	ctx := context.Background()

	provision(t, svc, "T-0001")

	_, err := svc.ProvisionTicket(ctx, "T-0001")
	assert.ErrorIs(t, err, checkin.ErrDuplicateNumber)

	// A fresh number still goes through
	other := models.Ticket{ID: uuid.New().String(), Number: "T-0002", Status: models.StatusPending}
	assert.NoError(t, svc.Store.InsertTicket(ctx, other))
}
