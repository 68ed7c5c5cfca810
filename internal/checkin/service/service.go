package checkin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ms-checkin/internal/logger"
	"ms-checkin/internal/models"
)

// TicketStore is the durable ticket mapping. CompareAndSwapStatus is the
// only mutation primitive: it applies the new status only while the row
// still holds the expected one.
type TicketStore interface {
	GetTicketByNumber(ctx context.Context, number string) (*models.Ticket, error)
	CompareAndSwapStatus(ctx context.Context, id, expected, next string, soldAt *time.Time) (bool, error)
	InsertTicket(ctx context.Context, ticket models.Ticket) error
}

// ScanLedger is the append-only audit log of scans.
type ScanLedger interface {
	Append(ctx context.Context, ticketID, action string, at time.Time) (*models.ScanEvent, error)
}

// ScanPublisher streams accepted admissions to downstream consumers.
type ScanPublisher interface {
	PublishScanAccepted(record models.ScanRecord) error
}

// ScanFeed pushes accepted admissions to live dashboard subscribers.
type ScanFeed interface {
	Emit(record models.ScanRecord)
}

// AdmissionService enforces the ticket state machine. Every accepted
// call commits the status flip first (conditionally) and appends the
// ledger event second; a rejected call touches nothing.
type AdmissionService struct {
	Store      TicketStore
	Ledger     ScanLedger
	Logger     *logger.Logger
	Publisher  ScanPublisher
	Feed       ScanFeed
	Now        func() time.Time
	MaxRetries int
}

func NewAdmissionService(store TicketStore, ledger ScanLedger, log *logger.Logger) *AdmissionService {
	return &AdmissionService{
		Store:      store,
		Ledger:     ledger,
		Logger:     log,
		Now:        time.Now,
		MaxRetries: 3,
	}
}

// RecordGateScan applies an ENTER or EXIT attempt against the ticket
// identified by number. Transitions:
//
//	PENDING  + ENTER -> ENTERED      PENDING + EXIT  -> NOT_YET_ENTERED
//	ENTERED  + EXIT  -> EXITED       ENTERED + ENTER -> ALREADY_ENTERED
//	EXITED   + ENTER -> ENTERED      EXITED  + EXIT  -> ALREADY_EXITED
//	VENDU    + any   -> TICKET_SOLD
//
// A lost compare-and-swap race re-reads and re-evaluates, up to
// MaxRetries attempts, then surfaces ErrConflict.
func (s *AdmissionService) RecordGateScan(ctx context.Context, number, action string) (*models.Ticket, error) {
	if number == "" {
		return nil, fmt.Errorf("ticket number is required")
	}
	if action != models.ActionEnter && action != models.ActionExit {
		return nil, fmt.Errorf("invalid gate action %q", action)
	}

	for attempt := 0; attempt < s.retries(); attempt++ {
		ticket, err := s.lookup(ctx, number)
		if err != nil {
			return nil, err
		}

		next, aerr := nextGateStatus(ticket.Status, action)
		if aerr != nil {
			aerr.Number = number
			s.logScan(action, number, "rejected: "+aerr.Message())
			return nil, aerr
		}

		ok, err := s.Store.CompareAndSwapStatus(ctx, ticket.ID, ticket.Status, next, nil)
		if err != nil {
			return nil, &StorageError{Op: "status update", Err: err}
		}
		if !ok {
			// Lost the race against another gate; re-read and re-evaluate.
			continue
		}

		at := s.Now()
		if _, err := s.Ledger.Append(ctx, ticket.ID, action, at); err != nil {
			s.logIntegrity(ticket.ID, fmt.Sprintf("status set to %s but %s ledger append failed: %v", next, action, err))
			return nil, &StorageError{Op: "ledger append", Err: err}
		}

		ticket.Status = next
		s.logScan(action, number, "accepted, status now "+next)
		s.afterCommit(models.ScanRecord{
			TicketNumber: ticket.Number,
			Action:       action,
			ScannedAt:    at,
		})
		return ticket, nil
	}

	return nil, ErrConflict
}

// RecordSale marks a ticket sold on-site. Sale is refused only when the
// ticket is already VENDU; gate history does not block an upsell.
func (s *AdmissionService) RecordSale(ctx context.Context, number string) (*models.Ticket, error) {
	if number == "" {
		return nil, fmt.Errorf("ticket number is required")
	}

	for attempt := 0; attempt < s.retries(); attempt++ {
		ticket, err := s.lookup(ctx, number)
		if err != nil {
			return nil, err
		}

		if ticket.Status == models.StatusVendu {
			aerr := &AdmissionError{Reason: ReasonAlreadySold, Number: number}
			s.logSale(number, "rejected: "+aerr.Message())
			return nil, aerr
		}

		soldAt := s.Now()
		ok, err := s.Store.CompareAndSwapStatus(ctx, ticket.ID, ticket.Status, models.StatusVendu, &soldAt)
		if err != nil {
			return nil, &StorageError{Op: "status update", Err: err}
		}
		if !ok {
			continue
		}

		if _, err := s.Ledger.Append(ctx, ticket.ID, models.ActionSell, soldAt); err != nil {
			s.logIntegrity(ticket.ID, fmt.Sprintf("status set to VENDU but SELL ledger append failed: %v", err))
			return nil, &StorageError{Op: "ledger append", Err: err}
		}

		ticket.Status = models.StatusVendu
		ticket.SoldAt = &soldAt
		s.logSale(number, "sold")
		s.afterCommit(models.ScanRecord{
			TicketNumber: ticket.Number,
			Action:       models.ActionSell,
			ScannedAt:    soldAt,
		})
		return ticket, nil
	}

	return nil, ErrConflict
}

// ProvisionTicket creates a PENDING ticket for the given number. This is
// the entry point used by import jobs and the provisioning endpoint.
func (s *AdmissionService) ProvisionTicket(ctx context.Context, number string) (*models.Ticket, error) {
	if number == "" {
		return nil, fmt.Errorf("ticket number is required")
	}

	ticket := models.Ticket{
		ID:     uuid.New().String(),
		Number: number,
		Status: models.StatusPending,
	}
	if err := s.Store.InsertTicket(ctx, ticket); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "unique") {
			return nil, ErrDuplicateNumber
		}
		return nil, &StorageError{Op: "ticket insert", Err: err}
	}
	return &ticket, nil
}

func nextGateStatus(current, action string) (string, *AdmissionError) {
	switch current {
	case models.StatusPending:
		if action == models.ActionEnter {
			return models.StatusEntered, nil
		}
		return "", &AdmissionError{Reason: ReasonNotYetEntered}
	case models.StatusEntered:
		if action == models.ActionExit {
			return models.StatusExited, nil
		}
		return "", &AdmissionError{Reason: ReasonAlreadyEntered}
	case models.StatusExited:
		// Re-entry after exit is allowed, without a cycle limit.
		if action == models.ActionEnter {
			return models.StatusEntered, nil
		}
		return "", &AdmissionError{Reason: ReasonAlreadyExited}
	default:
		// VENDU and anything unexpected: no gate action is valid.
		return "", &AdmissionError{Reason: ReasonTicketSold}
	}
}

func (s *AdmissionService) lookup(ctx context.Context, number string) (*models.Ticket, error) {
	ticket, err := s.Store.GetTicketByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, &StorageError{Op: "ticket lookup", Err: err}
	}
	return ticket, nil
}

// afterCommit fans the accepted scan out to the stream and the live
// feed. Both are best-effort: a publish failure never rolls back an
// admission that is already durable.
func (s *AdmissionService) afterCommit(record models.ScanRecord) {
	if s.Publisher != nil {
		if err := s.Publisher.PublishScanAccepted(record); err != nil && s.Logger != nil {
			s.Logger.Warn("KAFKA", fmt.Sprintf("failed to publish scan for %s: %v", record.TicketNumber, err))
		}
	}
	if s.Feed != nil {
		s.Feed.Emit(record)
	}
}

func (s *AdmissionService) retries() int {
	if s.MaxRetries > 0 {
		return s.MaxRetries
	}
	return 3
}

func (s *AdmissionService) logScan(action, number, message string) {
	if s.Logger != nil {
		s.Logger.LogScan(action, number, message)
	}
}

func (s *AdmissionService) logSale(number, message string) {
	if s.Logger != nil {
		s.Logger.LogSale(number, message)
	}
}

func (s *AdmissionService) logIntegrity(ticketID, message string) {
	if s.Logger != nil {
		s.Logger.LogIntegrity(ticketID, message)
	}
}
