package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"ms-checkin/internal/models"
)

// Ledger is the append-only scan log. It exposes no update or delete;
// once appended, an event is permanent.
type Ledger struct {
	Bun *bun.DB
}

func (l *Ledger) Append(ctx context.Context, ticketID, action string, at time.Time) (*models.ScanEvent, error) {
	event := &models.ScanEvent{
		ID:        uuid.New().String(),
		TicketID:  ticketID,
		Action:    action,
		ScannedAt: at,
	}
	_, err := l.Bun.NewInsert().Model(event).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return event, nil
}

// ListRecent returns the newest events joined with their ticket number,
// most recent first. The id tie-break keeps same-millisecond scans in a
// stable order across reads.
func (l *Ledger) ListRecent(ctx context.Context, limit int) ([]models.ScanRecord, error) {
	var records []models.ScanRecord
	err := l.Bun.NewSelect().
		Model((*models.ScanEvent)(nil)).
		ColumnExpr("scan_event.id AS event_id").
		ColumnExpr("t.number AS ticket_number").
		ColumnExpr("scan_event.action AS action").
		ColumnExpr("scan_event.scanned_at AS scanned_at").
		Join("JOIN tickets AS t ON t.id = scan_event.ticket_id").
		OrderExpr("scan_event.scanned_at DESC, scan_event.id DESC").
		Limit(limit).
		Scan(ctx, &records)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (l *Ledger) ListForTicket(ctx context.Context, ticketID string) ([]models.ScanEvent, error) {
	var events []models.ScanEvent
	err := l.Bun.NewSelect().
		Model(&events).
		Where("ticket_id = ?", ticketID).
		OrderExpr("scanned_at ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return events, nil
}
