package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Scan actions recorded in the ledger. ENTER and EXIT come from gate
// devices, SELL from the on-site sale path.
const (
	ActionEnter = "ENTER"
	ActionExit  = "EXIT"
	ActionSell  = "SELL"
)

// ScanEvent is one row of the append-only scan ledger. Rows are never
// updated or deleted once written.
type ScanEvent struct {
	bun.BaseModel `bun:"table:scan_events,alias:scan_event"`

	ID        string    `bun:"id,pk" json:"id"`
	TicketID  string    `bun:"ticket_id,notnull" json:"ticket_id"`
	Action    string    `bun:"action,notnull" json:"action"`
	ScannedAt time.Time `bun:"scanned_at,notnull" json:"scanned_at"`
}

// ScanRecord is a ledger row joined with its ticket number, the shape
// used by activity feeds and the scan stream.
type ScanRecord struct {
	EventID      string    `bun:"event_id" json:"event_id"`
	TicketNumber string    `bun:"ticket_number" json:"ticket_number"`
	Action       string    `bun:"action" json:"action"`
	ScannedAt    time.Time `bun:"scanned_at" json:"scanned_at"`
}
