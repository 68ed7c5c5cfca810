package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Ticket status values. VENDU marks a ticket sold on-site; once a ticket
// is VENDU, gate scans against it are rejected.
const (
	StatusPending = "PENDING"
	StatusEntered = "ENTERED"
	StatusExited  = "EXITED"
	StatusVendu   = "VENDU"
)

type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	ID     string     `bun:"id,pk" json:"id"`
	Number string     `bun:"number,unique,notnull" json:"number"`
	Status string     `bun:"status,notnull" json:"status"`
	SoldAt *time.Time `bun:"sold_at,nullzero" json:"sold_at,omitempty"`
}
