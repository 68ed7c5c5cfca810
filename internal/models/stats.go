package models

import "time"

// Stats is the on-demand aggregation over the ticket store. The five
// counts are read-committed, not a single transactional snapshot.
type Stats struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
	Entered int `json:"entered"`
	Exited  int `json:"exited"`
	Vendus  int `json:"vendus"`
}

// ActivityEntry is one line of the recent-activity feed.
type ActivityEntry struct {
	TicketNumber string    `json:"ticket_number"`
	Action       string    `json:"action"`
	ScannedAt    time.Time `json:"scanned_at"`
	TimeAgo      string    `json:"time_ago"`
}

// Presence counts registered users for an event, as reported by the
// membership service. It is not ticket occupancy.
type Presence struct {
	Count        int            `json:"count"`
	CountsByRole map[string]int `json:"counts_by_role"`
}
