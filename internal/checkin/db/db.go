package db

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"ms-checkin/internal/models"
)

// DB is the ticket store. All status mutation goes through
// CompareAndSwapStatus; there is no unconditional status update.
type DB struct {
	Bun *bun.DB
}

func (d *DB) GetTicketByNumber(ctx context.Context, number string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("number = ?", number).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (d *DB) GetTicketByID(ctx context.Context, id string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (d *DB) InsertTicket(ctx context.Context, ticket models.Ticket) error {
	_, err := d.Bun.NewInsert().Model(&ticket).Exec(ctx)
	return err
}

// CompareAndSwapStatus flips a ticket from expected to next in one
// conditional UPDATE. It reports false when the row's status no longer
// matches expected, meaning a concurrent scan won the race and the
// caller must re-read. A non-nil soldAt is written together with the
// status so the sale path commits both fields in the same statement.
func (d *DB) CompareAndSwapStatus(ctx context.Context, id, expected, next string, soldAt *time.Time) (bool, error) {
	q := d.Bun.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("status = ?", next).
		Where("id = ?", id).
		Where("status = ?", expected)
	if soldAt != nil {
		q = q.Set("sold_at = ?", soldAt)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (d *DB) CountAll(ctx context.Context) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Count(ctx)
}

func (d *DB) CountByStatus(ctx context.Context, status string) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Where("status = ?", status).
		Count(ctx)
}

func (d *DB) CountSold(ctx context.Context) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Where("sold_at IS NOT NULL").
		Count(ctx)
}
