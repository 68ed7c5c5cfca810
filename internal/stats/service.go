package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-checkin/internal/logger"
	"ms-checkin/internal/models"
	"ms-checkin/internal/utils"
)

const statsCacheKey = "checkin:stats"

// TicketCounter is the read side of the ticket store used for counting.
type TicketCounter interface {
	CountAll(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status string) (int, error)
	CountSold(ctx context.Context) (int, error)
}

// ActivityLedger is the read side of the scan ledger used for the feed.
type ActivityLedger interface {
	ListRecent(ctx context.Context, limit int) ([]models.ScanRecord, error)
}

// MembershipClient reports registered-user presence for an event. It is
// an external collaborator; presence is not ticket occupancy.
type MembershipClient interface {
	Presence(ctx context.Context, eventID string) (*models.Presence, error)
}

// Service derives counts and the activity feed from the store and the
// ledger. It only reads; it never mutates either.
type Service struct {
	Store      TicketCounter
	Ledger     ActivityLedger
	Membership MembershipClient
	Redis      *redis.Client
	Logger     *logger.Logger
	CacheTTL   time.Duration
	Now        func() time.Time
}

func NewService(store TicketCounter, ledger ActivityLedger, log *logger.Logger) *Service {
	return &Service{
		Store:    store,
		Ledger:   ledger,
		Logger:   log,
		CacheTTL: 5 * time.Second,
		Now:      time.Now,
	}
}

// ComputeStats runs the five counting queries. The counts are
// read-committed, not a transactional snapshot; a short redis cache
// absorbs dashboard refresh storms when a client is configured.
func (s *Service) ComputeStats(ctx context.Context) (*models.Stats, error) {
	if cached := s.cachedStats(ctx); cached != nil {
		return cached, nil
	}

	var stats models.Stats
	var err error

	if stats.Total, err = s.Store.CountAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to count tickets: %w", err)
	}
	if stats.Pending, err = s.Store.CountByStatus(ctx, models.StatusPending); err != nil {
		return nil, fmt.Errorf("failed to count pending tickets: %w", err)
	}
	if stats.Entered, err = s.Store.CountByStatus(ctx, models.StatusEntered); err != nil {
		return nil, fmt.Errorf("failed to count entered tickets: %w", err)
	}
	if stats.Exited, err = s.Store.CountByStatus(ctx, models.StatusExited); err != nil {
		return nil, fmt.Errorf("failed to count exited tickets: %w", err)
	}
	if stats.Vendus, err = s.Store.CountSold(ctx); err != nil {
		return nil, fmt.Errorf("failed to count sold tickets: %w", err)
	}

	s.cacheStats(ctx, &stats)
	return &stats, nil
}

// ComputeRecentActivity returns the newest ledger entries joined with
// their ticket number and a relative "time ago" string.
func (s *Service) ComputeRecentActivity(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	records, err := s.Ledger.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent scans: %w", err)
	}

	now := s.Now()
	entries := make([]models.ActivityEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, models.ActivityEntry{
			TicketNumber: record.TicketNumber,
			Action:       record.Action,
			ScannedAt:    record.ScannedAt,
			TimeAgo:      utils.TimeAgo(now, record.ScannedAt),
		})
	}
	return entries, nil
}

// ComputeOnlinePresence delegates to the membership service.
func (s *Service) ComputeOnlinePresence(ctx context.Context, eventID string) (*models.Presence, error) {
	if s.Membership == nil {
		return nil, fmt.Errorf("membership service not configured")
	}
	presence, err := s.Membership.Presence(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch presence for event %s: %w", eventID, err)
	}
	return presence, nil
}

func (s *Service) cachedStats(ctx context.Context) *models.Stats {
	if s.Redis == nil {
		return nil
	}

	payload, err := s.Redis.Get(ctx, statsCacheKey).Result()
	if err != nil {
		if err != redis.Nil && s.Logger != nil {
			s.Logger.Warn("REDIS", fmt.Sprintf("stats cache read failed: %v", err))
		}
		return nil
	}

	var stats models.Stats
	if err := json.Unmarshal([]byte(payload), &stats); err != nil {
		return nil
	}
	return &stats
}

func (s *Service) cacheStats(ctx context.Context, stats *models.Stats) {
	if s.Redis == nil || s.CacheTTL <= 0 {
		return
	}

	payload, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, statsCacheKey, payload, s.CacheTTL).Err(); err != nil && s.Logger != nil {
		s.Logger.Warn("REDIS", fmt.Sprintf("stats cache write failed: %v", err))
	}
}
