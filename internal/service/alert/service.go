// Package alert enforces the alert lifecycle: which state changes are legal
// and how listings are filtered. Per alert the read flag only moves
// false -> true, and removal is terminal.
package alert

import (
	"context"
	"log/slog"
	"strings"

	apierrors "github.com/gabozzz15/DDS-SalvadorAllende-sub001/pkg/errors"
	"github.com/gabozzz15/DDS-SalvadorAllende-sub001/pkg/model/alert"
)

// Store is the durable keyed collection of alert records. The Postgres
// client satisfies it; tests inject an in-memory fake.
type Store interface {
	InsertAlert(ctx context.Context, a *alert.Alert) error
	GetAlert(ctx context.Context, id int64) (*alert.Alert, error)
	ListAlerts(ctx context.Context, state alert.ReadState, page, pageSize int) (alert.Alerts, int, error)
	MarkRead(ctx context.Context, id int64) (*alert.Alert, error)
	MarkAllRead(ctx context.Context) (int64, error)
	DeleteAlert(ctx context.Context, id int64) error
	CountUnread(ctx context.Context) (int64, error)
}

// Filter configures a listing. Zero value lists everything in one page.
type Filter struct {
	ReadState alert.ReadState
	// Page/PageSize are the optional paging extension. PageSize <= 0
	// returns the full result set.
	Page     int
	PageSize int
}

type Service struct {
	store  Store
	logger *slog.Logger
}

func New(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// List returns alerts matching the filter, newest first, together with the
// total match count before paging. It never mutates the store.
func (s *Service) List(ctx context.Context, f Filter) (alert.Alerts, int, error) {
	state := f.ReadState
	if state == "" {
		state = alert.ReadStateAll
	}
	switch state {
	case alert.ReadStateAll, alert.ReadStateUnread, alert.ReadStateRead:
	default:
		return nil, 0, apierrors.Validationf("read state %q", string(f.ReadState))
	}
	return s.store.ListAlerts(ctx, state, f.Page, f.PageSize)
}

// Get returns a single alert by id.
func (s *Service) Get(ctx context.Context, id int64) (*alert.Alert, error) {
	return s.store.GetAlert(ctx, id)
}

// MarkRead transitions one alert to read and returns the updated record.
// Marking an already-read alert succeeds without further effect.
func (s *Service) MarkRead(ctx context.Context, id int64) (*alert.Alert, error) {
	a, err := s.store.MarkRead(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("alert marked read", slog.Int64("id", a.ID))
	return a, nil
}

// MarkAllRead transitions every currently unread alert to read and returns
// the number actually transitioned. Zero unread alerts is a normal result,
// not an error. The flip is atomic per record; a racing creation may or may
// not be included.
func (s *Service) MarkAllRead(ctx context.Context) (int64, error) {
	n, err := s.store.MarkAllRead(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("alerts marked read", slog.Int64("count", n))
	return n, nil
}

// Remove deletes the alert permanently. There is no undo and no tombstone;
// subsequent operations on the id fail with ErrNotFound, a second remove
// included.
func (s *Service) Remove(ctx context.Context, id int64) error {
	if err := s.store.DeleteAlert(ctx, id); err != nil {
		return err
	}
	s.logger.Info("alert deleted", slog.Int64("id", id))
	return nil
}

// Unread returns the current unread count.
func (s *Service) Unread(ctx context.Context) (int64, error) {
	return s.store.CountUnread(ctx)
}

// Create validates and stores a producer-submitted alert. Ids are assigned
// by the producer; new alerts always start unread.
func (s *Service) Create(ctx context.Context, a *alert.Alert) error {
	if a == nil {
		return apierrors.Validationf("alert is nil")
	}
	if a.ID <= 0 {
		return apierrors.Validationf("alert id must be positive, got %d", a.ID)
	}
	if strings.TrimSpace(a.Title) == "" {
		return apierrors.Validationf("alert %d has empty title", a.ID)
	}
	if a.Severity < alert.SeverityLow || a.Severity > alert.SeverityCritical {
		return apierrors.Validationf("alert %d severity out of range", a.ID)
	}
	if a.CreatedAt.IsZero() {
		return apierrors.Validationf("alert %d missing creation time", a.ID)
	}
	a.Read = false
	return s.store.InsertAlert(ctx, a)
}
