package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apierrors "github.com/gabozzz15/DDS-SalvadorAllende-sub001/pkg/errors"
	"github.com/gabozzz15/DDS-SalvadorAllende-sub001/pkg/model/alert"
)

// alertEvent is the wire form producers publish. Ids are assigned by the
// producer; severity uses the lower-case string form.
type alertEvent struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	Severity    string          `json:"severity"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	Asset       *alert.AssetRef `json:"asset,omitempty"`
}

// process turns one event payload into a stored alert. Returned errors other
// than ErrStoreUnavailable mean the event itself is bad and must be dropped.
func (c *Consumer) process(ctx context.Context, payload []byte) error {
	var ev alertEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("unmarshal alert event: %w", err)
	}
	sev, err := alert.ParseSeverity(ev.Severity)
	if err != nil {
		return fmt.Errorf("alert event %d: %w", ev.ID, err)
	}

	if c.dedup != nil {
		seen, err := c.dedup.Seen(ctx, ev.ID)
		if err != nil {
			// Dedup is an optimization; on cache failure fall through and
			// let the store's uniqueness check decide.
			c.logger.Warn("dedup unavailable", slog.String("err", err.Error()))
		} else if seen {
			c.logger.Debug("alert event already ingested", slog.Int64("id", ev.ID))
			return nil
		}
	}

	a := &alert.Alert{
		ID:          ev.ID,
		Type:        ev.Type,
		Severity:    sev,
		Title:       ev.Title,
		Description: ev.Description,
		CreatedAt:   ev.CreatedAt,
		Asset:       ev.Asset,
	}
	if err := c.svc.Create(ctx, a); err != nil {
		if errors.Is(err, apierrors.ErrDuplicateID) {
			// Redelivery that slipped past the deduper.
			c.logger.Debug("alert already stored", slog.Int64("id", ev.ID))
			return nil
		}
		return err
	}
	c.logger.Info("alert ingested", slog.Int64("id", a.ID), slog.String("severity", a.Severity.String()))
	return nil
}
