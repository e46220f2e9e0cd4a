package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apierrors "github.com/gabozzz15/DDS-SalvadorAllende-sub001/pkg/errors"
	"github.com/gabozzz15/DDS-SalvadorAllende-sub001/pkg/model/alert"
)

// Expected schema, managed by the external migration tooling:
//
//	CREATE TABLE alert (
//	    id          BIGINT PRIMARY KEY,
//	    type        TEXT NOT NULL,
//	    severity    TEXT NOT NULL,
//	    title       TEXT NOT NULL,
//	    description TEXT NOT NULL DEFAULT '',
//	    read        BOOLEAN NOT NULL DEFAULT FALSE,
//	    created_at  TIMESTAMPTZ NOT NULL,
//	    asset_id    TEXT,
//	    asset_code  TEXT,
//	    asset_name  TEXT
//	)

const alertColumns = "id, type, severity, title, description, read, created_at, asset_id, asset_code, asset_name"

// uniqueViolation is the Postgres SQLSTATE for duplicate primary keys.
const uniqueViolation = "23505"

// InsertAlert stores a new alert. The id is producer-assigned; inserting an
// id already present fails with ErrDuplicateID.
func (c *Client) InsertAlert(ctx context.Context, a *alert.Alert) error {
	var assetID, assetCode, assetName *string
	if a.Asset != nil {
		assetID, assetCode, assetName = &a.Asset.ID, &a.Asset.Code, &a.Asset.Name
	}
	_, err := c.pool.Exec(ctx,
		"INSERT INTO alert ("+alertColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)",
		a.ID, a.Type, a.Severity.String(), a.Title, a.Description, a.Read, a.CreatedAt,
		assetID, assetCode, assetName)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: id %d", apierrors.ErrDuplicateID, a.ID)
		}
		return storeErr("insert alert", err)
	}
	return nil
}

// GetAlert returns the alert with the given id, or ErrNotFound.
func (c *Client) GetAlert(ctx context.Context, id int64) (*alert.Alert, error) {
	row := c.pool.QueryRow(ctx, "SELECT "+alertColumns+" FROM alert WHERE id = $1", id)
	a, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierrors.NotFoundf("id %d", id)
		}
		return nil, storeErr("get alert", err)
	}
	return a, nil
}

// ListAlerts scans alerts matching the read-state filter, ordered by creation
// time descending (id descending breaks ties). total is the match count
// before paging. pageSize <= 0 disables paging and returns every match.
func (c *Client) ListAlerts(ctx context.Context, state alert.ReadState, page, pageSize int) (alert.Alerts, int, error) {
	var whereSB strings.Builder
	whereSB.WriteString(" WHERE 1=1")
	switch state {
	case alert.ReadStateUnread:
		whereSB.WriteString(" AND read = FALSE")
	case alert.ReadStateRead:
		whereSB.WriteString(" AND read = TRUE")
	}

	var total int64
	if err := c.pool.QueryRow(ctx, "SELECT COUNT(*) FROM alert"+whereSB.String()).Scan(&total); err != nil {
		return nil, 0, storeErr("count alerts", err)
	}

	var listSB strings.Builder
	listSB.WriteString("SELECT " + alertColumns + " FROM alert")
	listSB.WriteString(whereSB.String())
	listSB.WriteString(" ORDER BY created_at DESC, id DESC")

	args := make([]interface{}, 0, 2)
	if pageSize > 0 {
		listSB.WriteString(" LIMIT $1")
		args = append(args, pageSize)
		if page > 0 {
			listSB.WriteString(" OFFSET $2")
			args = append(args, (page-1)*pageSize)
		}
	}

	rows, err := c.pool.Query(ctx, listSB.String(), args...)
	if err != nil {
		return nil, 0, storeErr("list alerts", err)
	}
	defer rows.Close()

	alerts := make(alert.Alerts, 0)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storeErr("list alerts", err)
	}
	return alerts, int(total), nil
}

// MarkRead flips read to true for the given alert and returns the updated
// record. Flipping an already-read alert is a no-op success.
func (c *Client) MarkRead(ctx context.Context, id int64) (*alert.Alert, error) {
	row := c.pool.QueryRow(ctx,
		"UPDATE alert SET read = TRUE WHERE id = $1 RETURNING "+alertColumns, id)
	a, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierrors.NotFoundf("id %d", id)
		}
		return nil, storeErr("mark alert read", err)
	}
	return a, nil
}

// MarkAllRead flips every unread alert to read and returns the number of
// rows actually changed. Each row's flip is atomic; the statement touches
// only rows still unread, so already-read alerts are never counted.
func (c *Client) MarkAllRead(ctx context.Context) (int64, error) {
	tag, err := c.pool.Exec(ctx, "UPDATE alert SET read = TRUE WHERE read = FALSE")
	if err != nil {
		return 0, storeErr("mark all alerts read", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteAlert removes the alert permanently. Deleting an absent id is an
// error, not a no-op.
func (c *Client) DeleteAlert(ctx context.Context, id int64) error {
	tag, err := c.pool.Exec(ctx, "DELETE FROM alert WHERE id = $1", id)
	if err != nil {
		return storeErr("delete alert", err)
	}
	if tag.RowsAffected() == 0 {
		return apierrors.NotFoundf("id %d", id)
	}
	return nil
}

// CountUnread returns the number of unread alerts.
func (c *Client) CountUnread(ctx context.Context) (int64, error) {
	var n int64
	if err := c.pool.QueryRow(ctx, "SELECT COUNT(*) FROM alert WHERE read = FALSE").Scan(&n); err != nil {
		return 0, storeErr("count unread alerts", err)
	}
	return n, nil
}

func scanAlert(row pgx.Row) (*alert.Alert, error) {
	var (
		a        alert.Alert
		severity string

		assetID, assetCode, assetName *string
	)
	if err := row.Scan(&a.ID, &a.Type, &severity, &a.Title, &a.Description, &a.Read, &a.CreatedAt,
		&assetID, &assetCode, &assetName); err != nil {
		return nil, err
	}
	sev, err := alert.ParseSeverity(severity)
	if err != nil {
		return nil, fmt.Errorf("stored severity invalid: %w", err)
	}
	a.Severity = sev
	if assetID != nil {
		a.Asset = &alert.AssetRef{ID: *assetID}
		if assetCode != nil {
			a.Asset.Code = *assetCode
		}
		if assetName != nil {
			a.Asset.Name = *assetName
		}
	}
	return &a, nil
}

// storeErr classifies a pool error. Postgres protocol errors keep their
// detail; anything else (network, pool exhaustion, cancelled context) is a
// store-availability failure from the caller's point of view.
func storeErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, apierrors.ErrStoreUnavailable, err)
}
