package catalog

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/solatis/vesmapper/internal/core/db"
	"github.com/solatis/vesmapper/internal/types"
)

// SQLProvider reads the catalog from the ves_event_types table.
type SQLProvider struct {
	db      *sqlx.DB
	queries *db.Queries
}

type eventTypeRow struct {
	Version   string `db:"version"`
	EventType string `db:"event_type"`
}

// OpenSQLProvider connects to dbURL and prepares the catalog queries. The
// schema must already be migrated.
func OpenSQLProvider(dbURL string) (*SQLProvider, error) {
	conn, err := db.Open(dbURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrCatalogUnavailable, err)
	}
	p, err := NewSQLProvider(conn)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return p, nil
}

// NewSQLProvider wraps an open connection.
func NewSQLProvider(conn *sqlx.DB) (*SQLProvider, error) {
	q, err := db.LoadQueries(conn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrCatalogUnavailable, err)
	}
	return &SQLProvider{db: conn, queries: q}, nil
}

// AvailableVersionsAndEventTypes queries every (version, event type) pair.
func (p *SQLProvider) AvailableVersionsAndEventTypes(ctx context.Context) (types.VESCatalog, error) {
	var rows []eventTypeRow
	if err := p.queries.Select(ctx, "list-ves-event-types", &rows); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrCatalogUnavailable, err)
	}
	c := make(types.VESCatalog)
	for _, r := range rows {
		c.Add(r.Version, r.EventType)
	}
	return c, nil
}

// Replace overwrites the stored event types of every version present in c,
// one transaction for the whole catalog. Versions absent from c are kept.
func (p *SQLProvider) Replace(ctx context.Context, c types.VESCatalog) error {
	return p.queries.InTx(ctx, func(tx *db.Queries) error {
		for version := range c {
			if _, err := tx.Exec(ctx, "delete-ves-version", version); err != nil {
				return fmt.Errorf("failed to clear version %s: %w", version, err)
			}
			for _, et := range c.EventTypes(version) {
				if _, err := tx.Exec(ctx, "insert-ves-event-type", version, et); err != nil {
					return fmt.Errorf("failed to insert %s/%s: %w", version, et, err)
				}
			}
		}
		return nil
	})
}

// Close releases the database connection.
func (p *SQLProvider) Close() error {
	return p.db.Close()
}
