// Package catalog provides the VES catalog query interface consumed by the
// validator, backed by a YAML file or the catalog database.
package catalog

import (
	"context"
	"fmt"

	"github.com/solatis/vesmapper/internal/core/config"
	"github.com/solatis/vesmapper/internal/types"
)

// Provider answers which VES versions and event types are known.
type Provider interface {
	AvailableVersionsAndEventTypes(ctx context.Context) (types.VESCatalog, error)
}

// Open returns the provider selected by cfg. The returned close function
// releases the underlying database connection, if any.
func Open(cfg config.CatalogConfig) (Provider, func() error, error) {
	switch {
	case cfg.File != "" && cfg.DatabaseURL != "":
		return nil, nil, fmt.Errorf("%w: file and database sources are mutually exclusive", types.ErrCatalogUnavailable)
	case cfg.File != "":
		p, err := NewFileProvider(cfg.File)
		if err != nil {
			return nil, nil, err
		}
		return p, func() error { return nil }, nil
	case cfg.DatabaseURL != "":
		p, err := OpenSQLProvider(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: no catalog source configured", types.ErrCatalogUnavailable)
	}
}

// clone copies c so callers cannot mutate a provider's cached catalog.
func clone(c types.VESCatalog) types.VESCatalog {
	out := make(types.VESCatalog, len(c))
	for version, set := range c {
		for et := range set {
			out.Add(version, et)
		}
		if len(set) == 0 {
			out[version] = map[string]struct{}{}
		}
	}
	return out
}
