package catalog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/solatis/vesmapper/internal/types"
)

// fileFormat is the on-disk catalog layout:
//
//	versions:
//	  "4.1": [fault, measurement, syslog]
type fileFormat struct {
	Versions map[string][]string `yaml:"versions"`
}

// FileProvider serves a catalog parsed once from a YAML file.
type FileProvider struct {
	path    string
	catalog types.VESCatalog
}

// NewFileProvider reads and parses the catalog file at path.
func NewFileProvider(path string) (*FileProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrCatalogUnavailable, err)
	}
	c, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &FileProvider{path: path, catalog: c}, nil
}

// Parse decodes a YAML catalog. Unknown keys are rejected so typos in the
// top-level layout do not silently produce an empty catalog.
func Parse(r io.Reader) (types.VESCatalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f fileFormat
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("%w: invalid catalog file: %w", types.ErrCatalogUnavailable, err)
	}

	c := types.VESCatalog{}
	for version, eventTypes := range f.Versions {
		if strings.TrimSpace(version) == "" {
			return nil, fmt.Errorf("%w: empty version key", types.ErrCatalogUnavailable)
		}
		c[version] = map[string]struct{}{}
		for _, et := range eventTypes {
			if strings.TrimSpace(et) == "" {
				return nil, fmt.Errorf("%w: empty event type under version %s", types.ErrCatalogUnavailable, version)
			}
			c.Add(version, et)
		}
	}
	return c, nil
}

// AvailableVersionsAndEventTypes returns a copy of the parsed catalog.
func (p *FileProvider) AvailableVersionsAndEventTypes(ctx context.Context) (types.VESCatalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return clone(p.catalog), nil
}

// Path returns the file the catalog was read from.
func (p *FileProvider) Path() string { return p.path }
