package loader

import (
	"context"
	"strings"
	"time"

	"github.com/tuannguyen/text2sql/internal/config"
	"github.com/tuannguyen/text2sql/internal/logging"
	"github.com/tuannguyen/text2sql/internal/schemacache"
	"github.com/tuannguyen/text2sql/internal/selector"
)

// Loader loads relational table schemas on demand, keeping the set small by
// selecting tables relevant to the question and serving repeats from cache
type Loader struct {
	catalog  Catalog
	cache    *schemacache.Cache
	selector *selector.Selector
	fallback []string
	logger   *logging.Logger
}

// New creates a loader
func New(
	catalog Catalog,
	cache *schemacache.Cache,
	sel *selector.Selector,
	cfg config.SelectorConfig,
	logger *logging.Logger,
) *Loader {
	return &Loader{
		catalog:  catalog,
		cache:    cache,
		selector: sel,
		fallback: cfg.FallbackTables,
		logger:   logger,
	}
}

// RelevantSchema selects tables for the question and returns their schemas
// rendered as prompt text. Falls back to the configured default tables when
// no keyword matches.
func (l *Loader) RelevantSchema(ctx context.Context, question string, maxTables int) (string, error) {
	tables := l.selector.SelectTables(question, maxTables)

	if len(tables) == 0 {
		l.logger.WithField("question", question).
			Debug("no tables matched, using fallback set")

		tables = l.fallback
	}

	schemas, err := l.loadTables(ctx, tables, true)
	if err != nil {
		return "", err
	}

	return renderSchemas(schemas), nil
}

// MinimalSchema returns the schemas for an explicit table list without
// sample rows
func (l *Loader) MinimalSchema(ctx context.Context, tables []string) (string, error) {
	schemas, err := l.loadTables(ctx, tables, false)
	if err != nil {
		return "", err
	}

	return renderSchemas(schemas), nil
}

// FullSchema returns every table in the catalog, without sample rows.
// Bypasses the selector; intended for schema dumps, not prompts.
func (l *Loader) FullSchema(ctx context.Context) (string, error) {
	tables, err := l.catalog.ListTables(ctx)
	if err != nil {
		return "", err
	}

	schemas, err := l.loadTables(ctx, tables, false)
	if err != nil {
		return "", err
	}

	return renderSchemas(schemas), nil
}

// loadTables resolves each table through the cache, fetching misses from
// the catalog and caching them
func (l *Loader) loadTables(
	ctx context.Context,
	tables []string,
	includeSamples bool,
) ([]*schemacache.TableSchema, error) {
	start := time.Now()

	byName := make(map[string]*schemacache.TableSchema, len(tables))

	hits, misses := l.cache.GetMultiple(tables)
	for _, schema := range hits {
		byName[schema.Name] = schema
	}

	for _, table := range misses {
		schema, err := l.catalog.TableSchema(ctx, table, includeSamples)
		if err != nil {
			return nil, err
		}

		schema.LoadedAt = time.Now()
		l.cache.Set(table, schema)
		byName[table] = schema
	}

	ordered := make([]*schemacache.TableSchema, 0, len(tables))
	for _, table := range tables {
		if schema, ok := byName[table]; ok {
			ordered = append(ordered, schema)
		}
	}

	l.logger.WithFields(map[string]any{
		"tables":    len(tables),
		"cache_hit": len(hits),
		"elapsed":   time.Since(start).String(),
	}).Debug("loaded table schemas")

	return ordered, nil
}

func renderSchemas(schemas []*schemacache.TableSchema) string {
	parts := make([]string, 0, len(schemas))
	for _, schema := range schemas {
		parts = append(parts, schema.PromptString())
	}

	return strings.Join(parts, "\n")
}
