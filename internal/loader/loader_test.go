package loader

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannguyen/text2sql/internal/config"
	"github.com/tuannguyen/text2sql/internal/errors"
	"github.com/tuannguyen/text2sql/internal/logging"
	"github.com/tuannguyen/text2sql/internal/schemacache"
	"github.com/tuannguyen/text2sql/internal/selector"
)

type fakeCatalog struct {
	tables map[string]*schemacache.TableSchema
	calls  []string
}

func (f *fakeCatalog) TableSchema(
	_ context.Context,
	table string,
	_ bool,
) (*schemacache.TableSchema, error) {
	f.calls = append(f.calls, table)

	schema, ok := f.tables[table]
	if !ok {
		return nil, errors.Newf(errors.ErrTypeNotFound, "table %s not found", table)
	}

	return schema, nil
}

func (f *fakeCatalog) ListTables(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(f.tables))
	for name := range f.tables {
		names = append(names, name)
	}

	return names, nil
}

func (f *fakeCatalog) Close() error { return nil }

func newTestLoader(t *testing.T, catalog *fakeCatalog) *Loader {
	t.Helper()

	logger := logging.New(logging.Options{Level: "error", Output: io.Discard})
	cache := schemacache.New(config.SchemaCacheConfig{TTL: time.Hour, Capacity: 20}, logger)
	sel := selector.New(selector.DefaultVocabulary(), logger)

	cfg := config.SelectorConfig{
		MaxTables:      5,
		FallbackTables: []string{"film", "actor", "customer"},
	}

	return New(catalog, cache, sel, cfg, logger)
}

func sakilaCatalog() *fakeCatalog {
	tables := map[string]*schemacache.TableSchema{}

	for _, name := range []string{"film", "actor", "customer", "payment", "rental"} {
		tables[name] = &schemacache.TableSchema{
			Name: name,
			Columns: []schemacache.ColumnDescriptor{
				{Name: name + "_id", Type: "int", Nullable: false},
			},
			PrimaryKey: []string{name + "_id"},
		}
	}

	return &fakeCatalog{tables: tables}
}

func TestRelevantSchema_SelectsMatchingTables(t *testing.T) {
	catalog := sakilaCatalog()
	ldr := newTestLoader(t, catalog)

	text, err := ldr.RelevantSchema(context.Background(), "doanh thu theo ngân hàng", 5)

	require.NoError(t, err)
	assert.Contains(t, text, "TABLE payment (")
	assert.Contains(t, text, "TABLE rental (")
	assert.NotContains(t, text, "TABLE film (")
}

func TestRelevantSchema_FallbackWhenNothingMatches(t *testing.T) {
	catalog := sakilaCatalog()
	ldr := newTestLoader(t, catalog)

	text, err := ldr.RelevantSchema(context.Background(), "xyzzy plugh", 5)

	require.NoError(t, err)
	assert.Contains(t, text, "TABLE film (")
	assert.Contains(t, text, "TABLE actor (")
	assert.Contains(t, text, "TABLE customer (")
}

func TestRelevantSchema_CacheHitSkipsCatalog(t *testing.T) {
	catalog := sakilaCatalog()
	ldr := newTestLoader(t, catalog)

	_, err := ldr.RelevantSchema(context.Background(), "doanh thu", 5)
	require.NoError(t, err)

	firstCalls := len(catalog.calls)

	_, err = ldr.RelevantSchema(context.Background(), "doanh thu", 5)
	require.NoError(t, err)

	assert.Equal(t, firstCalls, len(catalog.calls))
}

func TestMinimalSchema_PreservesRequestedOrder(t *testing.T) {
	catalog := sakilaCatalog()
	ldr := newTestLoader(t, catalog)

	text, err := ldr.MinimalSchema(context.Background(), []string{"rental", "film"})

	require.NoError(t, err)
	assert.Less(t,
		strings.Index(text, "TABLE rental ("),
		strings.Index(text, "TABLE film ("))
}

func TestMinimalSchema_UnknownTable(t *testing.T) {
	catalog := sakilaCatalog()
	ldr := newTestLoader(t, catalog)

	_, err := ldr.MinimalSchema(context.Background(), []string{"nonexistent"})

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))
}

func TestFullSchema_IncludesEveryTable(t *testing.T) {
	catalog := sakilaCatalog()
	ldr := newTestLoader(t, catalog)

	text, err := ldr.FullSchema(context.Background())

	require.NoError(t, err)

	for _, name := range []string{"film", "actor", "customer", "payment", "rental"} {
		assert.Contains(t, text, "TABLE "+name+" (")
	}
}

func TestSchemaFromDSN(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"user:pass@tcp(localhost:3306)/sakila", "sakila"},
		{"user:pass@tcp(localhost:3306)/sakila?parseTime=true", "sakila"},
		{"user:pass@tcp(localhost:3306)/", ""},
		{"no-slash", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, schemaFromDSN(tt.dsn), tt.dsn)
	}
}

func TestValidIdentifier(t *testing.T) {
	assert.True(t, validIdentifier("film_actor"))
	assert.True(t, validIdentifier("Table2"))
	assert.False(t, validIdentifier(""))
	assert.False(t, validIdentifier("film; DROP TABLE film"))
	assert.False(t, validIdentifier("film`"))
}
