package loader

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/tuannguyen/text2sql/internal/config"
	"github.com/tuannguyen/text2sql/internal/errors"
	"github.com/tuannguyen/text2sql/internal/schemacache"
)

// sampleRowLimit is the number of sample rows fetched per table
const sampleRowLimit = 3

// Catalog provides table schema information from a relational database
type Catalog interface {
	// TableSchema describes one table; includeSamples additionally fetches a
	// few sample rows
	TableSchema(ctx context.Context, table string, includeSamples bool) (*schemacache.TableSchema, error)

	// ListTables returns the names of all base tables in the schema
	ListTables(ctx context.Context) ([]string, error)

	// Close releases the underlying connection pool
	Close() error
}

// MySQLCatalog reads schema metadata from information_schema
type MySQLCatalog struct {
	db     *sqlx.DB
	schema string
}

// NewMySQLCatalog opens a connection pool against the configured DSN
func NewMySQLCatalog(cfg config.DatabaseConfig) (*MySQLCatalog, error) {
	if cfg.DSN == "" {
		return nil, errors.New(errors.ErrTypeConfig, "database DSN is required").
			WithSuggestion("Set the TEXT2SQL_DB_DSN environment variable")
	}

	db, err := sqlx.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to open database")
	}

	schema := cfg.SchemaName
	if schema == "" {
		schema = schemaFromDSN(cfg.DSN)
	}

	if schema == "" {
		return nil, errors.New(errors.ErrTypeConfig, "database schema name is required").
			WithSuggestion("Set TEXT2SQL_DB_SCHEMA_NAME or include a database name in the DSN")
	}

	return &MySQLCatalog{db: db, schema: schema}, nil
}

// Close releases the connection pool
func (c *MySQLCatalog) Close() error {
	return c.db.Close()
}

// ListTables returns all base table names in the schema, sorted
func (c *MySQLCatalog) ListTables(ctx context.Context) ([]string, error) {
	var tables []string

	err := c.db.SelectContext(ctx, &tables, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = ? AND table_type = 'BASE TABLE'
		ORDER BY table_name`, c.schema)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, "failed to list tables")
	}

	return tables, nil
}

type columnRow struct {
	Name      string `db:"column_name"`
	Type      string `db:"column_type"`
	Nullable  string `db:"is_nullable"`
	ColumnKey string `db:"column_key"`
}

type foreignKeyRow struct {
	Column    string `db:"column_name"`
	RefTable  string `db:"referenced_table_name"`
	RefColumn string `db:"referenced_column_name"`
}

// TableSchema describes one table from information_schema
func (c *MySQLCatalog) TableSchema(
	ctx context.Context,
	table string,
	includeSamples bool,
) (*schemacache.TableSchema, error) {
	var columns []columnRow

	err := c.db.SelectContext(ctx, &columns, `
		SELECT column_name, column_type, is_nullable, column_key
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position`, c.schema, table)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeDatabase,
			"failed to describe table %s", table)
	}

	if len(columns) == 0 {
		return nil, errors.Newf(errors.ErrTypeNotFound,
			"table %s not found in schema %s", table, c.schema)
	}

	schema := &schemacache.TableSchema{Name: table}

	for _, col := range columns {
		schema.Columns = append(schema.Columns, schemacache.ColumnDescriptor{
			Name:     col.Name,
			Type:     col.Type,
			Nullable: col.Nullable == "YES",
		})

		if col.ColumnKey == "PRI" {
			schema.PrimaryKey = append(schema.PrimaryKey, col.Name)
		}
	}

	var fks []foreignKeyRow

	err = c.db.SelectContext(ctx, &fks, `
		SELECT column_name, referenced_table_name, referenced_column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ? AND table_name = ?
			AND referenced_table_name IS NOT NULL
		ORDER BY column_name`, c.schema, table)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeDatabase,
			"failed to read foreign keys for %s", table)
	}

	for _, fk := range fks {
		schema.ForeignKeys = append(schema.ForeignKeys, schemacache.ForeignKey{
			Column:     fk.Column,
			References: fmt.Sprintf("%s(%s)", fk.RefTable, fk.RefColumn),
		})
	}

	if includeSamples {
		rows, err := c.sampleRows(ctx, table)
		if err != nil {
			return nil, err
		}

		schema.SampleRows = rows
	}

	return schema, nil
}

// sampleRows fetches a few rows for prompt context. Identifiers cannot be
// bound as parameters, so the table name is quoted after validation.
func (c *MySQLCatalog) sampleRows(ctx context.Context, table string) ([]map[string]any, error) {
	if !validIdentifier(table) {
		return nil, errors.Newf(errors.ErrTypeValidation, "invalid table name: %s", table)
	}

	query := fmt.Sprintf("SELECT * FROM `%s` LIMIT %d", table, sampleRowLimit)

	rows, err := c.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeDatabase,
			"failed to sample rows from %s", table)
	}
	defer rows.Close()

	var samples []map[string]any

	for rows.Next() {
		row := map[string]any{}
		if err := rows.MapScan(row); err != nil {
			return nil, errors.Wrapf(err, errors.ErrTypeDatabase,
				"failed to scan sample row from %s", table)
		}

		// MapScan yields []byte for text columns
		for key, val := range row {
			if b, ok := val.([]byte); ok {
				row[key] = string(b)
			}
		}

		samples = append(samples, row)
	}

	return samples, rows.Err()
}

func validIdentifier(name string) bool {
	if name == "" {
		return false
	}

	for _, r := range name {
		isLower := r >= 'a' && r <= 'z'
		isUpper := r >= 'A' && r <= 'Z'
		isDigit := r >= '0' && r <= '9'

		if !isLower && !isUpper && !isDigit && r != '_' {
			return false
		}
	}

	return true
}

// schemaFromDSN extracts the database name from a MySQL DSN of the form
// user:pass@tcp(host:port)/dbname?params
func schemaFromDSN(dsn string) string {
	slash := strings.LastIndex(dsn, "/")
	if slash < 0 {
		return ""
	}

	name := dsn[slash+1:]
	if q := strings.Index(name, "?"); q >= 0 {
		name = name[:q]
	}

	return name
}
