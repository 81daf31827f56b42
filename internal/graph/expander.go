package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/tuannguyen/text2sql/internal/errors"
	"github.com/tuannguyen/text2sql/internal/logging"
)

// Expander assembles the structural schema context for a set of seed tables
// by traversing the graph store: table records, key and vector columns,
// join and foreign-key edges, and metrics.
type Expander struct {
	store  Querier
	logger *logging.Logger
}

// NewExpander creates a context expander over the given store
func NewExpander(store Querier, logger *logging.Logger) *Expander {
	return &Expander{
		store:  store,
		logger: logger,
	}
}

// Expand builds the expanded context for the given seed tables. Key columns
// (primary key, time column, foreign key) are always included; other columns
// only when named in relevantColumns. An empty seed set yields an empty
// context without error. The expansion issues a fixed number of read
// queries regardless of input size.
func (e *Expander) Expand(
	ctx context.Context,
	tableNames []string,
	relevantColumns []ColumnRef,
) (*ExpandedContext, error) {
	names := uniqueSorted(tableNames)
	if len(names) == 0 {
		return &ExpandedContext{}, nil
	}

	params := map[string]any{"table_names": names}

	tables, err := e.fetchTables(ctx, params)
	if err != nil {
		return nil, err
	}

	keyColumns, err := e.fetchKeyColumns(ctx, params)
	if err != nil {
		return nil, err
	}

	var vectorColumns []ColumnRecord

	if len(relevantColumns) > 0 {
		vectorColumns, err = e.fetchVectorColumns(ctx, params, relevantColumns)
		if err != nil {
			return nil, err
		}
	}

	columns := mergeColumns(keyColumns, vectorColumns)

	joins, err := e.fetchJoins(ctx, params)
	if err != nil {
		return nil, err
	}

	fkJoins, err := e.fetchForeignKeyJoins(ctx, params)
	if err != nil {
		return nil, err
	}

	// Foreign keys are appended as additional left joins and never
	// deduplicated against declared joins
	joins = append(joins, fkJoins...)

	metrics, err := e.fetchMetrics(ctx, params)
	if err != nil {
		return nil, err
	}

	e.logger.WithFields(map[string]interface{}{
		"tables":  len(tables),
		"columns": len(columns),
		"joins":   len(joins),
		"metrics": len(metrics),
	}).Debug("expanded schema context")

	return &ExpandedContext{
		Tables:  tables,
		Columns: columns,
		Joins:   joins,
		Metrics: metrics,
	}, nil
}

// ExpandAll builds the full context for every table of a domain
func (e *Expander) ExpandAll(ctx context.Context, domain string) (*ExpandedContext, error) {
	query := `
		MATCH (t:Table {domain: $domain})
		RETURN t.table_name AS table_name`

	rows, err := e.store.ExecuteRead(ctx, query, map[string]any{"domain": domain})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeGraph,
			"failed to list tables for domain %s", domain)
	}

	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, asString(row["table_name"]))
	}

	return e.Expand(ctx, names, nil)
}

func (e *Expander) fetchTables(
	ctx context.Context,
	params map[string]any,
) ([]TableRecord, error) {
	query := `
		MATCH (t:Table)
		WHERE t.table_name IN $table_names
		RETURN t.table_name AS table_name,
		       t.business_name AS business_name,
		       t.table_type AS table_type,
		       t.description AS description,
		       t.grain AS grain,
		       t.catalog AS catalog,
		       t.schema AS schema`

	rows, err := e.store.ExecuteRead(ctx, query, params)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeGraph, "failed to fetch tables")
	}

	tables := make([]TableRecord, 0, len(rows))
	for _, row := range rows {
		tables = append(tables, TableRecord{
			TableName:    asString(row["table_name"]),
			BusinessName: asString(row["business_name"]),
			TableType:    asString(row["table_type"]),
			Description:  asString(row["description"]),
			Grain:        asString(row["grain"]),
			Catalog:      asString(row["catalog"]),
			Schema:       asString(row["schema"]),
		})
	}

	return tables, nil
}

// fetchKeyColumns returns the columns flagged at graph-build time as primary
// key, time column, or foreign key. These are structurally required for
// correct joins and filters and are included regardless of the vector
// signal.
func (e *Expander) fetchKeyColumns(
	ctx context.Context,
	params map[string]any,
) ([]ColumnRecord, error) {
	query := `
		MATCH (t:Table)-[r:HAS_COLUMN]->(c:Column)
		WHERE t.table_name IN $table_names
		  AND (
		    r.primary_key = true
		    OR r.time_column = true
		    OR r.foreign_key = true
		  )
		RETURN t.table_name AS table_name,
		       c.column_name AS column_name,
		       c.data_type AS data_type,
		       c.business_name AS business_name,
		       c.description AS description,
		       c.semantics AS semantics,
		       c.unit AS unit,
		       r.primary_key AS is_primary_key,
		       r.time_column AS is_time_column
		ORDER BY t.table_name, c.column_name`

	rows, err := e.store.ExecuteRead(ctx, query, params)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeGraph, "failed to fetch key columns")
	}

	return columnsFromRows(rows, ProvenanceKey), nil
}

// fetchVectorColumns returns the columns of the seed tables named by the
// vector signal
func (e *Expander) fetchVectorColumns(
	ctx context.Context,
	params map[string]any,
	relevantColumns []ColumnRef,
) ([]ColumnRecord, error) {
	query := `
		MATCH (t:Table)-[r:HAS_COLUMN]->(c:Column)
		WHERE t.table_name IN $table_names
		RETURN t.table_name AS table_name,
		       c.column_name AS column_name,
		       c.data_type AS data_type,
		       c.business_name AS business_name,
		       c.description AS description,
		       c.semantics AS semantics,
		       c.unit AS unit,
		       r.primary_key AS is_primary_key,
		       r.time_column AS is_time_column
		ORDER BY t.table_name, c.column_name`

	rows, err := e.store.ExecuteRead(ctx, query, params)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeGraph, "failed to fetch columns")
	}

	wanted := make(map[ColumnRef]bool, len(relevantColumns))
	for _, ref := range relevantColumns {
		wanted[ref] = true
	}

	all := columnsFromRows(rows, ProvenanceVector)

	kept := make([]ColumnRecord, 0, len(wanted))
	for _, col := range all {
		if wanted[col.Ref()] {
			kept = append(kept, col)
		}
	}

	return kept, nil
}

func (e *Expander) fetchJoins(
	ctx context.Context,
	params map[string]any,
) ([]JoinEdge, error) {
	query := `
		MATCH (t1:Table)-[j:JOIN]->(t2:Table)
		WHERE t1.table_name IN $table_names OR t2.table_name IN $table_names
		RETURN t1.table_name AS from_table,
		       t2.table_name AS to_table,
		       j.join_type AS join_type,
		       j.on AS on_clause,
		       j.description AS description`

	rows, err := e.store.ExecuteRead(ctx, query, params)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeGraph, "failed to fetch joins")
	}

	joins := make([]JoinEdge, 0, len(rows))
	for _, row := range rows {
		joins = append(joins, JoinEdge{
			FromTable:   asString(row["from_table"]),
			ToTable:     asString(row["to_table"]),
			JoinType:    asString(row["join_type"]),
			On:          asStringSlice(row["on_clause"]),
			Description: asString(row["description"]),
		})
	}

	return joins, nil
}

// fetchForeignKeyJoins re-materializes foreign-key edges as left joins with
// a single equality predicate
func (e *Expander) fetchForeignKeyJoins(
	ctx context.Context,
	params map[string]any,
) ([]JoinEdge, error) {
	query := `
		MATCH (t1:Table)-[fk:FK]->(t2:Table)
		WHERE t1.table_name IN $table_names OR t2.table_name IN $table_names
		RETURN t1.table_name AS from_table,
		       t2.table_name AS to_table,
		       fk.column AS column,
		       fk.references_column AS references_column,
		       fk.description AS description`

	rows, err := e.store.ExecuteRead(ctx, query, params)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeGraph, "failed to fetch foreign keys")
	}

	joins := make([]JoinEdge, 0, len(rows))

	for _, row := range rows {
		fromTable := asString(row["from_table"])
		toTable := asString(row["to_table"])
		predicate := fmt.Sprintf("%s.%s = %s.%s",
			fromTable, asString(row["column"]),
			toTable, asString(row["references_column"]))

		joins = append(joins, JoinEdge{
			FromTable:   fromTable,
			ToTable:     toTable,
			JoinType:    "left",
			On:          []string{predicate},
			Description: asString(row["description"]),
		})
	}

	return joins, nil
}

func (e *Expander) fetchMetrics(
	ctx context.Context,
	params map[string]any,
) ([]MetricRecord, error) {
	query := `
		MATCH (m:Metric)
		WHERE m.base_table IN $table_names
		RETURN m.name AS name,
		       m.business_name AS business_name,
		       m.description AS description,
		       m.expression AS expression,
		       m.base_table AS base_table,
		       m.grain AS grain,
		       m.unit AS unit`

	rows, err := e.store.ExecuteRead(ctx, query, params)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeGraph, "failed to fetch metrics")
	}

	metrics := make([]MetricRecord, 0, len(rows))
	for _, row := range rows {
		metrics = append(metrics, MetricRecord{
			Name:         asString(row["name"]),
			BusinessName: asString(row["business_name"]),
			Description:  asString(row["description"]),
			Expression:   asString(row["expression"]),
			BaseTable:    asString(row["base_table"]),
			Grain:        asString(row["grain"]),
			Unit:         asString(row["unit"]),
		})
	}

	return metrics, nil
}

// columnsFromRows decodes column query rows with an initial provenance tag
func columnsFromRows(rows []map[string]any, provenance Provenance) []ColumnRecord {
	columns := make([]ColumnRecord, 0, len(rows))

	for _, row := range rows {
		columns = append(columns, ColumnRecord{
			TableName:    asString(row["table_name"]),
			ColumnName:   asString(row["column_name"]),
			DataType:     asString(row["data_type"]),
			BusinessName: asString(row["business_name"]),
			Description:  asString(row["description"]),
			Semantics:    asStringSlice(row["semantics"]),
			Unit:         asString(row["unit"]),
			IsPrimaryKey: asBool(row["is_primary_key"]),
			IsTimeColumn: asBool(row["is_time_column"]),
			Provenance:   provenance,
		})
	}

	return columns
}

// mergeColumns deduplicates key and vector columns by (table, column)
// identity. A column present in both sets is tagged key+vector. The result
// is sorted by table name then column name for deterministic output.
func mergeColumns(keyColumns, vectorColumns []ColumnRecord) []ColumnRecord {
	merged := make(map[ColumnRef]ColumnRecord, len(keyColumns)+len(vectorColumns))

	for _, col := range keyColumns {
		col.Provenance = ProvenanceKey
		merged[col.Ref()] = col
	}

	for _, col := range vectorColumns {
		key := col.Ref()
		if existing, ok := merged[key]; ok {
			existing.Provenance = ProvenanceKeyVector
			merged[key] = existing
		} else {
			col.Provenance = ProvenanceVector
			merged[key] = col
		}
	}

	columns := make([]ColumnRecord, 0, len(merged))
	for _, col := range merged {
		columns = append(columns, col)
	}

	sort.Slice(columns, func(i, j int) bool {
		if columns[i].TableName != columns[j].TableName {
			return columns[i].TableName < columns[j].TableName
		}

		return columns[i].ColumnName < columns[j].ColumnName
	})

	return columns
}

// uniqueSorted deduplicates and sorts the names, dropping empties, so the
// store queries receive deterministic parameters
func uniqueSorted(names []string) []string {
	seen := make(map[string]bool, len(names))

	result := make([]string, 0, len(names))

	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}

		seen[name] = true

		result = append(result, name)
	}

	sort.Strings(result)

	return result
}
