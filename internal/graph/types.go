package graph

// ColumnRef identifies a column by its owning table
type ColumnRef struct {
	Table  string
	Column string
}

// RelevanceMatch is a single vector search hit: the decoded node variant,
// its label, the similarity score, and the raw attribute map as returned by
// the store
type RelevanceMatch struct {
	NodeID string
	Label  Label
	Score  float64
	Node   SchemaNode
	Props  map[string]any
}

// Provenance marks why a column was included in an expanded context
type Provenance string

const (
	// ProvenanceKey marks a column included because it is a primary key,
	// time column, or foreign key
	ProvenanceKey Provenance = "key"
	// ProvenanceVector marks a column included because the vector signal
	// matched it
	ProvenanceVector Provenance = "vector"
	// ProvenanceKeyVector marks a column included by both signals
	ProvenanceKeyVector Provenance = "key+vector"
)

// TableRecord is a table in an expanded context
type TableRecord struct {
	TableName    string
	BusinessName string
	TableType    string
	Description  string
	Grain        string
	Catalog      string
	Schema       string
}

// ColumnRecord is a provenance-tagged column in an expanded context
type ColumnRecord struct {
	TableName    string
	ColumnName   string
	DataType     string
	BusinessName string
	Description  string
	Semantics    []string
	Unit         string
	IsPrimaryKey bool
	IsTimeColumn bool
	Provenance   Provenance
}

// Ref returns the column's (table, column) identity
func (c ColumnRecord) Ref() ColumnRef {
	return ColumnRef{Table: c.TableName, Column: c.ColumnName}
}

// JoinEdge is a join between two tables, either declared explicitly or
// re-materialized from a foreign key
type JoinEdge struct {
	FromTable   string
	ToTable     string
	JoinType    string
	On          []string
	Description string
}

// MetricRecord is a metric declared against a base table
type MetricRecord struct {
	Name         string
	BusinessName string
	Description  string
	Expression   string
	BaseTable    string
	Grain        string
	Unit         string
}

// ExpandedContext is the structural schema context handed to the SQL
// generation stage. Every column belongs to a table in Tables; joins and
// metrics may reference one table outside the seed set.
type ExpandedContext struct {
	Tables  []TableRecord
	Columns []ColumnRecord
	Joins   []JoinEdge
	Metrics []MetricRecord
}

// Empty reports whether the context contains nothing
func (c *ExpandedContext) Empty() bool {
	return len(c.Tables) == 0 && len(c.Columns) == 0 &&
		len(c.Joins) == 0 && len(c.Metrics) == 0
}
