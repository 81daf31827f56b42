package graph

import (
	"fmt"
	"sort"
	"strings"
)

// Label identifies a schema node variant in the graph store
type Label string

const (
	LabelTable   Label = "Table"
	LabelColumn  Label = "Column"
	LabelConcept Label = "Concept"
	LabelMetric  Label = "Metric"
)

// IndexedLabels lists the node labels that carry a vector index
var IndexedLabels = []Label{LabelTable, LabelColumn, LabelConcept, LabelMetric}

// SchemaNode is one of the four schema node variants. Each variant knows how
// to render itself as embeddable text.
type SchemaNode interface {
	Label() Label
	EmbeddingText() string
}

// TableNode represents a Table node in the schema graph
type TableNode struct {
	TableName    string
	BusinessName string
	TableType    string
	Description  string
	Grain        string
	Catalog      string
	Schema       string
	Domain       string
	Tags         []string
}

func (n TableNode) Label() Label { return LabelTable }

// EmbeddingText renders the table as
// {table_name} | {business_name} | {description} | {grain} | tags: {tags}
func (n TableNode) EmbeddingText() string {
	parts := []string{n.TableName, n.BusinessName, n.Description, n.Grain}

	if len(n.Tags) > 0 {
		parts = append(parts, "tags: "+strings.Join(n.Tags, " "))
	}

	return joinNonEmpty(parts)
}

// ColumnNode represents a Column node in the schema graph
type ColumnNode struct {
	TableName    string
	ColumnName   string
	DataType     string
	BusinessName string
	Description  string
	Semantics    []string
	Unit         string
}

func (n ColumnNode) Label() Label { return LabelColumn }

// EmbeddingText renders the column as
// {table_name}.{column_name} | {business_name} | {description} | semantics | unit
func (n ColumnNode) EmbeddingText() string {
	fullName := n.ColumnName
	if n.TableName != "" {
		fullName = n.TableName + "." + n.ColumnName
	}

	parts := []string{fullName, n.BusinessName, n.Description}

	if len(n.Semantics) > 0 {
		parts = append(parts, "semantics: "+strings.Join(n.Semantics, " "))
	}

	if n.Unit != "" {
		parts = append(parts, "unit: "+n.Unit)
	}

	return joinNonEmpty(parts)
}

// ConceptNode represents a business Concept node referenced by tables and
// columns
type ConceptNode struct {
	Name     string
	Synonyms []string
}

func (n ConceptNode) Label() Label { return LabelConcept }

// EmbeddingText renders the concept as {name} | synonyms: {synonyms}
func (n ConceptNode) EmbeddingText() string {
	parts := []string{n.Name}

	if len(n.Synonyms) > 0 {
		parts = append(parts, "synonyms: "+strings.Join(n.Synonyms, " "))
	}

	return joinNonEmpty(parts)
}

// MetricNode represents a Metric node declared against a base table
type MetricNode struct {
	Name         string
	BusinessName string
	Description  string
	Expression   string
	BaseTable    string
	Grain        string
	Unit         string
	Tags         []string
}

func (n MetricNode) Label() Label { return LabelMetric }

// EmbeddingText renders the metric as
// {name} | {business_name} | {description} | expression | base_table | tags
func (n MetricNode) EmbeddingText() string {
	parts := []string{
		n.Name,
		n.BusinessName,
		n.Description,
		"expression: " + n.Expression,
		"base_table: " + n.BaseTable,
	}

	if len(n.Tags) > 0 {
		parts = append(parts, "tags: "+strings.Join(n.Tags, " "))
	}

	return joinNonEmpty(parts)
}

// GenericNode is the fallback for unrecognized labels; its embeddable text
// concatenates all string attribute values
type GenericNode struct {
	NodeLabel Label
	Props     map[string]any
}

func (n GenericNode) Label() Label { return n.NodeLabel }

func (n GenericNode) EmbeddingText() string {
	keys := make([]string, 0, len(n.Props))
	for k := range n.Props {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	var parts []string

	for _, k := range keys {
		if s, ok := n.Props[k].(string); ok && s != "" {
			parts = append(parts, s)
		}
	}

	return strings.Join(parts, " | ")
}

// NodeFromProps builds the schema node variant for a label from raw
// attribute values returned by the store
func NodeFromProps(label Label, props map[string]any) SchemaNode {
	switch label {
	case LabelTable:
		return TableNode{
			TableName:    asString(props["table_name"]),
			BusinessName: asString(props["business_name"]),
			TableType:    asString(props["table_type"]),
			Description:  asString(props["description"]),
			Grain:        asString(props["grain"]),
			Catalog:      asString(props["catalog"]),
			Schema:       asString(props["schema"]),
			Domain:       asString(props["domain"]),
			Tags:         asStringSlice(props["tags"]),
		}
	case LabelColumn:
		return ColumnNode{
			TableName:    asString(props["table_name"]),
			ColumnName:   asString(props["column_name"]),
			DataType:     asString(props["data_type"]),
			BusinessName: asString(props["business_name"]),
			Description:  asString(props["description"]),
			Semantics:    asStringSlice(props["semantics"]),
			Unit:         asString(props["unit"]),
		}
	case LabelConcept:
		return ConceptNode{
			Name:     asString(props["concept"]),
			Synonyms: asStringSlice(props["synonyms"]),
		}
	case LabelMetric:
		return MetricNode{
			Name:         asString(props["name"]),
			BusinessName: asString(props["business_name"]),
			Description:  asString(props["description"]),
			Expression:   asString(props["expression"]),
			BaseTable:    asString(props["base_table"]),
			Grain:        asString(props["grain"]),
			Unit:         asString(props["unit"]),
			Tags:         asStringSlice(props["tags"]),
		}
	default:
		return GenericNode{NodeLabel: label, Props: props}
	}
}

// joinNonEmpty joins the non-empty parts with " | "
func joinNonEmpty(parts []string) string {
	kept := parts[:0]

	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}

	return strings.Join(kept, " | ")
}

// asString extracts a string attribute value
func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asStringSlice extracts a string list attribute value; the store returns
// lists as []any
func asStringSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		result := make([]string, 0, len(vals))
		for _, item := range vals {
			result = append(result, fmt.Sprintf("%v", item))
		}

		return result
	default:
		return nil
	}
}

// asBool extracts a boolean attribute value; absent values are false
func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

// asFloat extracts a numeric attribute value
func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	case int:
		return float64(n)
	default:
		return 0
	}
}
