package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableNodeEmbeddingText(t *testing.T) {
	tests := []struct {
		name string
		node TableNode
		want string
	}{
		{
			name: "full",
			node: TableNode{
				TableName:    "payment",
				BusinessName: "Thanh toán",
				Description:  "Customer payments",
				Grain:        "one row per payment",
				Tags:         []string{"finance", "fact"},
			},
			want: "payment | Thanh toán | Customer payments | one row per payment | tags: finance fact",
		},
		{
			name: "sparse",
			node: TableNode{TableName: "payment"},
			want: "payment",
		},
		{
			name: "empty fields skipped",
			node: TableNode{TableName: "payment", Grain: "one row per payment"},
			want: "payment | one row per payment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.node.EmbeddingText())
		})
	}
}

func TestColumnNodeEmbeddingText(t *testing.T) {
	node := ColumnNode{
		TableName:    "payment",
		ColumnName:   "amount",
		BusinessName: "Số tiền",
		Description:  "Payment amount",
		Semantics:    []string{"money", "additive"},
		Unit:         "USD",
	}

	assert.Equal(t,
		"payment.amount | Số tiền | Payment amount | semantics: money additive | unit: USD",
		node.EmbeddingText())
}

func TestColumnNodeEmbeddingText_NoTable(t *testing.T) {
	node := ColumnNode{ColumnName: "amount"}

	assert.Equal(t, "amount", node.EmbeddingText())
}

func TestConceptNodeEmbeddingText(t *testing.T) {
	node := ConceptNode{
		Name:     "revenue",
		Synonyms: []string{"doanh thu", "sales"},
	}

	assert.Equal(t, "revenue | synonyms: doanh thu sales", node.EmbeddingText())
}

func TestMetricNodeEmbeddingText(t *testing.T) {
	node := MetricNode{
		Name:       "total_revenue",
		Expression: "SUM(amount)",
		BaseTable:  "payment",
	}

	assert.Equal(t,
		"total_revenue | expression: SUM(amount) | base_table: payment",
		node.EmbeddingText())
}

func TestGenericNodeEmbeddingText(t *testing.T) {
	node := GenericNode{
		NodeLabel: "Unknown",
		Props: map[string]any{
			"b_field": "second",
			"a_field": "first",
			"count":   3,
			"empty":   "",
		},
	}

	// String values only, in sorted key order
	assert.Equal(t, "first | second", node.EmbeddingText())
}

func TestNodeFromProps(t *testing.T) {
	tests := []struct {
		name  string
		label Label
		props map[string]any
		want  string
	}{
		{
			name:  "table",
			label: LabelTable,
			props: map[string]any{
				"table_name":  "rental",
				"description": "Rental transactions",
				"tags":        []any{"fact"},
			},
			want: "rental | Rental transactions | tags: fact",
		},
		{
			name:  "column",
			label: LabelColumn,
			props: map[string]any{
				"table_name":  "rental",
				"column_name": "rental_date",
			},
			want: "rental.rental_date",
		},
		{
			name:  "concept",
			label: LabelConcept,
			props: map[string]any{"concept": "churn"},
			want:  "churn",
		},
		{
			name:  "metric",
			label: LabelMetric,
			props: map[string]any{
				"name":       "rentals_per_day",
				"expression": "COUNT(*)",
				"base_table": "rental",
			},
			want: "rentals_per_day | expression: COUNT(*) | base_table: rental",
		},
		{
			name:  "unknown label falls back to generic",
			label: Label("Widget"),
			props: map[string]any{"title": "spanner"},
			want:  "spanner",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := NodeFromProps(tt.label, tt.props)
			assert.Equal(t, tt.want, node.EmbeddingText())
		})
	}
}
