package sqlgen

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannguyen/text2sql/internal/errors"
	"github.com/tuannguyen/text2sql/internal/graph"
	"github.com/tuannguyen/text2sql/internal/logging"
	"github.com/tuannguyen/text2sql/internal/retriever"
)

type fakeRetriever struct {
	result *retriever.Result
	err    error
}

func (f *fakeRetriever) Retrieve(
	_ context.Context,
	_ string,
	_, _ int,
) (*retriever.Result, error) {
	return f.result, f.err
}

type fakeChat struct {
	completion string
	err        error
	system     string
	user       string
}

func (f *fakeChat) Complete(_ context.Context, system, user string) (string, error) {
	f.system = system
	f.user = user

	return f.completion, f.err
}

func quietLogger() *logging.Logger {
	return logging.New(logging.Options{Level: "error", Output: io.Discard})
}

func revenueContext() *graph.ExpandedContext {
	return &graph.ExpandedContext{
		Tables: []graph.TableRecord{
			{TableName: "payment", Description: "Customer payments"},
		},
		Columns: []graph.ColumnRecord{
			{
				TableName:  "payment",
				ColumnName: "amount",
				DataType:   "decimal",
				Provenance: graph.ProvenanceVector,
			},
			{
				TableName:    "payment",
				ColumnName:   "payment_id",
				DataType:     "int",
				IsPrimaryKey: true,
				Provenance:   graph.ProvenanceKey,
			},
		},
		Joins: []graph.JoinEdge{
			{
				FromTable: "payment",
				ToTable:   "rental",
				JoinType:  "left",
				On:        []string{"payment.rental_id = rental.rental_id"},
			},
		},
		Metrics: []graph.MetricRecord{
			{Name: "total_revenue", Expression: "SUM(amount)", BaseTable: "payment"},
		},
	}
}

func TestGenerate(t *testing.T) {
	chat := &fakeChat{completion: "SELECT SUM(amount) FROM payment;"}
	ret := &fakeRetriever{result: &retriever.Result{Context: revenueContext()}}

	generator := NewGenerator(ret, chat, quietLogger())

	result, err := generator.Generate(context.Background(), "tổng doanh thu", 10)

	require.NoError(t, err)
	assert.Equal(t, "SELECT SUM(amount) FROM payment;", result.SQL)
	assert.Contains(t, chat.user, "tổng doanh thu")
	assert.Contains(t, chat.user, "payment.amount")
	assert.Contains(t, chat.system, "SQL expert")
}

func TestGenerate_StripsCodeFence(t *testing.T) {
	chat := &fakeChat{completion: "```sql\nSELECT 1;\n```"}
	ret := &fakeRetriever{result: &retriever.Result{Context: revenueContext()}}

	generator := NewGenerator(ret, chat, quietLogger())

	result, err := generator.Generate(context.Background(), "test", 10)

	require.NoError(t, err)
	assert.Equal(t, "SELECT 1;", result.SQL)
}

func TestGenerate_EmptyContext(t *testing.T) {
	ret := &fakeRetriever{result: &retriever.Result{Context: &graph.ExpandedContext{}}}

	generator := NewGenerator(ret, &fakeChat{}, quietLogger())

	_, err := generator.Generate(context.Background(), "unanswerable", 10)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no relevant schema context could be retrieved")
	assert.True(t, errors.IsType(err, errors.ErrTypeNotFound))
}

func TestGenerate_RetrievalError(t *testing.T) {
	ret := &fakeRetriever{err: errors.New(errors.ErrTypeGraph, "store down")}

	generator := NewGenerator(ret, &fakeChat{}, quietLogger())

	_, err := generator.Generate(context.Background(), "test", 10)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no relevant schema context could be retrieved")
}

func TestGenerate_ChatError(t *testing.T) {
	chat := &fakeChat{err: errors.New(errors.ErrTypeInternal, "model unavailable")}
	ret := &fakeRetriever{result: &retriever.Result{Context: revenueContext()}}

	generator := NewGenerator(ret, chat, quietLogger())

	_, err := generator.Generate(context.Background(), "test", 10)

	assert.Error(t, err)
}

func TestExtractSQL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", "SELECT 1;", "SELECT 1;"},
		{"sql fence", "```sql\nSELECT 1;\n```", "SELECT 1;"},
		{"plain fence", "```\nSELECT 1;\n```", "SELECT 1;"},
		{"surrounding whitespace", "  SELECT 1;  \n", "SELECT 1;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractSQL(tt.in))
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("doanh thu theo tháng", revenueContext(), "")

	assert.Contains(t, prompt, "## Tables")
	assert.Contains(t, prompt, "- payment")
	assert.Contains(t, prompt, "## Columns")
	assert.Contains(t, prompt, "payment.payment_id int (primary key)")
	assert.Contains(t, prompt, "## Joins")
	assert.Contains(t, prompt, "payment LEFT JOIN rental ON payment.rental_id = rental.rental_id")
	assert.Contains(t, prompt, "## Metrics")
	assert.Contains(t, prompt, "total_revenue = SUM(amount) (base table: payment)")
	assert.Contains(t, prompt, "# Question")
	assert.Contains(t, prompt, "doanh thu theo tháng")
}

func TestBuildPrompt_WithRelationalSchema(t *testing.T) {
	prompt := BuildPrompt("q", &graph.ExpandedContext{}, "TABLE payment (...)")

	assert.Contains(t, prompt, "## Table Definitions")
	assert.Contains(t, prompt, "TABLE payment (...)")
}
