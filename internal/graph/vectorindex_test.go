package graph

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuannguyen/text2sql/internal/config"
	"github.com/tuannguyen/text2sql/internal/errors"
	"github.com/tuannguyen/text2sql/internal/logging"
	"github.com/tuannguyen/text2sql/internal/testutil"
)

func testIndexConfig(topK int) config.VectorIndexConfig {
	return config.VectorIndexConfig{
		IndexName:          "schema_embeddings",
		SimilarityFunction: "cosine",
		TopK:               topK,
	}
}

func matchRow(nodeID string, label Label, name string, score float64) map[string]any {
	props := map[string]any{}

	switch label {
	case LabelTable:
		props["table_name"] = name
	case LabelColumn:
		props["table_name"] = "payment"
		props["column_name"] = name
	case LabelConcept:
		props["concept"] = name
	case LabelMetric:
		props["name"] = name
		props["base_table"] = "payment"
	}

	return map[string]any{
		"node_id": nodeID,
		"label":   string(label),
		"props":   props,
		"score":   score,
	}
}

func TestIndexName(t *testing.T) {
	index := NewVectorIndex(nil, testutil.NewMockEmbedder(4), testIndexConfig(10), quietLogger())

	assert.Equal(t, "schema_embeddings_table", index.IndexName(LabelTable))
	assert.Equal(t, "schema_embeddings_column", index.IndexName(LabelColumn))
	assert.Equal(t, "schema_embeddings_concept", index.IndexName(LabelConcept))
	assert.Equal(t, "schema_embeddings_metric", index.IndexName(LabelMetric))
}

func TestSearch_EmptyQueryText(t *testing.T) {
	index := NewVectorIndex(testutil.NewMockStore(), testutil.NewMockEmbedder(4),
		testIndexConfig(10), quietLogger())

	_, err := index.Search(context.Background(), "   ", "", 5)

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
}

func TestSearch_EmbeddingFailureIsFatal(t *testing.T) {
	embedder := testutil.NewMockEmbedder(4)
	embedder.EmbedErr = errors.New(errors.ErrTypeEmbedding, "provider down")

	index := NewVectorIndex(testutil.NewMockStore(), embedder, testIndexConfig(10), quietLogger())

	_, err := index.Search(context.Background(), "doanh thu", "", 5)

	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeEmbedding))
}

func TestSearch_SingleLabel(t *testing.T) {
	store := testutil.NewMockStore(
		testutil.WithReadRows("schema_embeddings_table",
			matchRow("n1", LabelTable, "payment", 0.92),
			matchRow("n2", LabelTable, "rental", 0.81),
		),
	)
	index := NewVectorIndex(store, testutil.NewMockEmbedder(4), testIndexConfig(10), quietLogger())

	matches, err := index.Search(context.Background(), "doanh thu", LabelTable, 5)

	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, "n1", matches[0].NodeID)
	assert.Equal(t, LabelTable, matches[0].Label)
	assert.InDelta(t, 0.92, matches[0].Score, 1e-9)

	node, ok := matches[0].Node.(TableNode)
	require.True(t, ok)
	assert.Equal(t, "payment", node.TableName)

	// Only one index was queried
	require.Len(t, store.ReadCalls, 1)
	assert.Equal(t, "schema_embeddings_table", store.ReadCalls[0].Params["index_name"])
}

func TestSearch_AllLabelsMergedAndSorted(t *testing.T) {
	store := testutil.NewMockStore(
		testutil.WithReadRows("schema_embeddings_table",
			matchRow("t1", LabelTable, "payment", 0.90),
			matchRow("t2", LabelTable, "rental", 0.50),
		),
		testutil.WithReadRows("schema_embeddings_column",
			matchRow("c1", LabelColumn, "amount", 0.80),
		),
		testutil.WithReadRows("schema_embeddings_metric",
			matchRow("m1", LabelMetric, "total_revenue", 0.95),
		),
	)
	index := NewVectorIndex(store, testutil.NewMockEmbedder(4), testIndexConfig(10), quietLogger())

	matches, err := index.Search(context.Background(), "doanh thu", "", 10)

	require.NoError(t, err)
	require.Len(t, matches, 4)

	assert.Equal(t, []string{"m1", "t1", "c1", "t2"}, matchIDs(matches))

	// Every indexed label was queried
	assert.Len(t, store.ReadCalls, len(IndexedLabels))
}

func TestSearch_TruncatesToTopK(t *testing.T) {
	store := testutil.NewMockStore(
		testutil.WithReadRows("schema_embeddings_table",
			matchRow("t1", LabelTable, "payment", 0.90),
			matchRow("t2", LabelTable, "rental", 0.85),
		),
		testutil.WithReadRows("schema_embeddings_column",
			matchRow("c1", LabelColumn, "amount", 0.80),
		),
	)
	index := NewVectorIndex(store, testutil.NewMockEmbedder(4), testIndexConfig(10), quietLogger())

	matches, err := index.Search(context.Background(), "doanh thu", "", 2)

	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, []string{"t1", "t2"}, matchIDs(matches))
}

func TestSearch_DefaultTopK(t *testing.T) {
	store := testutil.NewMockStore(
		testutil.WithReadRows("schema_embeddings_table",
			matchRow("t1", LabelTable, "payment", 0.90),
			matchRow("t2", LabelTable, "rental", 0.85),
		),
	)
	index := NewVectorIndex(store, testutil.NewMockEmbedder(4), testIndexConfig(1), quietLogger())

	// topK below 1 falls back to the configured value
	matches, err := index.Search(context.Background(), "doanh thu", "", 0)

	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestSearch_PartialLabelFailure(t *testing.T) {
	var logBuf bytes.Buffer

	logger := logging.New(logging.Options{Level: "warn", Output: &logBuf})

	store := testutil.NewMockStore(
		testutil.WithReadError("schema_embeddings_concept",
			errors.New(errors.ErrTypeGraph, "index does not exist")),
		testutil.WithReadRows("schema_embeddings_table",
			matchRow("t1", LabelTable, "payment", 0.90),
		),
		testutil.WithReadRows("schema_embeddings_column",
			matchRow("c1", LabelColumn, "amount", 0.70),
		),
	)
	index := NewVectorIndex(store, testutil.NewMockEmbedder(4), testIndexConfig(10), logger)

	matches, err := index.Search(context.Background(), "doanh thu", "", 10)

	// The failing label contributes nothing; the call still succeeds
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "c1"}, matchIDs(matches))

	logged := logBuf.String()
	assert.Equal(t, 1, strings.Count(logged, "vector search failed"))
	assert.Contains(t, logged, "Concept")
}

func TestIndexNodes(t *testing.T) {
	store := testutil.NewMockStore(
		testutil.WithReadRows("MATCH (n:Table)",
			map[string]any{
				"node_id": "n1",
				"props":   map[string]any{"table_name": "payment"},
			},
			map[string]any{
				"node_id": "n2",
				"props":   map[string]any{"table_name": "rental"},
			},
			// No embeddable text; skipped
			map[string]any{
				"node_id": "n3",
				"props":   map[string]any{},
			},
		),
	)
	embedder := testutil.NewMockEmbedder(4)
	index := NewVectorIndex(store, embedder, testIndexConfig(10), quietLogger())

	count, err := index.IndexNodes(context.Background(), LabelTable)

	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"payment", "rental"}, embedder.Calls)

	require.Len(t, store.WriteCalls, 1)

	batch, ok := store.WriteCalls[0].Params["batch"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, batch, 2)
	assert.Equal(t, "n1", batch[0]["node_id"])
	assert.Equal(t, "payment", batch[0]["text"])
}

func TestIndexNodes_NoNodes(t *testing.T) {
	store := testutil.NewMockStore()
	index := NewVectorIndex(store, testutil.NewMockEmbedder(4), testIndexConfig(10), quietLogger())

	count, err := index.IndexNodes(context.Background(), LabelConcept)

	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, store.WriteCalls)
}

func TestCreateIndex_FailureIsNotFatal(t *testing.T) {
	var logBuf bytes.Buffer

	logger := logging.New(logging.Options{Level: "warn", Output: &logBuf})

	store := testutil.NewMockStore(
		testutil.WithWriteError(errors.New(errors.ErrTypeGraph, "equivalent index exists")),
	)
	index := NewVectorIndex(store, testutil.NewMockEmbedder(4), testIndexConfig(10), logger)

	index.CreateIndex(context.Background(), LabelTable)

	assert.Contains(t, logBuf.String(), "schema_embeddings_table")
}

func matchIDs(matches []RelevanceMatch) []string {
	ids := make([]string, 0, len(matches))
	for _, match := range matches {
		ids = append(ids, match.NodeID)
	}

	return ids
}
