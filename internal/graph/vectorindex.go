package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/tuannguyen/text2sql/internal/config"
	"github.com/tuannguyen/text2sql/internal/embedding"
	"github.com/tuannguyen/text2sql/internal/errors"
	"github.com/tuannguyen/text2sql/internal/logging"
)

// storeBatchSize is the number of embeddings written back per transaction
const storeBatchSize = 50

// VectorIndex manages per-label vector indexes in the graph store and
// performs similarity search over them
type VectorIndex struct {
	store    Querier
	embedder embedding.Provider
	cfg      config.VectorIndexConfig
	logger   *logging.Logger
}

// NewVectorIndex creates a vector index manager
func NewVectorIndex(
	store Querier,
	embedder embedding.Provider,
	cfg config.VectorIndexConfig,
	logger *logging.Logger,
) *VectorIndex {
	return &VectorIndex{
		store:    store,
		embedder: embedder,
		cfg:      cfg,
		logger:   logger,
	}
}

// IndexName returns the native index name for a label
func (v *VectorIndex) IndexName(label Label) string {
	return fmt.Sprintf("%s_%s", v.cfg.IndexName, strings.ToLower(string(label)))
}

// CreateIndex creates the vector index for a label if it does not exist.
// Creation failures are logged, not fatal: the index may already exist with
// different options.
func (v *VectorIndex) CreateIndex(ctx context.Context, label Label) {
	indexName := v.IndexName(label)

	query := fmt.Sprintf(`
		CREATE VECTOR INDEX %s IF NOT EXISTS
		FOR (n:%s)
		ON n.embedding
		OPTIONS {
			indexConfig: {
				`+"`vector.dimensions`"+`: %d,
				`+"`vector.similarity_function`"+`: '%s'
			}
		}`,
		indexName, label, v.embedder.Dimensions(), v.cfg.SimilarityFunction,
	)

	if err := v.store.ExecuteWrite(ctx, query, nil); err != nil {
		v.logger.WithField("index", indexName).Warnf("vector index creation note: %v", err)
		return
	}

	v.logger.Infof("created vector index: %s", indexName)
}

// CreateAllIndexes creates vector indexes for every indexed label
func (v *VectorIndex) CreateAllIndexes(ctx context.Context) {
	for _, label := range IndexedLabels {
		v.CreateIndex(ctx, label)
	}
}

// DropIndex drops the vector index for a label
func (v *VectorIndex) DropIndex(ctx context.Context, label Label) error {
	indexName := v.IndexName(label)

	query := fmt.Sprintf("DROP INDEX %s IF EXISTS", indexName)
	if err := v.store.ExecuteWrite(ctx, query, nil); err != nil {
		return err
	}

	v.logger.Infof("dropped vector index: %s", indexName)

	return nil
}

// IndexNodes generates embeddings for every node of a label and writes them
// back to the store. Returns the number of nodes processed.
func (v *VectorIndex) IndexNodes(ctx context.Context, label Label) (int, error) {
	query := fmt.Sprintf(`
		MATCH (n:%s)
		RETURN elementId(n) AS node_id, properties(n) AS props`, label)

	rows, err := v.store.ExecuteRead(ctx, query, nil)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrTypeGraph, "failed to fetch %s nodes", label)
	}

	if len(rows) == 0 {
		v.logger.Infof("no %s nodes found", label)
		return 0, nil
	}

	nodeIDs := make([]string, 0, len(rows))
	texts := make([]string, 0, len(rows))

	for _, row := range rows {
		props, _ := row["props"].(map[string]any)
		text := NodeFromProps(label, props).EmbeddingText()

		if strings.TrimSpace(text) == "" {
			continue
		}

		nodeIDs = append(nodeIDs, asString(row["node_id"]))
		texts = append(texts, text)
	}

	v.logger.Infof("embedding %d %s nodes", len(texts), label)

	vectors, err := v.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrTypeEmbedding,
			"failed to embed %s nodes", label)
	}

	for start := 0; start < len(nodeIDs); start += storeBatchSize {
		end := min(start+storeBatchSize, len(nodeIDs))

		if err := v.storeEmbeddings(ctx, nodeIDs[start:end], vectors[start:end], texts[start:end]); err != nil {
			return 0, err
		}
	}

	v.logger.Infof("stored embeddings for %d %s nodes", len(nodeIDs), label)

	return len(nodeIDs), nil
}

// storeEmbeddings writes one batch of embeddings to the store
func (v *VectorIndex) storeEmbeddings(
	ctx context.Context,
	nodeIDs []string,
	vectors [][]float32,
	texts []string,
) error {
	query := `
		UNWIND $batch AS item
		MATCH (n) WHERE elementId(n) = item.node_id
		SET n.embedding = item.embedding,
		    n.embedding_text = item.text`

	batch := make([]map[string]any, 0, len(nodeIDs))
	for i, id := range nodeIDs {
		batch = append(batch, map[string]any{
			"node_id":   id,
			"embedding": toFloat64s(vectors[i]),
			"text":      texts[i],
		})
	}

	if err := v.store.ExecuteWrite(ctx, query, map[string]any{"batch": batch}); err != nil {
		return errors.Wrap(err, errors.ErrTypeGraph, "failed to store embedding batch")
	}

	return nil
}

// IndexAllNodes creates all indexes and backfills embeddings for every
// indexed label. Returns per-label node counts.
func (v *VectorIndex) IndexAllNodes(ctx context.Context) (map[Label]int, error) {
	v.CreateAllIndexes(ctx)

	counts := make(map[Label]int, len(IndexedLabels))

	for _, label := range IndexedLabels {
		count, err := v.IndexNodes(ctx, label)
		if err != nil {
			return nil, err
		}

		counts[label] = count
	}

	return counts, nil
}

// Search embeds the query text and performs similarity search. With a label
// it queries that label's index only; without one it queries every indexed
// label concurrently, merges, sorts by score descending, and truncates to
// topK. A failing label contributes zero results; embedding failure is
// fatal to the call.
func (v *VectorIndex) Search(
	ctx context.Context,
	queryText string,
	label Label,
	topK int,
) ([]RelevanceMatch, error) {
	if strings.TrimSpace(queryText) == "" {
		return nil, errors.New(errors.ErrTypeValidation, "query text must not be empty")
	}

	if topK < 1 {
		topK = v.cfg.TopK
	}

	vector, err := v.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeEmbedding, "failed to embed query text")
	}

	queryVector := toFloat64s(vector)

	if label != "" {
		return v.searchLabel(ctx, queryVector, label, topK)
	}

	return v.searchAllLabels(ctx, queryVector, topK)
}

// searchLabel queries a single label's vector index
func (v *VectorIndex) searchLabel(
	ctx context.Context,
	vector []float64,
	label Label,
	topK int,
) ([]RelevanceMatch, error) {
	query := `
		CALL db.index.vector.queryNodes($index_name, $top_k, $embedding)
		YIELD node, score
		RETURN
			elementId(node) AS node_id,
			labels(node)[0] AS label,
			properties(node) AS props,
			score
		ORDER BY score DESC`

	rows, err := v.store.ExecuteRead(ctx, query, map[string]any{
		"index_name": v.IndexName(label),
		"top_k":      topK,
		"embedding":  vector,
	})
	if err != nil {
		return nil, err
	}

	matches := make([]RelevanceMatch, 0, len(rows))

	for _, row := range rows {
		props, _ := row["props"].(map[string]any)
		matchLabel := Label(asString(row["label"]))

		matches = append(matches, RelevanceMatch{
			NodeID: asString(row["node_id"]),
			Label:  matchLabel,
			Score:  asFloat(row["score"]),
			Node:   NodeFromProps(matchLabel, props),
			Props:  props,
		})
	}

	return matches, nil
}

// searchAllLabels fans out one query per indexed label, tolerating per-label
// failures, and merges the results
func (v *VectorIndex) searchAllLabels(
	ctx context.Context,
	vector []float64,
	topK int,
) ([]RelevanceMatch, error) {
	perLabel := make([][]RelevanceMatch, len(IndexedLabels))

	var wg sync.WaitGroup

	// Queries are read-only and independent, so they can run in parallel
	for i, label := range IndexedLabels {
		wg.Add(1)

		go func(i int, label Label) {
			defer wg.Done()

			matches, err := v.searchLabel(ctx, vector, label, topK)
			if err != nil {
				v.logger.Warnf("vector search failed for %s: %v", label, err)
				return
			}

			perLabel[i] = matches
		}(i, label)
	}

	wg.Wait()

	var all []RelevanceMatch

	summary := make([]string, 0, len(IndexedLabels))

	for i, label := range IndexedLabels {
		all = append(all, perLabel[i]...)
		summary = append(summary, fmt.Sprintf("%s: %d", label, len(perLabel[i])))
	}

	// Stable sort keeps the store's native return order among equal scores
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Score > all[j].Score
	})

	v.logger.Infof("searched %d indexes (%s)", len(IndexedLabels), strings.Join(summary, ", "))

	if len(all) > topK {
		all = all[:topK]
	}

	return all, nil
}

// toFloat64s converts an embedding vector to the store's parameter type
func toFloat64s(vector []float32) []float64 {
	result := make([]float64, len(vector))
	for i, val := range vector {
		result[i] = float64(val)
	}

	return result
}
