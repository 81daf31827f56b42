package retriever

import (
	"context"

	"github.com/google/uuid"

	"github.com/tuannguyen/text2sql/internal/errors"
	"github.com/tuannguyen/text2sql/internal/graph"
	"github.com/tuannguyen/text2sql/internal/logging"
)

// Searcher performs vector relevance search over schema nodes
type Searcher interface {
	Search(ctx context.Context, queryText string, label graph.Label, topK int) ([]graph.RelevanceMatch, error)
}

// Expander resolves seed tables and columns into a structural schema context
type Expander interface {
	Expand(ctx context.Context, tables []string, columns []graph.ColumnRef) (*graph.ExpandedContext, error)
}

// Result is the outcome of one retrieval: the expanded structural context
// plus the raw vector matches that seeded it
type Result struct {
	Context       *graph.ExpandedContext
	VectorMatches []graph.RelevanceMatch
	SampleQueries []string
}

// HybridRetriever combines vector relevance search with graph traversal:
// the vector signal picks seed tables and columns, the graph walk pulls in
// the keys, joins, and metrics needed to write SQL against them
type HybridRetriever struct {
	searcher Searcher
	expander Expander
	logger   *logging.Logger
}

// New creates a hybrid retriever
func New(searcher Searcher, expander Expander, logger *logging.Logger) *HybridRetriever {
	return &HybridRetriever{
		searcher: searcher,
		expander: expander,
		logger:   logger,
	}
}

// Retrieve runs the full pipeline for one question. Search failure is fatal;
// a search that returns no matches yields an empty context without error.
// Only one hop of expansion is performed regardless of expandDepth.
func (r *HybridRetriever) Retrieve(
	ctx context.Context,
	question string,
	topK int,
	expandDepth int,
) (*Result, error) {
	logger := r.logger.WithField("request_id", uuid.NewString())

	matches, err := r.searcher.Search(ctx, question, "", topK)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeGraph, "relevance search failed")
	}

	tables, columns := extractSeeds(matches)

	logger.WithFields(map[string]any{
		"matches": len(matches),
		"tables":  len(tables),
		"columns": len(columns),
	}).Info("extracted expansion seeds")

	if expandDepth > 1 {
		logger.Debugf("expand depth %d requested, traversal is single hop", expandDepth)
	}

	expanded, err := r.expander.Expand(ctx, tables, columns)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeGraph, "context expansion failed")
	}

	return &Result{
		Context:       expanded,
		VectorMatches: matches,
		SampleQueries: []string{},
	}, nil
}

// extractSeeds derives seed tables and column refs from vector matches.
// Table matches seed their own table, column matches seed the owning table
// plus the column itself, metric matches seed their base table. Concept
// matches carry no structural seed.
func extractSeeds(matches []graph.RelevanceMatch) ([]string, []graph.ColumnRef) {
	var (
		tables  []string
		columns []graph.ColumnRef
	)

	seenTables := make(map[string]bool)

	addTable := func(name string) {
		if name == "" || seenTables[name] {
			return
		}

		seenTables[name] = true
		tables = append(tables, name)
	}

	for _, match := range matches {
		switch node := match.Node.(type) {
		case graph.TableNode:
			addTable(node.TableName)
		case graph.ColumnNode:
			addTable(node.TableName)

			if node.TableName != "" && node.ColumnName != "" {
				columns = append(columns, graph.ColumnRef{
					Table:  node.TableName,
					Column: node.ColumnName,
				})
			}
		case graph.MetricNode:
			addTable(node.BaseTable)
		}
	}

	return tables, columns
}
