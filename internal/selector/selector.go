package selector

import (
	"sort"
	"strings"

	"github.com/tuannguyen/text2sql/internal/logging"
)

// Selector picks the database tables most likely needed to answer a natural
// language question, using literal substring keyword matching. The question
// is lower-cased but never diacritic-stripped, so the vocabulary carries
// both accented and unaccented Vietnamese forms.
type Selector struct {
	vocab   Vocabulary
	bridges map[pairKey]string
	logger  *logging.Logger
}

type pairKey struct {
	a, b string
}

func makePairKey(x, y string) pairKey {
	if x > y {
		x, y = y, x
	}

	return pairKey{a: x, b: y}
}

// New creates a selector over the given vocabulary
func New(vocab Vocabulary, logger *logging.Logger) *Selector {
	bridges := make(map[pairKey]string, len(vocab.Bridges))

	for _, bridge := range vocab.Bridges {
		if len(bridge.Between) != 2 || bridge.Table == "" {
			continue
		}

		bridges[makePairKey(bridge.Between[0], bridge.Between[1])] = bridge.Table
	}

	return &Selector{
		vocab:   vocab,
		bridges: bridges,
		logger:  logger,
	}
}

// SelectTables scores tables against the question and returns the top
// maxTables names, best first. Returns an empty slice when nothing matches.
func (s *Selector) SelectTables(question string, maxTables int) []string {
	questionLower := strings.ToLower(question)

	selected := make(map[string]bool)
	scores := make(map[string]int)

	// Keyword pass: every matching keyword adds its tables
	for keyword, tables := range s.vocab.Keywords {
		if !strings.Contains(questionLower, keyword) {
			continue
		}

		for _, table := range tables {
			selected[table] = true
			scores[table] += 2
		}
	}

	// Relationship pass: a neighbor of a selected table joins only when some
	// matching keyword names it directly
	staged := make(map[string]bool)

	for table := range selected {
		for _, related := range s.vocab.Relationships[table] {
			if selected[related] {
				continue
			}

			for keyword, tables := range s.vocab.Keywords {
				if !strings.Contains(questionLower, keyword) {
					continue
				}

				if containsString(tables, related) {
					staged[related] = true
					scores[related]++
				}
			}
		}
	}

	for table := range staged {
		selected[table] = true
	}

	// Bridge pass over a snapshot of the current selection
	snapshot := make([]string, 0, len(selected))
	for table := range selected {
		snapshot = append(snapshot, table)
	}

	sort.Strings(snapshot)

	for i := 0; i < len(snapshot); i++ {
		for j := i + 1; j < len(snapshot); j++ {
			bridge, ok := s.bridges[makePairKey(snapshot[i], snapshot[j])]
			if !ok || selected[bridge] {
				continue
			}

			selected[bridge] = true
			scores[bridge]++
		}
	}

	ranked := make([]string, 0, len(selected))
	for table := range selected {
		ranked = append(ranked, table)
	}

	sort.Slice(ranked, func(i, j int) bool {
		keyI := scores[ranked[i]]*10 + s.vocab.Priorities[ranked[i]]
		keyJ := scores[ranked[j]]*10 + s.vocab.Priorities[ranked[j]]

		if keyI != keyJ {
			return keyI > keyJ
		}

		prioI := s.vocab.Priorities[ranked[i]]
		prioJ := s.vocab.Priorities[ranked[j]]

		if prioI != prioJ {
			return prioI > prioJ
		}

		return ranked[i] < ranked[j]
	})

	if maxTables > 0 && len(ranked) > maxTables {
		ranked = ranked[:maxTables]
	}

	if s.logger != nil {
		s.logger.WithField("tables", strings.Join(ranked, ",")).
			Debugf("selected %d tables", len(ranked))
	}

	return ranked
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}

	return false
}
