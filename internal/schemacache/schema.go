package schemacache

import (
	"fmt"
	"strings"
	"time"
)

// ColumnDescriptor describes one column of a relational table
type ColumnDescriptor struct {
	Name     string
	Type     string
	Nullable bool
}

// ForeignKey describes an outgoing foreign key of a table
type ForeignKey struct {
	Column     string
	References string
}

// TableSchema is the cached description of one relational table, including
// a few sample rows when the loader fetched them
type TableSchema struct {
	Name        string
	Columns     []ColumnDescriptor
	PrimaryKey  []string
	ForeignKeys []ForeignKey
	SampleRows  []map[string]any
	LoadedAt    time.Time
}

// PromptString renders the schema as compact text for inclusion in a
// generation prompt
func (t *TableSchema) PromptString() string {
	var b strings.Builder

	fmt.Fprintf(&b, "TABLE %s (\n", t.Name)

	for _, col := range t.Columns {
		nullable := "NOT NULL"
		if col.Nullable {
			nullable = "NULL"
		}

		fmt.Fprintf(&b, "  %s %s %s,\n", col.Name, col.Type, nullable)
	}

	if len(t.PrimaryKey) > 0 {
		fmt.Fprintf(&b, "  PRIMARY KEY (%s),\n", strings.Join(t.PrimaryKey, ", "))
	}

	for _, fk := range t.ForeignKeys {
		fmt.Fprintf(&b, "  FOREIGN KEY (%s) REFERENCES %s,\n", fk.Column, fk.References)
	}

	b.WriteString(")\n")

	if len(t.SampleRows) > 0 {
		fmt.Fprintf(&b, "-- sample rows for %s:\n", t.Name)

		for _, row := range t.SampleRows {
			parts := make([]string, 0, len(t.Columns))

			for _, col := range t.Columns {
				if val, ok := row[col.Name]; ok {
					parts = append(parts, fmt.Sprintf("%s=%v", col.Name, val))
				}
			}

			fmt.Fprintf(&b, "--   %s\n", strings.Join(parts, ", "))
		}
	}

	return b.String()
}
