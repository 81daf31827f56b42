package sqlgen

import (
	"fmt"
	"strings"

	"github.com/tuannguyen/text2sql/internal/graph"
)

const systemPrompt = `You are a SQL expert. Given a database schema context and a question,
write a single SQL query that answers the question.

Rules:
- Use only the tables and columns listed in the context.
- Prefer the declared joins; use their exact join conditions.
- When a metric matches the question, use its expression.
- Return only the SQL query, no explanation.`

// BuildPrompt renders the schema context and question as the user prompt
// for SQL generation. The optional relational schema text is appended when
// the caller loaded live table definitions.
func BuildPrompt(question string, ctx *graph.ExpandedContext, relationalSchema string) string {
	var b strings.Builder

	b.WriteString("# Schema Context\n\n")

	if len(ctx.Tables) > 0 {
		b.WriteString("## Tables\n")

		for _, table := range ctx.Tables {
			fmt.Fprintf(&b, "- %s", table.TableName)

			if table.BusinessName != "" {
				fmt.Fprintf(&b, " (%s)", table.BusinessName)
			}

			if table.Description != "" {
				fmt.Fprintf(&b, ": %s", table.Description)
			}

			if table.Grain != "" {
				fmt.Fprintf(&b, " [grain: %s]", table.Grain)
			}

			b.WriteString("\n")
		}

		b.WriteString("\n")
	}

	if len(ctx.Columns) > 0 {
		b.WriteString("## Columns\n")

		for _, col := range ctx.Columns {
			fmt.Fprintf(&b, "- %s.%s %s", col.TableName, col.ColumnName, col.DataType)

			var flags []string

			if col.IsPrimaryKey {
				flags = append(flags, "primary key")
			}

			if col.IsTimeColumn {
				flags = append(flags, "time column")
			}

			if len(flags) > 0 {
				fmt.Fprintf(&b, " (%s)", strings.Join(flags, ", "))
			}

			if col.Description != "" {
				fmt.Fprintf(&b, ": %s", col.Description)
			}

			b.WriteString("\n")
		}

		b.WriteString("\n")
	}

	if len(ctx.Joins) > 0 {
		b.WriteString("## Joins\n")

		for _, join := range ctx.Joins {
			fmt.Fprintf(&b, "- %s %s JOIN %s ON %s\n",
				join.FromTable,
				strings.ToUpper(join.JoinType),
				join.ToTable,
				strings.Join(join.On, " AND "),
			)
		}

		b.WriteString("\n")
	}

	if len(ctx.Metrics) > 0 {
		b.WriteString("## Metrics\n")

		for _, metric := range ctx.Metrics {
			fmt.Fprintf(&b, "- %s = %s (base table: %s)\n",
				metric.Name, metric.Expression, metric.BaseTable)
		}

		b.WriteString("\n")
	}

	if relationalSchema != "" {
		b.WriteString("## Table Definitions\n\n")
		b.WriteString(relationalSchema)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "# Question\n\n%s\n", question)

	return b.String()
}
