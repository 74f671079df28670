package cli

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/accord-io/accord/internal/report"
)

// renderChanges prints a table of every proposed change in the report.
func renderChanges(r *report.Report) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"Template", "Account", "Change", "Attribute", "Value"})
	rows := 0
	for _, t := range r.Templates {
		for _, acct := range t.ProposedChanges {
			for _, c := range acct.ProposedChanges {
				value := ""
				if c.NewValue != nil {
					value = fmt.Sprintf("%v", c.NewValue)
				}
				tw.AppendRow(table.Row{t.ResourceID, acct.Account, c.ChangeType, c.Attribute, truncate(value, 60)})
				rows++
			}
		}
	}
	if rows == 0 {
		fmt.Println("No changes. Remote state matches the templates.")
		return
	}
	tw.Render()
}

// renderSummary prints per-template totals and any exceptions.
func renderSummary(r *report.Report) {
	changes := 0
	for _, t := range r.Templates {
		for _, acct := range t.ProposedChanges {
			changes += len(acct.ProposedChanges)
		}
	}
	verb := "planned"
	if !r.EvalOnly {
		verb = "applied"
	}
	fmt.Printf("\n%d template(s), %d change(s) %s.\n", len(r.Templates), changes, verb)

	exceptions := r.Exceptions()
	if len(exceptions) == 0 {
		return
	}
	fmt.Printf("\n%d exception(s):\n", len(exceptions))
	for _, e := range exceptions {
		fmt.Printf("  - %s\n", e)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
