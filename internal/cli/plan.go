package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accord-io/accord/internal/model"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what apply would change",
	Long: `Evaluates every template against remote state and reports the
differences without executing anything. Expired sub-resources are treated
as already removed so the plan reflects what apply would do.`,
	RunE: runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	cfg, _, eng, err := setup(root)
	if err != nil {
		return err
	}

	templates, loadErrs := loadTemplates(root)
	for _, e := range loadErrs {
		fmt.Printf("error: %v\n", e)
	}
	if len(templates) == 0 && len(loadErrs) == 0 {
		fmt.Println("No templates found.")
		return nil
	}

	r := runTemplates(ctx, eng, model.PlanContext(), templates, cfg.Accounts, cfg.Parallelism)

	renderChanges(r)
	renderSummary(r)
	writeReport(ctx, cfg, root, r)

	if len(loadErrs) > 0 || len(r.Exceptions()) > 0 {
		return fmt.Errorf("plan finished with errors")
	}
	return nil
}
