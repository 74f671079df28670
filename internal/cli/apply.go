package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accord-io/accord/internal/model"
	"github.com/accord-io/accord/internal/repo"
	"github.com/accord-io/accord/internal/report"
	"github.com/accord-io/accord/internal/template"
)

var applyAutoApprove bool

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Reconcile remote state with the templates",
	Long: `Plans every template against remote state, shows the differences,
and after confirmation executes the minimal set of changes per account.
Template files are rewritten to reflect swept expirations and assigned
provider ids; cleanly deleted templates are removed from the repo.`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().BoolVar(&applyAutoApprove, "auto-approve", false, "Skip interactive approval of the plan before applying")
}

func runApply(cmd *cobra.Command, args []string) error {
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
	if len(loadErrs) > 0 {
		for _, e := range loadErrs {
			fmt.Printf("error: %v\n", e)
		}
		return fmt.Errorf("refusing to apply with %d invalid template(s)", len(loadErrs))
	}
	if len(templates) == 0 {
		fmt.Println("No templates found.")
		return nil
	}

	lock, err := repo.Acquire(root)
	if err != nil {
		return err
	}
	defer lock.Release()

	// Dry-run first so the operator confirms actual changes, not intent.
	preview := runTemplates(ctx, eng, model.PlanContext(), templates, cfg.Accounts, cfg.Parallelism)
	if exceptions := preview.Exceptions(); len(exceptions) > 0 {
		renderChanges(preview)
		renderSummary(preview)
		return fmt.Errorf("refusing to apply: plan raised %d exception(s)", len(exceptions))
	}

	hasChanges := false
	for _, t := range preview.Templates {
		if t.HasChanges() {
			hasChanges = true
			break
		}
	}
	if !hasChanges {
		fmt.Println("No changes. Remote state matches the templates.")
		return finalizeTemplates(templates, preview)
	}

	renderChanges(preview)
	renderSummary(preview)

	if !applyAutoApprove {
		fmt.Print("\nDo you want to perform these actions? (y/n): ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "yes" {
			fmt.Println("Apply cancelled.")
			return nil
		}
	}

	// Reload so the execute pass plans against fresh copies; the preview
	// pass already mutated in-memory expiry state.
	templates, loadErrs = loadTemplates(root)
	if len(loadErrs) > 0 {
		for _, e := range loadErrs {
			fmt.Printf("error: %v\n", e)
		}
		return fmt.Errorf("template repo changed under apply")
	}

	r := runTemplates(ctx, eng, model.ApplyContext(), templates, cfg.Accounts, cfg.Parallelism)

	renderSummary(r)
	writeReport(ctx, cfg, root, r)

	if err := finalizeTemplates(templates, r); err != nil {
		return err
	}
	if exceptions := r.Exceptions(); len(exceptions) > 0 {
		return fmt.Errorf("apply finished with %d exception(s)", len(exceptions))
	}
	fmt.Println("\nApply complete.")
	return nil
}

// finalizeTemplates writes swept expirations and recorded provider ids
// back to disk and removes cleanly deleted template files.
func finalizeTemplates(templates []*model.Template, r *report.Report) error {
	var firstErr error
	for _, t := range templates {
		if err := template.Finalize(t, r.ByTemplate(t.FilePath)); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
