package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accord-io/accord/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config and every template in the repo",
	Long: `Parses accord.yaml and every template file, reporting parse and
validation errors without contacting any provider.`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}

	fmt.Print("Checking accord.yaml... ")
	if _, err := config.Load(root); err != nil {
		fmt.Println("FAILED")
		return err
	}
	fmt.Println("OK")

	templates, loadErrs := loadTemplates(root)
	for _, e := range loadErrs {
		fmt.Printf("error: %v\n", e)
	}
	if len(loadErrs) > 0 {
		return fmt.Errorf("%d template(s) failed validation", len(loadErrs))
	}

	fmt.Printf("%d template(s) valid.\n", len(templates))
	return nil
}
