package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/accord-io/accord/internal/expiry"
	"github.com/accord-io/accord/internal/template"
)

var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Sweep expired entries out of the template files",
	Long: `Walks every template, disables sub-resources whose expires_at has
passed, marks fully expired templates deleted, and rewrites only the
files that changed. Remote state is not touched; run apply afterwards to
reconcile.`,
	RunE: runExpire,
}

func runExpire(cmd *cobra.Command, args []string) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}

	templates, loadErrs := loadTemplates(root)
	for _, e := range loadErrs {
		fmt.Printf("error: %v\n", e)
	}

	now := time.Now().UTC()
	swept := 0
	for _, t := range templates {
		if !expiry.SweepTemplate(t, now) {
			continue
		}
		if err := template.Write(t); err != nil {
			loadErrs = append(loadErrs, err)
			continue
		}
		swept++
		fmt.Printf("swept %s (%s)\n", t.Identifier, t.FilePath)
	}

	fmt.Printf("%d template(s) updated.\n", swept)
	if len(loadErrs) > 0 {
		return fmt.Errorf("expire finished with %d error(s)", len(loadErrs))
	}
	return nil
}
