package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/accord-io/accord/internal/model"
	"github.com/accord-io/accord/internal/provider"
	"github.com/accord-io/accord/internal/template"
)

var (
	importTemplateType string
	importResourceID   string
	importAccount      string
	importOut          string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Generate a template from an existing remote resource",
	Long: `Reads a resource that already exists in the remote provider and
writes a template file describing it, so it can be managed from the repo
from then on. The generated template is scoped to the account it was
imported from.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importTemplateType, "template-type", "", "Template type of the resource (e.g. aws:iam:role)")
	importCmd.Flags().StringVar(&importResourceID, "id", "", "Remote resource identifier")
	importCmd.Flags().StringVar(&importAccount, "account", "", "Account id or name to import from")
	importCmd.Flags().StringVarP(&importOut, "out", "o", "", "Output file (default derived from type and id)")
	importCmd.MarkFlagRequired("template-type")
	importCmd.MarkFlagRequired("id")
	importCmd.MarkFlagRequired("account")
}

func runImport(cmd *cobra.Command, args []string) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	cfg, registry, _, err := setup(root)
	if err != nil {
		return err
	}
	acct, err := findAccount(cfg, importAccount)
	if err != nil {
		return err
	}

	client, err := registry.ClientFor(importTemplateType)
	if err != nil {
		return err
	}
	importer, ok := client.(provider.Importer)
	if !ok {
		return fmt.Errorf("provider %s does not support import", client.Name())
	}

	props, err := importer.ImportResource(ctx, acct, importTemplateType, importResourceID)
	if err != nil {
		return fmt.Errorf("import %s %s: %w", importTemplateType, importResourceID, err)
	}

	t := &model.Template{
		TemplateType: importTemplateType,
		Identifier:   props.ResourceID(),
		AccessScope:  model.AccessScope{IncludedAccounts: []string{acct.ID}},
		Properties:   props,
	}

	path := importOut
	if path == "" {
		dir := strings.ReplaceAll(importTemplateType, ":", "_")
		path = filepath.Join(root, dir, sanitizeFileName(t.Identifier)+".yaml")
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing template %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	t.FilePath = path
	if err := template.Write(t); err != nil {
		return err
	}

	fmt.Printf("Imported %s %s to %s\n", importTemplateType, importResourceID, path)
	return nil
}

func sanitizeFileName(id string) string {
	r := strings.NewReplacer("/", "_", ":", "_", " ", "_")
	return r.Replace(id)
}
