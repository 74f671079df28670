package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/accord-io/accord/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new template repo",
	Long:  `Creates accord.yaml and an example template in the repo root.`,
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return err
	}

	cfgPath := config.Path(root)
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		content := `# Accord repo configuration.
accounts:
  - id: "dev"
    name: "dev"
    variables:
      environment: "development"

providers:
  memory: true
  # aws:
  #   region: us-east-1
  #   profile: default

parallelism: 10
retry:
  max_retries: 3
  base_delay: 1s
  max_delay: 30s
`
		if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to create %s: %w", cfgPath, err)
		}
		fmt.Printf("Created %s\n", cfgPath)
	}

	examplePath := filepath.Join(root, "memory_group", "engineers.yaml")
	if _, err := os.Stat(examplePath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(examplePath), 0755); err != nil {
			return err
		}
		content := `template_type: memory:group
identifier: engineers
properties:
  name: engineers
  description: "Engineering team for {{ environment }}"
  members:
    - email: alice@example.com
    - email: bob@example.com
      expires_at: 2027-01-01T00:00:00Z
  tags:
    team: engineering
`
		if err := os.WriteFile(examplePath, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to create %s: %w", examplePath, err)
		}
		fmt.Printf("Created %s\n", examplePath)
	}

	fmt.Println("\nRepo initialized. Run 'accord plan' to see what would change.")
	return nil
}
