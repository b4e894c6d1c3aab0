package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Bboy9090/Bobbys-World-Tools-sub004/internal/authority"
)

var initRoutesOut string

func init() {
	rootCmd.AddCommand(initRoutesCmd)
	initRoutesCmd.Flags().StringVar(&initRoutesOut, "out", "routes.yaml", "Where to write the routes file")
}

var initRoutesCmd = &cobra.Command{
	Use:   "init-routes",
	Short: "Generate a commented default routes.yaml",
	Long:  "Writes the built-in route table as a commented YAML file.\nEdit it and pass --routes to serve.",
	RunE:  runInitRoutes,
}

func runInitRoutes(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(initRoutesOut); err == nil {
		return fmt.Errorf("%s already exists", initRoutesOut)
	}

	if dir := filepath.Dir(initRoutesOut); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("cannot create %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(initRoutesOut, []byte(authority.DefaultConfigYAML()), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", initRoutesOut, err)
	}
	fmt.Printf("Created %s\n", initRoutesOut)
	return nil
}
