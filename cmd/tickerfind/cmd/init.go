package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quickfin/tickerfind/configs"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Generate a .tickerfind.yaml configuration file",
		Long: `Write an annotated .tickerfind.yaml template into the given
directory (default: current directory). An existing file is preserved
unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(cmd, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing .tickerfind.yaml")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force bool) error {
	yamlPath := filepath.Join(dir, ".tickerfind.yaml")
	ymlPath := filepath.Join(dir, ".tickerfind.yml")

	if !force {
		for _, p := range []string{yamlPath, ymlPath} {
			if _, err := os.Stat(p); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Existing %s preserved (use --force to overwrite)\n", p)
				return nil
			}
		}
	}

	if err := os.WriteFile(yamlPath, []byte(configs.ConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", yamlPath, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", yamlPath)
	return nil
}
