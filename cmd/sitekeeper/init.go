package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitekeeper/internal/config"
)

//go:embed templates/sitekeeper.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new site profile",
		Long: `Initialize creates a new .sitekeeper.yaml site profile in the current directory.

The generated file includes:
- Site name, description and keywords used in page metadata
- Navigation, breadcrumb sections and footer links
- The shared script manifest, skipped pages and backup excludes

Examples:
  # Create .sitekeeper.yaml in current directory
  sitekeeper init

  # Create the profile inside the site directory
  sitekeeper init -o site/.sitekeeper.yaml

  # Force overwrite existing file
  sitekeeper init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the site profile")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing site profile")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("site profile already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/sitekeeper.yaml")
	if err != nil {
		return fmt.Errorf("failed to read profile template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0o600); err != nil {
		return fmt.Errorf("failed to write site profile: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created site profile: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure:")
	fmt.Fprintln(out, "  - Site name and navigation links")
	fmt.Fprintln(out, "  - Breadcrumb sections for page name prefixes")
	fmt.Fprintln(out, "  - Footer links and the shared script manifest")

	return nil
}
