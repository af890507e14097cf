package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initForce bool

// initTemplate is the default repoforge.yaml scaffold.
const initTemplate = `# repoforge configuration
version: 1

repo:
  name: myrepo
  # sign_key: ABCDEF1234567890    # GPG key ID used to sign the database
  # sign_artifacts: true          # also sign every package artifact

remote:
  host: pkgs.example.net
  user: repo
  dir: /srv/http/arch
  # identity_file: ~/.ssh/repo_ed25519
  # connect_timeout: 15s
  # retries: 1

output_dir: ./out

packages:
  # Directory defaults to ./<name> next to this file; it must contain a
  # PKGBUILD (a generated .SRCINFO takes precedence when present).
  - name: example-tool
    source: aur
    # build_timeout: 30m
    # extra_depends: [go]

  # - name: internal-scripts
  #   source: local
  #   dir: ./packages/internal-scripts

# Filename suffixes never eligible for remote deletion. Defaults cover
# the repository database, file lists and signatures.
# protected_extensions: [".db", ".db.tar.gz", ".files", ".sig"]
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter repoforge.yaml configuration",
	Long: `Creates a repoforge.yaml file with a commented template covering the
repository, remote and package sections.

Use --force to overwrite an existing configuration file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		outPath := configPath
		if !filepath.IsAbs(outPath) {
			abs, err := filepath.Abs(outPath)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}
			outPath = abs
		}

		if !initForce {
			if _, err := os.Stat(outPath); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", outPath)
			}
		}

		if err := os.WriteFile(outPath, []byte(initTemplate), 0644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		info("Created %s", outPath)
		info("")
		info("Next steps:")
		info("  1. Edit the file to point at your repository and packages")
		info("  2. Run 'repoforge plan' to see what a run would do")
		info("  3. Run 'repoforge run' to build and publish")
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing config file")
	rootCmd.AddCommand(initCmd)
}
