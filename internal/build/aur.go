package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/bianoble/repoforge/internal/tools"
)

// aurBase hosts one git repository per package, named after it.
const aurBase = "https://aur.archlinux.org"

// AUR keeps upstream PKGBUILD checkouts current. Packages with aur
// provenance get a shallow clone of their AUR repository on first use;
// later runs fast-forward the existing checkout instead.
type AUR struct {
	Runner tools.CommandRunner
	Log    zerolog.Logger
}

// Ensure makes dir an up-to-date checkout of the package's AUR
// repository: clone when the checkout is missing, pull when it exists.
func (a *AUR) Ensure(ctx context.Context, name, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		_, stderr, code, err := a.Runner.Run(ctx, dir, "git", "pull", "--ff-only")
		if err != nil {
			return fmt.Errorf("updating %s checkout: %w", name, err)
		}
		if code != 0 {
			return fmt.Errorf("updating %s checkout: git exit code %d: %s", name, code, firstLine(stderr))
		}
		a.Log.Debug().Str("package", name).Msg("refreshed upstream checkout")
		return nil
	}

	url := fmt.Sprintf("%s/%s.git", aurBase, name)
	_, stderr, code, err := a.Runner.Run(ctx, "", "git", "clone", "--depth", "1", url, dir)
	if err != nil {
		return fmt.Errorf("cloning %s: %w", name, err)
	}
	if code != 0 {
		return fmt.Errorf("cloning %s: git exit code %d: %s", name, code, firstLine(stderr))
	}
	a.Log.Info().Str("package", name).Str("url", url).Msg("cloned upstream checkout")
	return nil
}
