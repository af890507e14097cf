package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a repoforge.yaml configuration file. Any
// validation failure is fatal before the first phase runs — no partial
// run is attempted on a bad config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	return &cfg, nil
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks a Config for semantic correctness.
// Returns a list of validation error messages (empty if valid).
func Validate(cfg *Config) []string {
	var errs []string

	if cfg.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported version %d — only version 1 is supported", cfg.Version))
	}

	if cfg.Repo.Name == "" {
		errs = append(errs, "'repo.name' is required")
	}
	if strings.ContainsAny(cfg.Repo.Name, "/ ") {
		errs = append(errs, fmt.Sprintf("'repo.name' %q must not contain slashes or spaces", cfg.Repo.Name))
	}
	if cfg.Repo.SignArtifacts && cfg.Repo.SignKey == "" {
		errs = append(errs, "'repo.sign_artifacts' requires 'repo.sign_key'")
	}

	if cfg.Remote.Host == "" {
		errs = append(errs, "'remote.host' is required")
	}
	if cfg.Remote.Dir == "" {
		errs = append(errs, "'remote.dir' is required")
	}
	if cfg.Remote.ConnectTimeout < 0 {
		errs = append(errs, "'remote.connect_timeout' must not be negative")
	}
	if cfg.Remote.Retries < 0 {
		errs = append(errs, "'remote.retries' must not be negative")
	}

	if cfg.OutputDir == "" {
		errs = append(errs, "'output_dir' is required")
	}

	if len(cfg.Packages) == 0 {
		errs = append(errs, "at least one package is required")
	}

	names := make(map[string]bool)
	for i, p := range cfg.Packages {
		prefix := fmt.Sprintf("package[%d]", i)
		if p.Name != "" {
			prefix = fmt.Sprintf("package '%s'", p.Name)
		}

		if p.Name == "" {
			errs = append(errs, fmt.Sprintf("%s: 'name' is required", prefix))
		} else if names[p.Name] {
			errs = append(errs, fmt.Sprintf("%s: duplicate package name '%s'", prefix, p.Name))
		} else {
			names[p.Name] = true
		}

		switch p.Source {
		case "aur", "local":
			// valid
		case "":
			errs = append(errs, fmt.Sprintf("%s: 'source' is required — must be one of: aur, local", prefix))
		default:
			errs = append(errs, fmt.Sprintf("%s: unknown source '%s' — must be one of: aur, local", prefix, p.Source))
		}

		if p.Source == "local" && p.Dir == "" {
			errs = append(errs, fmt.Sprintf("%s: source 'local' requires 'dir' — add 'dir: ./path/to/package'", prefix))
		}
		if p.BuildTimeout < 0 {
			errs = append(errs, fmt.Sprintf("%s: 'build_timeout' must not be negative", prefix))
		}
	}

	for i, ext := range cfg.ProtectedExtensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Sprintf("protected_extensions[%d]: '%s' must start with a dot", i, ext))
		}
	}

	return errs
}
