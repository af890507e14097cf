package report

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/bianoble/repoforge/internal/engine"
)

// Filename is the report file written next to the configuration.
const Filename = "repoforge-report.yaml"

// FromSummary converts a run summary into its serializable report.
func FromSummary(repo string, started time.Time, summary *engine.RunSummary) *Report {
	r := &Report{
		Version:   1,
		Repo:      repo,
		StartedAt: started.UTC(),
		Duration:  time.Since(started).Round(time.Millisecond).String(),
		Database:  summary.Database,
	}

	for _, p := range summary.Packages {
		entry := PackageEntry{
			Name:     p.Name,
			Outcome:  string(p.Outcome),
			Target:   p.Target,
			Warnings: p.Warnings,
		}
		if p.Err != nil {
			entry.Error = p.Err.Error()
		}
		r.Packages = append(r.Packages, entry)
	}

	if m := summary.Mirror; m != nil {
		entry := &MirrorEntry{Fetched: m.Fetched, FromCache: m.FromCache}
		for _, f := range m.Failures {
			entry.Failed = append(entry.Failed, f.Filename)
		}
		r.Mirror = entry
	}
	if u := summary.Upload; u != nil {
		r.Upload = &UploadEntry{OK: u.OK, Transferred: len(u.Transferred), Attempts: u.Attempts}
	}
	if rec := summary.Reconcile; rec != nil {
		r.Reconcile = &ReconcileEntry{Deleted: rec.Deleted, Failed: rec.Failed, Valve: rec.Valve}
	}
	return r
}

// Save writes the report atomically using a temp file and rename.
func Save(path string, r *Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temp report %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming temp report to %s: %w", path, err)
	}
	return nil
}

// Load reads a previously written report.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report %s: %w", path, err)
	}
	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return &r, nil
}
