package report

import "time"

// Report is the machine-readable record of one run, written next to the
// output directory as repoforge-report.yaml. It exists so CI jobs and
// the status command can inspect what the last run did without parsing
// logs.
type Report struct {
	Version   int             `yaml:"version"`
	Repo      string          `yaml:"repo"`
	StartedAt time.Time       `yaml:"started_at"`
	Duration  string          `yaml:"duration"`
	Packages  []PackageEntry  `yaml:"packages"`
	Mirror    *MirrorEntry    `yaml:"mirror,omitempty"`
	Database  string          `yaml:"database,omitempty"`
	Upload    *UploadEntry    `yaml:"upload,omitempty"`
	Reconcile *ReconcileEntry `yaml:"reconcile,omitempty"`
}

// PackageEntry records one package's outcome.
type PackageEntry struct {
	Name     string   `yaml:"name"`
	Outcome  string   `yaml:"outcome"`
	Target   string   `yaml:"target,omitempty"`
	Warnings []string `yaml:"warnings,omitempty"`
	Error    string   `yaml:"error,omitempty"`
}

// MirrorEntry records what the mirror phase fetched.
type MirrorEntry struct {
	Fetched   []string `yaml:"fetched,omitempty"`
	FromCache []string `yaml:"from_cache,omitempty"`
	Failed    []string `yaml:"failed,omitempty"`
}

// UploadEntry records the upload phase.
type UploadEntry struct {
	OK          bool `yaml:"ok"`
	Transferred int  `yaml:"transferred"`
	Attempts    int  `yaml:"attempts"`
}

// ReconcileEntry records the reconciliation phase. Valve is set when a
// safety valve blocked deletion entirely.
type ReconcileEntry struct {
	Deleted []string `yaml:"deleted,omitempty"`
	Failed  []string `yaml:"failed,omitempty"`
	Valve   string   `yaml:"valve,omitempty"`
}
