// Package config defines the run configuration for the filter binary. It is
// intentionally small, explicit, and dependency-free so a config can be
// built from flags (or decoded from JSON) and passed through the program
// without additional glue code.
//
// Design goals:
//
//  1. Stability: changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: one flat struct per concern, no options bags.
//  3. Minimalism: no third-party config libraries; validation is a static
//     linter returning issues the CLI can print.
package config

// Config describes one filter run.
type Config struct {
	// Input is the path of the VCF file to filter (.vcf or .vcf.gz; gzip is
	// detected by content).
	Input string `json:"input"`

	// Output is the destination path.
	Output string `json:"output"`

	// Samples is the path of the target sample list, one name per line.
	Samples string `json:"samples"`

	// CompressOutput gzips the output stream.
	CompressOutput bool `json:"compress_output"`

	// Workers is the transform pool size; minimum 1.
	Workers int `json:"workers"`

	// QueueCap bounds each staging queue; 0 means the pipeline default.
	QueueCap int `json:"queue_cap"`

	// Marker names the header column that ends the fixed leading fields.
	// Empty means FORMAT.
	Marker string `json:"marker"`

	// Missing is substituted for selected columns beyond a short line's
	// end. Empty means ".".
	Missing string `json:"missing"`

	// ProgressEvery is the record interval between progress reports;
	// 0 means the pipeline default.
	ProgressEvery int `json:"progress_every"`

	// Job labels metrics and the run manifest.
	Job string `json:"job"`

	// Manifest selects the optional run-manifest store.
	Manifest ManifestConfig `json:"manifest"`
}

// ManifestConfig configures the audit store that records one row per run.
// An empty Kind disables manifest recording.
type ManifestConfig struct {
	// Kind selects the backend ("sqlite", "postgres", or empty).
	Kind string `json:"kind"`

	// DSN is the backend connection string, e.g. a sqlite file path or a
	// postgresql:// URL.
	DSN string `json:"dsn"`
}
