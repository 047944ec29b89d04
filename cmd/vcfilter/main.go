// Command vcfilter streams a VCF file through the sample-column filter:
// schema discovery on the #CHROM header line, parallel per-line projection,
// and order-preserving output, with optional gzip on both ends.
//
// The CLI layer stays thin: it resolves flags into a config, opens the byte
// streams, and hands everything to internal/pipeline. It never contains
// filtering logic of its own.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"vcfilter/internal/config"
	"vcfilter/internal/datasource/file"
	"vcfilter/internal/manifest"
	"vcfilter/internal/metrics"
	"vcfilter/internal/metrics/prompush"
	"vcfilter/internal/pipeline"
	"vcfilter/internal/samples"
	"vcfilter/internal/vcf"

	// register all manifest backends with the factory.
	_ "vcfilter/internal/manifest/all"
)

// main is the entry point for the vcfilter binary. It resolves the run
// config, optionally initializes a metrics backend, and executes the
// streaming run.
func main() {
	var cfg config.Config
	var (
		metricsBackendFlg string
		pushGatewayURLFlg string
		validate          bool
	)

	flag.StringVar(&cfg.Input, "input", "", "input VCF file (.vcf or .vcf.gz)")
	flag.StringVar(&cfg.Output, "output", "", "output VCF file")
	flag.StringVar(&cfg.Samples, "samples", "", "file containing target sample names, one per line")
	flag.BoolVar(&cfg.CompressOutput, "compress", false, "gzip the output")
	flag.IntVar(&cfg.Workers, "workers", 1, "number of transform workers")
	flag.IntVar(&cfg.QueueCap, "queue-cap", pipeline.DefaultQueueCap, "staging queue capacity per stage")
	flag.StringVar(&cfg.Marker, "marker", vcf.DefaultMarker, "header column that ends the fixed leading fields")
	flag.StringVar(&cfg.Missing, "missing", vcf.DefaultMissing, "value emitted for sample columns missing from a line")
	flag.IntVar(&cfg.ProgressEvery, "progress-every", pipeline.DefaultProgressEvery, "lines between progress reports")
	flag.StringVar(&cfg.Job, "job", "vcfilter", "job label for metrics and the run manifest")
	flag.StringVar(&cfg.Manifest.Kind, "manifest-kind", "", "run manifest backend (sqlite, postgres; empty disables)")
	flag.StringVar(&cfg.Manifest.DSN, "manifest-dsn", "", "run manifest DSN (sqlite path or postgresql:// URL)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use (pushgateway, none; falls back to env METRICS_BACKEND)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	issues := config.Validate(cfg)
	hasError := false
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
		if iss.Severity == config.SeverityError {
			hasError = true
		}
	}
	if hasError {
		fatalf("configuration is invalid")
	}
	if validate {
		log.Printf("configuration is valid")
		os.Exit(0)
	}

	initMetrics(metricsBackendFlg, pushGatewayURLFlg, cfg.Job, *verbose)

	ctx := context.Background()
	start := time.Now()

	summary, matched, err := run(ctx, cfg, *verbose)
	metrics.RecordStep(cfg.Job, "run", err, time.Since(start))
	if flushErr := metrics.Flush(); flushErr != nil {
		log.Printf("metrics: flush error: %v", flushErr)
	}
	if err != nil {
		log.Fatalf("%v", err)
	}

	log.Printf(
		"filtering complete: lines=%d data=%d headers=%d malformed=%d samples=%d checksum=%s elapsed=%s",
		summary.Lines, summary.Data, summary.Headers, summary.Malformed,
		matched, summary.Checksum, summary.Elapsed.Truncate(time.Millisecond),
	)

	if cfg.Manifest.Kind != "" {
		recordManifest(ctx, cfg, summary, matched, start)
	}
}

// run executes one streaming filter pass and returns the pipeline summary
// plus the number of matched samples.
func run(ctx context.Context, cfg config.Config, verbose bool) (pipeline.Summary, int, error) {
	targets, err := samples.Load(cfg.Samples)
	if err != nil {
		return pipeline.Summary{}, 0, err
	}
	if verbose {
		log.Printf("loaded %d target samples", len(targets))
	}

	src, err := file.NewLocal(cfg.Input).Open(ctx)
	if err != nil {
		return pipeline.Summary{}, 0, err
	}
	defer src.Close()

	out, err := file.NewLocalSink(cfg.Output, cfg.CompressOutput).Create(ctx)
	if err != nil {
		return pipeline.Summary{}, 0, err
	}

	filter := vcf.NewFilter(targets, vcf.Options{
		Marker:  cfg.Marker,
		Missing: cfg.Missing,
	})

	if verbose {
		log.Printf("starting streaming filter: workers=%d queue-cap=%d", cfg.Workers, cfg.QueueCap)
	}

	summary, err := pipeline.Run(ctx, pipeline.Config{
		Source:        src,
		Sink:          out,
		Transform:     filter,
		IsSchema:      vcf.IsSchemaLine,
		IsComment:     vcf.IsHeaderLine,
		Workers:       cfg.Workers,
		QueueCap:      cfg.QueueCap,
		ProgressEvery: int64(cfg.ProgressEvery),
		Progress: func(n int64) {
			log.Printf("processed %d lines", n)
			metrics.RecordRows(cfg.Job, "processed", int64(cfg.ProgressEvery))
		},
	})
	if err != nil {
		out.Close()
		return pipeline.Summary{}, 0, err
	}
	// Close the sink explicitly: for gzip output this writes the trailer,
	// and a close failure means the file is incomplete.
	if err := out.Close(); err != nil {
		return pipeline.Summary{}, 0, fmt.Errorf("close output: %w", err)
	}

	metrics.RecordRows(cfg.Job, "headers", summary.Headers)
	metrics.RecordRows(cfg.Job, "data", summary.Data)
	metrics.RecordRows(cfg.Job, "malformed", summary.Malformed)
	metrics.RecordRun(cfg.Job)

	return summary, filter.Matched(), nil
}

// resolveMetricsBackend picks the backend name: flag → env → disabled. The
// flag defaults to empty so a set METRICS_BACKEND is actually consulted.
func resolveMetricsBackend(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("METRICS_BACKEND")
}

// initMetrics decides the metrics backend: flag → env → default.
func initMetrics(backendName, gwURL, job string, verbose bool) {
	backendName = resolveMetricsBackend(backendName)
	switch backendName {
	case "pushgateway":
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}
		b, err := prompush.NewBackend(job, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return
		}
		if verbose {
			log.Printf("metrics: url=%v backend=%v job=%v", gwURL, backendName, job)
		}
		metrics.SetBackend(b)

	case "", "none":
		// metrics disabled; nop backend remains
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}
}

// recordManifest writes the run row to the configured manifest store.
// Manifest failures are logged, never fatal: the output is already on disk.
func recordManifest(ctx context.Context, cfg config.Config, sum pipeline.Summary, matched int, start time.Time) {
	repo, err := manifest.New(ctx, manifest.Config{Kind: cfg.Manifest.Kind, DSN: cfg.Manifest.DSN})
	if err != nil {
		log.Printf("manifest: %v", err)
		return
	}
	defer repo.Close()

	err = repo.RecordRun(ctx, manifest.Run{
		Job:       cfg.Job,
		Input:     cfg.Input,
		Output:    cfg.Output,
		Samples:   cfg.Samples,
		Workers:   cfg.Workers,
		Lines:     sum.Lines,
		Data:      sum.Data,
		Malformed: sum.Malformed,
		Matched:   matched,
		Checksum:  sum.Checksum,
		StartedAt: start,
		Elapsed:   sum.Elapsed,
	})
	if err != nil {
		log.Printf("manifest: record run: %v", err)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
