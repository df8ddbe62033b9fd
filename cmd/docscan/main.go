// Command docscan fetches, deletes and moves documents of the virus
// scanning pipeline.
//
//	docscan [global flags] <command> [command flags]
//
// Commands:
//
//	fetch    write the latest revision of a document and report its version id
//	delete   delete one revision of a document
//	move     copy a document revision elsewhere and delete the source
//	promote  move a scanned document from the quarantine to the clean bucket
//	health   check that a bucket is reachable
//	config   write the effective configuration to a YAML file
//
// Failures print a hint on stderr when the error has a known fix. Errors
// worth retrying exit with 75 (EX_TEMPFAIL) instead of 1.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docscan/docscan/internal/config"
	"github.com/docscan/docscan/internal/metrics"
	"github.com/docscan/docscan/internal/storage/s3"
	storeerrors "github.com/docscan/docscan/pkg/errors"
	"github.com/docscan/docscan/pkg/types"
	"github.com/docscan/docscan/pkg/utils"
)

const (
	exitOK       = 0
	exitError    = 1
	exitUsage    = 2
	exitTempFail = 75
)

var errUsage = errors.New("usage error")

// newStore builds the object store used by every command
var newStore = func(ctx context.Context, cfg *config.Configuration, logger *slog.Logger, m types.MetricsCollector) (types.ObjectStore, error) {
	return s3.NewService(ctx, cfg.StorageConfig(), logger, s3.WithMetrics(m))
}

type app struct {
	cfg    *config.Configuration
	logger *slog.Logger
	store  types.ObjectStore
	stdout io.Writer
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var (
		configFile string
		logLevel   string
		logFormat  string
		requestID  string
		timeout    time.Duration
	)

	global := flag.NewFlagSet("docscan", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.StringVar(&configFile, "config", "", "Path to a YAML configuration file")
	global.StringVar(&logLevel, "log-level", "", "Log level override (DEBUG, INFO, WARN, ERROR)")
	global.StringVar(&logFormat, "log-format", "", "Log format override (json or text)")
	global.StringVar(&requestID, "request-id", "", "Request id attached to every log line as reqId")
	global.DurationVar(&timeout, "timeout", 30*time.Second, "Deadline for the whole command")
	global.Usage = func() { printUsage(global) }

	if err := global.Parse(args); err != nil {
		return exitUsage
	}
	if global.NArg() == 0 {
		printUsage(global)
		return exitUsage
	}

	cfg, err := loadConfig(configFile, logLevel, logFormat)
	if err != nil {
		return reportFailure(stderr, "configuration error", err)
	}

	logger, closeLog, err := utils.SetupLogging(cfg.Logging.Service, cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "logging error: %v\n", err)
		return exitError
	}
	defer func() { _ = closeLog() }()

	command, rest := global.Arg(0), global.Args()[1:]
	if command == "config" {
		a := &app{cfg: cfg, logger: logger, stdout: stdout, stderr: stderr}
		return exitCode(stderr, command, a.config(rest))
	}

	collector, err := metrics.NewCollector(&metrics.Config{
		Enabled:   cfg.Metrics.Enabled,
		Port:      cfg.Metrics.Port,
		Path:      cfg.Metrics.Path,
		Namespace: cfg.Metrics.Namespace,
		Subsystem: "s3",
		Labels:    map[string]string{"environment": cfg.Environment},
	}, logger)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "metrics error: %v\n", err)
		return exitError
	}
	if err := collector.Start(ctx); err != nil {
		_, _ = fmt.Fprintf(stderr, "metrics error: %v\n", err)
		return exitError
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = collector.Stop(shutdownCtx)
	}()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if requestID != "" {
		ctx = utils.WithRequestID(ctx, requestID)
	}

	store, err := newStore(ctx, cfg, logger, collector)
	if err != nil {
		return reportFailure(stderr, "failed to create object store", err)
	}

	a := &app{cfg: cfg, logger: logger, store: store, stdout: stdout, stderr: stderr}

	switch command {
	case "fetch":
		err = a.fetch(ctx, rest)
	case "delete":
		err = a.delete(ctx, rest)
	case "move":
		err = a.move(ctx, rest)
	case "promote":
		err = a.promote(ctx, rest)
	case "health":
		err = a.health(ctx, rest)
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command %q\n", command)
		printUsage(global)
		return exitUsage
	}

	return exitCode(stderr, command, err)
}

func exitCode(stderr io.Writer, command string, err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errUsage):
		return exitUsage
	default:
		return reportFailure(stderr, command+" failed", err)
	}
}

// reportFailure prints err with its recommendation and picks the exit code.
// Errors that are not a StoreError only get a hint when Classify maps them
// to a code with a known fix.
func reportFailure(stderr io.Writer, prefix string, err error) int {
	_, _ = fmt.Fprintf(stderr, "%s: %v\n", prefix, err)
	hint := storeerrors.Recommendation(err)
	var storeErr *storeerrors.StoreError
	if errors.As(err, &storeErr) {
		hint = storeErr.GetRecommendation()
	}
	if hint != "" {
		_, _ = fmt.Fprintf(stderr, "hint: %s\n", hint)
	}
	if storeerrors.IsRetryable(err) {
		return exitTempFail
	}
	return exitError
}

func loadConfig(configFile, logLevel, logFormat string) (*config.Configuration, error) {
	cfg := config.NewDefault()
	if configFile != "" {
		if err := cfg.LoadFromFile(configFile); err != nil {
			return nil, err
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func (a *app) parse(fs *flag.FlagSet, args []string, required map[string]*string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	for name, value := range required {
		if *value == "" {
			_, _ = fmt.Fprintf(a.stderr, "%s: -%s is required\n", fs.Name(), name)
			return errUsage
		}
	}
	return nil
}

func (a *app) fetch(ctx context.Context, args []string) error {
	var bucket, key, out string
	fs := a.newFlagSet("fetch")
	fs.StringVar(&bucket, "bucket", a.cfg.Buckets.Quarantine, "Bucket holding the document")
	fs.StringVar(&key, "key", "", "Object key of the document")
	fs.StringVar(&out, "out", "-", "File to write the document to, - for stdout")
	if err := a.parse(fs, args, map[string]*string{"bucket": &bucket, "key": &key}); err != nil {
		return err
	}

	result, err := a.store.FetchWithVersion(ctx, bucket, key)
	if err != nil {
		return err
	}
	defer func() { _ = result.Close() }()

	var w io.Writer = a.stdout
	if out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	if _, err := io.Copy(w, result.Body); err != nil {
		return storeerrors.NewError(storeerrors.ErrCodeStorageRead,
			fmt.Sprintf("failed to write document: %v", err)).
			WithOperation("fetch").
			WithContext("bucket", bucket).
			WithContext("key", key).
			WithCause(err)
	}

	_, _ = fmt.Fprintf(a.stderr, "versionId=%s\n", result.VersionID)
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	var bucket, key, version string
	fs := a.newFlagSet("delete")
	fs.StringVar(&bucket, "bucket", a.cfg.Buckets.Quarantine, "Bucket holding the document")
	fs.StringVar(&key, "key", "", "Object key of the document")
	fs.StringVar(&version, "version", "", "Version id to delete (ignored by non-versioned endpoints)")
	if err := a.parse(fs, args, map[string]*string{"bucket": &bucket, "key": &key}); err != nil {
		return err
	}

	return a.store.Delete(ctx, bucket, key, version)
}

func (a *app) move(ctx context.Context, args []string) error {
	var req types.MoveRequest
	fs := a.newFlagSet("move")
	fs.StringVar(&req.Source.BucketName, "src-bucket", a.cfg.Buckets.Quarantine, "Source bucket")
	fs.StringVar(&req.Source.ObjectKey, "src-key", "", "Source object key")
	fs.StringVar(&req.Source.VersionID, "src-version", "", "Source version id")
	fs.StringVar(&req.Destination.BucketName, "dst-bucket", a.cfg.Buckets.Clean, "Destination bucket")
	fs.StringVar(&req.Destination.ObjectKey, "dst-key", "", "Destination object key (defaults to the source key)")
	if err := a.parse(fs, args, map[string]*string{
		"src-bucket": &req.Source.BucketName,
		"src-key":    &req.Source.ObjectKey,
		"dst-bucket": &req.Destination.BucketName,
	}); err != nil {
		return err
	}
	if req.Destination.ObjectKey == "" {
		req.Destination.ObjectKey = req.Source.ObjectKey
	}

	return a.runMove(ctx, req)
}

func (a *app) promote(ctx context.Context, args []string) error {
	var key, version string
	fs := a.newFlagSet("promote")
	fs.StringVar(&key, "key", "", "Object key of the scanned document")
	fs.StringVar(&version, "version", "", "Version id that was scanned")
	if err := a.parse(fs, args, map[string]*string{"key": &key}); err != nil {
		return err
	}
	if a.cfg.Buckets.Quarantine == "" || a.cfg.Buckets.Clean == "" {
		return fmt.Errorf("quarantine and clean buckets must be configured")
	}

	return a.runMove(ctx, types.MoveRequest{
		Source: types.ObjectLocator{
			BucketName: a.cfg.Buckets.Quarantine,
			ObjectKey:  key,
			VersionID:  version,
		},
		Destination: types.ObjectLocator{
			BucketName: a.cfg.Buckets.Clean,
			ObjectKey:  key,
		},
	})
}

func (a *app) runMove(ctx context.Context, req types.MoveRequest) error {
	versionID, err := a.store.Move(ctx, req)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(a.stdout, versionID)
	return nil
}

func (a *app) health(ctx context.Context, args []string) error {
	var bucket string
	fs := a.newFlagSet("health")
	fs.StringVar(&bucket, "bucket", a.cfg.Buckets.Quarantine, "Bucket to probe")
	if err := a.parse(fs, args, map[string]*string{"bucket": &bucket}); err != nil {
		return err
	}

	if err := a.store.HealthCheck(ctx, bucket); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(a.stdout, "bucket %s is reachable\n", bucket)
	return nil
}

func (a *app) config(args []string) error {
	var path string
	fs := a.newFlagSet("config")
	fs.StringVar(&path, "write", "", "File to write the effective configuration to")
	if err := a.parse(fs, args, map[string]*string{"write": &path}); err != nil {
		return err
	}

	if err := a.cfg.SaveToFile(path); err != nil {
		return err
	}
	a.logger.Info("Configuration written", "file", path, "environment", a.cfg.Environment)
	_, _ = fmt.Fprintf(a.stdout, "configuration written to %s\n", path)
	return nil
}

func printUsage(fs *flag.FlagSet) {
	w := fs.Output()
	_, _ = fmt.Fprintln(w, "usage: docscan [global flags] <fetch|delete|move|promote|health|config> [command flags]")
	_, _ = fmt.Fprintln(w, "\nglobal flags:")
	fs.PrintDefaults()
}
