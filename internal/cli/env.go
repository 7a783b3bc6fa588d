package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/pagemill/pagemill/internal/artifact"
	"github.com/pagemill/pagemill/internal/config"
	"github.com/pagemill/pagemill/internal/pipeline"
	"github.com/pagemill/pagemill/internal/store"
)

// env bundles the opened configuration, database and artifact store that
// every command operates on.
type env struct {
	cfg   config.Config
	store *store.Store
	files *artifact.Store
}

// openEnv loads the configuration and opens the store. Directories are
// created on first use.
func openEnv(opts *RootOptions) (*env, error) {
	cfg, err := config.Load(opts.Config, opts.Dir)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, WrapExitError(ExitCommandError, "create data directory", err)
	}
	if err := os.MkdirAll(cfg.ShareDir, 0o755); err != nil {
		return nil, WrapExitError(ExitCommandError, "create share directory", err)
	}

	st, err := store.Open(cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open database", err)
	}
	files, err := artifact.New(cfg.ContentRoot, cfg.CacheBytes)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "open artifact store", err)
	}
	return &env{cfg: cfg, store: st, files: files}, nil
}

func (e *env) close() {
	if err := e.store.Close(); err != nil {
		slog.Error("closing database", "err", err)
	}
}

// pipelineOptions maps the configuration onto the orchestrator's knobs.
func (e *env) pipelineOptions() pipeline.Options {
	return pipeline.Options{
		PreviewSize:  e.cfg.PreviewSize,
		DetectorData: e.cfg.DetectorData,
		Languages:    e.cfg.LanguageList(),
		ShareDir:     e.cfg.ShareDir,
		Poll:         e.cfg.PollEvery(),
		GC:           e.cfg.GCEvery(),
	}
}

// setupLogging configures the process-wide logger from the verbose flag.
func setupLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

// parsePageIDs converts command arguments into page ids.
func parsePageIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid page id %q", arg))
		}
		ids = append(ids, id)
	}
	return ids, nil
}
