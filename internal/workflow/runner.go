package workflow

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"epgmerge/internal/config"
	"epgmerge/internal/fetch"
	"epgmerge/internal/fetchcache"
	"epgmerge/internal/fileutil"
	"epgmerge/internal/logging"
	"epgmerge/internal/services"
	"epgmerge/internal/sink"
	"epgmerge/internal/xmltv"
)

const lockFileName = "epgmerge.lock"

// Runner drives merge and refresh runs against a loaded configuration.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	client *fetch.Client
	cache  *fetchcache.Store
}

// NewRunner wires the fetch client and, when enabled, the conditional-request
// cache. Callers must Close the runner when done.
func NewRunner(cfg *config.Config, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	var (
		cache *fetchcache.Store
		opts  []fetch.Option
	)
	if cfg.Cache.Enabled {
		store, err := fetchcache.Open(cfg.Cache.Path)
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "workflow", "cache", cfg.Cache.Path, err)
		}
		cache = store
		opts = append(opts, fetch.WithCache(store))
	}

	timeout := time.Duration(cfg.Sources.Timeout) * time.Second
	client := fetch.NewClient(timeout, cfg.Sources.UserAgent, opts...)

	return &Runner{cfg: cfg, logger: logger, client: client, cache: cache}, nil
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	if r.cache != nil {
		return r.cache.Close()
	}
	return nil
}

// Run executes the full pipeline: fetch every configured source, decompress,
// merge, and stream to the configured destination. Failed sources reduce the
// output; a run with no usable payload is fatal.
func (r *Runner) Run(ctx context.Context) (xmltv.Stats, error) {
	var stats xmltv.Stats

	if err := r.cfg.EnsureDirectories(); err != nil {
		return stats, services.Wrap(services.ErrConfiguration, "workflow", "prepare", "", err)
	}

	lockPath := filepath.Join(r.cfg.Paths.LockDir, lockFileName)
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return stats, services.Wrap(services.ErrConfiguration, "workflow", "lock", lockPath, err)
	}
	if !locked {
		return stats, services.Wrap(services.ErrConfiguration, "workflow", "lock", "another epgmerge run is already in progress", nil)
	}
	defer func() { _ = lock.Unlock() }()

	logger := r.logger.With(logging.String("run_id", uuid.NewString()))

	payloads := r.collectPayloads(ctx, logger)
	if err := ctx.Err(); err != nil {
		return stats, services.Wrap(services.ErrTransport, "workflow", "fetch", "canceled", err)
	}
	if len(payloads) == 0 {
		return stats, services.Wrap(services.ErrNoData, "workflow", "fetch", "no source payload downloaded successfully", nil)
	}

	outputPath, err := config.ExpandPath(r.cfg.Output.Path)
	if err != nil {
		return stats, services.Wrap(services.ErrConfiguration, "workflow", "resolve output path", r.cfg.Output.Path, err)
	}
	target := sink.ResolveTarget(outputPath)
	if err := target.Check(r.cfg.Output.Mode, r.cfg.Output.Overwrite); err != nil {
		return stats, err
	}

	out, err := sink.New(target, r.cfg.Output.Mode, r.cfg.Output.Atomic)
	if err != nil {
		return stats, err
	}

	stats, err = xmltv.Merge(payloads, out, xmltv.Options{
		DedupeChannels: r.cfg.Output.DedupeChannels,
		Logger:         logger,
	})
	if err != nil {
		out.Abort()
		return stats, err
	}
	if err := out.Close(); err != nil {
		return stats, err
	}

	if stats.Parsed == 0 {
		return stats, services.Wrap(services.ErrNoData, "workflow", "merge", "no source payload parsed successfully", nil)
	}

	attrs := []logging.Attr{
		logging.Int("payloads", stats.Parsed),
		logging.Int("channels", stats.Channels),
		logging.Int("duplicate_channels", stats.DuplicateChannels),
		logging.Int("programmes", stats.Programmes),
	}
	if r.cfg.Output.Mode == config.OutputModeBoth {
		attrs = append(attrs, logging.String("xml", target.XMLPath), logging.String("gzip", target.GzPath))
	} else {
		attrs = append(attrs, logging.String("gzip", target.GzPath))
	}
	logger.Info("merge complete", logging.Args(attrs...)...)
	return stats, nil
}

func (r *Runner) collectPayloads(ctx context.Context, logger *slog.Logger) [][]byte {
	payloads := make([][]byte, 0, len(r.cfg.Sources.URLs))
	for _, url := range r.cfg.Sources.URLs {
		if ctx.Err() != nil {
			return payloads
		}
		logger.Info("downloading source", logging.String("url", url))

		raw, err := r.client.Fetch(ctx, url)
		if err != nil {
			logger.Warn("skipping source after download error",
				logging.String("url", url), logging.Error(err))
			continue
		}
		payload, err := fetch.Decompress(raw)
		if err != nil {
			logger.Warn("skipping source after decompression error",
				logging.String("url", url), logging.Error(err))
			continue
		}
		payloads = append(payloads, payload)
	}
	return payloads
}

// Refresh fetches the configured single plain-XML document and swaps it into
// place atomically, leaving any prior file untouched on failure.
func (r *Runner) Refresh(ctx context.Context) error {
	if r.cfg.Refresh.URL == "" {
		return services.Wrap(services.ErrConfiguration, "workflow", "refresh", "refresh.url is not configured", nil)
	}

	body, err := r.client.Fetch(ctx, r.cfg.Refresh.URL)
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(r.cfg.Refresh.Path, body, 0o644); err != nil {
		return services.Wrap(services.ErrIO, "workflow", "refresh", r.cfg.Refresh.Path, err)
	}

	r.logger.Info("refresh complete",
		logging.String("url", r.cfg.Refresh.URL),
		logging.String("path", r.cfg.Refresh.Path),
		logging.Int("bytes", len(body)))
	return nil
}
