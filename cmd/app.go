package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/lehigh-university-libraries/srcsetter/internal/breakpoints"
	"github.com/lehigh-university-libraries/srcsetter/internal/config"
	"github.com/lehigh-university-libraries/srcsetter/internal/media"
	"github.com/lehigh-university-libraries/srcsetter/internal/metadata"
	"github.com/lehigh-university-libraries/srcsetter/internal/resize"
	"github.com/lehigh-university-libraries/srcsetter/internal/srcset"
	"github.com/spf13/cobra"
)

// app holds the collaborators shared by every command.
type app struct {
	cfg      *config.Config
	site     *media.Site
	resizer  *resize.Local
	store    metadata.Store
	catalog  *breakpoints.Cache
	resolver *srcset.Resolver
}

// loadConfig reads opts.configPath. A missing default file falls back to
// config.Default; a missing file named with --config is an error.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err == nil {
		slog.Debug("Loaded configuration", "path", opts.configPath)
		return cfg, nil
	}
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		slog.Debug("No configuration file, using defaults", "path", opts.configPath)
		return config.Default(), nil
	}
	return nil, err
}

func newApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}

	store, err := metadata.Open(cfg.Metadata.Driver, cfg.MetadataDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	site := cfg.MediaSite()
	resizer := &resize.Local{Root: cfg.Site.Root, CacheDir: cfg.Images.CacheDir}
	catalog := breakpoints.NewCache(site)

	resolver := srcset.New(site, resizer, site, catalog)
	resolver.Metadata = store
	resolver.Parallel = cfg.Images.Parallel

	return &app{
		cfg:      cfg,
		site:     site,
		resizer:  resizer,
		store:    store,
		catalog:  catalog,
		resolver: resolver,
	}, nil
}

func (a *app) Close() {
	if c, ok := a.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			slog.Warn("Failed to close metadata store", "error", err)
		}
	}
}

// request fills format and quality from the configuration when unset.
func (a *app) request(req srcset.Request) srcset.Request {
	if req.Format == "" {
		req.Format = a.cfg.Images.Format
	}
	if req.Quality == 0 {
		req.Quality = a.cfg.Images.Quality
	}
	return req
}
