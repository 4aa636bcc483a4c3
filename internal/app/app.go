package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/vk/splithcl/internal/ctxlog"
	"github.com/vk/splithcl/internal/engine"
	"github.com/vk/splithcl/internal/fsutil"
	"github.com/vk/splithcl/internal/hclout"
	"github.com/vk/splithcl/internal/loader"
	"github.com/vk/splithcl/internal/scope"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	engine *engine.Engine
	config *Config
	root   string
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and engine. The
// assembled namespace is written to outW; logs go to logW.
func NewApp(outW, logW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	root, err := filepath.Abs(cfg.RootFile)
	if err != nil {
		// Only happens when the working directory is gone; nothing
		// sensible can run from there.
		panic(fmt.Errorf("failed to absolutize root file path: %w", err))
	}

	eng := engine.New(engine.Options{
		BaseDir:     filepath.Dir(root),
		SearchPaths: cfg.SearchPaths,
	})
	logger.Debug("Inclusion engine configured.", "root", root, "search_paths", cfg.SearchPaths)

	return &App{
		outW:   outW,
		logger: logger,
		engine: eng,
		config: cfg,
		root:   root,
	}
}

// Engine returns the application's inclusion engine. This is primarily for
// testing.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Run assembles the root settings file into a fresh scope and renders the
// result to the application's output writer.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	for _, searchPath := range a.config.SearchPaths {
		fragments, err := fsutil.FindFragments(searchPath, loader.Suffix)
		if err != nil {
			a.logger.Warn("Unable to scan search path.", "path", searchPath, "error", err)
			continue
		}
		a.logger.Debug("Search path scanned.", "path", searchPath, "fragments", len(fragments))
	}

	sc := scope.New()
	if err := a.engine.Include(ctx, a.root, sc); err != nil {
		return fmt.Errorf("failed to assemble settings from %s: %w", a.config.RootFile, err)
	}
	a.logger.Info("Settings namespace assembled.",
		"settings", sc.Len(), "fragments", len(a.engine.History()))

	var rendered []byte
	var err error
	switch a.config.Format {
	case "yaml":
		rendered, err = hclout.YAML(sc)
	default:
		rendered, err = hclout.JSON(sc)
	}
	if err != nil {
		return fmt.Errorf("failed to render assembled settings: %w", err)
	}

	if _, err := a.outW.Write(rendered); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	a.logger.Debug("App.Run method finished.")
	return nil
}
