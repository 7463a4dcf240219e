package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	javaprint "github.com/alnah/go-javaprint"
	"github.com/alnah/go-javaprint/internal/assets"
	"github.com/alnah/go-javaprint/internal/config"
	"github.com/alnah/go-javaprint/internal/jobs"
	"github.com/alnah/go-javaprint/internal/server"
)

// errListen wraps failures to bind the listen address.
var errListen = errors.New("listen failed")

// Shutdown budgets. Running jobs drain first so their progress streams end
// before the HTTP server waits on open connections.
const (
	jobDrainTimeout     = 30 * time.Second
	httpShutdownTimeout = 10 * time.Second
)

// run parses args, serves until ctx is canceled, then shuts down.
func run(ctx context.Context, args []string, deps *Dependencies) error {
	flags, fs, err := parseFlags(args, deps.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}
	if flags.version {
		fmt.Fprintf(deps.Stdout, "javaprint-server %s\n", Version)
		return nil
	}

	logger := deps.logger()

	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply.
	if flags.verbose {
		_, _ = maxprocs.Set(maxprocs.Logger(logger.Printf))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	cfg, err := config.Load(flags.config, fs)
	if err != nil {
		return err
	}
	if flags.verbose {
		logger.Printf("config: %+v", *cfg)
	}

	svc, err := newServices(cfg, deps, logger)
	if err != nil {
		return err
	}
	return svc.serve(ctx, cfg.Addr())
}

// services is the running server and what it owns.
type services struct {
	engine  engine
	manager *jobs.Manager
	server  *server.Server
	logger  *log.Logger
}

func newServices(cfg *config.Config, deps *Dependencies, logger *log.Logger) (*services, error) {
	loader, err := assets.NewAssetResolver(cfg.FontDir)
	if err != nil {
		return nil, fmt.Errorf("font directory: %w", err)
	}
	contexts, err := javaprint.NewContextBuilder(nil, loader)
	if err != nil {
		return nil, err
	}

	eng := deps.NewEngine(
		javaprint.WithBrowserBin(cfg.ChromiumBin),
		javaprint.WithNoSandbox(cfg.ChromiumNoSandbox),
		javaprint.WithRenderTimeout(cfg.RenderTimeout),
	)
	pipeline := javaprint.NewPipeline(eng, contexts, javaprint.WithConcurrency(cfg.RenderConcurrency))

	limits := cfg.Limits()
	runner := server.NewRunner(pipeline, limits)
	manager := jobs.NewManager(runner, jobs.Config{
		MaxActive: cfg.MaxActiveJobs,
		MaxQueued: cfg.MaxQueuedJobs,
		TTL:       cfg.JobTTL,
		Logger:    logger,
	})
	srv := server.New(server.Config{
		Runner:     runner,
		Manager:    manager,
		Catalog:    contexts.Catalog(),
		Limits:     limits,
		TempPrefix: cfg.TempPrefix,
		Production: cfg.Production(),
		Logger:     logger,
		AccessLog:  deps.Stdout,
	})

	return &services{engine: eng, manager: manager, server: srv, logger: logger}, nil
}

// serve listens on addr until ctx ends or listening fails.
func (s *services) serve(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() { errc <- s.server.Listen(addr) }()
	s.logger.Printf("Server starting on %s", addr)

	select {
	case err := <-errc:
		s.shutdown()
		return fmt.Errorf("%w on %s: %w", errListen, addr, err)
	case <-ctx.Done():
	}

	s.logger.Println("Shutting down server...")
	s.shutdown()
	return nil
}

func (s *services) shutdown() {
	drainCtx, cancel := context.WithTimeout(context.Background(), jobDrainTimeout)
	defer cancel()
	if err := s.manager.Shutdown(drainCtx); err != nil {
		s.logger.Printf("Job drain interrupted: %v", err)
	}
	if err := s.server.Shutdown(httpShutdownTimeout); err != nil {
		s.logger.Printf("Server shutdown error: %v", err)
	}
	if err := s.engine.Close(); err != nil {
		s.logger.Printf("Closing browser: %v", err)
	}
}
