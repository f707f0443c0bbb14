package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vexlio/courier/internal/auth"
	"github.com/vexlio/courier/internal/bind"
	"github.com/vexlio/courier/internal/bus"
	"github.com/vexlio/courier/internal/call"
	"github.com/vexlio/courier/internal/config"
	"github.com/vexlio/courier/internal/dispatch"
	"github.com/vexlio/courier/internal/fault"
	"github.com/vexlio/courier/internal/jobtracker"
	"github.com/vexlio/courier/internal/logging"
	"github.com/vexlio/courier/internal/metrics"
	"github.com/vexlio/courier/internal/output"
	"github.com/vexlio/courier/internal/registry"
	"github.com/vexlio/courier/internal/runners"
	"github.com/vexlio/courier/internal/store"
)

func runCmd() *cobra.Command {
	var (
		configPath string
		username   string
		password   string
		eauth      string
		token      string
		outFormat  string
		logLevel   string
		asyncFlag  bool
		quiet      bool
		doc        bool
	)

	cmd := &cobra.Command{
		Use:   "run <function> [arg|key=value ...]",
		Short: "Execute a runner operation",
		Long:  "Execute a named runner operation on the master, synchronously streaming its returns or asynchronously with --async",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !doc && len(args) < 1 {
				return fmt.Errorf("a function name is required")
			}
			cfg := config.DefaultConfig()
			if configPath != "" {
				loaded, err := config.LoadFromFile(configPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				cfg = loaded
			}
			config.LoadFromEnv(cfg)
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			logging.SetLevelFromString(cfg.LogLevel)

			ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			client, cleanup, err := buildClient(ctx, cfg, outFormat)
			if err != nil {
				return err
			}
			defer cleanup()

			var low map[string]any
			if doc {
				low = map[string]any{}
				if len(args) > 0 {
					low["fun"] = args[0]
				}
			} else {
				var buildErr error
				low, buildErr = buildLow(client, args[0], args[1:], credentials(username, password, eauth, token))
				if buildErr != nil {
					if ferr, ok := fault.IsFault(buildErr); ok {
						fmt.Fprintln(os.Stderr, ferr.Error())
						cleanup()
						os.Exit(1)
					}
					return buildErr
				}
			}

			_, runErr := client.Run(ctx, dispatch.RunOpts{
				Low:   low,
				Doc:   doc,
				Async: asyncFlag,
				Quiet: quiet,
			})
			if runErr != nil {
				// Already rendered by the dispatch boundary; exit nonzero
				// without double-printing.
				cleanup()
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.Flags().StringVar(&username, "username", "", "External auth username")
	cmd.Flags().StringVar(&password, "password", "", "External auth password")
	cmd.Flags().StringVar(&eauth, "eauth", "", "External auth backend name")
	cmd.Flags().StringVar(&token, "token", "", "External auth token")
	cmd.Flags().StringVar(&outFormat, "out", "", "Output format: text, json, yaml")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level")
	cmd.Flags().BoolVar(&asyncFlag, "async", false, "Submit the job and return the handle immediately")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress rendered output")
	cmd.Flags().BoolVarP(&doc, "doc", "d", false, "Show documentation instead of executing")

	return cmd
}

// buildClient wires a dispatch client from config: bus and cache
// backends, authorizer, tracker, printer, metrics.
func buildClient(ctx context.Context, cfg *config.Config, outFormat string) (*dispatch.Client, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var eventBus bus.Bus
	switch cfg.EventBus {
	case config.BackendRedis:
		rb, err := bus.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("event bus: %w", err)
		}
		eventBus = rb
	default:
		eventBus = bus.NewMemory()
	}
	closers = append(closers, func() { eventBus.Close() })

	var cache store.JobCache
	switch cfg.JobCache {
	case config.BackendRedis:
		rc, err := store.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.JobTTL)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("job cache: %w", err)
		}
		cache = rc
	case config.BackendPostgres:
		pc, err := store.NewPostgresCache(ctx, cfg.Postgres.DSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("job cache: %w", err)
		}
		cache = pc
	case config.BackendNone:
		cache = store.NullCache{}
	default:
		cache = store.NewMemoryCache()
	}
	closers = append(closers, func() { cache.Close() })

	var authorizer auth.Authorizer = auth.AllowAll{}
	if cfg.Auth.Enabled {
		authorizer = auth.NewStatic(cfg.Auth.Users, cfg.Auth.TokenTTL)
	}

	tracker := jobtracker.New(30 * time.Minute)
	closers = append(closers, tracker.Stop)

	format := cfg.Output
	if outFormat != "" {
		format = outFormat
	}
	printer := output.NewPrinter(output.ParseFormat(format))
	if cfg.Quiet {
		printer.SetQuiet(true)
	}

	m := metrics.New("courier", nil)
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", m.Handler())
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				logging.Op().Error("metrics endpoint failed", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
	}

	reg := registry.New()
	runners.Register(reg, runners.Deps{Cache: cache, Tracker: tracker})

	client := dispatch.New(dispatch.Deps{
		Registry:   reg,
		Bus:        eventBus,
		Authorizer: authorizer,
		Cache:      cache,
		Tracker:    tracker,
		Printer:    printer,
		Metrics:    m,
	})
	return client, cleanup, nil
}

// buildLow assembles the low state for dispatch: CLI tokens become
// kwargs (positional tokens are matched to the operation's declared
// parameter names here, before the binder ever sees them), credential
// flags are interleaved for the normalizer to partition back out.
func buildLow(client *dispatch.Client, fun string, tokens []string, creds map[string]any) (map[string]any, error) {
	positional, kwargs := call.ParseInput(tokens)

	if len(positional) > 0 {
		op, err := client.Registry().Resolve(fun)
		if err != nil {
			return nil, err
		}
		merged, err := bind.MapPositional(op, positional, kwargs)
		if err != nil {
			return nil, err
		}
		kwargs = merged
	}

	low := make(map[string]any, len(kwargs)+len(creds)+1)
	low["fun"] = fun
	for k, v := range kwargs {
		low[k] = v
	}
	for k, v := range creds {
		low[k] = v
	}
	return low, nil
}

func credentials(username, password, eauth, token string) map[string]any {
	creds := make(map[string]any)
	if username != "" {
		creds["username"] = username
	}
	if password != "" {
		creds["password"] = password
	}
	if eauth != "" {
		creds["eauth"] = eauth
	}
	if token != "" {
		creds["token"] = token
	}
	if len(creds) > 0 {
		creds["client"] = "runner"
	}
	return creds
}
