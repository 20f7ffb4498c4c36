package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/AgentOS/switcherd/internal/api/http"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/bus"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/bus/dbus"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/domain/catalog"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/domain/hibernation"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/engine"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/platform/process"
	"github.com/GriffinCanCode/AgentOS/switcherd/internal/platform/x11"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the tracker daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runDaemon(ctx, cfg)
	},
}

func runDaemon(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Logger

	metrics := monitoring.NewMetrics()

	scanner := catalog.NewScanner(cfg.Catalog.Dirs, cfg.Catalog.Pattern, logger.Component("catalog"))
	descs, err := scanner.Scan()
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	cat := catalog.New(descs...)
	log.Info("catalog loaded", zap.Int("applications", cat.Len()))

	display, err := x11.Open(cfg.Display.Name, log)
	if err != nil {
		return err
	}
	defer display.Shutdown()

	var (
		source   bus.Source = bus.NewLocal()
		launcher hibernation.Launcher
		client   *dbus.Client
	)
	if cfg.Bus.Enabled {
		client, err = dbus.Connect(cfg.Bus.Service, log)
		if err != nil {
			log.Warn("signal bus unavailable, running without it", zap.Error(err))
		} else {
			source = client
			launcher = client
		}
	}
	defer source.Close()

	eng := engine.New(engine.Options{
		Config:        cfg.Switcher,
		Catalog:       cat,
		Scanner:       scanner,
		Source:        display,
		WindowManager: display,
		Signaler:      process.New(),
		Launcher:      launcher,
		Bus:           source,
		Logger:        log,
		Metrics:       metrics,
	})

	if client != nil {
		if err := client.Export(eng); err != nil {
			log.Warn("kill method not exported", zap.Error(err))
		}
	}

	if cfg.Catalog.Watch {
		watcher, err := catalog.NewWatcher(cfg.Catalog.Dirs, func() {
			if err := eng.Reload(); err != nil {
				log.Warn("catalog reload failed", zap.Error(err))
			}
		}, logger.Component("catalog"))
		if err != nil {
			log.Warn("catalog watch disabled", zap.Error(err))
		} else {
			watcher.Start()
			defer watcher.Stop()
		}
	}

	var server *apihttp.Server
	if cfg.Server.Enabled {
		var rl *middleware.RateLimitConfig
		if cfg.RateLimit.Enabled {
			r := middleware.DefaultRateLimitConfig()
			r.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
			r.Burst = cfg.RateLimit.Burst
			rl = &r
		}
		server = apihttp.NewServer(apihttp.Config{
			Addr:      cfg.Server.Addr(),
			MaxConns:  cfg.Server.MaxConns,
			RateLimit: rl,
			CORS:      middleware.CORSConfig{Origins: cfg.Server.CORSOrigins, MaxAge: 12 * time.Hour},
		}, eng, metrics, log)
		go func() {
			if err := server.Run(); err != nil {
				log.Error("http server failed", zap.Error(err))
			}
		}()
	}

	err = eng.Run(ctx)

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if serr := server.Shutdown(shutdownCtx); serr != nil {
			log.Warn("http shutdown", zap.Error(serr))
		}
	}
	return err
}
