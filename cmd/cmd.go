package cmd

import (
	"context"
	"net/http"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anicoll/telemetry-integration/internal/pkg/config"
	"github.com/anicoll/telemetry-integration/internal/pkg/database"
	"github.com/anicoll/telemetry-integration/internal/pkg/database/migration"
	"github.com/anicoll/telemetry-integration/internal/pkg/model"
	"github.com/anicoll/telemetry-integration/internal/pkg/mqtt"
	"github.com/anicoll/telemetry-integration/internal/pkg/publisher"
	"github.com/anicoll/telemetry-integration/internal/pkg/telemetry"
	"github.com/anicoll/telemetry-integration/internal/pkg/watchlist"
)

// MonitorCommand is the entry point for the telemetry-monitor CLI. It builds
// the config from environment defaults overlaid with flags and starts all
// required services.
func MonitorCommand(ctx *cli.Context) error {
	telemetryCfg, err := config.TelemetryFromEnv()
	if err != nil {
		return err
	}
	if v := ctx.String("server-url"); v != "" {
		telemetryCfg.ServerURL = v
	}
	if v := ctx.String("auth-token"); v != "" {
		telemetryCfg.AuthToken = v
	}

	cfg := &config.Config{
		TelemetryCfg: telemetryCfg,
		MqttCfg: &config.MqttConfig{
			Host:     ctx.String("mqtt-host"),
			Username: ctx.String("mqtt-user"),
			Password: ctx.String("mqtt-pass"),
		},
		DatabaseURL: ctx.String("database-url"),
		MetricsAddr: ctx.String("metrics-addr"),
		Watchlist:   ctx.String("watchlist"),
		LogLevel:    ctx.String("log-level"),
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() // flushes buffer, if any.
	}()
	zap.ReplaceGlobals(logger)

	errorChan := make(chan error, 1000)

	var db *database.Database
	if cfg.DatabaseURL != "" {
		if folder := ctx.String("migrations-folder"); folder != "" {
			if err := migration.Migrate(cfg.DatabaseURL, folder); err != nil {
				return err
			}
		}
		conn, err := pgx.Connect(ctx.Context, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		db = database.NewDatabase(ctx.Context, conn)
		defer db.Close()
		if err := publisher.RegisterPublisher("postgres", db); err != nil {
			return err
		}
	}

	if cfg.MqttCfg.Host != "" {
		opts := paho_mqtt.NewClientOptions().
			AddBroker(cfg.MqttCfg.Host).
			SetUsername(cfg.MqttCfg.Username).
			SetPassword(cfg.MqttCfg.Password).
			SetClientID("telemetry-monitor")
		mqttSvc := mqtt.New(paho_mqtt.NewClient(opts))
		if err := mqttSvc.Connect(); err != nil {
			return err
		}
		defer mqttSvc.Disconnect()
		if err := publisher.RegisterPublisher("mqtt", mqttSvc); err != nil {
			return err
		}
	}

	monitor := telemetry.New(cfg.TelemetryCfg, errorChan,
		telemetry.WithLogger(logger),
		telemetry.OnValue(bridgeValue),
	)

	entities, err := watchlist.Load(cfg.Watchlist)
	if err != nil {
		return err
	}
	for _, entity := range entities {
		monitor.AddEntity(entity)
		if err := publisher.RegisterEntity(&entity); err != nil {
			return err
		}
	}
	logger.Info("watchlist loaded", zap.Int("entities", len(entities)))

	return run(ctx.Context, cfg, monitor, errorChan, logger, db)
}

func run(ctx context.Context, cfg *config.Config, svc MonitorService, errChan chan error, logger *zap.Logger, db *database.Database) error {
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if err := svc.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()
		return svc.Close()
	})

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{
			Handler:      mux,
			Addr:         cfg.MetricsAddr,
			WriteTimeout: 15 * time.Second,
			ReadTimeout:  15 * time.Second,
		}
		eg.Go(srv.ListenAndServe)
		eg.Go(func() error {
			<-ctx.Done()
			return srv.Shutdown(context.Background())
		})
	}

	eg.Go(func() error {
		return cronJobs(ctx, svc, db, errChan, logger)
	})

	eg.Go(func() error {
		// handle any async errors from the session
		for {
			select {
			case err := <-errChan:
				if err != nil {
					logger.Error("async error", zap.Error(err))
					return err
				}
			case <-ctx.Done():
				logger.Info("context done")
				return ctx.Err()
			}
		}
	})

	return eg.Wait()
}

// cronJobs logs a periodic snapshot summary and prunes the history table.
func cronJobs(ctx context.Context, svc MonitorService, db *database.Database, errChan chan error, logger *zap.Logger) error {
	c := cron.New()
	if _, err := c.AddFunc("@every 1m", func() {
		snapshot := svc.TelemetryData()
		fresh := 0
		for _, data := range snapshot {
			for _, value := range data.Values {
				if value.IsNew {
					fresh++
				}
			}
		}
		logger.Info("telemetry summary",
			zap.Bool("connected", svc.IsConnected()),
			zap.Int("entities", len(snapshot)),
			zap.Int("joined_rooms", len(svc.JoinedRooms())),
			zap.Int("fresh_values", fresh))
	}); err != nil {
		return err
	}
	if db != nil {
		if _, err := c.AddFunc("0 3 * * *", func() {
			if err := db.Cleanup(context.Background()); err != nil {
				logger.Error("error cleaning up database", zap.Error(err))
				errChan <- err
			}
		}); err != nil {
			return err
		}
	}
	c.Start()
	defer c.Stop()

	<-ctx.Done()
	return ctx.Err()
}

// bridgeValue hands accepted values to the publisher fan-out.
func bridgeValue(entity model.MonitoredEntity, variableKey string, value any, timestamp string) {
	publishCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	if err := publisher.PublishValue(publishCtx, entity, variableKey, value, timestamp); err != nil {
		zap.L().Error("failed to publish value", zap.Error(err))
	}
}

func buildLogger(level string) (*zap.Logger, error) {
	logCfg := zap.NewProductionConfig()
	parsed, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	logCfg.Level = parsed
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logCfg.Sampling = nil
	return logCfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
}
