package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/saransh1220/careerpush/internal/gateway"
	"github.com/saransh1220/careerpush/internal/gateway/middleware"
	"github.com/saransh1220/careerpush/internal/modules/devserver"
	"github.com/saransh1220/careerpush/internal/shared/infrastructure/database"
	"github.com/saransh1220/careerpush/internal/shared/infrastructure/metrics"
	"github.com/saransh1220/careerpush/pkg/migration"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newDevServerCmd(e *env) *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run the development backend: REST endpoints and the push endpoint over PostgreSQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log := e.log.Named("devserver")

			if !skipMigrations {
				if err := migration.AutoMigrate(e.cfg.Database.URL(), e.cfg.MigrationsPath, log); err != nil {
					return fmt.Errorf("migrate: %w", err)
				}
			}

			db, err := database.NewPostgresDB(e.cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			log.Info("database connected", zap.String("host", e.cfg.Database.Host), zap.String("db", e.cfg.Database.DBName))

			var opts devserver.Options
			if e.cfg.Redis.Enabled() {
				rdb, err := database.NewRedis(ctx, e.cfg.Redis)
				if err != nil {
					return err
				}
				defer rdb.Close()
				log.Info("redis relay enabled", zap.String("addr", e.cfg.Redis.Addr()))
				opts = devserver.Options{Redis: rdb, RedisChannel: e.cfg.Redis.Channel}
			}

			authMiddleware := middleware.NewAuthMiddleware(e.cfg.JWT.Secret)
			module := devserver.NewModule(db, authMiddleware, log, opts)
			defer module.Shutdown()

			handler := gateway.Handler(gateway.RouterConfig{
				AuthMiddleware:      authMiddleware,
				NotificationHandler: module.HTTPHandler(),
				Metrics:             metrics.New(prometheus.NewRegistry()),
				AllowedOrigins:      e.cfg.Server.AllowedOrigins,
			})

			return gateway.NewServer(e.cfg.Server.Port, handler, log).Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations on start")
	return cmd
}
