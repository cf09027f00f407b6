package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/limaJavier/timetableplus/internal/server"
	"github.com/limaJavier/timetableplus/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the timetabler over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := app.setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			history, err := store.Open(cfg.Store.Path)
			if err != nil {
				return err
			}
			defer history.Close()

			var cache server.Cache
			if cfg.Cache.RedisAddr != "" {
				if cache, err = server.NewRedisCache(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB); err != nil {
					return err
				}
				log.Info("using redis cache", zap.String("addr", cfg.Cache.RedisAddr))
			} else {
				cache = server.NewMemoryCache()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return server.New(cfg, history, cache, server.NewMetrics(), log).Run(ctx)
		},
	}

	cmd.Flags().String("http-addr", "", "Listen address (default :8080)")
	cmd.Flags().String("db-path", "", "History database path")
	cmd.Flags().String("solver", "", "Solver used for requests")
	cmd.Flags().Duration("timeout", 0, "Maximum search time per request")

	return cmd
}
