package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	_ "github.com/lib/pq"
	"github.com/orgball2608/hashtag-harvester/internal/auth"
	"github.com/orgball2608/hashtag-harvester/internal/auth/authimpl"
	"github.com/orgball2608/hashtag-harvester/internal/feed"
	"github.com/orgball2608/hashtag-harvester/internal/feed/feedimpl"
	"github.com/orgball2608/hashtag-harvester/internal/harvester"
	"github.com/orgball2608/hashtag-harvester/internal/harvester/harvesterimpl"
	_ "github.com/orgball2608/hashtag-harvester/internal/migrations"
	"github.com/orgball2608/hashtag-harvester/internal/notifier"
	"github.com/orgball2608/hashtag-harvester/internal/notifier/telegramimpl"
	repositories "github.com/orgball2608/hashtag-harvester/internal/repositories/fx"
	"github.com/orgball2608/hashtag-harvester/pkg/config"
	"github.com/orgball2608/hashtag-harvester/pkg/logger"
	"github.com/orgball2608/hashtag-harvester/pkg/pgx"
	"github.com/pressly/goose/v3"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(
		config.New,
		logger.FxOption,
		pgx.New,
	),
	fx.Provide(
		fx.Annotate(
			authimpl.New,
			fx.As(new(auth.Client)),
		),
		fx.Annotate(
			feedimpl.New,
			fx.As(new(feed.Client)),
		),
		fx.Annotate(
			telegramimpl.New,
			fx.As(new(notifier.Client)),
		),
		fx.Annotate(
			harvesterimpl.New,
			fx.As(new(harvester.Client)),
		),
	),
	repositories.Module,
	fx.Invoke(migrate),
	fx.Invoke(run),
)

// migrate applies the registered goose migrations before anything touches the
// posts table.
func migrate(c *config.Config) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	db, err := sql.Open("postgres", c.GetDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	return goose.Up(db, ".")
}

func run(lc fx.Lifecycle, log logger.Logger, cfg *config.Config, hClient harvester.Client) {
	runCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go startHttpServer(log, cfg)

			if err := hClient.ScheduleHarvests(runCtx); err != nil {
				cancel()
				return err
			}

			// One-shot pass at startup; the scheduler takes over afterwards.
			go func() {
				if err := hClient.RunAll(runCtx); err != nil {
					log.Error("Initial harvest failed", "error", err)
				}
			}()

			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func startHttpServer(log logger.Logger, cfg *config.Config) {
	http.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		healthCheckHandler(w, r, log)
	})

	log.Info(fmt.Sprintf("Starting server on :%d", cfg.App.Port))

	if err := http.ListenAndServe(fmt.Sprintf(":%d", cfg.App.Port), nil); err != nil {
		log.Error("Server failed to start", "error", err)
	}
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request, logger logger.Logger) {
	logger.Debug("Health check request received", "method", r.Method, "url", r.URL.String())
	w.Header().Set("Content-Type", "text/plain")
	if _, err := w.Write([]byte("ok")); err != nil {
		logger.Error("Failed to write response", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
