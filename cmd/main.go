package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/ascent/internal/adapters/http/api"
	"github.com/okian/ascent/internal/adapters/http/docs"
	"github.com/okian/ascent/internal/adapters/identity"
	"github.com/okian/ascent/internal/adapters/store"
	service "github.com/okian/ascent/internal/app"
	"github.com/okian/ascent/internal/config"
	"github.com/okian/ascent/internal/domain/model"
	"github.com/okian/ascent/pkg/logger"
)

const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel))
		_ = logger.SetLevelString("info")
	}

	catalogs := store.NewCatalogStore()
	events := store.NewEventStore()
	seedDemoProject(catalogs)

	svc := service.New(catalogs, events,
		service.WithLogger(log),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.EventQueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithCatalogCacheSize(cfg.CatalogCacheSize),
		service.WithFallbackVersion(cfg.DefaultVersion),
		service.WithRetentionDays(cfg.PointHistoryDays),
		service.WithLeaderboardSize(cfg.LeaderboardSize),
		service.WithTransitiveDependencies(cfg.TransitiveDependencies),
		service.WithRankZeroPointUsers(cfg.RankZeroPointUsers),
		service.WithExpectedClientVersion(cfg.ExpectedClientVersion),
		service.WithFetchTimeout(time.Duration(cfg.FetchTimeoutMS)*time.Millisecond),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	mux := http.NewServeMux()
	docs.Register(mux)
	api.RegisterHealth(mux)
	api.NewServer(svc, identity.NewResolver()).Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.IdentityMiddleware(mux),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}

// seedDemoProject installs a small catalog so a fresh instance answers
// requests out of the box. Production deployments replace this with the
// authoring subsystem's snapshots.
func seedDemoProject(catalogs *store.CatalogStore) {
	catalogs.SeedProject(model.ProjectCatalog{
		ProjectID: "getting-started",
		Name:      "Getting Started",
		Skills: []model.Skill{
			{ProjectID: "getting-started", SkillID: "first-steps", SubjectID: "onboarding", Name: "First Steps", PointIncrement: 10, MaxOccurrences: 1},
			{ProjectID: "getting-started", SkillID: "daily-practice", SubjectID: "onboarding", Name: "Daily Practice", PointIncrement: 5, MaxOccurrences: 20},
			{ProjectID: "getting-started", SkillID: "first-review", SubjectID: "collaboration", Name: "First Review", PointIncrement: 25, MaxOccurrences: 2},
		},
		Subjects: []model.Subject{
			{ProjectID: "getting-started", SubjectID: "onboarding", Name: "Onboarding", SkillIDs: []string{"first-steps", "daily-practice"}},
			{ProjectID: "getting-started", SubjectID: "collaboration", Name: "Collaboration", SkillIDs: []string{"first-review"}},
		},
		SubjectOrder: []string{"onboarding", "collaboration"},
		Edges: []model.DependencyEdge{
			{ProjectID: "getting-started", SkillID: "first-review", PrereqSkillID: "first-steps"},
		},
		Badges: []model.Badge{
			{Scope: model.ScopeProject, ProjectID: "getting-started", BadgeID: "committed", Name: "Committed",
				Reqs: []model.BadgeRequirement{
					{SkillID: "first-steps", Points: 10},
					{SkillID: "daily-practice", Points: 100},
				}},
		},
		Levels: []int{0, 25, 75, 160},
	})
}
