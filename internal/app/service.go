// Package service wires the engine components behind one facade that the
// HTTP API depends on: catalog resolution, aggregation, badges,
// dependencies, history, ranking, and the async reporting pipeline.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	eventqueue "github.com/okian/ascent/internal/adapters/mq/queue"
	workerpool "github.com/okian/ascent/internal/adapters/mq/worker"
	"github.com/okian/ascent/internal/domain/badge"
	"github.com/okian/ascent/internal/domain/catalog"
	"github.com/okian/ascent/internal/domain/dedupe"
	"github.com/okian/ascent/internal/domain/depgraph"
	"github.com/okian/ascent/internal/domain/fault"
	"github.com/okian/ascent/internal/domain/model"
	"github.com/okian/ascent/internal/domain/points"
	"github.com/okian/ascent/internal/domain/ranking"
	"github.com/okian/ascent/pkg/logger"
)

// EventStore is the event persistence boundary the service depends on.
type EventStore interface {
	Append(ctx context.Context, ev model.SkillEvent) error
	FetchEvents(ctx context.Context, projectID, userID string, skillIDs ...string) ([]model.SkillEvent, error)
	RemoveEvent(ctx context.Context, projectID, userID, eventID string) error
	Users(ctx context.Context, projectID string) ([]string, error)
	AddRejection(ctx context.Context, r model.Rejection) error
	Rejections(ctx context.Context, projectID, userID string) ([]model.Rejection, error)
	RemoveRejection(ctx context.Context, projectID, userID, id string) error
}

// CatalogStore is the catalog persistence boundary.
type CatalogStore interface {
	catalog.Store
	FetchGlobalBadges(ctx context.Context) ([]model.Badge, error)
	Projects(ctx context.Context) ([]string, error)
}

// Service implements the API dependencies for the progress engine.
type Service struct {
	mu sync.RWMutex

	catalogStore CatalogStore
	eventStore   EventStore

	resolver *catalog.Resolver
	badges   *badge.Evaluator
	deps     *depgraph.Resolver
	ranks    *ranking.Engine
	deduper  dedupe.Deduper
	queue    eventqueue.Queue
	pool     *workerpool.Pool

	workerCount     int
	queueSize       int
	dedupeSize      int
	cacheSize       int
	fallbackVersion int
	retentionDays   int
	leaderboardSize int
	transitiveDeps  bool
	rankZeroUsers   bool
	expectedClientV string
	fetchTimeout    time.Duration
	now             func() time.Time

	lastViewed map[string]string // projectID|userID -> skillID
	applyLocks sync.Map          // projectID|userID -> *sync.Mutex

	started bool
	log     logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of apply workers.
func WithWorkerCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workerCount = n
		}
	}
}

// WithQueueSize bounds the reporting queue.
func WithQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithDedupeSize bounds the idempotency cache.
func WithDedupeSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.dedupeSize = n
		}
	}
}

// WithCatalogCacheSize bounds the resolved-view cache.
func WithCatalogCacheSize(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.cacheSize = n
		}
	}
}

// WithFallbackVersion sets the deployment-wide default catalog version.
func WithFallbackVersion(v int) Option {
	return func(s *Service) {
		if v >= 0 {
			s.fallbackVersion = v
		}
	}
}

// WithRetentionDays bounds the point-history window.
func WithRetentionDays(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.retentionDays = n
		}
	}
}

// WithLeaderboardSize sets the default leaderboard page size.
func WithLeaderboardSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.leaderboardSize = n
		}
	}
}

// WithTransitiveDependencies enables transitive prerequisite traversal.
func WithTransitiveDependencies(enabled bool) Option {
	return func(s *Service) {
		s.transitiveDeps = enabled
	}
}

// WithRankZeroPointUsers controls whether zero-point users stay ranked.
func WithRankZeroPointUsers(enabled bool) Option {
	return func(s *Service) {
		s.rankZeroUsers = enabled
	}
}

// WithExpectedClientVersion sets the client build the server expects.
func WithExpectedClientVersion(v string) Option {
	return func(s *Service) {
		s.expectedClientV = v
	}
}

// WithFetchTimeout bounds individual store fetches.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.fetchTimeout = d
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// New constructs a Service over the given stores.
func New(catalogs CatalogStore, events EventStore, opts ...Option) *Service {
	s := &Service{
		catalogStore:    catalogs,
		eventStore:      events,
		workerCount:     runtime.NumCPU() * 4,
		queueSize:       100_000,
		dedupeSize:      500_000,
		cacheSize:       256,
		retentionDays:   1825,
		leaderboardSize: 10,
		rankZeroUsers:   true,
		fetchTimeout:    2 * time.Second,
		now:             time.Now,
		lastViewed:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the engine components, seeds the ranking boards from the
// stores' current state, and launches the worker pool.
func (s *Service) Start(ctx context.Context) error {
	const op = "service.start"

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.log == nil {
		s.log = logger.Get().Named("service")
	}

	s.resolver = catalog.New(s.catalogStore,
		catalog.WithFallbackVersion(s.fallbackVersion),
		catalog.WithCacheSize(s.cacheSize),
	)
	s.badges = badge.New(s.resolver, s.eventStore, s.catalogStore, badge.WithClock(s.now))

	s.deps = depgraph.New(s.resolver, s.eventStore, depgraph.WithTransitive(s.transitiveDeps))

	s.ranks = ranking.New(ranking.WithRankZeroPointUsers(s.rankZeroUsers))
	s.deduper = dedupe.New(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.New(eventqueue.WithCapacity(s.queueSize))

	if err := s.seedRankings(ctx); err != nil {
		return fault.Wrap(op, err)
	}

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s)
	s.pool.Start(ctx)

	s.started = true
	s.log.Info(ctx, "progress engine started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
	)
	return nil
}

// Stop drains the pipeline and shuts the service down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.log.Info(ctx, "stopping progress engine...")

	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}

	s.started = false
	s.log.Info(ctx, "progress engine stopped")
}

// seedRankings replays stored totals into the ranking boards so ranks are
// correct from the first request.
func (s *Service) seedRankings(ctx context.Context) error {
	projects, err := s.catalogStore.Projects(ctx)
	if err != nil {
		return err
	}
	for _, projectID := range projects {
		users, err := s.eventStore.Users(ctx, projectID)
		if err != nil {
			return err
		}
		for _, userID := range users {
			if err := s.refreshRank(ctx, projectID, userID); err != nil {
				return err
			}
		}
	}
	return nil
}

// refreshRank recomputes a user's totals at the default catalog version
// and pushes them into the project and subject boards.
func (s *Service) refreshRank(ctx context.Context, projectID, userID string) error {
	view, err := s.resolver.Resolve(ctx, projectID, catalog.DefaultVersion)
	if err != nil {
		return err
	}
	events, err := s.eventStore.FetchEvents(ctx, projectID, userID)
	if err != nil {
		return err
	}
	totals := points.Aggregate(events, view, "")

	s.ranks.SetPoints(ranking.Scope{ProjectID: projectID}, userID, totals.Total)
	for subjectID := range view.Subjects {
		s.ranks.SetPoints(ranking.Scope{ProjectID: projectID, SubjectID: subjectID}, userID, totals.BySubject[subjectID])
	}
	return nil
}

// applyLock serializes append-and-refresh for one user. Board.Set
// replaces a user's total outright, so a refresh computed before a
// concurrent append must never be published after it.
func (s *Service) applyLock(projectID, userID string) *sync.Mutex {
	m, _ := s.applyLocks.LoadOrStore(projectID+"|"+userID, &sync.Mutex{})
	return m.(*sync.Mutex)
}

// fetchCtx bounds one store round trip.
func (s *Service) fetchCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.fetchTimeout)
}

// GetStats reports operational counters for the dashboard endpoint.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":      s.started,
		"workers":      s.workerCount,
		"dedupe_size":  0,
		"queue_length": 0,
	}
	if s.deduper != nil {
		stats["dedupe_size"] = s.deduper.Size()
	}
	if s.queue != nil {
		stats["queue_length"] = s.queue.Len()
	}
	return stats
}
