package store

import (
	"context"
	"sync"

	"github.com/okian/ascent/internal/domain/fault"
	"github.com/okian/ascent/internal/domain/model"
)

// CatalogStore holds raw project catalog snapshots and the global badge
// list. Seeding replaces a project's snapshot wholesale; version
// filtering happens in the catalog resolver, not here.
type CatalogStore struct {
	mu       sync.RWMutex
	projects map[string]model.ProjectCatalog
	globals  []model.Badge
}

// NewCatalogStore constructs an empty CatalogStore.
func NewCatalogStore() *CatalogStore {
	return &CatalogStore{projects: make(map[string]model.ProjectCatalog)}
}

// SeedProject installs or replaces a project's catalog snapshot.
func (s *CatalogStore) SeedProject(pc model.ProjectCatalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[pc.ProjectID] = pc
}

// SeedGlobalBadges replaces the global badge list.
func (s *CatalogStore) SeedGlobalBadges(badges ...model.Badge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globals = append([]model.Badge(nil), badges...)
}

// FetchCatalog returns a project's raw snapshot. A version beyond the
// highest published one is fault.ErrNotFound, matching an unpublished
// catalog request.
func (s *CatalogStore) FetchCatalog(ctx context.Context, projectID string, version int) (*model.ProjectCatalog, error) {
	const op = "store.fetch_catalog"
	if err := guard(ctx, op); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	pc, ok := s.projects[projectID]
	if !ok {
		return nil, fault.Wrap(op, fault.NotFound("project", projectID))
	}
	if version > pc.MaxVersion {
		return nil, fault.Wrap(op, fault.NotFound("catalog version", projectID))
	}
	out := pc
	return &out, nil
}

// FetchDefaultVersion returns the highest published version of a project.
func (s *CatalogStore) FetchDefaultVersion(ctx context.Context, projectID string) (int, error) {
	const op = "store.fetch_default_version"
	if err := guard(ctx, op); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	pc, ok := s.projects[projectID]
	if !ok {
		return 0, fault.Wrap(op, fault.NotFound("project", projectID))
	}
	return pc.MaxVersion, nil
}

// FetchGlobalBadges returns the global badge list.
func (s *CatalogStore) FetchGlobalBadges(ctx context.Context) ([]model.Badge, error) {
	const op = "store.fetch_global_badges"
	if err := guard(ctx, op); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Badge, len(s.globals))
	copy(out, s.globals)
	return out, nil
}

// Projects returns the ids of every seeded project.
func (s *CatalogStore) Projects(ctx context.Context) ([]string, error) {
	const op = "store.projects"
	if err := guard(ctx, op); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.projects))
	for id := range s.projects {
		out = append(out, id)
	}
	return out, nil
}
