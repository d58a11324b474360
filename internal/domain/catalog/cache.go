package catalog

import (
	"strconv"
	"sync"

	"github.com/okian/ascent/internal/domain/model"
)

// viewCache is a bounded read-through cache of resolved views keyed by
// (projectID, version). Catalogs change rarely; stale reads of an
// unchanged version are safe by definition, and mutations are handled by
// explicit invalidation.
type viewCache struct {
	mu      sync.RWMutex
	maxSize int
	views   map[string]*model.CatalogView
	// byProject tracks keys per project so invalidation stays O(entries
	// of that project).
	byProject map[string][]string
}

func newViewCache(maxSize int) *viewCache {
	return &viewCache{
		maxSize:   maxSize,
		views:     make(map[string]*model.CatalogView),
		byProject: make(map[string][]string),
	}
}

func cacheKey(projectID string, version int) string {
	return projectID + "@" + strconv.Itoa(version)
}

func (c *viewCache) get(projectID string, version int) (*model.CatalogView, bool) {
	if c.maxSize <= 0 {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.views[cacheKey(projectID, version)]
	return v, ok
}

func (c *viewCache) put(projectID string, version int, view *model.CatalogView) {
	if c.maxSize <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.views) >= c.maxSize {
		// Full: drop everything rather than track recency. Views are
		// cheap to rebuild and the cache is sized for the working set.
		c.views = make(map[string]*model.CatalogView)
		c.byProject = make(map[string][]string)
	}
	key := cacheKey(projectID, version)
	if _, exists := c.views[key]; !exists {
		c.byProject[projectID] = append(c.byProject[projectID], key)
	}
	c.views[key] = view
}

func (c *viewCache) invalidate(projectID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.byProject[projectID] {
		delete(c.views, key)
	}
	delete(c.byProject, projectID)
}
