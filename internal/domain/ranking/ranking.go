package ranking

import (
	"sync"
	"time"

	"github.com/okian/ascent/internal/domain/fault"
	"github.com/okian/ascent/internal/domain/level"
	"github.com/okian/ascent/pkg/metrics"
)

// Leaderboard type selectors.
const (
	ModeTopTen      = "topTen"
	ModeTenAroundMe = "tenAroundMe"
	DefaultPageSize = 10
)

// Scope identifies one ranking board. An empty SubjectID means the
// project's overall board.
type Scope struct {
	ProjectID string
	SubjectID string
}

// Standing is a user's ordinal rank within a scope. A user the index has
// never seen ranks behind every indexed user.
type Standing struct {
	Position   int `json:"position"`
	TotalUsers int `json:"numUsers"`
	Points     int `json:"points"`
}

// Row is one leaderboard line.
type Row struct {
	Rank   int    `json:"rank"`
	UserID string `json:"userId"`
	Points int    `json:"points"`
	IsMe   bool   `json:"isItMe"`
}

// Page is a leaderboard response.
type Page struct {
	Mode       string `json:"type"`
	TotalUsers int    `json:"numUsers"`
	Rows       []Row  `json:"rankedUsers"`
}

// Distribution situates a user's points against the level table and the
// next user above them.
type Distribution struct {
	MyLevel              int `json:"myLevel"`
	MyPoints             int `json:"myPoints"`
	PointsToPassNextUser int `json:"pointsToPassNextUser"`
}

// LevelCount is the number of users sitting at one level.
type LevelCount struct {
	Level    int `json:"level"`
	NumUsers int `json:"numUsers"`
}

// Engine maintains one ranking board per scope and answers rank,
// leaderboard, and distribution queries from them. Boards are updated
// synchronously as point totals change, so reads never see stale ranks.
type Engine struct {
	mu       sync.RWMutex
	boards   map[Scope]*Board
	rankZero bool
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithRankZeroPointUsers controls whether users whose total is zero stay
// on the boards. Enabled by default; when disabled a zero total removes
// the user instead.
func WithRankZeroPointUsers(enabled bool) Option {
	return func(e *Engine) {
		e.rankZero = enabled
	}
}

// New constructs an empty Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		boards:   make(map[Scope]*Board),
		rankZero: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) board(s Scope) *Board {
	e.mu.RLock()
	b, ok := e.boards[s]
	e.mu.RUnlock()
	if ok {
		return b
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if b, ok = e.boards[s]; ok {
		return b
	}
	b = NewBoard()
	e.boards[s] = b
	return b
}

// peek returns the board for a scope without creating one.
func (e *Engine) peek(s Scope) *Board {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.boards[s]
}

// SetPoints records a user's current total for a scope.
func (e *Engine) SetPoints(s Scope, userID string, total int) {
	metrics.RecordRankIndexUpdate()

	b := e.board(s)
	if total == 0 && !e.rankZero {
		b.Delete(userID)
		return
	}
	b.Set(userID, total)
	if s.SubjectID == "" {
		metrics.UpdateTrackedUsers(b.Count())
	}
}

// Remove drops a user from a scope's board.
func (e *Engine) Remove(s Scope, userID string) {
	if b := e.peek(s); b != nil {
		b.Delete(userID)
	}
}

// Standing returns a user's ordinal rank in a scope. Ranking is total
// order: points descending, then userID ascending, so equal totals still
// produce a deterministic position. A user absent from the board counts
// as an extra participant ranked last.
func (e *Engine) Standing(s Scope, userID string) Standing {
	defer observeQuery(time.Now())

	b := e.peek(s)
	if b == nil {
		return Standing{Position: 1, TotalUsers: 1}
	}
	pos, ok := b.Position(userID)
	if !ok {
		n := b.Count()
		return Standing{Position: n + 1, TotalUsers: n + 1}
	}
	pts, _ := b.Points(userID)
	return Standing{Position: pos, TotalUsers: b.Count(), Points: pts}
}

// Leaderboard returns either the top of a scope's board or a window
// centered on the requesting user. Unknown modes are a validation error.
func (e *Engine) Leaderboard(s Scope, userID, mode string, size int) (Page, error) {
	const op = "ranking.leaderboard"
	defer observeQuery(time.Now())

	if size <= 0 {
		size = DefaultPageSize
	}

	b := e.peek(s)
	if b == nil {
		b = NewBoard()
	}

	var entries []Entry
	switch mode {
	case "", ModeTopTen:
		mode = ModeTopTen
		entries = b.Top(size)
	case ModeTenAroundMe:
		pos, ok := b.Position(userID)
		if !ok {
			pos = b.Count() + 1
		}
		start := pos - size/2
		if max := b.Count() - size + 1; start > max {
			start = max
		}
		if start < 1 {
			start = 1
		}
		entries = b.Slice(start, size)
	default:
		return Page{}, fault.Wrap(op, fault.Validation("unknown leaderboard type "+mode))
	}

	p := Page{Mode: mode, TotalUsers: b.Count(), Rows: make([]Row, 0, len(entries))}
	for _, en := range entries {
		p.Rows = append(p.Rows, Row{
			Rank:   en.Rank,
			UserID: en.UserID,
			Points: en.Points,
			IsMe:   en.UserID == userID,
		})
	}
	return p, nil
}

// Distribution reports the user's level and how many points separate them
// from the user directly above. The gap is -1 when nobody ranks higher.
func (e *Engine) Distribution(s Scope, userID string, thresholds []int) Distribution {
	defer observeQuery(time.Now())

	d := Distribution{PointsToPassNextUser: -1}
	b := e.peek(s)
	if b == nil {
		return d
	}
	pts, _ := b.Points(userID)
	d.MyPoints = pts
	d.MyLevel = level.Calc(pts, thresholds)

	pos, ok := b.Position(userID)
	if !ok || pos <= 1 {
		return d
	}
	above := b.Slice(pos-1, 1)
	if len(above) == 1 && above[0].Points > pts {
		d.PointsToPassNextUser = above[0].Points - pts
	}
	return d
}

// UsersPerLevel counts users at each level of the threshold table. Every
// level appears in the result, zero-filled, so sparse populations still
// render a full chart.
func (e *Engine) UsersPerLevel(s Scope, thresholds []int) []LevelCount {
	defer observeQuery(time.Now())

	counts := make([]LevelCount, len(thresholds))
	for i := range counts {
		counts[i].Level = i
	}
	b := e.peek(s)
	if b == nil || len(thresholds) == 0 {
		return counts
	}
	b.Each(func(en Entry) bool {
		counts[level.Calc(en.Points, thresholds)].NumUsers++
		return true
	})
	return counts
}

// Count returns the number of ranked users in a scope.
func (e *Engine) Count(s Scope) int {
	b := e.peek(s)
	if b == nil {
		return 0
	}
	return b.Count()
}

func observeQuery(start time.Time) {
	metrics.RecordRankQueryDuration(float64(time.Since(start).Microseconds()) / 1000)
}
