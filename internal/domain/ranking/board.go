// Package ranking computes ordinal ranks, level distributions, and
// leaderboards per project or subject scope.
package ranking

import (
	"math/rand"
	"sync"
)

// Board is a treap-backed ranking index for one scope.
//
// Ordering: points DESC, then userID ASC (deterministic). "Less" means
// ranks earlier, so an in-order traversal yields the leaderboard from
// best to worst. Nodes carry subtree sizes, which gives O(log n)
// expected ordinal rank and positional selection.
type Board struct {
	mu     sync.RWMutex
	root   *node
	byUser map[string]int // userID -> current points
	rng    *rand.Rand
}

type node struct {
	userID string
	points int
	prio   uint64
	left   *node
	right  *node
	size   int
}

// NewBoard constructs an empty ranking board. The priority source is
// seeded deterministically; priorities only shape the tree, never the
// ranking order, so determinism here just makes tests reproducible.
func NewBoard() *Board {
	return &Board{
		byUser: make(map[string]int),
		rng:    rand.New(rand.NewSource(1)), //nolint:gosec // tree balance only, not security
	}
}

// less reports whether (aPoints, aID) ranks earlier than (bPoints, bID).
func less(aPoints int, aID string, bPoints int, bID string) bool {
	if aPoints != bPoints {
		return aPoints > bPoints // higher points rank earlier
	}
	return aID < bID // tie-break by userID asc
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n, fresh *node) *node {
	if n == nil {
		fresh.size = 1
		return fresh
	}
	if less(fresh.points, fresh.userID, n.points, n.userID) {
		n.left = insert(n.left, fresh)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, fresh)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func remove(n *node, userID string, pts int) *node {
	if n == nil {
		return nil
	}
	if n.points == pts && n.userID == userID {
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = remove(n.right, userID, pts)
		} else {
			n = rotateLeft(n)
			n.left = remove(n.left, userID, pts)
		}
	} else if less(pts, userID, n.points, n.userID) {
		n.left = remove(n.left, userID, pts)
	} else {
		n.right = remove(n.right, userID, pts)
	}
	fix(n)
	return n
}

// Set records a user's current points, replacing any previous total.
func (b *Board) Set(userID string, points int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if old, ok := b.byUser[userID]; ok {
		if old == points {
			return
		}
		b.root = remove(b.root, userID, old)
	}
	b.byUser[userID] = points
	b.root = insert(b.root, &node{userID: userID, points: points, prio: b.rng.Uint64()})
}

// Delete removes a user from the board.
func (b *Board) Delete(userID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	old, ok := b.byUser[userID]
	if !ok {
		return
	}
	delete(b.byUser, userID)
	b.root = remove(b.root, userID, old)
}

// Count returns the number of ranked users.
func (b *Board) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return nsize(b.root)
}

// Points returns a user's recorded total.
func (b *Board) Points(userID string) (int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	p, ok := b.byUser[userID]
	return p, ok
}

// Position returns the 1-based ordinal rank of a user, or false when the
// user is not on the board.
func (b *Board) Position(userID string) (int, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	pts, ok := b.byUser[userID]
	if !ok {
		return 0, false
	}
	before := 0
	n := b.root
	for n != nil {
		if less(pts, userID, n.points, n.userID) {
			n = n.left
		} else if n.userID == userID && n.points == pts {
			before += nsize(n.left)
			return before + 1, true
		} else {
			before += nsize(n.left) + 1
			n = n.right
		}
	}
	return 0, false
}

// Entry is one ranked user.
type Entry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"userId"`
	Points int    `json:"points"`
}

// Slice returns entries at 1-based positions [start, start+count), rank
// fields filled in.
func (b *Board) Slice(start, count int) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if start < 1 {
		start = 1
	}
	out := make([]Entry, 0, count)
	for pos := start; pos < start+count && pos <= nsize(b.root); pos++ {
		n := selectAt(b.root, pos)
		if n == nil {
			break
		}
		out = append(out, Entry{Rank: pos, UserID: n.userID, Points: n.points})
	}
	return out
}

// Top returns the first n entries in rank order.
func (b *Board) Top(n int) []Entry {
	return b.Slice(1, n)
}

// Each walks all entries in rank order until fn returns false.
func (b *Board) Each(fn func(Entry) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	pos := 0
	var walk func(n *node) bool
	walk = func(n *node) bool {
		if n == nil {
			return true
		}
		if !walk(n.left) {
			return false
		}
		pos++
		if !fn(Entry{Rank: pos, UserID: n.userID, Points: n.points}) {
			return false
		}
		return walk(n.right)
	}
	walk(b.root)
}

// selectAt returns the node at 1-based position pos in rank order.
func selectAt(n *node, pos int) *node {
	for n != nil {
		leftSize := nsize(n.left)
		switch {
		case pos <= leftSize:
			n = n.left
		case pos == leftSize+1:
			return n
		default:
			pos -= leftSize + 1
			n = n.right
		}
	}
	return nil
}
