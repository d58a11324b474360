// Package store provides the in-memory persistence boundary: skill
// events per (project, user), rejection records, and raw catalog
// snapshots. Fetches honour context deadlines and surface a timeout as
// fault.ErrUpstreamTimeout so callers can treat the store like any other
// remote collaborator.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/okian/ascent/internal/domain/fault"
	"github.com/okian/ascent/internal/domain/model"
)

// EventStore holds skill events and rejection records in memory.
type EventStore struct {
	mu         sync.RWMutex
	events     map[string][]model.SkillEvent // projectID|userID, ascending by TS
	users      map[string]map[string]struct{}
	rejections map[string][]model.Rejection // projectID|userID
}

// NewEventStore constructs an empty EventStore.
func NewEventStore() *EventStore {
	return &EventStore{
		events:     make(map[string][]model.SkillEvent),
		users:      make(map[string]map[string]struct{}),
		rejections: make(map[string][]model.Rejection),
	}
}

func key(projectID, userID string) string {
	return projectID + "|" + userID
}

// guard maps a done context to the store error taxonomy.
func guard(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fault.Wrap(op, fault.ErrUpstreamTimeout)
		}
		return fault.Wrap(op, ctx.Err())
	default:
		return nil
	}
}

// Append stores one skill event, keeping the per-user sequence ordered
// ascending by timestamp.
func (s *EventStore) Append(ctx context.Context, ev model.SkillEvent) error {
	const op = "store.append_event"
	if err := guard(ctx, op); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(ev.ProjectID, ev.UserID)
	seq := s.events[k]
	at := sort.Search(len(seq), func(i int) bool { return seq[i].TS.After(ev.TS) })
	seq = append(seq, model.SkillEvent{})
	copy(seq[at+1:], seq[at:])
	seq[at] = ev
	s.events[k] = seq

	if s.users[ev.ProjectID] == nil {
		s.users[ev.ProjectID] = make(map[string]struct{})
	}
	s.users[ev.ProjectID][ev.UserID] = struct{}{}
	return nil
}

// FetchEvents returns a user's events for a project, ascending by
// timestamp. Optional skillIDs restrict the result to those skills.
func (s *EventStore) FetchEvents(ctx context.Context, projectID, userID string, skillIDs ...string) ([]model.SkillEvent, error) {
	const op = "store.fetch_events"
	if err := guard(ctx, op); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seq := s.events[key(projectID, userID)]
	if len(skillIDs) == 0 {
		out := make([]model.SkillEvent, len(seq))
		copy(out, seq)
		return out, nil
	}

	want := make(map[string]struct{}, len(skillIDs))
	for _, id := range skillIDs {
		want[id] = struct{}{}
	}
	var out []model.SkillEvent
	for _, ev := range seq {
		if _, ok := want[ev.SkillID]; ok {
			out = append(out, ev)
		}
	}
	return out, nil
}

// RemoveEvent deletes one event by id. Missing events are not an error;
// aggregation tolerates events disappearing between sub-reads.
func (s *EventStore) RemoveEvent(ctx context.Context, projectID, userID, eventID string) error {
	const op = "store.remove_event"
	if err := guard(ctx, op); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(projectID, userID)
	seq := s.events[k]
	for i, ev := range seq {
		if ev.EventID == eventID {
			s.events[k] = append(seq[:i:i], seq[i+1:]...)
			return nil
		}
	}
	return nil
}

// Users returns the ids of every user with events in a project, sorted
// for deterministic iteration.
func (s *EventStore) Users(ctx context.Context, projectID string) ([]string, error) {
	const op = "store.users"
	if err := guard(ctx, op); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.users[projectID]))
	for id := range s.users[projectID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// AddRejection records a rejected skill report for later review.
func (s *EventStore) AddRejection(ctx context.Context, r model.Rejection) error {
	const op = "store.add_rejection"
	if err := guard(ctx, op); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(r.ProjectID, r.UserID)
	s.rejections[k] = append(s.rejections[k], r)
	return nil
}

// Rejections lists a user's pending rejections for a project.
func (s *EventStore) Rejections(ctx context.Context, projectID, userID string) ([]model.Rejection, error) {
	const op = "store.rejections"
	if err := guard(ctx, op); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	seq := s.rejections[key(projectID, userID)]
	out := make([]model.Rejection, len(seq))
	copy(out, seq)
	return out, nil
}

// RemoveRejection dismisses one rejection by id. Unknown ids are
// fault.ErrNotFound.
func (s *EventStore) RemoveRejection(ctx context.Context, projectID, userID, id string) error {
	const op = "store.remove_rejection"
	if err := guard(ctx, op); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(projectID, userID)
	seq := s.rejections[k]
	for i, r := range seq {
		if r.ID == id {
			s.rejections[k] = append(seq[:i:i], seq[i+1:]...)
			return nil
		}
	}
	return fault.Wrap(op, fault.NotFound("rejection", id))
}
