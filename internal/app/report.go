package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/okian/ascent/internal/domain/catalog"
	"github.com/okian/ascent/internal/domain/fault"
	"github.com/okian/ascent/internal/domain/model"
	"github.com/okian/ascent/pkg/logger"
	"github.com/okian/ascent/pkg/metrics"
)

// ErrQueueFull signals reporting backpressure; the HTTP layer answers
// 429 and the client retries.
var ErrQueueFull = errors.New("event queue full")

// Report statuses returned by ReportSkill.
const (
	ReportEnqueued  = "enqueued"
	ReportDuplicate = "duplicate"
)

// ReportResult acknowledges a skill completion report.
type ReportResult struct {
	EventID string `json:"eventId"`
	Status  string `json:"status"`
}

// ReportSkill accepts a skill completion for asynchronous application.
// The event id is the idempotency key; reports without one get a
// generated id. A full queue rolls back the dedupe record and fails with
// ErrQueueFull so the transport can answer with backpressure.
func (s *Service) ReportSkill(ctx context.Context, projectID, skillID, userID, eventID string, ts time.Time) (ReportResult, error) {
	const op = "service.report_skill"

	if eventID == "" {
		eventID = uuid.NewString()
	}
	if ts.IsZero() {
		ts = s.now()
	}

	if s.deduper.SeenAndRecord(ctx, eventID) {
		metrics.RecordEventDuplicate()
		return ReportResult{EventID: eventID, Status: ReportDuplicate}, nil
	}

	ev := model.SkillEvent{
		EventID:   eventID,
		ProjectID: projectID,
		UserID:    userID,
		SkillID:   skillID,
		TS:        ts.UTC(),
	}
	if !s.queue.Enqueue(ctx, ev) {
		s.deduper.Unrecord(ctx, eventID)
		return ReportResult{}, fault.Wrap(op, ErrQueueFull)
	}
	return ReportResult{EventID: eventID, Status: ReportEnqueued}, nil
}

// Apply validates one reported event against the default catalog view and
// persists it. Unknown projects and skills become rejection records the
// user can review and dismiss; they are not apply errors. Called by the
// worker pool.
func (s *Service) Apply(ctx context.Context, ev model.SkillEvent) error {
	const op = "service.apply"

	view, err := s.resolveView(ctx, ev.ProjectID, catalog.DefaultVersion)
	if err != nil {
		if isRejectable(err) {
			return s.reject(ctx, ev, "unknown project "+ev.ProjectID)
		}
		return fault.Wrap(op, err)
	}
	skill, ok := view.Skill(ev.SkillID)
	if !ok {
		return s.reject(ctx, ev, "unknown skill "+ev.SkillID)
	}

	if ev.Points == 0 {
		ev.Points = skill.PointIncrement
	}

	lock := s.applyLock(ev.ProjectID, ev.UserID)
	lock.Lock()
	defer lock.Unlock()

	fctx, cancel := s.fetchCtx(ctx)
	defer cancel()
	if err := s.eventStore.Append(fctx, ev); err != nil {
		return fault.Wrap(op, err)
	}
	if err := s.refreshRank(ctx, ev.ProjectID, ev.UserID); err != nil {
		return fault.Wrap(op, err)
	}
	metrics.RecordEventApplied()
	return nil
}

// isRejectable reports whether an apply failure should turn into a
// rejection record rather than a retryable error.
func isRejectable(err error) bool {
	return errors.Is(err, fault.ErrNotFound) || errors.Is(err, fault.ErrValidation)
}

func (s *Service) reject(ctx context.Context, ev model.SkillEvent, reason string) error {
	const op = "service.reject"
	metrics.RecordEventRejected()

	s.log.Warn(ctx, "rejecting reported event",
		logger.String("event_id", ev.EventID),
		logger.String("project_id", ev.ProjectID),
		logger.String("reason", reason),
	)

	fctx, cancel := s.fetchCtx(ctx)
	defer cancel()
	err := s.eventStore.AddRejection(fctx, model.Rejection{
		ID:        ev.EventID,
		ProjectID: ev.ProjectID,
		UserID:    ev.UserID,
		SkillID:   ev.SkillID,
		Reason:    reason,
		TS:        s.now().UTC(),
	})
	return fault.Wrap(op, err)
}

// ListRejections returns a user's pending rejection records.
func (s *Service) ListRejections(ctx context.Context, projectID, userID string) ([]model.Rejection, error) {
	const op = "service.list_rejections"

	fctx, cancel := s.fetchCtx(ctx)
	defer cancel()
	out, err := s.eventStore.Rejections(fctx, projectID, userID)
	if err != nil {
		return nil, fault.Wrap(op, err)
	}
	return out, nil
}

// RemoveRejection dismisses one rejection record.
func (s *Service) RemoveRejection(ctx context.Context, projectID, userID, id string) error {
	const op = "service.remove_rejection"

	fctx, cancel := s.fetchCtx(ctx)
	defer cancel()
	return fault.Wrap(op, s.eventStore.RemoveRejection(fctx, projectID, userID, id))
}

// CompareClientVersion reports whether the client build matches the one
// the server expects, logging mismatches for operators. An unset expected
// version accepts everything.
func (s *Service) CompareClientVersion(ctx context.Context, projectID, reported string) bool {
	if s.expectedClientV == "" || reported == s.expectedClientV {
		return true
	}
	s.log.Warn(ctx, "client version mismatch",
		logger.String("project_id", projectID),
		logger.String("reported", reported),
		logger.String("expected", s.expectedClientV),
	)
	return false
}

// LogPageVisit records a client page visit for usage analysis.
func (s *Service) LogPageVisit(ctx context.Context, path string) {
	s.log.Info(ctx, "page visit", logger.String("path", path))
}

// DocumentLastViewedSkill remembers the skill a user looked at last so
// the client can restore its position.
func (s *Service) DocumentLastViewedSkill(projectID, userID, skillID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastViewed[projectID+"|"+userID] = skillID
}

// LastViewedSkill returns the skill a user looked at last, if any.
func (s *Service) LastViewedSkill(projectID, userID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.lastViewed[projectID+"|"+userID]
	return id, ok
}
