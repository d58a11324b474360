package service

import (
	"context"

	"github.com/okian/ascent/internal/domain/catalog"
	"github.com/okian/ascent/internal/domain/fault"
	"github.com/okian/ascent/internal/domain/ranking"
)

// Rank returns a user's ordinal position in a project or subject scope.
func (s *Service) Rank(ctx context.Context, projectID, subjectID, userID string) (ranking.Standing, error) {
	const op = "service.rank"

	if err := s.checkScope(ctx, projectID, subjectID); err != nil {
		return ranking.Standing{}, fault.Wrap(op, err)
	}
	return s.ranks.Standing(ranking.Scope{ProjectID: projectID, SubjectID: subjectID}, userID), nil
}

// RankDistribution situates a user against the scope's level table and
// the next user above them.
func (s *Service) RankDistribution(ctx context.Context, projectID, subjectID, userID string) (ranking.Distribution, error) {
	const op = "service.rank_distribution"

	view, err := s.resolveView(ctx, projectID, catalog.DefaultVersion)
	if err != nil {
		return ranking.Distribution{}, fault.Wrap(op, err)
	}
	if subjectID != "" {
		if _, ok := view.Subject(subjectID); !ok {
			return ranking.Distribution{}, fault.Wrap(op, fault.NotFound("subject", subjectID))
		}
	}
	scope := ranking.Scope{ProjectID: projectID, SubjectID: subjectID}
	return s.ranks.Distribution(scope, userID, view.LevelsFor(subjectID)), nil
}

// UsersPerLevel counts ranked users at each level of a scope.
func (s *Service) UsersPerLevel(ctx context.Context, projectID, subjectID string) ([]ranking.LevelCount, error) {
	const op = "service.users_per_level"

	view, err := s.resolveView(ctx, projectID, catalog.DefaultVersion)
	if err != nil {
		return nil, fault.Wrap(op, err)
	}
	if subjectID != "" {
		if _, ok := view.Subject(subjectID); !ok {
			return nil, fault.Wrap(op, fault.NotFound("subject", subjectID))
		}
	}
	scope := ranking.Scope{ProjectID: projectID, SubjectID: subjectID}
	return s.ranks.UsersPerLevel(scope, view.LevelsFor(subjectID)), nil
}

// Leaderboard returns a page of ranked users for a scope.
func (s *Service) Leaderboard(ctx context.Context, projectID, subjectID, userID, mode string) (ranking.Page, error) {
	const op = "service.leaderboard"

	if err := s.checkScope(ctx, projectID, subjectID); err != nil {
		return ranking.Page{}, fault.Wrap(op, err)
	}
	scope := ranking.Scope{ProjectID: projectID, SubjectID: subjectID}
	page, err := s.ranks.Leaderboard(scope, userID, mode, s.leaderboardSize)
	if err != nil {
		return ranking.Page{}, fault.Wrap(op, err)
	}
	return page, nil
}

// checkScope validates that the project, and subject when given, exist.
func (s *Service) checkScope(ctx context.Context, projectID, subjectID string) error {
	view, err := s.resolveView(ctx, projectID, catalog.DefaultVersion)
	if err != nil {
		return err
	}
	if subjectID != "" {
		if _, ok := view.Subject(subjectID); !ok {
			return fault.NotFound("subject", subjectID)
		}
	}
	return nil
}
