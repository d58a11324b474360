// Package api exposes the progress engine over HTTP. Handlers stay thin:
// they resolve the request user, parse parameters, call the service
// facade, and map the error taxonomy to status codes.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/okian/ascent/internal/adapters/identity"
	service "github.com/okian/ascent/internal/app"
	"github.com/okian/ascent/internal/domain/badge"
	"github.com/okian/ascent/internal/domain/catalog"
	"github.com/okian/ascent/internal/domain/depgraph"
	"github.com/okian/ascent/internal/domain/fault"
	"github.com/okian/ascent/internal/domain/history"
	"github.com/okian/ascent/internal/domain/model"
	"github.com/okian/ascent/internal/domain/ranking"
)

// Dependencies is the service surface the handlers depend on.
type Dependencies interface {
	LoadUserLevel(ctx context.Context, projectID, userID string, version int) (int, error)
	LoadOverallSummary(ctx context.Context, projectID, userID string, version int) (service.OverallSummary, error)
	LoadSubjectSummary(ctx context.Context, projectID, subjectID, userID string, version int, includeSkills bool) (service.SubjectSummary, error)
	LoadSubjectDescriptions(ctx context.Context, projectID, subjectID string, version int) ([]service.Description, error)
	LoadSkillSummary(ctx context.Context, projectID, crossProjectID, subjectID, skillID, userID string, version int) (service.SkillSummary, error)
	LoadPointHistory(ctx context.Context, projectID, subjectID, userID string, version int) (history.Series, error)
	LoadDependencies(ctx context.Context, projectID, userID, skillID string) (depgraph.Info, error)
	LoadBadgeSummaries(ctx context.Context, projectID, userID string, version int) ([]badge.Summary, error)
	LoadBadgeSummary(ctx context.Context, projectID, badgeID, userID string, version int, global bool) (badge.Summary, error)
	LoadBadgeDescriptions(ctx context.Context, projectID, badgeID string, version int, global bool) ([]service.Description, error)

	ReportSkill(ctx context.Context, projectID, skillID, userID, eventID string, ts time.Time) (service.ReportResult, error)
	ListRejections(ctx context.Context, projectID, userID string) ([]model.Rejection, error)
	RemoveRejection(ctx context.Context, projectID, userID, id string) error

	Rank(ctx context.Context, projectID, subjectID, userID string) (ranking.Standing, error)
	RankDistribution(ctx context.Context, projectID, subjectID, userID string) (ranking.Distribution, error)
	UsersPerLevel(ctx context.Context, projectID, subjectID string) ([]ranking.LevelCount, error)
	Leaderboard(ctx context.Context, projectID, subjectID, userID, mode string) (ranking.Page, error)

	CompareClientVersion(ctx context.Context, projectID, reported string) bool
	LogPageVisit(ctx context.Context, path string)
	DocumentLastViewedSkill(projectID, userID, skillID string)
	GetStats() map[string]any
}

// Server wires the HTTP routes for the progress API.
type Server struct {
	deps     Dependencies
	identity *identity.Resolver
}

// NewServer constructs a Server.
func NewServer(deps Dependencies, ids *identity.Resolver) *Server {
	return &Server{deps: deps, identity: ids}
}

// Register attaches all routes to mux. Patterns use method and wildcard
// matching; the most specific pattern wins on overlap.
func (s *Server) Register(mux *http.ServeMux) {
	get := func(pattern string, h http.HandlerFunc, name string) {
		mux.HandleFunc("GET "+pattern, MetricsMiddleware(h, name))
	}
	post := func(pattern string, h http.HandlerFunc, name string) {
		mux.HandleFunc("POST "+pattern, MetricsMiddleware(h, name))
		mux.HandleFunc("PUT "+pattern, MetricsMiddleware(h, name))
	}

	get("/api/projects/{projectId}/level", s.handleLevel, "level")
	get("/api/projects/{projectId}/summary", s.handleOverallSummary, "summary")
	get("/api/projects/{projectId}/subjects/{subjectId}/summary", s.handleSubjectSummary, "subject_summary")
	get("/api/projects/{projectId}/subjects/{subjectId}/descriptions", s.handleSubjectDescriptions, "subject_descriptions")
	get("/api/projects/{projectId}/skills/{skillId}/summary", s.handleSkillSummary, "skill_summary")
	get("/api/projects/{projectId}/subjects/{subjectId}/skills/{skillId}/summary", s.handleSubjectSkillSummary, "subject_skill_summary")
	get("/api/projects/{projectId}/projects/{crossProjectId}/skills/{skillId}/summary", s.handleCrossProjectSkillSummary, "cross_project_skill_summary")

	get("/api/projects/{projectId}/badges/summary", s.handleBadgeSummaries, "badges_summary")
	get("/api/projects/{projectId}/badges/{badgeId}/summary", s.handleBadgeSummary, "badge_summary")
	get("/api/projects/{projectId}/badges/{badgeId}/descriptions", s.handleBadgeDescriptions, "badge_descriptions")

	get("/api/projects/{projectId}/pointHistory", s.handlePointHistory, "point_history")
	get("/api/projects/{projectId}/subjects/{subjectId}/pointHistory", s.handlePointHistory, "subject_point_history")

	get("/api/projects/{projectId}/skills/{skillId}/dependencies", s.handleDependencies, "dependencies")
	post("/api/projects/{projectId}/skills/{skillId}", s.handleReportSkill, "report_skill")

	get("/api/projects/{projectId}/rank", s.handleRank, "rank")
	get("/api/projects/{projectId}/subjects/{subjectId}/rank", s.handleRank, "subject_rank")
	get("/api/projects/{projectId}/rankDistribution", s.handleRankDistribution, "rank_distribution")
	get("/api/projects/{projectId}/subjects/{subjectId}/rankDistribution", s.handleRankDistribution, "subject_rank_distribution")
	get("/api/projects/{projectId}/rankDistribution/usersPerLevel", s.handleUsersPerLevel, "users_per_level")
	get("/api/projects/{projectId}/subjects/{subjectId}/rankDistribution/usersPerLevel", s.handleUsersPerLevel, "subject_users_per_level")
	get("/api/projects/{projectId}/leaderboard", s.handleLeaderboard, "leaderboard")
	get("/api/projects/{projectId}/subjects/{subjectId}/leaderboard", s.handleLeaderboard, "subject_leaderboard")

	get("/api/projects/{projectId}/rejections", s.handleListRejections, "rejections")
	mux.HandleFunc("DELETE /api/projects/{projectId}/rejections/{id}", MetricsMiddleware(s.handleRemoveRejection, "remove_rejection"))

	post("/api/projects/{projectId}/skillsClientVersion", s.handleClientVersion, "client_version")
	post("/api/pageVisit", s.handlePageVisit, "page_visit")
	post("/api/projects/{projectId}/skills/visited/{skillId}", s.handleVisitedSkill, "visited_skill")

	get("/api/stats", s.handleStats, "stats")
}

type errorResponse struct {
	Code    string `json:"errorCode"`
	Message string `json:"explanation"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeFault maps the engine error taxonomy to HTTP statuses.
func writeFault(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fault.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Code: "not_found", Message: err.Error()})
	case errors.Is(err, fault.ErrAuthorization):
		writeJSON(w, http.StatusForbidden, errorResponse{Code: "forbidden", Message: err.Error()})
	case errors.Is(err, fault.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Message: err.Error()})
	case errors.Is(err, fault.ErrUpstreamTimeout):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Code: "upstream_timeout", Message: err.Error()})
	case errors.Is(err, service.ErrQueueFull):
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Code: "backpressure", Message: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "internal_error", Message: err.Error()})
	}
}

// requestUser resolves the optional userId/idType query parameters to the
// canonical user the request is about.
func (s *Server) requestUser(r *http.Request) (string, error) {
	q := r.URL.Query()
	return s.identity.Resolve(r.Context(), q.Get("userId"), q.Get("idType"))
}

// requestVersion parses the optional version query parameter, defaulting
// to the project's own default version.
func requestVersion(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("version")
	if raw == "" {
		return catalog.DefaultVersion, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fault.Validation("version must be an integer")
	}
	return v, nil
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.GetStats())
}
