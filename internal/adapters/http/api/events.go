package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/ascent/internal/domain/fault"
)

// reportRequest is the optional body of a skill completion report. An
// empty body reports a completion happening now.
type reportRequest struct {
	EventID string `json:"eventId,omitempty"`
	TS      string `json:"performedOn,omitempty"`
}

func (s *Server) handleReportSkill(w http.ResponseWriter, r *http.Request) {
	userID, err := s.requestUser(r)
	if err != nil {
		writeFault(w, err)
		return
	}

	var req reportRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeFault(w, fault.Validation("malformed request body"))
			return
		}
	}
	var ts time.Time
	if req.TS != "" {
		ts, err = time.Parse(time.RFC3339, req.TS)
		if err != nil {
			writeFault(w, fault.Validation("performedOn must be RFC3339"))
			return
		}
	}

	res, err := s.deps.ReportSkill(r.Context(),
		r.PathValue("projectId"), r.PathValue("skillId"), userID, req.EventID, ts)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, res)
}

func (s *Server) handleListRejections(w http.ResponseWriter, r *http.Request) {
	userID, err := s.requestUser(r)
	if err != nil {
		writeFault(w, err)
		return
	}

	rejections, err := s.deps.ListRejections(r.Context(), r.PathValue("projectId"), userID)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rejections)
}

func (s *Server) handleRemoveRejection(w http.ResponseWriter, r *http.Request) {
	userID, err := s.requestUser(r)
	if err != nil {
		writeFault(w, err)
		return
	}

	if err := s.deps.RemoveRejection(r.Context(), r.PathValue("projectId"), userID, r.PathValue("id")); err != nil {
		writeFault(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type clientVersionRequest struct {
	SkillsClientVersion string `json:"skillsClientVersion"`
}

func (s *Server) handleClientVersion(w http.ResponseWriter, r *http.Request) {
	var req clientVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFault(w, fault.Validation("malformed request body"))
		return
	}

	upToDate := s.deps.CompareClientVersion(r.Context(), r.PathValue("projectId"), req.SkillsClientVersion)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true, "upToDate": upToDate})
}

type pageVisitRequest struct {
	Path string `json:"path"`
}

func (s *Server) handlePageVisit(w http.ResponseWriter, r *http.Request) {
	var req pageVisitRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeFault(w, fault.Validation("malformed request body"))
			return
		}
	}
	s.deps.LogPageVisit(r.Context(), req.Path)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleVisitedSkill(w http.ResponseWriter, r *http.Request) {
	userID, err := s.requestUser(r)
	if err != nil {
		writeFault(w, err)
		return
	}

	s.deps.DocumentLastViewedSkill(r.PathValue("projectId"), userID, r.PathValue("skillId"))
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
