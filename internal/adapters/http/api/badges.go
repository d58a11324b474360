package api

import (
	"net/http"
	"strconv"
)

func (s *Server) handleBadgeSummaries(w http.ResponseWriter, r *http.Request) {
	userID, err := s.requestUser(r)
	if err != nil {
		writeFault(w, err)
		return
	}
	version, err := requestVersion(r)
	if err != nil {
		writeFault(w, err)
		return
	}

	badges, err := s.deps.LoadBadgeSummaries(r.Context(), r.PathValue("projectId"), userID, version)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, badges)
}

func (s *Server) handleBadgeSummary(w http.ResponseWriter, r *http.Request) {
	userID, err := s.requestUser(r)
	if err != nil {
		writeFault(w, err)
		return
	}
	version, err := requestVersion(r)
	if err != nil {
		writeFault(w, err)
		return
	}
	global, _ := strconv.ParseBool(r.URL.Query().Get("global"))

	sum, err := s.deps.LoadBadgeSummary(r.Context(),
		r.PathValue("projectId"), r.PathValue("badgeId"), userID, version, global)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleBadgeDescriptions(w http.ResponseWriter, r *http.Request) {
	version, err := requestVersion(r)
	if err != nil {
		writeFault(w, err)
		return
	}
	global, _ := strconv.ParseBool(r.URL.Query().Get("global"))

	descs, err := s.deps.LoadBadgeDescriptions(r.Context(),
		r.PathValue("projectId"), r.PathValue("badgeId"), version, global)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, descs)
}
