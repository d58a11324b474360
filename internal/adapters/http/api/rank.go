package api

import "net/http"

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	userID, err := s.requestUser(r)
	if err != nil {
		writeFault(w, err)
		return
	}

	standing, err := s.deps.Rank(r.Context(), r.PathValue("projectId"), r.PathValue("subjectId"), userID)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, standing)
}

func (s *Server) handleRankDistribution(w http.ResponseWriter, r *http.Request) {
	userID, err := s.requestUser(r)
	if err != nil {
		writeFault(w, err)
		return
	}

	dist, err := s.deps.RankDistribution(r.Context(), r.PathValue("projectId"), r.PathValue("subjectId"), userID)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dist)
}

func (s *Server) handleUsersPerLevel(w http.ResponseWriter, r *http.Request) {
	counts, err := s.deps.UsersPerLevel(r.Context(), r.PathValue("projectId"), r.PathValue("subjectId"))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	userID, err := s.requestUser(r)
	if err != nil {
		writeFault(w, err)
		return
	}

	page, err := s.deps.Leaderboard(r.Context(),
		r.PathValue("projectId"), r.PathValue("subjectId"), userID, r.URL.Query().Get("type"))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
