package api

import (
	"net/http"
	"strconv"
)

func (s *Server) handleLevel(w http.ResponseWriter, r *http.Request) {
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

	lvl, err := s.deps.LoadUserLevel(r.Context(), r.PathValue("projectId"), userID, version)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"skillsLevel": lvl})
}

func (s *Server) handleOverallSummary(w http.ResponseWriter, r *http.Request) {
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

	sum, err := s.deps.LoadOverallSummary(r.Context(), r.PathValue("projectId"), userID, version)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleSubjectSummary(w http.ResponseWriter, r *http.Request) {
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
	includeSkills, _ := strconv.ParseBool(r.URL.Query().Get("includeSkills"))

	sum, err := s.deps.LoadSubjectSummary(r.Context(),
		r.PathValue("projectId"), r.PathValue("subjectId"), userID, version, includeSkills)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handleSubjectDescriptions(w http.ResponseWriter, r *http.Request) {
	version, err := requestVersion(r)
	if err != nil {
		writeFault(w, err)
		return
	}

	descs, err := s.deps.LoadSubjectDescriptions(r.Context(),
		r.PathValue("projectId"), r.PathValue("subjectId"), version)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, descs)
}

func (s *Server) handleSkillSummary(w http.ResponseWriter, r *http.Request) {
	s.skillSummary(w, r, "", "")
}

func (s *Server) handleSubjectSkillSummary(w http.ResponseWriter, r *http.Request) {
	s.skillSummary(w, r, r.PathValue("subjectId"), "")
}

func (s *Server) handleCrossProjectSkillSummary(w http.ResponseWriter, r *http.Request) {
	s.skillSummary(w, r, "", r.PathValue("crossProjectId"))
}

func (s *Server) skillSummary(w http.ResponseWriter, r *http.Request, subjectID, crossProjectID string) {
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

	sum, err := s.deps.LoadSkillSummary(r.Context(),
		r.PathValue("projectId"), crossProjectID, subjectID, r.PathValue("skillId"), userID, version)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (s *Server) handlePointHistory(w http.ResponseWriter, r *http.Request) {
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

	series, err := s.deps.LoadPointHistory(r.Context(),
		r.PathValue("projectId"), r.PathValue("subjectId"), userID, version)
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func (s *Server) handleDependencies(w http.ResponseWriter, r *http.Request) {
	userID, err := s.requestUser(r)
	if err != nil {
		writeFault(w, err)
		return
	}

	info, err := s.deps.LoadDependencies(r.Context(),
		r.PathValue("projectId"), userID, r.PathValue("skillId"))
	if err != nil {
		writeFault(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
