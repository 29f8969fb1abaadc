// Package httpapi exposes the control surface over HTTP: a JSON API
// for GUI clients, an SSE event stream, prometheus metrics and a
// health check.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voidlock/gaffer/internal/domain"
	"github.com/voidlock/gaffer/internal/metrics"
	"github.com/voidlock/gaffer/internal/usecase"
)

// UseCases bundles the control-surface operations the server exposes.
type UseCases struct {
	StartAuto     *usecase.StartAuto
	StopAuto      *usecase.StopAuto
	RunFeature    *usecase.RunFeature
	ResumeFeature *usecase.ResumeFeature
	FollowUp      *usecase.FollowUpFeature
	StopFeature   *usecase.StopFeature
	Verify        *usecase.VerifyFeature
	Commit        *usecase.CommitFeature
	Revert        *usecase.RevertFeature
	Merge         *usecase.MergeFeature
	GetStatus     *usecase.GetStatus
	RunningAgents *usecase.GetRunningAgents
	List          *usecase.ListFeatures
	Show          *usecase.ShowFeature
	New           *usecase.NewFeature
	Delete        *usecase.DeleteFeature
}

// Server is the HTTP control surface.
type Server struct {
	router      *mux.Router
	uc          UseCases
	hub         *SSEHub
	logger      domain.Logger
	projectPath string
}

// NewServer creates the server and wires its routes. mets may be nil;
// the /metrics route is then omitted.
func NewServer(uc UseCases, hub *SSEHub, mets *metrics.Metrics, logger domain.Logger, projectPath string) *Server {
	if logger == nil {
		logger = domain.NopLogger{}
	}
	s := &Server{
		router:      mux.NewRouter(),
		uc:          uc,
		hub:         hub,
		logger:      logger,
		projectPath: projectPath,
	}
	s.routes(mets)
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes(mets *metrics.Metrics) {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if mets != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(mets.Registry(), promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	if s.hub != nil {
		s.router.HandleFunc("/api/events", s.hub.ServeHTTP).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	api.HandleFunc("/agents", s.handleAgents).Methods(http.MethodGet)

	api.HandleFunc("/auto/start", s.handleAutoStart).Methods(http.MethodPost)
	api.HandleFunc("/auto/stop", s.handleAutoStop).Methods(http.MethodPost)

	api.HandleFunc("/features", s.handleListFeatures).Methods(http.MethodGet)
	api.HandleFunc("/features", s.handleNewFeature).Methods(http.MethodPost)
	api.HandleFunc("/features/{id}", s.handleShowFeature).Methods(http.MethodGet)
	api.HandleFunc("/features/{id}", s.handleDeleteFeature).Methods(http.MethodDelete)

	api.HandleFunc("/features/{id}/run", s.handleRunFeature).Methods(http.MethodPost)
	api.HandleFunc("/features/{id}/resume", s.handleResumeFeature).Methods(http.MethodPost)
	api.HandleFunc("/features/{id}/follow-up", s.handleFollowUp).Methods(http.MethodPost)
	api.HandleFunc("/features/{id}/stop", s.handleStopFeature).Methods(http.MethodPost)
	api.HandleFunc("/features/{id}/verify", s.handleVerify).Methods(http.MethodPost)
	api.HandleFunc("/features/{id}/commit", s.handleCommit).Methods(http.MethodPost)
	api.HandleFunc("/features/{id}/revert", s.handleRevert).Methods(http.MethodPost)
	api.HandleFunc("/features/{id}/merge", s.handleMerge).Methods(http.MethodPost)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	out, err := s.uc.GetStatus.Execute(r.Context(), usecase.GetStatusInput{})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	out, err := s.uc.RunningAgents.Execute(r.Context(), usecase.GetRunningAgentsInput{})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAutoStart(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MaxConcurrency int `json:"maxConcurrency"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	out, err := s.uc.StartAuto.Execute(r.Context(), usecase.StartAutoInput{
		ProjectPath:    s.projectPath,
		MaxConcurrency: body.MaxConcurrency,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, out)
}

func (s *Server) handleAutoStop(w http.ResponseWriter, r *http.Request) {
	out, err := s.uc.StopAuto.Execute(r.Context(), usecase.StopAutoInput{})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListFeatures(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := s.uc.List.Execute(r.Context(), usecase.ListFeaturesInput{
		Status:   domain.Status(q.Get("status")),
		Category: q.Get("category"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleNewFeature(w http.ResponseWriter, r *http.Request) {
	var body usecase.NewFeatureInput
	if !s.decode(w, r, &body) {
		return
	}
	out, err := s.uc.New.Execute(r.Context(), body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleShowFeature(w http.ResponseWriter, r *http.Request) {
	out, err := s.uc.Show.Execute(r.Context(), usecase.ShowFeatureInput{
		ProjectPath:    s.projectPath,
		FeatureID:      featureID(r),
		TranscriptTail: -1,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteFeature(w http.ResponseWriter, r *http.Request) {
	removeWorktree := r.URL.Query().Get("removeWorktree") == "true"
	out, err := s.uc.Delete.Execute(r.Context(), usecase.DeleteFeatureInput{
		ProjectPath:    s.projectPath,
		FeatureID:      featureID(r),
		RemoveWorktree: removeWorktree,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRunFeature(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NoWorktree bool `json:"noWorktree"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	out, err := s.uc.RunFeature.Execute(r.Context(), usecase.RunFeatureInput{
		ProjectPath: s.projectPath,
		FeatureID:   featureID(r),
		NoWorktree:  body.NoWorktree,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, out)
}

func (s *Server) handleResumeFeature(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NoWorktree bool `json:"noWorktree"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	out, err := s.uc.ResumeFeature.Execute(r.Context(), usecase.ResumeFeatureInput{
		ProjectPath: s.projectPath,
		FeatureID:   featureID(r),
		NoWorktree:  body.NoWorktree,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, out)
}

func (s *Server) handleFollowUp(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Instructions string                   `json:"instructions"`
		Images       []domain.ImageAttachment `json:"images"`
		NoWorktree   bool                     `json:"noWorktree"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	out, err := s.uc.FollowUp.Execute(r.Context(), usecase.FollowUpFeatureInput{
		ProjectPath:  s.projectPath,
		FeatureID:    featureID(r),
		Instructions: body.Instructions,
		Images:       body.Images,
		NoWorktree:   body.NoWorktree,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, out)
}

func (s *Server) handleStopFeature(w http.ResponseWriter, r *http.Request) {
	out, err := s.uc.StopFeature.Execute(r.Context(), usecase.StopFeatureInput{FeatureID: featureID(r)})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, out)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Summary string `json:"summary"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	out, err := s.uc.Verify.Execute(r.Context(), usecase.VerifyFeatureInput{
		FeatureID: featureID(r),
		Summary:   body.Summary,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	out, err := s.uc.Commit.Execute(r.Context(), usecase.CommitFeatureInput{
		ProjectPath: s.projectPath,
		FeatureID:   featureID(r),
		Message:     body.Message,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleRevert(w http.ResponseWriter, r *http.Request) {
	var body struct {
		KeepBranch  bool `json:"keepBranch"`
		KeepContext bool `json:"keepContext"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	out, err := s.uc.Revert.Execute(r.Context(), usecase.RevertFeatureInput{
		ProjectPath: s.projectPath,
		FeatureID:   featureID(r),
		KeepBranch:  body.KeepBranch,
		KeepContext: body.KeepContext,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMerge(w http.ResponseWriter, r *http.Request) {
	var body struct {
		NoFF         bool `json:"noFF"`
		Cleanup      bool `json:"cleanup"`
		DeleteBranch bool `json:"deleteBranch"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	out, err := s.uc.Merge.Execute(r.Context(), usecase.MergeFeatureInput{
		ProjectPath:  s.projectPath,
		FeatureID:    featureID(r),
		NoFF:         body.NoFF,
		Cleanup:      body.Cleanup,
		DeleteBranch: body.DeleteBranch,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// decode reads an optional JSON body. An empty body leaves dst zeroed.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body: "+err.Error()))
		return false
	}
	return true
}

// writeError maps domain sentinels to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrFeatureNotFound), errors.Is(err, domain.ErrContextNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrFeatureRunning),
		errors.Is(err, domain.ErrAutoModeRunning),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrMergeConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrFeatureNotRunning),
		errors.Is(err, domain.ErrAutoModeNotRunning),
		errors.Is(err, domain.ErrEmptyDescription):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("", "http", err.Error())
	}
	writeJSON(w, status, errorBody(err.Error()))
}

func featureID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
