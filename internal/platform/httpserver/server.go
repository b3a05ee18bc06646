package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	dispatchservice "herald/contexts/outreach/dispatch-service"
	dispatcherrors "herald/contexts/outreach/dispatch-service/domain/errors"
	dispatchhttp "herald/contexts/outreach/dispatch-service/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "herald/internal/platform/httpserver/docs"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	dispatch dispatchservice.Module
}

func New(dispatchModule dispatchservice.Module, logger *slog.Logger, addr string) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		dispatch: dispatchModule,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/outreach/campaigns", s.handleCreateCampaign)
	s.mux.HandleFunc("GET /v1/outreach/campaigns", s.handleListCampaigns)
	s.mux.HandleFunc("GET /v1/outreach/campaigns/{campaign_id}", s.handleGetCampaign)
	s.mux.HandleFunc("POST /v1/outreach/campaigns/{campaign_id}/start", s.handleStartCampaign)
	s.mux.HandleFunc("POST /v1/outreach/campaigns/{campaign_id}/pause", s.handlePauseCampaign)
	s.mux.HandleFunc("GET /v1/outreach/campaigns/{campaign_id}/progress", s.handleGetProgress)
	s.mux.HandleFunc("GET /v1/outreach/campaigns/{campaign_id}/results", s.handleListResults)

	s.mux.HandleFunc("POST /v1/outreach/sessions", s.handleRegisterSession)
	s.mux.HandleFunc("GET /v1/outreach/sessions", s.handleListSessions)
	s.mux.HandleFunc("POST /v1/outreach/sessions/{session_id}/deactivate", s.handleDeactivateSession)

	s.mux.HandleFunc("POST /v1/outreach/groups/{group_id}/members", s.handleImportMembers)
}

func (s *Server) handleCreateCampaign(w http.ResponseWriter, r *http.Request) {
	teamID := resolveTeamID(r)
	if teamID == "" {
		writeDispatchError(w, http.StatusUnauthorized, "missing_team", "X-Team-Id header is required")
		return
	}

	var req dispatchhttp.CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDispatchError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.dispatch.Handler.CreateCampaignHandler(r.Context(), teamID, req)
	if err != nil {
		writeDispatchDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListCampaigns(w http.ResponseWriter, r *http.Request) {
	teamID := resolveTeamID(r)
	if teamID == "" {
		writeDispatchError(w, http.StatusUnauthorized, "missing_team", "X-Team-Id header is required")
		return
	}

	resp, err := s.dispatch.Handler.ListCampaignsHandler(r.Context(), teamID, r.URL.Query().Get("status"))
	if err != nil {
		writeDispatchDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID := r.PathValue("campaign_id")
	resp, err := s.dispatch.Handler.GetCampaignHandler(r.Context(), campaignID)
	if err != nil {
		writeDispatchDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStartCampaign(w http.ResponseWriter, r *http.Request) {
	var req dispatchhttp.StartCampaignRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDispatchError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
			return
		}
	}

	campaignID := r.PathValue("campaign_id")
	resp, err := s.dispatch.Handler.StartCampaignHandler(r.Context(), campaignID, req)
	if err != nil {
		writeDispatchDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, resp)
}

func (s *Server) handlePauseCampaign(w http.ResponseWriter, r *http.Request) {
	campaignID := r.PathValue("campaign_id")
	if err := s.dispatch.Handler.PauseCampaignHandler(r.Context(), campaignID); err != nil {
		writeDispatchDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dispatchhttp.StartCampaignResponse{
		CampaignID: campaignID,
		Status:     "paused",
	})
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	campaignID := r.PathValue("campaign_id")
	resp, err := s.dispatch.Handler.GetProgressHandler(r.Context(), campaignID)
	if err != nil {
		writeDispatchDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	campaignID := r.PathValue("campaign_id")
	resp, err := s.dispatch.Handler.ListResultsHandler(r.Context(), campaignID)
	if err != nil {
		writeDispatchDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegisterSession(w http.ResponseWriter, r *http.Request) {
	teamID := resolveTeamID(r)
	if teamID == "" {
		writeDispatchError(w, http.StatusUnauthorized, "missing_team", "X-Team-Id header is required")
		return
	}

	var req dispatchhttp.RegisterSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDispatchError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.dispatch.Handler.RegisterSessionHandler(r.Context(), teamID, req)
	if err != nil {
		writeDispatchDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	teamID := resolveTeamID(r)
	if teamID == "" {
		writeDispatchError(w, http.StatusUnauthorized, "missing_team", "X-Team-Id header is required")
		return
	}

	activeOnly := r.URL.Query().Get("active") == "true"
	resp, err := s.dispatch.Handler.ListSessionsHandler(r.Context(), teamID, activeOnly)
	if err != nil {
		writeDispatchDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeactivateSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")
	if err := s.dispatch.Handler.DeactivateSessionHandler(r.Context(), sessionID); err != nil {
		writeDispatchDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleImportMembers(w http.ResponseWriter, r *http.Request) {
	var req dispatchhttp.ImportMembersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDispatchError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	groupID := r.PathValue("group_id")
	resp, err := s.dispatch.Handler.ImportMembersHandler(r.Context(), groupID, req)
	if err != nil {
		writeDispatchDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeDispatchDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dispatcherrors.ErrCampaignNotFound):
		writeDispatchError(w, http.StatusNotFound, "campaign_not_found", err.Error())
	case errors.Is(err, dispatcherrors.ErrSessionNotFound):
		writeDispatchError(w, http.StatusNotFound, "session_not_found", err.Error())
	case errors.Is(err, dispatcherrors.ErrInvalidCampaignInput):
		writeDispatchError(w, http.StatusBadRequest, "invalid_campaign_input", err.Error())
	case errors.Is(err, dispatcherrors.ErrInvalidSessionInput):
		writeDispatchError(w, http.StatusBadRequest, "invalid_session_input", err.Error())
	case errors.Is(err, dispatcherrors.ErrInvalidMemberInput):
		writeDispatchError(w, http.StatusBadRequest, "invalid_member_input", err.Error())
	case errors.Is(err, dispatcherrors.ErrCampaignAlreadyRunning):
		writeDispatchError(w, http.StatusConflict, "campaign_already_running", err.Error())
	case errors.Is(err, dispatcherrors.ErrCampaignCompleted):
		writeDispatchError(w, http.StatusConflict, "campaign_completed", err.Error())
	case errors.Is(err, dispatcherrors.ErrInvalidStateTransition):
		writeDispatchError(w, http.StatusConflict, "invalid_state_transition", err.Error())
	case errors.Is(err, dispatcherrors.ErrSessionsUnavailable):
		writeDispatchError(w, http.StatusUnprocessableEntity, "sessions_unavailable", err.Error())
	default:
		writeDispatchError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeDispatchError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, dispatchhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func resolveTeamID(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Team-Id"))
}
