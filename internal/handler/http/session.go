package http

import (
	"log/slog"
	"net/http"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/domain"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/service"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/httputil"
)

// SessionHandler handles sign-in, registration and sign-out.
type SessionHandler struct {
	service *service.SessionService
	logger  *slog.Logger
}

// NewSessionHandler creates a new session HTTP handler.
func NewSessionHandler(svc *service.SessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{service: svc, logger: logger}
}

// sessionView never exposes the token to the shell.
type sessionView struct {
	SignedIn bool   `json:"signed_in"`
	UserID   string `json:"user_id,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
}

func viewOf(s *domain.Session) sessionView {
	if !s.Authenticated() {
		return sessionView{}
	}
	return sessionView{SignedIn: true, UserID: s.UserID, Name: s.Name, Email: s.Email}
}

// Current handles GET /api/v1/session
func (h *SessionHandler) Current(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, viewOf(h.service.Current()))
}

// Login handles POST /api/v1/session/login
func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.Credentials
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	sess, err := h.service.Login(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, viewOf(sess))
}

// Register handles POST /api/v1/session/register
func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.Registration
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	sess, err := h.service.Register(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, viewOf(sess))
}

// Logout handles DELETE /api/v1/session
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
