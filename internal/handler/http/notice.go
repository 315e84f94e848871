package http

import (
	"net/http"

	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/internal/notify"
	"github.com/Abdoul93230/kassarmou-mobile-client-sub000/pkg/httputil"
)

// NoticeHandler hands pending notices to the shell.
type NoticeHandler struct {
	inbox *notify.Inbox
}

// NewNoticeHandler creates a new notice HTTP handler.
func NewNoticeHandler(inbox *notify.Inbox) *NoticeHandler {
	return &NoticeHandler{inbox: inbox}
}

// Drain handles GET /api/v1/notices. Each notice is delivered once.
func (h *NoticeHandler) Drain(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, http.StatusOK, h.inbox.Drain())
}
