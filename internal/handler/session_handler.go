package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docdesk/internal/domain"
	"docdesk/internal/env"
	"docdesk/internal/service"
)

// SessionHandler handles credential, cache and notice endpoints of the local session.
type SessionHandler struct {
	jobs      service.JobLifecycle
	batches   service.BatchLifecycle
	sessionID string
	onReset   func()
}

// NewSessionHandler creates a new SessionHandler. onReset, when set, runs after the cache
// is cleared so other handlers can drop their poll state.
func NewSessionHandler(jobs service.JobLifecycle, batches service.BatchLifecycle, sessionID string, onReset func()) *SessionHandler {
	return &SessionHandler{jobs: jobs, batches: batches, sessionID: sessionID, onReset: onReset}
}

// SessionInfo describes the credential mode and target of the current session.
// Secrets are never returned.
type SessionInfo struct {
	SessionID   string                `json:"session_id"`
	BaseURL     string                `json:"base_url"`
	Mode        domain.CredentialMode `json:"mode"`
	HasAPIKey   bool                  `json:"has_api_key"`
	LastViewed  string                `json:"last_viewed,omitempty"`
	NoticeCount int                   `json:"notice_count"`
}

type setAPIKeyRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

type enableAdminRequest struct {
	Token string `json:"token" binding:"required"`
}

// Get handles GET /api/v1/session
func (h *SessionHandler) Get(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	info := SessionInfo{
		SessionID:  h.sessionID,
		Mode:       cc.Credentials.Mode(ctx),
		HasAPIKey:  cc.Credentials.HasStoredKey(ctx),
		LastViewed: cc.Cache.LastViewed(ctx),
	}
	if cc.Environment != nil {
		info.BaseURL = env.Resolve(cc.Environment())
	}
	if cc.Notices != nil {
		info.NoticeCount = len(cc.Notices.List())
	}
	RespondOK(c, info)
}

// SetAPIKey handles PUT /api/v1/session/api-key
func (h *SessionHandler) SetAPIKey(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	var req setAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "api_key is required")
		return
	}
	if err := cc.Credentials.SetAPIKey(c.Request.Context(), req.APIKey); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"has_api_key": true})
}

// ClearAPIKey handles DELETE /api/v1/session/api-key
func (h *SessionHandler) ClearAPIKey(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	if err := cc.Credentials.ClearAPIKey(c.Request.Context()); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"has_api_key": false})
}

// EnableAdmin handles POST /api/v1/session/admin
func (h *SessionHandler) EnableAdmin(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	var req enableAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "token is required")
		return
	}
	if err := cc.Credentials.EnableAdminMode(c.Request.Context(), req.Token); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"mode": domain.ModeAdmin})
}

// DisableAdmin handles DELETE /api/v1/session/admin
func (h *SessionHandler) DisableAdmin(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	if err := cc.Credentials.DisableAdminMode(c.Request.Context()); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"mode": domain.ModeNormal})
}

// ClearCache handles DELETE /api/v1/cache
// Stops every poll before the snapshots are removed so no loop writes them back.
func (h *SessionHandler) ClearCache(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	h.jobs.StopAll()
	h.batches.StopAll()
	cc.Cache.Invalidate(c.Request.Context())
	if h.onReset != nil {
		h.onReset()
	}
	RespondOK(c, gin.H{"cleared": true})
}

// Notices handles GET /api/v1/notices
func (h *SessionHandler) Notices(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	notices := []domain.Notice{}
	if cc.Notices != nil {
		notices = cc.Notices.List()
	}
	RespondOK(c, notices)
}

// ClearNotices handles DELETE /api/v1/notices
func (h *SessionHandler) ClearNotices(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	if cc.Notices != nil {
		cc.Notices.Clear()
	}
	RespondOK(c, gin.H{"cleared": true})
}
