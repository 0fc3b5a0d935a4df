package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docdesk/internal/domain"
	"docdesk/internal/service"
)

// KeyHandler handles API key management endpoints. The credential mode of the session
// decides which key set is managed.
type KeyHandler struct {
	keys service.KeyService
}

// NewKeyHandler creates a new KeyHandler.
func NewKeyHandler(keys service.KeyService) *KeyHandler {
	return &KeyHandler{keys: keys}
}

type createKeyRequest struct {
	Name string `json:"name" binding:"required"`
}

// List handles GET /api/v1/keys
func (h *KeyHandler) List(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	keys, err := h.keys.List(c.Request.Context(), cc)
	if err != nil {
		HandleError(c, err)
		return
	}
	if keys == nil {
		keys = []domain.APIKey{}
	}
	RespondOK(c, keys)
}

// Create handles POST /api/v1/keys
// The response is the only time the key secret is shown.
func (h *KeyHandler) Create(c *gin.Context) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	var req createKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "name is required")
		return
	}
	created, err := h.keys.Create(c.Request.Context(), cc, req.Name)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondCreated(c, created)
}

// Revoke handles POST /api/v1/keys/:id/revoke
func (h *KeyHandler) Revoke(c *gin.Context) {
	h.setActive(c, false)
}

// Activate handles POST /api/v1/keys/:id/activate
func (h *KeyHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

func (h *KeyHandler) setActive(c *gin.Context, active bool) {
	cc, ok := clientContext(c)
	if !ok {
		return
	}
	id := c.Param("id")

	var err error
	if active {
		err = h.keys.Activate(c.Request.Context(), cc, id)
	} else {
		err = h.keys.Revoke(c.Request.Context(), cc, id)
	}
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, gin.H{"id": id, "active": active})
}
