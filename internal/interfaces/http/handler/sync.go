package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appsync "github.com/erp/amazon-connector/internal/application/sync"
)

// SyncHandler exposes manual sync triggering
type SyncHandler struct {
	BaseHandler
	service *appsync.Service
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(service *appsync.Service) *SyncHandler {
	return &SyncHandler{service: service}
}

// triggerRequest binds the sync trigger path parameters
type triggerRequest struct {
	ID        uuid.UUID `uri:"id" binding:"required"`
	Operation string    `uri:"operation" binding:"required"`
}

// triggerResponse acknowledges an accepted sync trigger
type triggerResponse struct {
	BackendID uuid.UUID `json:"backend_id"`
	Operation string    `json:"operation"`
	Queued    bool      `json:"queued"`
}

// Trigger queues one sync operation for one backend
// POST /backends/:id/sync/:operation
func (h *SyncHandler) Trigger(c *gin.Context) {
	var req triggerRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.service.Trigger(c.Request.Context(), req.ID, req.Operation); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, triggerResponse{
		BackendID: req.ID,
		Operation: req.Operation,
		Queued:    true,
	})
}

// Operations lists the sync operations that can be triggered
// GET /sync/operations
func (h *SyncHandler) Operations(c *gin.Context) {
	h.Success(c, h.service.ScheduledOperations())
}
