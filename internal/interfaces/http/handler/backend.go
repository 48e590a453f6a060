package handler

import (
	"github.com/gin-gonic/gin"

	appconnector "github.com/erp/amazon-connector/internal/application/connector"
	"github.com/erp/amazon-connector/internal/interfaces/http/dto"
)

// BackendHandler handles seller account configuration endpoints
type BackendHandler struct {
	BaseHandler
	service *appconnector.BackendService
}

// NewBackendHandler creates a new BackendHandler
func NewBackendHandler(service *appconnector.BackendService) *BackendHandler {
	return &BackendHandler{service: service}
}

// Create registers a new seller account
// POST /backends
func (h *BackendHandler) Create(c *gin.Context) {
	var req appconnector.CreateBackendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	backend, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, backend)
}

// Get retrieves a backend
// GET /backends/:id
func (h *BackendHandler) Get(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	backend, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, backend)
}

// List retrieves backends with pagination
// GET /backends
func (h *BackendHandler) List(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	backends, total, err := h.service.List(c.Request.Context(), req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, backends, req.Page, req.PageSize, total)
}

// Update applies a partial update to a backend
// PUT /backends/:id
func (h *BackendHandler) Update(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	var req appconnector.UpdateBackendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	backend, err := h.service.Update(c.Request.Context(), uri.ID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, backend)
}

// Delete removes a backend
// DELETE /backends/:id
func (h *BackendHandler) Delete(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.service.Delete(c.Request.Context(), req.ID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Activate puts a backend back into scheduler fan-out
// POST /backends/:id/activate
func (h *BackendHandler) Activate(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.service.Activate(c.Request.Context(), req.ID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Deactivate removes a backend from scheduler fan-out
// POST /backends/:id/deactivate
func (h *BackendHandler) Deactivate(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), req.ID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListCheckpoints returns unresolved review records for a backend
// GET /backends/:id/checkpoints
func (h *BackendHandler) ListCheckpoints(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	checkpoints, total, err := h.service.ListCheckpoints(c.Request.Context(), uri.ID, req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, checkpoints, req.Page, req.PageSize, total)
}

// ResolveCheckpoint marks a review record as handled
// POST /checkpoints/:id/resolve
func (h *BackendHandler) ResolveCheckpoint(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.service.ResolveCheckpoint(c.Request.Context(), req.ID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// DiscoverShippingTemplates records newly seen shipping templates and
// returns the full list
// POST /backends/:id/shipping-templates/discover
func (h *BackendHandler) DiscoverShippingTemplates(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	templates, err := h.service.DiscoverShippingTemplates(c.Request.Context(), req.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, templates)
}

// Marketplaces returns the catalogue of supported marketplaces
// GET /marketplaces
func (h *BackendHandler) Marketplaces(c *gin.Context) {
	h.Success(c, h.service.Marketplaces())
}
