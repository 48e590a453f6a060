package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/erp/amazon-connector/internal/domain/job"
	"github.com/erp/amazon-connector/internal/interfaces/http/dto"
)

// JobHandler exposes read access to the job queue
type JobHandler struct {
	BaseHandler
	jobs job.Repository
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(jobs job.Repository) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// JobResponse represents a queue job in API responses
type JobResponse struct {
	ID          uuid.UUID  `json:"id"`
	BackendID   uuid.UUID  `json:"backend_id"`
	Operation   string     `json:"operation"`
	Status      string     `json:"status"`
	Priority    int        `json:"priority"`
	ETA         time.Time  `json:"eta"`
	Retries     int        `json:"retries"`
	MaxRetries  int        `json:"max_retries"`
	LastError   string     `json:"last_error,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// listJobsRequest binds job listing query parameters
type listJobsRequest struct {
	dto.ListRequest
	BackendID uuid.UUID `form:"backend_id"`
}

func toJobResponse(j *job.Job) JobResponse {
	return JobResponse{
		ID:          j.ID,
		BackendID:   j.BackendID,
		Operation:   j.Operation,
		Status:      string(j.Status),
		Priority:    j.Priority,
		ETA:         j.ETA,
		Retries:     j.Retries,
		MaxRetries:  j.MaxRetries,
		LastError:   j.LastError,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
		CreatedAt:   j.CreatedAt,
	}
}

// List returns queue jobs, newest first, optionally filtered by backend
// GET /jobs
func (h *JobHandler) List(c *gin.Context) {
	req := listJobsRequest{ListRequest: dto.DefaultListRequest()}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	req.Normalize()

	jobs, total, err := h.jobs.List(c.Request.Context(), req.BackendID,
		req.PageSize, (req.Page-1)*req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]JobResponse, len(jobs))
	for i, j := range jobs {
		responses[i] = toJobResponse(j)
	}
	h.SuccessWithMeta(c, responses, req.Page, req.PageSize, total)
}

// Get retrieves one queue job
// GET /jobs/:id
func (h *JobHandler) Get(c *gin.Context) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	j, err := h.jobs.FindByID(c.Request.Context(), req.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toJobResponse(j))
}
