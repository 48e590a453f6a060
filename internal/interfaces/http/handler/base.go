// Package handler contains the gin HTTP handlers for the connector API.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	appsync "github.com/erp/amazon-connector/internal/application/sync"
	"github.com/erp/amazon-connector/internal/domain/connector"
	"github.com/erp/amazon-connector/internal/domain/job"
	"github.com/erp/amazon-connector/internal/domain/listing"
	"github.com/erp/amazon-connector/internal/domain/pricewatch"
	"github.com/erp/amazon-connector/internal/domain/sales"
	"github.com/erp/amazon-connector/internal/interfaces/http/dto"
)

// RequestIDKey is the context key the request ID middleware stores under.
const RequestIDKey = "X-Request-ID"

// BaseHandler provides common response helpers for all handlers
type BaseHandler struct{}

// notFoundErrors map to 404.
var notFoundErrors = []error{
	connector.ErrBackendNotFound,
	connector.ErrCheckpointNotFound,
	sales.ErrOrderNotFound,
	listing.ErrProductNotFound,
	listing.ErrFeedNotFound,
	pricewatch.ErrMessageNotFound,
	job.ErrJobNotFound,
}

// conflictErrors map to 409.
var conflictErrors = []error{
	connector.ErrBackendPrefixTaken,
	sales.ErrOrderDuplicate,
	listing.ErrProductDuplicateSKU,
	appsync.ErrOperationQueued,
}

// validationErrors map to 400.
var validationErrors = []error{
	connector.ErrBackendNameRequired,
	connector.ErrBackendAccessKeyRequired,
	connector.ErrBackendSecretKeyRequired,
	connector.ErrBackendSellerIDRequired,
	connector.ErrBackendTokenRequired,
	connector.ErrBackendRegionInvalid,
	connector.ErrBackendWarehouseRequired,
	connector.ErrBackendMarginInvalid,
	connector.ErrNoMarketplaceBound,
	appsync.ErrUnknownOperation,
	appsync.ErrNotSchedulable,
}

// invalidStateErrors map to 422: the request is well-formed but the backend
// cannot run it in its current configuration.
var invalidStateErrors = []error{
	connector.ErrBackendInactive,
	connector.ErrBackendQueueNotBound,
}

// Success sends a 200 response with data
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a 200 response with data and pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, page, pageSize int, total int64) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, page, pageSize, total))
}

// Created sends a 201 response with data
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends a 400 response with a validation error
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest,
		dto.NewErrorResponse(dto.ErrCodeValidation, message, getRequestID(c)))
}

// HandleError maps a domain error to its HTTP response
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	code := classify(err)
	c.JSON(dto.GetHTTPStatus(code),
		dto.NewErrorResponse(code, err.Error(), getRequestID(c)))
}

// classify resolves a domain error to an API error code
func classify(err error) string {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return dto.ErrCodeNotFound
		}
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return dto.ErrCodeConflict
		}
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return dto.ErrCodeValidation
		}
	}
	for _, target := range invalidStateErrors {
		if errors.Is(err, target) {
			return dto.ErrCodeInvalidState
		}
	}
	return dto.ErrCodeInternal
}

// getRequestID extracts the request ID set by the middleware
func getRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDKey); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
