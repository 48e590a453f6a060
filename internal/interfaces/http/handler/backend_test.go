package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appconnector "github.com/erp/amazon-connector/internal/application/connector"
	"github.com/erp/amazon-connector/internal/domain/connector"
	"github.com/erp/amazon-connector/internal/interfaces/http/dto"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

type backendFixture struct {
	backends  *MockBackendRepository
	cpRepo    *MockCheckpointRepository
	templates *MockShippingTemplateRepository
	engine    *gin.Engine
}

func newBackendFixture() *backendFixture {
	gin.SetMode(gin.TestMode)
	f := &backendFixture{
		backends:  new(MockBackendRepository),
		cpRepo:    new(MockCheckpointRepository),
		templates: new(MockShippingTemplateRepository),
	}
	h := NewBackendHandler(appconnector.NewBackendService(f.backends, f.cpRepo, f.templates))

	engine := gin.New()
	engine.POST("/backends", h.Create)
	engine.GET("/backends", h.List)
	engine.GET("/backends/:id", h.Get)
	engine.PUT("/backends/:id", h.Update)
	engine.DELETE("/backends/:id", h.Delete)
	engine.POST("/backends/:id/deactivate", h.Deactivate)
	engine.GET("/backends/:id/checkpoints", h.ListCheckpoints)
	engine.POST("/backends/:id/shipping-templates/discover", h.DiscoverShippingTemplates)
	engine.GET("/marketplaces", h.Marketplaces)
	f.engine = engine
	return f
}

func (f *backendFixture) request(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func storedBackend(t *testing.T) *connector.Backend {
	t.Helper()
	backend, err := connector.NewBackend(
		"amazon-de", "AKIAEXAMPLE", "secret", "A2SELLER", "amzn.mws.token",
		"de", "AMZ", uuid.New())
	require.NoError(t, err)
	m, ok := connector.MarketplaceByCountry("de")
	require.True(t, ok)
	backend.Marketplaces = []connector.Marketplace{m}
	return backend
}

func TestBackendHandler_Create(t *testing.T) {
	f := newBackendFixture()
	f.backends.On("SalePrefixTaken", mock.Anything, "AMZ", uuid.Nil).Return(false, nil)
	f.backends.On("Create", mock.Anything, mock.Anything).Return(nil)

	rec, env := f.request(t, http.MethodPost, "/backends", gin.H{
		"name":         "amazon-de",
		"access_key":   "AKIAEXAMPLE",
		"secret_key":   "secret",
		"seller_id":    "A2SELLER",
		"auth_token":   "amzn.mws.token",
		"region":       "de",
		"sale_prefix":  "AMZ",
		"warehouse_id": uuid.New(),
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)

	var backend appconnector.BackendResponse
	require.NoError(t, json.Unmarshal(env.Data, &backend))
	assert.Equal(t, "amazon-de", backend.Name)
	assert.Equal(t, "de", backend.Region)
	require.Len(t, backend.Marketplaces, 1)
	assert.Equal(t, "A1PA6795UKMFR9", backend.Marketplaces[0].ID)
	f.backends.AssertExpectations(t)
}

func TestBackendHandler_Create_MissingFields(t *testing.T) {
	f := newBackendFixture()

	rec, env := f.request(t, http.MethodPost, "/backends", gin.H{"name": "incomplete"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
}

func TestBackendHandler_Create_PrefixTaken(t *testing.T) {
	f := newBackendFixture()
	f.backends.On("SalePrefixTaken", mock.Anything, "AMZ", uuid.Nil).Return(true, nil)

	rec, env := f.request(t, http.MethodPost, "/backends", gin.H{
		"name":         "amazon-de",
		"access_key":   "AKIAEXAMPLE",
		"secret_key":   "secret",
		"seller_id":    "A2SELLER",
		"auth_token":   "amzn.mws.token",
		"region":       "de",
		"sale_prefix":  "AMZ",
		"warehouse_id": uuid.New(),
	})

	require.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, dto.ErrCodeConflict, env.Error.Code)
}

func TestBackendHandler_Get_NotFound(t *testing.T) {
	f := newBackendFixture()
	id := uuid.New()
	f.backends.On("FindByID", mock.Anything, id).Return(nil, connector.ErrBackendNotFound)

	rec, env := f.request(t, http.MethodGet, "/backends/"+id.String(), nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, dto.ErrCodeNotFound, env.Error.Code)
}

func TestBackendHandler_Get_BadID(t *testing.T) {
	f := newBackendFixture()

	rec, _ := f.request(t, http.MethodGet, "/backends/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBackendHandler_List(t *testing.T) {
	f := newBackendFixture()
	f.backends.On("List", mock.Anything, 0, 20).
		Return([]*connector.Backend{storedBackend(t)}, int64(41), nil)

	rec, env := f.request(t, http.MethodGet, "/backends", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, env.Meta)
	assert.Equal(t, int64(41), env.Meta.Total)
	assert.Equal(t, 3, env.Meta.TotalPages)
}

func TestBackendHandler_Deactivate(t *testing.T) {
	f := newBackendFixture()
	backend := storedBackend(t)
	f.backends.On("FindByID", mock.Anything, backend.ID).Return(backend, nil)
	f.backends.On("Update", mock.Anything, backend).Return(nil)

	rec, _ := f.request(t, http.MethodPost, fmt.Sprintf("/backends/%s/deactivate", backend.ID), nil)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, backend.Active)
}

func TestBackendHandler_ListCheckpoints(t *testing.T) {
	f := newBackendFixture()
	backendID := uuid.New()
	cp := connector.NewCheckpoint(backendID, "sales.order", "403-1", "unknown status")
	f.cpRepo.On("ListUnresolved", mock.Anything, backendID, 0, 20).
		Return([]*connector.Checkpoint{cp}, int64(1), nil)

	rec, env := f.request(t, http.MethodGet,
		fmt.Sprintf("/backends/%s/checkpoints", backendID), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var checkpoints []appconnector.CheckpointResponse
	require.NoError(t, json.Unmarshal(env.Data, &checkpoints))
	require.Len(t, checkpoints, 1)
	assert.Equal(t, "sales.order", checkpoints[0].Model)
}

func TestBackendHandler_DiscoverShippingTemplates(t *testing.T) {
	f := newBackendFixture()
	backend := storedBackend(t)
	missing := &connector.ShippingTemplate{
		ID:                    uuid.New(),
		BackendID:             backend.ID,
		MarketplaceID:         "A1PA6795UKMFR9",
		MerchantShippingGroup: "DE Standard",
	}
	f.backends.On("FindByID", mock.Anything, backend.ID).Return(backend, nil)
	f.templates.On("DiscoverMissing", mock.Anything, backend.ID).
		Return([]*connector.ShippingTemplate{missing}, nil)
	f.templates.On("Create", mock.Anything, missing).Return(nil)
	f.templates.On("ListByBackend", mock.Anything, backend.ID).
		Return([]*connector.ShippingTemplate{missing}, nil)

	rec, env := f.request(t, http.MethodPost,
		fmt.Sprintf("/backends/%s/shipping-templates/discover", backend.ID), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var templates []appconnector.ShippingTemplateResponse
	require.NoError(t, json.Unmarshal(env.Data, &templates))
	require.Len(t, templates, 1)
	assert.Equal(t, "DE Standard", templates[0].MerchantShippingGroup)
	f.templates.AssertExpectations(t)
}

func TestBackendHandler_Marketplaces(t *testing.T) {
	f := newBackendFixture()

	rec, env := f.request(t, http.MethodGet, "/marketplaces", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var marketplaces []appconnector.MarketplaceResponse
	require.NoError(t, json.Unmarshal(env.Data, &marketplaces))
	assert.NotEmpty(t, marketplaces)
}
