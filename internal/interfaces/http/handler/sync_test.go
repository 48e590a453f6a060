package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appsync "github.com/erp/amazon-connector/internal/application/sync"
	"github.com/erp/amazon-connector/internal/domain/connector"
	"github.com/erp/amazon-connector/internal/interfaces/http/dto"
)

type syncFixture struct {
	backends *MockBackendRepository
	queue    *MockEnqueuer
	engine   *gin.Engine
}

func newSyncFixture() *syncFixture {
	gin.SetMode(gin.TestMode)
	f := &syncFixture{
		backends: new(MockBackendRepository),
		queue:    new(MockEnqueuer),
	}
	svc := appsync.NewService(
		f.backends, nil, nil, nil, nil, nil, nil, nil, nil, f.queue,
		time.Minute, zap.NewNop())
	h := NewSyncHandler(svc)

	engine := gin.New()
	engine.POST("/backends/:id/sync/:operation", h.Trigger)
	engine.GET("/sync/operations", h.Operations)
	f.engine = engine
	return f
}

func (f *syncFixture) request(t *testing.T, method, path string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestSyncHandler_Trigger(t *testing.T) {
	f := newSyncFixture()
	backend := storedBackend(t)
	f.backends.On("FindByID", mock.Anything, backend.ID).Return(backend, nil)
	f.queue.On("HasActive", mock.Anything, backend.ID, appsync.OpImportSales).Return(false, nil)
	f.queue.On("Enqueue", mock.Anything, backend.ID, appsync.OpImportSales,
		mock.Anything, mock.Anything, mock.Anything).Return(nil)

	rec, env := f.request(t, http.MethodPost,
		fmt.Sprintf("/backends/%s/sync/%s", backend.ID, appsync.OpImportSales))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	f.queue.AssertExpectations(t)
}

func TestSyncHandler_Trigger_UnknownOperation(t *testing.T) {
	f := newSyncFixture()

	rec, env := f.request(t, http.MethodPost,
		fmt.Sprintf("/backends/%s/sync/defragment_disk", uuid.New()))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, dto.ErrCodeValidation, env.Error.Code)
}

func TestSyncHandler_Trigger_InactiveBackend(t *testing.T) {
	f := newSyncFixture()
	backend := storedBackend(t)
	backend.Deactivate()
	f.backends.On("FindByID", mock.Anything, backend.ID).Return(backend, nil)

	rec, env := f.request(t, http.MethodPost,
		fmt.Sprintf("/backends/%s/sync/%s", backend.ID, appsync.OpImportSales))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, dto.ErrCodeInvalidState, env.Error.Code)
}

func TestSyncHandler_Trigger_AlreadyQueued(t *testing.T) {
	f := newSyncFixture()
	backend := storedBackend(t)
	f.backends.On("FindByID", mock.Anything, backend.ID).Return(backend, nil)
	f.queue.On("HasActive", mock.Anything, backend.ID, appsync.OpImportSales).Return(true, nil)

	rec, env := f.request(t, http.MethodPost,
		fmt.Sprintf("/backends/%s/sync/%s", backend.ID, appsync.OpImportSales))

	require.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, dto.ErrCodeConflict, env.Error.Code)
}

func TestSyncHandler_Trigger_BackendNotFound(t *testing.T) {
	f := newSyncFixture()
	id := uuid.New()
	f.backends.On("FindByID", mock.Anything, id).Return(nil, connector.ErrBackendNotFound)

	rec, _ := f.request(t, http.MethodPost,
		fmt.Sprintf("/backends/%s/sync/%s", id, appsync.OpImportSales))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSyncHandler_Operations(t *testing.T) {
	f := newSyncFixture()

	rec, env := f.request(t, http.MethodGet, "/sync/operations")

	require.Equal(t, http.StatusOK, rec.Code)
	var operations []string
	require.NoError(t, json.Unmarshal(env.Data, &operations))
	assert.Contains(t, operations, appsync.OpImportSales)
	assert.Contains(t, operations, appsync.OpSubmitFeeds)
	assert.NotContains(t, operations, appsync.OpDispatchMessage)
}
