package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/erp/amazon-connector/internal/domain/connector"
	"github.com/erp/amazon-connector/internal/domain/job"
)

type MockBackendRepository struct {
	mock.Mock
}

func (m *MockBackendRepository) Create(ctx context.Context, backend *connector.Backend) error {
	args := m.Called(ctx, backend)
	return args.Error(0)
}

func (m *MockBackendRepository) Update(ctx context.Context, backend *connector.Backend) error {
	args := m.Called(ctx, backend)
	return args.Error(0)
}

func (m *MockBackendRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBackendRepository) FindByID(ctx context.Context, id uuid.UUID) (*connector.Backend, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*connector.Backend), args.Error(1)
}

func (m *MockBackendRepository) FindActive(ctx context.Context) ([]*connector.Backend, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*connector.Backend), args.Error(1)
}

func (m *MockBackendRepository) List(ctx context.Context, offset, limit int) ([]*connector.Backend, int64, error) {
	args := m.Called(ctx, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*connector.Backend), args.Get(1).(int64), args.Error(2)
}

func (m *MockBackendRepository) SalePrefixTaken(ctx context.Context, prefix string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, prefix, excludeID)
	return args.Bool(0), args.Error(1)
}

type MockCheckpointRepository struct {
	mock.Mock
}

func (m *MockCheckpointRepository) Create(ctx context.Context, cp *connector.Checkpoint) error {
	args := m.Called(ctx, cp)
	return args.Error(0)
}

func (m *MockCheckpointRepository) Update(ctx context.Context, cp *connector.Checkpoint) error {
	args := m.Called(ctx, cp)
	return args.Error(0)
}

func (m *MockCheckpointRepository) FindByID(ctx context.Context, id uuid.UUID) (*connector.Checkpoint, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*connector.Checkpoint), args.Error(1)
}

func (m *MockCheckpointRepository) ListUnresolved(ctx context.Context, backendID uuid.UUID, offset, limit int) ([]*connector.Checkpoint, int64, error) {
	args := m.Called(ctx, backendID, offset, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*connector.Checkpoint), args.Get(1).(int64), args.Error(2)
}

type MockShippingTemplateRepository struct {
	mock.Mock
}

func (m *MockShippingTemplateRepository) Create(ctx context.Context, tpl *connector.ShippingTemplate) error {
	args := m.Called(ctx, tpl)
	return args.Error(0)
}

func (m *MockShippingTemplateRepository) ListByBackend(ctx context.Context, backendID uuid.UUID) ([]*connector.ShippingTemplate, error) {
	args := m.Called(ctx, backendID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*connector.ShippingTemplate), args.Error(1)
}

func (m *MockShippingTemplateRepository) DiscoverMissing(ctx context.Context, backendID uuid.UUID) ([]*connector.ShippingTemplate, error) {
	args := m.Called(ctx, backendID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*connector.ShippingTemplate), args.Error(1)
}

type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) Create(ctx context.Context, j *job.Job) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

func (m *MockJobRepository) Update(ctx context.Context, j *job.Job) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

func (m *MockJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*job.Job, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.Job), args.Error(1)
}

func (m *MockJobRepository) ClaimRunnable(ctx context.Context, channel string, now time.Time, limit int) ([]*job.Job, error) {
	args := m.Called(ctx, channel, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*job.Job), args.Error(1)
}

func (m *MockJobRepository) HasActive(ctx context.Context, backendID uuid.UUID, operation string) (bool, error) {
	args := m.Called(ctx, backendID, operation)
	return args.Bool(0), args.Error(1)
}

func (m *MockJobRepository) List(ctx context.Context, backendID uuid.UUID, limit, offset int) ([]*job.Job, int64, error) {
	args := m.Called(ctx, backendID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*job.Job), args.Get(1).(int64), args.Error(2)
}

func (m *MockJobRepository) DeleteCompletedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) Enqueue(ctx context.Context, backendID uuid.UUID, operation string, payload any, priority int, eta time.Time) error {
	args := m.Called(ctx, backendID, operation, payload, priority, eta)
	return args.Error(0)
}

func (m *MockEnqueuer) HasActive(ctx context.Context, backendID uuid.UUID, operation string) (bool, error) {
	args := m.Called(ctx, backendID, operation)
	return args.Bool(0), args.Error(1)
}
