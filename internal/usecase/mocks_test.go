package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/lead-crm/internal/entity"
	"github.com/xavierca1/lead-crm/internal/infra/queue"
)

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	args := m.Called(ctx, lead)
	return args.Error(0)
}

func (m *MockLeadRepository) FindByID(ctx context.Context, ownerID, id string) (*entity.Lead, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) FindByEmail(ctx context.Context, ownerID, email string) (*entity.Lead, error) {
	args := m.Called(ctx, ownerID, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) Update(ctx context.Context, ownerID, id string, patch entity.LeadPatch, updatedAt time.Time) (*entity.Lead, error) {
	args := m.Called(ctx, ownerID, id, patch, updatedAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) Delete(ctx context.Context, ownerID, id string) (*entity.Lead, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) Search(ctx context.Context, filter entity.LeadFilter) ([]entity.Lead, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) Count(ctx context.Context, filter entity.LeadFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

type MockStatsRepository struct {
	mock.Mock
}

func (m *MockStatsRepository) CountByStage(ctx context.Context, ownerID string) ([]entity.StageCount, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.StageCount), args.Error(1)
}

func (m *MockStatsRepository) CountInStages(ctx context.Context, ownerID string, stages []entity.Stage) (int, error) {
	args := m.Called(ctx, ownerID, stages)
	return args.Int(0), args.Error(1)
}

func (m *MockStatsRepository) CountCreatedBetween(ctx context.Context, ownerID string, from, to time.Time) (int, error) {
	args := m.Called(ctx, ownerID, from, to)
	return args.Int(0), args.Error(1)
}

func (m *MockStatsRepository) CreatedSince(ctx context.Context, ownerID string, since time.Time) ([]time.Time, error) {
	args := m.Called(ctx, ownerID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]time.Time), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishLeadEvent(ctx context.Context, event queue.LeadEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
