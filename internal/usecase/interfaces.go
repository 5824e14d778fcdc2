package usecase

import (
	"context"

	"github.com/xavierca1/lead-crm/internal/entity"
)

// LeadManager is the owner-scoped lead API shared by the HTTP handlers and the chat tools.
type LeadManager interface {
	Create(ctx context.Context, ownerID string, input CreateLeadInput) (*entity.Lead, error)
	Get(ctx context.Context, ownerID, id string) (*entity.Lead, error)
	Update(ctx context.Context, ownerID string, input UpdateLeadInput) (*entity.Lead, error)
	Delete(ctx context.Context, ownerID, id string) (*entity.Lead, error)
	Search(ctx context.Context, ownerID string, input SearchLeadsInput) ([]entity.Lead, error)
	List(ctx context.Context, ownerID string, input ListLeadsInput) ([]entity.Lead, error)
	Page(ctx context.Context, ownerID string, input PageLeadsInput) (*PageLeadsOutput, error)
}

type AnalyticsService interface {
	Execute(ctx context.Context, ownerID string, days int) (*AnalyticsOutput, error)
}

type ExportService interface {
	Execute(ctx context.Context, ownerID string) (*ExportOutput, error)
}
