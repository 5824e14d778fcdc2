package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xavierca1/lead-crm/internal/entity"
	"github.com/xavierca1/lead-crm/internal/infra/metrics"
	"github.com/xavierca1/lead-crm/internal/infra/queue"
)

// MaxSearchResults caps search and list results.
const MaxSearchResults = 50

type LeadUseCase struct {
	Repo   entity.LeadRepositoryInterface
	Events queue.LeadEventPublisher
	Logger *zap.Logger
	Now    func() time.Time
}

// NewLeadUseCase wires the lead use case. events may be nil when no broker is configured.
func NewLeadUseCase(repo entity.LeadRepositoryInterface, events queue.LeadEventPublisher, logger *zap.Logger) *LeadUseCase {
	return &LeadUseCase{
		Repo:   repo,
		Events: events,
		Logger: logger,
		Now:    time.Now,
	}
}

func (uc *LeadUseCase) Create(ctx context.Context, ownerID string, input CreateLeadInput) (*entity.Lead, error) {
	input.Normalize()
	if errs := Validate(input); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	existing, err := uc.Repo.FindByEmail(ctx, ownerID, input.Email)
	if err != nil && !errors.Is(err, entity.ErrLeadNotFound) {
		return nil, newDatabaseError("check duplicate email", err)
	}
	if existing != nil {
		return nil, newConflictError(entity.ErrEmailAlreadyExists)
	}

	lead := entity.NewLead(ownerID, input.Name, input.Email, input.Company, entity.Stage(input.Stage), input.Notes, uc.Now())
	if err := uc.Repo.Create(ctx, lead); err != nil {
		if errors.Is(err, entity.ErrEmailAlreadyExists) {
			return nil, newConflictError(err)
		}
		return nil, newDatabaseError("create lead", err)
	}

	uc.publish(ctx, queue.EventLeadCreated, lead)
	return lead, nil
}

func (uc *LeadUseCase) Get(ctx context.Context, ownerID, id string) (*entity.Lead, error) {
	if uuid.Validate(id) != nil {
		return nil, newNotFoundError(entity.ErrLeadNotFound)
	}

	lead, err := uc.Repo.FindByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return nil, newNotFoundError(err)
		}
		return nil, newDatabaseError("load lead", err)
	}
	return lead, nil
}

// Update applies only the supplied fields. A lead owned by someone else is reported
// exactly like a missing one.
func (uc *LeadUseCase) Update(ctx context.Context, ownerID string, input UpdateLeadInput) (*entity.Lead, error) {
	input.Normalize()
	if errs := Validate(input); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	current, err := uc.Get(ctx, ownerID, input.ID)
	if err != nil {
		return nil, err
	}

	patch := input.Patch()
	if patch.Empty() {
		return current, nil
	}

	if patch.Email != nil && *patch.Email != current.Email {
		other, err := uc.Repo.FindByEmail(ctx, ownerID, *patch.Email)
		if err != nil && !errors.Is(err, entity.ErrLeadNotFound) {
			return nil, newDatabaseError("check duplicate email", err)
		}
		if other != nil && other.ID != current.ID {
			return nil, newConflictError(entity.ErrEmailAlreadyExists)
		}
	}

	updated, err := uc.Repo.Update(ctx, ownerID, current.ID, patch, uc.Now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrLeadNotFound):
			return nil, newNotFoundError(err)
		case errors.Is(err, entity.ErrEmailAlreadyExists):
			return nil, newConflictError(err)
		}
		return nil, newDatabaseError("update lead", err)
	}

	uc.publish(ctx, queue.EventLeadUpdated, updated)
	return updated, nil
}

func (uc *LeadUseCase) Delete(ctx context.Context, ownerID, id string) (*entity.Lead, error) {
	if uuid.Validate(id) != nil {
		return nil, newNotFoundError(entity.ErrLeadNotFound)
	}

	deleted, err := uc.Repo.Delete(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, entity.ErrLeadNotFound) {
			return nil, newNotFoundError(err)
		}
		return nil, newDatabaseError("delete lead", err)
	}

	uc.publish(ctx, queue.EventLeadDeleted, deleted)
	return deleted, nil
}

func (uc *LeadUseCase) Search(ctx context.Context, ownerID string, input SearchLeadsInput) ([]entity.Lead, error) {
	if errs := Validate(input); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	return uc.find(ctx, entity.LeadFilter{
		OwnerID: ownerID,
		Name:    input.Name,
		Email:   input.Email,
		Company: input.Company,
		Stage:   entity.Stage(input.Stage),
		Limit:   MaxSearchResults,
	})
}

func (uc *LeadUseCase) List(ctx context.Context, ownerID string, input ListLeadsInput) ([]entity.Lead, error) {
	if errs := Validate(input); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	return uc.find(ctx, entity.LeadFilter{
		OwnerID: ownerID,
		Company: input.Company,
		Stage:   entity.Stage(input.Stage),
		Limit:   MaxSearchResults,
	})
}

// Page backs GET /leads. Stage "all" disables the stage filter.
func (uc *LeadUseCase) Page(ctx context.Context, ownerID string, input PageLeadsInput) (*PageLeadsOutput, error) {
	if input.Stage == "all" {
		input.Stage = ""
	}
	if errs := Validate(input); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	filter := entity.LeadFilter{
		OwnerID: ownerID,
		Query:   input.Search,
		Company: input.Company,
		Stage:   entity.Stage(input.Stage),
	}

	total, err := uc.Repo.Count(ctx, filter)
	if err != nil {
		return nil, newDatabaseError("count leads", err)
	}

	filter.Limit = input.Limit
	filter.Offset = (input.Page - 1) * input.Limit
	leads, err := uc.find(ctx, filter)
	if err != nil {
		return nil, err
	}

	pages := (total + input.Limit - 1) / input.Limit
	return &PageLeadsOutput{
		Leads: leads,
		Pagination: Pagination{
			Page:  input.Page,
			Limit: input.Limit,
			Total: total,
			Pages: pages,
		},
	}, nil
}

func (uc *LeadUseCase) find(ctx context.Context, filter entity.LeadFilter) ([]entity.Lead, error) {
	leads, err := uc.Repo.Search(ctx, filter)
	if err != nil {
		return nil, newDatabaseError("search leads", err)
	}
	if leads == nil {
		leads = []entity.Lead{}
	}
	return leads, nil
}

// publish is best effort: the mutation is already committed, so a broker failure is only logged.
func (uc *LeadUseCase) publish(ctx context.Context, eventType queue.EventType, lead *entity.Lead) {
	if uc.Events == nil || lead == nil {
		return
	}

	event := queue.LeadEvent{
		Type:       eventType,
		LeadID:     lead.ID,
		OwnerID:    lead.OwnerID,
		Name:       lead.Name,
		Email:      lead.Email,
		Company:    lead.Company,
		Stage:      string(lead.Stage),
		Notes:      lead.Notes,
		OccurredAt: uc.Now().UTC(),
	}
	if err := uc.Events.PublishLeadEvent(ctx, event); err != nil {
		metrics.RecordLeadEvent(string(eventType), "failed")
		uc.Logger.Warn("lead event not published",
			zap.String("event", string(eventType)),
			zap.String("lead_id", lead.ID),
			zap.Error(err))
		return
	}
	metrics.RecordLeadEvent(string(eventType), "published")
}
