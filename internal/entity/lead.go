package entity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrLeadNotFound       = errors.New("not found")
	ErrEmailAlreadyExists = errors.New("a lead with this email already exists")
)

// Stage is the pipeline position of a lead. Transitions are unrestricted.
type Stage string

const (
	StageNew         Stage = "new"
	StageContacted   Stage = "contacted"
	StageQualified   Stage = "qualified"
	StageProposal    Stage = "proposal"
	StageNegotiation Stage = "negotiation"
	StageClosedWon   Stage = "closed-won"
	StageClosedLost  Stage = "closed-lost"
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{
	StageNew,
	StageContacted,
	StageQualified,
	StageProposal,
	StageNegotiation,
	StageClosedWon,
	StageClosedLost,
}

// ConvertedStages are the late-pipeline stages counted as conversions.
var ConvertedStages = []Stage{StageProposal, StageNegotiation, StageClosedWon}

func (s Stage) Valid() bool {
	return s.Position() >= 0
}

// Position returns the zero-based pipeline order of s, or -1 for unknown values.
func (s Stage) Position() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// StageNames returns the stage values as plain strings, in pipeline order.
func StageNames() []string {
	names := make([]string, len(Stages))
	for i, s := range Stages {
		names[i] = string(s)
	}
	return names
}

type Lead struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   string    `json:"company"`
	Stage     Stage     `json:"stage"`
	Notes     string    `json:"notes"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewLead builds a lead owned by ownerID. An empty stage defaults to StageNew.
func NewLead(ownerID, name, email, company string, stage Stage, notes string, now time.Time) *Lead {
	if stage == "" {
		stage = StageNew
	}
	now = now.UTC()
	return &Lead{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		Email:     strings.TrimSpace(email),
		Company:   strings.TrimSpace(company),
		Stage:     stage,
		Notes:     notes,
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// LeadPatch carries the fields of a partial update. Nil means "leave unchanged".
type LeadPatch struct {
	Name    *string
	Email   *string
	Company *string
	Stage   *Stage
	Notes   *string
}

func (p LeadPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Company == nil && p.Stage == nil && p.Notes == nil
}

// Apply copies the supplied fields onto l and stamps UpdatedAt.
func (p LeadPatch) Apply(l *Lead, now time.Time) {
	if p.Name != nil {
		l.Name = *p.Name
	}
	if p.Email != nil {
		l.Email = *p.Email
	}
	if p.Company != nil {
		l.Company = *p.Company
	}
	if p.Stage != nil {
		l.Stage = *p.Stage
	}
	if p.Notes != nil {
		l.Notes = *p.Notes
	}
	l.UpdatedAt = now.UTC()
}

// LeadFilter is a conjunctive, owner-scoped query. OwnerID is mandatory.
type LeadFilter struct {
	OwnerID string
	Name    string
	Email   string
	Company string
	// Query matches name, email or company.
	Query  string
	Stage  Stage
	Limit  int
	Offset int
}

type StageCount struct {
	Stage Stage `json:"stage"`
	Count int   `json:"count"`
}

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, ownerID, id string) (*Lead, error)
	FindByEmail(ctx context.Context, ownerID, email string) (*Lead, error)
	Update(ctx context.Context, ownerID, id string, patch LeadPatch, updatedAt time.Time) (*Lead, error)
	Delete(ctx context.Context, ownerID, id string) (*Lead, error)
	Search(ctx context.Context, filter LeadFilter) ([]Lead, error)
	Count(ctx context.Context, filter LeadFilter) (int, error)
}

type LeadStatsRepository interface {
	CountByStage(ctx context.Context, ownerID string) ([]StageCount, error)
	CountInStages(ctx context.Context, ownerID string, stages []Stage) (int, error)
	CountCreatedBetween(ctx context.Context, ownerID string, from, to time.Time) (int, error)
	CreatedSince(ctx context.Context, ownerID string, since time.Time) ([]time.Time, error)
}
