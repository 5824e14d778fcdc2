package usecase

import (
	"strings"

	"github.com/xavierca1/lead-crm/internal/entity"
)

type CreateLeadInput struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Company string `json:"company,omitempty" validate:"max=100"`
	Stage   string `json:"stage,omitempty" validate:"omitempty,stage"`
	Notes   string `json:"notes,omitempty" validate:"max=1000"`
}

func (in *CreateLeadInput) Normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Company = strings.TrimSpace(in.Company)
}

// UpdateLeadInput is a partial update: nil fields are left untouched.
type UpdateLeadInput struct {
	ID      string  `json:"id" validate:"required"`
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Company *string `json:"company,omitempty" validate:"omitempty,max=100"`
	Stage   *string `json:"stage,omitempty" validate:"omitempty,stage"`
	Notes   *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

func (in *UpdateLeadInput) Normalize() {
	in.ID = strings.TrimSpace(in.ID)
	trim := func(p *string) {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	trim(in.Name)
	trim(in.Email)
	trim(in.Company)
}

func (in UpdateLeadInput) Patch() entity.LeadPatch {
	patch := entity.LeadPatch{
		Name:    in.Name,
		Email:   in.Email,
		Company: in.Company,
		Notes:   in.Notes,
	}
	if in.Stage != nil {
		s := entity.Stage(*in.Stage)
		patch.Stage = &s
	}
	return patch
}

type SearchLeadsInput struct {
	Name    string `json:"name,omitempty" validate:"max=100"`
	Email   string `json:"email,omitempty" validate:"max=255"`
	Company string `json:"company,omitempty" validate:"max=100"`
	Stage   string `json:"stage,omitempty" validate:"omitempty,stage"`
}

type ListLeadsInput struct {
	Company string `json:"company,omitempty" validate:"max=100"`
	Stage   string `json:"stage,omitempty" validate:"omitempty,stage"`
}

// LeadIDInput guards the direct CRUD routes, which reject malformed ids with a 400.
type LeadIDInput struct {
	ID string `json:"id" validate:"required,uuid"`
}

type PageLeadsInput struct {
	Page    int    `json:"page" validate:"gte=1"`
	Limit   int    `json:"limit" validate:"gte=1,lte=100"`
	Stage   string `json:"stage,omitempty" validate:"omitempty,stage"`
	Search  string `json:"search,omitempty" validate:"max=255"`
	Company string `json:"company,omitempty" validate:"max=100"`
}

type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type PageLeadsOutput struct {
	Leads      []entity.Lead `json:"leads"`
	Pagination Pagination    `json:"pagination"`
}

type AnalyticsMetrics struct {
	NewLeadsToday  int `json:"newLeadsToday"`
	TotalLeads     int `json:"totalLeads"`
	ConversionRate int `json:"conversionRate"`
	ConvertedLeads int `json:"convertedLeads"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type AnalyticsOutput struct {
	Metrics           AnalyticsMetrics    `json:"metrics"`
	PipelineBreakdown []entity.StageCount `json:"pipelineBreakdown"`
	DailyLeads        []DailyCount        `json:"dailyLeads"`
	RecentLeads       []entity.Lead       `json:"recentLeads"`
}

type ExportOutput struct {
	Filename    string
	ContentType string
	Body        []byte
}
