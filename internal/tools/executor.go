package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xavierca1/lead-crm/internal/entity"
	"github.com/xavierca1/lead-crm/internal/infra/metrics"
	"github.com/xavierca1/lead-crm/internal/usecase"
)

// Result is the uniform outcome of one tool call, serialized back to the model.
type Result struct {
	Success       bool          `json:"success"`
	Message       string        `json:"message"`
	Lead          *entity.Lead  `json:"lead,omitempty"`
	Leads         []entity.Lead `json:"leads,omitempty"`
	MissingFields []string      `json:"missingFields,omitempty"`
}

type Executor struct {
	Leads  usecase.LeadManager
	Logger *zap.Logger
}

func NewExecutor(leads usecase.LeadManager, logger *zap.Logger) *Executor {
	return &Executor{Leads: leads, Logger: logger}
}

// Execute runs one tool call for ownerID. It never returns an error and never panics:
// every failure becomes a Result with Success false.
func (e *Executor) Execute(ctx context.Context, ownerID, name, arguments string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			e.Logger.Error("tool call panicked",
				zap.String("tool", name),
				zap.Any("panic", r))
			res = Result{Success: false, Message: fmt.Sprintf("Something went wrong while running %s.", name)}
		}
		metrics.RecordToolCall(name, res.Success)
	}()

	call, err := Parse(name, arguments)
	if err != nil {
		return e.failure(name, err)
	}

	switch c := call.(type) {
	case CreateLeadCall:
		lead, err := e.Leads.Create(ctx, ownerID, c.Input)
		if err != nil {
			return e.failure(name, err)
		}
		return Result{Success: true, Message: "Successfully created lead: " + lead.Name, Lead: lead}

	case UpdateLeadCall:
		lead, err := e.Leads.Update(ctx, ownerID, c.Input)
		if err != nil {
			return e.failure(name, err)
		}
		return Result{Success: true, Message: "Successfully updated lead: " + lead.Name, Lead: lead}

	case SearchLeadsCall:
		leads, err := e.Leads.Search(ctx, ownerID, c.Input)
		if err != nil {
			return e.failure(name, err)
		}
		return Result{Success: true, Message: "Found " + plural(len(leads), "lead"), Leads: leads}

	case ListLeadsCall:
		leads, err := e.Leads.List(ctx, ownerID, c.Input)
		if err != nil {
			return e.failure(name, err)
		}
		return Result{Success: true, Message: "Found " + plural(len(leads), "total lead"), Leads: leads}

	case DeleteLeadCall:
		lead, err := e.Leads.Delete(ctx, ownerID, c.ID)
		if err != nil {
			return e.failure(name, err)
		}
		return Result{Success: true, Message: "Successfully deleted lead: " + lead.Name, Lead: lead}
	}

	return Result{Success: false, Message: "Unknown tool: " + name}
}

func (e *Executor) failure(name string, err error) Result {
	var argErr *ArgumentError
	if errors.As(err, &argErr) {
		missing := argErr.MissingFields()
		msg := "Invalid arguments: " + describeFields(argErr.Fields)
		if len(missing) > 0 {
			msg = "Missing required fields: " + strings.Join(missing, ", ")
		}
		return Result{Success: false, Message: msg, MissingFields: missing}
	}

	if errors.Is(err, ErrUnknownTool) {
		return Result{Success: false, Message: "Unknown tool: " + name}
	}

	var de *usecase.DomainError
	if errors.As(err, &de) {
		switch de.Code {
		case usecase.CodeValidation:
			missing := usecase.MissingFields(de.Fields)
			return Result{Success: false, Message: "Invalid arguments: " + describeFields(de.Fields), MissingFields: missing}
		default:
			return Result{Success: false, Message: de.Message}
		}
	}

	e.Logger.Error("tool call failed", zap.String("tool", name), zap.Error(err))
	return Result{Success: false, Message: fmt.Sprintf("Could not complete %s right now. Please try again.", name)}
}

func describeFields(fields []usecase.ValidationError) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return strings.Join(parts, "; ")
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
