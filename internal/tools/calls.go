package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xavierca1/lead-crm/internal/usecase"
)

var ErrUnknownTool = errors.New("unknown tool")

// Call is one parsed tool invocation. The set of implementations is closed.
type Call interface {
	ToolName() string
	isCall()
}

type CreateLeadCall struct{ Input usecase.CreateLeadInput }

type UpdateLeadCall struct{ Input usecase.UpdateLeadInput }

type SearchLeadsCall struct{ Input usecase.SearchLeadsInput }

type ListLeadsCall struct{ Input usecase.ListLeadsInput }

type DeleteLeadCall struct {
	ID string `json:"id" validate:"required"`
}

func (CreateLeadCall) ToolName() string  { return CreateLead }
func (UpdateLeadCall) ToolName() string  { return UpdateLead }
func (SearchLeadsCall) ToolName() string { return SearchLeads }
func (ListLeadsCall) ToolName() string   { return ListLeads }
func (DeleteLeadCall) ToolName() string  { return DeleteLead }

func (CreateLeadCall) isCall()  {}
func (UpdateLeadCall) isCall()  {}
func (SearchLeadsCall) isCall() {}
func (ListLeadsCall) isCall()   {}
func (DeleteLeadCall) isCall()  {}

// ArgumentError reports tool arguments that are malformed or break a schema rule.
type ArgumentError struct {
	Tool   string
	Fields []usecase.ValidationError
}

func (e *ArgumentError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" ("+f.Message+")")
	}
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, strings.Join(parts, ", "))
}

func (e *ArgumentError) MissingFields() []string {
	return usecase.MissingFields(e.Fields)
}

// Parse decodes raw model arguments into the typed call for name and checks it
// against the tool's schema rules.
func Parse(name, arguments string) (Call, error) {
	switch name {
	case CreateLead:
		var c CreateLeadCall
		if err := decode(name, arguments, &c.Input); err != nil {
			return nil, err
		}
		c.Input.Normalize()
		return c, check(name, c.Input)
	case UpdateLead:
		var c UpdateLeadCall
		if err := decode(name, arguments, &c.Input); err != nil {
			return nil, err
		}
		c.Input.Normalize()
		return c, check(name, c.Input)
	case SearchLeads:
		var c SearchLeadsCall
		if err := decode(name, arguments, &c.Input); err != nil {
			return nil, err
		}
		return c, check(name, c.Input)
	case ListLeads:
		var c ListLeadsCall
		if err := decode(name, arguments, &c.Input); err != nil {
			return nil, err
		}
		return c, check(name, c.Input)
	case DeleteLead:
		var c DeleteLeadCall
		if err := decode(name, arguments, &c); err != nil {
			return nil, err
		}
		c.ID = strings.TrimSpace(c.ID)
		return c, check(name, c)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
}

func decode(tool, arguments string, dst any) error {
	if strings.TrimSpace(arguments) == "" {
		arguments = "{}"
	}

	err := json.Unmarshal([]byte(arguments), dst)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &ArgumentError{Tool: tool, Fields: []usecase.ValidationError{{
			Field:   typeErr.Field,
			Message: "must be a " + typeErr.Type.Kind().String(),
		}}}
	}
	return &ArgumentError{Tool: tool, Fields: []usecase.ValidationError{{
		Field:   "arguments",
		Message: "must be a JSON object",
	}}}
}

func check(tool string, v any) error {
	if errs := usecase.Validate(v); len(errs) > 0 {
		return &ArgumentError{Tool: tool, Fields: errs}
	}
	return nil
}
