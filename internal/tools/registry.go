package tools

import (
	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/xavierca1/lead-crm/internal/entity"
)

const (
	CreateLead  = "create_lead"
	UpdateLead  = "update_lead"
	SearchLeads = "search_leads"
	ListLeads   = "list_leads"
	DeleteLead  = "delete_lead"
)

// Names lists the registered tools in catalog order.
func Names() []string {
	return []string{CreateLead, UpdateLead, SearchLeads, ListLeads, DeleteLead}
}

func stageProperty(description string) jsonschema.Definition {
	return jsonschema.Definition{
		Type:        jsonschema.String,
		Enum:        entity.StageNames(),
		Description: description,
	}
}

func stringProperty(description string) jsonschema.Definition {
	return jsonschema.Definition{Type: jsonschema.String, Description: description}
}

// Registry returns the tool catalog offered to the model. It is rebuilt on each call so
// callers may not mutate a shared copy.
func Registry() []openai.Tool {
	defs := []openai.FunctionDefinition{
		{
			Name:        CreateLead,
			Description: "Create a new lead with the provided information",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"name":    stringProperty("Full name of the lead"),
					"email":   stringProperty("Email address of the lead"),
					"company": stringProperty("Company name (optional)"),
					"stage":   stageProperty("Current stage of the lead (defaults to 'new')"),
					"notes":   stringProperty("Additional notes about the lead (optional)"),
				},
				Required: []string{"name", "email"},
			},
		},
		{
			Name:        UpdateLead,
			Description: "Update an existing lead's information. Only the supplied fields change.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"id":      stringProperty("UUID of the lead to update"),
					"name":    stringProperty("Updated name of the lead"),
					"email":   stringProperty("Updated email address of the lead"),
					"company": stringProperty("Updated company name"),
					"stage":   stageProperty("Updated stage of the lead"),
					"notes":   stringProperty("Updated notes about the lead"),
				},
				Required: []string{"id"},
			},
		},
		{
			Name:        SearchLeads,
			Description: "Search for leads. Text filters are case-insensitive partial matches; stage is exact.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"name":    stringProperty("Search by name (partial match)"),
					"email":   stringProperty("Search by email (partial match)"),
					"company": stringProperty("Search by company (partial match)"),
					"stage":   stageProperty("Filter by stage"),
				},
				Required: []string{},
			},
		},
		{
			Name:        ListLeads,
			Description: "List the user's leads, newest first, optionally filtered by company or stage",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"company": stringProperty("Filter by company (partial match)"),
					"stage":   stageProperty("Filter by stage"),
				},
				Required: []string{},
			},
		},
		{
			Name:        DeleteLead,
			Description: "Delete a lead by ID",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"id": stringProperty("UUID of the lead to delete"),
				},
				Required: []string{"id"},
			},
		},
	}

	tools := make([]openai.Tool, 0, len(defs))
	for i := range defs {
		tools = append(tools, openai.Tool{
			Type:     openai.ToolTypeFunction,
			Function: &defs[i],
		})
	}
	return tools
}
