package tools

import (
	"testing"

	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/lead-crm/internal/entity"
)

func TestRegistry(t *testing.T) {
	reg := Registry()
	require.Len(t, reg, len(Names()))

	required := map[string][]string{
		CreateLead:  {"name", "email"},
		UpdateLead:  {"id"},
		SearchLeads: {},
		ListLeads:   {},
		DeleteLead:  {"id"},
	}

	for i, tool := range reg {
		fn := tool.Function
		require.NotNil(t, fn)
		assert.Equal(t, Names()[i], fn.Name)
		assert.NotEmpty(t, fn.Description)

		params, ok := fn.Parameters.(jsonschema.Definition)
		require.True(t, ok)
		assert.Equal(t, jsonschema.Object, params.Type)
		assert.ElementsMatch(t, required[fn.Name], params.Required, fn.Name)

		if stage, ok := params.Properties["stage"]; ok {
			assert.Equal(t, entity.StageNames(), stage.Enum)
		}
	}
}

func TestParse_Variants(t *testing.T) {
	call, err := Parse(DeleteLead, `{"id":" abc "}`)
	require.NoError(t, err)
	assert.Equal(t, DeleteLeadCall{ID: "abc"}, call)

	call, err = Parse(CreateLead, `{"name":" Jane ","email":"jane@x.com","company":"Acme"}`)
	require.NoError(t, err)
	create, ok := call.(CreateLeadCall)
	require.True(t, ok)
	assert.Equal(t, "Jane", create.Input.Name)

	_, err = Parse("nope", `{}`)
	assert.ErrorIs(t, err, ErrUnknownTool)
}

func TestParse_ArgumentError(t *testing.T) {
	_, err := Parse(UpdateLead, `{}`)

	var argErr *ArgumentError
	require.ErrorAs(t, err, &argErr)
	assert.Equal(t, []string{"id"}, argErr.MissingFields())
	assert.Equal(t, "invalid arguments for update_lead: id (is required)", argErr.Error())
}
