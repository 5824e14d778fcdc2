package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_CreateLeadInput(t *testing.T) {
	tests := []struct {
		name   string
		input  CreateLeadInput
		fields []string
	}{
		{"valid", CreateLeadInput{Name: "John", Email: "john@x.com"}, nil},
		{"missing both", CreateLeadInput{}, []string{"name", "email"}},
		{"bad email", CreateLeadInput{Name: "John", Email: "not-an-email"}, []string{"email"}},
		{"long company", CreateLeadInput{Name: "John", Email: "j@x.com", Company: strings.Repeat("a", 101)}, []string{"company"}},
		{"long notes", CreateLeadInput{Name: "John", Email: "j@x.com", Notes: strings.Repeat("a", 1001)}, []string{"notes"}},
		{"bad stage", CreateLeadInput{Name: "John", Email: "j@x.com", Stage: "lost"}, []string{"stage"}},
		{"closed-won accepted", CreateLeadInput{Name: "John", Email: "j@x.com", Stage: "closed-won"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.input)
			var got []string
			for _, e := range errs {
				got = append(got, e.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}

func TestValidate_Messages(t *testing.T) {
	errs := Validate(CreateLeadInput{Email: "x", Stage: "bogus"})

	msgs := map[string]string{}
	for _, e := range errs {
		msgs[e.Field] = e.Message
	}
	assert.Equal(t, "is required", msgs["name"])
	assert.Equal(t, "must be a valid email address", msgs["email"])
	assert.Contains(t, msgs["stage"], "closed-lost")
}

func TestValidate_UpdateRejectsBlankName(t *testing.T) {
	blank := ""
	errs := Validate(UpdateLeadInput{ID: "x", Name: &blank})

	assert.Len(t, errs, 1)
	assert.Equal(t, "must not be empty", errs[0].Message)
}

func TestValidate_LeadID(t *testing.T) {
	assert.NotEmpty(t, Validate(LeadIDInput{ID: "123"}))
	assert.Empty(t, Validate(LeadIDInput{ID: "0b9f5a52-4a8e-4c36-9a0e-0c0e2f6d1c11"}))
}

func TestMissingFields(t *testing.T) {
	errs := Validate(CreateLeadInput{Email: "bad"})
	assert.Equal(t, []string{"name"}, MissingFields(errs))
}

func TestNewValidationErrorMessage(t *testing.T) {
	err := NewValidationError([]ValidationError{{Field: "email", Message: "is required"}})
	assert.Equal(t, "validation failed: email (is required)", err.Error())
}
