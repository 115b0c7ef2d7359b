package validation

import (
	"testing"

	apperrors "letting-compliance/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = MustCompile(`{
  "type": "object",
  "required": ["screeningId"],
  "properties": {
    "screeningId": {"type": "string", "minLength": 1},
    "asOf": {"type": "string", "format": "date-time"}
  }
}`)

func TestSchema_ValidateInput(t *testing.T) {
	tests := []struct {
		name      string
		input     map[string]interface{}
		wantValid bool
		wantField string
	}{
		{"valid", map[string]interface{}{"screeningId": "scr-1"}, true, ""},
		{"missing required", map[string]interface{}{}, false, "screeningId"},
		{"wrong type", map[string]interface{}{"screeningId": 12}, false, "screeningId"},
		{"bad date", map[string]interface{}{"screeningId": "scr-1", "asOf": "yesterday"}, false, "asOf"},
		{"nil input", nil, false, "screeningId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := testSchema.ValidateInput(tt.input)
			assert.Equal(t, tt.wantValid, res.Valid)
			if !tt.wantValid {
				require.NotEmpty(t, res.Errors)
				assert.Contains(t, res.GetErrorMessages()[0], tt.wantField)
			}
		})
	}
}

type eddRequest struct {
	Notes    string `validate:"required,min=10"`
	Decision string `validate:"omitempty,oneof=ACCEPT REJECT"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(eddRequest{Notes: "source of funds verified"}))

	err := Struct(eddRequest{Notes: "too short"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Contains(t, err.(*apperrors.StandardError).Message, "Notes must be at least 10 characters")

	err = Struct(eddRequest{Notes: "long enough notes", Decision: "MAYBE"})
	require.Error(t, err)
	assert.Contains(t, err.(*apperrors.StandardError).Details, "Decision must be one of ACCEPT REJECT")
}
