package screensubject

import "letting-compliance/internal/common/validation"

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["userId", "screeningId"],
	"properties": {
		"userId": {"type": "string", "minLength": 1, "maxLength": 64},
		"screeningId": {"type": "string", "minLength": 1, "maxLength": 64}
	}
}`)

func validateInput(vars map[string]interface{}) *validation.ValidationResult {
	return inputSchema.ValidateInput(vars)
}
