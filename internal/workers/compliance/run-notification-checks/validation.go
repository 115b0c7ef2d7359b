package runnotificationchecks

import "letting-compliance/internal/common/validation"

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"asOf": {
			"type": "string",
			"format": "date-time",
			"description": "Run the sweeps as of this instant instead of now"
		}
	}
}`)

func validateInput(vars map[string]interface{}) *validation.ValidationResult {
	return inputSchema.ValidateInput(vars)
}
