package validation

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// SchemaName identifies one of the request schemas of the HTTP API.
type SchemaName string

const (
	SchemaUserToTeams   SchemaName = "user-to-teams"
	SchemaTeamToUsers   SchemaName = "team-to-users"
	SchemaCompatibility SchemaName = "calculate-compatibility"
	SchemaSkillGaps     SchemaName = "analyze-skill-gaps"
	SchemaTeamRadar     SchemaName = "analyze-team-radar"
)

const matchOverrides = `
		"event_id":   {"type": "string"},
		"threshold":  {"type": "number", "minimum": 0, "maximum": 1},
		"limit":      {"type": "integer", "minimum": 1, "maximum": 100},
		"skip_cache": {"type": "boolean"}`

var schemaSources = map[SchemaName]string{
	SchemaUserToTeams: `{
		"type": "object",
		"required": ["user_id"],
		"properties": {
			"user_id": {"type": "string", "minLength": 1},` + matchOverrides + `
		}
	}`,
	SchemaTeamToUsers: `{
		"type": "object",
		"required": ["team_id"],
		"properties": {
			"team_id": {"type": "string", "minLength": 1},` + matchOverrides + `
		}
	}`,
	SchemaCompatibility: `{
		"type": "object",
		"required": ["user_id", "team_id"],
		"properties": {
			"user_id": {"type": "string", "minLength": 1},
			"team_id": {"type": "string", "minLength": 1}
		}
	}`,
	SchemaSkillGaps: `{
		"type": "object",
		"required": ["required_skills"],
		"properties": {
			"current_skills":  {"type": ["array", "null"], "items": {"type": "string"}},
			"required_skills": {"type": ["array", "null"], "items": {"type": "string"}}
		}
	}`,
	SchemaTeamRadar: `{
		"type": "object",
		"required": ["messages"],
		"properties": {
			"team_id":  {"type": "string"},
			"messages": {"type": ["array", "null"], "items": {"type": "string"}}
		}
	}`,
}

var compiled sync.Map // schema source -> *gojsonschema.Schema

func compile(source string) (*gojsonschema.Schema, error) {
	if s, ok := compiled.Load(source); ok {
		return s.(*gojsonschema.Schema), nil
	}
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	compiled.Store(source, s)
	return s, nil
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Validate checks a raw JSON document against one of the named API schemas.
func Validate(name SchemaName, document []byte) (*ValidationResult, error) {
	source, ok := schemaSources[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	return ValidateAgainst(source, document)
}

// ValidateAgainst checks a raw JSON document against a schema given as JSON source.
// A malformed document is reported as a validation failure on field "(root)".
func ValidateAgainst(source string, document []byte) (*ValidationResult, error) {
	schema, err := compile(source)
	if err != nil {
		return nil, err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(root)",
				Message: err.Error(),
				Code:    "MALFORMED_JSON",
			}},
		}, nil
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   desc.Field(),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	sort.Slice(out.Errors, func(i, j int) bool {
		if out.Errors[i].Field != out.Errors[j].Field {
			return out.Errors[i].Field < out.Errors[j].Field
		}
		return out.Errors[i].Code < out.Errors[j].Code
	})
	return out, nil
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// Summary joins every message into one line for error details.
func (vr *ValidationResult) Summary() string {
	return strings.Join(vr.GetErrorMessages(), "; ")
}
