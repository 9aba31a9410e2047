package templatefmt

import (
	"fmt"
	"strings"
	"text/template"
)

// Fields is the fixed substitution set available to alarm message templates.
// Params: tag identity, configured description, triggering value, and breached limit.
// Returns: statically-checked template context.
type Fields struct {
	Tag         string
	Description string
	Value       float64
	Limit       string
}

// Parse parses one alarm message template against the fixed field set.
// Params: template name and body.
// Returns: compiled template or parse error.
func Parse(name, body string) (*template.Template, error) {
	return template.New(name).Option("missingkey=error").Parse(body)
}

// Render renders template body over fields.
// Params: template body and substitution fields.
// Returns: rendered message or parse/execute error.
func Render(body string, fields Fields) (string, error) {
	compiled, err := Parse("message", body)
	if err != nil {
		return "", fmt.Errorf("parse message template: %w", err)
	}
	var builder strings.Builder
	if err := compiled.Execute(&builder, fields); err != nil {
		return "", fmt.Errorf("render message template: %w", err)
	}
	return builder.String(), nil
}

// Fallback renders safe default message when configured template fails.
// Params: substitution fields.
// Returns: deterministic fallback message.
func Fallback(fields Fields) string {
	description := strings.TrimSpace(fields.Description)
	if description == "" {
		description = fields.Tag
	}
	return fmt.Sprintf("%s: %s - value %.2f (limit %s)", fields.Tag, description, fields.Value, fields.Limit)
}
