// Package prompt renders the role-specific evaluation prompts sent to the
// judge and declares the output schema each role expects back.
package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/drpaneas/resonance/internal/persona"
)

// ErrUnknownTemplate is returned for roles that own no template.
var ErrUnknownTemplate = errors.New("unknown template")

// Template is one role's prompt with persona and message slots.
type Template struct {
	Role   persona.Role
	Schema Schema
	tmpl   *template.Template
}

type slots struct {
	Persona string
	Message string
	Schema  Schema
}

var (
	itAdminTemplate     = mustTemplate(persona.RoleITAdmin, genericSchema, itAdminText)
	facilitiesTemplate  = mustTemplate(persona.RoleFacilities, genericSchema, facilitiesText)
	executiveTemplate   = mustTemplate(persona.RoleExecutive, genericSchema, executiveText)
	retailTemplate      = mustTemplate(persona.RoleRetail, retailSchema, retailText)
	multifamilyTemplate = mustTemplate(persona.RoleMultifamily, multifamilySchema, multifamilyText)
)

func mustTemplate(role persona.Role, schema Schema, text string) *Template {
	return &Template{
		Role:   role,
		Schema: schema,
		tmpl:   template.Must(template.New(role.Selector()).Parse(text + schemaText)),
	}
}

// ForRole returns the template owned by role.
func ForRole(role persona.Role) (*Template, error) {
	switch role {
	case persona.RoleITAdmin:
		return itAdminTemplate, nil
	case persona.RoleFacilities:
		return facilitiesTemplate, nil
	case persona.RoleExecutive:
		return executiveTemplate, nil
	case persona.RoleRetail:
		return retailTemplate, nil
	case persona.RoleMultifamily:
		return multifamilyTemplate, nil
	default:
		return nil, fmt.Errorf("%w for role %s", ErrUnknownTemplate, role)
	}
}

// Compose fills the template with the trimmed persona and message text.
// Both values are inserted verbatim.
func (t *Template) Compose(personaText, message string) (string, error) {
	if t == nil || t.tmpl == nil {
		return "", ErrUnknownTemplate
	}
	var buf bytes.Buffer
	err := t.tmpl.Execute(&buf, slots{
		Persona: strings.TrimSpace(personaText),
		Message: strings.TrimSpace(message),
		Schema:  t.Schema,
	})
	if err != nil {
		return "", fmt.Errorf("executing %s template: %w", t.Role.Selector(), err)
	}
	return buf.String(), nil
}

// SystemPrompt is the judge instruction sent alongside every prompt built
// from t.
func (t *Template) SystemPrompt() string {
	return fmt.Sprintf(systemText, t.Schema.ScoreField)
}
