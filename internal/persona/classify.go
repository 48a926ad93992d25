package persona

import "strings"

// Persona is one free-text description from the corpus.
type Persona struct {
	Original   string
	Normalized string
}

// New returns the Persona for text.
func New(text string) Persona {
	return Persona{
		Original:   text,
		Normalized: strings.ToLower(strings.TrimSpace(text)),
	}
}

// Classify returns the first role in Priority whose keywords occur in the
// normalized text. ok is false when no keyword matches.
func Classify(text string) (role Role, ok bool) {
	return New(text).Role()
}

// Role classifies p. See Classify.
func (p Persona) Role() (Role, bool) {
	for _, r := range Priority {
		for _, kw := range r.Keywords() {
			if strings.Contains(p.Normalized, kw) {
				return r, true
			}
		}
	}
	return 0, false
}
