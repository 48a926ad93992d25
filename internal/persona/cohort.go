package persona

import (
	"fmt"
	"strings"
)

// EmptyCohortError is returned when the requested role has no personas.
type EmptyCohortError struct {
	Role      Role
	Available []Role
}

func (e *EmptyCohortError) Error() string {
	names := make([]string, len(e.Available))
	for i, r := range e.Available {
		names[i] = r.String()
	}
	avail := "none"
	if len(names) > 0 {
		avail = strings.Join(names, ", ")
	}
	return fmt.Sprintf("no personas found for role %s (available cohorts: %s)", e.Role, avail)
}

// Cohorts groups classified persona texts by role, preserving the order in
// which they were first seen. Each cohort holds distinct texts.
type Cohorts struct {
	members    map[Role][]string
	seen       map[Role]map[string]struct{}
	dropped    int
	duplicates int
}

// BuildCohorts classifies every text and appends the trimmed original to
// its role's cohort. Unclassified and blank texts are dropped.
func BuildCohorts(texts []string) *Cohorts {
	c := &Cohorts{
		members: make(map[Role][]string),
		seen:    make(map[Role]map[string]struct{}),
	}
	for _, text := range texts {
		c.Add(text)
	}
	return c
}

// Add classifies text and appends it to its cohort. It reports whether the
// text was kept; repeats of a text already in the cohort are not.
func (c *Cohorts) Add(text string) bool {
	p := New(text)
	role, ok := p.Role()
	original := strings.TrimSpace(p.Original)
	if !ok || original == "" {
		c.dropped++
		return false
	}
	seen := c.seen[role]
	if seen == nil {
		seen = make(map[string]struct{})
		c.seen[role] = seen
	}
	if _, dup := seen[original]; dup {
		c.duplicates++
		return false
	}
	seen[original] = struct{}{}
	c.members[role] = append(c.members[role], original)
	return true
}

// Members returns the cohort for role. The slice must not be modified.
func (c *Cohorts) Members(role Role) []string {
	return c.members[role]
}

// Roles returns the roles with at least one persona, in Priority order.
func (c *Cohorts) Roles() []Role {
	var roles []Role
	for _, r := range Priority {
		if len(c.members[r]) > 0 {
			roles = append(roles, r)
		}
	}
	return roles
}

// Sizes returns the number of personas per non-empty cohort.
func (c *Cohorts) Sizes() map[Role]int {
	sizes := make(map[Role]int, len(c.members))
	for r, m := range c.members {
		if len(m) > 0 {
			sizes[r] = len(m)
		}
	}
	return sizes
}

// Dropped returns how many texts matched no role or were blank.
func (c *Cohorts) Dropped() int {
	return c.dropped
}

// Duplicates returns how many classified texts repeated an earlier member.
func (c *Cohorts) Duplicates() int {
	return c.duplicates
}

// Select returns the first n members of role's cohort, or all of them when
// n <= 0 or n exceeds the cohort size.
func (c *Cohorts) Select(role Role, n int) ([]string, error) {
	members := c.members[role]
	if len(members) == 0 {
		return nil, &EmptyCohortError{Role: role, Available: c.Roles()}
	}
	if n <= 0 || n > len(members) {
		n = len(members)
	}
	out := make([]string, n)
	copy(out, members[:n])
	return out, nil
}

// Map returns a copy of all non-empty cohorts keyed by role.
func (c *Cohorts) Map() map[Role][]string {
	out := make(map[Role][]string, len(c.members))
	for r, m := range c.members {
		if len(m) > 0 {
			out[r] = append([]string(nil), m...)
		}
	}
	return out
}
