// Package persona classifies free-text persona descriptions into business
// role cohorts using keyword rules.
package persona

import (
	"errors"
	"fmt"
	"strings"
)

// Role is a closed set of business-role cohorts. The zero value is not a
// valid role.
type Role uint8

const (
	RoleITAdmin Role = iota + 1
	RoleFacilities
	RoleExecutive
	RoleRetail
	RoleMultifamily
)

// ErrUnknownRole is returned by ParseRole for names outside the closed set.
var ErrUnknownRole = errors.New("unknown role")

// Priority is the fixed order in which roles are tested by Classify.
// Specific job families come first; EXECUTIVE is last because its keywords
// ("director", "owner", "head of") also occur inside the other families'
// titles. FACILITIES follows RETAIL so that "retail operations manager"
// stays a retail persona.
var Priority = []Role{
	RoleITAdmin,
	RoleRetail,
	RoleMultifamily,
	RoleFacilities,
	RoleExecutive,
}

// String returns the cohort key, e.g. "IT_ADMIN".
func (r Role) String() string {
	switch r {
	case RoleITAdmin:
		return "IT_ADMIN"
	case RoleFacilities:
		return "FACILITIES"
	case RoleExecutive:
		return "EXECUTIVE"
	case RoleRetail:
		return "RETAIL"
	case RoleMultifamily:
		return "MULTIFAMILY"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// Selector returns the lower-case name used on the command line.
func (r Role) Selector() string {
	return strings.ToLower(r.String())
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	return r >= RoleITAdmin && r <= RoleMultifamily
}

// Keywords returns the phrases that select r. Matching is done against
// lower-cased persona text, so every phrase is lower case.
func (r Role) Keywords() []string {
	switch r {
	case RoleITAdmin:
		return []string{
			"it administrator", "system admin", "network admin", "it manager",
			"technology manager", "cio", "it director", "infrastructure",
			"systems engineer", "tech lead", "information technology",
			"software engineer", "devops", "system architect",
		}
	case RoleFacilities:
		return []string{
			"facility manager", "building manager", "maintenance manager",
			"operations manager", "property maintenance", "facility operations",
			"building maintenance", "facilities director", "site manager",
		}
	case RoleExecutive:
		return []string{
			"ceo", "cto", "cfo", "executive", "director", "vp", "chief",
			"president", "head of", "founder", "owner", "board member",
			"managing director", "senior executive",
		}
	case RoleRetail:
		return []string{
			"retail manager", "store manager", "merchandising",
			"retail operations", "shop owner", "retail director",
			"sales manager", "store owner", "retail supervisor",
		}
	case RoleMultifamily:
		return []string{
			"property manager", "leasing manager", "real estate manager",
			"housing manager", "apartment manager", "residential manager",
			"community manager", "building supervisor", "property supervisor",
		}
	default:
		return nil
	}
}

// ParseRole accepts either the selector ("it_admin") or the cohort key
// ("IT_ADMIN"), case-insensitively.
func ParseRole(name string) (Role, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "-", "_")
	for _, r := range Priority {
		if r.Selector() == n {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w %q: must be one of %s", ErrUnknownRole, name, strings.Join(Selectors(), ", "))
}

// Selectors lists the command-line names of all roles in declaration order.
func Selectors() []string {
	return []string{
		RoleITAdmin.Selector(),
		RoleFacilities.Selector(),
		RoleExecutive.Selector(),
		RoleRetail.Selector(),
		RoleMultifamily.Selector(),
	}
}

// MarshalText encodes the cohort key so roles can be used as JSON map keys.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("marshaling %s: %w", r, ErrUnknownRole)
	}
	return []byte(r.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (r *Role) UnmarshalText(b []byte) error {
	role, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = role
	return nil
}
