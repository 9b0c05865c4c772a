package security

import (
	"fmt"
	"strings"
)

// Roles that see everything.
var unrestrictedRoles = map[string]bool{
	"admin":       true,
	"hr_admin":    true,
	"super_admin": true,
}

const fallbackRole = "employee"

// AccessChecker decides whether a role may ask a given question.
type AccessChecker struct {
	restricted map[string][]string
}

// NewAccessChecker takes role -> restricted phrases. Phrases are matched case
// insensitively as substrings.
func NewAccessChecker(restrictions map[string][]string) *AccessChecker {
	lower := make(map[string][]string, len(restrictions))
	for role, phrases := range restrictions {
		out := make([]string, 0, len(phrases))
		for _, p := range phrases {
			if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
				out = append(out, p)
			}
		}
		lower[strings.ToLower(role)] = out
	}
	return &AccessChecker{restricted: lower}
}

// AccessResult is the outcome of CheckAccess.
type AccessResult struct {
	Safe   bool   `json:"safe"`
	Reason string `json:"reason,omitempty"`
}

// CheckAccess applies the rules for role, using the employee rules for roles
// it does not know.
func (c *AccessChecker) CheckAccess(text, role string) AccessResult {
	role = strings.ToLower(strings.TrimSpace(role))
	if unrestrictedRoles[role] {
		return AccessResult{Safe: true}
	}
	phrases, ok := c.restricted[role]
	if !ok {
		phrases = c.restricted[fallbackRole]
	}
	lower := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return AccessResult{
				Safe:   false,
				Reason: fmt.Sprintf("role %q may not request %q", displayRole(role), p),
			}
		}
	}
	return AccessResult{Safe: true}
}

func displayRole(role string) string {
	if role == "" {
		return fallbackRole
	}
	return role
}
