package services

import (
	"strings"

	"agencycrm/internal/core"
)

// Scope is what one actor may see and do, resolved once per request.
type Scope struct {
	Actor   core.Profile
	authors map[string]struct{} // agents: self plus sub-agents
}

// NewScope builds the scope of actor. profiles is only consulted for agents,
// whose visibility extends to their sub-agents.
func NewScope(actor core.Profile, profiles []core.Profile) Scope {
	s := Scope{Actor: actor}
	if actor.Role == core.RoleAgent || actor.Role == core.RoleSubAgent {
		s.authors = map[string]struct{}{normEmail(actor.Email): {}}
	}
	if actor.Role == core.RoleAgent {
		for _, p := range profiles {
			if p.Role == core.RoleSubAgent && normEmail(p.Parent) == normEmail(actor.Email) {
				s.authors[normEmail(p.Email)] = struct{}{}
			}
		}
	}
	return s
}

// CanView reports whether the actor may read r.
func (s Scope) CanView(r core.Record) bool {
	switch s.Actor.Role {
	case core.RoleSuperAdmin, core.RoleAdmin:
		return true
	case core.RoleCountryManager:
		return s.Actor.Country != "" && strings.EqualFold(r.Home.Country, s.Actor.Country)
	case core.RoleAgent, core.RoleSubAgent:
		_, ok := s.authors[normEmail(r.Author)]
		return ok
	}
	return false
}

// CanViewProfile reports whether a profile's target counts in the actor's reports.
func (s Scope) CanViewProfile(p core.Profile) bool {
	switch s.Actor.Role {
	case core.RoleSuperAdmin, core.RoleAdmin:
		return true
	case core.RoleCountryManager:
		return s.Actor.Country != "" && strings.EqualFold(p.Country, s.Actor.Country)
	case core.RoleAgent, core.RoleSubAgent:
		_, ok := s.authors[normEmail(p.Email)]
		return ok
	}
	return false
}

// CanEdit reports whether the actor may change or delete r. Privileged roles
// may edit anything they see; everyone else only what they authored.
func (s Scope) CanEdit(r core.Record) bool {
	if !s.CanView(r) {
		return false
	}
	if s.Actor.Role.IsPrivileged() || s.Actor.Role == core.RoleCountryManager {
		return true
	}
	return normEmail(r.Author) == normEmail(s.Actor.Email)
}

// CanChangePaymentStatus is the privilege check for the status cycle.
func (s Scope) CanChangePaymentStatus() bool {
	return s.Actor.Role.IsPrivileged()
}

// Filter keeps the records the actor may view.
func (s Scope) Filter(records []core.Record) []core.Record {
	out := make([]core.Record, 0, len(records))
	for _, r := range records {
		if s.CanView(r) {
			out = append(out, r)
		}
	}
	return out
}

func normEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
