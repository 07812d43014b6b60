package services

import (
	"testing"

	"agencycrm/internal/core"
)

func TestScope(t *testing.T) {
	profiles := []core.Profile{
		{Email: "agent@x", Role: core.RoleAgent},
		{Email: "sub@x", Role: core.RoleSubAgent, Parent: "Agent@x"},
		{Email: "other@x", Role: core.RoleSubAgent, Parent: "someone@x"},
	}
	own := core.Record{Author: "agent@x", Home: core.Home{Country: "Nepal"}}
	subs := core.Record{Author: "sub@x", Home: core.Home{Country: "India"}}
	foreign := core.Record{Author: "other@x", Home: core.Home{Country: "nepal"}}

	tests := []struct {
		name       string
		actor      core.Profile
		view       [3]bool
		edit       [3]bool
		changePaid bool
	}{
		{"super-admin", core.Profile{Email: "sa@x", Role: core.RoleSuperAdmin}, [3]bool{true, true, true}, [3]bool{true, true, true}, true},
		{"admin", core.Profile{Email: "ad@x", Role: core.RoleAdmin}, [3]bool{true, true, true}, [3]bool{true, true, true}, true},
		{"country-manager", core.Profile{Email: "cm@x", Role: core.RoleCountryManager, Country: "Nepal"}, [3]bool{true, false, true}, [3]bool{true, false, true}, false},
		{"country-manager without country", core.Profile{Email: "cm@x", Role: core.RoleCountryManager}, [3]bool{}, [3]bool{}, false},
		{"agent", core.Profile{Email: "agent@x", Role: core.RoleAgent}, [3]bool{true, true, false}, [3]bool{true, false, false}, false},
		{"sub-agent", core.Profile{Email: "sub@x", Role: core.RoleSubAgent, Parent: "agent@x"}, [3]bool{false, true, false}, [3]bool{false, true, false}, false},
		{"unknown role", core.Profile{Email: "x@x", Role: "guest"}, [3]bool{}, [3]bool{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScope(tt.actor, profiles)
			for i, r := range []core.Record{own, subs, foreign} {
				if got := s.CanView(r); got != tt.view[i] {
					t.Errorf("CanView(%s) = %v, want %v", r.Author, got, tt.view[i])
				}
				if got := s.CanEdit(r); got != tt.edit[i] {
					t.Errorf("CanEdit(%s) = %v, want %v", r.Author, got, tt.edit[i])
				}
			}
			if got := s.CanChangePaymentStatus(); got != tt.changePaid {
				t.Errorf("CanChangePaymentStatus = %v, want %v", got, tt.changePaid)
			}
		})
	}
}

func TestScopeFilterAndProfiles(t *testing.T) {
	profiles := []core.Profile{
		{Email: "agent@x", Role: core.RoleAgent, Country: "Nepal"},
		{Email: "sub@x", Role: core.RoleSubAgent, Parent: "agent@x", Country: "Nepal"},
		{Email: "far@x", Role: core.RoleAgent, Country: "India"},
	}
	s := NewScope(profiles[0], profiles)

	got := s.Filter([]core.Record{{Author: "far@x"}, {Author: "SUB@x"}, {Author: "agent@x"}})
	if len(got) != 2 || got[0].Author != "SUB@x" {
		t.Fatalf("unexpected filter result %+v", got)
	}
	if !s.CanViewProfile(profiles[1]) || s.CanViewProfile(profiles[2]) {
		t.Errorf("agent should see its sub-agent's profile only")
	}

	cm := NewScope(core.Profile{Role: core.RoleCountryManager, Country: "india"}, nil)
	if !cm.CanViewProfile(profiles[2]) || cm.CanViewProfile(profiles[0]) {
		t.Errorf("country manager should see profiles of its country only")
	}
}
