package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"agencycrm/internal/core"
)

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := New(nil)

	r := core.Record{ID: "1", Kind: core.KindLead, Student: "Asha", Author: "a@x", Course: []core.Course{{CourseFee: "100"}}}
	if err := s.Create(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.Create(ctx, r); err == nil {
		t.Fatalf("duplicate create should fail")
	}

	// Mutating the caller's copy must not leak into the store.
	r.Course[0].CourseFee = "999"
	got, err := s.Get(ctx, core.KindLead, "1")
	if err != nil || got.Course[0].CourseFee != "100" {
		t.Fatalf("unexpected get: %+v err=%v", got, err)
	}

	got.Student = "Asha K"
	if err := s.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := s.Get(ctx, core.KindQuotation, "1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("kinds must be separate, got %v", err)
	}

	if err := s.Delete(ctx, core.KindLead, "1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, core.KindLead, "1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete expected ErrNotFound, got %v", err)
	}
	if err := s.Update(ctx, got); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("update after delete expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreListOrder(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	s := New(nil,
		core.Record{ID: "b", Kind: core.KindLead, CreatedAt: base.Add(time.Hour)},
		core.Record{ID: "a", Kind: core.KindLead, CreatedAt: base},
	)
	list, _ := s.List(ctx, core.KindLead)
	if len(list) != 2 || list[0].ID != "a" || list[1].ID != "b" {
		t.Fatalf("unexpected order: %+v", list)
	}
}

func TestMemoryStoreProfiles(t *testing.T) {
	ctx := context.Background()
	s := New([]core.Profile{{Email: "Admin@X", Role: core.RoleAdmin}})
	if _, err := s.GetProfile(ctx, "admin@x"); err != nil {
		t.Fatalf("lookup should be case-insensitive: %v", err)
	}
	if err := s.SaveProfile(ctx, core.Profile{Email: "s@x", Role: core.RoleSubAgent}); err == nil {
		t.Fatalf("invalid profile should be rejected")
	}
	if err := s.SaveProfile(ctx, core.Profile{Email: "b@x", Role: core.RoleAgent}); err != nil {
		t.Fatalf("save: %v", err)
	}
	all, _ := s.ListProfiles(ctx)
	if len(all) != 2 || all[0].Email != "Admin@X" || all[1].Email != "b@x" {
		t.Fatalf("unexpected profiles: %+v", all)
	}
}

func TestNewFromFiles(t *testing.T) {
	dir := t.TempDir()
	// No files -> empty store
	s, err := NewFromFiles(dir)
	if err != nil {
		t.Fatalf("empty dir: %v", err)
	}
	if list, _ := s.List(context.Background(), core.KindLead); len(list) != 0 {
		t.Fatalf("expected no leads")
	}

	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite("profiles.json", `[{"email":"a@x","role":"agent","salesTarget":"10,000"}]`)
	mustWrite("leads.json", `[{"id":"l1","student":"S","author":"a@x","course":[{"courseFee":1200}]}]`)

	s, err = NewFromFiles(dir)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	lead, err := s.Get(context.Background(), core.KindLead, "l1")
	if err != nil || lead.Kind != core.KindLead || lead.Course[0].CourseFee != "1200" {
		t.Fatalf("unexpected lead: %+v err=%v", lead, err)
	}

	mustWrite("quotations.json", `{not json`)
	if _, err := NewFromFiles(dir); err == nil {
		t.Fatalf("malformed file should fail")
	}
}
