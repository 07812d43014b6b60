package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"agencycrm/internal/core"
	"agencycrm/internal/records"
)

// Ensure interface conformance
var (
	_ records.RecordStore  = (*Store)(nil)
	_ records.ProfileStore = (*Store)(nil)
)

type Store struct {
	mu       sync.Mutex
	records  map[core.RecordKind][]core.Record
	profiles map[string]core.Profile
}

func New(profiles []core.Profile, recs ...core.Record) *Store {
	s := &Store{
		records:  make(map[core.RecordKind][]core.Record),
		profiles: make(map[string]core.Profile),
	}
	for _, p := range profiles {
		s.profiles[profileKey(p.Email)] = p
	}
	for _, r := range recs {
		s.records[r.Kind] = append(s.records[r.Kind], r.Clone())
	}
	return s
}

// NewFromFiles seeds the store from profiles.json, leads.json and
// quotations.json under base. Missing files are skipped; malformed files are
// reported.
func NewFromFiles(base string) (*Store, error) {
	var profiles []core.Profile
	if err := readJSON(filepath.Join(base, "profiles.json"), &profiles); err != nil {
		return nil, err
	}
	var recs []core.Record
	for _, kind := range []core.RecordKind{core.KindLead, core.KindQuotation} {
		var batch []core.Record
		if err := readJSON(filepath.Join(base, kind.String()+".json"), &batch); err != nil {
			return nil, err
		}
		for i := range batch {
			batch[i].Kind = kind
		}
		recs = append(recs, batch...)
	}
	return New(profiles, recs...), nil
}

func (s *Store) Create(_ context.Context, r core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(r.Kind, r.ID) >= 0 {
		return fmt.Errorf("%s %s already exists", r.Kind, r.ID)
	}
	s.records[r.Kind] = append(s.records[r.Kind], r.Clone())
	return nil
}

func (s *Store) Update(_ context.Context, r core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(r.Kind, r.ID)
	if i < 0 {
		return core.ErrNotFound
	}
	s.records[r.Kind][i] = r.Clone()
	return nil
}

func (s *Store) Delete(_ context.Context, kind core.RecordKind, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(kind, id)
	if i < 0 {
		return core.ErrNotFound
	}
	list := s.records[kind]
	s.records[kind] = append(list[:i:i], list[i+1:]...)
	return nil
}

func (s *Store) Get(_ context.Context, kind core.RecordKind, id string) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(kind, id)
	if i < 0 {
		return core.Record{}, core.ErrNotFound
	}
	return s.records[kind][i].Clone(), nil
}

// List returns copies in creation order.
func (s *Store) List(_ context.Context, kind core.RecordKind) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	src := s.records[kind]
	out := make([]core.Record, len(src))
	for i, r := range src {
		out[i] = r.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetProfile(_ context.Context, email string) (core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[profileKey(email)]
	if !ok {
		return core.Profile{}, core.ErrNotFound
	}
	return p, nil
}

// ListProfiles returns profiles sorted by email.
func (s *Store) ListProfiles(_ context.Context) ([]core.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return profileKey(out[i].Email) < profileKey(out[j].Email) })
	return out, nil
}

func (s *Store) SaveProfile(_ context.Context, p core.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profileKey(p.Email)] = p
	return nil
}

func (s *Store) indexOf(kind core.RecordKind, id string) int {
	for i, r := range s.records[kind] {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func profileKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
