package mongodb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"agencycrm/internal/core"
	"agencycrm/internal/records"
)

const ProfilesCollection = "profiles"

// Ensure interface conformance
var (
	_ records.RecordStore  = (*Repository)(nil)
	_ records.ProfileStore = (*Repository)(nil)
)

// Repository stores leads and quotations in collections named after their
// kind, and profiles keyed by lowercased email.
type Repository struct {
	provider CollectionProvider
}

func NewRepository(provider CollectionProvider) *Repository {
	return &Repository{provider: provider}
}

func (r *Repository) Create(ctx context.Context, rec core.Record) error {
	if !rec.Kind.IsValid() {
		return core.ErrInvalidKind
	}
	if _, err := r.provider.Collection(rec.Kind.String()).InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert %s %s: %w", rec.Kind, rec.ID, err)
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, rec core.Record) error {
	if !rec.Kind.IsValid() {
		return core.ErrInvalidKind
	}
	res, err := r.provider.Collection(rec.Kind.String()).ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec)
	if err != nil {
		return fmt.Errorf("replace %s %s: %w", rec.Kind, rec.ID, err)
	}
	if res.MatchedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, kind core.RecordKind, id string) error {
	if !kind.IsValid() {
		return core.ErrInvalidKind
	}
	res, err := r.provider.Collection(kind.String()).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	if res.DeletedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, kind core.RecordKind, id string) (core.Record, error) {
	if !kind.IsValid() {
		return core.Record{}, core.ErrInvalidKind
	}
	var rec core.Record
	err := r.provider.Collection(kind.String()).FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return core.Record{}, core.ErrNotFound
		}
		return core.Record{}, fmt.Errorf("find %s %s: %w", kind, id, err)
	}
	rec.Kind = kind
	return rec, nil
}

func (r *Repository) List(ctx context.Context, kind core.RecordKind) ([]core.Record, error) {
	if !kind.IsValid() {
		return nil, core.ErrInvalidKind
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := r.provider.Collection(kind.String()).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", kind, err)
	}
	defer cur.Close(ctx)

	var out []core.Record
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	for i := range out {
		out[i].Kind = kind
	}
	return out, nil
}

func (r *Repository) GetProfile(ctx context.Context, email string) (core.Profile, error) {
	var p core.Profile
	err := r.provider.Collection(ProfilesCollection).FindOne(ctx, bson.M{"_id": profileKey(email)}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return core.Profile{}, core.ErrNotFound
		}
		return core.Profile{}, fmt.Errorf("find profile %s: %w", email, err)
	}
	return p, nil
}

func (r *Repository) ListProfiles(ctx context.Context) ([]core.Profile, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := r.provider.Collection(ProfilesCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find profiles: %w", err)
	}
	defer cur.Close(ctx)

	var out []core.Profile
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	return out, nil
}

// SaveProfile upserts a profile.
func (r *Repository) SaveProfile(ctx context.Context, p core.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	p.Email = profileKey(p.Email)
	_, err := r.provider.Collection(ProfilesCollection).
		ReplaceOne(ctx, bson.M{"_id": p.Email}, p, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save profile %s: %w", p.Email, err)
	}
	return nil
}

func profileKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
