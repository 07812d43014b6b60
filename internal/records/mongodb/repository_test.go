package mongodb_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"agencycrm/internal/core"
	"agencycrm/internal/records/mongodb"
)

// Mock for DataStore interface.
type mockDataStore struct {
	insertOneFunc  func(ctx context.Context, document interface{}) (*mongo.InsertOneResult, error)
	replaceOneFunc func(ctx context.Context, filter, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error)
	deleteOneFunc  func(ctx context.Context, filter interface{}) (*mongo.DeleteResult, error)
	findOneFunc    func(ctx context.Context, filter interface{}) *mongo.SingleResult
	findFunc       func(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

func (m *mockDataStore) InsertOne(ctx context.Context, document interface{}, _ ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if m.insertOneFunc != nil {
		return m.insertOneFunc(ctx, document)
	}
	return &mongo.InsertOneResult{}, nil
}

func (m *mockDataStore) ReplaceOne(ctx context.Context, filter, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
	if m.replaceOneFunc != nil {
		return m.replaceOneFunc(ctx, filter, replacement, opts...)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockDataStore) DeleteOne(ctx context.Context, filter interface{}, _ ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	if m.deleteOneFunc != nil {
		return m.deleteOneFunc(ctx, filter)
	}
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

func (m *mockDataStore) FindOne(ctx context.Context, filter interface{}, _ ...*options.FindOneOptions) *mongo.SingleResult {
	if m.findOneFunc != nil {
		return m.findOneFunc(ctx, filter)
	}
	return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
}

func (m *mockDataStore) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	if m.findFunc != nil {
		return m.findFunc(ctx, filter, opts...)
	}
	return mongo.NewCursorFromDocuments(nil, nil, nil)
}

// Mock for CollectionProvider interface.
type mockCollectionProvider struct {
	collectionFunc func(name string) mongodb.DataStore
}

func (m *mockCollectionProvider) Collection(name string) mongodb.DataStore {
	if m.collectionFunc != nil {
		return m.collectionFunc(name)
	}
	return &mockDataStore{}
}

func providerFor(t *testing.T, wantName string, ds *mockDataStore) *mockCollectionProvider {
	return &mockCollectionProvider{
		collectionFunc: func(name string) mongodb.DataStore {
			if name != wantName {
				t.Errorf("Expected collection %s, got %s", wantName, name)
			}
			return ds
		},
	}
}

func TestCreate_UsesKindCollection(t *testing.T) {
	var inserted interface{}
	ds := &mockDataStore{
		insertOneFunc: func(_ context.Context, document interface{}) (*mongo.InsertOneResult, error) {
			inserted = document
			return &mongo.InsertOneResult{InsertedID: "q1"}, nil
		},
	}
	repo := mongodb.NewRepository(providerFor(t, "quotations", ds))

	rec := core.Record{ID: "q1", Kind: core.KindQuotation, Student: "Asha"}
	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if got, ok := inserted.(core.Record); !ok || got.ID != "q1" {
		t.Errorf("Expected record document, got %T", inserted)
	}

	if err := repo.Create(context.Background(), core.Record{ID: "x", Kind: "students"}); !errors.Is(err, core.ErrInvalidKind) {
		t.Errorf("Expected ErrInvalidKind, got %v", err)
	}
}

func TestCreate_InsertError(t *testing.T) {
	expectedErr := errors.New("duplicate key")
	ds := &mockDataStore{
		insertOneFunc: func(context.Context, interface{}) (*mongo.InsertOneResult, error) {
			return nil, expectedErr
		},
	}
	repo := mongodb.NewRepository(providerFor(t, "leads", ds))
	err := repo.Create(context.Background(), core.Record{ID: "l1", Kind: core.KindLead})
	if err == nil || !strings.Contains(err.Error(), expectedErr.Error()) {
		t.Errorf("Expected insert error, got: %v", err)
	}
}

func TestGet_DecodesNumericAmounts(t *testing.T) {
	created := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	ds := &mockDataStore{
		findOneFunc: func(_ context.Context, filter interface{}) *mongo.SingleResult {
			f, ok := filter.(bson.M)
			if !ok || f["_id"] != "q1" {
				t.Errorf("unexpected filter %v", filter)
			}
			doc := bson.D{
				{Key: "_id", Value: "q1"},
				{Key: "student", Value: "Asha"},
				{Key: "course", Value: bson.A{bson.D{{Key: "courseFee", Value: 1200.5}}}},
				{Key: "services", Value: bson.A{bson.D{{Key: "amount", Value: int32(300)}}}},
				{Key: "discount", Value: "1,000"},
				{Key: "paymentStatus", Value: "Accepted"},
				{Key: "createdAt", Value: created},
			}
			return mongo.NewSingleResultFromDocument(doc, nil, nil)
		},
	}
	repo := mongodb.NewRepository(providerFor(t, "quotations", ds))

	rec, err := repo.Get(context.Background(), core.KindQuotation, "q1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.Kind != core.KindQuotation || rec.Course[0].CourseFee != "1200.5" || rec.Services[0].Amount != "300" {
		t.Errorf("unexpected record %+v", rec)
	}
	f := core.ComputeFinancials(rec)
	if f.GrandTotal.String() != "500.5" {
		t.Errorf("GrandTotal = %s, want 500.5", f.GrandTotal)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo := mongodb.NewRepository(&mockCollectionProvider{})
	if _, err := repo.Get(context.Background(), core.KindLead, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetProfile(context.Background(), "nobody@x"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestUpdateAndDelete_NotFound(t *testing.T) {
	ds := &mockDataStore{
		replaceOneFunc: func(context.Context, interface{}, interface{}, ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
			return &mongo.UpdateResult{MatchedCount: 0}, nil
		},
		deleteOneFunc: func(context.Context, interface{}) (*mongo.DeleteResult, error) {
			return &mongo.DeleteResult{DeletedCount: 0}, nil
		},
	}
	repo := mongodb.NewRepository(providerFor(t, "leads", ds))
	ctx := context.Background()

	if err := repo.Update(ctx, core.Record{ID: "l1", Kind: core.KindLead}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Update: expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, core.KindLead, "l1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Delete: expected ErrNotFound, got %v", err)
	}
}

func TestList_SortsByCreatedAt(t *testing.T) {
	ds := &mockDataStore{
		findFunc: func(_ context.Context, _ interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
			if len(opts) != 1 || opts[0].Sort == nil {
				t.Errorf("Expected a sort option")
			}
			docs := []interface{}{
				bson.D{{Key: "_id", Value: "a"}, {Key: "student", Value: "A"}},
				bson.D{{Key: "_id", Value: "b"}, {Key: "student", Value: "B"}},
			}
			return mongo.NewCursorFromDocuments(docs, nil, nil)
		},
	}
	repo := mongodb.NewRepository(providerFor(t, "leads", ds))

	list, err := repo.List(context.Background(), core.KindLead)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(list) != 2 || list[0].ID != "a" || list[1].Kind != core.KindLead {
		t.Errorf("unexpected list %+v", list)
	}
}

func TestSaveProfile_UpsertsLowercasedEmail(t *testing.T) {
	var upsert bool
	var saved core.Profile
	ds := &mockDataStore{
		replaceOneFunc: func(_ context.Context, filter, replacement interface{}, opts ...*options.ReplaceOptions) (*mongo.UpdateResult, error) {
			if f := filter.(bson.M); f["_id"] != "agent@x" {
				t.Errorf("unexpected filter %v", filter)
			}
			saved = replacement.(core.Profile)
			upsert = len(opts) == 1 && opts[0].Upsert != nil && *opts[0].Upsert
			return &mongo.UpdateResult{UpsertedCount: 1}, nil
		},
	}
	repo := mongodb.NewRepository(providerFor(t, mongodb.ProfilesCollection, ds))

	if err := repo.SaveProfile(context.Background(), core.Profile{Email: " Agent@X ", Role: core.RoleAgent}); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}
	if !upsert || saved.Email != "agent@x" {
		t.Errorf("upsert=%v saved=%+v", upsert, saved)
	}
	if err := repo.SaveProfile(context.Background(), core.Profile{Email: "x@x", Role: "boss"}); !errors.Is(err, core.ErrInvalidRole) {
		t.Errorf("Expected ErrInvalidRole, got %v", err)
	}
}
