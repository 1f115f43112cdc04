package mongodb

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// fakeCollection stands in for a server-backed collection and records what it was asked.
type fakeCollection struct {
	mu sync.Mutex

	insertErr error
	inserted  []any

	one    *accountDocument // served by FindOne and FindOneAndUpdate
	oneErr error

	docs     []any
	findErr  error
	count    int64
	countErr error
	findOpts options.FindOptions

	deleted   int64
	deleteErr error

	filters []any
	updates []any
}

func (f *fakeCollection) record(filter any) {
	f.mu.Lock()
	f.filters = append(f.filters, filter)
	f.mu.Unlock()
}

func (f *fakeCollection) single() *mongo.SingleResult {
	if f.one == nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, f.oneErr, nil)
	}
	return mongo.NewSingleResultFromDocument(*f.one, f.oneErr, nil)
}

func (f *fakeCollection) InsertOne(_ context.Context, document any, _ ...options.Lister[options.InsertOneOptions]) (*mongo.InsertOneResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.inserted = append(f.inserted, document)
	return &mongo.InsertOneResult{Acknowledged: true}, nil
}

func (f *fakeCollection) FindOne(_ context.Context, filter any, _ ...options.Lister[options.FindOneOptions]) *mongo.SingleResult {
	f.record(filter)
	return f.single()
}

func (f *fakeCollection) Find(_ context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error) {
	f.record(filter)
	for _, o := range opts {
		for _, set := range o.List() {
			_ = set(&f.findOpts)
		}
	}
	if f.findErr != nil {
		return nil, f.findErr
	}
	return mongo.NewCursorFromDocuments(f.docs, nil, nil)
}

func (f *fakeCollection) CountDocuments(_ context.Context, filter any, _ ...options.Lister[options.CountOptions]) (int64, error) {
	f.record(filter)
	return f.count, f.countErr
}

func (f *fakeCollection) FindOneAndUpdate(_ context.Context, filter, update any, _ ...options.Lister[options.FindOneAndUpdateOptions]) *mongo.SingleResult {
	f.record(filter)
	f.mu.Lock()
	f.updates = append(f.updates, update)
	f.mu.Unlock()
	return f.single()
}

func (f *fakeCollection) DeleteOne(_ context.Context, filter any, _ ...options.Lister[options.DeleteOneOptions]) (*mongo.DeleteResult, error) {
	f.record(filter)
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	return &mongo.DeleteResult{DeletedCount: f.deleted, Acknowledged: true}, nil
}

func (f *fakeCollection) Indexes() mongo.IndexView { return mongo.IndexView{} }

var _ collection = (*fakeCollection)(nil)
var _ collection = (*mongo.Collection)(nil)
