// Package mongo provides the production document-store adapter backed by
// MongoDB. Predicates are already store-shaped; the adapter only coerces
// identifier strings to ObjectIDs and maps options.
package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/veranda-labs/concierge/internal/core/domain"
	"github.com/veranda-labs/concierge/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// Default configuration values.
const (
	DefaultTimeout = 10 * time.Second
	DefaultLimit   = 20
)

// Config holds connection settings for the mongo store.
type Config struct {
	// URI is the mongodb:// connection string (required).
	URI string

	// Database is the database name (required).
	Database string

	// Timeout bounds each Find call (default: 10s).
	Timeout time.Duration
}

// DocumentStore reads records from MongoDB collections.
type DocumentStore struct {
	client  *mongo.Client
	db      *mongo.Database
	timeout time.Duration
}

// NewDocumentStore connects to MongoDB and pings it once.
func NewDocumentStore(ctx context.Context, cfg Config) (*DocumentStore, error) {
	if cfg.URI == "" || cfg.Database == "" {
		return nil, fmt.Errorf("mongo: URI and database are required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo: connecting: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	return &DocumentStore{
		client:  client,
		db:      client.Database(cfg.Database),
		timeout: cfg.Timeout,
	}, nil
}

// Find runs a sanitized predicate against one collection.
func (s *DocumentStore) Find(ctx context.Context, collection string, pred domain.Predicate, opts driven.FindOptions) ([]domain.Record, error) {
	if !domain.KnownCollection(collection) {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCollection, collection)
	}

	filter, err := TranslatePredicate(pred)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	findOpts := options.Find().SetLimit(int64(limit))
	if opts.Sort != nil {
		order := 1
		if opts.Sort.Desc {
			order = -1
		}
		findOpts = findOpts.SetSort(bson.D{{Key: opts.Sort.Field, Value: order}})
	}
	if len(opts.Projection) > 0 {
		projection := bson.D{}
		for _, field := range opts.Projection {
			projection = append(projection, bson.E{Key: field, Value: 1})
		}
		findOpts = findOpts.SetProjection(projection)
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	cursor, err := s.db.Collection(collection).Find(queryCtx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("mongo: %s find: %w", collection, err)
	}
	defer cursor.Close(queryCtx)

	var raw []bson.M
	if err := cursor.All(queryCtx, &raw); err != nil {
		return nil, fmt.Errorf("mongo: %s decode: %w", collection, err)
	}

	records := make([]domain.Record, len(raw))
	for i, doc := range raw {
		records[i] = fromBSON(doc)
	}
	return records, nil
}

// Close disconnects the client.
func (s *DocumentStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// TranslatePredicate converts a sanitized predicate into a BSON filter,
// coercing identifier strings to ObjectIDs. A malformed identifier is a
// domain.ErrTypeMismatch so the executor can retry relaxed.
func TranslatePredicate(pred domain.Predicate) (bson.M, error) {
	filter := bson.M{}
	for field, value := range pred {
		translated, err := translateValue(field, value)
		if err != nil {
			return nil, err
		}
		filter[field] = translated
	}
	return filter, nil
}

func translateValue(field string, value any) (any, error) {
	switch v := value.(type) {
	case string:
		if field == "_id" {
			id, err := bson.ObjectIDFromHex(v)
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not an object id", domain.ErrTypeMismatch, v)
			}
			return id, nil
		}
		return v, nil
	case map[string]any:
		out := bson.M{}
		for key, inner := range v {
			// Operator keys keep the enclosing field; anything else is a
			// nested predicate branch (e.g. inside $or) with its own
			// field names.
			innerField := field
			if !strings.HasPrefix(key, "$") {
				innerField = key
			}
			translated, err := translateValue(innerField, inner)
			if err != nil {
				return nil, err
			}
			out[key] = translated
		}
		return out, nil
	case []any:
		out := bson.A{}
		for _, member := range v {
			translated, err := translateValue(field, member)
			if err != nil {
				return nil, err
			}
			out = append(out, translated)
		}
		return out, nil
	default:
		return value, nil
	}
}

// fromBSON normalizes a decoded document into the engine's record shape:
// ObjectIDs become hex strings at the top level, nested documents become
// plain maps.
func fromBSON(doc bson.M) domain.Record {
	out := make(domain.Record, len(doc))
	for key, value := range doc {
		out[key] = fromBSONValue(value)
	}
	return out
}

func fromBSONValue(value any) any {
	switch v := value.(type) {
	case bson.ObjectID:
		return v.Hex()
	case bson.M:
		m := make(map[string]any, len(v))
		for key, inner := range v {
			m[key] = fromBSONValue(inner)
		}
		return m
	case bson.A:
		a := make([]any, len(v))
		for i, inner := range v {
			a[i] = fromBSONValue(inner)
		}
		return a
	case bson.DateTime:
		return v.Time()
	default:
		return value
	}
}
