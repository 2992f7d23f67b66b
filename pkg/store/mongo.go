package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/nodeflow/pkg/cache"
	"github.com/matzehuels/nodeflow/pkg/diagram"
	nferrors "github.com/matzehuels/nodeflow/pkg/errors"
)

// Default MongoDB names.
const (
	DefaultMongoDatabase   = "nodeflow"
	DefaultMongoCollection = "diagrams"
)

// MongoOptions configures [NewMongoStore].
type MongoOptions struct {
	URI        string
	Database   string
	Collection string
	// Timeout bounds each operation. Zero means 10s.
	Timeout time.Duration
}

// MongoStore keeps definitions in a MongoDB collection. Each document holds
// the summary fields next to the JSON-encoded definition, so listings never
// decode definitions.
type MongoStore struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
	now     func() time.Time
}

type mongoDocument struct {
	Summary    `bson:",inline"`
	Definition string `bson:"definition"`
}

// NewMongoStore connects to MongoDB and pings the primary.
func NewMongoStore(ctx context.Context, opts MongoOptions) (*MongoStore, error) {
	if opts.Database == "" {
		opts.Database = DefaultMongoDatabase
	}
	if opts.Collection == "" {
		opts.Collection = DefaultMongoCollection
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI).SetTimeout(opts.Timeout))
	if err != nil {
		return nil, nferrors.Wrap(nferrors.ErrCodeInvalidInput, err, "connect mongodb")
	}
	s := &MongoStore{
		client:  client,
		coll:    client.Database(opts.Database).Collection(opts.Collection),
		timeout: opts.Timeout,
		now:     time.Now,
	}
	if err := s.retry(ctx, func(ctx context.Context) error { return client.Ping(ctx, nil) }); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	var out []Summary
	err := s.retry(ctx, func(ctx context.Context) error {
		cur, err := s.coll.Find(ctx, bson.D{},
			options.Find().
				SetSort(bson.D{{Key: "_id", Value: 1}}).
				SetProjection(bson.D{{Key: "definition", Value: 0}}))
		if err != nil {
			return err
		}
		out = out[:0]
		return cur.All(ctx, &out)
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Summary{}
	}
	return out, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*diagram.Graph, error) {
	if err := nferrors.ValidateDiagramID(id); err != nil {
		return nil, err
	}
	var doc mongoDocument
	err := s.retry(ctx, func(ctx context.Context) error {
		return s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	return diagram.UnmarshalGraph([]byte(doc.Definition))
}

func (s *MongoStore) Put(ctx context.Context, id string, g *diagram.Graph) error {
	data, cp, err := prepare(id, g)
	if err != nil {
		return err
	}
	doc := mongoDocument{Summary: Summarize(id, cp, s.now()), Definition: string(data)}
	return s.retry(ctx, func(ctx context.Context) error {
		_, err := s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, doc, options.Replace().SetUpsert(true))
		return err
	})
}

func (s *MongoStore) Create(ctx context.Context, g *diagram.Graph) (string, error) {
	id := NewID()
	return id, s.Put(ctx, id, g)
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if err := nferrors.ValidateDiagramID(id); err != nil {
		return err
	}
	var deleted int64
	err := s.retry(ctx, func(ctx context.Context) error {
		res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
		if err != nil {
			return err
		}
		deleted = res.DeletedCount
		return nil
	})
	if err != nil {
		return err
	}
	if deleted == 0 {
		return notFound(id)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// retry runs fn with a per-attempt timeout and retries network failures.
func (s *MongoStore) retry(ctx context.Context, fn func(context.Context) error) error {
	err := cache.RetryWithBackoff(ctx, func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		err := fn(attemptCtx)
		if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
			return cache.Retryable(err)
		}
		return err
	})
	var re *cache.RetryableError
	if errors.As(err, &re) {
		return nferrors.Wrap(nferrors.ErrCodeNetwork, re.Err, "mongodb")
	}
	return err
}

var _ Store = (*MongoStore)(nil)
