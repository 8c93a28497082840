// Package mongostore provides a MongoDB-backed store.Store for deployments
// that share a cluster with the web frontend.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mimirswell/mimirswell-server/internal/store"
)

const (
	defaultMaxPoolSize = 100
	defaultMaxRetry    = 3
	defaultDatabase    = "mimirswell"
)

// Collection names.
const (
	colUsers     = "users"
	colProgress  = "reading_progress"
	colStats     = "user_stats"
	colReminders = "reminder_logs"
	colLibrary   = "library_items"
)

// Config holds connection settings.
type Config struct {
	URI         string
	Database    string
	MaxPoolSize int
	MaxRetry    int
}

// ValidateAndSetDefaults fills zero fields and rejects an empty URI.
func (c *Config) ValidateAndSetDefaults() error {
	if c.URI == "" {
		return errors.New("mongo uri is required")
	}
	if c.Database == "" {
		c.Database = defaultDatabase
	}
	if c.MaxPoolSize <= 0 {
		c.MaxPoolSize = defaultMaxPoolSize
	}
	if c.MaxRetry <= 0 {
		c.MaxRetry = defaultMaxRetry
	}
	return nil
}

// emailCollation makes email lookups and the unique index case-insensitive.
var emailCollation = &options.Collation{Locale: "en", Strength: 2}

// Store persists domain records in MongoDB collections.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// Open connects with retry, pings the primary and ensures indexes.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if err := cfg.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(uint64(cfg.MaxPoolSize)).
		SetServerSelectionTimeout(10 * time.Second)

	var (
		cli *mongo.Client
		err error
	)
	for i := 0; i < cfg.MaxRetry; i++ {
		cli, err = connect(ctx, opts)
		if err != nil && shouldRetry(ctx, err) {
			time.Sleep(time.Second / 2)
			continue
		}
		break
	}
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb %s: %w", MaskURI(cfg.URI), err)
	}

	s := &Store{client: cli, db: cli.Database(cfg.Database), logger: logger}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	if logger != nil {
		logger.Info("MongoDB connected", "uri", MaskURI(cfg.URI), "database", cfg.Database)
	}
	return s, nil
}

func connect(ctx context.Context, opts *options.ClientOptions) (*mongo.Client, error) {
	cli, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(ctx, nil); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}
	return cli, nil
}

// shouldRetry reports whether a connect error is worth another attempt.
// Codes 13 and 18 are authorization and authentication failures.
func shouldRetry(ctx context.Context, err error) bool {
	select {
	case <-ctx.Done():
		return false
	default:
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) {
			return cmdErr.Code != 13 && cmdErr.Code != 18
		}
		return true
	}
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		colUsers: {{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetCollation(emailCollation),
		}},
		colProgress: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "bookId", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "completed", Value: 1}}},
		},
		colReminders: {{
			Keys: bson.D{
				{Key: "userId", Value: 1},
				{Key: "bookId", Value: 1},
				{Key: "reminderType", Value: 1},
				{Key: "epoch", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		}},
		colLibrary: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "addedAt", Value: -1}}},
		},
	}
	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ping verifies the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Drop removes the whole database. Used by tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

// MaskURI hides the password component of a connection string for logging.
func MaskURI(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

func upsert() *options.ReplaceOptions {
	return options.Replace().SetUpsert(true)
}

// findAll decodes every document matching filter.
func findAll[T any](ctx context.Context, col *mongo.Collection, filter bson.M, opts ...*options.FindOptions) ([]*T, error) {
	cur, err := col.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	results := make([]*T, 0)
	for cur.Next(ctx) {
		var v T
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		results = append(results, &v)
	}
	return results, cur.Err()
}

// findOne decodes a single document, mapping a miss to notFound.
func findOne[T any](ctx context.Context, col *mongo.Collection, filter bson.M, notFound error, opts ...*options.FindOneOptions) (*T, error) {
	var v T
	err := col.FindOne(ctx, filter, opts...).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}
