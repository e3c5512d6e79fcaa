package database

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/findmytutor/findmytutor/core"
)

const (
	TutorsCollection = "tutors"
	// TuitionsCollection holds legacy tuition documents, read only by the legacy migration.
	TuitionsCollection = "tuitions"
)

var (
	ErrClosed = errors.New("database client closed")

	// process-wide client: created once, reused by every request, never recreated
	mu     sync.Mutex
	client *mongo.Client
	closed bool

	tutorIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}, Options: options.Index().SetName("createdAt_desc")},
		{Keys: bson.D{{Key: "dateJoined", Value: -1}}, Options: options.Index().SetName("dateJoined_desc")},
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetName("name_asc")},
	}
)

// Open returns a handle on the configured database, connecting on first use.
// Later calls share the same client; a failed connection attempt leaves nothing cached.
func Open(ctx context.Context, conf *core.Config) (*mongo.Database, error) {
	mu.Lock()
	defer mu.Unlock()

	if closed {
		return nil, ErrClosed
	}
	if client == nil {
		c, err := connect(ctx, conf)
		if err != nil {
			return nil, err
		}
		client = c
	}
	return client.Database(conf.Database.Name), nil
}

// Close disconnects the shared client. Open fails afterwards.
func Close(ctx context.Context) error {
	mu.Lock()
	defer mu.Unlock()

	closed = true
	if client == nil {
		return nil
	}
	err := client.Disconnect(ctx)
	client = nil
	return errors.Wrap(err, "disconnecting")
}

func connect(ctx context.Context, conf *core.Config) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(conf.Database.URI).
		SetAppName(conf.AppName).
		SetConnectTimeout(conf.Database.Timeout).
		SetServerSelectionTimeout(conf.Database.Timeout)

	c, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to database")
	}
	if err = ping(ctx, c); err != nil {
		_ = c.Disconnect(ctx)
		return nil, errors.Wrap(err, "pinging database")
	}
	return c, nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, c *mongo.Client) error {
	var err error
	maxAttempts := 10
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = c.Ping(ctx, readpref.Primary())
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping canceled")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}

// Migrate creates the indexes backing the tutor list orderings. It is idempotent.
func Migrate(ctx context.Context, db *mongo.Database) error {
	if _, err := db.Collection(TutorsCollection).Indexes().CreateMany(ctx, tutorIndexes); err != nil {
		return errors.Wrap(err, "creating tutor indexes")
	}
	return nil
}

// Indexes lists the index names of the tutors collection.
func Indexes(ctx context.Context, db *mongo.Database) ([]string, error) {
	cur, err := db.Collection(TutorsCollection).Indexes().List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing indexes")
	}
	var specs []struct {
		Name string `bson:"name"`
	}
	if err = cur.All(ctx, &specs); err != nil {
		return nil, errors.Wrap(err, "decoding indexes")
	}
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.Name)
	}
	return names, nil
}
