// Package store encapsulates persistent collections behind one abstract
// contract, plus MongoDB client management.
package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/jisjis-ai/telbotfun/internal/config"
	"github.com/jisjis-ai/telbotfun/internal/domain"
)

// Collection names used across the bot.
const (
	CollectionUsers                = "users"
	CollectionOperations           = "operations"
	CollectionGiftCodes            = "gift_codes"
	CollectionChannels             = "channels"
	CollectionPendingRegistrations = "pending_registrations"
	CollectionPendingDeposits      = "pending_deposits"
)

// Store is the single persistence contract consumed by the ledger, the
// session layer, and the scheduler. Every operation is read-whole /
// modify / write-whole; no field-level atomicity is promised beyond what
// the backend itself offers. Misses return domain.ErrNotFound.
type Store interface {
	GetUser(ctx context.Context, userID int64) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	UpsertUser(ctx context.Context, user domain.User) error

	GetOperationFlag(ctx context.Context, name string) (bool, error)
	SetOperationFlag(ctx context.Context, name string, active bool) error
	ListOperationFlags(ctx context.Context) ([]domain.OperationFlag, error)

	GetGiftCode(ctx context.Context, code string) (domain.GiftCode, error)
	// CreateGiftCode generates a fresh code and inserts it, retrying
	// generation until the insert is store-confirmed unique.
	CreateGiftCode(ctx context.Context, credits int, createdBy string) (string, error)
	MarkRedeemed(ctx context.Context, code string, userID int64) error

	GetPendingRegistration(ctx context.Context, userID int64) (domain.PendingRegistration, error)
	SetPendingRegistration(ctx context.Context, pending domain.PendingRegistration) error
	ClearPendingRegistration(ctx context.Context, userID int64) error

	GetPendingDeposit(ctx context.Context, userID int64) (domain.PendingDeposit, error)
	SetPendingDeposit(ctx context.Context, pending domain.PendingDeposit) error
	ClearPendingDeposit(ctx context.Context, userID int64) error

	GetChannel(ctx context.Context, chatID int64) (domain.Channel, error)
	ListChannels(ctx context.Context) ([]domain.Channel, error)
	ListActiveChannels(ctx context.Context) ([]domain.Channel, error)
	AddChannel(ctx context.Context, channel domain.Channel) error
	SetChannelStatus(ctx context.Context, chatID int64, status string, memberCount int) error
}

// mongoClient captures the subset of mongo.Client behavior we rely on to
// allow lightweight stubbing in tests without a live Mongo deployment.
type mongoClient interface {
	Ping(context.Context, *readpref.ReadPref) error
	Database(string, ...*options.DatabaseOptions) *mongo.Database
	Disconnect(context.Context) error
}

// connectMongo is overridable for tests.
var connectMongo = func(ctx context.Context, opts *options.ClientOptions) (mongoClient, error) {
	return mongo.Connect(ctx, opts)
}

// createIndexes is overridable for tests.
var createIndexes = func(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) ([]string, error) {
	return coll.Indexes().CreateMany(ctx, models)
}

// Manager owns a MongoDB client and the configured database handle.
type Manager struct {
	client mongoClient
	db     *mongo.Database
}

// NewManager initializes the Mongo client using the supplied configuration
// and verifies connectivity with a ping.
func NewManager(ctx context.Context, cfg config.Config) (*Manager, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	client, err := connectMongo(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Manager{
		client: client,
		db:     client.Database(cfg.MongoDB),
	}, nil
}

// Database returns the configured database handle.
func (m *Manager) Database() *mongo.Database {
	return m.db
}

// Collection returns a collection handle for the given name.
func (m *Manager) Collection(name string) *mongo.Collection {
	return m.db.Collection(name)
}

// Ping verifies connectivity against the primary.
func (m *Manager) Ping(ctx context.Context) error {
	if m == nil || m.client == nil {
		return errors.New("store manager is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}

	return nil
}

// EnsureBaseIndexes creates the foundational unique indexes for every
// collection. Collections are created implicitly if they do not already
// exist. The unique index on gift code values backs the
// retry-until-unique code generation policy.
func (m *Manager) EnsureBaseIndexes(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if m == nil || m.db == nil {
		return errors.New("store manager is not initialized")
	}

	indexed := []struct {
		collection string
		key        string
	}{
		{CollectionUsers, "user_id"},
		{CollectionOperations, "name"},
		{CollectionGiftCodes, "code"},
		{CollectionChannels, "chat_id"},
		{CollectionPendingRegistrations, "user_id"},
		{CollectionPendingDeposits, "user_id"},
	}

	for _, spec := range indexed {
		models := []mongo.IndexModel{
			{
				Keys: bson.D{{Key: spec.key, Value: 1}},
				Options: options.Index().
					SetName(spec.key + "_unique").
					SetUnique(true),
			},
		}

		if _, err := createIndexes(ctx, m.Collection(spec.collection), models); err != nil {
			return fmt.Errorf("create %s indexes: %w", spec.collection, err)
		}
	}

	return nil
}

// Close disconnects the Mongo client.
func (m *Manager) Close(ctx context.Context) error {
	if m == nil || m.client == nil {
		return nil
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	return m.client.Disconnect(ctx)
}
