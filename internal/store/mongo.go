package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jisjis-ai/telbotfun/internal/domain"
)

// codeInsertAttempts bounds the retry-until-unique gift code generation so a
// pathological collision streak surfaces as an error instead of looping.
const codeInsertAttempts = 5

// Mongo implements Store on top of a Manager's collections.
type Mongo struct {
	manager *Manager
}

// NewMongo constructs the Mongo-backed store.
func NewMongo(manager *Manager) *Mongo {
	return &Mongo{manager: manager}
}

// Seed ensures one operation flag record exists per known game, inactive by
// default. Existing records are left untouched.
func (s *Mongo) Seed(ctx context.Context) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, game := range domain.Games {
		_, err := s.coll(CollectionOperations).UpdateOne(ctx,
			bson.M{"name": game},
			bson.M{"$setOnInsert": bson.M{
				"name":         game,
				"active":       false,
				"last_updated": now,
			}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("seed operation %s: %w", game, err)
		}
	}

	return nil
}

func (s *Mongo) GetUser(ctx context.Context, userID int64) (domain.User, error) {
	var user domain.User
	if err := s.findOne(ctx, CollectionUsers, bson.M{"user_id": userID}, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (s *Mongo) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := s.findAll(ctx, CollectionUsers, bson.M{}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Mongo) UpsertUser(ctx context.Context, user domain.User) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if user.UserID == 0 {
		return errors.New("user_id is required")
	}

	user.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	_, err := s.coll(CollectionUsers).ReplaceOne(ctx,
		bson.M{"user_id": user.UserID},
		user,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}

	return nil
}

func (s *Mongo) GetOperationFlag(ctx context.Context, name string) (bool, error) {
	var flag domain.OperationFlag
	if err := s.findOne(ctx, CollectionOperations, bson.M{"name": name}, &flag); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return flag.Active, nil
}

func (s *Mongo) SetOperationFlag(ctx context.Context, name string, active bool) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	flag := domain.OperationFlag{
		Name:        name,
		Active:      active,
		LastUpdated: time.Now().UTC(),
	}

	_, err := s.coll(CollectionOperations).ReplaceOne(ctx,
		bson.M{"name": name},
		flag,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("set operation %s: %w", name, err)
	}

	return nil
}

func (s *Mongo) ListOperationFlags(ctx context.Context) ([]domain.OperationFlag, error) {
	var flags []domain.OperationFlag
	if err := s.findAll(ctx, CollectionOperations, bson.M{}, &flags); err != nil {
		return nil, err
	}
	return flags, nil
}

func (s *Mongo) GetGiftCode(ctx context.Context, code string) (domain.GiftCode, error) {
	var gift domain.GiftCode
	if err := s.findOne(ctx, CollectionGiftCodes, bson.M{"code": code}, &gift); err != nil {
		return domain.GiftCode{}, err
	}
	return gift, nil
}

func (s *Mongo) CreateGiftCode(ctx context.Context, credits int, createdBy string) (string, error) {
	if err := s.ready(ctx); err != nil {
		return "", err
	}
	if credits <= 0 {
		return "", errors.New("credits must be positive")
	}

	for attempt := 0; attempt < codeInsertAttempts; attempt++ {
		gift := domain.GiftCode{
			Code:       GenerateCode(),
			Credits:    credits,
			CreatedAt:  time.Now().UTC(),
			CreatedBy:  createdBy,
			RedeemedBy: []int64{},
		}

		_, err := s.coll(CollectionGiftCodes).InsertOne(ctx, gift)
		if err == nil {
			return gift.Code, nil
		}
		if mongo.IsDuplicateKeyError(err) {
			continue
		}
		return "", fmt.Errorf("insert gift code: %w", err)
	}

	return "", errors.New("gift code generation exhausted retries")
}

func (s *Mongo) MarkRedeemed(ctx context.Context, code string, userID int64) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	result, err := s.coll(CollectionGiftCodes).UpdateOne(ctx,
		bson.M{"code": code},
		bson.M{"$addToSet": bson.M{"redeemed_by": userID}},
	)
	if err != nil {
		return fmt.Errorf("mark redeemed: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (s *Mongo) GetPendingRegistration(ctx context.Context, userID int64) (domain.PendingRegistration, error) {
	var pending domain.PendingRegistration
	if err := s.findOne(ctx, CollectionPendingRegistrations, bson.M{"user_id": userID}, &pending); err != nil {
		return domain.PendingRegistration{}, err
	}
	return pending, nil
}

// SetPendingRegistration replaces any unresolved record for the user; at most
// one exists per user at a time.
func (s *Mongo) SetPendingRegistration(ctx context.Context, pending domain.PendingRegistration) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	_, err := s.coll(CollectionPendingRegistrations).ReplaceOne(ctx,
		bson.M{"user_id": pending.UserID},
		pending,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("set pending registration: %w", err)
	}

	return nil
}

func (s *Mongo) ClearPendingRegistration(ctx context.Context, userID int64) error {
	return s.deleteOne(ctx, CollectionPendingRegistrations, bson.M{"user_id": userID})
}

func (s *Mongo) GetPendingDeposit(ctx context.Context, userID int64) (domain.PendingDeposit, error) {
	var pending domain.PendingDeposit
	if err := s.findOne(ctx, CollectionPendingDeposits, bson.M{"user_id": userID}, &pending); err != nil {
		return domain.PendingDeposit{}, err
	}
	return pending, nil
}

func (s *Mongo) SetPendingDeposit(ctx context.Context, pending domain.PendingDeposit) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	_, err := s.coll(CollectionPendingDeposits).ReplaceOne(ctx,
		bson.M{"user_id": pending.UserID},
		pending,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("set pending deposit: %w", err)
	}

	return nil
}

func (s *Mongo) ClearPendingDeposit(ctx context.Context, userID int64) error {
	return s.deleteOne(ctx, CollectionPendingDeposits, bson.M{"user_id": userID})
}

func (s *Mongo) GetChannel(ctx context.Context, chatID int64) (domain.Channel, error) {
	var channel domain.Channel
	if err := s.findOne(ctx, CollectionChannels, bson.M{"chat_id": chatID}, &channel); err != nil {
		return domain.Channel{}, err
	}
	return channel, nil
}

func (s *Mongo) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	var channels []domain.Channel
	if err := s.findAll(ctx, CollectionChannels, bson.M{}, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

func (s *Mongo) ListActiveChannels(ctx context.Context) ([]domain.Channel, error) {
	var channels []domain.Channel
	if err := s.findAll(ctx, CollectionChannels, bson.M{"status": domain.ChannelActive}, &channels); err != nil {
		return nil, err
	}
	return channels, nil
}

// AddChannel inserts the channel unless one with the same chat_id already
// exists; re-registration of a known channel is a no-op.
func (s *Mongo) AddChannel(ctx context.Context, channel domain.Channel) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	_, err := s.coll(CollectionChannels).InsertOne(ctx, channel)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("add channel: %w", err)
	}

	return nil
}

func (s *Mongo) SetChannelStatus(ctx context.Context, chatID int64, status string, memberCount int) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	update := bson.M{"status": status}
	if memberCount >= 0 {
		update["member_count"] = memberCount
	}

	result, err := s.coll(CollectionChannels).UpdateOne(ctx,
		bson.M{"chat_id": chatID},
		bson.M{"$set": update},
	)
	if err != nil {
		return fmt.Errorf("set channel status: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (s *Mongo) coll(name string) *mongo.Collection {
	return s.manager.Collection(name)
}

func (s *Mongo) ready(ctx context.Context) error {
	if s == nil || s.manager == nil || s.manager.db == nil {
		return errors.New("mongo store is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}
	return nil
}

func (s *Mongo) findOne(ctx context.Context, collection string, filter bson.M, out interface{}) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	result := s.coll(collection).FindOne(ctx, filter)
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("find %s: %w", collection, err)
	}

	if err := result.Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}

	return nil
}

func (s *Mongo) findAll(ctx context.Context, collection string, filter bson.M, out interface{}) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	cursor, err := s.coll(collection).Find(ctx, filter)
	if err != nil {
		return fmt.Errorf("list %s: %w", collection, err)
	}

	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s list: %w", collection, err)
	}

	return nil
}

func (s *Mongo) deleteOne(ctx context.Context, collection string, filter bson.M) error {
	if err := s.ready(ctx); err != nil {
		return err
	}

	if _, err := s.coll(collection).DeleteOne(ctx, filter); err != nil {
		return fmt.Errorf("delete from %s: %w", collection, err)
	}

	return nil
}
