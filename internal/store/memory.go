package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jisjis-ai/telbotfun/internal/domain"
)

// Memory is an in-process Store used by the test suite and as a throwaway
// development backend. A single mutex guards every collection; records are
// copied in and out so callers never share state with the store.
type Memory struct {
	mu                   sync.Mutex
	users                map[int64]domain.User
	operations           map[string]domain.OperationFlag
	giftCodes            map[string]domain.GiftCode
	channels             map[int64]domain.Channel
	pendingRegistrations map[int64]domain.PendingRegistration
	pendingDeposits      map[int64]domain.PendingDeposit
}

// NewMemory constructs an empty in-memory store with both game flags seeded
// inactive.
func NewMemory() *Memory {
	m := &Memory{
		users:                make(map[int64]domain.User),
		operations:           make(map[string]domain.OperationFlag),
		giftCodes:            make(map[string]domain.GiftCode),
		channels:             make(map[int64]domain.Channel),
		pendingRegistrations: make(map[int64]domain.PendingRegistration),
		pendingDeposits:      make(map[int64]domain.PendingDeposit),
	}

	now := time.Now().UTC()
	for _, game := range domain.Games {
		m.operations[game] = domain.OperationFlag{Name: game, Active: false, LastUpdated: now}
	}

	return m
}

func (m *Memory) GetUser(_ context.Context, userID int64) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[userID]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return copyUser(user), nil
}

func (m *Memory) ListUsers(_ context.Context) ([]domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]domain.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, copyUser(user))
	}
	return users, nil
}

func (m *Memory) UpsertUser(_ context.Context, user domain.User) error {
	if user.UserID == 0 {
		return errors.New("user_id is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user.UpdatedAt = time.Now().UTC()
	m.users[user.UserID] = copyUser(user)
	return nil
}

func (m *Memory) GetOperationFlag(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.operations[name].Active, nil
}

func (m *Memory) SetOperationFlag(_ context.Context, name string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.operations[name] = domain.OperationFlag{
		Name:        name,
		Active:      active,
		LastUpdated: time.Now().UTC(),
	}
	return nil
}

func (m *Memory) ListOperationFlags(_ context.Context) ([]domain.OperationFlag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	flags := make([]domain.OperationFlag, 0, len(m.operations))
	for _, game := range domain.Games {
		if flag, ok := m.operations[game]; ok {
			flags = append(flags, flag)
		}
	}
	return flags, nil
}

func (m *Memory) GetGiftCode(_ context.Context, code string) (domain.GiftCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	gift, ok := m.giftCodes[code]
	if !ok {
		return domain.GiftCode{}, domain.ErrNotFound
	}
	return copyGiftCode(gift), nil
}

func (m *Memory) CreateGiftCode(_ context.Context, credits int, createdBy string) (string, error) {
	if credits <= 0 {
		return "", errors.New("credits must be positive")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	code := GenerateCode()
	for {
		if _, exists := m.giftCodes[code]; !exists {
			break
		}
		code = GenerateCode()
	}

	m.giftCodes[code] = domain.GiftCode{
		Code:       code,
		Credits:    credits,
		CreatedAt:  time.Now().UTC(),
		CreatedBy:  createdBy,
		RedeemedBy: []int64{},
	}
	return code, nil
}

func (m *Memory) MarkRedeemed(_ context.Context, code string, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	gift, ok := m.giftCodes[code]
	if !ok {
		return domain.ErrNotFound
	}
	if gift.Redeemed(userID) {
		return nil
	}

	gift.RedeemedBy = append(gift.RedeemedBy, userID)
	m.giftCodes[code] = gift
	return nil
}

func (m *Memory) GetPendingRegistration(_ context.Context, userID int64) (domain.PendingRegistration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending, ok := m.pendingRegistrations[userID]
	if !ok {
		return domain.PendingRegistration{}, domain.ErrNotFound
	}
	return pending, nil
}

func (m *Memory) SetPendingRegistration(_ context.Context, pending domain.PendingRegistration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pendingRegistrations[pending.UserID] = pending
	return nil
}

func (m *Memory) ClearPendingRegistration(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.pendingRegistrations, userID)
	return nil
}

func (m *Memory) GetPendingDeposit(_ context.Context, userID int64) (domain.PendingDeposit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pending, ok := m.pendingDeposits[userID]
	if !ok {
		return domain.PendingDeposit{}, domain.ErrNotFound
	}
	return pending, nil
}

func (m *Memory) SetPendingDeposit(_ context.Context, pending domain.PendingDeposit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pendingDeposits[pending.UserID] = pending
	return nil
}

func (m *Memory) ClearPendingDeposit(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.pendingDeposits, userID)
	return nil
}

func (m *Memory) GetChannel(_ context.Context, chatID int64) (domain.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	channel, ok := m.channels[chatID]
	if !ok {
		return domain.Channel{}, domain.ErrNotFound
	}
	return channel, nil
}

func (m *Memory) ListChannels(_ context.Context) ([]domain.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	channels := make([]domain.Channel, 0, len(m.channels))
	for _, channel := range m.channels {
		channels = append(channels, channel)
	}
	return channels, nil
}

func (m *Memory) ListActiveChannels(_ context.Context) ([]domain.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	channels := make([]domain.Channel, 0)
	for _, channel := range m.channels {
		if channel.Status == domain.ChannelActive {
			channels = append(channels, channel)
		}
	}
	return channels, nil
}

func (m *Memory) AddChannel(_ context.Context, channel domain.Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.channels[channel.ChatID]; exists {
		return nil
	}
	m.channels[channel.ChatID] = channel
	return nil
}

func (m *Memory) SetChannelStatus(_ context.Context, chatID int64, status string, memberCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	channel, ok := m.channels[chatID]
	if !ok {
		return domain.ErrNotFound
	}

	channel.Status = status
	if memberCount >= 0 {
		channel.MemberCount = memberCount
	}
	m.channels[chatID] = channel
	return nil
}

func copyUser(user domain.User) domain.User {
	out := user
	out.Invites = append([]domain.Invite(nil), user.Invites...)
	out.RedeemedCodes = append([]string(nil), user.RedeemedCodes...)
	return out
}

func copyGiftCode(gift domain.GiftCode) domain.GiftCode {
	out := gift
	out.RedeemedBy = append([]int64(nil), gift.RedeemedBy...)
	return out
}
