package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"santa/events"
	"santa/models"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Ensure(ctx context.Context, discordID int64, handle string) (*models.User, bool, error) {
	args := m.Called(ctx, discordID, handle)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.User), args.Bool(1), args.Error(2)
}

func (m *MockUserRepository) GetByDiscordID(ctx context.Context, discordID int64) (*models.User, error) {
	args := m.Called(ctx, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) UpdateName(ctx context.Context, discordID int64, name string) error {
	args := m.Called(ctx, discordID, name)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateWishAndRegister(ctx context.Context, discordID int64, wish string) error {
	args := m.Called(ctx, discordID, wish)
	return args.Error(0)
}

func (m *MockUserRepository) ListRegistered(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

func (m *MockUserRepository) ListAll(ctx context.Context) ([]models.UserStatistics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserStatistics), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// MockUnitOfWork is a mock implementation of UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
	userRepo  UserRepository
	publisher EventPublisher
}

// SetRepositories wires the repositories returned by the getters
func (m *MockUnitOfWork) SetRepositories(userRepo UserRepository, publisher EventPublisher) {
	m.userRepo = userRepo
	m.publisher = publisher
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.publisher
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

// MockDrawGate is a mock implementation of DrawGate
type MockDrawGate struct {
	mock.Mock
}

func (m *MockDrawGate) IsClosed(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockDrawGate) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockDrawLock is a mock implementation of DrawLock
type MockDrawLock struct {
	mock.Mock
}

func (m *MockDrawLock) Acquire(ctx context.Context, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockDrawLock) Extend(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, token, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockDrawLock) Release(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// MockConversationStore is a mock implementation of ConversationStore
type MockConversationStore struct {
	mock.Mock
}

func (m *MockConversationStore) Get(ctx context.Context, discordID int64) (models.ConversationState, error) {
	args := m.Called(ctx, discordID)
	return args.Get(0).(models.ConversationState), args.Error(1)
}

func (m *MockConversationStore) Set(ctx context.Context, discordID int64, state models.ConversationState) error {
	args := m.Called(ctx, discordID, state)
	return args.Error(0)
}

// MockMessageSender is a mock implementation of MessageSender
type MockMessageSender struct {
	mock.Mock
}

func (m *MockMessageSender) SendDirectMessage(ctx context.Context, discordID int64, content string) error {
	args := m.Called(ctx, discordID, content)
	return args.Error(0)
}

// MockUserService is a mock implementation of UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Ensure(ctx context.Context, discordID int64, handle string) (*models.User, error) {
	args := m.Called(ctx, discordID, handle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Get(ctx context.Context, discordID int64) (*models.User, error) {
	args := m.Called(ctx, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) SetName(ctx context.Context, discordID int64, name string) error {
	args := m.Called(ctx, discordID, name)
	return args.Error(0)
}

func (m *MockUserService) SetWish(ctx context.Context, discordID int64, wish string) error {
	args := m.Called(ctx, discordID, wish)
	return args.Error(0)
}

// MockStatsService is a mock implementation of StatsService
type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) GetStatistics(ctx context.Context) (*models.Statistics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Statistics), args.Error(1)
}

// MockDrawCoordinator is a mock implementation of DrawCoordinator
type MockDrawCoordinator struct {
	mock.Mock
}

func (m *MockDrawCoordinator) RequestDraw(ctx context.Context, adminID int64) error {
	args := m.Called(ctx, adminID)
	return args.Error(0)
}

func (m *MockDrawCoordinator) CancelDraw(ctx context.Context, adminID int64) error {
	args := m.Called(ctx, adminID)
	return args.Error(0)
}

func (m *MockDrawCoordinator) ConfirmDraw(ctx context.Context, adminID int64) (*DrawResult, error) {
	args := m.Called(ctx, adminID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*DrawResult), args.Error(1)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Deliver(ctx context.Context, assignment *models.Assignment) *DeliveryReport {
	args := m.Called(ctx, assignment)
	return args.Get(0).(*DeliveryReport)
}
