package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"santa/events"
	"santa/models"
)

const testAdminID = int64(1)

// memGate is an in-memory DrawGate
type memGate struct {
	mu     sync.Mutex
	closed bool
	closes int
}

func (g *memGate) IsClosed(ctx context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed, nil
}

func (g *memGate) Close(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	g.closes++
	return nil
}

// memLock is an in-memory DrawLock
type memLock struct {
	mu    sync.Mutex
	owner string
	next  int
}

func (l *memLock) Acquire(ctx context.Context, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owner != "" {
		return "", false, nil
	}
	l.next++
	l.owner = fmt.Sprintf("token-%d", l.next)
	return l.owner, true, nil
}

func (l *memLock) Extend(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.owner == token, nil
}

func (l *memLock) Release(ctx context.Context, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owner == token {
		l.owner = ""
	}
	return nil
}

// ttlLock is a DrawLock that expires like the redis one
type ttlLock struct {
	mu      sync.Mutex
	owner   string
	expires time.Time
	next    int
}

func (l *ttlLock) Acquire(ctx context.Context, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owner != "" && time.Now().Before(l.expires) {
		return "", false, nil
	}
	l.next++
	l.owner = fmt.Sprintf("token-%d", l.next)
	l.expires = time.Now().Add(ttl)
	return l.owner, true, nil
}

func (l *ttlLock) Extend(ctx context.Context, token string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owner != token || !time.Now().Before(l.expires) {
		return false, nil
	}
	l.expires = time.Now().Add(ttl)
	return true, nil
}

func (l *ttlLock) Release(ctx context.Context, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.owner == token {
		l.owner = ""
	}
	return nil
}

// newInstance builds a coordinator as one bot process would, sharing gate
// and lock with other instances and delivering through sender.
func newInstance(gate DrawGate, lock DrawLock, sender MessageSender, users []*models.User, delay, lockTTL time.Duration) DrawCoordinator {
	factory := new(MockUnitOfWorkFactory)
	uow := new(MockUnitOfWork)
	userRepo := new(MockUserRepository)
	conversations := new(MockConversationStore)
	publisher := new(MockEventPublisher)
	uow.SetRepositories(userRepo, publisher)

	factory.On("Create").Return(uow)
	uow.On("Begin", mock.Anything).Return(nil)
	uow.On("Rollback").Return(nil)
	userRepo.On("ListRegistered", mock.Anything).Return(users, nil)
	conversations.On("Set", mock.Anything, testAdminID, models.StateDone).Return(nil)
	publisher.On("Publish", mock.Anything).Return()

	return NewDrawCoordinator(factory, gate, lock, NewDrawEngine(), NewNotifier(sender, delay),
		conversations, publisher, lockTTL)
}

type coordinatorFixture struct {
	factory       *MockUnitOfWorkFactory
	uow           *MockUnitOfWork
	userRepo      *MockUserRepository
	gate          *MockDrawGate
	lock          *MockDrawLock
	notifier      *MockNotifier
	conversations *MockConversationStore
	publisher     *MockEventPublisher
	coordinator   DrawCoordinator
}

func newCoordinatorFixture() *coordinatorFixture {
	f := &coordinatorFixture{
		factory:       new(MockUnitOfWorkFactory),
		uow:           new(MockUnitOfWork),
		userRepo:      new(MockUserRepository),
		gate:          new(MockDrawGate),
		lock:          new(MockDrawLock),
		notifier:      new(MockNotifier),
		conversations: new(MockConversationStore),
		publisher:     new(MockEventPublisher),
	}
	f.uow.SetRepositories(f.userRepo, f.publisher)
	f.coordinator = NewDrawCoordinator(f.factory, f.gate, f.lock, NewDrawEngine(), f.notifier,
		f.conversations, f.publisher, time.Minute)
	return f
}

func (f *coordinatorFixture) expectParticipants(ctx context.Context, users []*models.User) {
	f.factory.On("Create").Return(f.uow)
	f.uow.On("Begin", ctx).Return(nil)
	f.uow.On("Rollback").Return(nil)
	f.userRepo.On("ListRegistered", ctx).Return(users, nil)
}

func TestDrawCoordinator_RequestAndCancel(t *testing.T) {
	ctx := context.Background()
	f := newCoordinatorFixture()

	f.conversations.On("Set", ctx, testAdminID, models.StateConfirmingDraw).Return(nil).Once()
	f.conversations.On("Set", ctx, testAdminID, models.StateDone).Return(nil).Once()

	require.NoError(t, f.coordinator.RequestDraw(ctx, testAdminID))
	require.NoError(t, f.coordinator.CancelDraw(ctx, testAdminID))

	f.conversations.AssertExpectations(t)
	f.lock.AssertNotCalled(t, "Acquire", mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
}

func TestDrawCoordinator_ConfirmDraw_Completed(t *testing.T) {
	ctx := context.Background()
	f := newCoordinatorFixture()
	users := makeUsers(1, 2, 3)

	f.conversations.On("Set", ctx, testAdminID, models.StateDone).Return(nil)
	f.lock.On("Acquire", ctx, time.Minute).Return("token", true, nil)
	f.lock.On("Release", mock.Anything, "token").Return(nil)
	f.gate.On("IsClosed", ctx).Return(false, nil)
	f.expectParticipants(ctx, users)
	f.notifier.On("Deliver", mock.Anything, mock.MatchedBy(func(a *models.Assignment) bool {
		return len(a.Pairings) == 3
	})).Return(&DeliveryReport{Sent: 3})
	f.gate.On("Close", mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.MatchedBy(func(e events.DrawCompletedEvent) bool {
		return e.Participants == 3 && e.Delivered == 3 && len(e.Failed) == 0
	})).Return()

	result, err := f.coordinator.ConfirmDraw(ctx, testAdminID)

	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, result.Outcome)
	assert.Equal(t, 3, result.Participants)
	assert.NotEmpty(t, result.DrawID)

	f.gate.AssertExpectations(t)
	f.lock.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestDrawCoordinator_ConfirmDraw_AlreadyDrawn(t *testing.T) {
	ctx := context.Background()
	f := newCoordinatorFixture()

	f.conversations.On("Set", ctx, testAdminID, models.StateDone).Return(nil)
	f.lock.On("Acquire", ctx, time.Minute).Return("token", true, nil)
	f.lock.On("Release", mock.Anything, "token").Return(nil)
	f.gate.On("IsClosed", ctx).Return(true, nil)

	result, err := f.coordinator.ConfirmDraw(ctx, testAdminID)

	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyDrawn, result.Outcome)
	f.factory.AssertNotCalled(t, "Create")
	f.notifier.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
	f.gate.AssertNotCalled(t, "Close", mock.Anything)
	f.lock.AssertExpectations(t)
}

func TestDrawCoordinator_ConfirmDraw_LockHeldElsewhere(t *testing.T) {
	ctx := context.Background()
	f := newCoordinatorFixture()

	f.conversations.On("Set", ctx, testAdminID, models.StateDone).Return(nil)
	f.lock.On("Acquire", ctx, time.Minute).Return("", false, nil)

	result, err := f.coordinator.ConfirmDraw(ctx, testAdminID)

	require.NoError(t, err)
	assert.Equal(t, OutcomeInProgress, result.Outcome)
	f.gate.AssertNotCalled(t, "IsClosed", mock.Anything)
	f.lock.AssertNotCalled(t, "Release", mock.Anything, mock.Anything)
}

func TestDrawCoordinator_ConfirmDraw_InsufficientParticipants(t *testing.T) {
	ctx := context.Background()
	f := newCoordinatorFixture()

	f.conversations.On("Set", ctx, testAdminID, models.StateDone).Return(nil)
	f.lock.On("Acquire", ctx, time.Minute).Return("token", true, nil)
	f.lock.On("Release", mock.Anything, "token").Return(nil)
	f.gate.On("IsClosed", ctx).Return(false, nil)
	f.expectParticipants(ctx, makeUsers(1))

	result, err := f.coordinator.ConfirmDraw(ctx, testAdminID)

	require.NoError(t, err)
	assert.Equal(t, OutcomeInsufficientParticipants, result.Outcome)
	assert.Equal(t, 1, result.Participants)
	f.gate.AssertNotCalled(t, "Close", mock.Anything)
	f.notifier.AssertNotCalled(t, "Deliver", mock.Anything, mock.Anything)
}

func TestDrawCoordinator_ConfirmDraw_PartialDeliveryStillClosesGate(t *testing.T) {
	ctx := context.Background()
	f := newCoordinatorFixture()

	f.conversations.On("Set", ctx, testAdminID, models.StateDone).Return(nil)
	f.lock.On("Acquire", ctx, time.Minute).Return("token", true, nil)
	f.lock.On("Release", mock.Anything, "token").Return(nil)
	f.gate.On("IsClosed", ctx).Return(false, nil)
	f.expectParticipants(ctx, makeUsers(1, 2, 3))
	f.notifier.On("Deliver", mock.Anything, mock.Anything).Return(&DeliveryReport{Sent: 2, Failed: []int64{2}})
	f.gate.On("Close", mock.Anything).Return(nil)
	f.publisher.On("Publish", mock.MatchedBy(func(e events.DrawCompletedEvent) bool {
		return e.Delivered == 2 && len(e.Failed) == 1 && e.Failed[0] == 2
	})).Return()

	result, err := f.coordinator.ConfirmDraw(ctx, testAdminID)

	require.NoError(t, err)
	assert.Equal(t, OutcomePartialDelivery, result.Outcome)
	assert.Equal(t, []int64{2}, result.Report.Failed)
	f.gate.AssertCalled(t, "Close", mock.Anything)
}

func TestDrawCoordinator_ConfirmDraw_ListError(t *testing.T) {
	ctx := context.Background()
	f := newCoordinatorFixture()

	f.conversations.On("Set", ctx, testAdminID, models.StateDone).Return(nil)
	f.lock.On("Acquire", ctx, time.Minute).Return("token", true, nil)
	f.lock.On("Release", mock.Anything, "token").Return(nil)
	f.gate.On("IsClosed", ctx).Return(false, nil)
	f.factory.On("Create").Return(f.uow)
	f.uow.On("Begin", ctx).Return(nil)
	f.uow.On("Rollback").Return(nil)
	f.userRepo.On("ListRegistered", ctx).Return(nil, errors.New("connection refused"))

	result, err := f.coordinator.ConfirmDraw(ctx, testAdminID)

	require.Error(t, err)
	assert.Nil(t, result)
	f.gate.AssertNotCalled(t, "Close", mock.Anything)
	f.lock.AssertCalled(t, "Release", mock.Anything, "token")
}

func TestDrawCoordinator_ConfirmDraw_SecondDrawIsRejected(t *testing.T) {
	ctx := context.Background()
	gate := &memGate{}
	lock := &memLock{}

	factory := new(MockUnitOfWorkFactory)
	uow := new(MockUnitOfWork)
	userRepo := new(MockUserRepository)
	notifier := new(MockNotifier)
	conversations := new(MockConversationStore)
	publisher := new(MockEventPublisher)
	uow.SetRepositories(userRepo, publisher)

	factory.On("Create").Return(uow)
	uow.On("Begin", ctx).Return(nil)
	uow.On("Rollback").Return(nil)
	userRepo.On("ListRegistered", ctx).Return(makeUsers(1, 2, 3), nil)
	notifier.On("Deliver", mock.Anything, mock.Anything).Return(&DeliveryReport{Sent: 3})
	conversations.On("Set", ctx, testAdminID, models.StateDone).Return(nil)
	publisher.On("Publish", mock.Anything).Return()

	coordinator := NewDrawCoordinator(factory, gate, lock, NewDrawEngine(), notifier, conversations, publisher, time.Minute)

	first, err := coordinator.ConfirmDraw(ctx, testAdminID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, first.Outcome)

	second, err := coordinator.ConfirmDraw(ctx, testAdminID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyDrawn, second.Outcome)

	closed, _ := gate.IsClosed(ctx)
	assert.True(t, closed)
	assert.Equal(t, 1, gate.closes)
	notifier.AssertNumberOfCalls(t, "Deliver", 1)
	userRepo.AssertNumberOfCalls(t, "ListRegistered", 1)
}

func TestDrawCoordinator_ConfirmDraw_ConcurrentConfirmationsDeliverOnce(t *testing.T) {
	ctx := context.Background()
	gate := &memGate{}
	lock := &memLock{}

	factory := new(MockUnitOfWorkFactory)
	uow := new(MockUnitOfWork)
	userRepo := new(MockUserRepository)
	notifier := new(MockNotifier)
	conversations := new(MockConversationStore)
	publisher := new(MockEventPublisher)
	uow.SetRepositories(userRepo, publisher)

	factory.On("Create").Return(uow)
	uow.On("Begin", ctx).Return(nil)
	uow.On("Rollback").Return(nil)
	userRepo.On("ListRegistered", ctx).Return(makeUsers(1, 2, 3, 4), nil)
	notifier.On("Deliver", mock.Anything, mock.Anything).Return(&DeliveryReport{Sent: 4})
	conversations.On("Set", ctx, testAdminID, models.StateDone).Return(nil)
	publisher.On("Publish", mock.Anything).Return()

	coordinator := NewDrawCoordinator(factory, gate, lock, NewDrawEngine(), notifier, conversations, publisher, time.Minute)

	const attempts = 10
	results := make([]*DrawResult, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := coordinator.ConfirmDraw(ctx, testAdminID)
			assert.NoError(t, err)
			results[i] = result
		}(i)
	}
	wg.Wait()

	completed := 0
	for _, r := range results {
		require.NotNil(t, r)
		if r.Outcome == OutcomeCompleted {
			completed++
		} else {
			assert.Equal(t, OutcomeAlreadyDrawn, r.Outcome)
		}
	}
	assert.Equal(t, 1, completed)
	assert.Equal(t, 1, gate.closes)
	notifier.AssertNumberOfCalls(t, "Deliver", 1)
}

func TestDrawCoordinator_ConfirmDraw_LockOutlivesItsTTLDuringDelivery(t *testing.T) {
	ctx := context.Background()
	gate := &memGate{}
	lock := &ttlLock{}
	sender := new(MockMessageSender)
	sender.On("SendDirectMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	// Four letters 100ms apart take about 300ms, twice the lock TTL
	users := makeUsers(1, 2, 3, 4)
	first := newInstance(gate, lock, sender, users, 100*time.Millisecond, 150*time.Millisecond)
	second := newInstance(gate, lock, sender, users, 100*time.Millisecond, 150*time.Millisecond)

	firstDone := make(chan *DrawResult, 1)
	go func() {
		result, err := first.ConfirmDraw(ctx, testAdminID)
		assert.NoError(t, err)
		firstDone <- result
	}()

	time.Sleep(180 * time.Millisecond)
	late, err := second.ConfirmDraw(ctx, testAdminID)
	require.NoError(t, err)
	assert.Contains(t, []DrawOutcome{OutcomeInProgress, OutcomeAlreadyDrawn}, late.Outcome)

	select {
	case result := <-firstDone:
		require.NotNil(t, result)
		assert.Equal(t, OutcomeCompleted, result.Outcome)
	case <-time.After(5 * time.Second):
		t.Fatal("first draw did not finish")
	}

	again, err := second.ConfirmDraw(ctx, testAdminID)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyDrawn, again.Outcome)

	sender.AssertNumberOfCalls(t, "SendDirectMessage", 4)
	assert.Equal(t, 1, gate.closes)
}

func TestDrawCoordinator_ConfirmDraw_LostLockStopsDelivery(t *testing.T) {
	ctx := context.Background()
	gate := &memGate{}
	lock := new(MockDrawLock)
	lock.On("Acquire", mock.Anything, 30*time.Millisecond).Return("token", true, nil)
	lock.On("Extend", mock.Anything, "token", 30*time.Millisecond).Return(false, nil)
	lock.On("Release", mock.Anything, "token").Return(nil)

	sender := new(MockMessageSender)
	sender.On("SendDirectMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	coordinator := newInstance(gate, lock, sender, makeUsers(1, 2, 3, 4), 200*time.Millisecond, 30*time.Millisecond)

	result, err := coordinator.ConfirmDraw(ctx, testAdminID)

	require.NoError(t, err)
	assert.Equal(t, OutcomePartialDelivery, result.Outcome)
	assert.NotEmpty(t, result.Report.Failed)
	assert.Less(t, result.Report.Sent, 4)
	assert.Equal(t, 1, gate.closes, "letters already went out, so the gate still closes")
	lock.AssertCalled(t, "Extend", mock.Anything, "token", 30*time.Millisecond)
}

func TestDrawCoordinator_ConfirmDraw_CancelledRequestStillClosesGate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	gate := new(MockDrawGate)
	gate.On("IsClosed", mock.Anything).Return(false, nil)
	gate.On("Close", mock.MatchedBy(func(c context.Context) bool {
		return c.Err() == nil
	})).Return(nil)

	sender := new(MockMessageSender)
	sender.On("SendDirectMessage", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(nil)

	coordinator := newInstance(gate, &memLock{}, sender, makeUsers(1, 2, 3), 50*time.Millisecond, time.Minute)

	result, err := coordinator.ConfirmDraw(ctx, testAdminID)

	require.NoError(t, err)
	assert.Equal(t, OutcomePartialDelivery, result.Outcome)
	assert.Equal(t, 1, result.Report.Sent)
	gate.AssertNumberOfCalls(t, "Close", 1)
}
