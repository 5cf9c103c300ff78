package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"santa/database"
	"santa/events"
	"santa/repository/testutil"
	"santa/service"
)

const (
	defaultWait = 500 * time.Millisecond
	defaultTick = 20 * time.Millisecond
)

func TestUserRepository_Ensure(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("creates on first contact", func(t *testing.T) {
		user, created, err := repo.Ensure(ctx, 100, "@alice Alice")
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, int64(100), user.DiscordID)
		assert.Equal(t, "@alice Alice", user.Handle)
		assert.Empty(t, user.Name)
		assert.Empty(t, user.Wish)
		assert.False(t, user.Registered)
	})

	t.Run("keeps the first handle", func(t *testing.T) {
		user, created, err := repo.Ensure(ctx, 100, "@alice Alice Renamed")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "@alice Alice", user.Handle)
	})
}

func TestUserRepository_GetByDiscordID_Missing(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewUserRepository(testDB.DB)

	user, err := repo.GetByDiscordID(context.Background(), 404)
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestUserRepository_Registration(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	_, _, err := repo.Ensure(ctx, 1, "@bob")
	require.NoError(t, err)

	t.Run("wish before name is refused", func(t *testing.T) {
		err := repo.UpdateWishAndRegister(ctx, 1, "Socks")
		assert.ErrorIs(t, err, service.ErrNameRequired)

		user, err := repo.GetByDiscordID(ctx, 1)
		require.NoError(t, err)
		assert.False(t, user.Registered)
		assert.Empty(t, user.Wish)
	})

	t.Run("name then wish registers", func(t *testing.T) {
		require.NoError(t, repo.UpdateName(ctx, 1, "Bob"))
		require.NoError(t, repo.UpdateWishAndRegister(ctx, 1, "Socks"))

		user, err := repo.GetByDiscordID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "Bob", user.Name)
		assert.Equal(t, "Socks", user.Wish)
		assert.True(t, user.Registered)
	})

	t.Run("missing user", func(t *testing.T) {
		assert.ErrorIs(t, repo.UpdateName(ctx, 999, "Ghost"), service.ErrUserNotFound)
		assert.ErrorIs(t, repo.UpdateWishAndRegister(ctx, 999, "Boo"), service.ErrUserNotFound)
	})
}

func TestUserRepository_RegisteredRequiresProfile(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	_, err := testDB.DB.Exec(ctx,
		`INSERT INTO users (discord_id, handle, name, wish, registered) VALUES (1, '@x', '', '', TRUE)`)
	assert.Error(t, err, "the schema rejects registered rows without name and wish")
}

func TestUserRepository_Listing(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	testutil.SeedUsers(t, testDB.DB,
		testutil.Registrant{DiscordID: 30, Name: "Carol", Wish: "Tea"},
		testutil.Registrant{DiscordID: 10, Name: "Dave"},
		testutil.Registrant{DiscordID: 20, Name: "Erin", Wish: "Books"},
	)

	t.Run("registered in insertion order", func(t *testing.T) {
		users, err := repo.ListRegistered(ctx)
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, int64(30), users[0].DiscordID)
		assert.Equal(t, int64(20), users[1].DiscordID)
	})

	t.Run("statistics in insertion order", func(t *testing.T) {
		stats, err := repo.ListAll(ctx)
		require.NoError(t, err)
		require.Len(t, stats, 3)

		assert.Equal(t, testutil.TestHandle(30), stats[0].Handle)
		assert.True(t, stats[0].Registered)
		assert.Equal(t, "Dave", stats[1].Name)
		assert.False(t, stats[1].Registered)
		assert.True(t, stats[2].Registered)
	})

	t.Run("empty after reset", func(t *testing.T) {
		testDB.Reset(t)

		users, err := repo.ListRegistered(ctx)
		require.NoError(t, err)
		assert.Empty(t, users)

		stats, err := repo.ListAll(ctx)
		require.NoError(t, err)
		assert.NotNil(t, stats)
		assert.Empty(t, stats)
	})
}

func TestMigrator_Status(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	migrator, err := database.NewMigrator(testDB.URL)
	require.NoError(t, err)
	defer migrator.Close()

	status, err := migrator.Status()
	require.NoError(t, err)
	assert.True(t, status.Applied)
	assert.Equal(t, uint(1), status.Version)
	assert.False(t, status.Dirty)

	changed, err := migrator.Up()
	require.NoError(t, err)
	assert.False(t, changed, "schema is already current")
}

func TestUnitOfWork_EventsFlushOnlyAfterCommit(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	bus := events.NewBus()
	received := make(chan events.Event, 1)
	bus.Subscribe(events.EventTypeUserRegistered, func(ctx context.Context, e events.Event) {
		received <- e
	})

	factory := NewUnitOfWorkFactory(testDB.DB, bus)

	t.Run("rollback discards", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		_, _, err := uow.UserRepository().Ensure(ctx, 1, "@rolled")
		require.NoError(t, err)
		uow.EventBus().Publish(events.UserRegisteredEvent{DiscordID: 1})
		require.NoError(t, uow.Rollback())

		assert.Never(t, func() bool { return len(received) > 0 }, defaultWait, defaultTick)

		user, err := NewUserRepository(testDB.DB).GetByDiscordID(ctx, 1)
		require.NoError(t, err)
		assert.Nil(t, user, "rolled back insert is not visible")
	})

	t.Run("commit flushes", func(t *testing.T) {
		uow := factory.Create()
		require.NoError(t, uow.Begin(ctx))
		_, _, err := uow.UserRepository().Ensure(ctx, 2, "@committed")
		require.NoError(t, err)
		uow.EventBus().Publish(events.UserRegisteredEvent{DiscordID: 2})
		require.NoError(t, uow.Commit())
		require.NoError(t, uow.Rollback(), "rollback after commit is a no-op")

		select {
		case e := <-received:
			assert.Equal(t, int64(2), e.(events.UserRegisteredEvent).DiscordID)
		case <-time.After(defaultWait):
			t.Fatal("event was not delivered after commit")
		}
	})
}
