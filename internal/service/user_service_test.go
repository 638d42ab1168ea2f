package service_test

import (
	"context"
	"testing"

	"github.com/dom/hydration-tracker/internal/domain"
	"github.com/dom/hydration-tracker/internal/repository"
	"github.com/dom/hydration-tracker/internal/service"
	"github.com/dom/hydration-tracker/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(store repository.KVStore) *service.UserService {
	return service.NewUserService(store, testKeys, 2000, testutil.NewClock(testutil.TestNow).Now)
}

func TestUserService_Load(t *testing.T) {
	alice := testutil.NewUserBuilder().WithName("Alice").Build()
	bob := testutil.NewUserBuilder().WithName("Bob").WithDailyGoal(3000).Build()

	tests := []struct {
		name            string
		setup           func(t *testing.T, store *flakyStore)
		expectedNames   []string
		expectedCurrent string
	}{
		{
			name:          "empty store creates default user",
			expectedNames: []string{"Me"},
		},
		{
			name: "corrupt users recreate default user",
			setup: func(t *testing.T, store *flakyStore) {
				store.SetRaw(testKeys.Users(), `[{"id":`)
			},
			expectedNames: []string{"Me"},
		},
		{
			name: "empty user list creates default user",
			setup: func(t *testing.T, store *flakyStore) {
				store.SetRaw(testKeys.Users(), `[]`)
			},
			expectedNames: []string{"Me"},
		},
		{
			name: "stored current user is kept",
			setup: func(t *testing.T, store *flakyStore) {
				testutil.SeedUsers(t, store, testKeys, bob.ID, alice, bob)
			},
			expectedNames:   []string{"Alice", "Bob"},
			expectedCurrent: bob.ID,
		},
		{
			name: "unknown current user falls back to first",
			setup: func(t *testing.T, store *flakyStore) {
				testutil.SeedUsers(t, store, testKeys, "gone", alice, bob)
			},
			expectedNames:   []string{"Alice", "Bob"},
			expectedCurrent: alice.ID,
		},
		{
			name: "corrupt current user falls back to first",
			setup: func(t *testing.T, store *flakyStore) {
				testutil.SeedUsers(t, store, testKeys, bob.ID, alice, bob)
				store.SetRaw(testKeys.CurrentUserID(), `{`)
			},
			expectedNames:   []string{"Alice", "Bob"},
			expectedCurrent: alice.ID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFlakyStore()
			if tt.setup != nil {
				tt.setup(t, store)
			}
			users := newUserService(store)

			roster, err := users.Load(context.Background())
			require.NoError(t, err)

			names := make([]string, len(roster.Users))
			for i, u := range roster.Users {
				names[i] = u.Name
			}
			assert.Equal(t, tt.expectedNames, names)

			if tt.expectedCurrent != "" {
				assert.Equal(t, tt.expectedCurrent, roster.CurrentUserID)
			} else {
				assert.Equal(t, roster.Users[0].ID, roster.CurrentUserID)
				assert.Equal(t, 2000, roster.Users[0].DailyGoal)
			}

			// The selection is written back
			var stored string
			found, err := repository.GetJSON(context.Background(), store, testKeys.CurrentUserID(), &stored)
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, roster.CurrentUserID, stored)
		})
	}
}

func TestUserService_LoadStoreOffline(t *testing.T) {
	store := newFlakyStore()
	store.failReads.Store(true)

	_, err := newUserService(store).Load(context.Background())
	assert.ErrorIs(t, err, errOffline)
}

func TestUserService_AddUser(t *testing.T) {
	store := newFlakyStore()
	users := newUserService(store)
	ctx := context.Background()

	roster, err := users.Load(ctx)
	require.NoError(t, err)
	me := roster.CurrentUserID

	id, err := users.AddUser(ctx, "Alice", 2500)
	require.NoError(t, err)

	roster = users.Roster()
	require.Len(t, roster.Users, 2)
	assert.Equal(t, me, roster.CurrentUserID, "adding does not switch")
	assert.Equal(t, "Alice", roster.Users[1].Name)
	assert.Equal(t, testutil.TestNow, roster.Users[1].CreatedAt)

	var days []domain.DayData
	found, err := repository.GetJSON(ctx, store, testKeys.Log(id), &days)
	require.NoError(t, err)
	assert.True(t, found, "new user gets an empty log")
	assert.Empty(t, days)

	_, err = users.AddUser(ctx, "Zero", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidGoal)
	assert.Len(t, users.Roster().Users, 2)
}

func TestUserService_UpdateUser(t *testing.T) {
	users := newUserService(newFlakyStore())
	ctx := context.Background()
	roster, err := users.Load(ctx)
	require.NoError(t, err)
	me := roster.CurrentUserID

	goal := 2750
	updated, err := users.UpdateUser(ctx, me, domain.UserUpdate{DailyGoal: &goal})
	require.NoError(t, err)
	assert.Equal(t, "Me", updated.Name, "name left unchanged")
	assert.Equal(t, 2750, updated.DailyGoal)

	name := "Sam"
	updated, err = users.UpdateUser(ctx, me, domain.UserUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Sam", updated.Name)
	assert.Equal(t, 2750, updated.DailyGoal)

	_, err = users.UpdateUser(ctx, "nope", domain.UserUpdate{Name: &name})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	bad := -1
	_, err = users.UpdateUser(ctx, me, domain.UserUpdate{DailyGoal: &bad})
	assert.ErrorIs(t, err, domain.ErrInvalidGoal)
}

func TestUserService_DeleteUser(t *testing.T) {
	ctx := context.Background()

	t.Run("last user is kept", func(t *testing.T) {
		users := newUserService(newFlakyStore())
		roster, err := users.Load(ctx)
		require.NoError(t, err)

		_, err = users.DeleteUser(ctx, roster.CurrentUserID)
		assert.ErrorIs(t, err, domain.ErrLastUser)
		assert.Equal(t, roster, users.Roster())
	})

	t.Run("deleting the current user switches to the first remaining", func(t *testing.T) {
		store := newFlakyStore()
		alice := testutil.NewUserBuilder().WithName("Alice").Build()
		bob := testutil.NewUserBuilder().WithName("Bob").Build()
		carol := testutil.NewUserBuilder().WithName("Carol").Build()
		testutil.SeedUsers(t, store, testKeys, bob.ID, alice, bob, carol)
		for _, key := range testKeys.UserScoped(bob.ID) {
			store.SetRaw(key, `true`)
		}

		users := newUserService(store)
		_, err := users.Load(ctx)
		require.NoError(t, err)

		switchedTo, err := users.DeleteUser(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, switchedTo)
		assert.Equal(t, alice.ID, users.Roster().CurrentUserID)
		assert.Len(t, users.Roster().Users, 2)

		for _, key := range testKeys.UserScoped(bob.ID) {
			_, found, err := store.Get(ctx, key)
			require.NoError(t, err)
			assert.False(t, found, "%s should be removed", key)
		}
		assert.Equal(t, 2, store.Len(), "only the users and current user keys remain")
	})

	t.Run("deleting another user keeps the selection", func(t *testing.T) {
		store := newFlakyStore()
		alice := testutil.NewUserBuilder().Build()
		bob := testutil.NewUserBuilder().Build()
		testutil.SeedUsers(t, store, testKeys, alice.ID, alice, bob)

		users := newUserService(store)
		_, err := users.Load(ctx)
		require.NoError(t, err)

		switchedTo, err := users.DeleteUser(ctx, bob.ID)
		require.NoError(t, err)
		assert.Empty(t, switchedTo)
		assert.Equal(t, alice.ID, users.Roster().CurrentUserID)
	})
}

func TestUserService_SwitchUser(t *testing.T) {
	store := newFlakyStore()
	alice := testutil.NewUserBuilder().Build()
	bob := testutil.NewUserBuilder().Build()
	testutil.SeedUsers(t, store, testKeys, alice.ID, alice, bob)

	users := newUserService(store)
	ctx := context.Background()
	_, err := users.Load(ctx)
	require.NoError(t, err)

	changed, err := users.SwitchUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = users.SwitchUser(ctx, bob.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	current, ok := users.Current()
	require.True(t, ok)
	assert.Equal(t, bob.ID, current.ID)

	_, err = users.SwitchUser(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
	assert.Equal(t, bob.ID, users.Roster().CurrentUserID)
}

func TestUserService_PersistFailureKeepsState(t *testing.T) {
	store := newFlakyStore()
	users := newUserService(store)
	ctx := context.Background()
	_, err := users.Load(ctx)
	require.NoError(t, err)

	store.failWrites.Store(true)

	id, err := users.AddUser(ctx, "Alice", 2000)
	assert.ErrorIs(t, err, domain.ErrPersist)
	assert.ErrorIs(t, err, errDiskFull)

	_, ok := users.Get(id)
	assert.True(t, ok, "user stays in memory")

	changed, err := users.SwitchUser(ctx, id)
	assert.True(t, changed)
	assert.ErrorIs(t, err, domain.ErrPersist)
	assert.Equal(t, id, users.Roster().CurrentUserID)
}
