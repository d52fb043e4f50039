package repository

import (
	"context"
	"testing"

	"crmportal/internal/testdb"
	"crmportal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAuthenticate(t *testing.T) {
	db := testdb.Open(t)
	users := NewUserRepository(db)
	ctx := context.Background()

	active := testdb.User(t, db, "alice", "correct-horse", models.RoleManager, models.UserActive)
	testdb.User(t, db, "bob", "battery-staple", models.RoleSales, models.UserInactive)

	t.Run("by username", func(t *testing.T) {
		u, err := users.Authenticate(ctx, "alice", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, active.ID, u.ID)
	})

	t.Run("by email", func(t *testing.T) {
		u, err := users.Authenticate(ctx, " alice@example.com ", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, models.RoleManager, u.Role)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := users.Authenticate(ctx, "alice", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := users.Authenticate(ctx, "mallory", "whatever")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive account", func(t *testing.T) {
		_, err := users.Authenticate(ctx, "bob", "battery-staple")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestUserUpdateKeepsPasswordUnlessSupplied(t *testing.T) {
	db := testdb.Open(t)
	users := NewUserRepository(db)
	ctx := context.Background()

	u := testdb.User(t, db, "carol", "first-pass", models.RoleSales, models.UserActive)

	edit := &models.User{
		Username:  "carol",
		Email:     "carol@corp.test",
		FirstName: "Carol",
		LastName:  "Danvers",
		Role:      models.RoleManager,
		Status:    models.UserActive,
	}
	require.NoError(t, users.Update(ctx, u.ID, edit))

	stored, err := users.Find(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "carol@corp.test", stored.Email)
	assert.Equal(t, models.RoleManager, stored.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("first-pass")))

	hash, err := HashPassword("second-pass")
	require.NoError(t, err)
	edit.PasswordHash = hash
	require.NoError(t, users.Update(ctx, u.ID, edit))

	_, err = users.Authenticate(ctx, "carol", "second-pass")
	assert.NoError(t, err)
	_, err = users.Authenticate(ctx, "carol", "first-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUserFiltersAndUniqueness(t *testing.T) {
	db := testdb.Open(t)
	users := NewUserRepository(db)
	ctx := context.Background()

	dave := testdb.User(t, db, "dave", "x", models.RoleAdmin, models.UserActive)
	testdb.User(t, db, "erin", "x", models.RoleSales, models.UserActive)
	testdb.User(t, db, "frank", "x", models.RoleSales, models.UserInactive)

	for _, filter := range []UserFilter{
		{},
		{Role: models.RoleSales},
		{Status: models.UserInactive},
		{Search: "ERIN"},
		{Role: models.RoleSales, Status: models.UserActive},
	} {
		rows, err := users.GetAll(ctx, filter, All)
		require.NoError(t, err)
		total, err := users.Count(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(len(rows)), total, "filter %+v", filter)
	}

	taken, err := users.Taken(ctx, "username", "dave", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = users.Taken(ctx, "username", "dave", dave.ID)
	require.NoError(t, err)
	assert.False(t, taken)

	taken, err = users.Taken(ctx, "email", "erin@example.com", dave.ID)
	require.NoError(t, err)
	assert.True(t, taken)

	_, err = users.Taken(ctx, "password_hash", "x", 0)
	assert.Error(t, err)

	_, err = users.Create(ctx, &models.User{Username: "dave", Email: "other@example.com", PasswordHash: "x"})
	assert.Error(t, err, "unique username is enforced by the store")
}

func TestCreateDefaultAdmin(t *testing.T) {
	db := testdb.Open(t)
	users := NewUserRepository(db)
	ctx := context.Background()
	seed := models.AdminSeed{Username: "admin", Email: "admin@example.com", Password: "admin123"}

	created, err := models.CreateDefaultAdmin(db, seed)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = models.CreateDefaultAdmin(db, seed)
	require.NoError(t, err)
	assert.False(t, created)

	admin, err := users.Authenticate(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.Equal(t, "System Administrator", admin.FullName())
}
