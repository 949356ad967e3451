package user

import (
	"context"
	"testing"

	"coinvest-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupUserTest(t *testing.T) *Service {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.User{}))
	return &Service{DB: db}
}

func validInput() RegisterInput {
	return RegisterInput{
		Email:    "alice@test.io",
		Password: "Str0ng!pass",
		Fullname: "Alice Example",
	}
}

func TestRegister(t *testing.T) {
	svc := setupUserTest(t)
	u, err := svc.Register(context.Background(), validInput())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, u.UserID)
	assert.Equal(t, "alice@test.io", u.Email)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.Len(t, u.ReferralCode, 8)
	assert.Nil(t, u.ReferredBy)
	assert.NotEqual(t, "Str0ng!pass", u.PasswordHash)
}

func TestRegister_Validation(t *testing.T) {
	svc := setupUserTest(t)
	ctx := context.Background()

	in := validInput()
	in.Email = "not-an-email"
	_, err := svc.Register(ctx, in)
	assert.EqualError(t, err, "Invalid email format")

	in = validInput()
	in.Password = "short"
	_, err = svc.Register(ctx, in)
	assert.Error(t, err)

	in = validInput()
	in.Fullname = "   "
	_, err = svc.Register(ctx, in)
	assert.Error(t, err)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := setupUserTest(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	in := validInput()
	in.Fullname = "Alice Again"
	_, err = svc.Register(ctx, in)
	assert.EqualError(t, err, "Email already registered")
}

func TestRegister_BindsReferrer(t *testing.T) {
	svc := setupUserTest(t)
	ctx := context.Background()

	a, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	in := RegisterInput{
		Email:        "bob@test.io",
		Password:     "Str0ng!pass",
		Fullname:     "Bob Example",
		ReferralCode: a.ReferralCode,
	}
	b, err := svc.Register(ctx, in)
	require.NoError(t, err)
	require.NotNil(t, b.ReferredBy)
	assert.Equal(t, a.UserID, *b.ReferredBy)
	assert.NotEqual(t, a.ReferralCode, b.ReferralCode)
}

func TestRegister_UnknownReferralCode(t *testing.T) {
	svc := setupUserTest(t)

	in := validInput()
	in.ReferralCode = "deadbeef" // well-formed but nobody owns it
	_, err := svc.Register(context.Background(), in)
	assert.EqualError(t, err, "Invalid referral code")

	in.ReferralCode = "not hex!"
	_, err = svc.Register(context.Background(), in)
	assert.EqualError(t, err, "Invalid referral code")
}

func TestAuthenticate(t *testing.T) {
	svc := setupUserTest(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, "Alice@Test.io", "Str0ng!pass")
	require.NoError(t, err)
	assert.Equal(t, registered.UserID, u.UserID)

	_, err = svc.Authenticate(ctx, "alice@test.io", "wrong-pass")
	assert.EqualError(t, err, "Invalid email or password")

	_, err = svc.Authenticate(ctx, "nobody@test.io", "Str0ng!pass")
	assert.EqualError(t, err, "Invalid email or password")
}

func TestGet(t *testing.T) {
	svc := setupUserTest(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	u, err := svc.Get(ctx, registered.UserID)
	require.NoError(t, err)
	assert.Equal(t, registered.Email, u.Email)

	_, err = svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
