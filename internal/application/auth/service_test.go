package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-auth-api/internal/application/otp"
	"github.com/go-auth-api/internal/domain"
	jwtinfra "github.com/go-auth-api/internal/infrastructure/jwt"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Put(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	return m.Called(ctx, userID, updates).Error(0)
}
func (m *mockUserStore) SoftDelete(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockOTPManager struct{ mock.Mock }

func (m *mockOTPManager) Issue(ctx context.Context, u *domain.User, channel otp.Channel, purpose otp.Purpose) error {
	return m.Called(ctx, u, channel, purpose).Error(0)
}
func (m *mockOTPManager) Verify(ctx context.Context, userID, code string) error {
	return m.Called(ctx, userID, code).Error(0)
}

type mockTokenCodec struct{ mock.Mock }

func (m *mockTokenCodec) Sign(class jwtinfra.Class, userID, email string, role domain.Role) (string, error) {
	args := m.Called(class, userID, email, role)
	return args.String(0), args.Error(1)
}
func (m *mockTokenCodec) Verify(class jwtinfra.Class, tokenStr string) (*jwtinfra.Claims, error) {
	args := m.Called(class, tokenStr)
	if c, _ := args.Get(0).(*jwtinfra.Claims); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

// --- helpers ---

func newTestService(us *mockUserStore, om *mockOTPManager, tc *mockTokenCodec) Service {
	return NewService(ServiceDeps{
		UserRepo:   us,
		OTPManager: om,
		Tokens:     tc,
		BcryptCost: bcrypt.MinCost,
	})
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func expectTokenPair(tc *mockTokenCodec) {
	tc.On("Sign", jwtinfra.ClassAccess, mock.Anything, mock.Anything, mock.Anything).Return("access-token", nil)
	tc.On("Sign", jwtinfra.ClassRefresh, mock.Anything, mock.Anything, mock.Anything).Return("refresh-token", nil)
}

func activeUser(t *testing.T) *domain.User {
	return &domain.User{
		UserID:        "u1",
		Email:         "alice@example.com",
		PasswordHash:  hashOf(t, "correct-horse"),
		Role:          domain.RoleUser,
		Status:        domain.StatusActive,
		EmailVerified: true,
	}
}

// --- Register ---

func TestRegister_EmailConflict(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(&domain.User{}, nil)

	svc := newTestService(us, nil, nil)
	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		FirstName: "Alice", LastName: "Smith",
		Email: "alice@example.com", Password: "correct-horse",
	})

	assert.ErrorIs(t, err, domain.ErrConflict)
	us.AssertExpectations(t)
}

func TestRegister_UniquenessProbeFailure_DoesNotCreate(t *testing.T) {
	us := &mockUserStore{}
	storeErr := errors.New("dynamo unavailable")
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, storeErr)

	svc := newTestService(us, nil, nil)
	_, err := svc.Register(context.Background(), domain.RegisterRequest{
		FirstName: "Alice", LastName: "Smith",
		Email: "alice@example.com", Password: "correct-horse",
	})

	assert.ErrorIs(t, err, storeErr)
	assert.NotErrorIs(t, err, domain.ErrConflict)
	us.AssertNotCalled(t, "Put")
}

func TestRegister_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	tc := &mockTokenCodec{}
	us.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)
	expectTokenPair(tc)

	svc := newTestService(us, nil, tc)
	res, err := svc.Register(context.Background(), domain.RegisterRequest{
		FirstName: "Alice", LastName: "Smith",
		Email: "alice@example.com", Password: "correct-horse",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, res.User.Role)
	assert.Equal(t, domain.StatusActive, res.User.Status)
	assert.True(t, res.User.EmailVerified)
	assert.Equal(t, "access-token", res.AccessToken)
	assert.Equal(t, "refresh-token", res.RefreshToken)
	assert.NotEqual(t, "correct-horse", res.User.PasswordHash)
	us.AssertExpectations(t)
}

// --- Login ---

func TestLogin_UnknownEmail(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, domain.ErrNotFound)

	svc := newTestService(us, nil, nil)
	_, err := svc.Login(context.Background(), domain.LoginRequest{
		Email: "nobody@example.com", Password: "whatever1",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLogin_BlockedAccount(t *testing.T) {
	u := activeUser(t)
	u.Status = domain.StatusBlocked
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, u.Email).Return(u, nil)

	svc := newTestService(us, nil, nil)
	_, err := svc.Login(context.Background(), domain.LoginRequest{
		Email: u.Email, Password: "correct-horse",
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestLogin_WrongPassword(t *testing.T) {
	u := activeUser(t)
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, u.Email).Return(u, nil)

	svc := newTestService(us, nil, nil)
	_, err := svc.Login(context.Background(), domain.LoginRequest{
		Email: u.Email, Password: "wrong-password",
	})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_PendingUnverified_TriggersOTP(t *testing.T) {
	u := activeUser(t)
	u.Status = domain.StatusPending
	u.EmailVerified = false
	us := &mockUserStore{}
	om := &mockOTPManager{}
	us.On("GetByEmail", mock.Anything, u.Email).Return(u, nil)
	om.On("Issue", mock.Anything, u, otp.ChannelEmail, otp.PurposeVerification).Return(nil)

	svc := newTestService(us, om, nil)
	res, err := svc.Login(context.Background(), domain.LoginRequest{
		Email: u.Email, Password: "correct-horse",
	})

	require.NoError(t, err)
	assert.True(t, res.RequiresVerification)
	assert.Empty(t, res.AccessToken)
	assert.Empty(t, res.RefreshToken)
	om.AssertExpectations(t)
}

func TestLogin_HappyPath(t *testing.T) {
	u := activeUser(t)
	us := &mockUserStore{}
	tc := &mockTokenCodec{}
	us.On("GetByEmail", mock.Anything, u.Email).Return(u, nil)
	expectTokenPair(tc)

	svc := newTestService(us, nil, tc)
	res, err := svc.Login(context.Background(), domain.LoginRequest{
		Email: u.Email, Password: "correct-horse",
	})

	require.NoError(t, err)
	assert.Equal(t, "access-token", res.AccessToken)
	assert.Equal(t, "refresh-token", res.RefreshToken)
	assert.False(t, res.RequiresVerification)
}

// --- AdminLogin ---

func TestAdminLogin_RejectsRegularUser(t *testing.T) {
	u := activeUser(t)
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, u.Email).Return(u, nil)

	svc := newTestService(us, nil, nil)
	_, err := svc.AdminLogin(context.Background(), domain.LoginRequest{
		Email: u.Email, Password: "correct-horse",
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAdminLogin_AccessTokenOnly(t *testing.T) {
	u := activeUser(t)
	u.Role = domain.RoleAdmin
	us := &mockUserStore{}
	tc := &mockTokenCodec{}
	us.On("GetByEmail", mock.Anything, u.Email).Return(u, nil)
	tc.On("Sign", jwtinfra.ClassAccess, u.UserID, u.Email, domain.RoleAdmin).Return("access-token", nil)

	svc := newTestService(us, nil, tc)
	res, err := svc.AdminLogin(context.Background(), domain.LoginRequest{
		Email: u.Email, Password: "correct-horse",
	})

	require.NoError(t, err)
	assert.Equal(t, "access-token", res.AccessToken)
	assert.Empty(t, res.RefreshToken)
	tc.AssertNotCalled(t, "Sign", jwtinfra.ClassRefresh, mock.Anything, mock.Anything, mock.Anything)
}

// --- GoogleLogin ---

func federatedToken(t *testing.T, email, name string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtinfra.FederatedClaims{
		Email: email, Name: name, EmailVerified: true,
	})
	signed, err := tok.SignedString([]byte("google-secret"))
	require.NoError(t, err)
	return signed
}

func TestGoogleLogin_ExistingAccount(t *testing.T) {
	u := activeUser(t)
	us := &mockUserStore{}
	tc := &mockTokenCodec{}
	us.On("GetByEmail", mock.Anything, u.Email).Return(u, nil)
	expectTokenPair(tc)

	svc := newTestService(us, nil, tc)
	res, err := svc.GoogleLogin(context.Background(), federatedToken(t, u.Email, "Alice Smith"))

	require.NoError(t, err)
	assert.Equal(t, u, res.User)
	us.AssertNotCalled(t, "Put")
}

func TestGoogleLogin_ProvisionsNewAccount(t *testing.T) {
	us := &mockUserStore{}
	tc := &mockTokenCodec{}
	us.On("GetByEmail", mock.Anything, "bob@example.com").Return(nil, domain.ErrNotFound)
	us.On("Put", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "bob@example.com" &&
			u.FirstName == "Bob" && u.LastName == "Jones Jr" &&
			u.AccountWith == "GOOGLE" &&
			u.Status == domain.StatusActive &&
			u.EmailVerified && u.PasswordHash != ""
	})).Return(nil)
	expectTokenPair(tc)

	svc := newTestService(us, nil, tc)
	res, err := svc.GoogleLogin(context.Background(), federatedToken(t, "bob@example.com", "Bob Jones Jr"))

	require.NoError(t, err)
	assert.Equal(t, "access-token", res.AccessToken)
	us.AssertExpectations(t)
}

func TestGoogleLogin_MissingEmailClaim(t *testing.T) {
	svc := newTestService(&mockUserStore{}, nil, nil)
	_, err := svc.GoogleLogin(context.Background(), federatedToken(t, "", "No Email"))
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

// --- VerifyEmail / ResendOTP ---

func TestVerifyEmail_WrongCode(t *testing.T) {
	om := &mockOTPManager{}
	om.On("Verify", mock.Anything, "u1", "0000").Return(domain.ErrNotFound)

	svc := newTestService(&mockUserStore{}, om, nil)
	_, err := svc.VerifyEmail(context.Background(), "u1", "0000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVerifyEmail_ActivatesAccount(t *testing.T) {
	u := activeUser(t)
	us := &mockUserStore{}
	om := &mockOTPManager{}
	tc := &mockTokenCodec{}
	om.On("Verify", mock.Anything, "u1", "1234").Return(nil)
	us.On("Update", mock.Anything, "u1", mock.MatchedBy(func(m map[string]interface{}) bool {
		return m[fieldEmailVerified] == true && m[fieldStatus] == domain.StatusActive
	})).Return(nil)
	us.On("Get", mock.Anything, "u1").Return(u, nil)
	expectTokenPair(tc)

	svc := newTestService(us, om, tc)
	res, err := svc.VerifyEmail(context.Background(), "u1", "1234")

	require.NoError(t, err)
	assert.Equal(t, "access-token", res.AccessToken)
	us.AssertExpectations(t)
	om.AssertExpectations(t)
}

// --- ForgotPassword / reset flow ---

func TestForgotPassword_UnknownEmail_NoOTPWritten(t *testing.T) {
	us := &mockUserStore{}
	om := &mockOTPManager{}
	us.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, domain.ErrNotFound)

	svc := newTestService(us, om, nil)
	_, err := svc.ForgotPassword(context.Background(), "nobody@example.com")

	assert.ErrorIs(t, err, domain.ErrBadRequest)
	om.AssertNotCalled(t, "Issue")
}

func TestForgotPassword_IssuesRecoveryOTP(t *testing.T) {
	u := activeUser(t)
	us := &mockUserStore{}
	om := &mockOTPManager{}
	us.On("GetByEmail", mock.Anything, u.Email).Return(u, nil)
	om.On("Issue", mock.Anything, u, otp.ChannelEmail, otp.PurposeRecovery).Return(nil)

	svc := newTestService(us, om, nil)
	userID, err := svc.ForgotPassword(context.Background(), u.Email)

	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	om.AssertExpectations(t)
}

func TestVerifyResetOTP_IssuesResetToken(t *testing.T) {
	om := &mockOTPManager{}
	tc := &mockTokenCodec{}
	om.On("Verify", mock.Anything, "u1", "1234").Return(nil)
	tc.On("Sign", jwtinfra.ClassReset, "u1", "", domain.Role("")).Return("reset-token", nil)

	svc := newTestService(&mockUserStore{}, om, tc)
	token, err := svc.VerifyResetOTP(context.Background(), "u1", "1234")

	require.NoError(t, err)
	assert.Equal(t, "reset-token", token)
}

func TestVerifyResetOTP_ExpiredCode(t *testing.T) {
	om := &mockOTPManager{}
	om.On("Verify", mock.Anything, "u1", "1234").Return(domain.ErrRequestTimeout)

	svc := newTestService(&mockUserStore{}, om, nil)
	_, err := svc.VerifyResetOTP(context.Background(), "u1", "1234")
	assert.ErrorIs(t, err, domain.ErrRequestTimeout)
}

func TestResetPassword_StampsPasswordChangedAt(t *testing.T) {
	us := &mockUserStore{}
	us.On("Update", mock.Anything, "u1", mock.MatchedBy(func(m map[string]interface{}) bool {
		_, hasStamp := m[fieldPasswordChangedAt].(time.Time)
		return m[fieldPasswordHash] != nil && hasStamp
	})).Return(nil)

	svc := newTestService(us, nil, nil)
	require.NoError(t, svc.ResetPassword(context.Background(), "u1", "new-password-1"))
	us.AssertExpectations(t)
}

// --- ChangePassword ---

func TestChangePassword_WrongCurrent(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "u1").Return(activeUser(t), nil)

	svc := newTestService(us, nil, nil)
	err := svc.ChangePassword(context.Background(), "u1", "wrong", "new-password-1")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestChangePassword_HappyPath(t *testing.T) {
	us := &mockUserStore{}
	us.On("Get", mock.Anything, "u1").Return(activeUser(t), nil)
	us.On("Update", mock.Anything, "u1", mock.MatchedBy(func(m map[string]interface{}) bool {
		_, hasStamp := m[fieldPasswordChangedAt].(time.Time)
		return hasStamp
	})).Return(nil)

	svc := newTestService(us, nil, nil)
	require.NoError(t, svc.ChangePassword(context.Background(), "u1", "correct-horse", "new-password-1"))
	us.AssertExpectations(t)
}

// --- Refresh ---

func refreshClaims(issuedAt time.Time) *jwtinfra.Claims {
	return &jwtinfra.Claims{
		UserID: "u1",
		Email:  "alice@example.com",
		Role:   domain.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(issuedAt),
		},
	}
}

func TestRefresh_InvalidToken(t *testing.T) {
	tc := &mockTokenCodec{}
	tc.On("Verify", jwtinfra.ClassRefresh, "bad").Return(nil, domain.ErrUnauthorized)

	svc := newTestService(&mockUserStore{}, nil, tc)
	_, err := svc.Refresh(context.Background(), "bad")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestRefresh_RejectedAfterPasswordChange(t *testing.T) {
	issued := time.Now().Add(-time.Hour)
	changed := time.Now().Add(-time.Minute)
	u := activeUser(t)
	u.PasswordChangedAt = &changed

	us := &mockUserStore{}
	tc := &mockTokenCodec{}
	us.On("Get", mock.Anything, "u1").Return(u, nil)
	tc.On("Verify", jwtinfra.ClassRefresh, "old-refresh").Return(refreshClaims(issued), nil)

	svc := newTestService(us, nil, tc)
	_, err := svc.Refresh(context.Background(), "old-refresh")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	tc.AssertNotCalled(t, "Sign", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRefresh_RotatesPair(t *testing.T) {
	issued := time.Now().Add(-time.Minute)
	u := activeUser(t)

	us := &mockUserStore{}
	tc := &mockTokenCodec{}
	us.On("Get", mock.Anything, "u1").Return(u, nil)
	tc.On("Verify", jwtinfra.ClassRefresh, "good-refresh").Return(refreshClaims(issued), nil)
	expectTokenPair(tc)

	svc := newTestService(us, nil, tc)
	pair, err := svc.Refresh(context.Background(), "good-refresh")

	require.NoError(t, err)
	assert.Equal(t, "access-token", pair.AccessToken)
	assert.Equal(t, "refresh-token", pair.RefreshToken)
}

func TestRefresh_DeletedAccount(t *testing.T) {
	u := activeUser(t)
	u.IsDeleted = true
	us := &mockUserStore{}
	tc := &mockTokenCodec{}
	us.On("Get", mock.Anything, "u1").Return(u, nil)
	tc.On("Verify", jwtinfra.ClassRefresh, "refresh").Return(refreshClaims(time.Now()), nil)

	svc := newTestService(us, nil, tc)
	_, err := svc.Refresh(context.Background(), "refresh")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

// --- DeleteAccount ---

func TestDeleteAccount_SoftDeletes(t *testing.T) {
	u := activeUser(t)
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, u.Email).Return(u, nil)
	us.On("SoftDelete", mock.Anything, "u1").Return(nil)

	svc := newTestService(us, nil, nil)
	require.NoError(t, svc.DeleteAccount(context.Background(), u.Email))
	us.AssertExpectations(t)
}

func TestDeleteAccount_Blocked(t *testing.T) {
	u := activeUser(t)
	u.Status = domain.StatusBlocked
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, u.Email).Return(u, nil)

	svc := newTestService(us, nil, nil)
	err := svc.DeleteAccount(context.Background(), u.Email)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	us.AssertNotCalled(t, "SoftDelete")
}

// --- splitName ---

func TestSplitName(t *testing.T) {
	first, last := splitName("Bob Jones Jr")
	assert.Equal(t, "Bob", first)
	assert.Equal(t, "Jones Jr", last)

	first, last = splitName("Cher")
	assert.Equal(t, "Cher", first)
	assert.Empty(t, last)

	first, last = splitName("")
	assert.Empty(t, first)
	assert.Empty(t, last)
}
