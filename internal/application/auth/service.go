package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-auth-api/internal/application/otp"
	"github.com/go-auth-api/internal/domain"
	jwtinfra "github.com/go-auth-api/internal/infrastructure/jwt"
	"github.com/go-auth-api/internal/pkg/id"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldPasswordHash      = "password_hash"
	fieldPasswordChangedAt = "password_changed_at"
	fieldEmailVerified     = "email_verified"
	fieldVerified          = "verified"
	fieldStatus            = "status"
)

// Result is the outcome of an operation that may issue tokens. When
// RequiresVerification is set the tokens are empty and the caller must
// complete OTP verification first.
type Result struct {
	User                 *domain.User
	AccessToken          string
	RefreshToken         string
	RequiresVerification bool
}

// TokenPair holds a rotated access/refresh pair.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*Result, error)
	Login(ctx context.Context, req domain.LoginRequest) (*Result, error)
	AdminLogin(ctx context.Context, req domain.LoginRequest) (*Result, error)
	GoogleLogin(ctx context.Context, idToken string) (*Result, error)
	VerifyEmail(ctx context.Context, userID, code string) (*Result, error)
	ResendOTP(ctx context.Context, userID string, channel otp.Channel) error
	ForgotPassword(ctx context.Context, email string) (userID string, err error)
	VerifyResetOTP(ctx context.Context, userID, code string) (resetToken string, err error)
	ResetPassword(ctx context.Context, userID, newPassword string) error
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	DeleteAccount(ctx context.Context, email string) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, userID string) error
}

type otpManager interface {
	Issue(ctx context.Context, u *domain.User, channel otp.Channel, purpose otp.Purpose) error
	Verify(ctx context.Context, userID, code string) error
}

type tokenCodec interface {
	Sign(class jwtinfra.Class, userID, email string, role domain.Role) (string, error)
	Verify(class jwtinfra.Class, tokenStr string) (*jwtinfra.Claims, error)
}

type service struct {
	users      userStore
	otps       otpManager
	tokens     tokenCodec
	bcryptCost int
}

type ServiceDeps struct {
	UserRepo   userStore
	OTPManager otpManager
	Tokens     tokenCodec
	BcryptCost int
}

func NewService(deps ServiceDeps) Service {
	cost := deps.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &service{
		users:      deps.UserRepo,
		otps:       deps.OTPManager,
		tokens:     deps.Tokens,
		bcryptCost: cost,
	}
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*Result, error) {
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:        id.New(),
		Email:         req.Email,
		PasswordHash:  string(hash),
		Role:          domain.RoleUser,
		Status:        domain.StatusActive,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		EmailVerified: true,
		Verified:      true,
		AccountWith:   "EMAIL",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, err
	}
	return s.issueTokens(u)
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*Result, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("no account with this email: %w", domain.ErrNotFound)
	}
	if u.Status == domain.StatusBlocked {
		return nil, fmt.Errorf("account is blocked: %w", domain.ErrForbidden)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("incorrect password: %w", domain.ErrUnauthorized)
	}
	if u.Status == domain.StatusPending && !u.EmailVerified {
		if err := s.otps.Issue(ctx, u, otp.ChannelEmail, otp.PurposeVerification); err != nil {
			return nil, err
		}
		return &Result{User: u, RequiresVerification: true}, nil
	}
	return s.issueTokens(u)
}

func (s *service) AdminLogin(ctx context.Context, req domain.LoginRequest) (*Result, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("no account with this email: %w", domain.ErrNotFound)
	}
	if u.Role != domain.RoleAdmin && u.Role != domain.RoleSuperAdmin {
		return nil, fmt.Errorf("not an admin account: %w", domain.ErrForbidden)
	}
	if u.Status == domain.StatusBlocked {
		return nil, fmt.Errorf("account is blocked: %w", domain.ErrForbidden)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("incorrect password: %w", domain.ErrUnauthorized)
	}
	access, err := s.tokens.Sign(jwtinfra.ClassAccess, u.UserID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	return &Result{User: u, AccessToken: access}, nil
}

// GoogleLogin accepts a Google-issued ID token, reads its identity claims and
// finds or creates the matching account. The token's signature is trusted out
// of band; only its shape is checked here.
func (s *service) GoogleLogin(ctx context.Context, idToken string) (*Result, error) {
	claims, err := jwtinfra.DecodeFederated(idToken)
	if err != nil {
		return nil, err
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("token has no email claim: %w", domain.ErrBadRequest)
	}

	u, err := s.users.GetByEmail(ctx, claims.Email)
	if err == nil {
		if u.Status == domain.StatusBlocked {
			return nil, fmt.Errorf("account is blocked: %w", domain.ErrForbidden)
		}
		return s.issueTokens(u)
	}

	// First federated sign-in: provision an account with an unguessable
	// password so the email/password path stays closed until a reset.
	randomPassword, err := randomSecret(32)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(randomPassword), s.bcryptCost)
	if err != nil {
		return nil, err
	}
	firstName, lastName := splitName(claims.Name)
	now := time.Now().UTC()
	u = &domain.User{
		UserID:        id.New(),
		Email:         claims.Email,
		PasswordHash:  string(hash),
		Role:          domain.RoleUser,
		Status:        domain.StatusActive,
		FirstName:     firstName,
		LastName:      lastName,
		Image:         claims.Picture,
		EmailVerified: claims.EmailVerified,
		Verified:      true,
		AccountWith:   "GOOGLE",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, err
	}
	return s.issueTokens(u)
}

func (s *service) VerifyEmail(ctx context.Context, userID, code string) (*Result, error) {
	if err := s.otps.Verify(ctx, userID, code); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		fieldEmailVerified: true,
		fieldVerified:      true,
		fieldStatus:        domain.StatusActive,
	}
	if err := s.users.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(u)
}

func (s *service) ResendOTP(ctx context.Context, userID string, channel otp.Channel) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	return s.otps.Issue(ctx, u, channel, otp.PurposeVerification)
}

func (s *service) ForgotPassword(ctx context.Context, email string) (string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		// No OTP is written for unknown emails.
		return "", fmt.Errorf("user not found: %w", domain.ErrBadRequest)
	}
	if err := s.otps.Issue(ctx, u, otp.ChannelEmail, otp.PurposeRecovery); err != nil {
		return "", err
	}
	return u.UserID, nil
}

func (s *service) VerifyResetOTP(ctx context.Context, userID, code string) (string, error) {
	if err := s.otps.Verify(ctx, userID, code); err != nil {
		return "", err
	}
	// Reset tokens carry only the subject id.
	return s.tokens.Sign(jwtinfra.ClassReset, userID, "", "")
}

func (s *service) ResetPassword(ctx context.Context, userID, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, userID, map[string]interface{}{
		fieldPasswordHash:      string(hash),
		fieldPasswordChangedAt: time.Now().UTC(),
	})
}

func (s *service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u.Status == domain.StatusBlocked {
		return fmt.Errorf("account is blocked: %w", domain.ErrForbidden)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)); err != nil {
		return fmt.Errorf("current password is incorrect: %w", domain.ErrUnauthorized)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, userID, map[string]interface{}{
		fieldPasswordHash:      string(hash),
		fieldPasswordChangedAt: time.Now().UTC(),
	})
}

// Refresh rotates the token pair. A refresh token issued before the account's
// last password change is rejected, which invalidates every outstanding
// refresh token on password change or reset.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.Verify(jwtinfra.ClassRefresh, refreshToken)
	if err != nil {
		return nil, err
	}
	u, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("account no longer exists: %w", domain.ErrUnauthorized)
	}
	if u.IsDeleted {
		return nil, fmt.Errorf("account no longer exists: %w", domain.ErrUnauthorized)
	}
	if u.Status == domain.StatusBlocked {
		return nil, fmt.Errorf("account is blocked: %w", domain.ErrForbidden)
	}
	if u.PasswordChangedAt != nil && claims.IssuedAt != nil &&
		u.PasswordChangedAt.Unix() > claims.IssuedAt.Unix() {
		return nil, fmt.Errorf("password changed after token was issued: %w", domain.ErrUnauthorized)
	}
	access, err := s.tokens.Sign(jwtinfra.ClassAccess, u.UserID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.Sign(jwtinfra.ClassRefresh, u.UserID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *service) DeleteAccount(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	if u.Status == domain.StatusBlocked {
		return fmt.Errorf("account is blocked: %w", domain.ErrForbidden)
	}
	return s.users.SoftDelete(ctx, u.UserID)
}

func (s *service) issueTokens(u *domain.User) (*Result, error) {
	access, err := s.tokens.Sign(jwtinfra.ClassAccess, u.UserID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.Sign(jwtinfra.ClassRefresh, u.UserID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	return &Result{User: u, AccessToken: access, RefreshToken: refresh}, nil
}

func splitName(full string) (first, last string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func randomSecret(n int) (string, error) {
	const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		b[i] = letters[idx.Int64()]
	}
	return string(b), nil
}
