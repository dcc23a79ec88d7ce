package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/petlovers/petlovers-api/internal/domain/apperror"
	"github.com/petlovers/petlovers-api/internal/domain/entity"
	repo "github.com/petlovers/petlovers-api/internal/domain/repository"
	"github.com/petlovers/petlovers-api/pkg/helpers"
)

const (
	msgInvalidCredentials  = "Invalid email or password."
	msgAccountDeactivated  = "This account has been deactivated."
	msgInvalidRefreshToken = "Invalid or expired refresh token."
	msgEmailTaken          = "An account with this email already exists."
	msgPasswordMismatch    = "Passwords do not match."
	msgPasswordEmpty       = "Password cannot be empty."
	msgUserNotFound        = "User not found."
)

// AuthService owns registration, login and refresh token rotation.
type AuthService struct {
	Users  repo.UserRepository
	Hasher PasswordHasher
	JWT    *helpers.JWTManager
	Logger *logrus.Logger
	Now    func() time.Time
}

func NewAuthService(users repo.UserRepository, hasher PasswordHasher, jwt *helpers.JWTManager, logger *logrus.Logger) *AuthService {
	return &AuthService{Users: users, Hasher: hasher, JWT: jwt, Logger: logger, Now: time.Now}
}

type UserView struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	FullName  string   `json:"fullName"`
	Roles     []string `json:"roles"`
	IsActive  bool     `json:"isActive"`
}

func NewUserView(u entity.User) UserView {
	roles := make([]string, len(u.Roles))
	copy(roles, u.Roles)
	return UserView{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		FullName:  u.FullName(),
		Roles:     roles,
		IsActive:  u.IsActive,
	}
}

type TokenPair struct {
	AccessToken        string    `json:"accessToken"`
	AccessTokenExpiry  time.Time `json:"accessTokenExpiresAt"`
	RefreshToken       string    `json:"refreshToken"`
	RefreshTokenExpiry time.Time `json:"expiresAt"`
}

type AuthResult struct {
	User   UserView  `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
}

func (s *AuthService) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *AuthService) log() *logrus.Logger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}

// internal logs err with detail and returns the opaque internal failure.
func (s *AuthService) internal(err error, msg string, fields logrus.Fields) error {
	if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		s.log().WithError(err).WithFields(fields).Error(msg)
	}
	return apperror.Internal(err)
}

// Register creates an active account holding the default role and opens its
// first session.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	if in.Password != in.ConfirmPassword {
		return AuthResult{}, apperror.Validation(msgPasswordMismatch)
	}
	email := entity.NormalizeEmail(in.Email)

	exists, err := s.Users.ExistsByEmail(ctx, email)
	if err != nil {
		return AuthResult{}, s.internal(err, "check email failed", nil)
	}
	if exists {
		return AuthResult{}, apperror.Conflict(msgEmailTaken)
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, helpers.ErrEmptyPassword) {
			return AuthResult{}, apperror.Validation(msgPasswordEmpty)
		}
		return AuthResult{}, s.internal(err, "hash password failed", nil)
	}

	now := s.now()
	u, err := entity.NewUser(entity.NewUserInput{
		Email:        email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	}, now)
	if err != nil {
		return AuthResult{}, err
	}

	refresh, err := s.JWT.GenerateRefreshToken()
	if err != nil {
		return AuthResult{}, s.internal(err, "generate refresh token failed", nil)
	}
	rexp := s.JWT.RefreshTokenExpiry()
	u = u.WithRefreshToken(refresh, rexp)

	if err := ctx.Err(); err != nil {
		return AuthResult{}, apperror.Internal(err)
	}
	if err := s.Users.Insert(ctx, &u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return AuthResult{}, apperror.Conflict(msgEmailTaken)
		}
		return AuthResult{}, s.internal(err, "insert user failed", logrus.Fields{"user_id": u.ID})
	}

	pair, err := s.issue(u, refresh, rexp)
	if err != nil {
		return AuthResult{}, err
	}
	s.log().WithField("user_id", u.ID).Info("user registered")
	return AuthResult{User: NewUserView(u), Tokens: pair}, nil
}

// Login verifies credentials and rotates the refresh token, which ends any
// previous session of the same user. Unknown email and wrong password fail
// with the same error value.
func (s *AuthService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	u, err := s.Users.GetByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// unknown emails pay the same KDF cost as a wrong password
			s.Hasher.Verify(password, s.Hasher.DummyHash())
			return AuthResult{}, apperror.Unauthorized(msgInvalidCredentials)
		}
		return AuthResult{}, s.internal(err, "load user by email failed", nil)
	}
	if !u.IsActive {
		return AuthResult{}, apperror.Unauthorized(msgAccountDeactivated)
	}
	if !s.Hasher.Verify(password, u.PasswordHash) {
		return AuthResult{}, apperror.Unauthorized(msgInvalidCredentials)
	}

	refresh, err := s.JWT.GenerateRefreshToken()
	if err != nil {
		return AuthResult{}, s.internal(err, "generate refresh token failed", nil)
	}
	rexp := s.JWT.RefreshTokenExpiry()
	next := u.RecordLogin(s.now()).WithRefreshToken(refresh, rexp)

	if err := ctx.Err(); err != nil {
		return AuthResult{}, apperror.Internal(err)
	}
	if err := s.Users.Update(ctx, &next); err != nil {
		if errors.Is(err, repo.ErrStaleWrite) {
			// a concurrent login or refresh won the row; the caller may retry
			return AuthResult{}, apperror.Conflict("session was modified concurrently")
		}
		return AuthResult{}, s.internal(err, "persist login failed", logrus.Fields{"user_id": u.ID})
	}

	pair, err := s.issue(next, refresh, rexp)
	if err != nil {
		return AuthResult{}, err
	}
	s.log().WithField("user_id", u.ID).Info("user logged in")
	return AuthResult{User: NewUserView(next), Tokens: pair}, nil
}

// Refresh exchanges an access token (expired or not) plus the live refresh
// token for a new pair. The old refresh token stops working once the new pair
// is persisted. Every failure yields the same Unauthorized error.
func (s *AuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (TokenPair, error) {
	invalid := apperror.Unauthorized(msgInvalidRefreshToken)

	userID, ok := s.JWT.SubjectFromExpiredToken(accessToken)
	if !ok {
		return TokenPair{}, invalid
	}
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return TokenPair{}, invalid
		}
		return TokenPair{}, s.internal(err, "load user failed", logrus.Fields{"user_id": userID})
	}
	if !u.HasValidRefreshToken(refreshToken, s.now()) {
		return TokenPair{}, invalid
	}

	refresh, err := s.JWT.GenerateRefreshToken()
	if err != nil {
		return TokenPair{}, s.internal(err, "generate refresh token failed", nil)
	}
	rexp := s.JWT.RefreshTokenExpiry()
	next := u.WithRefreshToken(refresh, rexp)

	if err := ctx.Err(); err != nil {
		return TokenPair{}, apperror.Internal(err)
	}
	if err := s.Users.Update(ctx, &next); err != nil {
		if errors.Is(err, repo.ErrStaleWrite) || errors.Is(err, repo.ErrNotFound) {
			// lost the rotation race: the presented token is already spent
			return TokenPair{}, invalid
		}
		return TokenPair{}, s.internal(err, "persist refresh failed", logrus.Fields{"user_id": u.ID})
	}
	return s.issue(next, refresh, rexp)
}

// Logout revokes the caller's refresh token.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	_, err := s.updateUser(ctx, userID, func(u entity.User) (entity.User, error) {
		return u.WithoutRefreshToken(), nil
	})
	return err
}

// Me returns the profile of userID.
func (s *AuthService) Me(ctx context.Context, userID string) (UserView, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return UserView{}, apperror.NotFound(msgUserNotFound)
		}
		return UserView{}, s.internal(err, "load user failed", logrus.Fields{"user_id": userID})
	}
	return NewUserView(*u), nil
}

// Deactivate disables an account and revokes its refresh token.
func (s *AuthService) Deactivate(ctx context.Context, userID string) (UserView, error) {
	return s.updateUser(ctx, userID, func(u entity.User) (entity.User, error) {
		return u.Deactivate(), nil
	})
}

func (s *AuthService) Activate(ctx context.Context, userID string) (UserView, error) {
	return s.updateUser(ctx, userID, func(u entity.User) (entity.User, error) {
		return u.Activate(), nil
	})
}

func (s *AuthService) AssignRole(ctx context.Context, userID, role string) (UserView, error) {
	return s.updateUser(ctx, userID, func(u entity.User) (entity.User, error) {
		return u.AddRole(role)
	})
}

func (s *AuthService) RevokeRole(ctx context.Context, userID, role string) (UserView, error) {
	return s.updateUser(ctx, userID, func(u entity.User) (entity.User, error) {
		return u.RemoveRole(role), nil
	})
}

func (s *AuthService) updateUser(ctx context.Context, userID string, change func(entity.User) (entity.User, error)) (UserView, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return UserView{}, apperror.NotFound(msgUserNotFound)
		}
		return UserView{}, s.internal(err, "load user failed", logrus.Fields{"user_id": userID})
	}
	next, err := change(*u)
	if err != nil {
		return UserView{}, err
	}
	if err := ctx.Err(); err != nil {
		return UserView{}, apperror.Internal(err)
	}
	if err := s.Users.Update(ctx, &next); err != nil {
		switch {
		case errors.Is(err, repo.ErrStaleWrite):
			return UserView{}, apperror.Conflict("user was modified concurrently")
		case errors.Is(err, repo.ErrNotFound):
			return UserView{}, apperror.NotFound(msgUserNotFound)
		}
		return UserView{}, s.internal(err, "update user failed", logrus.Fields{"user_id": userID})
	}
	return NewUserView(next), nil
}

// issue signs the access token for u. It runs only after the refresh token
// pair has been persisted.
func (s *AuthService) issue(u entity.User, refresh string, rexp time.Time) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(helpers.TokenSubject{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.FullName(),
		Roles:  u.Roles,
	})
	if err != nil {
		return TokenPair{}, s.internal(err, "generate access token failed", logrus.Fields{"user_id": u.ID})
	}
	return TokenPair{
		AccessToken:        access,
		AccessTokenExpiry:  aexp,
		RefreshToken:       refresh,
		RefreshTokenExpiry: rexp,
	}, nil
}
