package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petlovers/petlovers-api/internal/domain/apperror"
	"github.com/petlovers/petlovers-api/internal/domain/entity"
	"github.com/petlovers/petlovers-api/pkg/helpers"
)

type authFixture struct {
	svc    *AuthService
	users  *memUsers
	clock  *testClock
	jwt    *helpers.JWTManager
	hasher *countingHasher
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	clock := &testClock{t: time.Now().UTC().Truncate(time.Second)}
	jwt := helpers.NewJWTManager("0123456789abcdef0123456789abcdef", "petlovers-api", "petlovers-clients",
		15*time.Minute, 7*24*time.Hour)
	jwt.Now = clock.Now
	users := newMemUsers()
	hasher := &countingHasher{PasswordHasher: &helpers.PasswordHasher{Iterations: 1000}}
	svc := NewAuthService(users, hasher, jwt, quietLogger())
	svc.Now = clock.Now
	return &authFixture{svc: svc, users: users, clock: clock, jwt: jwt, hasher: hasher}
}

func (f *authFixture) register(t *testing.T, email string) AuthResult {
	t.Helper()
	res, err := f.svc.Register(context.Background(), RegisterInput{
		Email:           email,
		Password:        "s3cret-pass",
		ConfirmPassword: "s3cret-pass",
		FirstName:       "Ada",
		LastName:        "Lovelace",
	})
	require.NoError(t, err)
	return res
}

func requireKind(t *testing.T, err error, kind apperror.Kind) *apperror.Error {
	t.Helper()
	var ae *apperror.Error
	require.True(t, errors.As(err, &ae), "expected *apperror.Error, got %v", err)
	require.Equal(t, kind, ae.Kind)
	return ae
}

func TestRegister(t *testing.T) {
	f := newAuthFixture(t)
	res := f.register(t, "A@B.com")

	assert.Equal(t, "a@b.com", res.User.Email)
	assert.Equal(t, []string{entity.RoleUser}, res.User.Roles)
	assert.Equal(t, "Ada Lovelace", res.User.FullName)
	assert.NotEmpty(t, res.Tokens.AccessToken)
	assert.NotEmpty(t, res.Tokens.RefreshToken)
	assert.Equal(t, f.clock.Now().Add(7*24*time.Hour), res.Tokens.RefreshTokenExpiry)

	claims, err := f.jwt.ParseAccessToken(res.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.Subject)
	assert.Equal(t, []string{entity.RoleUser}, claims.Roles)

	stored := f.users.get(res.User.ID)
	assert.Equal(t, res.Tokens.RefreshToken, stored.RefreshToken)
	assert.NotContains(t, stored.PasswordHash, "s3cret-pass")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "a@b.com")

	_, err := f.svc.Register(context.Background(), RegisterInput{
		Email: " A@b.COM ", Password: "x1", ConfirmPassword: "x1", FirstName: "B", LastName: "C",
	})
	ae := requireKind(t, err, apperror.KindConflict)
	assert.Equal(t, msgEmailTaken, ae.Message)
}

func TestRegisterValidation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, RegisterInput{
		Email: "a@b.com", Password: "one", ConfirmPassword: "two", FirstName: "A", LastName: "B",
	})
	ae := requireKind(t, err, apperror.KindValidation)
	assert.Equal(t, []string{msgPasswordMismatch}, ae.Messages)

	_, err = f.svc.Register(ctx, RegisterInput{
		Email: "a@b.com", Password: "  ", ConfirmPassword: "  ", FirstName: "A", LastName: "B",
	})
	ae = requireKind(t, err, apperror.KindValidation)
	assert.Equal(t, []string{msgPasswordEmpty}, ae.Messages)

	_, err = f.svc.Register(ctx, RegisterInput{
		Email: "not-an-email", Password: "pw", ConfirmPassword: "pw", FirstName: "", LastName: "B",
	})
	ae = requireKind(t, err, apperror.KindValidation)
	assert.Contains(t, ae.Messages, "Email format is invalid.")
	assert.Contains(t, ae.Messages, "firstName cannot be empty.")

	assert.Empty(t, f.users.rows)
}

func TestLoginRotatesRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	reg := f.register(t, "a@b.com")

	f.clock.Advance(time.Minute)
	res, err := f.svc.Login(context.Background(), "A@B.COM", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, reg.Tokens.RefreshToken, res.Tokens.RefreshToken)

	stored := f.users.get(reg.User.ID)
	assert.Equal(t, res.Tokens.RefreshToken, stored.RefreshToken)
	require.NotNil(t, stored.LastLoginAt)
	assert.Equal(t, f.clock.Now(), *stored.LastLoginAt)

	// the registration session is gone
	_, err = f.svc.Refresh(context.Background(), reg.Tokens.AccessToken, reg.Tokens.RefreshToken)
	requireKind(t, err, apperror.KindUnauthorized)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "a@b.com")
	ctx := context.Background()

	_, errUnknown := f.svc.Login(ctx, "nobody@b.com", "s3cret-pass")
	_, errWrong := f.svc.Login(ctx, "a@b.com", "wrong-pass")

	requireKind(t, errUnknown, apperror.KindUnauthorized)
	assert.Equal(t, errUnknown, errWrong)

	a, err := json.Marshal(errUnknown)
	require.NoError(t, err)
	b, err := json.Marshal(errWrong)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
	assert.Equal(t, msgInvalidCredentials, errUnknown.Error())
}

func TestLoginUnknownEmailStillRunsKDF(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "a@b.com")
	ctx := context.Background()

	before := f.hasher.count()
	_, err := f.svc.Login(ctx, "nobody@b.com", "s3cret-pass")
	requireKind(t, err, apperror.KindUnauthorized)
	assert.Equal(t, before+1, f.hasher.count(), "unknown email verifies against the dummy hash")

	_, err = f.svc.Login(ctx, "a@b.com", "wrong-pass")
	requireKind(t, err, apperror.KindUnauthorized)
	assert.Equal(t, before+2, f.hasher.count())
}

func TestLoginDeactivated(t *testing.T) {
	f := newAuthFixture(t)
	reg := f.register(t, "a@b.com")
	_, err := f.svc.Deactivate(context.Background(), reg.User.ID)
	require.NoError(t, err)

	_, err = f.svc.Login(context.Background(), "a@b.com", "s3cret-pass")
	ae := requireKind(t, err, apperror.KindUnauthorized)
	assert.Equal(t, msgAccountDeactivated, ae.Message)
}

func TestRefreshRotation(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	reg := f.register(t, "a@b.com")

	// access token long expired
	f.clock.Advance(time.Hour)
	pair, err := f.svc.Refresh(ctx, reg.Tokens.AccessToken, reg.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, reg.Tokens.RefreshToken, pair.RefreshToken)
	assert.NotEqual(t, reg.Tokens.AccessToken, pair.AccessToken)

	// replay of the spent token fails
	_, err = f.svc.Refresh(ctx, reg.Tokens.AccessToken, reg.Tokens.RefreshToken)
	ae := requireKind(t, err, apperror.KindUnauthorized)
	assert.Equal(t, msgInvalidRefreshToken, ae.Message)

	// the new token works exactly once
	next, err := f.svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken)
	require.NoError(t, err)
	_, err = f.svc.Refresh(ctx, pair.AccessToken, pair.RefreshToken)
	requireKind(t, err, apperror.KindUnauthorized)
	assert.NotEmpty(t, next.RefreshToken)
}

func TestRefreshFailuresUseOneMessage(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	reg := f.register(t, "a@b.com")

	other := helpers.NewJWTManager("ffffffffffffffffffffffffffffffff", "petlovers-api", "petlovers-clients", time.Minute, time.Hour)
	forged, _, err := other.GenerateAccessToken(helpers.TokenSubject{UserID: reg.User.ID})
	require.NoError(t, err)
	ghost, _, err := f.jwt.GenerateAccessToken(helpers.TokenSubject{UserID: "3f2b1c9e-0000-4000-8000-000000000000"})
	require.NoError(t, err)

	cases := map[string][2]string{
		"bad signature": {forged, reg.Tokens.RefreshToken},
		"garbage token": {"garbage", reg.Tokens.RefreshToken},
		"unknown user":  {ghost, reg.Tokens.RefreshToken},
		"wrong refresh": {reg.Tokens.AccessToken, "not-the-token"},
		"empty refresh": {reg.Tokens.AccessToken, ""},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Refresh(ctx, c[0], c[1])
			ae := requireKind(t, err, apperror.KindUnauthorized)
			assert.Equal(t, msgInvalidRefreshToken, ae.Message)
		})
	}

	f.clock.Advance(7*24*time.Hour + time.Second)
	_, err = f.svc.Refresh(ctx, reg.Tokens.AccessToken, reg.Tokens.RefreshToken)
	ae := requireKind(t, err, apperror.KindUnauthorized)
	assert.Equal(t, msgInvalidRefreshToken, ae.Message)
}

func TestConcurrentRefreshSingleWinner(t *testing.T) {
	f := newAuthFixture(t)
	reg := f.register(t, "a@b.com")

	const workers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  int
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.Refresh(context.Background(), reg.Tokens.AccessToken, reg.Tokens.RefreshToken)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			if apperror.KindOf(err) == apperror.KindUnauthorized {
				failures++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, failures)
}

func TestCancelledContextSkipsWrite(t *testing.T) {
	f := newAuthFixture(t)
	reg := f.register(t, "a@b.com")
	before := f.users.get(reg.User.ID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Refresh(ctx, reg.Tokens.AccessToken, reg.Tokens.RefreshToken)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, before, f.users.get(reg.User.ID))
}

func TestStoreFailureIsOpaque(t *testing.T) {
	f := newAuthFixture(t)
	f.users.failErr = errStoreDown

	_, err := f.svc.Login(context.Background(), "a@b.com", "s3cret-pass")
	requireKind(t, err, apperror.KindInternal)
	assert.Equal(t, "internal error", err.Error())
	assert.NotContains(t, err.Error(), "10.0.0.5")
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	reg := f.register(t, "a@b.com")

	require.NoError(t, f.svc.Logout(ctx, reg.User.ID))
	_, err := f.svc.Refresh(ctx, reg.Tokens.AccessToken, reg.Tokens.RefreshToken)
	requireKind(t, err, apperror.KindUnauthorized)
}

func TestMeAndRoles(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	reg := f.register(t, "a@b.com")

	view, err := f.svc.AssignRole(ctx, reg.User.ID, "Admin")
	require.NoError(t, err)
	assert.Equal(t, []string{entity.RoleUser, entity.RoleAdmin}, view.Roles)

	view, err = f.svc.RevokeRole(ctx, reg.User.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, []string{entity.RoleUser}, view.Roles)

	me, err := f.svc.Me(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", me.Email)

	_, err = f.svc.Me(ctx, "3f2b1c9e-0000-4000-8000-000000000000")
	requireKind(t, err, apperror.KindNotFound)
}

func TestActivateRestoresLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	reg := f.register(t, "a@b.com")

	_, err := f.svc.Deactivate(ctx, reg.User.ID)
	require.NoError(t, err)
	view, err := f.svc.Activate(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.True(t, view.IsActive)

	_, err = f.svc.Login(ctx, "a@b.com", "s3cret-pass")
	require.NoError(t, err)
}
