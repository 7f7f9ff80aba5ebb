package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/askspace/core/internal/models"
	"github.com/askspace/core/internal/modules/ai"
	jwtpkg "github.com/askspace/core/internal/pkg/jwt"
	sessionpkg "github.com/askspace/core/internal/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeRecommender struct {
	items []ai.Recommendation
	err   error
}

func (f *fakeRecommender) Recommendations(context.Context, string) ([]ai.Recommendation, error) {
	return f.items, f.err
}

func newTestService(t *testing.T, rec Recommender) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.UserModel{}, &models.UserSession{}))
	return NewService(db, rec, zap.NewNop()), db
}

func TestRegisterAndLogin(t *testing.T) {
	svc, db := newTestService(t, nil)

	res, err := svc.Register(&RegisterDTO{
		Username: "gopher",
		Email:    "Gopher@Example.com",
		Password: "correct horse",
	}, "127.0.0.1", "agent")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	// Emails are stored lowercased.
	assert.Equal(t, "gopher@example.com", res.User.Email)
	// The stored password is hashed.
	assert.NotEqual(t, "correct horse", res.User.Password)

	login, err := svc.Login(&LoginDTO{Email: "GOPHER@example.com", Password: "correct horse"}, "", "")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	_, err = svc.Login(&LoginDTO{Email: "gopher@example.com", Password: "wrong"}, "", "")
	assert.ErrorIs(t, err, errInvalidCredentials)

	_, err = svc.Login(&LoginDTO{Email: "nobody@example.com", Password: "x"}, "", "")
	assert.ErrorIs(t, err, errInvalidCredentials)

	// Both sessions stay valid; user logins do not revoke each other.
	for _, token := range []string{res.Token, login.Token} {
		claims, err := jwtpkg.Parse(token)
		require.NoError(t, err)
		active, err := sessionpkg.IsActive(db, models.PrincipalUser, res.User.ID, claims.SessionID)
		require.NoError(t, err)
		assert.True(t, active)
	}
}

func TestRegisterTakenIdentifiers(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.Register(&RegisterDTO{
		Username: "gopher", Email: "gopher@example.com", Password: "password1",
	}, "", "")
	require.NoError(t, err)

	_, err = svc.Register(&RegisterDTO{
		Username: "another", Email: "gopher@example.com", Password: "password1",
	}, "", "")
	assert.ErrorIs(t, err, errEmailTaken)

	_, err = svc.Register(&RegisterDTO{
		Username: "gopher", Email: "new@example.com", Password: "password1",
	}, "", "")
	assert.ErrorIs(t, err, errUsernameTaken)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc, db := newTestService(t, nil)

	res, err := svc.Register(&RegisterDTO{
		Username: "gopher", Email: "gopher@example.com", Password: "password1",
	}, "", "")
	require.NoError(t, err)

	claims, err := jwtpkg.Parse(res.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(res.User.ID, claims.SessionID))

	active, err := sessionpkg.IsActive(db, models.PrincipalUser, res.User.ID, claims.SessionID)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestRecommendationsDegrade(t *testing.T) {
	svc, _ := newTestService(t, &fakeRecommender{err: errors.New("service down")})
	assert.Empty(t, svc.Recommendations(context.Background(), "u1"))

	svc, _ = newTestService(t, &fakeRecommender{err: ai.ErrDisabled})
	assert.Empty(t, svc.Recommendations(context.Background(), "u1"))

	want := []ai.Recommendation{{Type: "question", ID: "q1", Title: "T", Score: 0.5}}
	svc, _ = newTestService(t, &fakeRecommender{items: want})
	assert.Equal(t, want, svc.Recommendations(context.Background(), "u1"))
}
