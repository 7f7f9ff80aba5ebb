package auth

import (
	"fmt"
	"testing"

	"github.com/askspace/core/internal/models"
	jwtpkg "github.com/askspace/core/internal/pkg/jwt"
	sessionpkg "github.com/askspace/core/internal/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "shared-secret"

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.UserModel{},
		&models.AdminModel{},
		&models.RoleModel{},
		&models.UserSession{},
	))
	return NewService(db, testSecret, zap.NewNop()), db
}

func seedAdminWithRoles(t *testing.T, db *gorm.DB, slugs ...string) *models.AdminModel {
	t.Helper()
	admin := &models.AdminModel{Name: "alice", Email: "alice@example.com"}
	for _, slug := range slugs {
		admin.Roles = append(admin.Roles, models.RoleModel{Name: slug, Slug: slug})
	}
	require.NoError(t, db.Create(admin).Error)
	return admin
}

func TestSocialiteLogin(t *testing.T) {
	svc, db := newTestService(t)
	admin := seedAdminWithRoles(t, db, "moderator", "user-manager")

	res, err := svc.SocialiteLogin(testSecret, admin.Email, "127.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, admin.ID, res.Admin.ID)
	assert.ElementsMatch(t, []string{"moderator", "user-manager"}, res.Abilities)

	claims, err := jwtpkg.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, claims.PrincipalID)
	assert.Equal(t, string(models.PrincipalAdmin), claims.Kind)
	assert.ElementsMatch(t, res.Abilities, claims.Abilities)

	active, err := sessionpkg.IsActive(db, models.PrincipalAdmin, admin.ID, claims.SessionID)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestSocialiteLoginBadSecret(t *testing.T) {
	svc, db := newTestService(t)
	admin := seedAdminWithRoles(t, db, "moderator")

	_, err := svc.SocialiteLogin("wrong", admin.Email, "", "")
	assert.ErrorIs(t, err, errBadSecret)
}

func TestSocialiteLoginNotAnAdmin(t *testing.T) {
	svc, db := newTestService(t)

	// A platform user account is not enough to enter the back office.
	u := &models.UserModel{Username: "bob", Email: "bob@example.com", Password: "hash", IsActive: true}
	require.NoError(t, db.Create(u).Error)

	_, err := svc.SocialiteLogin(testSecret, u.Email, "", "")
	assert.ErrorIs(t, err, errNotAnAdmin)
}

func TestSocialiteLoginNoRoles(t *testing.T) {
	svc, db := newTestService(t)
	admin := &models.AdminModel{Name: "carol", Email: "carol@example.com"}
	require.NoError(t, db.Create(admin).Error)

	_, err := svc.SocialiteLogin(testSecret, admin.Email, "", "")
	assert.ErrorIs(t, err, errNoRolesAssigned)
}

func TestSocialiteLoginRevokesPriorSessions(t *testing.T) {
	svc, db := newTestService(t)
	admin := seedAdminWithRoles(t, db, "moderator")

	first, err := svc.SocialiteLogin(testSecret, admin.Email, "", "")
	require.NoError(t, err)
	firstClaims, err := jwtpkg.Parse(first.Token)
	require.NoError(t, err)

	second, err := svc.SocialiteLogin(testSecret, admin.Email, "", "")
	require.NoError(t, err)
	secondClaims, err := jwtpkg.Parse(second.Token)
	require.NoError(t, err)

	// Only the newest session survives.
	active, err := sessionpkg.IsActive(db, models.PrincipalAdmin, admin.ID, firstClaims.SessionID)
	require.NoError(t, err)
	assert.False(t, active)

	active, err = sessionpkg.IsActive(db, models.PrincipalAdmin, admin.ID, secondClaims.SessionID)
	require.NoError(t, err)
	assert.True(t, active)
}

func TestLogout(t *testing.T) {
	svc, db := newTestService(t)
	admin := seedAdminWithRoles(t, db, "moderator")

	res, err := svc.SocialiteLogin(testSecret, admin.Email, "", "")
	require.NoError(t, err)
	claims, err := jwtpkg.Parse(res.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(admin.ID, claims.SessionID))

	active, err := sessionpkg.IsActive(db, models.PrincipalAdmin, admin.ID, claims.SessionID)
	require.NoError(t, err)
	assert.False(t, active)

	// Revoking again reports the session as gone.
	assert.ErrorIs(t, svc.Logout(admin.ID, claims.SessionID), gorm.ErrRecordNotFound)
}
