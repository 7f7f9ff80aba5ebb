package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/askspace/core/internal/models"
	sessionpkg "github.com/askspace/core/internal/pkg/session"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.UserModel{},
		&models.AdminModel{},
		&models.BlockModel{},
		&models.UserSession{},
	))
	return db
}

func okHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"principal": CurrentUserID(c)})
}

func doRequest(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequiresValidSession(t *testing.T) {
	db := newTestDB(t)
	r := gin.New()
	r.GET("/me", Auth(db), okHandler)

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, http.MethodGet, "/me", "not-a-jwt").Code)

	token, _, err := sessionpkg.Issue(db, models.PrincipalUser, "user-1", nil, "", "", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/me", token).Code)

	// A revoked session stops authenticating even with a valid JWT.
	require.NoError(t, sessionpkg.RevokeAll(db, models.PrincipalUser, "user-1"))
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, http.MethodGet, "/me", token).Code)
}

func TestAuthRejectsWrongPrincipalKind(t *testing.T) {
	db := newTestDB(t)
	r := gin.New()
	r.GET("/user", Auth(db), okHandler)
	r.GET("/admin", AdminAuth(db), okHandler)

	userToken, _, err := sessionpkg.Issue(db, models.PrincipalUser, "user-1", nil, "", "", time.Hour)
	require.NoError(t, err)
	adminToken, _, err := sessionpkg.Issue(db, models.PrincipalAdmin, "admin-1", []string{"moderator"}, "", "", time.Hour)
	require.NoError(t, err)

	// A user token cannot enter admin routes and vice versa.
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, http.MethodGet, "/admin", userToken).Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, http.MethodGet, "/user", adminToken).Code)
	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/admin", adminToken).Code)
}

func TestCanGate(t *testing.T) {
	db := newTestDB(t)
	r := gin.New()
	r.GET("/reports", AdminAuth(db), Can("moderator"), okHandler)

	modToken, _, err := sessionpkg.Issue(db, models.PrincipalAdmin, "admin-1", []string{"moderator"}, "", "", time.Hour)
	require.NoError(t, err)
	otherToken, _, err := sessionpkg.Issue(db, models.PrincipalAdmin, "admin-2", []string{"user-manager"}, "", "", time.Hour)
	require.NoError(t, err)
	superToken, _, err := sessionpkg.Issue(db, models.PrincipalAdmin, "admin-3", []string{models.SuperAdminSlug}, "", "", time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/reports", modToken).Code)
	assert.Equal(t, http.StatusForbidden, doRequest(r, http.MethodGet, "/reports", otherToken).Code)
	// The super admin passes every gate.
	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/reports", superToken).Code)
}

func TestCanAnyOfSeveral(t *testing.T) {
	db := newTestDB(t)
	r := gin.New()
	r.DELETE("/votes", AdminAuth(db), Can("moderator", "content-manager"), okHandler)

	cmToken, _, err := sessionpkg.Issue(db, models.PrincipalAdmin, "admin-1", []string{"content-manager"}, "", "", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodDelete, "/votes", cmToken).Code)
}

func TestOptionalAuth(t *testing.T) {
	db := newTestDB(t)
	r := gin.New()
	r.GET("/feed", OptionalAuth(db), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"authenticated": IsAuthenticated(c)})
	})

	w := doRequest(r, http.MethodGet, "/feed", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":false`)

	token, _, err := sessionpkg.Issue(db, models.PrincipalUser, "user-1", nil, "", "", time.Hour)
	require.NoError(t, err)
	w = doRequest(r, http.MethodGet, "/feed", token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"authenticated":true`)
}

func TestNotBlocked(t *testing.T) {
	db := newTestDB(t)
	u := &models.UserModel{Username: "target", Email: "target@example.com", Password: "hash", IsActive: true}
	require.NoError(t, db.Create(u).Error)

	r := gin.New()
	r.POST("/questions", Auth(db), NotBlocked(db), okHandler)

	token, _, err := sessionpkg.Issue(db, models.PrincipalUser, u.ID, nil, "", "", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodPost, "/questions", token).Code)

	require.NoError(t, db.Create(&models.BlockModel{BlockerID: "admin-1", BlockedUserID: u.ID}).Error)
	assert.Equal(t, http.StatusForbidden, doRequest(r, http.MethodPost, "/questions", token).Code)

	// An expired block no longer rejects.
	past := time.Now().Add(-time.Hour)
	require.NoError(t, db.Model(&models.BlockModel{}).
		Where("blocked_user_id = ?", u.ID).Update("end_time", past).Error)
	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodPost, "/questions", token).Code)
}

func TestNormalizeToken(t *testing.T) {
	assert.Equal(t, "abc", NormalizeToken("abc"))
	assert.Equal(t, "abc", NormalizeToken("  Bearer abc  "))
	assert.Equal(t, "abc", NormalizeToken("bearer abc"))
	assert.Equal(t, "", NormalizeToken("   "))
}
