package user

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/askspace/core/internal/models"
	"github.com/askspace/core/internal/pkg/mail"
	"github.com/askspace/core/internal/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeMailer struct {
	mu      sync.Mutex
	notices []mail.AccountNoticeData
	to      []string
}

func (f *fakeMailer) SendAccountNotice(to string, data mail.AccountNoticeData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.to = append(f.to, to)
	f.notices = append(f.notices, data)
	return nil
}

func (f *fakeMailer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.notices)
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
		&models.QuestionModel{},
		&models.AnswerModel{},
		&models.CommentModel{},
		&models.SubjectModel{},
		&models.VoteModel{},
		&models.ReportModel{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *models.UserModel {
	t.Helper()
	u := &models.UserModel{
		Username: username,
		Email:    username + "@example.com",
		Password: "hash",
		IsActive: true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedAdmin(t *testing.T, db *gorm.DB) *models.AdminModel {
	t.Helper()
	a := &models.AdminModel{Name: "admin", Email: "admin@example.com"}
	require.NoError(t, db.Create(a).Error)
	return a
}

func waitForNotices(t *testing.T, m *fakeMailer, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.count() >= want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d notices, got %d", want, m.count())
}

func TestBlockUnblockLifecycle(t *testing.T) {
	db := newTestDB(t)
	mailer := &fakeMailer{}
	svc := NewService(db, mailer, zap.NewNop())
	admin := seedAdmin(t, db)
	u := seedUser(t, db, "target")

	b, err := svc.Block(admin.ID, u.ID, &BlockDTO{})
	require.NoError(t, err)
	assert.Equal(t, admin.ID, b.BlockerID)
	assert.Nil(t, b.EndTime)

	blocked, err := svc.isBlocked(u.ID)
	require.NoError(t, err)
	assert.True(t, blocked)

	_, err = svc.Block(admin.ID, u.ID, &BlockDTO{})
	assert.ErrorIs(t, err, errAlreadyBlocked)

	ub, err := svc.Unblock(admin.ID, u.ID)
	require.NoError(t, err)
	require.NotNil(t, ub.UnblockerID)
	assert.Equal(t, admin.ID, *ub.UnblockerID)

	blocked, err = svc.isBlocked(u.ID)
	require.NoError(t, err)
	assert.False(t, blocked)

	// The block row is kept for the audit trail.
	var count int64
	require.NoError(t, db.Model(&models.BlockModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = svc.Unblock(admin.ID, u.ID)
	assert.ErrorIs(t, err, errNotBlocked)

	waitForNotices(t, mailer, 2)
	assert.Equal(t, []string{u.Email, u.Email}, mailer.to)
}

func TestBlockExpires(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &fakeMailer{}, zap.NewNop())
	admin := seedAdmin(t, db)
	u := seedUser(t, db, "target")

	past := time.Now().Add(-time.Hour)
	_, err := svc.Block(admin.ID, u.ID, &BlockDTO{EndTime: &past})
	require.NoError(t, err)

	// The block has already lapsed.
	blocked, err := svc.isBlocked(u.ID)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestBlockUnknownUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &fakeMailer{}, zap.NewNop())
	admin := seedAdmin(t, db)

	_, err := svc.Block(admin.ID, "missing", &BlockDTO{})
	assert.ErrorIs(t, err, errUserNotFound)
}

func TestListStatusFilter(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &fakeMailer{}, zap.NewNop())
	admin := seedAdmin(t, db)
	active := seedUser(t, db, "active")
	suspended := seedUser(t, db, "suspended")

	_, err := svc.Block(admin.ID, suspended.ID, &BlockDTO{})
	require.NoError(t, err)

	views, _, err := svc.List(pagination.Query{Page: 1, PerPage: 10}, ListFilters{Status: "blocked"})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, suspended.ID, views[0].ID)
	assert.True(t, views[0].Blocked)

	views, _, err = svc.List(pagination.Query{Page: 1, PerPage: 10}, ListFilters{Status: "active"})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, active.ID, views[0].ID)

	views, pag, err := svc.List(pagination.Query{Page: 1, PerPage: 10}, ListFilters{Search: "SUSP"})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, int64(1), pag.Total)
}

func TestActivitySummary(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &fakeMailer{}, zap.NewNop())
	u := seedUser(t, db, "contributor")

	q := &models.QuestionModel{UserID: u.ID, Title: "T", Question: "Q"}
	require.NoError(t, db.Create(q).Error)
	require.NoError(t, db.Create(&models.AnswerModel{UserID: u.ID, QuestionID: q.ID, Answer: "A"}).Error)
	require.NoError(t, db.Create(&models.CommentModel{
		UserID: u.ID, CommentableID: q.ID, CommentableType: "question", Comment: "C",
	}).Error)

	v, err := svc.Activity(u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Questions)
	assert.Equal(t, int64(1), v.Answers)
	assert.Equal(t, int64(1), v.Comments)
	assert.False(t, v.Blocked)
	assert.Equal(t, int64(0), v.BlockCount)
}

func TestBlockNoticeBody(t *testing.T) {
	assert.Contains(t, blockNoticeBody(nil), "until the suspension is lifted")

	end := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)
	assert.Contains(t, blockNoticeBody(&end), "March 14, 2026")
}
