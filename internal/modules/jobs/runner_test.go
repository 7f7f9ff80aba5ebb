package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/askspace/core/internal/models"
	"github.com/askspace/core/internal/pkg/mail"
	"github.com/askspace/core/internal/pkg/taskqueue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeStore struct {
	mu       sync.Mutex
	tasks    int
	dedup    []string
	statuses []taskqueue.TaskStatus
	done     chan taskqueue.TaskStatus
}

func newFakeStore() *fakeStore {
	return &fakeStore{done: make(chan taskqueue.TaskStatus, 4)}
}

func (f *fakeStore) Enqueue(_ context.Context, taskType string, payload interface{}, dedupKey string) (*taskqueue.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks++
	f.dedup = append(f.dedup, dedupKey)
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &taskqueue.Task{
		ID:      fmt.Sprintf("task-%d", f.tasks),
		Type:    taskType,
		Payload: raw,
		Status:  taskqueue.TaskPending,
	}, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id string, status taskqueue.TaskStatus, errMsg string) error {
	f.mu.Lock()
	f.statuses = append(f.statuses, status)
	f.mu.Unlock()
	if status == taskqueue.TaskCompleted || status == taskqueue.TaskFailed {
		f.done <- status
	}
	return nil
}

func (f *fakeStore) wait(t *testing.T) taskqueue.TaskStatus {
	t.Helper()
	select {
	case s := <-f.done:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("task never reached a terminal status")
		return ""
	}
}

type fakeBroadcastMailer struct {
	mu   sync.Mutex
	sent []string
	fail map[string]error
}

func (f *fakeBroadcastMailer) SendAnnouncement(to string, data mail.AnnouncementData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.fail[to]; ok {
		return err
	}
	f.sent = append(f.sent, to)
	return nil
}

type fakeTagger struct {
	mu       sync.Mutex
	tagCalls int
	tagErrs  []error
	tags     []string
}

func (f *fakeTagger) TagQuestion(context.Context, string, string, string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tagCalls++
	if len(f.tagErrs) > 0 {
		err := f.tagErrs[0]
		f.tagErrs = f.tagErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.tags, nil
}

func (f *fakeTagger) ProcessEmbeddings(context.Context, string, string) error { return nil }

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
		&models.QuestionModel{},
		&models.SubjectModel{},
		&models.AnnouncementModel{},
	))
	return db
}

func seedAnnouncement(t *testing.T, db *gorm.DB) *models.AnnouncementModel {
	t.Helper()
	admin := &models.AdminModel{Name: "admin", Email: "admin@example.com"}
	require.NoError(t, db.Create(admin).Error)
	now := time.Now()
	a := &models.AnnouncementModel{
		AdminID:     admin.ID,
		Title:       "Scheduled maintenance",
		Detail:      "We will be **down** for an hour.",
		Status:      models.AnnouncementPublished,
		PublishedAt: &now,
	}
	require.NoError(t, db.Create(a).Error)
	return a
}

func TestBroadcastAnnouncement(t *testing.T) {
	db := newTestDB(t)
	for i, active := range []bool{true, true, false} {
		u := &models.UserModel{
			Username: fmt.Sprintf("user%d", i),
			Email:    fmt.Sprintf("user%d@example.com", i),
			Password: "hash",
			IsActive: active,
		}
		require.NoError(t, db.Create(u).Error)
	}
	a := seedAnnouncement(t, db)

	store := newFakeStore()
	mailer := &fakeBroadcastMailer{}
	r := NewRunner(db, store, mailer, &fakeTagger{}, zap.NewNop(), Options{
		RetryDelay: time.Millisecond,
		SiteName:   "AskSpace",
		BaseURL:    "https://ask.example.com",
	})

	taskID, err := r.BroadcastAnnouncement(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "task-1", taskID)
	// Broadcasts are never deduplicated.
	assert.Equal(t, []string{""}, store.dedup)

	assert.Equal(t, taskqueue.TaskCompleted, store.wait(t))

	// Inactive users are skipped.
	assert.ElementsMatch(t, []string{"user0@example.com", "user1@example.com"}, mailer.sent)

	var got models.AnnouncementModel
	require.NoError(t, db.First(&got, "id = ?", a.ID).Error)
	assert.NotNil(t, got.NotifiedAt)
}

func TestBroadcastSkipsFailedRecipients(t *testing.T) {
	db := newTestDB(t)
	for i := 0; i < 2; i++ {
		u := &models.UserModel{
			Username: fmt.Sprintf("user%d", i),
			Email:    fmt.Sprintf("user%d@example.com", i),
			Password: "hash",
			IsActive: true,
		}
		require.NoError(t, db.Create(u).Error)
	}
	a := seedAnnouncement(t, db)

	store := newFakeStore()
	mailer := &fakeBroadcastMailer{
		fail: map[string]error{"user0@example.com": errors.New("mailbox full")},
	}
	r := NewRunner(db, store, mailer, &fakeTagger{}, zap.NewNop(), Options{RetryDelay: time.Millisecond})

	_, err := r.BroadcastAnnouncement(a.ID)
	require.NoError(t, err)

	// A per-recipient failure does not fail the broadcast.
	assert.Equal(t, taskqueue.TaskCompleted, store.wait(t))
	assert.Equal(t, []string{"user1@example.com"}, mailer.sent)

	var got models.AnnouncementModel
	require.NoError(t, db.First(&got, "id = ?", a.ID).Error)
	assert.NotNil(t, got.NotifiedAt)
}

func TestQuestionTaggingAttachesSubjects(t *testing.T) {
	db := newTestDB(t)
	u := &models.UserModel{Username: "asker", Email: "asker@example.com", Password: "hash", IsActive: true}
	require.NoError(t, db.Create(u).Error)
	require.NoError(t, db.Create(&models.SubjectModel{Name: "concurrency"}).Error)
	q := &models.QuestionModel{UserID: u.ID, Title: "Select on two channels", Question: "How?"}
	require.NoError(t, db.Create(q).Error)

	store := newFakeStore()
	tagger := &fakeTagger{tags: []string{"concurrency", "channels"}}
	r := NewRunner(db, store, &fakeBroadcastMailer{}, tagger, zap.NewNop(), Options{RetryDelay: time.Millisecond})

	_, err := r.QuestionCreated(q.ID)
	require.NoError(t, err)
	// Question jobs are deduplicated on the question id.
	assert.Equal(t, []string{q.ID}, store.dedup)

	assert.Equal(t, taskqueue.TaskCompleted, store.wait(t))

	var got models.QuestionModel
	require.NoError(t, db.Preload("Subjects").First(&got, "id = ?", q.ID).Error)
	names := make([]string, 0, len(got.Subjects))
	for _, s := range got.Subjects {
		names = append(names, s.Name)
	}
	// The existing subject is reused and the new one created.
	assert.ElementsMatch(t, []string{"concurrency", "channels"}, names)

	var subjectCount int64
	require.NoError(t, db.Model(&models.SubjectModel{}).Count(&subjectCount).Error)
	assert.Equal(t, int64(2), subjectCount)
}

func TestConnectionFailureRetriesOnce(t *testing.T) {
	db := newTestDB(t)
	u := &models.UserModel{Username: "asker", Email: "asker@example.com", Password: "hash", IsActive: true}
	require.NoError(t, db.Create(u).Error)
	q := &models.QuestionModel{UserID: u.ID, Title: "T", Question: "Q"}
	require.NoError(t, db.Create(q).Error)

	connErr := &url.Error{Op: "Post", URL: "http://ai/tag", Err: errors.New("connection refused")}

	store := newFakeStore()
	tagger := &fakeTagger{tagErrs: []error{connErr}, tags: []string{"go"}}
	r := NewRunner(db, store, &fakeBroadcastMailer{}, tagger, zap.NewNop(), Options{RetryDelay: time.Millisecond})

	_, err := r.QuestionCreated(q.ID)
	require.NoError(t, err)

	assert.Equal(t, taskqueue.TaskCompleted, store.wait(t))
	assert.Equal(t, 2, tagger.tagCalls)
}

func TestConnectionFailureFailsAfterRetry(t *testing.T) {
	db := newTestDB(t)
	u := &models.UserModel{Username: "asker", Email: "asker@example.com", Password: "hash", IsActive: true}
	require.NoError(t, db.Create(u).Error)
	q := &models.QuestionModel{UserID: u.ID, Title: "T", Question: "Q"}
	require.NoError(t, db.Create(q).Error)

	connErr := &url.Error{Op: "Post", URL: "http://ai/tag", Err: errors.New("connection refused")}

	store := newFakeStore()
	tagger := &fakeTagger{tagErrs: []error{connErr, connErr}}
	r := NewRunner(db, store, &fakeBroadcastMailer{}, tagger, zap.NewNop(), Options{RetryDelay: time.Millisecond})

	_, err := r.QuestionCreated(q.ID)
	require.NoError(t, err)

	// One retry only, then the task fails for good.
	assert.Equal(t, taskqueue.TaskFailed, store.wait(t))
	assert.Equal(t, 2, tagger.tagCalls)
}

func TestNonConnectionFailureDoesNotRetry(t *testing.T) {
	db := newTestDB(t)
	u := &models.UserModel{Username: "asker", Email: "asker@example.com", Password: "hash", IsActive: true}
	require.NoError(t, db.Create(u).Error)
	q := &models.QuestionModel{UserID: u.ID, Title: "T", Question: "Q"}
	require.NoError(t, db.Create(q).Error)

	store := newFakeStore()
	tagger := &fakeTagger{tagErrs: []error{errors.New("ai service error 500: boom")}}
	r := NewRunner(db, store, &fakeBroadcastMailer{}, tagger, zap.NewNop(), Options{RetryDelay: time.Millisecond})

	_, err := r.QuestionCreated(q.ID)
	require.NoError(t, err)

	assert.Equal(t, taskqueue.TaskFailed, store.wait(t))
	assert.Equal(t, 1, tagger.tagCalls)
}
