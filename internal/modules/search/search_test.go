package search

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/askspace/core/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.UserModel{},
		&models.QuestionModel{},
		&models.SubjectModel{},
	))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, username string, reputation int, active bool) *models.UserModel {
	t.Helper()
	u := &models.UserModel{
		Username:   username,
		Email:      username + "@example.com",
		Password:   "hash",
		Reputation: reputation,
		IsActive:   active,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestSearchAcrossEntities(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	author := seedUser(t, db, "gopher-jane", 50, true)
	seedUser(t, db, "someone-else", 10, true)
	require.NoError(t, db.Create(&models.QuestionModel{
		UserID:   author.ID,
		Title:    "How do Gopher channels work",
		Question: "Buffered vs unbuffered.",
	}).Error)
	require.NoError(t, db.Create(&models.SubjectModel{Name: "Gopher Internals"}).Error)
	require.NoError(t, db.Create(&models.SubjectModel{Name: "Databases"}).Error)

	res, err := svc.Search("gopher", 0)
	require.NoError(t, err)

	require.Len(t, res.Questions, 1)
	assert.Equal(t, "How do Gopher channels work", res.Questions[0].Title)
	require.NotNil(t, res.Questions[0].User)

	require.Len(t, res.Subjects, 1)
	assert.Equal(t, "Gopher Internals", res.Subjects[0].Name)

	require.Len(t, res.Users, 1)
	assert.Equal(t, "gopher-jane", res.Users[0].Username)
	assert.Equal(t, 50, res.Users[0].Reputation)
}

func TestSearchMatchesBody(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	author := seedUser(t, db, "writer", 0, true)
	require.NoError(t, db.Create(&models.QuestionModel{
		UserID:   author.ID,
		Title:    "Unrelated title",
		Question: "What does context cancellation mean for goroutines?",
	}).Error)

	res, err := svc.Search("cancellation", 0)
	require.NoError(t, err)
	require.Len(t, res.Questions, 1)
}

func TestSearchLimitClamped(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	author := seedUser(t, db, "prolific", 0, true)
	for i := 0; i < maxLimit+5; i++ {
		require.NoError(t, db.Create(&models.QuestionModel{
			UserID:   author.ID,
			Title:    fmt.Sprintf("Generics question %d", i),
			Question: "body",
			Vote:     i,
		}).Error)
	}

	res, err := svc.Search("generics", 0)
	require.NoError(t, err)
	assert.Len(t, res.Questions, defaultLimit)
	// Highest voted first.
	assert.Equal(t, maxLimit+4, res.Questions[0].Vote)

	res, err = svc.Search("generics", 1000)
	require.NoError(t, err)
	assert.Len(t, res.Questions, maxLimit)
}

func TestSearchEmptyQuery(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	_, err := svc.Search("   ", 0)
	assert.ErrorIs(t, err, errEmptyQuery)
}

func TestSearchSkipsDeletedAndInactive(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	author := seedUser(t, db, "kafka-fan", 20, true)
	seedUser(t, db, "kafka-banned", 90, false)
	q := &models.QuestionModel{
		UserID:   author.ID,
		Title:    "Kafka consumer groups",
		Question: "body",
	}
	require.NoError(t, db.Create(q).Error)
	require.NoError(t, db.Delete(q).Error)

	res, err := svc.Search("kafka", 0)
	require.NoError(t, err)
	assert.Empty(t, res.Questions)
	require.Len(t, res.Users, 1)
	assert.Equal(t, "kafka-fan", res.Users[0].Username)
}
