package subject

import (
	"fmt"
	"testing"

	"github.com/askspace/core/internal/models"
	"github.com/askspace/core/internal/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
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
		&models.AnswerModel{},
		&models.SubjectModel{},
	))
	return db
}

func TestCreateSubjectUniqueName(t *testing.T) {
	svc := NewService(newTestDB(t))

	sub, err := svc.Create(&CreateDTO{Name: " Concurrency ", Description: " Goroutines and channels "})
	require.NoError(t, err)
	assert.Equal(t, "Concurrency", sub.Name)
	assert.Equal(t, "Goroutines and channels", sub.Description)

	_, err = svc.Create(&CreateDTO{Name: "Concurrency"})
	assert.ErrorIs(t, err, errDuplicateName)
}

func TestListOrdersByName(t *testing.T) {
	svc := NewService(newTestDB(t))
	for _, name := range []string{"Testing", "Concurrency", "Generics"} {
		_, err := svc.Create(&CreateDTO{Name: name})
		require.NoError(t, err)
	}

	rows, _, err := svc.List(pagination.Query{Page: 1, PerPage: 10}, "")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Concurrency", rows[0].Name)
	assert.Equal(t, "Generics", rows[1].Name)
	assert.Equal(t, "Testing", rows[2].Name)

	rows, _, err = svc.List(pagination.Query{Page: 1, PerPage: 10}, "gener")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Generics", rows[0].Name)
}

func TestDeleteSubjectInUse(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	sub, err := svc.Create(&CreateDTO{Name: "Errors"})
	require.NoError(t, err)

	u := &models.UserModel{Username: "asker", Email: "asker@example.com", Password: "hash", IsActive: true}
	require.NoError(t, db.Create(u).Error)
	q := &models.QuestionModel{
		UserID: u.ID, Title: "T", Question: "Q",
		Subjects: []models.SubjectModel{*sub},
	}
	require.NoError(t, db.Create(q).Error)

	assert.ErrorIs(t, svc.Delete(sub.ID), errInUse)

	// Detaching the question frees the subject.
	require.NoError(t, db.Model(q).Association("Subjects").Clear())
	require.NoError(t, svc.Delete(sub.ID))

	_, err = svc.Get(sub.ID)
	assert.ErrorIs(t, err, errNotFound)
}

func TestUpdateSubject(t *testing.T) {
	svc := NewService(newTestDB(t))

	a, err := svc.Create(&CreateDTO{Name: "Chanels"})
	require.NoError(t, err)
	_, err = svc.Create(&CreateDTO{Name: "Testing"})
	require.NoError(t, err)

	got, err := svc.Update(a.ID, &CreateDTO{Name: "Channels"})
	require.NoError(t, err)
	assert.Equal(t, "Channels", got.Name)

	_, err = svc.Update(a.ID, &CreateDTO{Name: "Testing"})
	assert.ErrorIs(t, err, errDuplicateName)

	_, err = svc.Update("missing", &CreateDTO{Name: "x"})
	assert.ErrorIs(t, err, errNotFound)
}
