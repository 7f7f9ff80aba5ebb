package role

import (
	"fmt"
	"testing"

	"github.com/askspace/core/internal/models"
	"github.com/askspace/core/internal/pkg/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
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
	require.NoError(t, db.AutoMigrate(&models.AdminModel{}, &models.RoleModel{}))
	return db
}

func seedAdmin(t *testing.T, db *gorm.DB, name string) *models.AdminModel {
	t.Helper()
	a := &models.AdminModel{Name: name, Email: name + "@example.com"}
	require.NoError(t, db.Create(a).Error)
	return a
}

func TestCreateRoleSlug(t *testing.T) {
	svc := NewService(newTestDB(t), zap.NewNop())

	r, err := svc.Create(&CreateRoleDTO{Name: "  Content Manager  "})
	require.NoError(t, err)
	assert.Equal(t, "Content Manager", r.Name)
	assert.Equal(t, "content-manager", r.Slug)

	_, err = svc.Create(&CreateRoleDTO{Name: "Content Manager"})
	assert.ErrorIs(t, err, errDuplicateName)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "moderator", slugify("Moderator"))
	assert.Equal(t, "user-manager", slugify("User Manager"))
	assert.Equal(t, "q-a-lead", slugify("Q&A Lead!"))
}

func TestSuperAdminRoleProtected(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, zap.NewNop())

	super := &models.RoleModel{Name: "Super Admin", Slug: models.SuperAdminSlug}
	require.NoError(t, db.Create(super).Error)

	_, err := svc.Update(super.ID, &CreateRoleDTO{Name: "Renamed"})
	assert.ErrorIs(t, err, errRoleProtected)

	err = svc.Delete(super.ID)
	assert.ErrorIs(t, err, errRoleProtected)
}

func TestDeleteRoleInUse(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, zap.NewNop())
	admin := seedAdmin(t, db, "alice")

	r, err := svc.Create(&CreateRoleDTO{Name: "Moderator"})
	require.NoError(t, err)

	_, err = svc.SyncAdmins(r.ID, &SyncAdminsDTO{AdminIDs: []string{admin.ID}})
	require.NoError(t, err)

	err = svc.Delete(r.ID)
	assert.ErrorIs(t, err, errRoleInUse)

	// Emptying the assignment set unlocks deletion.
	_, err = svc.SyncAdmins(r.ID, &SyncAdminsDTO{AdminIDs: nil})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(r.ID))

	_, err = svc.Get(r.ID)
	assert.ErrorIs(t, err, errRoleNotFound)
}

func TestSyncAdminsReplaces(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, zap.NewNop())
	a1 := seedAdmin(t, db, "alice")
	a2 := seedAdmin(t, db, "bob")

	r, err := svc.Create(&CreateRoleDTO{Name: "Moderator"})
	require.NoError(t, err)

	got, err := svc.SyncAdmins(r.ID, &SyncAdminsDTO{AdminIDs: []string{a1.ID, a1.ID}})
	require.NoError(t, err)
	require.Len(t, got.Admins, 1)
	assert.Equal(t, a1.ID, got.Admins[0].ID)

	got, err = svc.SyncAdmins(r.ID, &SyncAdminsDTO{AdminIDs: []string{a2.ID}})
	require.NoError(t, err)
	require.Len(t, got.Admins, 1)
	assert.Equal(t, a2.ID, got.Admins[0].ID)
}

func TestSyncAdminsUnknownID(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, zap.NewNop())
	admin := seedAdmin(t, db, "alice")

	r, err := svc.Create(&CreateRoleDTO{Name: "Moderator"})
	require.NoError(t, err)

	_, err = svc.SyncAdmins(r.ID, &SyncAdminsDTO{AdminIDs: []string{admin.ID, "missing"}})
	assert.ErrorIs(t, err, errUnknownAdmins)

	// Nothing was changed.
	admins, err := svc.AssignedAdmins(r.ID)
	require.NoError(t, err)
	assert.Len(t, admins, 0)
}

func TestListRoles(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, zap.NewNop())

	for _, name := range []string{"Moderator", "Content Manager", "User Manager"} {
		_, err := svc.Create(&CreateRoleDTO{Name: name})
		require.NoError(t, err)
	}

	roles, pag, err := svc.List(pagination.Query{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Len(t, roles, 3)
	assert.Equal(t, int64(3), pag.Total)
}
