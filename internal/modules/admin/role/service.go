package role

import (
	"errors"
	"regexp"
	"strings"

	"github.com/askspace/core/internal/models"
	"github.com/askspace/core/internal/pkg/pagination"
	"github.com/askspace/core/internal/pkg/response"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errRoleNotFound  = errors.New("role not found")
	errRoleProtected = errors.New("role is protected")
	errRoleInUse     = errors.New("role has assigned admins")
	errDuplicateName = errors.New("role name already taken")
	errUnknownAdmins = errors.New("admin id list contains unknown ids")
)

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

// CreateRoleDTO is the role create/update payload.
type CreateRoleDTO struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// SyncAdminsDTO replaces a role's full admin assignment set.
type SyncAdminsDTO struct {
	AdminIDs []string `json:"admin_ids"`
}

func (s *Service) List(q pagination.Query) ([]models.RoleModel, response.Pagination, error) {
	tx := s.db.Model(&models.RoleModel{}).Order("created_at ASC")
	var roles []models.RoleModel
	pag, err := pagination.Paginate(tx, q, &roles)
	return roles, pag, err
}

func (s *Service) Get(id string) (*models.RoleModel, error) {
	var r models.RoleModel
	if err := s.db.Preload("Admins").First(&r, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errRoleNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (s *Service) Create(dto *CreateRoleDTO) (*models.RoleModel, error) {
	name := strings.TrimSpace(dto.Name)
	r := models.RoleModel{
		Name:        name,
		Slug:        slugify(name),
		Description: strings.TrimSpace(dto.Description),
	}
	if err := s.db.Create(&r).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, errDuplicateName
		}
		return nil, err
	}
	return &r, nil
}

// Update renames a role. The super admin role cannot be touched.
func (s *Service) Update(id string, dto *CreateRoleDTO) (*models.RoleModel, error) {
	r, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if r.Slug == models.SuperAdminSlug {
		return nil, errRoleProtected
	}

	name := strings.TrimSpace(dto.Name)
	err = s.db.Model(&models.RoleModel{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":        name,
		"slug":        slugify(name),
		"description": strings.TrimSpace(dto.Description),
	}).Error
	if err != nil {
		if isDuplicateKey(err) {
			return nil, errDuplicateName
		}
		return nil, err
	}
	return s.Get(id)
}

// Delete removes a role. The super admin role cannot be deleted, and neither
// can any role that still has admins assigned.
func (s *Service) Delete(id string) error {
	r, err := s.Get(id)
	if err != nil {
		return err
	}
	if r.Slug == models.SuperAdminSlug {
		return errRoleProtected
	}

	assigned := s.db.Model(r).Association("Admins").Count()
	if assigned > 0 {
		return errRoleInUse
	}

	return s.db.Delete(&models.RoleModel{}, "id = ?", id).Error
}

// SyncAdmins replaces the role's assignment set with exactly the given admin
// ids. Every id must reference an existing admin or nothing is changed.
func (s *Service) SyncAdmins(id string, dto *SyncAdminsDTO) (*models.RoleModel, error) {
	r, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	ids := dedupe(dto.AdminIDs)
	var admins []models.AdminModel
	if len(ids) > 0 {
		if err := s.db.Where("id IN ?", ids).Find(&admins).Error; err != nil {
			return nil, err
		}
		if len(admins) != len(ids) {
			return nil, errUnknownAdmins
		}
	}

	if err := s.db.Model(r).Association("Admins").Replace(admins); err != nil {
		return nil, err
	}

	s.log.Info("role assignments replaced",
		zap.String("role_id", r.ID),
		zap.String("slug", r.Slug),
		zap.Int("admins", len(admins)),
	)
	return s.Get(id)
}

// AssignedAdmins lists the admins holding a role.
func (s *Service) AssignedAdmins(id string) ([]models.AdminModel, error) {
	r, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	return r.Admins, nil
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// slugify derives a role slug from its name.
func slugify(name string) string {
	s := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
