package subject

import (
	"errors"
	"strings"

	"github.com/askspace/core/internal/models"
	"github.com/askspace/core/internal/pkg/pagination"
	"github.com/askspace/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var (
	errNotFound      = errors.New("subject not found")
	errDuplicateName = errors.New("subject name already taken")
	errInUse         = errors.New("subject has questions filed under it")
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// CreateDTO is the subject create/update payload.
type CreateDTO struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (s *Service) List(q pagination.Query, search string) ([]models.SubjectModel, response.Pagination, error) {
	tx := s.db.Model(&models.SubjectModel{}).Order("name ASC")
	if search = strings.TrimSpace(search); search != "" {
		tx = tx.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	var rows []models.SubjectModel
	pag, err := pagination.Paginate(tx, q, &rows)
	return rows, pag, err
}

func (s *Service) Get(id string) (*models.SubjectModel, error) {
	var sub models.SubjectModel
	if err := s.db.First(&sub, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (s *Service) Create(dto *CreateDTO) (*models.SubjectModel, error) {
	sub := models.SubjectModel{
		Name:        strings.TrimSpace(dto.Name),
		Description: strings.TrimSpace(dto.Description),
	}
	if err := s.db.Create(&sub).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, errDuplicateName
		}
		return nil, err
	}
	return &sub, nil
}

func (s *Service) Update(id string, dto *CreateDTO) (*models.SubjectModel, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	err := s.db.Model(&models.SubjectModel{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":        strings.TrimSpace(dto.Name),
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

func (s *Service) Delete(id string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}

	var count int64
	if err := s.db.Table("question_subjects").Where("subject_model_id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return errInUse
	}
	return s.db.Delete(&models.SubjectModel{}, "id = ?", id).Error
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the public subject lookup.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/subjects", h.list)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/subjects")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	rows, pag, err := h.svc.List(pagination.FromContext(c), c.Query("search"))
	if err != nil {
		response.InternalError(c)
		return
	}
	response.Paged(c, "Subjects.", rows, pag)
}

func (h *Handler) get(c *gin.Context) {
	sub, err := h.svc.Get(c.Param("id"))
	if err != nil {
		h.subjectError(c, err)
		return
	}
	response.OK(c, "Subject.", sub)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, "Validation failed.", err.Error())
		return
	}

	sub, err := h.svc.Create(&dto)
	if err != nil {
		h.subjectError(c, err)
		return
	}
	response.Created(c, "Subject created.", sub)
}

func (h *Handler) update(c *gin.Context) {
	var dto CreateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, "Validation failed.", err.Error())
		return
	}

	sub, err := h.svc.Update(c.Param("id"), &dto)
	if err != nil {
		h.subjectError(c, err)
		return
	}
	response.OK(c, "Subject updated.", sub)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		h.subjectError(c, err)
		return
	}
	response.OK(c, "Subject deleted.", nil)
}

func (h *Handler) subjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errNotFound):
		response.NotFound(c, "Subject not found.")
	case errors.Is(err, errDuplicateName):
		response.UnprocessableEntity(c, "Subject name is already taken.", nil)
	case errors.Is(err, errInUse):
		response.Conflict(c, "This subject still has questions filed under it.")
	default:
		response.InternalError(c)
	}
}
