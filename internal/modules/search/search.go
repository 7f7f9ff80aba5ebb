package search

import (
	"errors"
	"strconv"
	"strings"

	"github.com/askspace/core/internal/models"
	"github.com/askspace/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var errEmptyQuery = errors.New("search query is empty")

const (
	defaultLimit = 5
	maxLimit     = 20
)

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

// UserHit is the public slice of a member profile returned by search.
type UserHit struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Image      string `json:"image"`
	Reputation int    `json:"reputation"`
}

// Results groups matches per entity, each capped at the request limit.
type Results struct {
	Questions []models.QuestionModel `json:"questions"`
	Subjects  []models.SubjectModel  `json:"subjects"`
	Users     []UserHit              `json:"users"`
}

// Search runs a substring match over questions, subjects and active
// members. Soft-deleted content never surfaces.
func (s *Service) Search(query string, limit int) (*Results, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, errEmptyQuery
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	like := "%" + strings.ToLower(q) + "%"
	res := &Results{
		Questions: []models.QuestionModel{},
		Subjects:  []models.SubjectModel{},
		Users:     []UserHit{},
	}

	err := s.db.Preload("User").Preload("Subjects").
		Where("LOWER(title) LIKE ? OR LOWER(question) LIKE ?", like, like).
		Order("vote DESC, created_at DESC").
		Limit(limit).
		Find(&res.Questions).Error
	if err != nil {
		return nil, err
	}

	err = s.db.
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like).
		Order("name ASC").
		Limit(limit).
		Find(&res.Subjects).Error
	if err != nil {
		return nil, err
	}

	err = s.db.Model(&models.UserModel{}).
		Where("is_active = ? AND LOWER(username) LIKE ?", true, like).
		Order("reputation DESC").
		Limit(limit).
		Find(&res.Users).Error
	if err != nil {
		return nil, err
	}

	return res, nil
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/search", h.search)
}

func (h *Handler) search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	res, err := h.svc.Search(c.Query("q"), limit)
	if err != nil {
		if errors.Is(err, errEmptyQuery) {
			response.BadRequest(c, "Search query is required.")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, "Search results.", res)
}
