package dashboard

import (
	"time"

	"github.com/askspace/core/internal/models"
	"github.com/askspace/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Statistics is the admin dashboard summary.
type Statistics struct {
	Users         int64            `json:"users"`
	ActiveBlocks  int64            `json:"active_blocks"`
	Questions     int64            `json:"questions"`
	Answers       int64            `json:"answers"`
	Comments      int64            `json:"comments"`
	Subjects      int64            `json:"subjects"`
	Announcements int64            `json:"announcements"`
	Reports       map[string]int64 `json:"reports"`
}

type Service struct{ db *gorm.DB }

func NewService(db *gorm.DB) *Service { return &Service{db: db} }

func (s *Service) Statistics() (*Statistics, error) {
	stats := Statistics{Reports: make(map[string]int64)}

	counts := []struct {
		dest  *int64
		model interface{}
	}{
		{&stats.Users, &models.UserModel{}},
		{&stats.Questions, &models.QuestionModel{}},
		{&stats.Answers, &models.AnswerModel{}},
		{&stats.Comments, &models.CommentModel{}},
		{&stats.Subjects, &models.SubjectModel{}},
		{&stats.Announcements, &models.AnnouncementModel{}},
	}
	for _, cq := range counts {
		if err := s.db.Model(cq.model).Count(cq.dest).Error; err != nil {
			return nil, err
		}
	}

	if err := s.db.Model(&models.BlockModel{}).
		Where("unblocker_id IS NULL AND (end_time IS NULL OR end_time > ?)", time.Now()).
		Count(&stats.ActiveBlocks).Error; err != nil {
		return nil, err
	}

	var byStatus []struct {
		Status string
		Count  int64
	}
	if err := s.db.Model(&models.ReportModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, row := range byStatus {
		stats.Reports[row.Status] = row.Count
	}

	return &stats, nil
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/dashboard/statistics", h.statistics)
}

func (h *Handler) statistics(c *gin.Context) {
	stats, err := h.svc.Statistics()
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, "Dashboard statistics.", stats)
}
