package report

import (
	"errors"
	"time"

	"github.com/askspace/core/internal/content"
	"github.com/askspace/core/internal/middleware"
	"github.com/askspace/core/internal/pkg/pagination"
	"github.com/askspace/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the end-user reporting surface.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.POST("/reports", authMW, h.create)
	rg.GET("/report-reasons", h.listReasons)
}

// RegisterAdminRoutes mounts the moderation surface.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/reports")
	g.GET("", h.list)
	g.POST("/:id/process", h.process)
	g.GET("/content/:type/:id", h.contentDetail)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateReportDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, "Validation failed.", err.Error())
		return
	}

	r, err := h.svc.Create(middleware.CurrentUserID(c), &dto)
	if err != nil {
		switch {
		case errors.Is(err, content.ErrUnknownKind):
			response.BadRequest(c, "Unknown content type.")
		case errors.Is(err, errContentNotFound):
			response.NotFound(c, "Content not found.")
		case errors.Is(err, errReasonNotFound):
			response.UnprocessableEntity(c, "Unknown report reason.", nil)
		case errors.Is(err, errDuplicateReport):
			response.Conflict(c, "You have already reported this content.")
		default:
			response.InternalError(c)
		}
		return
	}
	response.Created(c, "Report submitted.", r)
}

func (h *Handler) listReasons(c *gin.Context) {
	reasons, err := h.svc.Reasons()
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, "Report reasons.", reasons)
}

func (h *Handler) list(c *gin.Context) {
	f := ListFilters{
		Type:     c.Query("type"),
		Search:   c.Query("search"),
		Status:   c.Query("status"),
		ReasonID: c.Query("reason_id"),
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse(time.DateOnly, from); err == nil {
			f.From = &t
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse(time.DateOnly, to); err == nil {
			end := t.Add(24*time.Hour - time.Nanosecond)
			f.To = &end
		}
	}

	views, pag, err := h.svc.List(pagination.FromContext(c), f)
	if err != nil {
		if errors.Is(err, content.ErrUnknownKind) {
			response.BadRequest(c, "Unknown content type.")
			return
		}
		response.InternalError(c)
		return
	}
	response.Paged(c, "Reports.", views, pag)
}

func (h *Handler) process(c *gin.Context) {
	var dto ProcessDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, "Validation failed.", err.Error())
		return
	}

	r, err := h.svc.Process(middleware.CurrentAdminID(c), c.Param("id"), &dto)
	if err != nil {
		switch {
		case errors.Is(err, errInvalidStatus):
			response.UnprocessableEntity(c, "Status must be reviewed, resolved or rejected.", nil)
		case errors.Is(err, errReportNotFound):
			response.NotFound(c, "Report not found.")
		case errors.Is(err, errAlreadyProcessed):
			response.Conflict(c, "This report has already been processed.")
		default:
			response.InternalError(c)
		}
		return
	}
	response.OK(c, "Report processed.", r)
}

func (h *Handler) contentDetail(c *gin.Context) {
	view, err := h.svc.ContentDetail(c.Param("type"), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, content.ErrUnknownKind):
			response.BadRequest(c, "Unknown content type.")
		case errors.Is(err, errContentNotFound):
			response.NotFound(c, "Content not found.")
		default:
			response.InternalError(c)
		}
		return
	}
	response.OK(c, "Reported content.", view)
}
