package ledger

import (
	"errors"

	"github.com/askspace/core/internal/content"
	"github.com/askspace/core/internal/middleware"
	"github.com/askspace/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	v := rg.Group("/votes", authMW)
	v.POST("/:type/:id/up", h.upvote)
	v.POST("/:type/:id/down", h.downvote)

	rg.POST("/views/:type/:id", authMW, h.view)
}

// RegisterAdminRoutes mounts the moderation-only vote reset.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.DELETE("/votes/:type/:id", h.resetVotes)
}

func (h *Handler) upvote(c *gin.Context) {
	h.castVote(c, h.svc.Upvote)
}

func (h *Handler) downvote(c *gin.Context) {
	h.castVote(c, h.svc.Downvote)
}

func (h *Handler) castVote(c *gin.Context, fn func(content.Kind, string, string) (int, error)) {
	kind, err := content.ParseKind(c.Param("type"))
	if err != nil {
		response.BadRequest(c, "Unknown content type.")
		return
	}

	count, err := fn(kind, c.Param("id"), middleware.CurrentUserID(c))
	if err != nil {
		h.voteError(c, err)
		return
	}
	response.OK(c, "Vote recorded.", gin.H{"vote": count})
}

func (h *Handler) view(c *gin.Context) {
	kind, err := content.ParseKind(c.Param("type"))
	if err != nil {
		response.BadRequest(c, "Unknown content type.")
		return
	}

	count, err := h.svc.View(kind, c.Param("id"), middleware.CurrentUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, errNotViewable):
			response.BadRequest(c, "This content does not track views.")
		case errors.Is(err, errContentNotFound):
			response.NotFound(c, "Content not found.")
		default:
			response.InternalError(c)
		}
		return
	}
	response.OK(c, "View recorded.", gin.H{"view": count})
}

func (h *Handler) resetVotes(c *gin.Context) {
	kind, err := content.ParseKind(c.Param("type"))
	if err != nil {
		response.BadRequest(c, "Unknown content type.")
		return
	}

	if err := h.svc.ResetVotes(kind, c.Param("id")); err != nil {
		if errors.Is(err, errContentNotFound) {
			response.NotFound(c, "Content not found.")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, "Votes reset.", nil)
}

func (h *Handler) voteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errAlreadyVoted):
		response.Conflict(c, "You have already voted on this content.")
	case errors.Is(err, errContentNotFound):
		response.NotFound(c, "Content not found.")
	default:
		response.InternalError(c)
	}
}
