package role

import (
	"errors"

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

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/roles")
	g.GET("", h.list)
	g.POST("", h.create)
	g.GET("/:id", h.get)
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.POST("/:id/sync-admins", h.syncAdmins)
	g.GET("/:id/admins", h.assignedAdmins)
}

func (h *Handler) list(c *gin.Context) {
	roles, pag, err := h.svc.List(pagination.FromContext(c))
	if err != nil {
		response.InternalError(c)
		return
	}
	response.Paged(c, "Roles.", roles, pag)
}

func (h *Handler) get(c *gin.Context) {
	r, err := h.svc.Get(c.Param("id"))
	if err != nil {
		h.roleError(c, err)
		return
	}
	response.OK(c, "Role.", r)
}

func (h *Handler) create(c *gin.Context) {
	var dto CreateRoleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, "Validation failed.", err.Error())
		return
	}

	r, err := h.svc.Create(&dto)
	if err != nil {
		h.roleError(c, err)
		return
	}
	response.Created(c, "Role created.", r)
}

func (h *Handler) update(c *gin.Context) {
	var dto CreateRoleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, "Validation failed.", err.Error())
		return
	}

	r, err := h.svc.Update(c.Param("id"), &dto)
	if err != nil {
		h.roleError(c, err)
		return
	}
	response.OK(c, "Role updated.", r)
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		h.roleError(c, err)
		return
	}
	response.OK(c, "Role deleted.", nil)
}

func (h *Handler) syncAdmins(c *gin.Context) {
	var dto SyncAdminsDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.UnprocessableEntity(c, "Validation failed.", err.Error())
		return
	}

	r, err := h.svc.SyncAdmins(c.Param("id"), &dto)
	if err != nil {
		h.roleError(c, err)
		return
	}
	response.OK(c, "Role assignments updated.", r)
}

func (h *Handler) assignedAdmins(c *gin.Context) {
	admins, err := h.svc.AssignedAdmins(c.Param("id"))
	if err != nil {
		h.roleError(c, err)
		return
	}
	response.OK(c, "Assigned admins.", admins)
}

func (h *Handler) roleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errRoleNotFound):
		response.NotFound(c, "Role not found.")
	case errors.Is(err, errRoleProtected):
		response.Forbidden(c, "The super admin role cannot be modified.")
	case errors.Is(err, errRoleInUse):
		response.Conflict(c, "This role still has admins assigned.")
	case errors.Is(err, errDuplicateName):
		response.UnprocessableEntity(c, "Role name is already taken.", nil)
	case errors.Is(err, errUnknownAdmins):
		response.UnprocessableEntity(c, "One or more admin ids do not exist.", nil)
	default:
		response.InternalError(c)
	}
}
