package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/internal/workflow"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// OrgHandler serves the routing configuration: entities and approval groups.
type OrgHandler struct {
	orgService service.OrgService
}

func NewOrgHandler(orgService service.OrgService) *OrgHandler {
	return &OrgHandler{orgService: orgService}
}

func (h *OrgHandler) RegisterRoutes(router *gin.RouterGroup) {
	entities := router.Group("/api/entities")
	{
		entities.GET("", middleware.RequireAuth(), h.ListEntities)
		entities.POST("", middleware.RequireRole(workflow.RoleAdmin), h.CreateEntity)
		entities.DELETE("/:id", middleware.RequireRole(workflow.RoleAdmin), h.DeleteEntity)
	}

	groups := router.Group("/api/approval-groups")
	{
		groups.GET("", middleware.RequireAuth(), h.ListApprovalGroups)
		groups.POST("", middleware.RequireRole(workflow.RoleAdmin), h.CreateApprovalGroup)
		groups.DELETE("/:id", middleware.RequireRole(workflow.RoleAdmin), h.DeleteApprovalGroup)
	}
}

// ListEntities returns every organizational entity
// @Summary      List entities
// @Tags         organization
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Entity}
// @Router       /api/entities [get]
func (h *OrgHandler) ListEntities(c *gin.Context) {
	entities, err := h.orgService.ListEntities(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, entities))
}

// CreateEntity adds an organizational entity
// @Summary      Create entity
// @Tags         organization
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateEntityDTO  true  "Entity Payload"
// @Success      201      {object}  response.Response{data=model.Entity}
// @Failure      400      {object}  response.Response
// @Router       /api/entities [post]
func (h *OrgHandler) CreateEntity(c *gin.Context) {
	var req service.CreateEntityDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	entity, err := h.orgService.CreateEntity(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, entity))
}

// DeleteEntity removes an entity with no assigned users
// @Summary      Delete entity
// @Tags         organization
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Entity ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/entities/{id} [delete]
func (h *OrgHandler) DeleteEntity(c *gin.Context) {
	if err := h.orgService.DeleteEntity(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Entity deleted"))
}

// ListApprovalGroups returns the validation tiers ordered by level
// @Summary      List approval groups
// @Tags         organization
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.ApprovalGroup}
// @Router       /api/approval-groups [get]
func (h *OrgHandler) ListApprovalGroups(c *gin.Context) {
	groups, err := h.orgService.ListApprovalGroups(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, groups))
}

// CreateApprovalGroup adds a validation tier
// @Summary      Create approval group
// @Description  Creates a validation tier covering an amount band, globally or scoped to one entity
// @Tags         organization
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateApprovalGroupDTO  true  "Approval Group Payload"
// @Success      201      {object}  response.Response{data=model.ApprovalGroup}
// @Failure      400      {object}  response.Response
// @Router       /api/approval-groups [post]
func (h *OrgHandler) CreateApprovalGroup(c *gin.Context) {
	var req service.CreateApprovalGroupDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	group, err := h.orgService.CreateApprovalGroup(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, group))
}

// DeleteApprovalGroup removes a tier with no pending validations
// @Summary      Delete approval group
// @Tags         organization
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Approval Group ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/approval-groups/{id} [delete]
func (h *OrgHandler) DeleteApprovalGroup(c *gin.Context) {
	if err := h.orgService.DeleteApprovalGroup(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Approval group deleted"))
}
