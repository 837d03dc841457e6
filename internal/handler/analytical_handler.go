package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/internal/workflow"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type AnalyticalHandler struct {
	analyticalService service.AnalyticalService
}

func NewAnalyticalHandler(analyticalService service.AnalyticalService) *AnalyticalHandler {
	return &AnalyticalHandler{analyticalService: analyticalService}
}

func (h *AnalyticalHandler) RegisterRoutes(router *gin.RouterGroup) {
	analytical := router.Group("/api/analytical")
	analytical.Use(middleware.RequireAuth())
	{
		analytical.GET("/catalogs", h.ListCatalogs)
		analytical.GET("/projects", h.ListProjects)
		analytical.GET("/activities", h.ListActivities)
		analytical.GET("/codes", h.ListCodes)
		analytical.GET("/codes/:id/chain", h.GetCodeChain)
	}

	admin := router.Group("/api/analytical")
	admin.Use(middleware.RequireRole(workflow.RoleAdmin))
	{
		admin.POST("/catalogs", h.CreateCatalog)
		admin.POST("/projects", h.CreateProject)
		admin.POST("/activities", h.CreateActivity)
		admin.POST("/codes", h.CreateCode)
	}
}

// ListCatalogs returns the top level of the analytical hierarchy
// @Summary      List analytical catalogs
// @Tags         analytical
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.AnalyticalCatalog}
// @Router       /api/analytical/catalogs [get]
func (h *AnalyticalHandler) ListCatalogs(c *gin.Context) {
	catalogs, err := h.analyticalService.Catalogs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, catalogs))
}

// ListProjects returns the projects of a catalog
// @Summary      List analytical projects
// @Tags         analytical
// @Security     BearerAuth
// @Produce      json
// @Param        catalog_id  query     string  false  "Parent catalog ID"
// @Success      200         {object}  response.Response{data=[]model.AnalyticalProject}
// @Router       /api/analytical/projects [get]
func (h *AnalyticalHandler) ListProjects(c *gin.Context) {
	projects, err := h.analyticalService.Projects(c.Request.Context(), c.Query("catalog_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, projects))
}

// ListActivities returns the activities of a project
// @Summary      List analytical activities
// @Tags         analytical
// @Security     BearerAuth
// @Produce      json
// @Param        project_id  query     string  false  "Parent project ID"
// @Success      200         {object}  response.Response{data=[]model.AnalyticalActivity}
// @Router       /api/analytical/activities [get]
func (h *AnalyticalHandler) ListActivities(c *gin.Context) {
	activities, err := h.analyticalService.Activities(c.Request.Context(), c.Query("project_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, activities))
}

// ListCodes returns the terminal codes of an activity
// @Summary      List analytical codes
// @Tags         analytical
// @Security     BearerAuth
// @Produce      json
// @Param        activity_id  query     string  false  "Parent activity ID"
// @Success      200          {object}  response.Response{data=[]model.AnalyticalCode}
// @Router       /api/analytical/codes [get]
func (h *AnalyticalHandler) ListCodes(c *gin.Context) {
	codes, err := h.analyticalService.Codes(c.Request.Context(), c.Query("activity_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, codes))
}

// GetCodeChain resolves the full ancestry of a terminal code
// @Summary      Get analytical code chain
// @Description  Returns the catalog/project/activity/code ids of a terminal code, for pre-populating the cascade selector
// @Tags         analytical
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Code ID"
// @Success      200  {object}  response.Response{data=service.CodeChain}
// @Failure      404  {object}  response.Response
// @Router       /api/analytical/codes/{id}/chain [get]
func (h *AnalyticalHandler) GetCodeChain(c *gin.Context) {
	chain, err := h.analyticalService.ResolveChain(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, chain))
}

// CreateCatalog adds a catalog at the top of the hierarchy
// @Summary      Create analytical catalog
// @Tags         analytical
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateCatalogDTO  true  "Catalog Payload"
// @Success      201      {object}  response.Response{data=model.AnalyticalCatalog}
// @Router       /api/analytical/catalogs [post]
func (h *AnalyticalHandler) CreateCatalog(c *gin.Context) {
	var req service.CreateCatalogDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	catalog, err := h.analyticalService.CreateCatalog(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, catalog))
}

// CreateProject adds a project under a catalog
// @Summary      Create analytical project
// @Tags         analytical
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateProjectDTO  true  "Project Payload"
// @Success      201      {object}  response.Response{data=model.AnalyticalProject}
// @Router       /api/analytical/projects [post]
func (h *AnalyticalHandler) CreateProject(c *gin.Context) {
	var req service.CreateProjectDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	project, err := h.analyticalService.CreateProject(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, project))
}

// CreateActivity adds an activity under a project
// @Summary      Create analytical activity
// @Tags         analytical
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateActivityDTO  true  "Activity Payload"
// @Success      201      {object}  response.Response{data=model.AnalyticalActivity}
// @Router       /api/analytical/activities [post]
func (h *AnalyticalHandler) CreateActivity(c *gin.Context) {
	var req service.CreateActivityDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	activity, err := h.analyticalService.CreateActivity(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, activity))
}

// CreateCode adds a terminal code under an activity
// @Summary      Create analytical code
// @Tags         analytical
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateCodeDTO  true  "Code Payload"
// @Success      201      {object}  response.Response{data=model.AnalyticalCode}
// @Router       /api/analytical/codes [post]
func (h *AnalyticalHandler) CreateCode(c *gin.Context) {
	var req service.CreateCodeDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}
	code, err := h.analyticalService.CreateCode(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, code))
}
