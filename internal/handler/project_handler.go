package handler

import (
	"net/http"

	"github.com/blues/fes/internal/logic"
	"github.com/blues/fes/internal/model"
	"github.com/gin-gonic/gin"
)

// ProjectHandler 项目处理器
type ProjectHandler struct {
	projectLogic *logic.ProjectLogic
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(projectLogic *logic.ProjectLogic) *ProjectHandler {
	return &ProjectHandler{
		projectLogic: projectLogic,
	}
}

// CreateProject 创建项目
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	project := model.ProjectModel{
		Title:         req.Title,
		Description:   req.Description,
		ClientId:      req.ClientId,
		FreelancerId:  req.FreelancerId,
		AgreedAmount:  req.AgreedAmount,
		Currency:      req.Currency,
		PayoutAccount: req.PayoutAccount,
	}

	// 调用logic层创建项目
	if err := h.projectLogic.CreateProject(&project); err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "项目创建成功", ToProjectResponse(&project))
}

// GetProject 获取项目详情
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, err := parseProjectId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	// 调用logic层获取项目详情
	project, err := h.projectLogic.GetProject(id)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取项目详情成功", ToProjectResponse(project))
}

// GetProjects 获取项目列表
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	// 调用logic层获取项目列表
	projects, err := h.projectLogic.GetProjects()
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取项目列表成功", ToProjectResponseList(projects))
}
