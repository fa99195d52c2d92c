package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/fes/internal/logic"
	"github.com/gin-gonic/gin"
)

// MilestoneHandler 里程碑处理器
type MilestoneHandler struct {
	milestoneLogic *logic.MilestoneLogic
}

// NewMilestoneHandler 创建里程碑处理器
func NewMilestoneHandler(milestoneLogic *logic.MilestoneLogic) *MilestoneHandler {
	return &MilestoneHandler{
		milestoneLogic: milestoneLogic,
	}
}

// AddMilestone 添加里程碑
func (h *MilestoneHandler) AddMilestone(c *gin.Context) {
	projectId, err := parseProjectId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	// 操作者身份由网关层注入，认证本身是外部系统的职责
	actorId, err := strconv.ParseInt(c.GetHeader("X-User-Id"), 10, 64)
	if err != nil || actorId <= 0 {
		ErrorResponse(c, http.StatusBadRequest, "缺少操作者身份")
		return
	}

	var req AddMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	// 调用logic层添加里程碑
	milestone, err := h.milestoneLogic.AddMilestone(projectId, actorId,
		req.Title, req.Description, req.Amount, req.DueDate)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "里程碑添加成功", milestone)
}

// ModifyMilestone 修改里程碑
func (h *MilestoneHandler) ModifyMilestone(c *gin.Context) {
	projectId, index, ok := parseMilestonePath(c)
	if !ok {
		return
	}

	var req ModifyMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	// 更新字段
	updates := make(map[string]interface{})
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Amount != nil {
		updates["amount"] = *req.Amount
	}
	if req.DueDate != nil {
		updates["due_date"] = req.DueDate
	}

	if len(updates) == 0 {
		ErrorResponse(c, http.StatusBadRequest, "没有要更新的字段")
		return
	}

	// 调用logic层修改里程碑
	if err := h.milestoneLogic.ModifyMilestone(projectId, index, updates); err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "里程碑修改成功", nil)
}

// RemoveMilestone 删除里程碑
func (h *MilestoneHandler) RemoveMilestone(c *gin.Context) {
	projectId, index, ok := parseMilestonePath(c)
	if !ok {
		return
	}

	// 调用logic层删除里程碑
	if err := h.milestoneLogic.RemoveMilestone(projectId, index); err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "里程碑删除成功", nil)
}

// CompleteMilestone 标记里程碑完成
func (h *MilestoneHandler) CompleteMilestone(c *gin.Context) {
	projectId, index, ok := parseMilestonePath(c)
	if !ok {
		return
	}

	var req CompleteMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	// 调用logic层标记里程碑完成
	if err := h.milestoneLogic.CompleteMilestone(projectId, index, req.Notes); err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "里程碑已完成", nil)
}

// ReleaseMilestonePayment 放款
func (h *MilestoneHandler) ReleaseMilestonePayment(c *gin.Context) {
	projectId, index, ok := parseMilestonePath(c)
	if !ok {
		return
	}

	// 调用logic层放款
	if err := h.milestoneLogic.ReleaseMilestonePayment(c.Request.Context(), projectId, index); err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "放款成功", nil)
}

// GetProjectMilestones 获取项目里程碑列表
func (h *MilestoneHandler) GetProjectMilestones(c *gin.Context) {
	projectId, err := parseProjectId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	// 调用logic层获取里程碑列表
	milestones, err := h.milestoneLogic.GetProjectMilestones(projectId)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取里程碑列表成功", ToMilestoneResponseList(milestones))
}

// parseMilestonePath 解析路径中的项目ID和里程碑位置
func parseMilestonePath(c *gin.Context) (int64, int, bool) {
	projectId, err := parseProjectId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return 0, 0, false
	}

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil || index < 0 {
		ErrorResponse(c, http.StatusBadRequest, "无效的里程碑位置")
		return 0, 0, false
	}

	return projectId, index, true
}
