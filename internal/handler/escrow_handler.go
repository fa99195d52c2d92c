package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/fes/internal/logic"
	"github.com/gin-gonic/gin"
)

// EscrowHandler 托管处理器
type EscrowHandler struct {
	escrowLogic *logic.EscrowLogic
}

// NewEscrowHandler 创建托管处理器
func NewEscrowHandler(escrowLogic *logic.EscrowLogic) *EscrowHandler {
	return &EscrowHandler{
		escrowLogic: escrowLogic,
	}
}

// CreateEscrow 创建托管
func (h *EscrowHandler) CreateEscrow(c *gin.Context) {
	projectId, err := parseProjectId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	var req CreateEscrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	// 调用logic层创建托管
	result, err := h.escrowLogic.CreateEscrow(c.Request.Context(), projectId, req.Amount)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "托管创建成功，请完成支付", result)
}

// VerifyEscrow 验证托管支付
func (h *EscrowHandler) VerifyEscrow(c *gin.Context) {
	projectId, err := parseProjectId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	var req VerifyEscrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	// 调用logic层验证托管
	if err := h.escrowLogic.VerifyEscrow(projectId, req.PaymentRef, req.Signature); err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "托管已生效", nil)
}

// ResetEscrow 重置待验证的托管
func (h *EscrowHandler) ResetEscrow(c *gin.Context) {
	projectId, err := parseProjectId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	// 调用logic层重置托管
	if err := h.escrowLogic.ResetEscrow(projectId); err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "托管已重置", nil)
}

// GetEscrowStatus 获取托管状态汇总
func (h *EscrowHandler) GetEscrowStatus(c *gin.Context) {
	projectId, err := parseProjectId(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	// 调用logic层获取托管状态
	status, err := h.escrowLogic.GetEscrowStatus(projectId)
	if err != nil {
		LogicErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取托管状态成功", ToEscrowStatusResponse(status))
}

// parseProjectId 解析路径中的项目ID
func parseProjectId(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, strconv.ErrSyntax
	}
	return id, nil
}
