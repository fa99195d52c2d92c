package handler

import (
	"errors"
	"net/http"

	"github.com/blues/fes/internal/logic"
	"github.com/gin-gonic/gin"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// LogicErrorResponse 把logic层的类型化错误映射到HTTP状态码
func LogicErrorResponse(c *gin.Context, err error) {
	switch {
	case errors.Is(err, logic.ErrProjectNotFound),
		errors.Is(err, logic.ErrEscrowNotFound),
		errors.Is(err, logic.ErrMilestoneNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, logic.ErrEscrowExists),
		errors.Is(err, logic.ErrInvalidState):
		ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, logic.ErrInvalidAmount):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, logic.ErrForbidden):
		ErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, logic.ErrVerificationFailed):
		ErrorResponse(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, logic.ErrGatewayFailure):
		ErrorResponse(c, http.StatusBadGateway, err.Error())
	case errors.Is(err, logic.ErrGatewayPending):
		// 不是错误也不是完成，提示调用方稍后查看
		ErrorResponse(c, http.StatusAccepted, err.Error())
	default:
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
	}
}
