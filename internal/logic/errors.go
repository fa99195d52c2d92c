package logic

import (
	"errors"
)

// 前置条件错误与网关错误分开定义，调用方据此区分"修请求"和"重试网络调用"
var (
	ErrProjectNotFound   = errors.New("项目不存在")
	ErrEscrowNotFound    = errors.New("托管记录不存在")
	ErrMilestoneNotFound = errors.New("里程碑不存在")

	ErrEscrowExists       = errors.New("托管记录已存在，请先查看或重置")
	ErrInvalidAmount      = errors.New("金额必须大于0")
	ErrInvalidState       = errors.New("当前状态不允许此操作")
	ErrForbidden          = errors.New("只有项目接单方可以操作里程碑")
	ErrVerificationFailed = errors.New("支付验证失败")

	// ErrGatewayFailure 网关明确拒绝，本地状态未变，可以重试
	ErrGatewayFailure = errors.New("网关处理失败，请重试")
	// ErrGatewayPending 网关结果未知，等待对账确认，不可盲目重试
	ErrGatewayPending = errors.New("网关处理中，请稍后查看")
)
