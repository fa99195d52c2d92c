package gateway

import (
	"context"
	"errors"
	"fmt"
)

// Gateway 支付网关适配器
type Gateway interface {
	// CreateOrder 创建支付订单（托管入金前的网关预留，不动资金）
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*Order, error)
	// VerifySignature 校验支付完成回调的签名
	VerifySignature(orderRef, paymentRef, signature string) bool
	// TransferFunds 从托管账户向收款账户转账，referenceId 为幂等键
	TransferFunds(ctx context.Context, destination string, amount int64, currency, referenceId string) (*Transfer, error)
	// GetTransferByReference 按幂等键查询转账，用于对账
	GetTransferByReference(ctx context.Context, referenceId string) (*Transfer, error)
}

// Order 网关订单
type Order struct {
	OrderRef string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// Transfer 网关转账
type Transfer struct {
	TransferRef string `json:"id"`
	ReferenceId string `json:"reference_id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
}

// 网关侧转账状态
const (
	TransferStatusProcessed = "processed" // 已执行
	TransferStatusReversed  = "reversed"  // 已冲正
	TransferStatusRejected  = "rejected"  // 已拒绝
)

var (
	// ErrUnreachable 网关不可达或超时，调用结果未知，只能通过对账确认
	ErrUnreachable = errors.New("gateway unreachable, outcome unknown")
	// ErrNotFound 网关没有对应记录
	ErrNotFound = errors.New("gateway record not found")
)

// APIError 网关明确返回的业务错误
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Desc       string `json:"description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway error %s: %s", e.Code, e.Desc)
}
