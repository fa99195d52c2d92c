package model

import (
	"time"
)

// EscrowModel 托管记录，每个项目最多一条
type EscrowModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId int64  `json:"project_id" gorm:"not null;uniqueIndex"`
	Amount    int64  `json:"amount" gorm:"not null"` // 托管金额（最小货币单位）
	Currency  string `json:"currency" gorm:"not null"`

	// 网关信息
	OrderRef   string `json:"order_ref" gorm:"not null;uniqueIndex"` // 网关订单号
	PaymentRef string `json:"payment_ref"`                           // 网关支付号（验证通过后写入）

	Status     EscrowStatus `json:"status" gorm:"default:'pending_verification'"`
	VerifiedAt *time.Time   `json:"verified_at"`
}

// EscrowStatus 托管状态
type EscrowStatus string

const (
	EscrowStatusPending EscrowStatus = "pending_verification" // 待验证
	EscrowStatusActive  EscrowStatus = "active"               // 已生效
)

// TableName 自定义表名
func (EscrowModel) TableName() string {
	return "escrow"
}
