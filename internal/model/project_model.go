package model

import (
	"time"
)

// ProjectModel 项目模型（托管相关字段）
type ProjectModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	Title       string `json:"title" gorm:"not null" binding:"required"`
	Description string `json:"description" gorm:"type:text"`

	// 参与方（账号体系由外部系统维护，这里只存标识）
	ClientId     int64 `json:"client_id" gorm:"not null"`
	FreelancerId int64 `json:"freelancer_id" gorm:"not null"`

	// 资金信息
	AgreedAmount int64  `json:"agreed_amount" gorm:"not null" binding:"required,min=1"` // 最终协商金额（最小货币单位）
	Currency     string `json:"currency" gorm:"not null"`

	// 收款目标（外部银行信息系统中的账户引用）
	PayoutAccount string `json:"payout_account"`

	// 状态
	Status ProjectStatus `json:"status" gorm:"default:'active'"`
}

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusActive ProjectStatus = "active" // 进行中
	ProjectStatusClosed ProjectStatus = "closed" // 已结束
)

// TableName 自定义表名
func (ProjectModel) TableName() string {
	return "project"
}
