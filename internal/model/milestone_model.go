package model

import (
	"time"
)

// MilestoneModel 项目里程碑
type MilestoneModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId   int64      `json:"project_id" gorm:"not null;index"`
	Title       string     `json:"title" gorm:"not null"`
	Description string     `json:"description" gorm:"type:text"`
	Amount      int64      `json:"amount" gorm:"not null"` // 里程碑金额（最小货币单位）
	DueDate     *time.Time `json:"due_date"`               // 可选，空表示不跟踪期限

	// 完成状态（完成后不可再修改或删除）
	IsCompleted     bool       `json:"is_completed" gorm:"default:false"`
	CompletedAt     *time.Time `json:"completed_at"`
	CompletionNotes string     `json:"completion_notes" gorm:"type:text"`

	// 放款状态（payment_released 为真时 is_completed 必为真）
	PaymentReleased bool       `json:"payment_released" gorm:"default:false"`
	ReleasedAt      *time.Time `json:"released_at"`
	TransferRef     string     `json:"transfer_ref"` // 网关转账号
}

// TableName 自定义表名
func (MilestoneModel) TableName() string {
	return "milestone"
}
