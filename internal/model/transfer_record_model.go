package model

import (
	"time"
)

// TransferRecordModel 放款转账记录
type TransferRecordModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ProjectId   int64 `json:"project_id" gorm:"not null;index"`
	MilestoneId int64 `json:"milestone_id" gorm:"not null;index"`

	// 幂等键，同一里程碑只对应一条记录，对账时按此键查询网关
	ReferenceId string `json:"reference_id" gorm:"not null;uniqueIndex"`
	TransferRef string `json:"transfer_ref"` // 网关转账号（网关确认后写入）

	Amount      int64  `json:"amount" gorm:"not null"`
	Currency    string `json:"currency" gorm:"not null"`
	Destination string `json:"destination" gorm:"not null"`

	Status     TransferStatus `json:"status" gorm:"default:'pending'"`
	FailReason string         `json:"fail_reason" gorm:"type:text"`
}

// TransferStatus 转账状态
type TransferStatus string

const (
	TransferStatusPending TransferStatus = "pending" // 待确认（网关结果未知，等待对账）
	TransferStatusSuccess TransferStatus = "success" // 成功
	TransferStatusFailed  TransferStatus = "failed"  // 失败
)

// TableName 自定义表名
func (TransferRecordModel) TableName() string {
	return "transfer_record"
}
