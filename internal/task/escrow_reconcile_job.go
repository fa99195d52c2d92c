package task

import (
	"time"

	"github.com/blues/fes/internal/config"
	"github.com/blues/fes/internal/logger"
	"github.com/blues/fes/internal/model"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// EscrowReconcileJob 托管过期清理任务。
// 超时仍未验证的托管记录对应被放弃的付款会话，清掉它们让项目可以重新入金。
// 只处理待验证记录，已生效的托管永远不会被此任务触碰。
type EscrowReconcileJob struct {
	db     *gorm.DB
	config *config.Config
}

// NewEscrowReconcileJob 创建托管过期清理任务
func NewEscrowReconcileJob(db *gorm.DB, cfg *config.Config) *EscrowReconcileJob {
	return &EscrowReconcileJob{
		db:     db,
		config: cfg,
	}
}

// GetName 获取任务名称
func (j *EscrowReconcileJob) GetName() string {
	return "escrow_expirer"
}

// GetSchedule 获取调度配置
func (j *EscrowReconcileJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *EscrowReconcileJob) Execute() {
	ttl := time.Duration(j.config.Task.PendingEscrowTTL) * time.Second
	if ttl <= 0 {
		return
	}
	cutoff := time.Now().Add(-ttl)

	res := j.db.Where("status = ? AND created_at < ?", model.EscrowStatusPending, cutoff).
		Delete(&model.EscrowModel{})
	if res.Error != nil {
		logger.Error("Failed to expire pending escrows: %v", res.Error)
		return
	}
	if res.RowsAffected > 0 {
		logger.Info("Expired %d stale pending escrows", res.RowsAffected)
	}
}
