package task

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/blues/fes/internal/config"
	"github.com/blues/fes/internal/gateway"
	"github.com/blues/fes/internal/logger"
	"github.com/blues/fes/internal/logic"
	"github.com/blues/fes/internal/model"
	"github.com/go-co-op/gocron/v2"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// TransferReconcileJob 转账对账任务。
// 把结果未知的转账记录和网关侧的权威状态对齐：网关已打款的补齐里程碑，
// 网关无记录且已超过一个对账周期的标记失败，让调用方可以重试。
type TransferReconcileJob struct {
	db             *gorm.DB
	config         *config.Config
	gw             gateway.Gateway
	milestoneLogic *logic.MilestoneLogic
}

// NewTransferReconcileJob 创建转账对账任务
func NewTransferReconcileJob(db *gorm.DB, cfg *config.Config, gw gateway.Gateway) *TransferReconcileJob {
	return &TransferReconcileJob{
		db:             db,
		config:         cfg,
		gw:             gw,
		milestoneLogic: logic.NewMilestoneLogic(db, gw),
	}
}

// GetName 获取任务名称
func (j *TransferReconcileJob) GetName() string {
	return "transfer_reconciler"
}

// GetSchedule 获取调度配置
func (j *TransferReconcileJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *TransferReconcileJob) Execute() {
	logger.Info("Starting transfer reconciliation task")

	// 查找待确认的转账记录
	var records []model.TransferRecordModel
	err := j.db.Where("status = ?", model.TransferStatusPending).Find(&records).Error
	if err != nil {
		logger.Error("Failed to fetch pending transfer records: %v", err)
		return
	}
	if len(records) == 0 {
		return
	}

	poolSize := j.config.Task.PoolSize
	if poolSize <= 0 {
		poolSize = 8
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		logger.Error("Failed to create reconcile pool: %v", err)
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := range records {
		record := records[i]
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			j.reconcile(record)
		})
		if submitErr != nil {
			wg.Done()
			logger.Error("Failed to submit reconcile task for record %d: %v", record.Id, submitErr)
		}
	}
	wg.Wait()

	logger.Info("Transfer reconciliation completed, checked %d records", len(records))
}

// reconcile 对账单条转账记录
func (j *TransferReconcileJob) reconcile(record model.TransferRecordModel) {
	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(j.config.Gateway.Timeout)*time.Second)
	defer cancel()

	transfer, err := j.gw.GetTransferByReference(ctx, record.ReferenceId)
	switch {
	case err == nil:
		if transfer.Status == gateway.TransferStatusProcessed {
			// 网关已打款，补齐本地状态
			if err := j.milestoneLogic.ConfirmTransfer(&record, transfer.TransferRef); err != nil {
				logger.Error("Failed to confirm transfer %s: %v", record.ReferenceId, err)
				return
			}
			logger.Info("Reconciled transfer %s as success, gateway ref %s",
				record.ReferenceId, transfer.TransferRef)
			return
		}
		// 网关侧已拒绝或冲正
		j.markFailed(&record, "gateway status: "+transfer.Status)

	case errors.Is(err, gateway.ErrNotFound):
		// 网关无此转账，说明当初的调用没有生效。超过一个对账周期再判死，
		// 避免和正在进行的放款请求竞争
		age := time.Since(record.UpdatedAt)
		if age > time.Duration(j.config.Task.Interval)*time.Second {
			j.markFailed(&record, "transfer not found at gateway")
		}

	default:
		// 网关不可达，下一轮再试
		logger.Warn("Gateway unreachable while reconciling %s: %v", record.ReferenceId, err)
	}
}

// markFailed 标记转账记录失败
func (j *TransferReconcileJob) markFailed(record *model.TransferRecordModel, reason string) {
	res := j.db.Model(record).
		Where("status = ?", model.TransferStatusPending).
		Updates(map[string]interface{}{
			"status":      model.TransferStatusFailed,
			"fail_reason": reason,
		})
	if res.Error != nil {
		logger.Error("Failed to mark transfer %s failed: %v", record.ReferenceId, res.Error)
		return
	}
	if res.RowsAffected > 0 {
		logger.Warn("Reconciled transfer %s as failed: %s", record.ReferenceId, reason)
	}
}
