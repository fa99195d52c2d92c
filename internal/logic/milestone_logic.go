package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blues/fes/internal/gateway"
	"github.com/blues/fes/internal/logger"
	"github.com/blues/fes/internal/model"
	"gorm.io/gorm"
)

// MilestoneLogic 里程碑业务逻辑
type MilestoneLogic struct {
	db *gorm.DB
	gw gateway.Gateway
}

// NewMilestoneLogic 创建里程碑业务逻辑
func NewMilestoneLogic(db *gorm.DB, gw gateway.Gateway) *MilestoneLogic {
	return &MilestoneLogic{db: db, gw: gw}
}

// AddMilestone 添加里程碑。只有接单方可以添加，项目放过款后里程碑列表冻结。
// 不要求托管已存在，里程碑可以先于入金定义。
func (m *MilestoneLogic) AddMilestone(projectId, actorId int64, title, description string, amount int64, dueDate *time.Time) (*model.MilestoneModel, error) {
	if title == "" {
		return nil, errors.New("里程碑标题不能为空")
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	mu := lockProject(projectId)
	mu.Lock()
	defer mu.Unlock()

	var project model.ProjectModel
	if err := m.db.First(&project, projectId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("查询项目失败: %w", err)
	}
	if project.FreelancerId != actorId {
		return nil, ErrForbidden
	}

	released, err := m.hasReleasedPayment(projectId)
	if err != nil {
		return nil, err
	}
	if released {
		return nil, ErrInvalidState
	}

	milestone := model.MilestoneModel{
		ProjectId:   projectId,
		Title:       title,
		Description: description,
		Amount:      amount,
		DueDate:     dueDate,
	}
	if err := m.db.Create(&milestone).Error; err != nil {
		return nil, fmt.Errorf("保存里程碑失败: %w", err)
	}

	return &milestone, nil
}

// ModifyMilestone 修改里程碑，只允许修改未完成的里程碑的特定字段
func (m *MilestoneLogic) ModifyMilestone(projectId int64, index int, updates map[string]interface{}) error {
	mu := lockProject(projectId)
	mu.Lock()
	defer mu.Unlock()

	milestone, err := m.resolveMilestone(projectId, index)
	if err != nil {
		return err
	}

	// 完成后的里程碑是不可变历史
	if milestone.IsCompleted {
		return ErrInvalidState
	}
	released, err := m.hasReleasedPayment(projectId)
	if err != nil {
		return err
	}
	if released {
		return ErrInvalidState
	}

	// 只允许更新特定字段
	allowedFields := []string{"title", "description", "amount", "due_date"}
	for key := range updates {
		if !contains(allowedFields, key) {
			delete(updates, key)
		}
	}
	if len(updates) == 0 {
		return errors.New("没有要更新的字段")
	}

	if title, ok := updates["title"]; ok && title == "" {
		return errors.New("里程碑标题不能为空")
	}
	if amount, ok := updates["amount"]; ok {
		if v, ok := amount.(int64); !ok || v <= 0 {
			return ErrInvalidAmount
		}
	}

	if err := m.db.Model(milestone).Updates(updates).Error; err != nil {
		return fmt.Errorf("更新里程碑失败: %w", err)
	}
	return nil
}

// RemoveMilestone 删除未完成的里程碑
func (m *MilestoneLogic) RemoveMilestone(projectId int64, index int) error {
	mu := lockProject(projectId)
	mu.Lock()
	defer mu.Unlock()

	milestone, err := m.resolveMilestone(projectId, index)
	if err != nil {
		return err
	}
	if milestone.IsCompleted {
		return ErrInvalidState
	}
	released, err := m.hasReleasedPayment(projectId)
	if err != nil {
		return err
	}
	if released {
		return ErrInvalidState
	}

	if err := m.db.Delete(milestone).Error; err != nil {
		return fmt.Errorf("删除里程碑失败: %w", err)
	}
	return nil
}

// CompleteMilestone 标记里程碑完成，不动资金
func (m *MilestoneLogic) CompleteMilestone(projectId int64, index int, notes string) error {
	mu := lockProject(projectId)
	mu.Lock()
	defer mu.Unlock()

	milestone, err := m.resolveMilestone(projectId, index)
	if err != nil {
		return err
	}
	if milestone.IsCompleted {
		return ErrInvalidState
	}

	now := time.Now()
	if err := m.db.Model(milestone).Updates(map[string]interface{}{
		"is_completed":     true,
		"completed_at":     &now,
		"completion_notes": notes,
	}).Error; err != nil {
		return fmt.Errorf("更新里程碑失败: %w", err)
	}

	logger.Info("Milestone %d of project %d marked completed", milestone.Id, projectId)
	return nil
}

// ReleaseMilestonePayment 放款：校验前置条件后调用网关转账并标记里程碑已放款。
// 网关结果未知时保留待确认的转账记录，由对账任务收敛，避免重复打款。
func (m *MilestoneLogic) ReleaseMilestonePayment(ctx context.Context, projectId int64, index int) error {
	mu := lockProject(projectId)
	mu.Lock()
	defer mu.Unlock()

	milestone, err := m.resolveMilestone(projectId, index)
	if err != nil {
		return err
	}
	if !milestone.IsCompleted || milestone.PaymentReleased {
		return ErrInvalidState
	}

	// 托管必须已生效，否则不发起任何网关调用
	var escrow model.EscrowModel
	if err := m.db.Where("project_id = ?", projectId).First(&escrow).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidState
		}
		return fmt.Errorf("查询托管记录失败: %w", err)
	}
	if escrow.Status != model.EscrowStatusActive {
		return ErrInvalidState
	}

	var project model.ProjectModel
	if err := m.db.First(&project, projectId).Error; err != nil {
		return fmt.Errorf("查询项目失败: %w", err)
	}

	// 幂等键保证同一里程碑在网关侧最多一笔转账
	referenceId := fmt.Sprintf("payout-%d-%d", projectId, milestone.Id)

	var record model.TransferRecordModel
	err = m.db.Where("reference_id = ?", referenceId).First(&record).Error
	switch {
	case err == nil:
		switch record.Status {
		case model.TransferStatusSuccess:
			// 网关已打款但本地标记丢失，补齐里程碑状态即可
			return m.finalizeTransfer(&record, record.TransferRef)
		case model.TransferStatusPending:
			return ErrGatewayPending
		case model.TransferStatusFailed:
			// 上次明确失败，重置后重试
			if err := m.db.Model(&record).Updates(map[string]interface{}{
				"status":      model.TransferStatusPending,
				"fail_reason": "",
			}).Error; err != nil {
				return fmt.Errorf("更新转账记录失败: %w", err)
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		record = model.TransferRecordModel{
			ProjectId:   projectId,
			MilestoneId: milestone.Id,
			ReferenceId: referenceId,
			Amount:      milestone.Amount,
			Currency:    escrow.Currency,
			Destination: project.PayoutAccount,
			Status:      model.TransferStatusPending,
		}
		if err := m.db.Create(&record).Error; err != nil {
			return fmt.Errorf("保存转账记录失败: %w", err)
		}
	default:
		return fmt.Errorf("查询转账记录失败: %w", err)
	}

	transfer, err := m.gw.TransferFunds(ctx, record.Destination, record.Amount, record.Currency, referenceId)
	if err != nil {
		if errors.Is(err, gateway.ErrUnreachable) {
			// 结果未知，记录保持待确认，等对账任务查询网关
			logger.Warn("Transfer %s outcome unknown, awaiting reconciliation", referenceId)
			return ErrGatewayPending
		}
		// 网关明确拒绝，本地不变更里程碑，调用方可重试
		m.db.Model(&record).Updates(map[string]interface{}{
			"status":      model.TransferStatusFailed,
			"fail_reason": err.Error(),
		})
		logger.Error("Transfer %s rejected by gateway: %v", referenceId, err)
		return ErrGatewayFailure
	}

	if err := m.finalizeTransfer(&record, transfer.TransferRef); err != nil {
		// 网关已打款，本地写入失败。记录仍为待确认，对账任务会补齐
		logger.Error("Transfer %s succeeded but local finalize failed: %v", referenceId, err)
		return ErrGatewayPending
	}

	logger.Info("Released payment for milestone %d of project %d, transfer %s",
		milestone.Id, projectId, transfer.TransferRef)
	return nil
}

// ConfirmTransfer 确认一笔网关已执行的转账，供对账任务使用
func (m *MilestoneLogic) ConfirmTransfer(record *model.TransferRecordModel, transferRef string) error {
	mu := lockProject(record.ProjectId)
	mu.Lock()
	defer mu.Unlock()

	return m.finalizeTransfer(record, transferRef)
}

// GetProjectMilestones 获取项目里程碑列表，按创建顺序
func (m *MilestoneLogic) GetProjectMilestones(projectId int64) ([]model.MilestoneModel, error) {
	var milestones []model.MilestoneModel
	if err := m.db.Where("project_id = ?", projectId).Order("id ASC").Find(&milestones).Error; err != nil {
		return nil, fmt.Errorf("查询里程碑失败: %w", err)
	}
	return milestones, nil
}

// finalizeTransfer 在一个事务里标记里程碑已放款并确认转账记录。
// 里程碑更新以 payment_released = false 为条件，重复确认不会二次生效。
func (m *MilestoneLogic) finalizeTransfer(record *model.TransferRecordModel, transferRef string) error {
	now := time.Now()
	return m.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.MilestoneModel{}).
			Where("id = ? AND payment_released = ?", record.MilestoneId, false).
			Updates(map[string]interface{}{
				"payment_released": true,
				"released_at":      &now,
				"transfer_ref":     transferRef,
			})
		if res.Error != nil {
			return res.Error
		}

		return tx.Model(record).Updates(map[string]interface{}{
			"status":       model.TransferStatusSuccess,
			"transfer_ref": transferRef,
		}).Error
	})
}

// resolveMilestone 按列表位置定位里程碑（列表按创建顺序）
func (m *MilestoneLogic) resolveMilestone(projectId int64, index int) (*model.MilestoneModel, error) {
	var milestones []model.MilestoneModel
	if err := m.db.Where("project_id = ?", projectId).Order("id ASC").Find(&milestones).Error; err != nil {
		return nil, fmt.Errorf("查询里程碑失败: %w", err)
	}
	if index < 0 || index >= len(milestones) {
		return nil, ErrMilestoneNotFound
	}
	return &milestones[index], nil
}

// hasReleasedPayment 项目是否已有放款，放款后里程碑列表冻结
func (m *MilestoneLogic) hasReleasedPayment(projectId int64) (bool, error) {
	var count int64
	err := m.db.Model(&model.MilestoneModel{}).
		Where("project_id = ? AND payment_released = ?", projectId, true).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("查询放款状态失败: %w", err)
	}
	return count > 0, nil
}

// contains 检查切片是否包含指定元素
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
