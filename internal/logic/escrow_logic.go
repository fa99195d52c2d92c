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

// EscrowLogic 托管业务逻辑
type EscrowLogic struct {
	db *gorm.DB
	gw gateway.Gateway
}

// NewEscrowLogic 创建托管业务逻辑
func NewEscrowLogic(db *gorm.DB, gw gateway.Gateway) *EscrowLogic {
	return &EscrowLogic{db: db, gw: gw}
}

// CreateEscrowResult 创建托管的返回信息，调用方凭 OrderRef 完成网关侧付款
type CreateEscrowResult struct {
	OrderRef string `json:"order_ref"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// EscrowStatusResult 托管状态汇总
type EscrowStatusResult struct {
	Status         string                 `json:"status"` // none, pending_verification, active
	Amount         int64                  `json:"amount"`
	Currency       string                 `json:"currency"`
	OrderRef       string                 `json:"order_ref"`
	Milestones     []model.MilestoneModel `json:"milestones"`
	CompletedCount int                    `json:"completed_count"`
	TotalCount     int                    `json:"total_count"`
	ReleasedSum    int64                  `json:"released_sum"`
}

// CreateEscrow 创建托管：在网关创建订单并落一条待验证记录。
// 已有待验证或已生效的托管时返回 ErrEscrowExists，由调用方决定查看还是重置。
func (e *EscrowLogic) CreateEscrow(ctx context.Context, projectId int64, amount int64) (*CreateEscrowResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	mu := lockProject(projectId)
	mu.Lock()
	defer mu.Unlock()

	// 检查项目是否存在
	var project model.ProjectModel
	if err := e.db.First(&project, projectId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("查询项目失败: %w", err)
	}

	// 每个项目最多一条托管记录
	var existing model.EscrowModel
	err := e.db.Where("project_id = ?", projectId).First(&existing).Error
	if err == nil {
		return nil, ErrEscrowExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询托管记录失败: %w", err)
	}

	// 先创建网关订单，此时未动资金，失败直接返回
	receipt := fmt.Sprintf("escrow-%d", projectId)
	order, err := e.gw.CreateOrder(ctx, amount, project.Currency, receipt)
	if err != nil {
		logger.Error("Failed to create gateway order for project %d: %v", projectId, err)
		return nil, ErrGatewayFailure
	}

	escrow := model.EscrowModel{
		ProjectId: projectId,
		Amount:    amount,
		Currency:  project.Currency,
		OrderRef:  order.OrderRef,
		Status:    model.EscrowStatusPending,
	}
	if err := e.db.Create(&escrow).Error; err != nil {
		// project_id 唯一索引兜底并发下的重复创建
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEscrowExists
		}
		return nil, fmt.Errorf("保存托管记录失败: %w", err)
	}

	logger.Info("Created escrow for project %d, order %s, amount %d", projectId, order.OrderRef, amount)

	return &CreateEscrowResult{
		OrderRef: order.OrderRef,
		Amount:   escrow.Amount,
		Currency: escrow.Currency,
	}, nil
}

// VerifyEscrow 验证支付回调并使托管生效。
// 幂等：同一支付号重复验证已生效的托管直接返回成功。
func (e *EscrowLogic) VerifyEscrow(projectId int64, paymentRef, signature string) error {
	if paymentRef == "" {
		return ErrVerificationFailed
	}

	mu := lockProject(projectId)
	mu.Lock()
	defer mu.Unlock()

	var escrow model.EscrowModel
	if err := e.db.Where("project_id = ?", projectId).First(&escrow).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEscrowNotFound
		}
		return fmt.Errorf("查询托管记录失败: %w", err)
	}

	// 重复回调或重复提交
	if escrow.Status == model.EscrowStatusActive {
		if escrow.PaymentRef == paymentRef {
			return nil
		}
		return ErrVerificationFailed
	}

	// 签名不匹配时不写任何状态，托管保持待验证
	if !e.gw.VerifySignature(escrow.OrderRef, paymentRef, signature) {
		logger.Warn("Signature mismatch for project %d, order %s", projectId, escrow.OrderRef)
		return ErrVerificationFailed
	}

	now := time.Now()
	res := e.db.Model(&model.EscrowModel{}).
		Where("id = ? AND status = ?", escrow.Id, model.EscrowStatusPending).
		Updates(map[string]interface{}{
			"status":      model.EscrowStatusActive,
			"payment_ref": paymentRef,
			"verified_at": &now,
		})
	if res.Error != nil {
		return fmt.Errorf("更新托管状态失败: %w", res.Error)
	}

	logger.Info("Escrow for project %d verified, payment %s", projectId, paymentRef)
	return nil
}

// ResetEscrow 重置待验证的托管，允许重新创建。已生效的托管不可重置。
func (e *EscrowLogic) ResetEscrow(projectId int64) error {
	mu := lockProject(projectId)
	mu.Lock()
	defer mu.Unlock()

	res := e.db.Where("project_id = ? AND status = ?", projectId, model.EscrowStatusPending).
		Delete(&model.EscrowModel{})
	if res.Error != nil {
		return fmt.Errorf("删除托管记录失败: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		logger.Info("Reset pending escrow for project %d", projectId)
		return nil
	}

	// 没删到：区分"不存在"和"已生效"
	var escrow model.EscrowModel
	if err := e.db.Where("project_id = ?", projectId).First(&escrow).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEscrowNotFound
		}
		return fmt.Errorf("查询托管记录失败: %w", err)
	}
	return ErrInvalidState
}

// GetEscrowStatus 获取托管状态汇总，纯读操作
func (e *EscrowLogic) GetEscrowStatus(projectId int64) (*EscrowStatusResult, error) {
	var project model.ProjectModel
	if err := e.db.First(&project, projectId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("查询项目失败: %w", err)
	}

	result := &EscrowStatusResult{
		Status:   "none",
		Currency: project.Currency,
	}

	var escrow model.EscrowModel
	err := e.db.Where("project_id = ?", projectId).First(&escrow).Error
	if err == nil {
		result.Status = string(escrow.Status)
		result.Amount = escrow.Amount
		result.Currency = escrow.Currency
		result.OrderRef = escrow.OrderRef
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("查询托管记录失败: %w", err)
	}

	var milestones []model.MilestoneModel
	if err := e.db.Where("project_id = ?", projectId).Order("id ASC").Find(&milestones).Error; err != nil {
		return nil, fmt.Errorf("查询里程碑失败: %w", err)
	}

	result.Milestones = milestones
	result.TotalCount = len(milestones)
	for _, m := range milestones {
		if m.IsCompleted {
			result.CompletedCount++
		}
		if m.PaymentReleased {
			result.ReleasedSum += m.Amount
		}
	}

	return result, nil
}
