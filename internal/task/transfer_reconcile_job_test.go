package task

import (
	"context"
	"testing"
	"time"

	"github.com/blues/fes/internal/config"
	"github.com/blues/fes/internal/gateway"
	"github.com/blues/fes/internal/model"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// setupTestDB 创建内存数据库并迁移表结构
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Silent),
		TranslateError: true,
		NamingStrategy: &schema.NamingStrategy{
			SingularTable: true,
		},
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	// 内存库的每个新连接都是独立数据库，必须收敛到单连接
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get underlying connection: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&model.ProjectModel{},
		&model.EscrowModel{},
		&model.MilestoneModel{},
		&model.TransferRecordModel{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		Gateway: config.GatewayConfig{Timeout: 2},
		Task:    config.TaskConfig{Interval: 60, PoolSize: 4, PendingEscrowTTL: 3600},
	}
}

// stubGateway 对账测试用网关
type stubGateway struct {
	transfers   map[string]*gateway.Transfer
	unreachable bool
}

func (s *stubGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*gateway.Order, error) {
	return nil, gateway.ErrUnreachable
}

func (s *stubGateway) VerifySignature(orderRef, paymentRef, signature string) bool {
	return false
}

func (s *stubGateway) TransferFunds(ctx context.Context, destination string, amount int64, currency, referenceId string) (*gateway.Transfer, error) {
	return nil, gateway.ErrUnreachable
}

func (s *stubGateway) GetTransferByReference(ctx context.Context, referenceId string) (*gateway.Transfer, error) {
	if s.unreachable {
		return nil, gateway.ErrUnreachable
	}
	if transfer, ok := s.transfers[referenceId]; ok {
		return transfer, nil
	}
	return nil, gateway.ErrNotFound
}

// seedPendingTransfer 造一个已完成里程碑和对应的待确认转账记录
func seedPendingTransfer(t *testing.T, db *gorm.DB) (*model.MilestoneModel, *model.TransferRecordModel) {
	t.Helper()
	now := time.Now()
	project := model.ProjectModel{
		Title: "测试项目", ClientId: 1, FreelancerId: 2,
		AgreedAmount: 10000, Currency: "INR", PayoutAccount: "acc_test_001",
	}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("Failed to seed project: %v", err)
	}

	escrow := model.EscrowModel{
		ProjectId: project.Id, Amount: 10000, Currency: "INR",
		OrderRef: "order_001", PaymentRef: "pay_001",
		Status: model.EscrowStatusActive, VerifiedAt: &now,
	}
	if err := db.Create(&escrow).Error; err != nil {
		t.Fatalf("Failed to seed escrow: %v", err)
	}

	milestone := model.MilestoneModel{
		ProjectId: project.Id, Title: "设计稿", Amount: 4000,
		IsCompleted: true, CompletedAt: &now,
	}
	if err := db.Create(&milestone).Error; err != nil {
		t.Fatalf("Failed to seed milestone: %v", err)
	}

	record := model.TransferRecordModel{
		ProjectId: project.Id, MilestoneId: milestone.Id,
		ReferenceId: "payout-test", Amount: 4000, Currency: "INR",
		Destination: "acc_test_001", Status: model.TransferStatusPending,
	}
	if err := db.Create(&record).Error; err != nil {
		t.Fatalf("Failed to seed transfer record: %v", err)
	}
	return &milestone, &record
}

func TestReconcileConfirmsProcessedTransfer(t *testing.T) {
	db := setupTestDB(t)
	milestone, record := seedPendingTransfer(t, db)

	// 网关侧已打款，本地确认丢失（写入前崩溃的场景）
	gw := &stubGateway{transfers: map[string]*gateway.Transfer{
		record.ReferenceId: {
			TransferRef: "transfer_001",
			ReferenceId: record.ReferenceId,
			Status:      gateway.TransferStatusProcessed,
		},
	}}

	job := NewTransferReconcileJob(db, testConfig(), gw)
	job.Execute()

	var updated model.MilestoneModel
	db.First(&updated, milestone.Id)
	if !updated.PaymentReleased {
		t.Error("Milestone should be released after reconciliation")
	}
	if updated.TransferRef != "transfer_001" {
		t.Errorf("Expected transfer ref transfer_001, got %s", updated.TransferRef)
	}

	var updatedRecord model.TransferRecordModel
	db.First(&updatedRecord, record.Id)
	if updatedRecord.Status != model.TransferStatusSuccess {
		t.Errorf("Expected success record, got %s", updatedRecord.Status)
	}
}

func TestReconcileMarksMissingTransferFailed(t *testing.T) {
	db := setupTestDB(t)
	milestone, record := seedPendingTransfer(t, db)

	// 记录已超过一个对账周期且网关无此转账
	old := time.Now().Add(-10 * time.Minute)
	db.Model(record).UpdateColumn("updated_at", old)

	gw := &stubGateway{transfers: map[string]*gateway.Transfer{}}
	job := NewTransferReconcileJob(db, testConfig(), gw)
	job.Execute()

	var updatedRecord model.TransferRecordModel
	db.First(&updatedRecord, record.Id)
	if updatedRecord.Status != model.TransferStatusFailed {
		t.Errorf("Expected failed record, got %s", updatedRecord.Status)
	}

	var updated model.MilestoneModel
	db.First(&updated, milestone.Id)
	if updated.PaymentReleased {
		t.Error("Milestone must not be released when transfer never happened")
	}
}

func TestReconcileSkipsFreshMissingTransfer(t *testing.T) {
	db := setupTestDB(t)
	_, record := seedPendingTransfer(t, db)

	// 记录还新鲜，可能有放款请求正在进行，不判死
	gw := &stubGateway{transfers: map[string]*gateway.Transfer{}}
	job := NewTransferReconcileJob(db, testConfig(), gw)
	job.Execute()

	var updatedRecord model.TransferRecordModel
	db.First(&updatedRecord, record.Id)
	if updatedRecord.Status != model.TransferStatusPending {
		t.Errorf("Fresh record should stay pending, got %s", updatedRecord.Status)
	}
}

func TestReconcileLeavesPendingWhenGatewayUnreachable(t *testing.T) {
	db := setupTestDB(t)
	_, record := seedPendingTransfer(t, db)

	gw := &stubGateway{unreachable: true}
	job := NewTransferReconcileJob(db, testConfig(), gw)
	job.Execute()

	var updatedRecord model.TransferRecordModel
	db.First(&updatedRecord, record.Id)
	if updatedRecord.Status != model.TransferStatusPending {
		t.Errorf("Record should stay pending when gateway unreachable, got %s", updatedRecord.Status)
	}
}

func TestEscrowReconcileExpiresStalePending(t *testing.T) {
	db := setupTestDB(t)

	project := model.ProjectModel{
		Title: "测试项目", ClientId: 1, FreelancerId: 2,
		AgreedAmount: 10000, Currency: "INR",
	}
	db.Create(&project)

	now := time.Now()
	stale := model.EscrowModel{
		ProjectId: project.Id, Amount: 10000, Currency: "INR",
		OrderRef: "order_stale", Status: model.EscrowStatusPending,
	}
	db.Create(&stale)
	db.Model(&stale).UpdateColumn("created_at", now.Add(-2*time.Hour))

	project2 := model.ProjectModel{
		Title: "测试项目2", ClientId: 1, FreelancerId: 3,
		AgreedAmount: 20000, Currency: "INR",
	}
	db.Create(&project2)
	active := model.EscrowModel{
		ProjectId: project2.Id, Amount: 20000, Currency: "INR",
		OrderRef: "order_active", PaymentRef: "pay_002",
		Status: model.EscrowStatusActive, VerifiedAt: &now,
	}
	db.Create(&active)
	db.Model(&active).UpdateColumn("created_at", now.Add(-2*time.Hour))

	job := NewEscrowReconcileJob(db, testConfig())
	job.Execute()

	var count int64
	db.Model(&model.EscrowModel{}).Where("id = ?", stale.Id).Count(&count)
	if count != 0 {
		t.Error("Stale pending escrow should be expired")
	}

	// 已生效的托管无论多旧都不会被清理
	db.Model(&model.EscrowModel{}).Where("id = ?", active.Id).Count(&count)
	if count != 1 {
		t.Error("Active escrow must never be expired")
	}
}
