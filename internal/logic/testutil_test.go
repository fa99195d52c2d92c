package logic

import (
	"context"
	"fmt"
	"sync"
	"testing"

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

// createTestProject 创建测试项目
func createTestProject(t *testing.T, db *gorm.DB) *model.ProjectModel {
	t.Helper()
	project := model.ProjectModel{
		Title:         "测试项目",
		ClientId:      1,
		FreelancerId:  2,
		AgreedAmount:  10000,
		Currency:      "INR",
		PayoutAccount: "acc_test_001",
		Status:        model.ProjectStatusActive,
	}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("Failed to create test project: %v", err)
	}
	return &project
}

const testSecret = "test-secret"

// fakeGateway 测试用网关，行为可按用例配置
type fakeGateway struct {
	mu sync.Mutex

	orderCount    int
	transferCount int

	rejectTransfer bool // 网关明确拒绝转账
	unreachable    bool // 网关不可达，结果未知

	// 已执行的转账，按幂等键索引
	transfers map[string]*gateway.Transfer
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{transfers: make(map[string]*gateway.Transfer)}
}

func (f *fakeGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*gateway.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unreachable {
		return nil, gateway.ErrUnreachable
	}
	f.orderCount++
	return &gateway.Order{
		OrderRef: fmt.Sprintf("order_%03d", f.orderCount),
		Amount:   amount,
		Currency: currency,
		Receipt:  receipt,
	}, nil
}

func (f *fakeGateway) VerifySignature(orderRef, paymentRef, signature string) bool {
	return gateway.Sign(orderRef, paymentRef, testSecret) == signature
}

func (f *fakeGateway) TransferFunds(ctx context.Context, destination string, amount int64, currency, referenceId string) (*gateway.Transfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unreachable {
		return nil, gateway.ErrUnreachable
	}
	if f.rejectTransfer {
		return nil, &gateway.APIError{StatusCode: 400, Code: "insufficient_funds", Desc: "insufficient funds"}
	}
	f.transferCount++
	transfer := &gateway.Transfer{
		TransferRef: fmt.Sprintf("transfer_%03d", f.transferCount),
		ReferenceId: referenceId,
		Amount:      amount,
		Currency:    currency,
		Status:      gateway.TransferStatusProcessed,
	}
	f.transfers[referenceId] = transfer
	return transfer, nil
}

func (f *fakeGateway) GetTransferByReference(ctx context.Context, referenceId string) (*gateway.Transfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unreachable {
		return nil, gateway.ErrUnreachable
	}
	if transfer, ok := f.transfers[referenceId]; ok {
		return transfer, nil
	}
	return nil, gateway.ErrNotFound
}

// TransferCount 已执行的转账次数
func (f *fakeGateway) TransferCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.transferCount
}
