package handler

import (
	"time"

	"github.com/blues/fes/internal/logic"
	"github.com/blues/fes/internal/model"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 请求模型

// CreateProjectRequest 创建项目请求
type CreateProjectRequest struct {
	Title         string `json:"title" binding:"required"`
	Description   string `json:"description"`
	ClientId      int64  `json:"client_id" binding:"required"`
	FreelancerId  int64  `json:"freelancer_id" binding:"required"`
	AgreedAmount  int64  `json:"agreed_amount" binding:"required"`
	Currency      string `json:"currency"`
	PayoutAccount string `json:"payout_account"`
}

// CreateEscrowRequest 创建托管请求
type CreateEscrowRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

// VerifyEscrowRequest 验证托管请求
type VerifyEscrowRequest struct {
	PaymentRef string `json:"payment_ref" binding:"required"`
	Signature  string `json:"signature" binding:"required"`
}

// AddMilestoneRequest 添加里程碑请求
type AddMilestoneRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Amount      int64      `json:"amount" binding:"required"`
	DueDate     *time.Time `json:"due_date"`
}

// ModifyMilestoneRequest 修改里程碑请求
type ModifyMilestoneRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Amount      *int64     `json:"amount"`
	DueDate     *time.Time `json:"due_date"`
}

// CompleteMilestoneRequest 完成里程碑请求
type CompleteMilestoneRequest struct {
	Notes string `json:"notes"`
}

// 响应模型

// MilestoneResponse 里程碑响应模型
type MilestoneResponse struct {
	Index           int        `json:"index"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Amount          int64      `json:"amount"`
	DueDate         *time.Time `json:"dueDate,omitempty"`
	IsCompleted     bool       `json:"isCompleted"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	CompletionNotes string     `json:"completionNotes,omitempty"`
	PaymentReleased bool       `json:"paymentReleased"`
	ReleasedAt      *time.Time `json:"releasedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// EscrowStatusResponse 托管状态响应模型
type EscrowStatusResponse struct {
	Status         string              `json:"status"`
	Amount         int64               `json:"amount"`
	Currency       string              `json:"currency"`
	OrderRef       string              `json:"orderRef,omitempty"`
	Milestones     []MilestoneResponse `json:"milestones"`
	CompletedCount int                 `json:"completedCount"`
	TotalCount     int                 `json:"totalCount"`
	ReleasedSum    int64               `json:"releasedSum"`
}

// ProjectResponse 项目响应模型
type ProjectResponse struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ClientId      int64     `json:"clientId"`
	FreelancerId  int64     `json:"freelancerId"`
	AgreedAmount  int64     `json:"agreedAmount"`
	Currency      string    `json:"currency"`
	PayoutAccount string    `json:"payoutAccount"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// 转换函数

// ToMilestoneResponse 将里程碑数据库模型转换为响应模型
func ToMilestoneResponse(milestone *model.MilestoneModel, index int) MilestoneResponse {
	return MilestoneResponse{
		Index:           index,
		Title:           milestone.Title,
		Description:     milestone.Description,
		Amount:          milestone.Amount,
		DueDate:         milestone.DueDate,
		IsCompleted:     milestone.IsCompleted,
		CompletedAt:     milestone.CompletedAt,
		CompletionNotes: milestone.CompletionNotes,
		PaymentReleased: milestone.PaymentReleased,
		ReleasedAt:      milestone.ReleasedAt,
		CreatedAt:       milestone.CreatedAt,
	}
}

// ToMilestoneResponseList 将里程碑数据库模型列表转换为响应模型列表
func ToMilestoneResponseList(milestones []model.MilestoneModel) []MilestoneResponse {
	result := make([]MilestoneResponse, len(milestones))
	for i, milestone := range milestones {
		result[i] = ToMilestoneResponse(&milestone, i)
	}
	return result
}

// ToEscrowStatusResponse 将托管状态汇总转换为响应模型
func ToEscrowStatusResponse(status *logic.EscrowStatusResult) EscrowStatusResponse {
	return EscrowStatusResponse{
		Status:         status.Status,
		Amount:         status.Amount,
		Currency:       status.Currency,
		OrderRef:       status.OrderRef,
		Milestones:     ToMilestoneResponseList(status.Milestones),
		CompletedCount: status.CompletedCount,
		TotalCount:     status.TotalCount,
		ReleasedSum:    status.ReleasedSum,
	}
}

// ToProjectResponse 将项目数据库模型转换为响应模型
func ToProjectResponse(project *model.ProjectModel) ProjectResponse {
	return ProjectResponse{
		ID:            project.Id,
		Title:         project.Title,
		Description:   project.Description,
		ClientId:      project.ClientId,
		FreelancerId:  project.FreelancerId,
		AgreedAmount:  project.AgreedAmount,
		Currency:      project.Currency,
		PayoutAccount: project.PayoutAccount,
		Status:        string(project.Status),
		CreatedAt:     project.CreatedAt,
		UpdatedAt:     project.UpdatedAt,
	}
}

// ToProjectResponseList 将项目数据库模型列表转换为响应模型列表
func ToProjectResponseList(projects []model.ProjectModel) []ProjectResponse {
	result := make([]ProjectResponse, len(projects))
	for i, project := range projects {
		result[i] = ToProjectResponse(&project)
	}
	return result
}
