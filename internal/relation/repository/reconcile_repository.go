package repository

import (
	"context"
	"time"

	"realtime_chat_service/internal/relation/domain"

	"gorm.io/gorm"
)

// ReconcileRepository 半套好友關係的 journal
type ReconcileRepository interface {
	AutoMigrate() error
	Create(ctx context.Context, task *domain.ReconcileTask) error
	GetByID(ctx context.Context, id uint) (*domain.ReconcileTask, error)
	MarkResolved(ctx context.Context, id uint) error
	// MarkAttempt 記錄一次失敗, failed=true 表示放棄
	MarkAttempt(ctx context.Context, id uint, lastErr string, failed bool) error
	FindPending(ctx context.Context, olderThan time.Time, limit int) ([]domain.ReconcileTask, error)
}

type reconcileRepo struct {
	db *gorm.DB
}

// NewReconcileRepo create ReconcileRepository
func NewReconcileRepo(db *gorm.DB) ReconcileRepository {
	return &reconcileRepo{db: db}
}

// AutoMigrate 建立 reconcile_tasks 表
func (r *reconcileRepo) AutoMigrate() error {
	return r.db.AutoMigrate(&domain.ReconcileTask{})
}

func (r *reconcileRepo) Create(ctx context.Context, task *domain.ReconcileTask) error {
	if task.Status == "" {
		task.Status = domain.TaskPending
	}
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *reconcileRepo) GetByID(ctx context.Context, id uint) (*domain.ReconcileTask, error) {
	var task domain.ReconcileTask
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *reconcileRepo) MarkResolved(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&domain.ReconcileTask{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": domain.TaskResolved, "last_error": ""}).Error
}

func (r *reconcileRepo) MarkAttempt(ctx context.Context, id uint, lastErr string, failed bool) error {
	updates := map[string]interface{}{
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": lastErr,
	}
	if failed {
		updates["status"] = domain.TaskFailed
	}
	return r.db.WithContext(ctx).Model(&domain.ReconcileTask{}).Where("id = ?", id).Updates(updates).Error
}

// FindPending 找出 updated_at 早於 olderThan 的 pending task, 給 sweep 重新排入 queue
func (r *reconcileRepo) FindPending(ctx context.Context, olderThan time.Time, limit int) ([]domain.ReconcileTask, error) {
	var tasks []domain.ReconcileTask
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", domain.TaskPending, olderThan).
		Order("id").
		Limit(limit).
		Find(&tasks).Error
	return tasks, err
}
