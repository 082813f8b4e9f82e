package app

import (
	"context"
	"encoding/json"
	"time"

	"realtime_chat_service/internal/relation/domain"
	"realtime_chat_service/internal/relation/repository"
	"realtime_chat_service/pkg/logger"
	"realtime_chat_service/pkg/metrics"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// SideApplier 補寫好友關係的單邊
type SideApplier interface {
	ApplySide(ctx context.Context, op domain.EdgeOp, side domain.EdgeSide) (bool, error)
}

// TaskResult 處理一個 reconcile task 的結果
type TaskResult string

const (
	// TaskResultResolved 已補寫或已是目標狀態
	TaskResultResolved TaskResult = "resolved"
	// TaskResultRetry 失敗, 之後重試
	TaskResultRetry TaskResult = "retry"
	// TaskResultFailed 超過重試次數
	TaskResultFailed TaskResult = "failed"
	// TaskResultSkipped journal 顯示已處理過
	TaskResultSkipped TaskResult = "skipped"
)

// ReconcileWorker 消費 reconcile queue, 把只寫了一半的好友關係補齊
type ReconcileWorker struct {
	applier     SideApplier
	journal     repository.ReconcileRepository
	queue       repository.ReconcileQueue
	maxAttempts int
	retryDelay  time.Duration
}

// NewReconcileWorker create ReconcileWorker
func NewReconcileWorker(applier SideApplier, journal repository.ReconcileRepository, queue repository.ReconcileQueue, maxAttempts int) *ReconcileWorker {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &ReconcileWorker{
		applier:     applier,
		journal:     journal,
		queue:       queue,
		maxAttempts: maxAttempts,
		retryDelay:  2 * time.Second,
	}
}

// StartConsumer 開始消費 queue, ctx 結束時返回
func (w *ReconcileWorker) StartConsumer(ctx context.Context, ch *amqp.Channel, queueName string) error {
	msgs, err := ch.Consume(
		queueName,
		"",    // consumer tag，留空由系統分配
		false, // autoAck 為 false，使用手動確認
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // arguments
	)
	if err != nil {
		return err
	}
	logger.Log.Info("reconcile consumer started", zap.String("queue", queueName))
	w.Consume(ctx, msgs)
	return nil
}

// Consume 處理 deliveries 直到 channel 關閉或 ctx 結束
func (w *ReconcileWorker) Consume(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				logger.Log.Info("reconcile delivery channel closed")
				return
			}
			w.handleDelivery(ctx, d)
		case <-ctx.Done():
			logger.Log.Info("reconcile consumer stopped")
			return
		}
	}
}

func (w *ReconcileWorker) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var task domain.ReconcileTask
	if err := json.Unmarshal(d.Body, &task); err != nil {
		// 格式錯誤重送也不會成功
		logger.Log.Error("decode reconcile task", zap.Error(err))
		if err := d.Reject(false); err != nil {
			logger.Log.Warn("reject delivery", zap.Error(err))
		}
		return
	}

	switch w.Handle(ctx, task) {
	case TaskResultRetry:
		select {
		case <-time.After(w.retryDelay):
		case <-ctx.Done():
		}
		w.retry(ctx, d, task)
	default:
		if err := d.Ack(false); err != nil {
			logger.Log.Warn("ack delivery", zap.Error(err))
		}
	}
}

// retry 有 journal 的 task 次數記在 journal, 原封不動 requeue 即可
// 沒有 journal row 的 task 次數只在 body 裡, 要帶著 Attempts+1 重新發布
func (w *ReconcileWorker) retry(ctx context.Context, d amqp.Delivery, task domain.ReconcileTask) {
	if task.ID == 0 && w.queue != nil {
		task.Attempts++
		err := w.queue.Enqueue(ctx, task)
		if err == nil {
			if err := d.Ack(false); err != nil {
				logger.Log.Warn("ack delivery", zap.Error(err))
			}
			return
		}
		logger.Log.Warn("republish reconcile task", zap.String("pair", task.PairKey), zap.Error(err))
	}
	if err := d.Nack(false, true); err != nil {
		logger.Log.Warn("nack delivery", zap.Error(err))
	}
}

// Handle 處理單一 task
func (w *ReconcileWorker) Handle(ctx context.Context, task domain.ReconcileTask) TaskResult {
	attempts := task.Attempts
	if w.journal != nil && task.ID != 0 {
		row, err := w.journal.GetByID(ctx, task.ID)
		if err != nil {
			logger.Log.Warn("load reconcile task", zap.Uint("id", task.ID), zap.Error(err))
			return w.count(TaskResultRetry)
		}
		if row.Status != domain.TaskPending {
			return w.count(TaskResultSkipped)
		}
		attempts = row.Attempts
	}

	side := domain.EdgeSide{UserID: task.UserID, FriendID: task.FriendID}
	wrote, err := w.applier.ApplySide(ctx, task.Op, side)
	if err == nil {
		logger.Log.Info("reconcile task resolved",
			zap.String("pair", task.PairKey), zap.String("op", string(task.Op)), zap.Bool("wrote", wrote))
		if w.journal != nil && task.ID != 0 {
			if err := w.journal.MarkResolved(ctx, task.ID); err != nil {
				logger.Log.Warn("mark reconcile task resolved", zap.Uint("id", task.ID), zap.Error(err))
			}
		}
		return w.count(TaskResultResolved)
	}

	failed := attempts+1 >= w.maxAttempts
	logger.Log.Error("reconcile task attempt failed",
		zap.String("pair", task.PairKey), zap.Int("attempt", attempts+1), zap.Bool("giveUp", failed), zap.Error(err))
	if w.journal != nil && task.ID != 0 {
		if markErr := w.journal.MarkAttempt(ctx, task.ID, err.Error(), failed); markErr != nil {
			logger.Log.Warn("mark reconcile attempt", zap.Uint("id", task.ID), zap.Error(markErr))
		}
	}
	if failed {
		return w.count(TaskResultFailed)
	}
	return w.count(TaskResultRetry)
}

// Sweep 把太久沒處理的 pending task 重新排入 queue
func (w *ReconcileWorker) Sweep(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	if w.journal == nil || w.queue == nil {
		return 0, nil
	}
	tasks, err := w.journal.FindPending(ctx, time.Now().Add(-olderThan), limit)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, task := range tasks {
		if err := w.queue.Enqueue(ctx, task); err != nil {
			logger.Log.Warn("re-enqueue reconcile task", zap.Uint("id", task.ID), zap.Error(err))
			continue
		}
		n++
	}
	if n > 0 {
		logger.Log.Info("reconcile sweep re-enqueued tasks", zap.Int("count", n))
	}
	return n, nil
}

// RunSweeper 每 interval 執行一次 Sweep
func (w *ReconcileWorker) RunSweeper(ctx context.Context, interval, olderThan time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if _, err := w.Sweep(ctx, olderThan, 100); err != nil {
				logger.Log.Warn("reconcile sweep", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

func (w *ReconcileWorker) count(r TaskResult) TaskResult {
	metrics.ReconcileTasks.WithLabelValues(string(r)).Inc()
	return r
}
