package repository

import (
	"context"
	"encoding/json"

	"realtime_chat_service/internal/relation/domain"
	"realtime_chat_service/pkg/database"

	"github.com/streadway/amqp"
)

// ReconcileQueue 把 reconcile task 交給 worker
type ReconcileQueue interface {
	Enqueue(ctx context.Context, task domain.ReconcileTask) error
}

type rabbitReconcileQueue struct {
	rabbit database.RabbitRepo
	queue  string
}

// NewRabbitReconcileQueue create ReconcileQueue backed by a durable RabbitMQ queue
func NewRabbitReconcileQueue(rabbit database.RabbitRepo, queue string) (ReconcileQueue, error) {
	if err := database.DeclareDurableQueue(rabbit.GetRabbit(), queue); err != nil {
		return nil, err
	}
	return &rabbitReconcileQueue{rabbit: rabbit, queue: queue}, nil
}

func (q *rabbitReconcileQueue) Enqueue(ctx context.Context, task domain.ReconcileTask) error {
	body, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return q.rabbit.Publish("", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    task.PairKey,
		Body:         body,
	})
}
