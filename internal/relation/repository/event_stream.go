package repository

import (
	"context"
	"encoding/json"

	"realtime_chat_service/internal/relation/domain"

	"github.com/segmentio/kafka-go"
)

// EventPublisher 將好友關係變更寫到下游 event stream
type EventPublisher interface {
	Publish(ctx context.Context, ev domain.RelationEvent) error
}

// MessageWriter kafka.Writer 的子集合, 方便測試替換
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type kafkaEventStream struct {
	writer MessageWriter
}

// NewKafkaEventStream create EventPublisher, 以 pair key 當 message key 讓同一對的事件落在同一個 partition
func NewKafkaEventStream(writer MessageWriter) EventPublisher {
	return &kafkaEventStream{writer: writer}
}

func (k *kafkaEventStream) Publish(ctx context.Context, ev domain.RelationEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(domain.PairKey(ev.RequesterID, ev.TargetID)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "op", Value: []byte(ev.Op)},
		},
	})
}
