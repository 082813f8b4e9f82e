package repository

import (
	"context"
	"fmt"

	"realtime_chat_service/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository definition chat message store
type MessageRepository interface {
	EnsureIndexes(ctx context.Context) error
	Insert(ctx context.Context, msg *domain.Message) error
	// FindDirect a 與 b 之間的訊息, 依時間升冪; limit <= 0 表示全部
	FindDirect(ctx context.Context, a, b string, limit int) ([]domain.Message, error)
	FindGroup(ctx context.Context, groupID string, limit int) ([]domain.Message, error)
	// LatestDirect userID 每個 direct 對話的最新一則訊息
	LatestDirect(ctx context.Context, userID string) ([]domain.Message, error)
	// LatestByGroups 每個群組的最新一則訊息, 沒有訊息的群組不會出現
	LatestByGroups(ctx context.Context, groupIDs []string) ([]domain.Message, error)
}

type messageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository create a MessageRepository
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{
		coll: db.Collection("messages"),
	}
}

func (r *messageRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "receiver_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

// Insert 寫入一筆訊息
func (r *messageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	_, err := r.coll.InsertOne(ctx, msg)
	return err
}

func (r *messageRepository) FindDirect(ctx context.Context, a, b string, limit int) ([]domain.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": a, "receiver_id": b},
		bson.M{"sender_id": b, "receiver_id": a},
	}}
	return r.findHistory(ctx, filter, limit)
}

func (r *messageRepository) FindGroup(ctx context.Context, groupID string, limit int) ([]domain.Message, error) {
	return r.findHistory(ctx, bson.M{"group_id": groupID}, limit)
}

// findHistory 取最新的 limit 筆, 再轉成時間升冪
func (r *messageRepository) findHistory(ctx context.Context, filter bson.M, limit int) ([]domain.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var msgs []domain.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *messageRepository) LatestDirect(ctx context.Context, userID string) ([]domain.Message, error) {
	pipeline := mongo.Pipeline{
		// 1. 我送出或收到的 direct 訊息
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "receiver_id", Value: bson.D{{Key: "$exists", Value: true}, {Key: "$ne", Value: ""}}},
			{Key: "$or", Value: bson.A{
				bson.D{{Key: "sender_id", Value: userID}},
				bson.D{{Key: "receiver_id", Value: userID}},
			}},
		}}},
		// 2. 新的在前
		bson.D{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		// 3. 依對方分組, 取第一則
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$eq", Value: bson.A{"$sender_id", userID}}},
				"$receiver_id",
				"$sender_id",
			}}}},
			{Key: "message", Value: bson.D{{Key: "$first", Value: "$$ROOT"}}},
		}}},
		bson.D{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$message"}}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}}}},
	}
	return r.aggregate(ctx, pipeline)
}

func (r *messageRepository) LatestByGroups(ctx context.Context, groupIDs []string) ([]domain.Message, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "group_id", Value: bson.D{{Key: "$in", Value: groupIDs}}}}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$group_id"},
			{Key: "message", Value: bson.D{{Key: "$first", Value: "$$ROOT"}}},
		}}},
		bson.D{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$message"}}}},
	}
	return r.aggregate(ctx, pipeline)
}

func (r *messageRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]domain.Message, error) {
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate error: %w", err)
	}
	var msgs []domain.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("cursor All error: %w", err)
	}
	return msgs, nil
}
