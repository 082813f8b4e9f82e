package repository

import (
	"context"
	"errors"

	"realtime_chat_service/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GroupRepository definition chat group
type GroupRepository interface {
	CreateGroup(ctx context.Context, group *domain.Group) error
	FindByID(ctx context.Context, groupID string) (*domain.Group, error)
	// FindByMember 使用者所在的群組, 依建立時間排序
	FindByMember(ctx context.Context, memberID string) ([]domain.Group, error)
}

type groupRepository struct {
	groupsColl *mongo.Collection
}

// NewMongoGroupRepository create new mongo group repository
func NewMongoGroupRepository(db *mongo.Database) GroupRepository {
	return &groupRepository{
		groupsColl: db.Collection("groups"),
	}
}

// CreateGroup create group
func (r *groupRepository) CreateGroup(ctx context.Context, group *domain.Group) error {
	_, err := r.groupsColl.InsertOne(ctx, group)
	return err
}

// FindByID find group by id
func (r *groupRepository) FindByID(ctx context.Context, groupID string) (*domain.Group, error) {
	var group domain.Group
	err := r.groupsColl.FindOne(ctx, bson.M{"_id": groupID}).Decode(&group)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, err
	}
	return &group, nil
}

// FindByMember find groups containing member
func (r *groupRepository) FindByMember(ctx context.Context, memberID string) ([]domain.Group, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := r.groupsColl.Find(ctx, bson.M{"members": memberID}, opts)
	if err != nil {
		return nil, err
	}
	var groups []domain.Group
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}
