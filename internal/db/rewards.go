package db

import (
	"context"
	"errors"
	"time"

	model "github.com/glkeru/barbershop/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Каталог наград в Mongo
type RewardsDB struct {
	mgo  *mongo.Client
	coll *mongo.Collection
}

func NewRewardsDB(ctx context.Context, uri, database string) (*RewardsDB, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is not set")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, err
	}
	coll := client.Database(database).Collection("rewards")
	return &RewardsDB{client, coll}, nil
}

func (r *RewardsDB) Close(ctx context.Context) error {
	return r.mgo.Disconnect(ctx)
}

func (r *RewardsDB) find(ctx context.Context, filter bson.M) ([]model.Reward, error) {
	opts := options.Find().SetSort(bson.D{{Key: "costPoints", Value: 1}})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rewards []model.Reward
	for cur.Next(ctx) {
		var reward model.Reward
		err := cur.Decode(&reward)
		if err != nil {
			return nil, err
		}
		rewards = append(rewards, reward)
	}
	return rewards, cur.Err()
}

func (r *RewardsDB) GetActiveRewards(ctx context.Context) ([]model.Reward, error) {
	return r.find(ctx, bson.M{"active": true})
}

func (r *RewardsDB) GetAllRewards(ctx context.Context) ([]model.Reward, error) {
	return r.find(ctx, bson.M{})
}

func (r *RewardsDB) GetReward(ctx context.Context, id uuid.UUID) (model.Reward, error) {
	var reward model.Reward
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&reward)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Reward{}, model.ErrNotFound.WithMessage("reward not found")
	}
	if err != nil {
		return model.Reward{}, err
	}
	return reward, nil
}

// если ID пустой, значит новая награда
func (r *RewardsDB) SaveReward(ctx context.Context, reward model.Reward) (model.Reward, error) {
	if reward.ID == uuid.Nil {
		reward.ID = uuid.New()
	}
	_, err := r.coll.ReplaceOne(ctx, bson.M{"id": reward.ID}, reward, options.Replace().SetUpsert(true))
	if err != nil {
		return model.Reward{}, err
	}
	return reward, nil
}
