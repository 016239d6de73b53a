package db

import (
	"context"
	"errors"
	"time"

	model "github.com/glkeru/barbershop/internal/models"
	redis "github.com/redis/go-redis/v9"
)

type CacheService struct {
	client *redis.Client
}

func NewCacheService(ctx context.Context, addr, user, pwd string) (*CacheService, error) {
	if addr == "" {
		return nil, errors.New("redis address is not set")
	}
	db := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    pwd,
		Username:    user,
		DB:          0,
		MaxRetries:  5,
		DialTimeout: 10 * time.Second,
	})
	err := db.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}
	return &CacheService{db}, nil
}

func nameKey(kind, id string) string {
	return "name:" + kind + ":" + id
}

func (c *CacheService) GetName(ctx context.Context, kind string, id string) (string, error) {
	val, err := c.client.Get(ctx, nameKey(kind, id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", model.ErrNotFound
	} else if err != nil {
		return "", err
	}
	return val, nil
}

// Имена меняются редко, храним без TTL
func (c *CacheService) SetName(ctx context.Context, kind string, id string, name string) error {
	return c.client.Set(ctx, nameKey(kind, id), name, 0).Err()
}

func (c *CacheService) Close() error {
	return c.client.Close()
}
