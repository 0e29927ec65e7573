package blobstore

import (
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/AryamaVMurthy/event-management-project-sub000/internal/config"
	"github.com/AryamaVMurthy/event-management-project-sub000/internal/domain"
)

// Redis stores each blob as a hash under prefix+id.
type Redis struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

func NewRedisClient(conf *config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
}

func NewRedis(client *redis.Client, prefix string, timeout time.Duration) *Redis {
	return &Redis{
		client:  client,
		prefix:  prefix,
		timeout: timeout,
	}
}

var metaFields = []string{"name", "mime_type", "size", "digest", "owner_id", "event_id", "created_at"}

func (s *Redis) Put(ctx context.Context, in domain.BlobUpload) (domain.Blob, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	b := newBlob(in)
	err := s.client.HSet(ctx, s.key(b.ID), map[string]any{
		"name":       b.Name,
		"mime_type":  b.MimeType,
		"size":       b.Size,
		"digest":     b.Digest,
		"owner_id":   b.OwnerID,
		"event_id":   b.EventID,
		"created_at": b.CreatedAt.Format(time.RFC3339Nano),
		"data":       in.Data,
	}).Err()
	if err != nil {
		return domain.Blob{}, storageErr("s.client.HSet", err)
	}

	return b, nil
}

func (s *Redis) Stat(ctx context.Context, id string) (domain.Blob, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	vals, err := s.client.HMGet(ctx, s.key(id), metaFields...).Result()
	if err != nil {
		return domain.Blob{}, storageErr("s.client.HMGet", err)
	}

	fields := make(map[string]string, len(metaFields))
	for i, name := range metaFields {
		if str, ok := vals[i].(string); ok {
			fields[name] = str
		}
	}
	if len(fields) == 0 {
		return domain.Blob{}, domain.ErrBlobNotFound
	}

	return parseMeta(id, fields), nil
}

func (s *Redis) Get(ctx context.Context, id string) (domain.Blob, []byte, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	fields, err := s.client.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return domain.Blob{}, nil, storageErr("s.client.HGetAll", err)
	}
	if len(fields) == 0 {
		return domain.Blob{}, nil, domain.ErrBlobNotFound
	}

	return parseMeta(id, fields), []byte(fields["data"]), nil
}

func (s *Redis) Delete(ctx context.Context, id string) error {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return storageErr("s.client.Del", err)
	}

	return nil
}

func (s *Redis) key(id string) string {
	return s.prefix + id
}

func parseMeta(id string, f map[string]string) domain.Blob {
	size, _ := strconv.ParseInt(f["size"], 10, 64)
	owner, _ := strconv.ParseUint(f["owner_id"], 10, 64)
	event, _ := strconv.ParseUint(f["event_id"], 10, 64)
	created, _ := time.Parse(time.RFC3339Nano, f["created_at"])

	return domain.Blob{
		ID:        id,
		Name:      f["name"],
		MimeType:  f["mime_type"],
		Size:      size,
		Digest:    f["digest"],
		OwnerID:   uint(owner),
		EventID:   uint(event),
		CreatedAt: created,
	}
}
