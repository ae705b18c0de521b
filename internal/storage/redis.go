package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/giftpool/forecaster/internal/analytics"
	"github.com/giftpool/forecaster/internal/compression"
	"github.com/redis/go-redis/v9"
)

const (
	defaultKeyPrefix   = "forecaster"
	defaultSnapshotTTL = 30 * 24 * time.Hour
	maxAppendRetries   = 5
)

// RedisOptions configures a RedisStore
type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	KeyPrefix   string                // default: "forecaster"
	SnapshotTTL time.Duration         // 0 uses 30 days
	Compression compression.Algorithm // payload compression for new writes
}

// RedisStore implements Store on Redis. Series and snapshots are JSON
// documents framed by a compression codec. Keys:
//
//	{prefix}:series:{subject}:{metric}          series document
//	{prefix}:series-index:{subject}             set of metrics
//	{prefix}:snapshot:{subject}:{metric}:{year} snapshot document (TTL)
//	{prefix}:snapshot:{subject}:{metric}:latest newest snapshot (TTL)
//	{prefix}:snapshot-years:{subject}:{metric}  set of stored years
type RedisStore struct {
	client *redis.Client
	codec  *compression.Codec
	prefix string
	ttl    time.Duration
	mu     sync.RWMutex
}

// NewRedisStore connects to Redis and verifies the connection
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis address cannot be empty")
	}
	if opts.DB < 0 {
		return nil, errors.New("redis database number must be >= 0")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	return NewRedisStoreWithClient(client, opts)
}

// NewRedisStoreWithClient wraps an existing client. Addr, Password and DB in opts are ignored.
func NewRedisStoreWithClient(client *redis.Client, opts RedisOptions) (*RedisStore, error) {
	codec, err := compression.NewCodec(opts.Compression)
	if err != nil {
		return nil, err
	}

	prefix := opts.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	ttl := opts.SnapshotTTL
	if ttl == 0 {
		ttl = defaultSnapshotTTL
	}

	return &RedisStore{
		client: client,
		codec:  codec,
		prefix: prefix,
		ttl:    ttl,
	}, nil
}

func (r *RedisStore) seriesKey(key SeriesKey) string {
	return fmt.Sprintf("%s:series:%s:%s", r.prefix, key.Subject, key.Metric)
}

func (r *RedisStore) indexKey(subject string) string {
	return fmt.Sprintf("%s:series-index:%s", r.prefix, subject)
}

func (r *RedisStore) snapshotKey(key SeriesKey, year string) string {
	return fmt.Sprintf("%s:snapshot:%s:%s:%s", r.prefix, key.Subject, key.Metric, year)
}

func (r *RedisStore) snapshotYearsKey(key SeriesKey) string {
	return fmt.Sprintf("%s:snapshot-years:%s:%s", r.prefix, key.Subject, key.Metric)
}

func (r *RedisStore) encode(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal: %w", err)
	}
	return r.codec.Encode(data)
}

func (r *RedisStore) decode(payload []byte, v interface{}) error {
	data, err := r.codec.Decode(payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal: %w", err)
	}
	return nil
}

// PutSeries replaces the whole series
func (r *RedisStore) PutSeries(ctx context.Context, key SeriesKey, points analytics.Series) error {
	if err := key.Validate(); err != nil {
		return err
	}

	payload, err := r.encode(StoredSeries{
		Key:       key,
		Points:    points,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.seriesKey(key), payload, 0)
		pipe.SAdd(ctx, r.indexKey(key.Subject), key.Metric)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store series in redis: %w", err)
	}
	return nil
}

// AppendPoints merges points under an optimistic WATCH transaction,
// retrying when a concurrent writer changes the series
func (r *RedisStore) AppendPoints(ctx context.Context, key SeriesKey, points analytics.Series, maxPoints int) (analytics.Series, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	redisKey := r.seriesKey(key)
	var merged analytics.Series

	txf := func(tx *redis.Tx) error {
		var base analytics.Series
		payload, err := tx.Get(ctx, redisKey).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var existing StoredSeries
			if err := r.decode(payload, &existing); err != nil {
				return err
			}
			base = existing.Points
		}

		merged = analytics.Merge(base, points)
		if err := checkPointLimit(key, merged, maxPoints); err != nil {
			return err
		}
		updated, err := r.encode(StoredSeries{
			Key:       key,
			Points:    merged,
			UpdatedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, redisKey, updated, 0)
			pipe.SAdd(ctx, r.indexKey(key.Subject), key.Metric)
			return nil
		})
		return err
	}

	for i := 0; i < maxAppendRetries; i++ {
		err := r.client.Watch(ctx, txf, redisKey)
		if err == nil {
			return merged, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, fmt.Errorf("failed to append points in redis: %w", err)
	}
	return nil, fmt.Errorf("failed to append points in redis: too much contention on %s", key)
}

// GetSeries loads a series
func (r *RedisStore) GetSeries(ctx context.Context, key SeriesKey) (*StoredSeries, error) {
	payload, err := r.client.Get(ctx, r.seriesKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("series %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get series from redis: %w", err)
	}

	var stored StoredSeries
	if err := r.decode(payload, &stored); err != nil {
		return nil, fmt.Errorf("series %s: %w", key, err)
	}
	return &stored, nil
}

// ListSeries returns the metrics indexed for subject
func (r *RedisStore) ListSeries(ctx context.Context, subject string) ([]string, error) {
	metrics, err := r.client.SMembers(ctx, r.indexKey(subject)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list series from redis: %w", err)
	}
	sort.Strings(metrics)
	return metrics, nil
}

// DeleteSeries removes a series, its index entry and its snapshots
func (r *RedisStore) DeleteSeries(ctx context.Context, key SeriesKey) error {
	years, err := r.client.SMembers(ctx, r.snapshotYearsKey(key)).Result()
	if err != nil {
		return fmt.Errorf("failed to list snapshots in redis: %w", err)
	}

	keys := []string{r.snapshotYearsKey(key), r.snapshotKey(key, "latest")}
	for _, y := range years {
		keys = append(keys, r.snapshotKey(key, y))
	}

	var deleted *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, r.seriesKey(key))
		pipe.SRem(ctx, r.indexKey(key.Subject), key.Metric)
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete series from redis: %w", err)
	}
	if deleted.Val() == 0 {
		return fmt.Errorf("series %s: %w", key, ErrNotFound)
	}
	return nil
}

// PutSnapshot stores a snapshot under its year and as the latest, both with the snapshot TTL
func (r *RedisStore) PutSnapshot(ctx context.Context, snap Snapshot) error {
	key := SeriesKey{Subject: snap.Subject, Metric: snap.Metric}
	if err := key.Validate(); err != nil {
		return err
	}

	payload, err := r.encode(snap)
	if err != nil {
		return err
	}
	year := strconv.Itoa(snap.TargetYear)

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.snapshotKey(key, year), payload, r.ttl)
		pipe.Set(ctx, r.snapshotKey(key, "latest"), payload, r.ttl)
		pipe.SAdd(ctx, r.snapshotYearsKey(key), year)
		pipe.Expire(ctx, r.snapshotYearsKey(key), r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store snapshot in redis: %w", err)
	}
	return nil
}

func (r *RedisStore) getSnapshot(ctx context.Context, key SeriesKey, year string) (Snapshot, error) {
	payload, err := r.client.Get(ctx, r.snapshotKey(key, year)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, fmt.Errorf("snapshot %s/%s: %w", key, year, ErrNotFound)
		}
		return Snapshot{}, fmt.Errorf("failed to get snapshot from redis: %w", err)
	}

	var snap Snapshot
	if err := r.decode(payload, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot %s/%s: %w", key, year, err)
	}
	return snap, nil
}

// GetSnapshot returns the snapshot for targetYear
func (r *RedisStore) GetSnapshot(ctx context.Context, key SeriesKey, targetYear int) (Snapshot, error) {
	return r.getSnapshot(ctx, key, strconv.Itoa(targetYear))
}

// GetLatestSnapshot returns the most recently written snapshot
func (r *RedisStore) GetLatestSnapshot(ctx context.Context, key SeriesKey) (Snapshot, error) {
	return r.getSnapshot(ctx, key, "latest")
}

// Ping checks the Redis connection health
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis client connection. It is safe to call multiple times.
func (r *RedisStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client == nil {
		return nil
	}

	err := r.client.Close()
	r.client = nil
	if errors.Is(err, redis.ErrClosed) {
		return nil
	}
	return err
}
