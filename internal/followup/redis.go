package followup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	id "patientcore/pkg/domain"
)

const (
	backlogIndexKey   = "patient:billing:backlog"
	backlogEntriesKey = "patient:billing:backlog:entries"
	deadLetterKey     = "patient:events:dead"
)

// RedisBacklog stores entries in a hash keyed by patient id, indexed by a
// sorted set scored by recording time.
type RedisBacklog struct {
	client *redis.Client
}

func NewRedisBacklog(client *redis.Client) *RedisBacklog {
	return &RedisBacklog{client: client}
}

func (b *RedisBacklog) Record(ctx context.Context, entry BacklogEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal backlog entry: %w", err)
	}
	member := entry.PatientID.String()
	_, err = b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, backlogIndexKey, redis.Z{Score: float64(entry.RecordedAt.UnixMilli()), Member: member})
		pipe.HSet(ctx, backlogEntriesKey, member, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record billing backlog: %w", err)
	}
	return nil
}

func (b *RedisBacklog) Pending(ctx context.Context) ([]BacklogEntry, error) {
	members, err := b.client.ZRange(ctx, backlogIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read billing backlog index: %w", err)
	}
	if len(members) == 0 {
		return nil, nil
	}
	raw, err := b.client.HMGet(ctx, backlogEntriesKey, members...).Result()
	if err != nil {
		return nil, fmt.Errorf("read billing backlog entries: %w", err)
	}
	out := make([]BacklogEntry, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var entry BacklogEntry
		if err := json.Unmarshal([]byte(s), &entry); err != nil {
			return nil, fmt.Errorf("decode billing backlog entry: %w", err)
		}
		out = append(out, entry)
	}
	return out, nil
}

func (b *RedisBacklog) Resolve(ctx context.Context, patientID id.PatientID) error {
	member := patientID.String()
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, backlogIndexKey, member)
		pipe.HDel(ctx, backlogEntriesKey, member)
		return nil
	})
	if err != nil {
		return fmt.Errorf("resolve billing backlog: %w", err)
	}
	return nil
}

// RedisDeadLetters pushes letters onto a capped list, newest at the head.
type RedisDeadLetters struct {
	client *redis.Client
	max    int64
}

func NewRedisDeadLetters(client *redis.Client, capacity int64) *RedisDeadLetters {
	if capacity <= 0 {
		capacity = 10000
	}
	return &RedisDeadLetters{client: client, max: capacity}
}

func (d *RedisDeadLetters) RecordDeadLetter(ctx context.Context, letter DeadLetter) error {
	payload, err := json.Marshal(letter)
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}
	_, err = d.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, deadLetterKey, payload)
		pipe.LTrim(ctx, deadLetterKey, 0, d.max-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record dead letter: %w", err)
	}
	return nil
}

func (d *RedisDeadLetters) List(ctx context.Context, limit int) ([]DeadLetter, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	raw, err := d.client.LRange(ctx, deadLetterKey, 0, stop).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read dead letters: %w", err)
	}
	out := make([]DeadLetter, 0, len(raw))
	for _, s := range raw {
		var letter DeadLetter
		if err := json.Unmarshal([]byte(s), &letter); err != nil {
			return nil, fmt.Errorf("decode dead letter: %w", err)
		}
		out = append(out, letter)
	}
	return out, nil
}
