package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DatasetStream = "gamelog.datasets.basketball_nba"
	SkippedStream = "gamelog.skipped.basketball_nba"
)

// DatasetEvent announces a completed season build.
type DatasetEvent struct {
	JobID        string    `json:"job_id,omitempty"`
	Season       string    `json:"season"`
	SeasonType   string    `json:"season_type"`
	RowsRead     int       `json:"rows_read"`
	GamesBuilt   int       `json:"games_built"`
	GamesSkipped int       `json:"games_skipped"`
	Columns      []string  `json:"columns"`
	OutputPath   string    `json:"output_path,omitempty"`
	BuiltAt      time.Time `json:"built_at"`
}

// SkippedEvent reports a game that was left out of a dataset.
type SkippedEvent struct {
	Season     string   `json:"season"`
	SeasonType string   `json:"season_type"`
	GameID     string   `json:"game_id"`
	Reason     string   `json:"reason"`
	Matchups   []string `json:"matchups"`
	HomeCount  int      `json:"home_count"`
	AwayCount  int      `json:"away_count"`
}

// RedisPublisher publishes dataset events to Redis streams
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a publisher on an existing client.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// PublishDatasetBuilt publishes a dataset-built event.
func (rp *RedisPublisher) PublishDatasetBuilt(ctx context.Context, event DatasetEvent) error {
	return rp.publish(ctx, DatasetStream, event)
}

// PublishGameSkipped publishes a skipped-game event.
func (rp *RedisPublisher) PublishGameSkipped(ctx context.Context, event SkippedEvent) error {
	return rp.publish(ctx, SkippedStream, event)
}

func (rp *RedisPublisher) publish(ctx context.Context, stream string, payload interface{}) error {
	values, err := streamValues(payload, time.Now())
	if err != nil {
		return err
	}

	if err := rp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", stream, err)
	}
	return nil
}

func streamValues(payload interface{}, now time.Time) (map[string]interface{}, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"data":      string(data),
		"timestamp": now.Unix(),
	}, nil
}
