package scheduler

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"leadgate_backend/platform/config"
	"leadgate_backend/platform/logger"
)

// Client enqueues background tasks.
type Client struct {
	client *asynq.Client
	queue  string
	log    *logger.Logger
}

// NewClient creates an asynq client from the Redis configuration.
func NewClient(cfg config.SchedulerConfig, log *logger.Logger) (*Client, error) {
	opt, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  cfg.GetAsynqQueueName(),
		log:    log,
	}, nil
}

// EnqueueEngagementRescore queues a rescore for the prospect.
func (c *Client) EnqueueEngagementRescore(ctx context.Context, prospectID uuid.UUID, events []string) error {
	task, err := NewEngagementRescoreTask(prospectID, events)
	if err != nil {
		return err
	}

	info, err := c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	if err != nil {
		return fmt.Errorf("enqueue engagement rescore: %w", err)
	}

	c.log.Debug("engagement rescore enqueued",
		"prospectId", prospectID, "taskId", info.ID, "queue", info.Queue)
	return nil
}

// Close releases the underlying Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// redisClientOpt translates a redis:// or rediss:// URL into asynq
// connection options.
func redisClientOpt(cfg config.SchedulerConfig) (asynq.RedisClientOpt, error) {
	raw := cfg.GetRedisURL()
	if raw == "" {
		return asynq.RedisClientOpt{}, fmt.Errorf("REDIS_URL is not configured")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return asynq.RedisClientOpt{}, fmt.Errorf("parse redis url: %w", err)
	}

	opt := asynq.RedisClientOpt{Addr: u.Host}
	if u.User != nil {
		opt.Username = u.User.Username()
		if password, ok := u.User.Password(); ok {
			opt.Password = password
		}
	}
	if path := strings.TrimPrefix(u.Path, "/"); path != "" {
		db, err := strconv.Atoi(path)
		if err != nil {
			return asynq.RedisClientOpt{}, fmt.Errorf("parse redis db from url: %w", err)
		}
		opt.DB = db
	}
	if u.Scheme == "rediss" {
		opt.TLSConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: cfg.GetRedisTLSInsecure(),
		}
	}
	return opt, nil
}
