// Package sqs consumes price-change notifications from per-backend SQS
// queues.
package sqs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"

	appsync "github.com/erp/amazon-connector/internal/application/sync"
	"github.com/erp/amazon-connector/internal/infrastructure/config"
)

// receiveBatchSize is the SQS maximum per ReceiveMessage call
const receiveBatchSize = 10

var ErrQueueURLRequired = errors.New("sqs: queue URL is required")

// client is the subset of the SQS API the consumer uses; satisfied by
// *awssqs.Client and by test fakes.
type client interface {
	ReceiveMessage(ctx context.Context, params *awssqs.ReceiveMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *awssqs.DeleteMessageInput, optFns ...func(*awssqs.Options)) (*awssqs.DeleteMessageOutput, error)
}

// Consumer long-polls SQS queues. One consumer serves all backends; the
// queue URL is passed per call because every backend binds its own queue.
type Consumer struct {
	client   client
	waitTime time.Duration
	logger   *zap.Logger
}

// NewConsumer builds a consumer from the AWS configuration. Credentials
// come from the default provider chain; EndpointURL overrides the endpoint
// for local development.
func NewConsumer(ctx context.Context, cfg *config.AWSConfig, logger *zap.Logger) (*Consumer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	sqsClient := awssqs.NewFromConfig(awsCfg, func(o *awssqs.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		}
	})

	return &Consumer{
		client:   sqsClient,
		waitTime: cfg.SQSWaitTime,
		logger:   logger,
	}, nil
}

// Poll receives messages until the window elapses, the context is done, or
// the queue drains. Each message is handed to handle and deleted from the
// queue only when handle returns nil; failed messages become visible again
// after the queue's visibility timeout. Returns the number of messages
// successfully handled.
func (c *Consumer) Poll(ctx context.Context, queueURL string, window time.Duration, handle func(messageID, body string) error) (int, error) {
	if queueURL == "" {
		return 0, ErrQueueURLRequired
	}

	deadline := time.Now().Add(window)
	handled := 0

	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return handled, err
		}

		wait := c.waitTime
		if remaining := time.Until(deadline); remaining < wait {
			wait = remaining
		}

		out, err := c.client.ReceiveMessage(ctx, &awssqs.ReceiveMessageInput{
			QueueUrl:            aws.String(queueURL),
			MaxNumberOfMessages: receiveBatchSize,
			WaitTimeSeconds:     int32(wait / time.Second),
		})
		if err != nil {
			return handled, fmt.Errorf("receive messages: %w", err)
		}
		if len(out.Messages) == 0 {
			break
		}

		for _, msg := range out.Messages {
			if err := handle(aws.ToString(msg.MessageId), aws.ToString(msg.Body)); err != nil {
				c.logger.Warn("message handling failed, leaving on queue",
					zap.String("message_id", aws.ToString(msg.MessageId)),
					zap.Error(err))
				continue
			}

			if _, err := c.client.DeleteMessage(ctx, &awssqs.DeleteMessageInput{
				QueueUrl:      aws.String(queueURL),
				ReceiptHandle: msg.ReceiptHandle,
			}); err != nil {
				c.logger.Warn("message delete failed",
					zap.String("message_id", aws.ToString(msg.MessageId)),
					zap.Error(err))
				continue
			}
			handled++
		}
	}
	return handled, nil
}

var _ appsync.MessageSource = (*Consumer)(nil)
