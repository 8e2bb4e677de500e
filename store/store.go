package store

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store provides Room, Playlist and Episode persistence on a single DynamoDB table.
type Store struct {
	client Client
	config Config
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
	sleep  func(ctx context.Context, d time.Duration) error

	lifecycle *lifecycle
}

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the clock used for created_on stamps and backup names.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator sets the generator for uids the caller left empty.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithSleeper replaces the wait between table readiness polls.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Store) {
		if sleep != nil {
			s.sleep = sleep
		}
	}
}

// New creates a new Store instance.
func New(client Client, config Config, opts ...Option) *Store {
	config.validate()
	s := &Store{
		client: client,
		config: config,
		logger: zap.NewNop(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lifecycle = &lifecycle{store: s, state: StateUnknown}
	return s
}

// TableName returns the configured table name.
func (s *Store) TableName() string {
	return s.config.TableName
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// itemKey builds the primary key of an item.
func itemKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: pk},
		attrSK: &types.AttributeValueMemberS{Value: sk},
	}
}

// putNew writes item only if no item exists under its key. guard names the
// key attribute checked by the condition.
func (s *Store) putNew(ctx context.Context, item map[string]types.AttributeValue, guard string) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(guard))).
		Build()
	if err != nil {
		return validationError("build condition", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.config.TableName),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConflict
		}
		return s.transport("PutItem", err)
	}
	return nil
}

// getRaw fetches one item by key, returning ErrNotFound when absent.
func (s *Store) getRaw(ctx context.Context, pk, sk string) (map[string]types.AttributeValue, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.TableName),
		Key:       itemKey(pk, sk),
	})
	if err != nil {
		return nil, s.transport("GetItem", err)
	}
	if len(result.Item) == 0 {
		return nil, ErrNotFound
	}
	return result.Item, nil
}

// transport logs and wraps an SDK failure.
func (s *Store) transport(op string, err error) error {
	s.logger.Error("dynamodb request failed",
		zap.String("op", op),
		zap.String("table", s.config.TableName),
		zap.String("code", apiErrorCode(err)),
		zap.Error(err),
	)
	return transportError(op, err)
}
