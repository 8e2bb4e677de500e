package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// TableState is the lifecycle state of the backing table.
type TableState string

const (
	StateUnknown  TableState = "UNKNOWN"
	StateCreating TableState = "CREATING"
	StateActive   TableState = "ACTIVE"
	StateFailed   TableState = "FAILED"
)

// lifecycle drives UNKNOWN -> CREATING -> ACTIVE | FAILED. ACTIVE is sticky;
// FAILED is retried on the next Initiate.
type lifecycle struct {
	store *Store

	mu    sync.Mutex
	state TableState
}

// Initiate creates the table if needed and waits until it is ACTIVE.
// Callers invoke it lazily before their first write; once the table is
// ACTIVE later calls return immediately.
func (s *Store) Initiate(ctx context.Context) (TableState, error) {
	return s.lifecycle.initiate(ctx)
}

// State returns the last observed table state.
func (s *Store) State() TableState {
	s.lifecycle.mu.Lock()
	defer s.lifecycle.mu.Unlock()
	return s.lifecycle.state
}

func (l *lifecycle) initiate(ctx context.Context) (TableState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateActive {
		return l.state, nil
	}

	state, err := l.create(ctx)
	if err == nil && state == StateCreating {
		l.state = StateCreating
		state, err = l.poll(ctx)
	}
	if err != nil {
		l.state = StateFailed
		return l.state, err
	}
	l.state = state
	return l.state, nil
}

func (l *lifecycle) create(ctx context.Context) (TableState, error) {
	s := l.store
	out, err := s.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName:   aws.String(s.config.TableName),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrPK), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(attrSK), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrPK), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(attrSK), KeyType: types.KeyTypeRange},
		},
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			s.logger.Debug("table already exists", zap.String("table", s.config.TableName))
			return StateActive, nil
		}
		return StateFailed, s.transport("CreateTable", err)
	}

	status := types.TableStatusCreating
	if out != nil && out.TableDescription != nil {
		status = out.TableDescription.TableStatus
	}
	s.logger.Info("table create requested",
		zap.String("table", s.config.TableName),
		zap.String("status", string(status)),
	)
	return stateFromStatus(status)
}

// poll describes the table at a fixed interval until it is ACTIVE or the
// attempt budget runs out.
func (l *lifecycle) poll(ctx context.Context) (TableState, error) {
	s := l.store
	for attempt := 1; attempt <= s.config.ReadyMaxAttempts; attempt++ {
		if err := s.sleep(ctx, s.config.ReadyPollInterval); err != nil {
			return StateFailed, err
		}

		out, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(s.config.TableName),
		})
		if err != nil {
			return StateFailed, s.transport("DescribeTable", err)
		}

		var status types.TableStatus
		if out != nil && out.Table != nil {
			status = out.Table.TableStatus
		}
		s.logger.Debug("polled table status",
			zap.String("table", s.config.TableName),
			zap.Int("attempt", attempt),
			zap.String("status", string(status)),
		)

		state, err := stateFromStatus(status)
		if err != nil {
			return StateFailed, err
		}
		if state == StateActive {
			s.logger.Info("table active", zap.String("table", s.config.TableName), zap.Int("attempts", attempt))
			return StateActive, nil
		}
	}
	return StateFailed, fmt.Errorf("%w: %s still creating after %d attempts",
		ErrTableNotReady, s.config.TableName, s.config.ReadyMaxAttempts)
}

func stateFromStatus(status types.TableStatus) (TableState, error) {
	switch status {
	case types.TableStatusActive:
		return StateActive, nil
	case types.TableStatusCreating, types.TableStatusUpdating, "":
		return StateCreating, nil
	default:
		return StateFailed, fmt.Errorf("%w: unexpected table status %s", ErrTableNotReady, status)
	}
}

// Backup requests an on-demand backup named after the current UTC date and
// the table. A failure is logged and returned wrapped in ErrBackupFailed;
// callers are expected to carry on.
func (s *Store) Backup(ctx context.Context) (string, error) {
	name := backupName(s.now(), s.config.TableName)
	out, err := s.client.CreateBackup(ctx, &dynamodb.CreateBackupInput{
		TableName:  aws.String(s.config.TableName),
		BackupName: aws.String(name),
	})
	if err != nil {
		s.logger.Error("backup failed",
			zap.String("table", s.config.TableName),
			zap.String("backup", name),
			zap.String("code", apiErrorCode(err)),
			zap.Error(err),
		)
		return name, fmt.Errorf("%w: %s: %w", ErrBackupFailed, name, err)
	}

	fields := []zap.Field{zap.String("table", s.config.TableName), zap.String("backup", name)}
	if out != nil && out.BackupDetails != nil {
		fields = append(fields, zap.String("arn", aws.ToString(out.BackupDetails.BackupArn)))
	}
	s.logger.Info("backup requested", fields...)
	return name, nil
}

// backupName returns "yyyy-mm-dd-table" for the UTC date of now.
func backupName(now time.Time, table string) string {
	return now.UTC().Format("2006-01-02") + "-" + table
}
