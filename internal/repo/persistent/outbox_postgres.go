package persistent

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/internal/entity"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/pkg/postgres"
	"github.com/gdg-cloud-hanoi/gallery-optimizer/pkg/types/errs"
	"github.com/google/uuid"
)

const (
	// Table
	outboxTable = "gallery_outbox"

	// Columns
	outboxIDColumn          = "id"
	outboxAggregateIDColumn = "aggregate_id"
	outboxKindColumn        = "kind"
	outboxPayloadColumn     = "payload"
	outboxStatusColumn      = "status"
	outboxCreatedAtColumn   = "created_at"
	outboxProcessedAtColumn = "processed_at"
	outboxRetryCountColumn  = "retry_count"
)

// retention for processed/failed outbox rows before cleanup
const _outboxRetention = 72 * time.Hour

type OutboxRepo struct {
	*postgres.Postgres
}

func NewOutboxRepo(pg *postgres.Postgres) *OutboxRepo {
	return &OutboxRepo{pg}
}

func (r *OutboxRepo) Create(ctx context.Context, event *entity.OutboxEvent) error {
	sql, args, err := r.Builder.
		Insert(outboxTable).
		Columns(
			outboxIDColumn,
			outboxAggregateIDColumn,
			outboxKindColumn,
			outboxPayloadColumn,
			outboxStatusColumn,
			outboxCreatedAtColumn,
			outboxRetryCountColumn,
		).
		Values(
			event.ID,
			event.AggregateID,
			event.Kind,
			event.Payload,
			event.Status,
			event.CreatedAt,
			event.RetryCount,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("OutboxRepo - Create - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("OutboxRepo - Create - executor.Exec: %w", err)
	}

	return nil
}

func (r *OutboxRepo) GetPendingEvents(ctx context.Context, maxRetries, limit int) ([]*entity.OutboxEvent, error) {
	sql, args, err := r.Builder.
		Select(
			outboxIDColumn,
			outboxAggregateIDColumn,
			outboxKindColumn,
			outboxPayloadColumn,
			outboxStatusColumn,
			outboxCreatedAtColumn,
			outboxProcessedAtColumn,
			outboxRetryCountColumn,
		).
		From(outboxTable).
		Where(squirrel.And{
			squirrel.Eq{outboxStatusColumn: entity.EventPending},
			squirrel.Lt{outboxRetryCountColumn: maxRetries},
		}).
		OrderBy(outboxCreatedAtColumn + " ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("OutboxRepo - GetPendingEvents - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	rows, err := executor.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("OutboxRepo - GetPendingEvents - executor.Query: %w", err)
	}
	defer rows.Close()

	events := make([]*entity.OutboxEvent, 0, limit)
	for rows.Next() {
		var event entity.OutboxEvent
		err = rows.Scan(
			&event.ID,
			&event.AggregateID,
			&event.Kind,
			&event.Payload,
			&event.Status,
			&event.CreatedAt,
			&event.ProcessedAt,
			&event.RetryCount,
		)
		if err != nil {
			return nil, fmt.Errorf("OutboxRepo - GetPendingEvents - rows.Scan: %w", err)
		}
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("OutboxRepo - GetPendingEvents - rows.Err: %w", err)
	}

	return events, nil
}

func (r *OutboxRepo) MarkAsProcessingBatch(ctx context.Context, IDs uuid.UUIDs) error {
	return r.markBatch(ctx, "MarkAsProcessingBatch", IDs, entity.EventProcessing)
}

func (r *OutboxRepo) MarkAsProcessedBatch(ctx context.Context, IDs uuid.UUIDs) error {
	return r.markBatch(ctx, "MarkAsProcessedBatch", IDs, entity.EventProcessed)
}

func (r *OutboxRepo) markBatch(ctx context.Context, op string, IDs uuid.UUIDs, status entity.EventStatus) error {
	now := time.Now()

	sql, args, err := r.Builder.
		Update(outboxTable).
		Set(outboxStatusColumn, status).
		Set(outboxProcessedAtColumn, now).
		Where(squirrel.Eq{outboxIDColumn: IDs}).
		ToSql()
	if err != nil {
		return fmt.Errorf("OutboxRepo - %s - r.Builder.ToSql: %w", op, err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("OutboxRepo - %s - executor.Exec: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("OutboxRepo - %s: %w", op, errs.ErrRecordNotFound)
	}

	return nil
}

// IncrementRetryCountBatch bumps the retry counter and puts events back to
// pending so the relay picks them up again.
func (r *OutboxRepo) IncrementRetryCountBatch(ctx context.Context, IDs uuid.UUIDs) error {
	sql, args, err := r.Builder.
		Update(outboxTable).
		Set(outboxRetryCountColumn, squirrel.Expr(outboxRetryCountColumn+" + 1")).
		Set(outboxStatusColumn, entity.EventPending).
		Where(squirrel.Eq{outboxIDColumn: IDs}).
		ToSql()
	if err != nil {
		return fmt.Errorf("OutboxRepo - IncrementRetryCountBatch - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("OutboxRepo - IncrementRetryCountBatch - executor.Exec: %w", err)
	}

	return nil
}

func (r *OutboxRepo) MarkMaxRetriesAsFailed(ctx context.Context, maxRetries int) error {
	sql, args, err := r.Builder.
		Update(outboxTable).
		Set(outboxStatusColumn, entity.EventFailed).
		Where(squirrel.And{
			squirrel.Eq{outboxStatusColumn: entity.EventPending},
			squirrel.GtOrEq{outboxRetryCountColumn: maxRetries},
		}).
		ToSql()
	if err != nil {
		return fmt.Errorf("OutboxRepo - MarkMaxRetriesAsFailed - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	_, err = executor.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("OutboxRepo - MarkMaxRetriesAsFailed - executor.Exec: %w", err)
	}

	return nil
}

func (r *OutboxRepo) DeleteOldProcessedAndFailed(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-_outboxRetention)

	sql, args, err := r.Builder.
		Delete(outboxTable).
		Where(squirrel.And{
			squirrel.Eq{outboxStatusColumn: []entity.EventStatus{entity.EventProcessed, entity.EventFailed}},
			squirrel.Lt{outboxCreatedAtColumn: cutoff},
		}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("OutboxRepo - DeleteOldProcessedAndFailed - r.Builder.ToSql: %w", err)
	}

	executor := r.GetExecutor(ctx)

	tag, err := executor.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("OutboxRepo - DeleteOldProcessedAndFailed - executor.Exec: %w", err)
	}

	return tag.RowsAffected(), nil
}
