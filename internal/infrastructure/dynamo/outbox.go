package dynamo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/campus-auth-api/internal/domain"
)

// OutboxRepo provides typed DynamoDB operations for the mail outbox table.
// PK: message_id. Due messages are read through the status GSI.
type OutboxRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOutboxRepo(client *dynamodb.Client, tableName string) *OutboxRepo {
	return &OutboxRepo{client: client, tableName: tableName}
}

func (r *OutboxRepo) Enqueue(ctx context.Context, m *domain.OutboxMessage) error {
	item, err := attributevalue.MarshalMap(m)
	if err != nil {
		return fmt.Errorf("marshal outbox message: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// ListDue returns up to limit pending messages whose next_attempt_at is at or
// before now. "status" is a DynamoDB reserved word, hence the #s alias.
func (r *OutboxRepo) ListDue(ctx context.Context, now int64, limit int32) ([]domain.OutboxMessage, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		IndexName:                aws.String(statusIndex),
		KeyConditionExpression:   aws.String("#s = :pending AND next_attempt_at <= :now"),
		ExpressionAttributeNames: map[string]string{"#s": fieldStatus},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pending": &types.AttributeValueMemberS{Value: domain.OutboxStatusPending},
			":now":     &types.AttributeValueMemberN{Value: strconv.FormatInt(now, 10)},
		},
		Limit: aws.Int32(limit),
	})
	if err != nil {
		return nil, err
	}
	var messages []domain.OutboxMessage
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *OutboxRepo) MarkSent(ctx context.Context, messageID string) error {
	return r.update(ctx, messageID, map[string]interface{}{
		fieldStatus: domain.OutboxStatusSent,
	})
}

// Reschedule records a failed attempt and pushes the message back into the
// pending queue at nextAttemptAt.
func (r *OutboxRepo) Reschedule(ctx context.Context, messageID string, attempts int, nextAttemptAt int64, lastError string) error {
	return r.update(ctx, messageID, map[string]interface{}{
		fieldAttempts:      attempts,
		fieldNextAttemptAt: nextAttemptAt,
		fieldLastError:     lastError,
	})
}

// MarkDead parks a message that exhausted its attempts. Dead messages are no
// longer picked up by ListDue; the dispatcher archives them before this call.
func (r *OutboxRepo) MarkDead(ctx context.Context, messageID string, lastError string) error {
	return r.update(ctx, messageID, map[string]interface{}{
		fieldStatus:    domain.OutboxStatusDead,
		fieldLastError: lastError,
	})
}

func (r *OutboxRepo) update(ctx context.Context, messageID string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("message_id", messageID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}
