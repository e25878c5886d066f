package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/community-notify/internal/domain"
)

// SubscriptionRepo provides typed DynamoDB operations for the push
// subscriptions table. The endpoint URL is the partition key, so a Put
// for an existing endpoint replaces the row instead of duplicating it.
type SubscriptionRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSubscriptionRepo(client *dynamodb.Client, tableName string) *SubscriptionRepo {
	return &SubscriptionRepo{client: client, tableName: tableName}
}

// Upsert writes the subscription keyed by endpoint. A new endpoint gets
// a full row; a re-registration updates the metadata attributes in
// place, so created_at is never rewritten.
func (r *SubscriptionRepo) Upsert(ctx context.Context, s *domain.Subscription) error {
	now := time.Now().UTC()
	s.UpdatedAt = now

	if existing, err := r.Get(ctx, s.Endpoint); err == nil {
		s.CreatedAt = existing.CreatedAt
		return r.updateMetadata(ctx, s)
	}

	s.CreatedAt = now
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal subscription: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *SubscriptionRepo) updateMetadata(ctx context.Context, s *domain.Subscription) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		"keys":       s.Keys,
		"device":     s.Device,
		"user_agent": s.UserAgent,
		"updated_at": s.UpdatedAt,
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("endpoint", s.Endpoint),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *SubscriptionRepo) Get(ctx context.Context, endpoint string) (*domain.Subscription, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("endpoint", endpoint),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("subscription not found: %w", domain.ErrNotFound)
	}
	var s domain.Subscription
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Delete removes the row for endpoint. Deleting a non-existent endpoint
// is not an error; DynamoDB treats it as a no-op, which is what the
// broadcaster's racing evictions rely on.
func (r *SubscriptionRepo) Delete(ctx context.Context, endpoint string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("endpoint", endpoint),
	})
	return err
}

// List returns a bounded page of subscriptions plus a cursor for the
// next page; an empty cursor means the scan is complete.
func (r *SubscriptionRepo) List(ctx context.Context, limit int32, cursor string) ([]domain.Subscription, string, error) {
	in := &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Limit:     aws.Int32(limit),
	}
	if cursor != "" {
		in.ExclusiveStartKey = strKey("endpoint", cursor)
	}
	out, err := r.client.Scan(ctx, in)
	if err != nil {
		return nil, "", err
	}
	var subs []domain.Subscription
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &subs); err != nil {
		return nil, "", err
	}
	next := ""
	if out.LastEvaluatedKey != nil {
		var key struct {
			Endpoint string `dynamodbav:"endpoint"`
		}
		if err := attributevalue.UnmarshalMap(out.LastEvaluatedKey, &key); err != nil {
			return nil, "", err
		}
		next = key.Endpoint
	}
	return subs, next, nil
}
