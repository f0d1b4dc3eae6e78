package store

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/example/product-catalog/internal/audit"
)

// DynamoAuditStore implements audit.Store on DynamoDB. The table is keyed
// gtin (partition) + changed_at (sort) so a product's history reads as one
// query, newest first.
type DynamoAuditStore struct {
	client    *dynamodb.Client
	tableName string
}

// dynamoAuditEntry is the DynamoDB item structure. Snapshot maps are
// stored as JSON strings.
type dynamoAuditEntry struct {
	GTIN         string `dynamodbav:"gtin"`
	ChangedAt    string `dynamodbav:"changed_at"`
	ID           string `dynamodbav:"id"`
	ProductID    string `dynamodbav:"product_id"`
	Action       string `dynamodbav:"action"`
	ChangedBy    string `dynamodbav:"changed_by"`
	PreviousData string `dynamodbav:"previous_data,omitempty"`
	NewData      string `dynamodbav:"new_data,omitempty"`
	Changes      string `dynamodbav:"changes,omitempty"`
	Metadata     string `dynamodbav:"metadata,omitempty"`
}

func NewDynamoAuditStore(client *dynamodb.Client, tableName string) *DynamoAuditStore {
	return &DynamoAuditStore{client: client, tableName: tableName}
}

func (s *DynamoAuditStore) Append(ctx context.Context, entry *audit.Entry) error {
	item := dynamoAuditEntry{
		GTIN:      entry.GTIN,
		ChangedAt: entry.ChangedAt.Format(time.RFC3339Nano),
		ID:        entry.ID,
		ProductID: entry.ProductID,
		Action:    string(entry.Action),
		ChangedBy: entry.ChangedBy,
	}
	var err error
	if item.PreviousData, err = encodeJSONField(entry.PreviousData); err != nil {
		return err
	}
	if item.NewData, err = encodeJSONField(entry.NewData); err != nil {
		return err
	}
	if item.Changes, err = encodeJSONField(entry.Changes); err != nil {
		return err
	}
	if item.Metadata, err = encodeJSONField(entry.Metadata); err != nil {
		return err
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal audit entry: %w", err)
	}

	// Conditional write keeps the table append-only.
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(gtin) AND attribute_not_exists(changed_at)"),
	})
	if err != nil {
		return fmt.Errorf("failed to put audit entry: %w", err)
	}
	return nil
}

func (s *DynamoAuditStore) ListByGTIN(ctx context.Context, gtin string, opts audit.ListOptions) ([]*audit.Entry, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("gtin = :g"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":g": &types.AttributeValueMemberS{Value: gtin},
		},
		ScanIndexForward: aws.Bool(false), // newest first
	})
	if err != nil {
		return nil, err
	}

	var entries []*audit.Entry
	for _, rawItem := range result.Items {
		var item dynamoAuditEntry
		if err := attributevalue.UnmarshalMap(rawItem, &item); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit entry: %w", err)
		}
		entry, err := item.toEntry()
		if err != nil {
			return nil, err
		}
		if opts.Action != "" && entry.Action != opts.Action {
			continue
		}
		entries = append(entries, entry)
	}

	if opts.Offset > 0 {
		if opts.Offset >= len(entries) {
			return nil, nil
		}
		entries = entries[opts.Offset:]
	}
	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[:opts.Limit]
	}
	return entries, nil
}

func (s *DynamoAuditStore) CountByGTIN(ctx context.Context, gtin string) (int, error) {
	result, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("gtin = :g"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":g": &types.AttributeValueMemberS{Value: gtin},
		},
		Select: types.SelectCount,
	})
	if err != nil {
		return 0, err
	}
	return int(result.Count), nil
}

func (item dynamoAuditEntry) toEntry() (*audit.Entry, error) {
	changedAt, err := time.Parse(time.RFC3339Nano, item.ChangedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse changed_at: %w", err)
	}

	entry := &audit.Entry{
		ID:        item.ID,
		GTIN:      item.GTIN,
		ProductID: item.ProductID,
		Action:    audit.Action(item.Action),
		ChangedBy: item.ChangedBy,
		ChangedAt: changedAt,
	}
	if err := decodeJSONField(item.PreviousData, &entry.PreviousData); err != nil {
		return nil, err
	}
	if err := decodeJSONField(item.NewData, &entry.NewData); err != nil {
		return nil, err
	}
	if err := decodeJSONField(item.Changes, &entry.Changes); err != nil {
		return nil, err
	}
	if err := decodeJSONField(item.Metadata, &entry.Metadata); err != nil {
		return nil, err
	}
	return entry, nil
}

func encodeJSONField(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Map && rv.IsNil() {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeJSONField(data string, dst any) error {
	if data == "" {
		return nil
	}
	return json.Unmarshal([]byte(data), dst)
}
