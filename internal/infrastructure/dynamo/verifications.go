package dynamo

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/idverse-gateway/internal/domain"
)

// VerificationRepo is the append-only verification log.
// Records are immutable: the repo exposes Put and reads only, no updates.
type VerificationRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewVerificationRepo(client *dynamodb.Client, tableName string) *VerificationRepo {
	return &VerificationRepo{client: client, tableName: tableName}
}

func (r *VerificationRepo) Put(ctx context.Context, rec *domain.VerificationRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal verification record: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *VerificationRepo) Get(ctx context.Context, recordID string) (*domain.VerificationRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("record_id", recordID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("verification record not found: %w", domain.ErrNotFound)
	}
	var rec domain.VerificationRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns all verification records, newest first.
func (r *VerificationRepo) List(ctx context.Context) ([]domain.VerificationRecord, error) {
	var records []domain.VerificationRecord
	paginator := dynamodb.NewScanPaginator(r.client, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.VerificationRecord
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, err
		}
		records = append(records, batch...)
	}
	sortNewestFirst(records)
	return records, nil
}

// LatestByReference returns the most recent record sharing the given reference id.
func (r *VerificationRepo) LatestByReference(ctx context.Context, referenceID string) (*domain.VerificationRecord, error) {
	return r.latest(ctx, "reference_id-index", "reference_id", referenceID, "")
}

// LatestByTransaction returns the most recent record sharing the given transaction id.
func (r *VerificationRepo) LatestByTransaction(ctx context.Context, transactionID string) (*domain.VerificationRecord, error) {
	return r.latest(ctx, "transaction_id-index", "transaction_id", transactionID, "")
}

// LatestByTransactionAndStatus returns the most recent record with the given
// transaction id and exact status.
func (r *VerificationRepo) LatestByTransactionAndStatus(ctx context.Context, transactionID, status string) (*domain.VerificationRecord, error) {
	return r.latest(ctx, "transaction_id-index", "transaction_id", transactionID, status)
}

// latest queries a GSI descending by record_id and returns the first item,
// optionally filtered by status. The filter runs server-side after key
// evaluation, so no Limit is set: the first surviving item is the newest match.
func (r *VerificationRepo) latest(ctx context.Context, indexName, keyName, keyValue, status string) (*domain.VerificationRecord, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexName),
		KeyConditionExpression: aws.String(fmt.Sprintf("%s = :k", keyName)),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":k": &types.AttributeValueMemberS{Value: keyValue},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if status != "" {
		input.FilterExpression = aws.String("#s = :status")
		input.ExpressionAttributeNames = map[string]string{"#s": "status"}
		input.ExpressionAttributeValues[":status"] = &types.AttributeValueMemberS{Value: status}
	}

	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		if len(page.Items) == 0 {
			continue
		}
		var rec domain.VerificationRecord
		if err := attributevalue.UnmarshalMap(page.Items[0], &rec); err != nil {
			return nil, err
		}
		return &rec, nil
	}
	return nil, fmt.Errorf("no record for %s=%s: %w", keyName, keyValue, domain.ErrNotFound)
}

func sortNewestFirst(records []domain.VerificationRecord) {
	// ULIDs sort lexicographically by creation time.
	sort.Slice(records, func(i, j int) bool {
		return records[i].RecordID > records[j].RecordID
	})
}
