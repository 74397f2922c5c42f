package persistence

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sony/gobreaker"

	"autocompleted/internal/index"
)

// ddbRecord is the wire shape of one entry item in DynamoDB.
type ddbRecord struct {
	PK    string  `dynamodbav:"PK"`
	Key   string  `dynamodbav:"Key"`
	Value string  `dynamodbav:"Value"`
	Score float64 `dynamodbav:"Score"`
}

// DynamoDBSnapshotter persists entries as individual items in a DynamoDB
// table, one item per entry keyed by its PK, behind a circuit breaker that
// trips after a run of failures (mirroring the teacher's HTTP circuit
// breaker middleware, adapted to a storage client instead of a handler).
type DynamoDBSnapshotter struct {
	client    *dynamodb.Client
	tableName string
	breaker   *gobreaker.CircuitBreaker[any]
}

// NewDynamoDBSnapshotter builds a Snapshotter backed by tableName.
func NewDynamoDBSnapshotter(client *dynamodb.Client, tableName string) *DynamoDBSnapshotter {
	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "dynamodb-snapshotter:" + tableName,
		MaxRequests: 3,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 3 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
	})
	return &DynamoDBSnapshotter{client: client, tableName: tableName, breaker: breaker}
}

// dynamoBatchLimit is BatchWriteItem's hard per-request item cap.
const dynamoBatchLimit = 25

// Save writes one item per entry, in groups of up to dynamoBatchLimit items
// via BatchWriteItem, each batch guarded by the circuit breaker. It only
// puts items: items already in the table whose key is not among entries are
// left in place. Items DynamoDB reports as unprocessed are retried as a
// follow-up batch until the table accepts them or the breaker trips.
func (s *DynamoDBSnapshotter) Save(ctx context.Context, entries []index.Entry[string, string]) error {
	for start := 0; start < len(entries); start += dynamoBatchLimit {
		end := start + dynamoBatchLimit
		if end > len(entries) {
			end = len(entries)
		}

		requests := make([]types.WriteRequest, 0, end-start)
		for _, e := range entries[start:end] {
			item := ddbRecord{PK: "ENTRY#" + e.Key, Key: e.Key, Value: e.Value, Score: e.Score}
			itemMap, err := attributevalue.MarshalMap(item)
			if err != nil {
				return fmt.Errorf("persistence: marshal entry %q: %w", e.Key, err)
			}
			requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: itemMap}})
		}

		if err := s.writeBatch(ctx, requests); err != nil {
			return err
		}
	}
	return nil
}

// writeBatch submits requests via BatchWriteItem, resubmitting any items
// DynamoDB returns as unprocessed until none remain.
func (s *DynamoDBSnapshotter) writeBatch(ctx context.Context, requests []types.WriteRequest) error {
	for len(requests) > 0 {
		out, err := s.breaker.Execute(func() (any, error) {
			return s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]types.WriteRequest{s.tableName: requests},
			})
		})
		if err != nil {
			return fmt.Errorf("persistence: batch write to table %q: %w", s.tableName, err)
		}

		result := out.(*dynamodb.BatchWriteItemOutput)
		requests = result.UnprocessedItems[s.tableName]
	}
	return nil
}

// Load scans the table for every entry item. Scans are fine here: snapshots
// are infrequent (startup and periodic flush), never on the query path.
func (s *DynamoDBSnapshotter) Load(ctx context.Context) ([]index.Entry[string, string], error) {
	var entries []index.Entry[string, string]
	var lastKey map[string]types.AttributeValue

	for {
		out, err := s.breaker.Execute(func() (any, error) {
			return s.client.Scan(ctx, &dynamodb.ScanInput{
				TableName:         aws.String(s.tableName),
				ExclusiveStartKey: lastKey,
			})
		})
		if err != nil {
			return nil, fmt.Errorf("persistence: scan table %q: %w", s.tableName, err)
		}

		page := out.(*dynamodb.ScanOutput)
		for _, item := range page.Items {
			var rec ddbRecord
			if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
				return nil, fmt.Errorf("persistence: unmarshal item: %w", err)
			}
			entries = append(entries, index.Entry[string, string]{Key: rec.Key, Value: rec.Value, Score: rec.Score})
		}

		if page.LastEvaluatedKey == nil {
			break
		}
		lastKey = page.LastEvaluatedKey
	}

	return entries, nil
}
