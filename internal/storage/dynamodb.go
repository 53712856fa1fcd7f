package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
)

// DynamoAPI is the subset of the DynamoDB client the store uses
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// recordItem is one persisted record
type recordItem struct {
	Key       string `dynamodbav:"Key"`
	Value     string `dynamodbav:"Value"`
	UpdatedAt string `dynamodbav:"UpdatedAt"` // RFC3339
}

// DynamoDBStore implements Store on a single DynamoDB table keyed by record name
type DynamoDBStore struct {
	client DynamoAPI
	table  string
	logger zerolog.Logger
}

// NewDynamoDBStore creates a new DynamoDB store
func NewDynamoDBStore(ctx context.Context, cfg DynamoConfig, logger zerolog.Logger) (*DynamoDBStore, error) {
	var client *dynamodb.Client

	if cfg.Local {
		// Build the client directly: LoadDefaultConfig queries the EC2 IMDS
		// endpoint, which hangs when static credentials are intended.
		client = dynamodb.New(dynamodb.Options{
			Region:       cfg.Region,
			BaseEndpoint: aws.String(cfg.Endpoint),
			Credentials:  credentials.NewStaticCredentialsProvider("local", "local", ""),
		})
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = dynamodb.NewFromConfig(awsCfg)
	}

	if cfg.Local {
		if err := CreateTableIfNotExists(ctx, client, cfg.Table, logger); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Bool("local", cfg.Local).
		Str("region", cfg.Region).
		Str("table", cfg.Table).
		Msg("DynamoDB store initialized")

	return NewDynamoDBStoreWithClient(client, cfg.Table, logger), nil
}

// NewDynamoDBStoreWithClient wraps an existing client
func NewDynamoDBStoreWithClient(client DynamoAPI, table string, logger zerolog.Logger) *DynamoDBStore {
	return &DynamoDBStore{
		client: client,
		table:  table,
		logger: logger,
	}
}

func (s *DynamoDBStore) key(key string) map[string]dbtypes.AttributeValue {
	return map[string]dbtypes.AttributeValue{
		"Key": &dbtypes.AttributeValueMemberS{Value: key},
	}
}

// valueProjection fetches only the payload. Key and Value are reserved words,
// so the builder's name placeholders are required.
var valueProjection = expression.NamesList(expression.Name("Key"), expression.Name("Value"))

func (s *DynamoDBStore) Get(ctx context.Context, key string) ([]byte, error) {
	expr, err := expression.NewBuilder().WithProjection(valueProjection).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(s.table),
		Key:                      s.key(key),
		ConsistentRead:           aws.Bool(true),
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}

	var item recordItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return []byte(item.Value), nil
}

func (s *DynamoDBStore) Put(ctx context.Context, key string, data []byte) Result {
	item, err := attributevalue.MarshalMap(recordItem{
		Key:       key,
		Value:     string(data),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return Result{Key: key, Err: fmt.Errorf("failed to marshal %s: %w", key, err)}
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	if err != nil {
		return Result{Key: key, Err: fmt.Errorf("failed to save %s: %w", key, err)}
	}
	return Result{Key: key, Bytes: len(data)}
}

func (s *DynamoDBStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       s.key(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// NewStore creates the appropriate store based on configuration
func NewStore(ctx context.Context, cfg Config, logger zerolog.Logger) (Store, error) {
	switch cfg.Mode {
	case ModeDynamo:
		return NewDynamoDBStore(ctx, cfg.Dynamo, logger)
	case ModeMemory:
		logger.Info().Msg("using in-memory store (state is lost on restart)")
		return NewMemoryStore(), nil
	case ModeNone:
		logger.Info().Msg("persistence disabled (STORE_MODE=none)")
		return NewNoopStore(), nil
	default:
		logger.Info().Str("dir", cfg.Dir).Msg("using file store")
		return NewFileStore(cfg.Dir)
	}
}
