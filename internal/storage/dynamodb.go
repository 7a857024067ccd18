package storage

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"

	"github.com/qepting91/reddit-grid/internal/config"
	"github.com/qepting91/reddit-grid/internal/domain"
)

var _ domain.GroupStore = (*DynamoDBStore)(nil)

// DynamoDBStore keys items by group_name (hash) and seq (range), so a query
// on one group returns its posts in append order. Each group's item at seq 0
// is its counter; stars start at 1.
type DynamoDBStore struct {
	client    *dynamodb.DynamoDB
	tableName string
}

const counterAttr = "next_seq"

type starItem struct {
	GroupName string `dynamodbav:"group_name"`
	Seq       int64  `dynamodbav:"seq"`
	PostID    string `dynamodbav:"post_id"`
	PostData  string `dynamodbav:"post_data"`
	CreatedAt string `dynamodbav:"created_at"`
}

func NewDynamoDBStore(cfg config.StorageConfig) (*DynamoDBStore, error) {
	awsConfig := &aws.Config{
		Region: aws.String(cfg.Region),
	}

	// For DynamoDB Local
	if cfg.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	store := &DynamoDBStore{
		client:    dynamodb.New(sess),
		tableName: cfg.TableName,
	}
	if err := store.ensureTable(); err != nil {
		return nil, fmt.Errorf("failed to ensure table exists: %w", err)
	}
	return store, nil
}

func (d *DynamoDBStore) ensureTable() error {
	_, err := d.client.DescribeTable(&dynamodb.DescribeTableInput{
		TableName: aws.String(d.tableName),
	})
	if err == nil {
		return nil
	}

	input := &dynamodb.CreateTableInput{
		TableName: aws.String(d.tableName),
		KeySchema: []*dynamodb.KeySchemaElement{
			{AttributeName: aws.String("group_name"), KeyType: aws.String(dynamodb.KeyTypeHash)},
			{AttributeName: aws.String("seq"), KeyType: aws.String(dynamodb.KeyTypeRange)},
		},
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{AttributeName: aws.String("group_name"), AttributeType: aws.String(dynamodb.ScalarAttributeTypeS)},
			{AttributeName: aws.String("seq"), AttributeType: aws.String(dynamodb.ScalarAttributeTypeN)},
		},
		BillingMode: aws.String(dynamodb.BillingModePayPerRequest),
	}
	if _, err := d.client.CreateTable(input); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	return d.client.WaitUntilTableExists(&dynamodb.DescribeTableInput{
		TableName: aws.String(d.tableName),
	})
}

func (d *DynamoDBStore) AppendPost(ctx context.Context, group string, post domain.Post) error {
	data, err := encodePost(post)
	if err != nil {
		return err
	}

	seq, err := d.nextSeq(ctx, group)
	if err != nil {
		return err
	}

	item, err := dynamodbattribute.MarshalMap(starItem{
		GroupName: group,
		Seq:       seq,
		PostID:    post.ID,
		PostData:  data,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal star %s: %w", post.ID, err)
	}

	_, err = d.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(d.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(seq)"),
	})
	if err != nil {
		return fmt.Errorf("failed to store star %s into %s: %w", post.ID, group, err)
	}
	return nil
}

func nextSeqInput(table, group string) *dynamodb.UpdateItemInput {
	return &dynamodb.UpdateItemInput{
		TableName: aws.String(table),
		Key: map[string]*dynamodb.AttributeValue{
			"group_name": {S: aws.String(group)},
			"seq":        {N: aws.String("0")},
		},
		UpdateExpression: aws.String("ADD " + counterAttr + " :one"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":one": {N: aws.String("1")},
		},
		ReturnValues: aws.String(dynamodb.ReturnValueUpdatedNew),
	}
}

func (d *DynamoDBStore) nextSeq(ctx context.Context, group string) (int64, error) {
	out, err := d.client.UpdateItemWithContext(ctx, nextSeqInput(d.tableName, group))
	if err != nil {
		return 0, fmt.Errorf("failed to advance counter for %s: %w", group, err)
	}
	v, ok := out.Attributes[counterAttr]
	if !ok || v.N == nil {
		return 0, fmt.Errorf("counter for %s missing from response", group)
	}
	return strconv.ParseInt(*v.N, 10, 64)
}

func groupQueryInput(table, group string) *dynamodb.QueryInput {
	return &dynamodb.QueryInput{
		TableName:              aws.String(table),
		KeyConditionExpression: aws.String("group_name = :g AND seq > :counter"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":g":       {S: aws.String(group)},
			":counter": {N: aws.String("0")},
		},
		ScanIndexForward: aws.Bool(true),
	}
}

func (d *DynamoDBStore) GroupPosts(ctx context.Context, group string) ([]domain.Post, error) {
	input := groupQueryInput(d.tableName, group)

	posts := []domain.Post{}
	var decodeErr error
	err := d.client.QueryPagesWithContext(ctx, input, func(page *dynamodb.QueryOutput, _ bool) bool {
		var items []starItem
		if err := dynamodbattribute.UnmarshalListOfMaps(page.Items, &items); err != nil {
			decodeErr = fmt.Errorf("failed to unmarshal stars: %w", err)
			return false
		}
		for _, item := range items {
			p, err := decodePost(item.PostData)
			if err != nil {
				decodeErr = err
				return false
			}
			posts = append(posts, p)
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query group %s: %w", group, err)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return posts, nil
}

// ListGroups scans the hash key attribute of the whole table.
func (d *DynamoDBStore) ListGroups(ctx context.Context) ([]string, error) {
	input := &dynamodb.ScanInput{
		TableName:            aws.String(d.tableName),
		ProjectionExpression: aws.String("group_name"),
	}

	seen := make(map[string]bool)
	err := d.client.ScanPagesWithContext(ctx, input, func(page *dynamodb.ScanOutput, _ bool) bool {
		for _, item := range page.Items {
			if v, ok := item["group_name"]; ok && v.S != nil {
				seen[*v.S] = true
			}
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan groups: %w", err)
	}

	groups := make([]string, 0, len(seen))
	for name := range seen {
		groups = append(groups, name)
	}
	sort.Strings(groups)
	return groups, nil
}

// Close is a no-op; the DynamoDB client holds no connection to release.
func (d *DynamoDBStore) Close() error {
	return nil
}
