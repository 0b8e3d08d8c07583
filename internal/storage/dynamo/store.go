// Package dynamo provides a DynamoDB-backed story node store. Items carry
// the original record layout: a prefixed storyId partition key, the bare
// section id, and the node fields nested under a raw map attribute.
package dynamo

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/talendarch/storygraph/internal/storage"
	"github.com/talendarch/storygraph/internal/story"
)

// defaultScanPageSize bounds a single scan page.
const defaultScanPageSize = 100

// Client is the slice of the DynamoDB API the store uses. *dynamodb.Client
// satisfies it; tests inject fakes.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// record is the persisted item shape.
type record struct {
	StoryID string  `dynamodbav:"storyId"`
	Section string  `dynamodbav:"section"`
	Raw     rawNode `dynamodbav:"raw"`
}

type rawNode struct {
	Title   string      `dynamodbav:"title"`
	Content string      `dynamodbav:"content"`
	Options []rawOption `dynamodbav:"options"`
}

type rawOption struct {
	Text   string `dynamodbav:"text"`
	Target string `dynamodbav:"target"`
}

// Store persists story nodes in a DynamoDB table.
type Store struct {
	client   Client
	table    string
	pageSize int32
}

// New creates a store over an existing DynamoDB client.
func New(client Client, table string) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("dynamodb client is required")
	}
	table = strings.TrimSpace(table)
	if table == "" {
		return nil, fmt.Errorf("table name is required")
	}
	return &Store{client: client, table: table, pageSize: defaultScanPageSize}, nil
}

// Open loads the default AWS configuration for the region and creates a
// store over a fresh DynamoDB client.
func Open(ctx context.Context, region, table string) (*Store, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	if strings.TrimSpace(region) != "" {
		optFns = append(optFns, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return New(dynamodb.NewFromConfig(cfg), table)
}

// SetPageSize overrides the scan page size.
func (s *Store) SetPageSize(size int32) {
	if s == nil || size <= 0 {
		return
	}
	s.pageSize = size
}

// Get fetches a node by section id.
func (s *Store) Get(ctx context.Context, id string) (story.Node, error) {
	if s == nil || s.client == nil {
		return story.Node{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return story.Node{}, fmt.Errorf("section id is required")
	}

	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       storyKey(id),
	})
	if err != nil {
		return story.Node{}, fmt.Errorf("get node %s: %w", id, err)
	}
	if out.Item == nil {
		return story.Node{}, storage.ErrNotFound
	}

	var item record
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return story.Node{}, fmt.Errorf("unmarshal node %s: %w", id, err)
	}
	return item.toNode(), nil
}

// Put stores a node, replacing any previous item with the same key.
func (s *Store) Put(ctx context.Context, node story.Node) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("storage is not configured")
	}
	id := strings.TrimSpace(node.ID)
	if id == "" {
		return fmt.Errorf("section id is required")
	}

	item, err := attributevalue.MarshalMap(newRecord(node))
	if err != nil {
		return fmt.Errorf("marshal node %s: %w", id, err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("put node %s: %w", id, err)
	}
	return nil
}

// ScanPage returns one page of the table scan. The continuation token is the
// storyId of the page's LastEvaluatedKey; the scan order is whatever the
// table yields. A non-empty collection selects an alternate table.
func (s *Store) ScanPage(ctx context.Context, collection, pageToken string) (storage.Page, error) {
	if s == nil || s.client == nil {
		return storage.Page{}, fmt.Errorf("storage is not configured")
	}
	table := s.table
	if strings.TrimSpace(collection) != "" {
		table = strings.TrimSpace(collection)
	}

	input := &dynamodb.ScanInput{
		TableName: aws.String(table),
		Limit:     aws.Int32(s.pageSize),
	}
	if pageToken != "" {
		input.ExclusiveStartKey = storyKey(story.SectionFromKey(pageToken))
	}

	out, err := s.client.Scan(ctx, input)
	if err != nil {
		return storage.Page{}, fmt.Errorf("scan table %s: %w", table, err)
	}

	page := storage.Page{Nodes: make([]story.Node, 0, len(out.Items))}
	for _, rawItem := range out.Items {
		var item record
		if err := attributevalue.UnmarshalMap(rawItem, &item); err != nil {
			return storage.Page{}, fmt.Errorf("unmarshal scanned item: %w", err)
		}
		page.Nodes = append(page.Nodes, item.toNode())
	}

	if out.LastEvaluatedKey != nil {
		var lastKey struct {
			StoryID string `dynamodbav:"storyId"`
		}
		if err := attributevalue.UnmarshalMap(out.LastEvaluatedKey, &lastKey); err != nil {
			return storage.Page{}, fmt.Errorf("unmarshal continuation key: %w", err)
		}
		page.NextPageToken = lastKey.StoryID
	}
	return page, nil
}

func storyKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"storyId": &types.AttributeValueMemberS{Value: story.Key(id)},
	}
}

func newRecord(node story.Node) record {
	options := make([]rawOption, 0, len(node.Options))
	for _, opt := range node.Options {
		options = append(options, rawOption{Text: opt.Text, Target: opt.Target})
	}
	return record{
		StoryID: story.Key(node.ID),
		Section: node.ID,
		Raw: rawNode{
			Title:   node.Title,
			Content: node.Content,
			Options: options,
		},
	}
}

func (r record) toNode() story.Node {
	options := make([]story.Option, 0, len(r.Raw.Options))
	for _, opt := range r.Raw.Options {
		options = append(options, story.Option{Text: opt.Text, Target: opt.Target})
	}
	return story.Node{
		ID:      r.Section,
		Title:   r.Raw.Title,
		Content: r.Raw.Content,
		Options: options,
	}
}
