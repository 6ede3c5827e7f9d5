package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/smart-referral-api/internal/domain"
)

// batchWriteLimit is the maximum number of requests DynamoDB accepts per BatchWriteItem.
const batchWriteLimit = 25

type linkItem struct {
	ID          string `dynamodbav:"id"` // company_name#step_name#platform
	CompanyName string `dynamodbav:"company_name"`
	StepName    string `dynamodbav:"step_name"`
	Platform    string `dynamodbav:"platform"`
	Link        string `dynamodbav:"link"`
	CreatedAt   int64  `dynamodbav:"created_at"`
}

func linkToItem(l domain.ReferralLink) linkItem {
	return linkItem{
		ID:          l.ID(),
		CompanyName: l.CompanyName,
		StepName:    l.StepName,
		Platform:    l.Platform,
		Link:        l.Link,
		CreatedAt:   l.CreatedAt.Unix(),
	}
}

func (i linkItem) toDomain() domain.ReferralLink {
	return domain.ReferralLink{
		CompanyName: i.CompanyName,
		StepName:    i.StepName,
		Platform:    i.Platform,
		Link:        i.Link,
		CreatedAt:   time.Unix(i.CreatedAt, 0).UTC(),
	}
}

// LinkRepo provides typed DynamoDB operations for the referral links table.
type LinkRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewLinkRepo(client *dynamodb.Client, tableName string) *LinkRepo {
	return &LinkRepo{client: client, tableName: tableName}
}

func (r *LinkRepo) Put(ctx context.Context, l domain.ReferralLink) error {
	item, err := attributevalue.MarshalMap(linkToItem(l))
	if err != nil {
		return fmt.Errorf("marshal link: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return storageErr("put link", err)
	}
	return nil
}

// BatchPut writes links in chunks of 25. Unprocessed items are reported as a storage error.
func (r *LinkRepo) BatchPut(ctx context.Context, links []domain.ReferralLink) error {
	for start := 0; start < len(links); start += batchWriteLimit {
		end := min(start+batchWriteLimit, len(links))
		reqs := make([]types.WriteRequest, 0, end-start)
		for _, l := range links[start:end] {
			item, err := attributevalue.MarshalMap(linkToItem(l))
			if err != nil {
				return fmt.Errorf("marshal link: %w", err)
			}
			reqs = append(reqs, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
		}
		out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{r.tableName: reqs},
		})
		if err != nil {
			return storageErr("batch put links", err)
		}
		if n := len(out.UnprocessedItems[r.tableName]); n > 0 {
			return fmt.Errorf("batch put links: %d unprocessed: %w", n, domain.ErrStorage)
		}
	}
	return nil
}

// ListByStep returns the links of one company for one campaign step.
func (r *LinkRepo) ListByStep(ctx context.Context, companyName, step string) ([]domain.ReferralLink, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(indexLinksByStep),
		KeyConditionExpression: aws.String("#c = :c AND #s = :s"),
		ExpressionAttributeNames: map[string]string{
			"#c": fieldCompanyName,
			"#s": fieldStepName,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: companyName},
			":s": &types.AttributeValueMemberS{Value: step},
		},
	})
	if err != nil {
		return nil, storageErr("list links", err)
	}
	var items []linkItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, fmt.Errorf("unmarshal links: %w", err)
	}
	links := make([]domain.ReferralLink, 0, len(items))
	for _, it := range items {
		links = append(links, it.toDomain())
	}
	return links, nil
}
