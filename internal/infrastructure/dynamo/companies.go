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

type discountItem struct {
	Limit      int     `dynamodbav:"limit"`
	Multiplier float64 `dynamodbav:"multiplier"`
}

// companyItem is the companies table layout. name_key backs the name lookup GSI.
type companyItem struct {
	Email                 string       `dynamodbav:"email"`
	PasswordHash          string       `dynamodbav:"password"`
	Name                  string       `dynamodbav:"name"`
	NameKey               string       `dynamodbav:"name_key"`
	Phone                 string       `dynamodbav:"phone"`
	Website               string       `dynamodbav:"website"`
	SubscriptionPlan      string       `dynamodbav:"subscription_plan"`
	SubscriptionStatus    string       `dynamodbav:"subscription_status"`
	SubscriptionStartDate string       `dynamodbav:"subscription_start_date"`
	SubscriptionEndDate   string       `dynamodbav:"subscription_end_date"`
	Discount              discountItem `dynamodbav:"discount"`
	Hashtags              []string     `dynamodbav:"hashtags"`
	PostImage             string       `dynamodbav:"post_image"`
	CreatedAt             int64        `dynamodbav:"created_at"`
}

func companyToItem(c *domain.Company) companyItem {
	hashtags := c.Hashtags
	if hashtags == nil {
		hashtags = []string{}
	}
	return companyItem{
		Email:                 c.Email,
		PasswordHash:          c.PasswordHash,
		Name:                  c.Name,
		NameKey:               domain.NormalizeCompanyName(c.Name),
		Phone:                 c.Phone,
		Website:               c.Website,
		SubscriptionPlan:      c.SubscriptionPlan,
		SubscriptionStatus:    c.SubscriptionStatus,
		SubscriptionStartDate: c.SubscriptionStartDate,
		SubscriptionEndDate:   c.SubscriptionEndDate,
		Discount:              discountItem{Limit: c.Discount.Limit, Multiplier: c.Discount.Multiplier},
		Hashtags:              hashtags,
		PostImage:             c.PostImage,
		CreatedAt:             c.CreatedAt.Unix(),
	}
}

func (i companyItem) toDomain() *domain.Company {
	return &domain.Company{
		Email:                 i.Email,
		PasswordHash:          i.PasswordHash,
		Name:                  i.Name,
		Phone:                 i.Phone,
		Website:               i.Website,
		SubscriptionPlan:      i.SubscriptionPlan,
		SubscriptionStatus:    i.SubscriptionStatus,
		SubscriptionStartDate: i.SubscriptionStartDate,
		SubscriptionEndDate:   i.SubscriptionEndDate,
		Discount:              domain.Discount{Limit: i.Discount.Limit, Multiplier: i.Discount.Multiplier},
		Hashtags:              append([]string{}, i.Hashtags...),
		PostImage:             i.PostImage,
		CreatedAt:             time.Unix(i.CreatedAt, 0).UTC(),
	}
}

// CompanyRepo provides typed DynamoDB operations for the companies table.
type CompanyRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCompanyRepo(client *dynamodb.Client, tableName string) *CompanyRepo {
	return &CompanyRepo{client: client, tableName: tableName}
}

// Create inserts a new company; an existing email yields ErrConflict.
func (r *CompanyRepo) Create(ctx context.Context, c *domain.Company) error {
	item, err := attributevalue.MarshalMap(companyToItem(c))
	if err != nil {
		return fmt.Errorf("marshal company: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#e)"),
		ExpressionAttributeNames: map[string]string{"#e": fieldEmail},
	})
	if err != nil {
		return storageErr("create company", err)
	}
	return nil
}

func (r *CompanyRepo) Get(ctx context.Context, email string) (*domain.Company, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldEmail, email),
	})
	if err != nil {
		return nil, storageErr("get company", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("company not found: %w", domain.ErrNotFound)
	}
	var item companyItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal company: %w", err)
	}
	return item.toDomain(), nil
}

// GetByName looks a company up by its normalized name.
func (r *CompanyRepo) GetByName(ctx context.Context, name string) (*domain.Company, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		IndexName:                aws.String(indexCompanyByName),
		KeyConditionExpression:   aws.String("#n = :n"),
		ExpressionAttributeNames: map[string]string{"#n": fieldNameKey},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":n": &types.AttributeValueMemberS{Value: domain.NormalizeCompanyName(name)},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, storageErr("get company by name", err)
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("company not found: %w", domain.ErrNotFound)
	}
	var item companyItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return nil, fmt.Errorf("unmarshal company: %w", err)
	}
	return item.toDomain(), nil
}

// UpdateDiscount replaces the discount settings.
func (r *CompanyRepo) UpdateDiscount(ctx context.Context, email string, d domain.Discount) error {
	return r.Update(ctx, email, map[string]interface{}{
		fieldDiscount: discountItem{Limit: d.Limit, Multiplier: d.Multiplier},
	})
}

// UpdatePostTags replaces the hashtag list and, when postImage is non-empty, the post asset key.
func (r *CompanyRepo) UpdatePostTags(ctx context.Context, email string, hashtags []string, postImage string) error {
	if hashtags == nil {
		hashtags = []string{}
	}
	updates := map[string]interface{}{fieldHashtags: hashtags}
	if postImage != "" {
		updates[fieldPostImage] = postImage
	}
	return r.Update(ctx, email, updates)
}

// Update applies a partial SET over an existing company.
func (r *CompanyRepo) Update(ctx context.Context, email string, updates map[string]interface{}) error {
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	ue.Names["#pk"] = fieldEmail
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(fieldEmail, email),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err != nil {
		return notFoundOnConflict(storageErr("update company", err))
	}
	return nil
}
