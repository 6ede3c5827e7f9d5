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

// tokenRetention is how long a token row lives before DynamoDB TTL removes it.
// Expiry itself is decided from created_at at validation time, not by this.
const tokenRetention = 24 * time.Hour

type signupTokenItem struct {
	Token       string `dynamodbav:"token"`
	CompanyName string `dynamodbav:"company_name"`
	CreatedAt   int64  `dynamodbav:"created_at"` // Unix milliseconds
	Used        bool   `dynamodbav:"used"`
	ExpiresAt   int64  `dynamodbav:"expires_at"` // TTL (Unix seconds)
}

// signupTokenToItem keeps created_at at millisecond precision so the expiry
// boundary is not shifted by truncation.
func signupTokenToItem(t *domain.SignupToken) signupTokenItem {
	return signupTokenItem{
		Token:       t.Token,
		CompanyName: t.CompanyName,
		CreatedAt:   t.CreatedAt.UnixMilli(),
		Used:        t.Used,
		ExpiresAt:   t.CreatedAt.Add(tokenRetention).Unix(),
	}
}

func (i signupTokenItem) toDomain() *domain.SignupToken {
	return &domain.SignupToken{
		Token:       i.Token,
		CompanyName: i.CompanyName,
		CreatedAt:   time.UnixMilli(i.CreatedAt).UTC(),
		Used:        i.Used,
	}
}

// SignupTokenRepo manages customer invitation tokens.
type SignupTokenRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSignupTokenRepo(client *dynamodb.Client, tableName string) *SignupTokenRepo {
	return &SignupTokenRepo{client: client, tableName: tableName}
}

// Put creates a token row; an existing token yields ErrConflict.
func (r *SignupTokenRepo) Put(ctx context.Context, t *domain.SignupToken) error {
	item, err := attributevalue.MarshalMap(signupTokenToItem(t))
	if err != nil {
		return fmt.Errorf("marshal signup token: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#t)"),
		ExpressionAttributeNames: map[string]string{"#t": fieldToken},
	})
	if err != nil {
		return storageErr("put signup token", err)
	}
	return nil
}

func (r *SignupTokenRepo) Get(ctx context.Context, token string) (*domain.SignupToken, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldToken, token),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, storageErr("get signup token", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("signup token not found: %w", domain.ErrNotFound)
	}
	var item signupTokenItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal signup token: %w", err)
	}
	return item.toDomain(), nil
}

// MarkUsed flips used to true only if the token exists and is still unused;
// otherwise ErrConflict.
func (r *SignupTokenRepo) MarkUsed(ctx context.Context, token string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldToken, token),
		UpdateExpression:    aws.String("SET #u = :t"),
		ConditionExpression: aws.String("attribute_exists(#tk) AND #u = :f"),
		ExpressionAttributeNames: map[string]string{
			"#u":  fieldUsed,
			"#tk": fieldToken,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
			":f": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if err != nil {
		return storageErr("mark signup token used", err)
	}
	return nil
}

// Delete permanently removes a token (no soft delete for tokens).
func (r *SignupTokenRepo) Delete(ctx context.Context, token string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldToken, token),
	})
	if err != nil {
		return storageErr("delete signup token", err)
	}
	return nil
}
