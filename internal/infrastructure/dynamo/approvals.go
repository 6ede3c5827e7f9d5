package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/smart-referral-api/internal/domain"
)

// approvalItem is keyed by {email}#form{index}. reason is always written,
// as an empty string when approved without comment.
type approvalItem struct {
	ID         string `dynamodbav:"id"`
	UserEmail  string `dynamodbav:"user_email"`
	FormIndex  int    `dynamodbav:"form_index"`
	IsApproved bool   `dynamodbav:"is_approved"`
	Reason     string `dynamodbav:"reason"`
	UpdatedAt  string `dynamodbav:"updated_at"`
}

func approvalToItem(a *domain.FormApproval) approvalItem {
	return approvalItem{
		ID:         domain.ApprovalKey(a.UserEmail, a.FormIndex),
		UserEmail:  a.UserEmail,
		FormIndex:  a.FormIndex,
		IsApproved: a.IsApproved,
		Reason:     a.Reason,
		UpdatedAt:  a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func (i approvalItem) toDomain() *domain.FormApproval {
	updated, _ := time.Parse(time.RFC3339, i.UpdatedAt)
	return &domain.FormApproval{
		UserEmail:  i.UserEmail,
		FormIndex:  i.FormIndex,
		IsApproved: i.IsApproved,
		Reason:     i.Reason,
		UpdatedAt:  updated,
	}
}

// ApprovalRepo provides typed DynamoDB operations for the form approvals table.
type ApprovalRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewApprovalRepo(client *dynamodb.Client, tableName string) *ApprovalRepo {
	return &ApprovalRepo{client: client, tableName: tableName}
}

// Put overwrites any previous decision for the same submission.
func (r *ApprovalRepo) Put(ctx context.Context, a *domain.FormApproval) error {
	item, err := attributevalue.MarshalMap(approvalToItem(a))
	if err != nil {
		return fmt.Errorf("marshal approval: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return storageErr("put approval", err)
	}
	return nil
}

func (r *ApprovalRepo) Get(ctx context.Context, email string, index int) (*domain.FormApproval, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(fieldID, domain.ApprovalKey(email, index)),
	})
	if err != nil {
		return nil, storageErr("get approval", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("approval not found: %w", domain.ErrNotFound)
	}
	var item approvalItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal approval: %w", err)
	}
	return item.toDomain(), nil
}
