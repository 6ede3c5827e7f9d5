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

type friendItem struct {
	Name  string `dynamodbav:"name"`
	Email string `dynamodbav:"email"`
	Phone string `dynamodbav:"phone"`
}

// userItem is the users table layout. created_at is Unix seconds.
type userItem struct {
	Email          string         `dynamodbav:"email"`
	PasswordHash   string         `dynamodbav:"password"`
	Name           string         `dynamodbav:"name"`
	CompanyName    string         `dynamodbav:"company_name"`
	CompanyEmail   string         `dynamodbav:"company_email"`
	CreatedAt      int64          `dynamodbav:"created_at"`
	TermsAccepted  bool           `dynamodbav:"terms_accepted"`
	TotalReferrals int            `dynamodbav:"total_referrals"`
	Friends        [][]friendItem `dynamodbav:"friends"`
	ReferralsScore []int          `dynamodbav:"referrals_score"`
}

func userToItem(u *domain.User) userItem {
	item := userItem{
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		Name:           u.Name,
		CompanyName:    u.CompanyName,
		CompanyEmail:   u.CompanyEmail,
		CreatedAt:      u.CreatedAt.Unix(),
		TermsAccepted:  u.TermsAccepted,
		TotalReferrals: u.TotalReferrals,
		Friends:        make([][]friendItem, 0, len(u.Friends)),
		ReferralsScore: make([]int, 0, len(u.ReferralsScore)),
	}
	for _, group := range u.Friends {
		item.Friends = append(item.Friends, friendsToItems(group))
	}
	item.ReferralsScore = append(item.ReferralsScore, u.ReferralsScore...)
	return item
}

func (i userItem) toDomain() *domain.User {
	u := &domain.User{
		Email:          i.Email,
		PasswordHash:   i.PasswordHash,
		Name:           i.Name,
		CompanyName:    i.CompanyName,
		CompanyEmail:   i.CompanyEmail,
		CreatedAt:      time.Unix(i.CreatedAt, 0).UTC(),
		TermsAccepted:  i.TermsAccepted,
		TotalReferrals: i.TotalReferrals,
		Friends:        make([][]domain.Friend, 0, len(i.Friends)),
		ReferralsScore: append([]int{}, i.ReferralsScore...),
	}
	for _, group := range i.Friends {
		friends := make([]domain.Friend, 0, len(group))
		for _, f := range group {
			friends = append(friends, domain.Friend{Name: f.Name, Email: f.Email, Phone: f.Phone})
		}
		u.Friends = append(u.Friends, friends)
	}
	return u
}

func friendsToItems(friends []domain.Friend) []friendItem {
	out := make([]friendItem, 0, len(friends))
	for _, f := range friends {
		out = append(out, friendItem{Name: f.Name, Email: f.Email, Phone: f.Phone})
	}
	return out
}

// UserRepo provides typed DynamoDB operations for the customers (users) table.
type UserRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewUserRepo(client *dynamodb.Client, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName}
}

// Create inserts a new user; an existing email yields ErrConflict.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	item, err := attributevalue.MarshalMap(userToItem(u))
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#e)"),
		ExpressionAttributeNames: map[string]string{"#e": fieldEmail},
	})
	if err != nil {
		return storageErr("create user", err)
	}
	return nil
}

func (r *UserRepo) Get(ctx context.Context, email string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            strKey(fieldEmail, email),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, storageErr("get user", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var item userItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return item.toDomain(), nil
}

// AppendFriends atomically appends one friends group and returns the new number of groups.
func (r *UserRepo) AppendFriends(ctx context.Context, email string, group []domain.Friend) (int, error) {
	groupAV, err := attributevalue.Marshal([][]friendItem{friendsToItems(group)})
	if err != nil {
		return 0, fmt.Errorf("marshal friends: %w", err)
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldEmail, email),
		UpdateExpression:    aws.String("SET #fr = list_append(if_not_exists(#fr, :empty), :group)"),
		ConditionExpression: aws.String("attribute_exists(#e)"),
		ExpressionAttributeNames: map[string]string{
			"#fr": fieldFriends,
			"#e":  fieldEmail,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":empty": emptyList(),
			":group": groupAV,
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, notFoundOnConflict(storageErr("append friends", err))
	}
	groups, _ := out.Attributes[fieldFriends].(*types.AttributeValueMemberL)
	if groups == nil {
		return 0, nil
	}
	return len(groups.Value), nil
}

// RecordOutcome atomically increments total_referrals and appends score,
// returning the counter value after the increment.
func (r *UserRepo) RecordOutcome(ctx context.Context, email string, score int) (int, error) {
	scoreAV, err := attributevalue.Marshal([]int{score})
	if err != nil {
		return 0, fmt.Errorf("marshal score: %w", err)
	}
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldEmail, email),
		UpdateExpression:    aws.String("ADD #tr :one SET #rs = list_append(if_not_exists(#rs, :empty), :score)"),
		ConditionExpression: aws.String("attribute_exists(#e)"),
		ExpressionAttributeNames: map[string]string{
			"#tr": fieldTotalReferrals,
			"#rs": fieldReferralsScore,
			"#e":  fieldEmail,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one":   &types.AttributeValueMemberN{Value: "1"},
			":empty": emptyList(),
			":score": scoreAV,
		},
		ReturnValues: types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, notFoundOnConflict(storageErr("record outcome", err))
	}
	var total int
	if av, ok := out.Attributes[fieldTotalReferrals]; ok {
		if err := attributevalue.Unmarshal(av, &total); err != nil {
			return 0, fmt.Errorf("unmarshal total_referrals: %w", err)
		}
	}
	return total, nil
}

// GetTotalReferrals reads only the submission counter.
func (r *UserRepo) GetTotalReferrals(ctx context.Context, email string) (int, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey(fieldEmail, email),
		ProjectionExpression:     aws.String("#tr"),
		ExpressionAttributeNames: map[string]string{"#tr": fieldTotalReferrals},
		ConsistentRead:           aws.Bool(true),
	})
	if err != nil {
		return 0, storageErr("get total referrals", err)
	}
	if out.Item == nil {
		return 0, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var item struct {
		TotalReferrals int `dynamodbav:"total_referrals"`
	}
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return 0, fmt.Errorf("unmarshal total_referrals: %w", err)
	}
	return item.TotalReferrals, nil
}

// ListByCompany returns every customer bound to companyEmail via the company_email GSI.
func (r *UserRepo) ListByCompany(ctx context.Context, companyEmail string) ([]domain.User, error) {
	p := dynamodb.NewQueryPaginator(r.client, &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		IndexName:                aws.String(indexUsersByCompany),
		KeyConditionExpression:   aws.String("#ce = :ce"),
		ExpressionAttributeNames: map[string]string{"#ce": fieldCompanyEmail},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ce": &types.AttributeValueMemberS{Value: companyEmail},
		},
	})
	var users []domain.User
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, storageErr("list users by company", err)
		}
		var items []userItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal users: %w", err)
		}
		for _, it := range items {
			users = append(users, *it.toDomain())
		}
	}
	return users, nil
}

func (r *UserRepo) SetTermsAccepted(ctx context.Context, email string, accepted bool) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey(fieldEmail, email),
		UpdateExpression:    aws.String("SET #ta = :ta"),
		ConditionExpression: aws.String("attribute_exists(#e)"),
		ExpressionAttributeNames: map[string]string{
			"#ta": fieldTermsAccepted,
			"#e":  fieldEmail,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ta": &types.AttributeValueMemberBOOL{Value: accepted},
		},
	})
	if err != nil {
		return notFoundOnConflict(storageErr("update terms acceptance", err))
	}
	return nil
}
