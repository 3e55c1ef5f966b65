package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/classifieds-api/internal/domain"
)

// Attribute names used in update expressions and condition expressions.
const (
	fieldVerified             = "verified"
	fieldVerificationCodeHash = "verification_code_hash"
	fieldUpdatedAt            = "updated_at"
)

// AccountRepo provides typed DynamoDB operations for the accounts table.
//
// The partition key is the account email. Callers are expected to pass emails
// through domain.NormalizeEmail before every call; the repo normalizes again
// defensively so the invariant cannot be broken by a missed boundary.
type AccountRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAccountRepo(client *dynamodb.Client, tableName string) *AccountRepo {
	return &AccountRepo{client: client, tableName: tableName}
}

// Create inserts a new account. The conditional put makes create-if-absent
// atomic: two concurrent signups for the same email cannot both succeed.
// Returns domain.ErrConflict when the email is already registered.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	a.Email = domain.NormalizeEmail(a.Email)
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(email)"),
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	return err
}

// GetByEmail reads an account by its normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("email", domain.NormalizeEmail(email)),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Item, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// GetByID resolves an account through the account_id-index GSI.
func (r *AccountRepo) GetByID(ctx context.Context, accountID string) (*domain.Account, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("account_id-index"),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": "account_id"},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: accountID}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Items[0], &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Save writes the whole record back. Used when several fields change at once
// (e.g. attaching a federated identity to an existing account).
func (r *AccountRepo) Save(ctx context.Context, a *domain.Account) error {
	a.Email = domain.NormalizeEmail(a.Email)
	a.UpdatedAt = time.Now().UTC()
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// Update applies a partial update to the account record.
func (r *AccountRepo) Update(ctx context.Context, email string, updates map[string]interface{}) error {
	updates[fieldUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("email", domain.NormalizeEmail(email)),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

// MarkVerified flips the account to verified and clears the stale code hash in
// one conditional write. The condition makes redemption at-most-once: of two
// concurrent valid attempts only one write succeeds, the other gets
// domain.ErrConflict and is reported as already verified.
func (r *AccountRepo) MarkVerified(ctx context.Context, email string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("email", domain.NormalizeEmail(email)),
		UpdateExpression: aws.String(
			"SET #v = :t, #c = :empty, #u = :now"),
		ConditionExpression: aws.String("attribute_exists(email) AND #v = :f"),
		ExpressionAttributeNames: map[string]string{
			"#v": fieldVerified,
			"#c": fieldVerificationCodeHash,
			"#u": fieldUpdatedAt,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":     &types.AttributeValueMemberBOOL{Value: true},
			":f":     &types.AttributeValueMemberBOOL{Value: false},
			":empty": &types.AttributeValueMemberS{Value: ""},
			":now":   &types.AttributeValueMemberS{Value: now},
		},
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("account already verified: %w", domain.ErrConflict)
	}
	return err
}
