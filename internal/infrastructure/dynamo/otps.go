package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/go-auth-api/internal/domain"
)

// OTPRepo manages one-time-password records. PK: user_id, so each user has
// at most one live code and a fresh issuance overwrites the previous one
// (last writer wins).
type OTPRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewOTPRepo(client *dynamodb.Client, tableName string) *OTPRepo {
	return &OTPRepo{client: client, tableName: tableName}
}

// Upsert writes the record, replacing any outstanding code for the user.
func (r *OTPRepo) Upsert(ctx context.Context, o *domain.OTP) error {
	item, err := attributevalue.MarshalMap(o)
	if err != nil {
		return fmt.Errorf("marshal otp: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// Consume atomically deletes the record if and only if the stored code
// matches, returning the old record so the caller can judge expiry. The
// conditional delete makes double-consume races impossible: exactly one
// concurrent caller observes the record.
func (r *OTPRepo) Consume(ctx context.Context, userID, code string) (*domain.OTP, error) {
	out, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("user_id", userID),
		ConditionExpression:       aws.String("code = :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":c": &types.AttributeValueMemberS{Value: code}},
		ReturnValues:              types.ReturnValueAllOld,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, fmt.Errorf("otp not found: %w", domain.ErrNotFound)
		}
		return nil, err
	}
	if out.Attributes == nil {
		return nil, fmt.Errorf("otp not found: %w", domain.ErrNotFound)
	}
	var o domain.OTP
	if err := attributevalue.UnmarshalMap(out.Attributes, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

// Delete removes any outstanding record for the user unconditionally.
func (r *OTPRepo) Delete(ctx context.Context, userID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("user_id", userID),
	})
	return err
}
