package domain

// OTP is the one-time-password record. PK: user_id — at most one live code
// per user; a new issuance overwrites any prior unconsumed code.
// ExpiresAt is a Unix timestamp doubling as the DynamoDB TTL attribute.
type OTP struct {
	UserID    string `json:"user_id" dynamodbav:"user_id"`
	Code      string `json:"-" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"`
}
