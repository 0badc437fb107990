package domain

// OTPChallenge stores a pending signup verification code, decoupled from the
// account record. PK: email, SK: role.
// ExpiresAt is a Unix timestamp used as DynamoDB TTL; TTL eviction is lazy, so
// the expiry comparison in the account service stays authoritative.
type OTPChallenge struct {
	Email     string `json:"email" dynamodbav:"email"`
	Role      Role   `json:"role" dynamodbav:"role"`
	Code      string `json:"code" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}
