package model

import "time"

// OTPTransaction 一次验证码下发对应的事务，code 只保存哈希
type OTPTransaction struct {
	ID          string    `json:"id"`
	PhoneHash   string    `json:"phone_hash"`
	PhoneNumber string    `json:"phone_number"`
	CodeHash    string    `json:"code_hash"`
	Attempts    int       `json:"attempts"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (t *OTPTransaction) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
