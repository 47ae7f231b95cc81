package verification

import "context"

// Identity 验证通过后的身份，UID 为手机号加盐哈希
type Identity struct {
	UID         string `json:"uid"`
	PhoneNumber string `json:"phone_number"`
}

// Provider 身份验证服务：下发验证码、校验验证码
type Provider interface {
	// RequestCode 给 E.164 手机号下发验证码，返回事务 id
	RequestCode(ctx context.Context, phoneE164 string) (string, error)
	// CheckCode 按事务 id 校验验证码
	CheckCode(ctx context.Context, transactionID, code string) (Identity, error)
}
