package model

// AuthUserSnapshot 验证或刷新后返回的用户概览
type AuthUserSnapshot struct {
	ID            string `json:"id"`
	FullName      string `json:"full_name"`
	Status        string `json:"status"`
	PhoneVerified bool   `json:"phone_verified"`
	IsNewUser     bool   `json:"is_new_user"`
}

// TokenPair 签发给前端的令牌
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

// RefreshTokenRequest 刷新令牌请求体
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshTokenResponseData 刷新令牌响应
type RefreshTokenResponseData struct {
	TokenPair
	User AuthUserSnapshot `json:"user"`
}
