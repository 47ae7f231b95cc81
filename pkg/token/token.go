package token

import (
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hertz-contrib/jwt"

	"CareOnboard/config"
	"CareOnboard/pkg/errors"
)

const (
	IdentityKey = "uid"
	issuer      = "careonboard"

	typeRefresh = "refresh"
)

// jwt 中间件和签发共用同一个实例
var sharedGenerator *jwt.HertzJWTMiddleware

// Claims 令牌载荷；uid 为手机号哈希，refresh token 额外带 type 和 jti
type Claims struct {
	UID  string `json:"uid"`
	Type string `json:"type,omitempty"`
	jwtv5.RegisteredClaims
}

func Init() error {
	gen, err := jwt.New(&jwt.HertzJWTMiddleware{
		Key:         []byte(config.Cfg.JWTSecret),
		Timeout:     accessTTL(),
		MaxRefresh:  refreshTTL(),
		IdentityKey: IdentityKey,
		TimeFunc:    time.Now,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token generator: %w", err)
	}
	sharedGenerator = gen
	return nil
}

// GetGenerator 供 middleware 读取密钥和时长
func GetGenerator() *jwt.HertzJWTMiddleware {
	return sharedGenerator
}

func accessTTL() time.Duration {
	return time.Duration(config.Cfg.JWTExpireMinutes) * time.Minute
}

// RefreshTTL refresh token 有效期，redis 里的副本用同样的 TTL
func RefreshTTL() time.Duration {
	return refreshTTL()
}

func refreshTTL() time.Duration {
	return time.Duration(config.Cfg.JWTRefreshDays) * 24 * time.Hour
}

func sign(c Claims) (string, error) {
	return jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, c).SignedString([]byte(config.Cfg.JWTSecret))
}

// GenerateTokenPair 手机验证通过或刷新时签发一对令牌
func GenerateTokenPair(uid string) (accessToken, refreshToken string, expiresIn int, err error) {
	if sharedGenerator == nil {
		return "", "", 0, errors.ErrTokenGeneratorNotInitialized
	}

	now := time.Now()
	accessExp := now.Add(accessTTL())

	accessToken, err = sign(Claims{
		UID: uid,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(accessExp),
		},
	})
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err = sign(Claims{
		UID:  uid,
		Type: typeRefresh,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(refreshTTL())),
		},
	})
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return accessToken, refreshToken, int(accessExp.Sub(now).Seconds()), nil
}

// ValidateRefreshToken 校验签名、签发方、类型后返回 uid
func ValidateRefreshToken(tokenString string) (string, error) {
	var c Claims
	tok, err := jwtv5.ParseWithClaims(tokenString, &c, func(*jwtv5.Token) (interface{}, error) {
		return []byte(config.Cfg.JWTSecret), nil
	}, jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}), jwtv5.WithIssuer(issuer))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}
	if !tok.Valid {
		return "", errors.ErrInvalidToken
	}
	if c.Type != typeRefresh {
		return "", errors.ErrInvalidTokenType
	}
	if c.UID == "" {
		return "", errors.ErrUserIDNotFound
	}
	return c.UID, nil
}
