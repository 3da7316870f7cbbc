package middleware

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/patrickmn/go-cache"

	"go-agrisense/utils"
)

// gin 上下文中的键
const (
	ContextUserID  = "userID"
	ContextTokenID = "tokenID"
	ContextExpiry  = "tokenExpiry"
)

// ErrTokenRevoked 令牌已注销
var ErrTokenRevoked = errors.New("token has been revoked")

// Claims 定义JWT的声明结构
type Claims struct {
	UserID int `json:"userID"`
	jwt.RegisteredClaims
}

// TokenIssuer 签发与校验 HS256 令牌
type TokenIssuer struct {
	secret  []byte
	ttl     time.Duration
	revoked *cache.Cache
	now     func() time.Time
}

// NewTokenIssuer 创建签发器，注销列表条目在令牌过期后自动清理
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: cache.New(ttl, time.Hour),
		now:     time.Now,
	}
}

// Issue 生成JWT令牌
func (t *TokenIssuer) Issue(userID int) (string, error) {
	jti, err := utils.NewTokenID()
	if err != nil {
		return "", fmt.Errorf("generate token id: %w", err)
	}
	now := t.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

// Parse 校验签名、有效期与注销状态
func (t *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if _, revoked := t.revoked.Get(claims.ID); revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// Revoke 注销令牌直到其过期
func (t *TokenIssuer) Revoke(tokenID string, expiresAt time.Time) {
	ttl := expiresAt.Sub(t.now())
	if ttl <= 0 {
		return
	}
	t.revoked.Set(tokenID, struct{}{}, ttl)
}

// AuthMiddleware 验证JWT Token的中间件
func AuthMiddleware(issuer *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authorization := c.GetHeader("Authorization")
		if authorization == "" {
			utils.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authorization, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			utils.Unauthorized(c, "Authorization header format must be Bearer {token}")
			c.Abort()
			return
		}

		claims, err := issuer.Parse(parts[1])
		if err != nil {
			utils.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextTokenID, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(ContextExpiry, claims.ExpiresAt.Time)
		}
		c.Next()
	}
}
