package auth

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Claims 会員IDを sub に持つJWTクレーム
type Claims struct {
	jwt.RegisteredClaims
}

// JWTValidator HS256で署名されたアクセストークンを検証する
type JWTValidator struct {
	secret []byte
}

// NewJWTValidator シークレットからバリデータを作成
func NewJWTValidator(secret string) (*JWTValidator, error) {
	if secret == "" {
		return nil, errors.New("JWT_SECRET が設定されていません")
	}
	return &JWTValidator{secret: []byte(secret)}, nil
}

// ValidateToken トークンを検証して会員IDを返す
func (v *JWTValidator) ValidateToken(tokenString string) (int64, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("トークンの解析に失敗: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return 0, errors.New("無効なトークンクレーム")
	}

	memberID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("subが会員IDではありません: %w", err)
	}
	return memberID, nil
}
