package util

import (
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/heyirisdotdev/hades-kitten/config"
)

// GenerateAdminToken 为管理员签发访问令牌
func GenerateAdminToken() (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(time.Hour * 24).Unix(),
	})

	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// ValidateAdminToken 校验管理员令牌
func ValidateAdminToken(tokenString string) error {
	if tokenString == "" {
		return errors.New("令牌为空")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return errors.New("无效的令牌")
	}
	if sub, _ := claims["sub"].(string); sub != "admin" {
		return errors.New("无效的令牌主体")
	}
	return nil
}
