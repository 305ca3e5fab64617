package security

import (
	"errors"
	"time"

	"ctfbot/internal/platform/config"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

var TokenAuth *jwtauth.JWTAuth

func InitJWT() {
	TokenAuth = jwtauth.New("HS256", config.AppConfig.JWTKey, nil)
}

// GenerateServiceToken mints the bearer token the gateway connector uses to
// call the interactions webhook.
func GenerateServiceToken(service string) (string, error) {
	claims := jwt.MapClaims{
		"service": service,
		"exp":     time.Now().Add(config.AppConfig.JWTExp).Unix(),
		"iat":     time.Now().Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

func GetServiceFromClaims(claims jwt.MapClaims) (string, error) {
	service, ok := claims["service"].(string)
	if !ok {
		return "", errors.New("service claim is missing or not a string")
	}
	return service, nil
}
