package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// ErrWrongTokenType se devuelve cuando se presenta un refresh token como access o viceversa.
var ErrWrongTokenType = errors.New("jwt: tipo de token incorrecto")

// Claims incluye los claims estándar JWT más los campos de sesión de la aplicación.
// ShopID puede ir vacío: un usuario sin tienda opera en ámbito de usuario.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	ShopID string `json:"shop_id,omitempty"`
	Role   string `json:"role"`
	Type   string `json:"typ"`
}

// Generate genera un access token firmado con userID, shopID y role.
func Generate(secret, userID, shopID, role, issuer string, expMinutes int) (string, error) {
	return sign(secret, userID, shopID, role, issuer, TypeAccess, expMinutes)
}

// GenerateRefresh genera un refresh token; solo sirve para pedir un nuevo access token.
func GenerateRefresh(secret, userID, shopID, role, issuer string, expMinutes int) (string, error) {
	return sign(secret, userID, shopID, role, issuer, TypeRefresh, expMinutes)
}

func sign(secret, userID, shopID, role, issuer, typ string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		UserID: userID,
		ShopID: shopID,
		Role:   role,
		Type:   typ,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida un access token y devuelve userID, shopID y role.
// Retorna error si el token es inválido, expirado, tiene firma incorrecta o es un refresh token.
func Parse(secret, tokenString string) (userID, shopID, role string, err error) {
	c, err := parse(secret, tokenString, TypeAccess)
	if err != nil {
		return "", "", "", err
	}
	return c.UserID, c.ShopID, c.Role, nil
}

// ParseRefresh valida un refresh token y devuelve sus claims.
func ParseRefresh(secret, tokenString string) (*Claims, error) {
	return parse(secret, tokenString, TypeRefresh)
}

func parse(secret, tokenString, want string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("claims inválidos")
	}
	if claims.Type != want {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
