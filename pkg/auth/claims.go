package auth

import "github.com/golang-jwt/jwt/v5"

// ServiceClaims identify this API when it calls private services.
type ServiceClaims struct {
	Service string `json:"service"`
	jwt.RegisteredClaims
}
