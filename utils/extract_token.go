package utils

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt"
)

// ExtractUserIDFromToken pulls the user ID out of a Bearer JWT in the
// Authorization header. Expired tokens are accepted here: the refresh flow
// needs the ID from an access token that has already lapsed.
func ExtractUserIDFromToken(authHeader string) (uint, error) {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return 0, errors.New("invalid authorization header format")
	}

	tokenString := parts[1]

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return JwtSecret, nil
	})

	if err != nil {
		ve, ok := err.(*jwt.ValidationError)
		if !ok || ve.Errors != jwt.ValidationErrorExpired || token == nil {
			return 0, errors.New("invalid token")
		}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid token claims")
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, errors.New("invalid user ID in token")
	}

	return uint(userIDFloat), nil
}
