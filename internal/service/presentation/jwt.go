package presentation

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	PresentationID string `json:"presentation_id"`
}

func (s service) generateJWT(presentationID string) (string, error) {
	claims := jwt.MapClaims{
		"presentation_id": presentationID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(s.cfg.Secret))
}

func (s service) parseJWT(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	presentationID, ok := claims["presentation_id"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	return &Claims{
		PresentationID: presentationID,
	}, nil
}

// authorize checks that token was issued for presentationID.
func (s service) authorize(presentationID, token string) error {
	claims, err := s.parseJWT(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}

	if claims.PresentationID != presentationID {
		return ErrPermissionDenied
	}

	return nil
}
