package identity

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrNoToken      = errors.New("invalid token in context")
	ErrInvalidClaim = errors.New("invalid claims")
	ErrMissingSub   = errors.New("missing sub claim")
)

// Claims is the subset of the identity provider's access token the API uses.
type Claims struct {
	UserID   uuid.UUID
	Email    string
	FullName string
}

func mapClaims(c *fiber.Ctx) (jwt.MapClaims, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return nil, ErrNoToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidClaim
	}
	return claims, nil
}

// GetUserID extracts the user UUID from the verified token's sub claim.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	claims, err := mapClaims(c)
	if err != nil {
		return uuid.Nil, err
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return uuid.Nil, ErrMissingSub
	}
	return uuid.Parse(sub)
}

// GetClaims returns the user id together with the optional profile claims.
// full_name is read from user_metadata, where the identity provider keeps
// sign-up form fields.
func GetClaims(c *fiber.Ctx) (*Claims, error) {
	userID, err := GetUserID(c)
	if err != nil {
		return nil, err
	}
	claims, _ := mapClaims(c)

	out := &Claims{UserID: userID}
	out.Email, _ = claims["email"].(string)
	if meta, ok := claims["user_metadata"].(map[string]interface{}); ok {
		out.FullName, _ = meta["full_name"].(string)
	}
	return out, nil
}
