package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/identity"
	"github.com/ahmetcoskunkizilkaya/nutrisnap-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidFullName = errors.New("full_name must be between 1 and 120 characters")
)

const maxFullNameLength = 120

type ProfileService struct {
	db *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// GetOrCreate returns the user row for claims, creating it on first contact.
// A stored name is never overwritten by the token's.
func (s *ProfileService) GetOrCreate(ctx context.Context, claims *identity.Claims) (*models.User, error) {
	user := models.User{ID: claims.UserID}
	err := s.db.WithContext(ctx).
		Where(models.User{ID: claims.UserID}).
		Attrs(models.User{Email: claims.Email, FullName: truncateName(claims.FullName)}).
		FirstOrCreate(&user).Error
	if err != nil {
		return nil, fmt.Errorf("get or create profile: %w", err)
	}

	// Keep the email in sync with the identity provider.
	if claims.Email != "" && user.Email != claims.Email {
		if err := s.db.WithContext(ctx).Model(&user).Update("email", claims.Email).Error; err != nil {
			return nil, fmt.Errorf("sync email: %w", err)
		}
		user.Email = claims.Email
	}
	return &user, nil
}

func (s *ProfileService) UpdateFullName(ctx context.Context, userID uuid.UUID, fullName string) (*models.User, error) {
	name := strings.TrimSpace(fullName)
	if n := len([]rune(name)); n < 1 || n > maxFullNameLength {
		return nil, ErrInvalidFullName
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("full_name", name)
	if res.Error != nil {
		return nil, fmt.Errorf("update profile: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrProfileNotFound
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("reload profile: %w", err)
	}
	return &user, nil
}

func truncateName(name string) string {
	r := []rune(strings.TrimSpace(name))
	if len(r) > maxFullNameLength {
		r = r[:maxFullNameLength]
	}
	return string(r)
}
