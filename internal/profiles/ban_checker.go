package profiles

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BanChecker answers the per-request ban lookup made by the auth middleware.
type BanChecker struct {
	repo *Repository
}

func NewBanChecker(repo *Repository) *BanChecker {
	return &BanChecker{repo: repo}
}

// IsBanned treats a deleted profile as banned so its tokens stop working.
func (c *BanChecker) IsBanned(ctx context.Context, userID uuid.UUID) (bool, error) {
	banned, err := c.repo.IsBanned(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	return banned, err
}
