package reviews

import (
	"time"

	"github.com/google/uuid"
)

// ReviewDTO is one review as shown on a product page.
type ReviewDTO struct {
	ID           uuid.UUID `json:"id"`
	ProductID    uuid.UUID `json:"product_id"`
	UserID       uuid.UUID `json:"user_id"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	ReviewerName string    `json:"reviewer_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProductReviews bundles the list with its unweighted average.
type ProductReviews struct {
	Items   []ReviewDTO `json:"items"`
	Average float64     `json:"average"`
	Count   int         `json:"count"`
}

// AdminReviewDTO adds product and reviewer contact details.
type AdminReviewDTO struct {
	ReviewDTO
	ProductName   string `json:"product_name"`
	ProductImage  string `json:"product_image"`
	ReviewerPhone string `json:"reviewer_phone"`
}

// AdminReviewPage is a cursor page of reviews.
type AdminReviewPage struct {
	Items      []AdminReviewDTO `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// Eligibility answers whether the caller may post a review.
type Eligibility struct {
	ProductID uuid.UUID `json:"product_id"`
	CanReview bool      `json:"can_review"`
}

// CreateInput is a new review.
type CreateInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required"`
}

func newReviewDTO(row ProductReviewRow) ReviewDTO {
	return ReviewDTO{
		ID:           row.ID,
		ProductID:    row.ProductID,
		UserID:       row.UserID,
		Rating:       row.Rating,
		Comment:      row.Comment,
		ReviewerName: row.ReviewerName,
		CreatedAt:    row.CreatedAt,
	}
}

// AverageRating is the unweighted mean, 0 when there are no ratings.
func AverageRating(ratings []int) float64 {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return float64(sum) / float64(len(ratings))
}
