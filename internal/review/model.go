package review

import (
	"strings"
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID        uint
	ProductID uint
	UserID    uint
	Rating    int
	Text      string
	CreatedAt time.Time
}

// Stars renders the rating the way the storefront shows it, e.g. ★★★☆☆.
func (r Review) Stars() string {
	return strings.Repeat("★", r.Rating) + strings.Repeat("☆", MaxRating-r.Rating)
}

type CreateReviewInput struct {
	ProductID uint
	UserID    uint
	Rating    int
	Text      string
}

type ListFilter struct {
	ProductID *uint
	UserID    *uint
	MinRating *int
	MaxRating *int
	Limit     int32
	Page      int32
}
