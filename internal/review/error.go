package review

import "errors"

var (
	ErrReviewNotFound   = errors.New("review not found")
	ErrAlreadyReviewed  = errors.New("user already reviewed this product")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrUnknownReference = errors.New("product or user does not exist")
)

const constraintUserProduct = "reviews_user_id_product_id_key"
