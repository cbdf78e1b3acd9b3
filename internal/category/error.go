package category

import "errors"

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrInvalidName      = errors.New("category name must be 1-30 characters")
)

const constraintCategoryName = "categories_name_key"
