package scraper

import (
	"errors"
)

var (
	ErrInvalidURL       = errors.New("invalid Amazon UK product URL")
	ErrNavigationFailed = errors.New("product page failed to load")
	ErrLocationFailed   = errors.New("delivery location change failed")
)
