package services

import "errors"

var (
	// ErrEmptyInput is returned when labeling a dataset with no listings.
	ErrEmptyInput = errors.New("empty input: dataset has no listings")
	// ErrDivision is returned for a zero divisor: Bedrooms in the per-bedroom
	// price, or Price in the fallback Grade/Price ratio.
	ErrDivision = errors.New("division by zero")
	// ErrInvalidData is returned for NaN/Inf prices or grades and negative bedroom counts.
	ErrInvalidData = errors.New("invalid data")
	// ErrMissingColumns is returned when required source columns are absent.
	ErrMissingColumns = errors.New("missing required columns")
	// ErrInvalidFilter is returned for an unknown filter kind.
	ErrInvalidFilter = errors.New("invalid filter")
)
