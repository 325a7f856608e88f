package models

import (
	dErrors "qualityaudit/pkg/domain-errors"
)

// Rating is the outcome of an evaluation.
type Rating string

const (
	RatingPositive Rating = "positive"
	RatingNegative Rating = "negative"
)

func (r Rating) IsPositive() bool { return r == RatingPositive }
func (r Rating) IsNegative() bool { return r == RatingNegative }

func (r Rating) IsValid() bool {
	return r == RatingPositive || r == RatingNegative
}

func (r Rating) String() string { return string(r) }

// ParseRating validates a stored or transported rating.
func ParseRating(s string) (Rating, error) {
	r := Rating(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid rating: "+s)
	}
	return r, nil
}
