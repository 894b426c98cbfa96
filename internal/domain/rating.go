package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// RatingDirection identifies which party is being rated on an assignment.
type RatingDirection string

// Possible rating directions
const (
	RatesProvider  RatingDirection = "rates_provider"
	RatesRequester RatingDirection = "rates_requester"
)

// Rating score bounds
const (
	MinRatingScore = 1.0
	MaxRatingScore = 5.0
)

// Common validation errors for Rating and RatingAggregate
var (
	ErrEmptyRatingID           = errors.New("rating ID cannot be empty")
	ErrEmptyRatingAssignmentID = errors.New("rating assignment ID cannot be empty")
	ErrEmptyRaterID            = errors.New("rating rater ID cannot be empty")
	ErrEmptyRateeID            = errors.New("rating ratee ID cannot be empty")
	ErrSelfRating              = errors.New("rater and ratee cannot be the same user")
	ErrInvalidRatingScore      = errors.New("rating score must be between 1 and 5")
	ErrInvalidRatingDirection  = errors.New("invalid rating direction")
)

// Rating captures one party's score for the other on a completed
// assignment. At most one rating exists per (assignment, rater, direction);
// the uniqueness is enforced by the rating service before insert and backed
// by a unique index.
type Rating struct {
	ID           uuid.UUID       `json:"id"`
	AssignmentID uuid.UUID       `json:"assignment_id"`
	RaterID      uuid.UUID       `json:"rater_id"`
	RateeID      uuid.UUID       `json:"ratee_id"`
	Score        float64         `json:"score"`
	Direction    RatingDirection `json:"direction"`
	Comment      string          `json:"comment,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// NewRating creates a new Rating for the given assignment.
// Returns an error if validation fails.
func NewRating(
	assignmentID, raterID, rateeID uuid.UUID,
	score float64,
	direction RatingDirection,
	comment string,
) (*Rating, error) {
	rating := &Rating{
		ID:           uuid.New(),
		AssignmentID: assignmentID,
		RaterID:      raterID,
		RateeID:      rateeID,
		Score:        score,
		Direction:    direction,
		Comment:      comment,
		CreatedAt:    time.Now().UTC(),
	}

	if err := rating.Validate(); err != nil {
		return nil, err
	}

	return rating, nil
}

// Validate checks if the Rating has valid data.
// Returns an error if any field fails validation.
func (r *Rating) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyRatingID
	}

	if r.AssignmentID == uuid.Nil {
		return ErrEmptyRatingAssignmentID
	}

	if r.RaterID == uuid.Nil {
		return ErrEmptyRaterID
	}

	if r.RateeID == uuid.Nil {
		return ErrEmptyRateeID
	}

	if r.RaterID == r.RateeID {
		return ErrSelfRating
	}

	if r.Score < MinRatingScore || r.Score > MaxRatingScore {
		return ErrInvalidRatingScore
	}

	if r.Direction != RatesProvider && r.Direction != RatesRequester {
		return ErrInvalidRatingDirection
	}

	return nil
}

// RatingAggregate holds a user's running rating average. It is a streaming
// statistic: it is only ever updated incrementally by Apply and never
// recomputed from rating history.
type RatingAggregate struct {
	UserID        uuid.UUID `json:"user_id"`
	AverageRating float64   `json:"average_rating"`
	TotalRatings  int64     `json:"total_ratings"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewRatingAggregate creates an empty aggregate for the given user.
func NewRatingAggregate(userID uuid.UUID) *RatingAggregate {
	return &RatingAggregate{
		UserID:        userID,
		AverageRating: 0,
		TotalRatings:  0,
		UpdatedAt:     time.Now().UTC(),
	}
}

// Apply folds one new score into the running average:
//
//	average' = (average*total + score) / (total + 1)
//	total'   = total + 1
//
// Returns an error if the score is out of bounds.
func (a *RatingAggregate) Apply(score float64) error {
	if score < MinRatingScore || score > MaxRatingScore {
		return ErrInvalidRatingScore
	}

	a.AverageRating = (a.AverageRating*float64(a.TotalRatings) + score) / float64(a.TotalRatings+1)
	a.TotalRatings++
	a.UpdatedAt = time.Now().UTC()
	return nil
}
