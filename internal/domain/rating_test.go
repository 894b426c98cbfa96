package domain

import (
	"math"
	"testing"

	"github.com/google/uuid"
)

func TestNewRating(t *testing.T) {
	t.Parallel()
	assignmentID := uuid.New()
	raterID := uuid.New()
	rateeID := uuid.New()

	rating, err := NewRating(assignmentID, raterID, rateeID, 4.5, RatesProvider, "great work")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if rating.ID == uuid.Nil {
		t.Error("Expected non-nil UUID, got nil UUID")
	}

	if rating.Direction != RatesProvider {
		t.Errorf("Expected direction %s, got %s", RatesProvider, rating.Direction)
	}

	// Score bounds
	if _, err := NewRating(assignmentID, raterID, rateeID, 0.5, RatesProvider, ""); err != ErrInvalidRatingScore {
		t.Errorf("Expected error %v, got %v", ErrInvalidRatingScore, err)
	}
	if _, err := NewRating(assignmentID, raterID, rateeID, 5.5, RatesProvider, ""); err != ErrInvalidRatingScore {
		t.Errorf("Expected error %v, got %v", ErrInvalidRatingScore, err)
	}

	// Self-rating
	if _, err := NewRating(assignmentID, raterID, raterID, 4.0, RatesProvider, ""); err != ErrSelfRating {
		t.Errorf("Expected error %v, got %v", ErrSelfRating, err)
	}

	// Unknown direction
	if _, err := NewRating(assignmentID, raterID, rateeID, 4.0, RatingDirection("sideways"), ""); err != ErrInvalidRatingDirection {
		t.Errorf("Expected error %v, got %v", ErrInvalidRatingDirection, err)
	}
}

func TestRatingAggregateApply(t *testing.T) {
	t.Parallel()

	agg := &RatingAggregate{
		UserID:        uuid.New(),
		AverageRating: 4.5,
		TotalRatings:  1,
	}

	if err := agg.Apply(3.5); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if math.Abs(agg.AverageRating-4.0) > 1e-9 {
		t.Errorf("Expected average 4.0, got %v", agg.AverageRating)
	}

	if agg.TotalRatings != 2 {
		t.Errorf("Expected total 2, got %d", agg.TotalRatings)
	}
}

func TestRatingAggregateApplyFromEmpty(t *testing.T) {
	t.Parallel()

	agg := NewRatingAggregate(uuid.New())

	if err := agg.Apply(5.0); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if agg.AverageRating != 5.0 || agg.TotalRatings != 1 {
		t.Errorf("Expected average 5.0 total 1, got %v/%d", agg.AverageRating, agg.TotalRatings)
	}

	if err := agg.Apply(5.5); err != ErrInvalidRatingScore {
		t.Errorf("Expected error %v, got %v", ErrInvalidRatingScore, err)
	}
	if agg.TotalRatings != 1 {
		t.Errorf("Rejected score must not change the aggregate, got total %d", agg.TotalRatings)
	}
}
