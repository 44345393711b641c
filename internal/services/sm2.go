package services

import (
	"math"
	"time"

	"github.com/scalpelprep/scalpelprep-backend/internal/types"
)

// Quality grades submitted from the review UI's confidence buttons.
const (
	QualityBlackout = 0
	QualityFloor    = 0
	QualityPassing  = 3 // correct but with hesitation
	QualityPerfect  = 5
)

const (
	minEaseFactor     = 1.3
	initialEaseFactor = 2.5
)

// applyGrade runs one SM-2 step over the state in place. quality must already
// be validated to [0,5]. A failing grade (quality < 3) resets the repetition
// ladder but leaves the ease factor untouched, so a single bad day cannot
// collapse an item's growth rate.
func applyGrade(state *types.ReviewState, quality int, now time.Time) {
	if quality < QualityPassing {
		state.RepetitionCount = 0
		state.IntervalDays = 1
	} else {
		state.RepetitionCount++
		q := float64(quality)
		ease := state.EaseFactor + (0.1 - (5-q)*(0.08+(5-q)*0.02))
		if ease < minEaseFactor {
			ease = minEaseFactor
		}
		state.EaseFactor = ease
		switch state.RepetitionCount {
		case 1:
			state.IntervalDays = 1
		case 2:
			state.IntervalDays = 6
		default:
			next := int(math.Round(float64(state.IntervalDays) * state.EaseFactor))
			if next < 1 {
				next = 1
			}
			state.IntervalDays = next
		}
	}
	state.UpdatedAt = now
	state.NextReviewAt = now.AddDate(0, 0, state.IntervalDays)
}
