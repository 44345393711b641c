package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/scalpelprep/scalpelprep-backend/internal/apierr"
	"github.com/scalpelprep/scalpelprep-backend/internal/logger"
	"github.com/scalpelprep/scalpelprep-backend/internal/notify"
	"github.com/scalpelprep/scalpelprep-backend/internal/repos"
	"github.com/scalpelprep/scalpelprep-backend/internal/types"
)

// ReviewCandidate is one entry of the due pool, computed fresh per request.
// State is nil for a question that was missed but never graded.
type ReviewCandidate struct {
	QuestionID uuid.UUID          `json:"question_id"`
	Question   *types.Question    `json:"question,omitempty"`
	State      *types.ReviewState `json:"state,omitempty"`
}

type ReviewService interface {
	// GetDueReviewPool returns the user's due pool: every question the user
	// has ever missed that either has no review state yet or whose
	// NextReviewAt has arrived. Scheduled items come first, soonest due
	// first; never-reviewed items follow in first-miss order.
	GetDueReviewPool(ctx context.Context, userID uuid.UUID) ([]*ReviewCandidate, error)
	// GradeReview applies one SM-2 step for (userID, questionID) with a
	// quality grade in [0,5] and persists the result atomically.
	GradeReview(ctx context.Context, userID, questionID uuid.UUID, quality int) (*types.ReviewState, error)
}

type reviewService struct {
	db              *gorm.DB
	log             *logger.Logger
	tracer          trace.Tracer
	userRepo        repos.UserRepo
	questionRepo    repos.QuestionRepo
	responseRepo    repos.ResponseRepo
	reviewStateRepo repos.ReviewStateRepo
	reviewBus       notify.ReviewBus
}

func NewReviewService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	questionRepo repos.QuestionRepo,
	responseRepo repos.ResponseRepo,
	reviewStateRepo repos.ReviewStateRepo,
	reviewBus notify.ReviewBus,
) ReviewService {
	return &reviewService{
		db:              db,
		log:             log.With("service", "ReviewService"),
		tracer:          otel.Tracer("services/review"),
		userRepo:        userRepo,
		questionRepo:    questionRepo,
		responseRepo:    responseRepo,
		reviewStateRepo: reviewStateRepo,
		reviewBus:       reviewBus,
	}
}

func (rs *reviewService) GetDueReviewPool(ctx context.Context, userID uuid.UUID) ([]*ReviewCandidate, error) {
	ctx, span := rs.tracer.Start(ctx, "ReviewService.GetDueReviewPool")
	defer span.End()

	if userID == uuid.Nil {
		return nil, apierr.InvalidArgument(fmt.Errorf("user id is required"))
	}
	exists, err := rs.userRepo.Exists(ctx, nil, userID)
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("check user: %w", err))
	}
	if !exists {
		return nil, apierr.NotFound(fmt.Errorf("user %s not found", userID))
	}

	var (
		incorrectIDs []uuid.UUID
		states       []*types.ReviewState
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := rs.responseRepo.GetIncorrectQuestionIDs(gctx, nil, userID)
		if err != nil {
			return fmt.Errorf("fetch incorrect question ids: %w", err)
		}
		incorrectIDs = ids
		return nil
	})
	g.Go(func() error {
		rows, err := rs.reviewStateRepo.GetAllForUser(gctx, nil, userID)
		if err != nil {
			return fmt.Errorf("fetch review states: %w", err)
		}
		states = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, apierr.Storage(err)
	}

	stateByQuestion := make(map[uuid.UUID]*types.ReviewState, len(states))
	for _, st := range states {
		stateByQuestion[st.QuestionID] = st
	}

	now := time.Now().UTC()
	var scheduled []*ReviewCandidate
	var fresh []*ReviewCandidate
	for _, id := range incorrectIDs {
		st, reviewed := stateByQuestion[id]
		switch {
		case !reviewed:
			fresh = append(fresh, &ReviewCandidate{QuestionID: id})
		case !st.NextReviewAt.After(now):
			scheduled = append(scheduled, &ReviewCandidate{QuestionID: id, State: st})
		default:
			// Still resting: scheduled for the future, not due.
		}
	}
	sort.SliceStable(scheduled, func(i, j int) bool {
		return scheduled[i].State.NextReviewAt.Before(scheduled[j].State.NextReviewAt)
	})
	pool := append(scheduled, fresh...)

	pool, err = rs.hydrateQuestions(ctx, pool)
	if err != nil {
		return nil, apierr.Storage(err)
	}
	span.SetAttributes(attribute.Int("review.pool_size", len(pool)))
	return pool, nil
}

// hydrateQuestions attaches question rows to candidates and drops candidates
// whose question has since been deleted from the bank.
func (rs *reviewService) hydrateQuestions(ctx context.Context, pool []*ReviewCandidate) ([]*ReviewCandidate, error) {
	if len(pool) == 0 {
		return []*ReviewCandidate{}, nil
	}
	ids := make([]uuid.UUID, 0, len(pool))
	for _, c := range pool {
		ids = append(ids, c.QuestionID)
	}
	questions, err := rs.questionRepo.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate questions: %w", err)
	}
	byID := make(map[uuid.UUID]*types.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}
	kept := make([]*ReviewCandidate, 0, len(pool))
	for _, c := range pool {
		q, ok := byID[c.QuestionID]
		if !ok {
			continue
		}
		c.Question = q
		kept = append(kept, c)
	}
	return kept, nil
}

func (rs *reviewService) GradeReview(ctx context.Context, userID, questionID uuid.UUID, quality int) (*types.ReviewState, error) {
	ctx, span := rs.tracer.Start(ctx, "ReviewService.GradeReview")
	defer span.End()

	if quality < QualityFloor || quality > QualityPerfect {
		return nil, apierr.InvalidArgument(fmt.Errorf("quality %d out of range [0,5]", quality))
	}
	if userID == uuid.Nil {
		return nil, apierr.InvalidArgument(fmt.Errorf("user id is required"))
	}
	if questionID == uuid.Nil {
		return nil, apierr.InvalidArgument(fmt.Errorf("question id is required"))
	}
	exists, err := rs.userRepo.Exists(ctx, nil, userID)
	if err != nil {
		return nil, apierr.Storage(fmt.Errorf("check user: %w", err))
	}
	if !exists {
		return nil, apierr.NotFound(fmt.Errorf("user %s not found", userID))
	}

	var updated *types.ReviewState
	txErr := rs.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		state, err := rs.reviewStateRepo.Get(ctx, tx, userID, questionID)
		if err != nil {
			return fmt.Errorf("load review state: %w", err)
		}
		if state == nil {
			questions, err := rs.questionRepo.GetByIDs(ctx, tx, []uuid.UUID{questionID})
			if err != nil {
				return fmt.Errorf("load question: %w", err)
			}
			if len(questions) == 0 {
				return apierr.NotFound(fmt.Errorf("question %s not found", questionID))
			}
			q := questions[0]
			state = &types.ReviewState{
				ID:           uuid.New(),
				UserID:       userID,
				QuestionID:   questionID,
				SectionID:    q.SectionID,
				SubsectionID: q.SubsectionID,
				EaseFactor:   initialEaseFactor,
				CreatedAt:    time.Now().UTC(),
			}
		}
		applyGrade(state, quality, time.Now().UTC())
		if err := rs.reviewStateRepo.Upsert(ctx, tx, state); err != nil {
			return fmt.Errorf("persist review state: %w", err)
		}
		updated = state
		return nil
	})
	if txErr != nil {
		return nil, apierr.Storage(txErr)
	}

	span.SetAttributes(
		attribute.Int("review.quality", quality),
		attribute.Int("review.interval_days", updated.IntervalDays),
	)
	rs.publishGraded(ctx, updated, quality)
	return updated, nil
}

// publishGraded is best-effort: a dead bus never fails the grade.
func (rs *reviewService) publishGraded(ctx context.Context, state *types.ReviewState, quality int) {
	if rs.reviewBus == nil {
		return
	}
	event := notify.ReviewEvent{
		Type:         notify.EventReviewGraded,
		UserID:       state.UserID,
		QuestionID:   state.QuestionID,
		Quality:      quality,
		IntervalDays: state.IntervalDays,
		NextReviewAt: state.NextReviewAt,
		At:           time.Now().UTC(),
	}
	if err := rs.reviewBus.Publish(ctx, event); err != nil {
		rs.log.Warn("Failed to publish review event", "error", err, "question_id", state.QuestionID)
	}
}
