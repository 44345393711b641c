package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/scalpelprep/scalpelprep-backend/internal/apierr"
	"github.com/scalpelprep/scalpelprep-backend/internal/logger"
	"github.com/scalpelprep/scalpelprep-backend/internal/repos"
	"github.com/scalpelprep/scalpelprep-backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(
		&types.User{},
		&types.Section{},
		&types.Subsection{},
		&types.Question{},
		&types.QuestionResponse{},
		&types.ReviewState{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return gdb
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

type reviewFixture struct {
	db              *gorm.DB
	svc             ReviewService
	userRepo        repos.UserRepo
	questionRepo    repos.QuestionRepo
	responseRepo    repos.ResponseRepo
	reviewStateRepo repos.ReviewStateRepo
	user            *types.User
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()
	gdb := newTestDB(t)
	log := newTestLogger(t)
	userRepo := repos.NewUserRepo(gdb, log)
	questionRepo := repos.NewQuestionRepo(gdb, log)
	responseRepo := repos.NewResponseRepo(gdb, log)
	reviewStateRepo := repos.NewReviewStateRepo(gdb, log)
	svc := NewReviewService(gdb, log, userRepo, questionRepo, responseRepo, reviewStateRepo, nil)

	now := time.Now().UTC()
	user := &types.User{
		ID:        uuid.New(),
		Email:     fmt.Sprintf("trainee-%s@example.com", uuid.NewString()[:8]),
		FirstName: "Alex",
		LastName:  "Rivera",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := userRepo.Create(context.Background(), nil, []*types.User{user}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return &reviewFixture{
		db:              gdb,
		svc:             svc,
		userRepo:        userRepo,
		questionRepo:    questionRepo,
		responseRepo:    responseRepo,
		reviewStateRepo: reviewStateRepo,
		user:            user,
	}
}

func (f *reviewFixture) seedQuestion(t *testing.T, stem string) *types.Question {
	t.Helper()
	now := time.Now().UTC()
	q := &types.Question{
		ID:            uuid.New(),
		SectionID:     uuid.New(),
		SubsectionID:  uuid.New(),
		Stem:          stem,
		Choices:       datatypes.JSON([]byte(`[{"key":"A","text":"option A"},{"key":"B","text":"option B"}]`)),
		CorrectChoice: "A",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if _, err := f.questionRepo.Create(context.Background(), nil, []*types.Question{q}); err != nil {
		t.Fatalf("seed question: %v", err)
	}
	return q
}

func (f *reviewFixture) seedIncorrectResponse(t *testing.T, questionID uuid.UUID, at time.Time) {
	t.Helper()
	resp := &types.QuestionResponse{
		ID:         uuid.New(),
		UserID:     f.user.ID,
		QuestionID: questionID,
		Mode:       types.ResponseModeStudy,
		Choice:     "B",
		Correct:    false,
		CreatedAt:  at,
	}
	if _, err := f.responseRepo.Create(context.Background(), nil, []*types.QuestionResponse{resp}); err != nil {
		t.Fatalf("seed response: %v", err)
	}
}

func (f *reviewFixture) seedState(t *testing.T, questionID uuid.UUID, nextReviewAt time.Time) {
	t.Helper()
	now := time.Now().UTC()
	state := &types.ReviewState{
		ID:              uuid.New(),
		UserID:          f.user.ID,
		QuestionID:      questionID,
		EaseFactor:      2.5,
		IntervalDays:    1,
		RepetitionCount: 1,
		NextReviewAt:    nextReviewAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := f.reviewStateRepo.Upsert(context.Background(), nil, state); err != nil {
		t.Fatalf("seed review state: %v", err)
	}
}

func TestGradeReviewFirstGrade(t *testing.T) {
	f := newReviewFixture(t)
	q := f.seedQuestion(t, "Most common cause of flap failure?")
	before := time.Now().UTC()

	state, err := f.svc.GradeReview(context.Background(), f.user.ID, q.ID, 5)
	if err != nil {
		t.Fatalf("GradeReview: %v", err)
	}
	if state.RepetitionCount != 1 {
		t.Errorf("RepetitionCount=%d, want 1", state.RepetitionCount)
	}
	if state.IntervalDays != 1 {
		t.Errorf("IntervalDays=%d, want 1", state.IntervalDays)
	}
	if state.EaseFactor <= 2.5 {
		t.Errorf("EaseFactor=%v, want > 2.5 after quality=5", state.EaseFactor)
	}
	if state.SectionID != q.SectionID || state.SubsectionID != q.SubsectionID {
		t.Errorf("locators not copied from question")
	}
	wantNext := state.UpdatedAt.AddDate(0, 0, 1)
	if !state.NextReviewAt.Equal(wantNext) {
		t.Errorf("NextReviewAt=%v, want %v", state.NextReviewAt, wantNext)
	}
	if state.UpdatedAt.Before(before.Add(-time.Minute)) {
		t.Errorf("UpdatedAt=%v looks stale", state.UpdatedAt)
	}
}

func TestGradeReviewFullScenarioChain(t *testing.T) {
	f := newReviewFixture(t)
	q := f.seedQuestion(t, "Blood supply of the radial forearm flap?")
	ctx := context.Background()

	s1, err := f.svc.GradeReview(ctx, f.user.ID, q.ID, 5)
	if err != nil {
		t.Fatalf("first grade: %v", err)
	}
	if s1.RepetitionCount != 1 || s1.IntervalDays != 1 {
		t.Fatalf("first grade: count=%d interval=%d, want 1 and 1", s1.RepetitionCount, s1.IntervalDays)
	}
	s2, err := f.svc.GradeReview(ctx, f.user.ID, q.ID, 4)
	if err != nil {
		t.Fatalf("second grade: %v", err)
	}
	if s2.RepetitionCount != 2 || s2.IntervalDays != 6 {
		t.Fatalf("second grade: count=%d interval=%d, want 2 and 6", s2.RepetitionCount, s2.IntervalDays)
	}
	s3, err := f.svc.GradeReview(ctx, f.user.ID, q.ID, 5)
	if err != nil {
		t.Fatalf("third grade: %v", err)
	}
	wantInterval := int(math.Round(6 * s3.EaseFactor))
	if s3.RepetitionCount != 3 || s3.IntervalDays != wantInterval {
		t.Fatalf("third grade: count=%d interval=%d, want 3 and %d", s3.RepetitionCount, s3.IntervalDays, wantInterval)
	}

	// A failed review resets the ladder but keeps the ease factor.
	s4, err := f.svc.GradeReview(ctx, f.user.ID, q.ID, 1)
	if err != nil {
		t.Fatalf("fourth grade: %v", err)
	}
	if s4.RepetitionCount != 0 || s4.IntervalDays != 1 {
		t.Fatalf("failure: count=%d interval=%d, want 0 and 1", s4.RepetitionCount, s4.IntervalDays)
	}
	if s4.EaseFactor != s3.EaseFactor {
		t.Fatalf("failure changed ease factor: %v -> %v", s3.EaseFactor, s4.EaseFactor)
	}
}

func TestGradeReviewDuplicateSubmission(t *testing.T) {
	f := newReviewFixture(t)
	q := f.seedQuestion(t, "Timing of cleft palate repair?")
	ctx := context.Background()

	first, err := f.svc.GradeReview(ctx, f.user.ID, q.ID, 3)
	if err != nil {
		t.Fatalf("first submission: %v", err)
	}
	second, err := f.svc.GradeReview(ctx, f.user.ID, q.ID, 3)
	if err != nil {
		t.Fatalf("duplicate submission: %v", err)
	}
	// Each call applies exactly once; no double counting within a call.
	if first.RepetitionCount != 1 || second.RepetitionCount != 2 {
		t.Fatalf("counts %d then %d, want 1 then 2", first.RepetitionCount, second.RepetitionCount)
	}
	var rows int64
	if err := f.db.Model(&types.ReviewState{}).
		Where("user_id = ? AND question_id = ?", f.user.ID, q.ID).
		Count(&rows).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 1 {
		t.Fatalf("review_state rows=%d, want 1", rows)
	}
}

func TestGradeReviewInvalidQuality(t *testing.T) {
	f := newReviewFixture(t)
	q := f.seedQuestion(t, "Innervation of the latissimus dorsi?")
	ctx := context.Background()

	if _, err := f.svc.GradeReview(ctx, f.user.ID, q.ID, 4); err != nil {
		t.Fatalf("setup grade: %v", err)
	}
	before, err := f.reviewStateRepo.Get(ctx, nil, f.user.ID, q.ID)
	if err != nil || before == nil {
		t.Fatalf("load state: %v", err)
	}

	for _, quality := range []int{-1, 6, 7, 100} {
		_, err := f.svc.GradeReview(ctx, f.user.ID, q.ID, quality)
		ae := apierr.From(err)
		if ae == nil || ae.Code != apierr.CodeInvalidArgument {
			t.Fatalf("quality=%d: got %v, want %s", quality, err, apierr.CodeInvalidArgument)
		}
	}

	after, err := f.reviewStateRepo.Get(ctx, nil, f.user.ID, q.ID)
	if err != nil || after == nil {
		t.Fatalf("reload state: %v", err)
	}
	if after.RepetitionCount != before.RepetitionCount ||
		after.IntervalDays != before.IntervalDays ||
		after.EaseFactor != before.EaseFactor ||
		!after.NextReviewAt.Equal(before.NextReviewAt) {
		t.Fatalf("state mutated by rejected grade: %+v -> %+v", before, after)
	}
}

func TestGradeReviewUnknownUserAndQuestion(t *testing.T) {
	f := newReviewFixture(t)
	q := f.seedQuestion(t, "Chest wall reconstruction options?")
	ctx := context.Background()

	_, err := f.svc.GradeReview(ctx, uuid.New(), q.ID, 3)
	if ae := apierr.From(err); ae == nil || ae.Code != apierr.CodeNotFound {
		t.Fatalf("unknown user: got %v, want %s", err, apierr.CodeNotFound)
	}

	_, err = f.svc.GradeReview(ctx, f.user.ID, uuid.New(), 3)
	if ae := apierr.From(err); ae == nil || ae.Code != apierr.CodeNotFound {
		t.Fatalf("unknown question: got %v, want %s", err, apierr.CodeNotFound)
	}
}

func TestGetDueReviewPoolOrdering(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	qA := f.seedQuestion(t, "A: due two days ago")
	qB := f.seedQuestion(t, "B: due one day ago")
	qC := f.seedQuestion(t, "C: never reviewed")
	qD := f.seedQuestion(t, "D: resting until tomorrow")

	f.seedIncorrectResponse(t, qA.ID, now.Add(-96*time.Hour))
	f.seedIncorrectResponse(t, qB.ID, now.Add(-95*time.Hour))
	f.seedIncorrectResponse(t, qC.ID, now.Add(-94*time.Hour))
	f.seedIncorrectResponse(t, qD.ID, now.Add(-93*time.Hour))

	f.seedState(t, qA.ID, now.Add(-48*time.Hour))
	f.seedState(t, qB.ID, now.Add(-24*time.Hour))
	f.seedState(t, qD.ID, now.Add(24*time.Hour))

	pool, err := f.svc.GetDueReviewPool(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("GetDueReviewPool: %v", err)
	}
	want := []uuid.UUID{qA.ID, qB.ID, qC.ID}
	if len(pool) != len(want) {
		t.Fatalf("pool size=%d, want %d", len(pool), len(want))
	}
	for i, c := range pool {
		if c.QuestionID != want[i] {
			t.Fatalf("pool[%d]=%s, want %s", i, c.QuestionID, want[i])
		}
		if c.Question == nil {
			t.Fatalf("pool[%d] missing hydrated question", i)
		}
	}
	// Scheduled items carry their state, never-reviewed items do not.
	if pool[0].State == nil || pool[1].State == nil {
		t.Fatalf("scheduled candidates missing state")
	}
	if pool[2].State != nil {
		t.Fatalf("never-reviewed candidate unexpectedly has state")
	}
}

func TestGetDueReviewPoolExcludesRestingAndCorrect(t *testing.T) {
	f := newReviewFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	missed := f.seedQuestion(t, "missed then scheduled in the future")
	aced := f.seedQuestion(t, "only ever answered correctly")

	f.seedIncorrectResponse(t, missed.ID, now.Add(-time.Hour))
	f.seedState(t, missed.ID, now.Add(72*time.Hour))

	correct := &types.QuestionResponse{
		ID:         uuid.New(),
		UserID:     f.user.ID,
		QuestionID: aced.ID,
		Mode:       types.ResponseModeTest,
		Choice:     "A",
		Correct:    true,
		CreatedAt:  now.Add(-time.Hour),
	}
	if _, err := f.responseRepo.Create(ctx, nil, []*types.QuestionResponse{correct}); err != nil {
		t.Fatalf("seed correct response: %v", err)
	}

	pool, err := f.svc.GetDueReviewPool(ctx, f.user.ID)
	if err != nil {
		t.Fatalf("GetDueReviewPool: %v", err)
	}
	if len(pool) != 0 {
		t.Fatalf("pool size=%d, want 0 (resting + correct-only excluded)", len(pool))
	}
}

func TestGetDueReviewPoolEmptyHistory(t *testing.T) {
	f := newReviewFixture(t)

	pool, err := f.svc.GetDueReviewPool(context.Background(), f.user.ID)
	if err != nil {
		t.Fatalf("GetDueReviewPool: %v", err)
	}
	if len(pool) != 0 {
		t.Fatalf("pool size=%d, want 0", len(pool))
	}
}

func TestGetDueReviewPoolUnknownUser(t *testing.T) {
	f := newReviewFixture(t)

	_, err := f.svc.GetDueReviewPool(context.Background(), uuid.New())
	if ae := apierr.From(err); ae == nil || ae.Code != apierr.CodeNotFound {
		t.Fatalf("got %v, want %s", err, apierr.CodeNotFound)
	}
}
