package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/traindesk/traindesk-backend/internal/attempt"
	"github.com/traindesk/traindesk-backend/internal/config"
	"github.com/traindesk/traindesk-backend/internal/grading"
	"github.com/traindesk/traindesk-backend/internal/model"
	"github.com/traindesk/traindesk-backend/internal/repository"
)

// ErrAttemptNotFound is returned when no attempt is in progress for the
// (learner, evaluation) pair.
var ErrAttemptNotFound = errors.New("no attempt in progress")

// AttemptService owns the live attempt registry: one state machine per
// (learner, evaluation) pair, its countdown timer, and the Redis mirror
// that lets an attempt survive a process restart. Closing an attempt —
// by submission or expiry — grades it, writes the result, and feeds the
// outcome into progress.
type AttemptService struct {
	evalRepo        *repository.EvaluationRepository
	resultRepo      *repository.ResultRepository
	evalService     *EvaluationService
	progressService *ProgressService
	rdb             *redis.Client
	log             zerolog.Logger

	mu   sync.Mutex
	live map[attemptKey]*liveAttempt
}

type attemptKey struct {
	userID       int
	evaluationID uuid.UUID
}

type liveAttempt struct {
	machine *attempt.Machine
	eval    *model.Evaluation
	cancel  context.CancelFunc
}

// answerJob mirrors the persist_answers_queue payload consumed by the
// answer worker.
type answerJob struct {
	UserID       int    `json:"user_id"`
	EvaluationID string `json:"evaluation_id"`
	QuestionID   string `json:"question_id"`
	Answer       string `json:"answer"`
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	evalRepo *repository.EvaluationRepository,
	resultRepo *repository.ResultRepository,
	evalService *EvaluationService,
	progressService *ProgressService,
	rdb *redis.Client,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		evalRepo:        evalRepo,
		resultRepo:      resultRepo,
		evalService:     evalService,
		progressService: progressService,
		rdb:             rdb,
		log:             log.With().Str("component", "attempt_service").Logger(),
		live:            make(map[attemptKey]*liveAttempt),
	}
}

// Start begins an attempt, or resumes the one already in progress for
// this pair — starting twice is idempotent and always lands the learner
// back in the same attempt. Returns the learner payload and the current
// attempt state.
func (s *AttemptService) Start(ctx context.Context, userID int, evaluationID uuid.UUID) (*model.EvaluationPayload, *model.AttemptState, error) {
	payload, err := s.evalService.GetPayload(ctx, evaluationID)
	if err != nil {
		return nil, nil, err
	}

	la, err := s.ensureLive(ctx, userID, evaluationID, payloadQuestionIDs(payload), true)
	if err != nil {
		return nil, nil, err
	}

	return payload, la.machine.Snapshot().State(), nil
}

// payloadQuestionIDs extracts the evaluation's question ID set, which
// bounds the machine: answers outside it are rejected.
func payloadQuestionIDs(payload *model.EvaluationPayload) []uuid.UUID {
	ids := make([]uuid.UUID, len(payload.Questions))
	for i, q := range payload.Questions {
		ids[i] = q.ID
	}
	return ids
}

// State returns the current attempt state for page reloads and device
// switches. The answer map and cursor come back exactly as last
// recorded.
func (s *AttemptService) State(ctx context.Context, userID int, evaluationID uuid.UUID) (*model.AttemptState, error) {
	la, err := s.getLive(ctx, userID, evaluationID)
	if err != nil {
		return nil, err
	}
	return la.machine.Snapshot().State(), nil
}

// Apply records an in-flight mutation: an answer, a cursor move, or
// both. Answers are mirrored to Redis and queued for write-behind
// persistence; the machine stays authoritative.
func (s *AttemptService) Apply(ctx context.Context, userID int, evaluationID uuid.UUID, req *model.AttemptActionRequest) (*model.AttemptState, error) {
	la, err := s.getLive(ctx, userID, evaluationID)
	if err != nil {
		return nil, err
	}

	if req.QuestionID != nil && req.Answer != nil {
		if err := la.machine.Answer(*req.QuestionID, *req.Answer); err != nil {
			return nil, err
		}
		s.mirrorAnswer(ctx, userID, evaluationID, *req.QuestionID, *req.Answer)
	}

	if req.GotoIndex != nil {
		if err := la.machine.Goto(*req.GotoIndex); err != nil {
			return nil, err
		}
	}

	return la.machine.Snapshot().State(), nil
}

// Submit closes the attempt voluntarily, grades the frozen answer
// snapshot, and returns the stored result with its per-question review.
func (s *AttemptService) Submit(ctx context.Context, userID int, evaluationID uuid.UUID) (*model.Result, []model.QuestionReview, error) {
	la, err := s.getLive(ctx, userID, evaluationID)
	if err != nil {
		return nil, nil, err
	}

	snap, err := la.machine.Submit()
	if err != nil {
		return nil, nil, err
	}

	return s.finalize(ctx, la, snap)
}

// Machine exposes the live state machine for the WebSocket stream.
func (s *AttemptService) Machine(ctx context.Context, userID int, evaluationID uuid.UUID) (*attempt.Machine, error) {
	la, err := s.getLive(ctx, userID, evaluationID)
	if err != nil {
		return nil, err
	}
	return la.machine, nil
}

// ensureLive returns the live attempt for the pair, resuming from the
// Redis mirror after a restart, or creating a fresh machine when
// create is set.
func (s *AttemptService) ensureLive(ctx context.Context, userID int, evaluationID uuid.UUID, questionIDs []uuid.UUID, create bool) (*liveAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := attemptKey{userID: userID, evaluationID: evaluationID}
	if la, ok := s.live[key]; ok && !la.machine.Closed() {
		return la, nil
	}

	eval, err := s.evalRepo.GetByID(ctx, evaluationID)
	if err != nil {
		return nil, fmt.Errorf("get evaluation: %w", err)
	}
	if !eval.IsActive {
		return nil, ErrEvaluationNotActive
	}

	machine, err := s.rebuildFromMirror(ctx, eval, userID, questionIDs)
	if err != nil {
		return nil, err
	}
	if machine == nil {
		if !create {
			return nil, ErrAttemptNotFound
		}
		startedAt := time.Now()
		timeLimit := 0
		if eval.Timed() {
			timeLimit = *eval.TimeLimitMinutes
		}
		machine = attempt.New(evaluationID, userID, questionIDs, timeLimit, startedAt)

		startKey := config.CacheKey.AttemptStartKey(evaluationID.String(), userID)
		if err := s.rdb.Set(ctx, startKey, startedAt.Unix(), 0).Err(); err != nil {
			s.log.Warn().Err(err).Int("user_id", userID).Msg("Failed to cache attempt start")
		}
		s.log.Info().
			Int("user_id", userID).
			Str("evaluation_id", evaluationID.String()).
			Msg("Attempt started")
	}

	tctx, cancel := context.WithCancel(context.Background())
	la := &liveAttempt{machine: machine, eval: eval, cancel: cancel}
	s.live[key] = la

	if eval.Timed() {
		go attempt.RunTimer(tctx, machine, func(snap attempt.Snapshot) {
			s.expire(la, snap)
		})
	}

	return la, nil
}

// rebuildFromMirror resumes an attempt that survived a restart, using
// the start timestamp and answer hash mirrored in Redis. Returns nil
// when no mirror exists.
func (s *AttemptService) rebuildFromMirror(ctx context.Context, eval *model.Evaluation, userID int, questionIDs []uuid.UUID) (*attempt.Machine, error) {
	startKey := config.CacheKey.AttemptStartKey(eval.ID.String(), userID)
	val, err := s.rdb.Get(ctx, startKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt start: %w", err)
	}

	startUnix, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid start time in cache: %w", err)
	}
	startedAt := time.Unix(startUnix, 0)

	mirrored, err := s.rdb.HGetAll(ctx, config.CacheKey.AttemptAnswersKey(eval.ID.String(), userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get mirrored answers: %w", err)
	}
	answers := make(map[uuid.UUID]string, len(mirrored))
	for qid, ans := range mirrored {
		id, err := uuid.Parse(qid)
		if err != nil {
			continue
		}
		answers[id] = ans
	}

	remaining := attempt.Untimed
	if eval.Timed() {
		deadline := startedAt.Add(time.Duration(*eval.TimeLimitMinutes) * time.Minute)
		remaining = int(time.Until(deadline).Seconds())
	}

	s.log.Info().
		Int("user_id", userID).
		Str("evaluation_id", eval.ID.String()).
		Int("answers", len(answers)).
		Msg("Attempt resumed from mirror")

	return attempt.Resume(eval.ID, userID, questionIDs, answers, startedAt, remaining), nil
}

// getLive returns the live attempt, resuming from the mirror when the
// process restarted mid-attempt. Never creates a new attempt.
func (s *AttemptService) getLive(ctx context.Context, userID int, evaluationID uuid.UUID) (*liveAttempt, error) {
	s.mu.Lock()
	la, ok := s.live[attemptKey{userID: userID, evaluationID: evaluationID}]
	s.mu.Unlock()
	if ok && !la.machine.Closed() {
		return la, nil
	}

	payload, err := s.evalService.GetPayload(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	return s.ensureLive(ctx, userID, evaluationID, payloadQuestionIDs(payload), false)
}

// mirrorAnswer writes the answer to the Redis hash and queues it for
// write-behind persistence.
func (s *AttemptService) mirrorAnswer(ctx context.Context, userID int, evaluationID, questionID uuid.UUID, answer string) {
	answersKey := config.CacheKey.AttemptAnswersKey(evaluationID.String(), userID)
	if err := s.rdb.HSet(ctx, answersKey, questionID.String(), answer).Err(); err != nil {
		s.log.Warn().Err(err).Int("user_id", userID).Msg("Failed to mirror answer")
	}

	job := answerJob{
		UserID:       userID,
		EvaluationID: evaluationID.String(),
		QuestionID:   questionID.String(),
		Answer:       answer,
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, raw).Err(); err != nil {
		s.log.Warn().Err(err).Int("user_id", userID).Msg("Failed to queue answer")
	}
}

// expire is the timer callback: the countdown hit zero and the machine
// froze itself. Same grading path as submission, logged at info because
// expiry is normal termination.
func (s *AttemptService) expire(la *liveAttempt, snap attempt.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, _, err := s.finalize(ctx, la, snap); err != nil {
		s.log.Error().Err(err).
			Int("user_id", snap.UserID).
			Str("evaluation_id", snap.EvaluationID.String()).
			Msg("Failed to finalize expired attempt")
		return
	}
	s.log.Info().
		Int("user_id", snap.UserID).
		Str("evaluation_id", snap.EvaluationID.String()).
		Msg("Attempt expired")
}

// finalize grades a frozen snapshot, stores the write-once result,
// applies it to progress, and tears down the live attempt.
func (s *AttemptService) finalize(ctx context.Context, la *liveAttempt, snap attempt.Snapshot) (*model.Result, []model.QuestionReview, error) {
	la.cancel()
	s.mu.Lock()
	delete(s.live, attemptKey{userID: snap.UserID, evaluationID: snap.EvaluationID})
	s.mu.Unlock()

	questions, err := s.evalService.GetGradableQuestions(ctx, snap.EvaluationID)
	if err != nil {
		return nil, nil, err
	}

	timeLimit := 0
	if la.eval.Timed() {
		timeLimit = *la.eval.TimeLimitMinutes
	}
	completedAt := time.Now()

	result := grading.Aggregate(la.eval, questions, snap.Answers, snap.Elapsed(completedAt, timeLimit))
	result.UserID = snap.UserID
	result.Status = snap.Status
	result.StartedAt = snap.StartedAt
	result.CompletedAt = completedAt

	if err := s.resultRepo.Create(ctx, &result); err != nil {
		return nil, nil, fmt.Errorf("store result: %w", err)
	}

	if err := s.progressService.ApplyResult(ctx, la.eval, &result); err != nil {
		s.log.Error().Err(err).
			Int("user_id", snap.UserID).
			Str("evaluation_id", snap.EvaluationID.String()).
			Msg("Failed to apply result to progress")
	}

	// The mirror is no longer needed; the result is the record now.
	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, config.CacheKey.AttemptStartKey(snap.EvaluationID.String(), snap.UserID))
	pipe.Del(ctx, config.CacheKey.AttemptAnswersKey(snap.EvaluationID.String(), snap.UserID))
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warn().Err(err).Int("user_id", snap.UserID).Msg("Failed to clear attempt mirror")
	}

	s.log.Info().
		Int("user_id", snap.UserID).
		Str("evaluation_id", snap.EvaluationID.String()).
		Int("score", result.Score).
		Int("percentage", result.Percentage).
		Bool("passed", result.IsPassed).
		Str("status", string(result.Status)).
		Msg("Attempt finalized")

	return &result, grading.Review(questions, snap.Answers), nil
}

// Shutdown stops every live timer. The Redis mirror stays, so each
// attempt resumes exactly where it was when the process comes back.
func (s *AttemptService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, la := range s.live {
		la.cancel()
		delete(s.live, key)
	}
	s.log.Info().Msg("Live attempts parked for restart")
}
