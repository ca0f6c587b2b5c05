package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"mpt-command-center/internal/domain"
	"mpt-command-center/internal/logger"
)

// Academy milestones that unlock achievements.
const (
	AchievementFirstQuizPassed = "first-quiz-passed"
	AchievementPerfectScore    = "perfect-score"
)

const defaultPassingPercent = 70

// AcademyService serves modules and grades quizzes.
type AcademyService struct {
	docs    DocumentStore
	quizzes QuizRepository
	board   ScoreRecorder
	log     *logger.Logger
	now     func() time.Time
}

func NewAcademyService(docs DocumentStore, quizzes QuizRepository, board ScoreRecorder, log *logger.Logger, now func() time.Time) *AcademyService {
	return &AcademyService{docs: docs, quizzes: quizzes, board: board, log: log.With("service", "AcademyService"), now: now}
}

// Modules lists modules in curriculum order.
func (s *AcademyService) Modules(ctx context.Context) ([]domain.Module, error) {
	modules, err := findAs[domain.Module](ctx, s.docs, CollectionModules, nil)
	if err != nil {
		return nil, err
	}
	sort.Slice(modules, func(i, j int) bool {
		if modules[i].Order != modules[j].Order {
			return modules[i].Order < modules[j].Order
		}
		return modules[i].ID < modules[j].ID
	})
	return modules, nil
}

// Module loads one module with its lessons ordered.
func (s *AcademyService) Module(ctx context.Context, id string) (domain.Module, error) {
	module, err := getAs[domain.Module](ctx, s.docs, CollectionModules, id)
	if err != nil {
		return domain.Module{}, mapNotFound(err, domain.ErrModuleNotFound)
	}
	sort.SliceStable(module.Lessons, func(i, j int) bool { return module.Lessons[i].Order < module.Lessons[j].Order })
	return module, nil
}

// Quiz returns quiz content without answers.
func (s *AcademyService) Quiz(ctx context.Context, id string) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, id)
	if err != nil {
		return domain.Quiz{}, err
	}
	return quiz.Redacted(), nil
}

// Submit grades a submission, stores the attempt and feeds the leaderboard.
func (s *AcademyService) Submit(ctx context.Context, who Identity, quizID string, answers []domain.AnswerSubmission) (domain.QuizAttempt, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizAttempt{}, err
	}
	attempt, err := gradeQuiz(quiz, answers)
	if err != nil {
		return domain.QuizAttempt{}, err
	}

	previous, err := s.Attempts(ctx, who.UserID)
	if err != nil {
		return domain.QuizAttempt{}, err
	}

	attempt.ID = uuid.NewString()
	attempt.UserID = who.UserID
	attempt.QuizID = quiz.ID
	attempt.SubmittedAt = s.now()
	if err := s.docs.Put(ctx, CollectionQuizAttempts, attempt.ID, attempt); err != nil {
		return domain.QuizAttempt{}, fmt.Errorf("store attempt: %w", err)
	}

	s.emitQuizEvents(ctx, who, attempt, previous)
	return attempt, nil
}

// Attempts lists a user's attempts, newest first.
func (s *AcademyService) Attempts(ctx context.Context, userID string) ([]domain.QuizAttempt, error) {
	attempts, err := findAs[domain.QuizAttempt](ctx, s.docs, CollectionQuizAttempts, map[string]string{"userId": userID})
	if err != nil {
		return nil, err
	}
	sort.Slice(attempts, func(i, j int) bool { return attempts[i].SubmittedAt.After(attempts[j].SubmittedAt) })
	return attempts, nil
}

// UpsertModule creates or replaces a module.
func (s *AcademyService) UpsertModule(ctx context.Context, module domain.Module) (domain.Module, error) {
	module.ID = strings.TrimSpace(module.ID)
	if module.ID == "" {
		module.ID = uuid.NewString()
	}
	if err := s.docs.Put(ctx, CollectionModules, module.ID, module); err != nil {
		return domain.Module{}, fmt.Errorf("store module: %w", err)
	}
	return module, nil
}

// UpsertQuiz creates or replaces a quiz and drops any cached copy.
func (s *AcademyService) UpsertQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	quiz.ID = strings.TrimSpace(quiz.ID)
	if quiz.ID == "" {
		quiz.ID = uuid.NewString()
	}
	if len(quiz.Questions) == 0 {
		return domain.Quiz{}, fmt.Errorf("%w: quiz %s has no questions", domain.ErrQuestionNotFound, quiz.ID)
	}
	if err := s.docs.Put(ctx, CollectionQuizzes, quiz.ID, quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("store quiz: %w", err)
	}
	if err := s.quizzes.Invalidate(ctx, quiz.ID); err != nil {
		s.log.Warn("quiz cache invalidation failed", "quiz", quiz.ID, "error", err)
	}
	return quiz, nil
}

func (s *AcademyService) emitQuizEvents(ctx context.Context, who Identity, attempt domain.QuizAttempt, previous []domain.QuizAttempt) {
	events := []domain.ScoreEvent{{
		ID:         "quiz:" + attempt.ID,
		UserID:     who.UserID,
		UserName:   who.Name,
		Kind:       domain.EventQuiz,
		QuizID:     attempt.QuizID,
		Percentage: attempt.Percentage,
		OccurredAt: attempt.SubmittedAt,
	}}
	if attempt.Passed && !anyPassed(previous) {
		events = append(events, achievementEvent(who, AchievementFirstQuizPassed, attempt.SubmittedAt))
	}
	if attempt.Percentage == 100 {
		events = append(events, achievementEvent(who, AchievementPerfectScore, attempt.SubmittedAt))
	}
	for _, ev := range events {
		if _, err := s.board.RecordEvent(ctx, ev); err != nil {
			s.log.Error("leaderboard update failed", "user", who.UserID, "kind", ev.Kind, "error", err)
		}
	}
}

func anyPassed(attempts []domain.QuizAttempt) bool {
	for _, a := range attempts {
		if a.Passed {
			return true
		}
	}
	return false
}

// gradeQuiz scores answers against quiz content. Unknown questions or
// options are skipped; repeated answers to the same question count once.
// The percentage is weighted by question points over the whole quiz.
func gradeQuiz(quiz domain.Quiz, answers []domain.AnswerSubmission) (domain.QuizAttempt, error) {
	attempt := domain.QuizAttempt{Total: len(quiz.Questions)}
	totalPoints := 0
	for _, q := range quiz.Questions {
		totalPoints += questionPoints(q)
	}

	seen := make(map[string]struct{}, len(answers))
	earned, graded := 0, 0
	for _, answer := range answers {
		if _, dup := seen[answer.QuestionID]; dup {
			attempt.Skipped++
			continue
		}
		correct, points, err := scoreAnswer(quiz, answer)
		if err != nil {
			attempt.Skipped++
			continue
		}
		seen[answer.QuestionID] = struct{}{}
		graded++
		if correct {
			attempt.Correct++
			earned += points
		}
	}
	if graded == 0 {
		return domain.QuizAttempt{}, domain.ErrNoAnswers
	}

	if totalPoints > 0 {
		attempt.Percentage = earned * 100 / totalPoints
	}
	passing := quiz.PassingPercent
	if passing <= 0 {
		passing = defaultPassingPercent
	}
	attempt.Passed = attempt.Percentage >= passing
	return attempt, nil
}

// scoreAnswer validates one answer against quiz content and returns (correct, points).
func scoreAnswer(quiz domain.Quiz, answer domain.AnswerSubmission) (bool, int, error) {
	var question *domain.Question
	for i := range quiz.Questions {
		if quiz.Questions[i].ID == answer.QuestionID {
			question = &quiz.Questions[i]
			break
		}
	}
	if question == nil {
		return false, 0, domain.ErrQuestionNotFound
	}

	for i := range question.Options {
		if question.Options[i].ID == answer.OptionID {
			if question.Options[i].Correct {
				return true, questionPoints(*question), nil
			}
			return false, 0, nil
		}
	}
	return false, 0, domain.ErrOptionNotFound
}

func questionPoints(q domain.Question) int {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}

// DocumentQuizLoader reads quiz content from the document store. It backs the
// quiz caches the same way a database loader would.
type DocumentQuizLoader struct {
	docs DocumentStore
}

func NewDocumentQuizLoader(docs DocumentStore) *DocumentQuizLoader {
	return &DocumentQuizLoader{docs: docs}
}

// LoadQuiz fetches a quiz by ID.
func (l *DocumentQuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := getAs[domain.Quiz](ctx, l.docs, CollectionQuizzes, quizID)
	if err != nil {
		return domain.Quiz{}, mapNotFound(err, domain.ErrQuizNotFound)
	}
	return quiz, nil
}
