package cli

import (
	"context"
	"fmt"

	"mpt-command-center/internal/app"
	"mpt-command-center/internal/domain"
	"mpt-command-center/internal/logger"
)

// seedAcademy writes the starter curriculum when no module exists yet.
func seedAcademy(ctx context.Context, docs app.DocumentStore, log *logger.Logger) error {
	existing, err := docs.Find(ctx, app.CollectionModules, nil)
	if err != nil {
		return fmt.Errorf("check academy modules: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}
	modules, quizzes := sampleAcademy()
	for _, q := range quizzes {
		if err := docs.Put(ctx, app.CollectionQuizzes, q.ID, q); err != nil {
			return fmt.Errorf("seed quiz %s: %w", q.ID, err)
		}
	}
	for _, m := range modules {
		if err := docs.Put(ctx, app.CollectionModules, m.ID, m); err != nil {
			return fmt.Errorf("seed module %s: %w", m.ID, err)
		}
	}
	log.Info("academy seeded", "modules", len(modules), "quizzes", len(quizzes))
	return nil
}

// sampleAcademy is the starter curriculum; admins replace it through the API.
func sampleAcademy() ([]domain.Module, []domain.Quiz) {
	modules := []domain.Module{
		{
			ID:          "risk-management",
			Title:       "Risk Management",
			Description: "Protect the account before chasing profit.",
			Order:       1,
			QuizID:      "risk-management-quiz",
			Lessons: []domain.Lesson{
				{ID: "risk-1", Title: "The 1-2% rule", Order: 1, Content: "Never risk more than 1-2% of the account on a single trade."},
				{ID: "risk-2", Title: "Placing a stop loss", Order: 2, Content: "Put the stop where the trade idea is proven wrong, then size the position to fit it."},
				{ID: "risk-3", Title: "Risk to reward", Order: 3, Content: "Only take setups whose target is at least twice the distance of the stop."},
			},
		},
		{
			ID:          "trading-psychology",
			Title:       "Trading Psychology",
			Description: "Discipline, emotions and the warrior mindset.",
			Order:       2,
			QuizID:      "trading-psychology-quiz",
			Lessons: []domain.Lesson{
				{ID: "psy-1", Title: "Fear and greed", Order: 1, Content: "Recognise the two emotions that drive most losing trades."},
				{ID: "psy-2", Title: "Revenge trading", Order: 2, Content: "After a loss, step away. The next trade must come from the plan, not the pain."},
			},
		},
	}
	quizzes := []domain.Quiz{
		{
			ID:             "risk-management-quiz",
			Title:          "Risk Management Check",
			PassingPercent: 70,
			Questions: []domain.Question{
				{ID: "q1", Prompt: "How much of the account should a single trade risk?", Points: 1, Options: []domain.Option{
					{ID: "a", Text: "1-2%", Correct: true},
					{ID: "b", Text: "10%"},
					{ID: "c", Text: "Whatever feels right"},
				}},
				{ID: "q2", Prompt: "Where does the stop loss belong?", Points: 1, Options: []domain.Option{
					{ID: "a", Text: "At a round number"},
					{ID: "b", Text: "Where the trade idea is invalidated", Correct: true},
					{ID: "c", Text: "There is no need for one"},
				}},
				{ID: "q3", Prompt: "A 1:2 risk to reward means...", Points: 1, Options: []domain.Option{
					{ID: "a", Text: "The target is twice the stop distance", Correct: true},
					{ID: "b", Text: "Two trades per day"},
				}},
			},
		},
		{
			ID:             "trading-psychology-quiz",
			Title:          "Psychology Check",
			PassingPercent: 70,
			Questions: []domain.Question{
				{ID: "q1", Prompt: "What should you do right after a big loss?", Points: 1, Options: []domain.Option{
					{ID: "a", Text: "Double the next position"},
					{ID: "b", Text: "Pause and journal the trade", Correct: true},
				}},
				{ID: "q2", Prompt: "FOMO usually leads to...", Points: 1, Options: []domain.Option{
					{ID: "a", Text: "Late entries outside the plan", Correct: true},
					{ID: "b", Text: "Better fills"},
				}},
			},
		},
	}
	return modules, quizzes
}
