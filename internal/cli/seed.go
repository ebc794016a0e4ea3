package cli

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"

	"toeic-quiz-service/internal/config"
	"toeic-quiz-service/internal/domain"
	"toeic-quiz-service/internal/logging"
)

// NewSeedCmd loads sample categories and questions so a fresh database is
// immediately playable.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed sample categories and questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := logging.New(cfg.Logger.Level, cfg.Logger.Env)
			defer func() { _ = logger.Sync() }()

			if err := runMigrationsWithConfig(cmd.Context(), cfg, logger); err != nil {
				return err
			}
			return runSeed(cmd.Context(), cfg, logger)
		},
	}
}

func runSeed(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	for _, c := range seedCategories() {
		_, err := db.ExecContext(ctx, `
			INSERT INTO toeic_categories (id, title, icon, color, bg, description, display_order)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO NOTHING`,
			c.ID, c.Title, c.Icon, c.Color, c.Bg, c.Description, c.DisplayOrder)
		if err != nil {
			return err
		}
	}

	for _, q := range sampleQuestions() {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		_, err = db.ExecContext(ctx, `
			INSERT INTO toeic_questions (category, question, options, correct_answer, explanation, source)
			SELECT ?, ?, ?::jsonb, ?, ?, 'seed'
			WHERE NOT EXISTS (SELECT 1 FROM toeic_questions WHERE question = ?)`,
			q.Category, q.Prompt, string(options), q.CorrectAnswer, q.Explanation, q.Prompt)
		if err != nil {
			return err
		}
	}

	logger.Info("seed data applied")
	return nil
}

func seedCategories() []domain.Category {
	return []domain.Category{
		{ID: "Part 5", Title: "Part 5: Incomplete Sentences", Icon: "PenLine", Color: "text-emerald-400", Bg: "bg-emerald-950", Description: "Grammar and vocabulary in single sentences", DisplayOrder: 1},
		{ID: "Part 6", Title: "Part 6: Text Completion", Icon: "FileText", Color: "text-sky-400", Bg: "bg-sky-950", Description: "Fill the blanks in short passages", DisplayOrder: 2},
		{ID: "Part 7", Title: "Part 7: Reading Comprehension", Icon: "BookOpen", Color: "text-violet-400", Bg: "bg-violet-950", Description: "Single and multiple passage reading", DisplayOrder: 3},
	}
}
