package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"classroom-quiz/internal/config"
	"classroom-quiz/internal/domain"
	"classroom-quiz/internal/gift"
	"classroom-quiz/internal/infra/postgres"
	"github.com/spf13/cobra"
)

// NewImportCmd loads a GIFT file into the quizzes table.
func NewImportCmd(configPath *string) *cobra.Command {
	var id, title string
	cmd := &cobra.Command{
		Use:   "import <file.gift>",
		Short: "Import a GIFT quiz file into Postgres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			quiz, err := readQuizFile(args[0], id, title)
			if err != nil {
				return err
			}
			return importQuiz(cmd.Context(), cfg, quiz)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "quiz id (defaults to the file name)")
	cmd.Flags().StringVar(&title, "title", "", "quiz title (defaults to the id)")
	return cmd
}

// readQuizFile splits a GIFT document into questions. Questions the engine cannot grade are
// reported and left out.
func readQuizFile(path, id, title string) (domain.Quiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Quiz{}, err
	}
	if id == "" {
		id = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if title == "" {
		title = id
	}

	quiz := domain.Quiz{ID: id, Title: title}
	for i, raw := range gift.SplitQuestions(string(data)) {
		if _, err := gift.Parse(raw); err != nil {
			log.Printf("import: skipping question %d: %v", i+1, err)
			continue
		}
		quiz.Questions = append(quiz.Questions, raw)
	}
	if len(quiz.Questions) == 0 {
		return domain.Quiz{}, fmt.Errorf("%s: %w", path, domain.ErrNoParseableQuestions)
	}
	return quiz, nil
}

func importQuiz(ctx context.Context, cfg config.Config, quiz domain.Quiz) error {
	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return err
	}
	db := postgres.OpenDB(cfg.Postgres.URL)
	defer db.Close()

	if err := postgres.NewQuizStore(db).Save(ctx, quiz); err != nil {
		return fmt.Errorf("save quiz %s: %w", quiz.ID, err)
	}
	log.Printf("imported quiz %s with %d questions", quiz.ID, len(quiz.Questions))
	return nil
}
