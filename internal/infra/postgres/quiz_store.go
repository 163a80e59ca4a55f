package postgres

import (
	"context"
	"database/sql"
	"time"

	"classroom-quiz/internal/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type quizModel struct {
	bun.BaseModel `bun:"table:quizzes,alias:q"`

	ID        string    `bun:"id,pk"`
	Title     string    `bun:"title,notnull"`
	Questions []string  `bun:"questions,type:jsonb,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// QuizStore writes quiz content; reads on the hot path go through QuizLoader.
type QuizStore struct {
	db *bun.DB
}

// OpenDB opens a bun handle on a Postgres DSN.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func NewQuizStore(db *bun.DB) *QuizStore {
	return &QuizStore{db: db}
}

// Save inserts the quiz or replaces the title and questions of an existing one.
func (s *QuizStore) Save(ctx context.Context, quiz domain.Quiz) error {
	model := &quizModel{
		ID:        quiz.ID,
		Title:     quiz.Title,
		Questions: quiz.Questions,
		UpdatedAt: time.Now().UTC(),
	}
	if model.Questions == nil {
		model.Questions = []string{}
	}
	_, err := s.db.NewInsert().
		Model(model).
		On("CONFLICT (id) DO UPDATE").
		Set("title = EXCLUDED.title").
		Set("questions = EXCLUDED.questions").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// List returns the id and title of every stored quiz, ordered by id.
func (s *QuizStore) List(ctx context.Context) ([]domain.Quiz, error) {
	var models []quizModel
	if err := s.db.NewSelect().Model(&models).Column("id", "title").Order("id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	out := make([]domain.Quiz, len(models))
	for i, m := range models {
		out[i] = domain.Quiz{ID: m.ID, Title: m.Title}
	}
	return out, nil
}
