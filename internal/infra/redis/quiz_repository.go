package redis

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"classroom-quiz/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuizLoader fetches quiz content from a backing store (e.g., Postgres).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizRepository caches quiz markup in Redis, shared by every instance, and falls back to a
// loader on cache miss.
// Questions are stored as: RPUSH quiz:{quizID}:questions {raw}...
// The title is stored as:  SET   quiz:{quizID}:title {title}
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := r.cached(ctx, quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if quiz, ok := r.cached(ctx, quizID); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		if len(quiz.Questions) == 0 {
			return quiz, nil
		}

		ttl := r.ttlWithJitter()
		questionsKey, titleKey := r.questionsKey(quizID), r.titleKey(quizID)
		_, _ = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, questionsKey)
			values := make([]interface{}, len(quiz.Questions))
			for i, raw := range quiz.Questions {
				values[i] = raw
			}
			pipe.RPush(ctx, questionsKey, values...)
			pipe.Set(ctx, titleKey, quiz.Title, ttl)
			if ttl > 0 {
				pipe.Expire(ctx, questionsKey, ttl)
			}
			return nil
		})
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

// Invalidate removes the cached copy of a quiz.
func (r *QuizRepository) Invalidate(ctx context.Context, quizID string) error {
	return r.client.Del(ctx, r.questionsKey(quizID), r.titleKey(quizID)).Err()
}

func (r *QuizRepository) cached(ctx context.Context, quizID string) (domain.Quiz, bool) {
	var (
		questions *redis.StringSliceCmd
		title     *redis.StringCmd
	)
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		questions = pipe.LRange(ctx, r.questionsKey(quizID), 0, -1)
		title = pipe.Get(ctx, r.titleKey(quizID))
		return nil
	})
	if err != nil && err != redis.Nil {
		return domain.Quiz{}, false
	}
	raw, err := questions.Result()
	if err != nil || len(raw) == 0 {
		return domain.Quiz{}, false
	}
	return domain.Quiz{ID: quizID, Title: title.Val(), Questions: raw}, true
}

func (r *QuizRepository) questionsKey(quizID string) string {
	return "quiz:" + quizID + ":questions"
}

func (r *QuizRepository) titleKey(quizID string) string {
	return "quiz:" + quizID + ":title"
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
