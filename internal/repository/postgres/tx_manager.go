package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/learnhub-api/internal/domain/repository"
)

// store собирает репозитории над одним *gorm.DB (пулом или транзакцией)
type store struct {
	db *gorm.DB
}

func (s *store) Exercises() repository.ExerciseRepository { return NewExerciseRepo(s.db) }
func (s *store) Quizzes() repository.QuizRepository       { return NewQuizRepo(s.db) }
func (s *store) Links() repository.QuizExerciseRepository { return NewQuizExerciseRepo(s.db) }
func (s *store) Users() repository.UserRepository         { return NewUserRepo(s.db) }

// TxManager реализует repository.TxManager поверх gorm
type TxManager struct {
	store
}

// NewTxManager создает менеджер транзакций
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{store: store{db: db}}
}

// WithinTx выполняет fn в транзакции gorm.
// Коммит при nil, откат при ошибке или панике.
func (m *TxManager) WithinTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&store{db: tx})
	})
}
