package repository

import "context"

// Store объединяет репозитории, работающие в одной транзакции.
type Store interface {
	Exercises() ExerciseRepository
	Quizzes() QuizRepository
	Links() QuizExerciseRepository
	Users() UserRepository
}

// TxManager выполняет fn в транзакции: коммит при nil, откат при ошибке или панике.
// Store вне транзакции работает в режиме autocommit.
type TxManager interface {
	Store
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}
