package repositories

import "context"

// Repository aggregates the per-entity repositories of one store.
type Repository interface {
	Student() StudentRepository
	Admin() AdminRepository
	Session() SessionRepository

	Video() VideoRepository
	FreeVideo() FreeVideoRepository

	Exam() ExamRepository
	Question() QuestionRepository
	Result() ResultRepository

	// WithTransaction runs fn against a repository bound to one transaction.
	// Returning an error rolls it back.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	Ping(ctx context.Context) error
	Close() error
}

// RepositoryManager owns the lifecycle of a Repository.
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
