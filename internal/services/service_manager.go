package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mohammedtarek206/elamid/internal/auth"
	"github.com/mohammedtarek206/elamid/internal/cache"
	"github.com/mohammedtarek206/elamid/internal/events"
	"github.com/mohammedtarek206/elamid/internal/repositories"
	"github.com/mohammedtarek206/elamid/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	Exam ExamPolicy

	// FreeVideoLimit caps the public landing page list
	FreeVideoLimit int

	// LoginRetries bounds the session compare-and-swap loop
	LoginRetries int
}

// ExamPolicy switches on the optional submission checks
type ExamPolicy struct {
	EnforceAttemptLimit bool
	EnforceDeadline     bool
	DeadlineGrace       time.Duration
}

// Dependencies are the shared collaborators handed to every service
type Dependencies struct {
	Repo      repositories.Repository
	Logger    *slog.Logger
	Validator *validator.BusinessValidator
	Tokens    *auth.TokenIssuer
	Cache     *cache.CacheManager
	Events    events.EventPublisher
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	deps   Dependencies
	config ServiceManagerConfig

	// Service instances
	authService      AuthService
	portalService    PortalService
	gradingService   GradingService
	studentService   StudentService
	contentService   ContentService
	examService      ExamService
	resultService    ResultService
	dashboardService DashboardService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(deps Dependencies, config ServiceManagerConfig) ServiceManager {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Validator == nil {
		deps.Validator = validator.NewBusinessValidator()
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewCacheManager(nil)
	}
	if deps.Events == nil {
		deps.Events = events.NewMockEventPublisher(deps.Logger)
	}
	return &serviceManager{deps: deps, config: config}
}

// DefaultServiceManagerConfig returns the configuration used when nothing is overridden
func DefaultServiceManagerConfig() ServiceManagerConfig {
	return ServiceManagerConfig{
		Exam: ExamPolicy{
			DeadlineGrace: 2 * time.Minute,
		},
		FreeVideoLimit: 10,
		LoginRetries:   5,
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if sm.deps.Repo == nil {
		return fmt.Errorf("failed to initialize services: repository is required")
	}
	if sm.deps.Tokens == nil {
		return fmt.Errorf("failed to initialize services: token issuer is required")
	}

	sm.deps.Logger.Info("Initializing service manager")

	sm.authService = NewAuthService(sm.deps, sm.config.LoginRetries)
	sm.portalService = NewPortalService(sm.deps, sm.config)
	sm.gradingService = NewGradingService(sm.deps, sm.config.Exam)
	sm.studentService = NewStudentService(sm.deps)
	sm.contentService = NewContentService(sm.deps)
	sm.examService = NewExamService(sm.deps)
	sm.resultService = NewResultService(sm.deps)
	sm.dashboardService = NewDashboardService(sm.deps)

	sm.initialized = true
	sm.deps.Logger.Info("Service manager initialized successfully",
		"enforce_attempt_limit", sm.config.Exam.EnforceAttemptLimit,
		"enforce_deadline", sm.config.Exam.EnforceDeadline)

	return nil
}

func (sm *serviceManager) mustBeReady() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// Service getters
func (sm *serviceManager) Auth() AuthService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.authService
}

func (sm *serviceManager) Portal() PortalService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.portalService
}

func (sm *serviceManager) Grading() GradingService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.gradingService
}

func (sm *serviceManager) Student() StudentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.studentService
}

func (sm *serviceManager) Content() ContentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.contentService
}

func (sm *serviceManager) Exam() ExamService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.examService
}

func (sm *serviceManager) Result() ResultService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.resultService
}

func (sm *serviceManager) Dashboard() DashboardService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeReady()
	return sm.dashboardService
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}
	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.deps.Repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	// Cache failures are logged, not reported
	if sm.deps.Cache.Enabled() {
		if err := sm.deps.Cache.HealthCheck(ctx); err != nil {
			sm.deps.Logger.Warn("Cache health check failed", "error", err)
		}
	}

	return nil
}

// Shutdown closes the event publisher. The repository is owned by its manager.
func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.deps.Logger.Info("Shutting down service manager")

	if err := sm.deps.Events.Close(); err != nil {
		sm.deps.Logger.Error("Failed to close event publisher", "error", err)
	}

	sm.shutdown = true
	sm.deps.Logger.Info("Service manager shut down completed")

	return nil
}

// publish sends an event, logging instead of failing the caller
func publish(ctx context.Context, deps Dependencies, event *events.Event) {
	if err := deps.Events.Publish(ctx, event); err != nil {
		deps.Logger.WarnContext(ctx, "Failed to publish event",
			"event_type", event.Type,
			"event_id", event.ID,
			"error", err)
	}
}
