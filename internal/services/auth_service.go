package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mohammedtarek206/elamid/internal/auth"
	"github.com/mohammedtarek206/elamid/internal/events"
	"github.com/mohammedtarek206/elamid/internal/models"
	"github.com/mohammedtarek206/elamid/internal/repositories"
	"github.com/mohammedtarek206/elamid/internal/validator"
)

type authService struct {
	deps      Dependencies
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.BusinessValidator
	tokens    *auth.TokenIssuer
	retries   int
}

func NewAuthService(deps Dependencies, retries int) AuthService {
	if retries <= 0 {
		retries = 5
	}
	return &authService{
		deps:      deps,
		repo:      deps.Repo,
		logger:    deps.Logger,
		validator: deps.Validator,
		tokens:    deps.Tokens,
		retries:   retries,
	}
}

// ===== LOGIN =====

// LoginStudent signs a student in by access code and makes the new session the
// only valid one for that student.
func (s *authService) LoginStudent(ctx context.Context, req *StudentLoginRequest) (*StudentLoginResponse, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	code := strings.ToUpper(strings.TrimSpace(req.Code))
	student, err := s.repo.Student().GetByCode(ctx, code)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidStudentCode
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	if !student.IsActive {
		return nil, ErrInvalidStudentCode
	}

	fingerprint, err := auth.NewFingerprint()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session fingerprint: %w", err)
	}

	now := auth.NowFunc()
	replaced, err := s.rotateSession(ctx, &models.StudentSession{
		StudentID:   student.ID,
		Fingerprint: fingerprint,
		IssuedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	if err := s.repo.Student().SetLastLogin(ctx, student.ID, now); err != nil {
		s.logger.WarnContext(ctx, "Failed to record last login", "student_id", student.ID, "error", err)
	} else {
		student.LastLoginAt = &now
	}

	token, err := s.tokens.IssueStudent(student, fingerprint)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "Student logged in",
		"student_id", student.ID,
		"grade", student.Grade,
		"replaced_session", replaced)

	publish(ctx, s.deps, events.NewEvent(events.StudentLoggedIn, events.StudentLoginData{
		StudentID: student.ID,
		Grade:     int(student.Grade),
		Replaced:  replaced,
		At:        now,
	}))

	return &StudentLoginResponse{
		Token:     token,
		Student:   student,
		ExpiresAt: now.Add(s.tokens.StudentTTL()),
	}, nil
}

// rotateSession installs next over whatever session the student holds. A lost
// race against a concurrent login is retried against the new current value.
func (s *authService) rotateSession(ctx context.Context, next *models.StudentSession) (bool, error) {
	for attempt := 0; attempt < s.retries; attempt++ {
		expected := ""
		current, err := s.repo.Session().Get(ctx, next.StudentID)
		switch {
		case err == nil:
			expected = current.Fingerprint
		case !repositories.IsNotFoundError(err):
			return false, fmt.Errorf("failed to get session: %w", err)
		}

		swapped, err := s.repo.Session().CompareAndSwap(ctx, expected, next)
		if err != nil {
			return false, fmt.Errorf("failed to store session: %w", err)
		}
		if swapped {
			return expected != "", nil
		}

		s.logger.DebugContext(ctx, "Session swap lost a race, retrying",
			"student_id", next.StudentID,
			"attempt", attempt+1)
	}
	return false, fmt.Errorf("failed to store session for student %d after %d attempts: %w", next.StudentID, s.retries, ErrSessionContention)
}

func (s *authService) LoginAdmin(ctx context.Context, req *AdminLoginRequest) (*AdminLoginResponse, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	admin, err := s.repo.Admin().GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(admin.PasswordHash, []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.IssueAdmin(admin)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.InfoContext(ctx, "Admin logged in", "admin_id", admin.ID)

	return &AdminLoginResponse{
		Token:     token,
		Admin:     admin,
		ExpiresAt: auth.NowFunc().Add(s.tokens.AdminTTL()),
	}, nil
}

// ===== SESSION GUARD =====

// Authenticate verifies the token and checks it against current state: the
// principal must still exist, a student must be active and hold the live session.
func (s *authService) Authenticate(ctx context.Context, token string) (auth.Principal, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	id, err := claims.PrincipalID()
	if err != nil {
		return nil, ErrUnauthenticated
	}

	switch claims.Role {
	case models.RoleAdmin:
		admin, err := s.repo.Admin().GetByID(ctx, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrUnauthenticated
			}
			return nil, fmt.Errorf("failed to get admin: %w", err)
		}
		return &auth.AdminPrincipal{Admin: admin}, nil

	case models.RoleStudent:
		if claims.SessionID == "" {
			return nil, ErrUnauthenticated
		}
		student, err := s.repo.Student().GetByID(ctx, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrUnauthenticated
			}
			return nil, fmt.Errorf("failed to get student: %w", err)
		}
		if !student.IsActive {
			return nil, ErrAccountDisabled
		}

		session, err := s.repo.Session().Get(ctx, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrSessionSuperseded
			}
			return nil, fmt.Errorf("failed to get session: %w", err)
		}
		if subtle.ConstantTimeCompare([]byte(session.Fingerprint), []byte(claims.SessionID)) != 1 {
			return nil, ErrSessionSuperseded
		}
		return &auth.StudentPrincipal{Student: student, Fingerprint: claims.SessionID}, nil

	default:
		return nil, ErrUnauthenticated
	}
}

// Logout ends a student's session if it is still the live one. Admin tokens are
// stateless and simply expire.
func (s *authService) Logout(ctx context.Context, principal auth.Principal) error {
	switch p := principal.(type) {
	case *auth.StudentPrincipal:
		revoked, err := s.repo.Session().Revoke(ctx, p.Student.ID, p.Fingerprint)
		if err != nil {
			return fmt.Errorf("failed to revoke session: %w", err)
		}
		if revoked {
			publish(ctx, s.deps, events.NewEvent(events.StudentLoggedOut, events.EntityDeletedData{ID: p.Student.ID}))
		}
		return nil
	case *auth.AdminPrincipal:
		return nil
	default:
		return ErrUnauthenticated
	}
}

// ===== BOOTSTRAP =====

func (s *authService) SeedAdmin(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return ValidationErrors{*NewValidationError("admin", "username and password are required", nil)}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin, err := s.repo.Admin().GetByUsername(ctx, username)
	switch {
	case err == nil:
		if bcrypt.CompareHashAndPassword(admin.PasswordHash, []byte(password)) == nil {
			return nil
		}
		if err := s.repo.Admin().UpdatePassword(ctx, admin.ID, hash); err != nil {
			return fmt.Errorf("failed to update admin password: %w", err)
		}
		s.logger.InfoContext(ctx, "Admin password reset from configuration", "username", username)
		return nil
	case repositories.IsNotFoundError(err):
		err := s.repo.Admin().Create(ctx, &models.Admin{Username: username, PasswordHash: hash})
		if err != nil && !errors.Is(err, repositories.ErrDuplicate) {
			return fmt.Errorf("failed to create admin: %w", err)
		}
		s.logger.InfoContext(ctx, "Admin account created", "username", username)
		return nil
	default:
		return fmt.Errorf("failed to get admin: %w", err)
	}
}
