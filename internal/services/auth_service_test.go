package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/mohammedtarek206/elamid/internal/auth"
	"github.com/mohammedtarek206/elamid/internal/events"
	"github.com/mohammedtarek206/elamid/internal/models"
	"github.com/mohammedtarek206/elamid/internal/repositories"
	"github.com/mohammedtarek206/elamid/internal/repositories/memory"
)

func TestLoginStudent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewAuthService(env.deps, 0)

	student := env.student(t, "ABC123", models.GradeSecond)
	disabled := env.student(t, "DEAD01", models.GradeSecond)
	disabled.IsActive = false
	if err := env.store.Student().Update(ctx, disabled); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{name: "exact code", code: "ABC123"},
		{name: "code is normalised", code: "  abc123 "},
		{name: "unknown code", code: "ZZZ999", wantErr: ErrInvalidStudentCode},
		{name: "inactive student", code: "DEAD01", wantErr: ErrInvalidStudentCode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.LoginStudent(ctx, &StudentLoginRequest{Code: tt.code})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("LoginStudent() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("LoginStudent() error = %v", err)
			}
			if resp.Token == "" || resp.Student.ID != student.ID {
				t.Fatalf("LoginStudent() = %+v", resp)
			}
			if resp.Student.LastLoginAt == nil {
				t.Error("LastLoginAt not set")
			}
		})
	}

	t.Run("empty code is a validation error", func(t *testing.T) {
		_, err := svc.LoginStudent(ctx, &StudentLoginRequest{Code: ""})
		var verrs ValidationErrors
		if !errors.As(err, &verrs) {
			t.Fatalf("LoginStudent() error = %v, want validation errors", err)
		}
	})
}

func TestSingleDeviceSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewAuthService(env.deps, 0)
	student := env.student(t, "ABC123", models.GradeFirst)

	first, err := svc.LoginStudent(ctx, &StudentLoginRequest{Code: "ABC123"})
	if err != nil {
		t.Fatal(err)
	}
	p, err := svc.Authenticate(ctx, first.Token)
	if err != nil {
		t.Fatalf("Authenticate(first) error = %v", err)
	}
	if sp, ok := p.(*auth.StudentPrincipal); !ok || sp.Student.ID != student.ID {
		t.Fatalf("Authenticate(first) = %#v", p)
	}

	second, err := svc.LoginStudent(ctx, &StudentLoginRequest{Code: "ABC123"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Authenticate(ctx, first.Token); !errors.Is(err, ErrSessionSuperseded) {
		t.Errorf("Authenticate(first) after second login error = %v, want superseded", err)
	}
	if _, err := svc.Authenticate(ctx, second.Token); err != nil {
		t.Errorf("Authenticate(second) error = %v", err)
	}

	logins := env.events.EventsOfType(events.StudentLoggedIn)
	if len(logins) != 2 {
		t.Fatalf("login events = %d, want 2", len(logins))
	}
	if data, ok := logins[1].Data.(events.StudentLoginData); !ok || !data.Replaced {
		t.Errorf("second login event data = %#v, want Replaced", logins[1].Data)
	}
}

func TestConcurrentLoginsLeaveOneSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewAuthService(env.deps, 64)
	env.student(t, "ABC123", models.GradeFirst)

	const logins = 8
	tokens := make([]string, logins)
	var wg sync.WaitGroup
	for i := 0; i < logins; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := svc.LoginStudent(ctx, &StudentLoginRequest{Code: "ABC123"})
			if err != nil {
				t.Errorf("LoginStudent() error = %v", err)
				return
			}
			tokens[i] = resp.Token
		}(i)
	}
	wg.Wait()

	valid := 0
	for _, tok := range tokens {
		if _, err := svc.Authenticate(ctx, tok); err == nil {
			valid++
		}
	}
	if valid != 1 {
		t.Errorf("%d tokens authenticate after concurrent logins, want exactly 1", valid)
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewAuthService(env.deps, 0)
	student := env.student(t, "ABC123", models.GradeFirst)

	login, err := svc.LoginStudent(ctx, &StudentLoginRequest{Code: "ABC123"})
	if err != nil {
		t.Fatal(err)
	}

	t.Run("garbage token", func(t *testing.T) {
		for _, tok := range []string{"", "not-a-jwt"} {
			if _, err := svc.Authenticate(ctx, tok); !errors.Is(err, ErrUnauthenticated) {
				t.Errorf("Authenticate(%q) error = %v", tok, err)
			}
		}
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := auth.NewTokenIssuer(auth.TokenConfig{Secret: []byte("other-secret")})
		fp, _ := auth.NewFingerprint()
		tok, err := other.IssueStudent(student, fp)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Authenticate(ctx, tok); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("disabled account", func(t *testing.T) {
		student.IsActive = false
		env.store.Student().Update(ctx, student)
		defer func() {
			student.IsActive = true
			env.store.Student().Update(ctx, student)
		}()
		if _, err := svc.Authenticate(ctx, login.Token); !errors.Is(err, ErrAccountDisabled) {
			t.Errorf("error = %v, want account disabled", err)
		}
	})

	t.Run("deleted student", func(t *testing.T) {
		gone := env.student(t, "GONE01", models.GradeFirst)
		resp, err := svc.LoginStudent(ctx, &StudentLoginRequest{Code: "GONE01"})
		if err != nil {
			t.Fatal(err)
		}
		if err := env.store.Student().Delete(ctx, gone.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Authenticate(ctx, resp.Token); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("error = %v", err)
		}
	})

	t.Run("session row missing", func(t *testing.T) {
		if err := env.store.Session().Delete(ctx, student.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := svc.Authenticate(ctx, login.Token); !errors.Is(err, ErrSessionSuperseded) {
			t.Errorf("error = %v, want superseded", err)
		}
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewAuthService(env.deps, 0)
	env.student(t, "ABC123", models.GradeFirst)

	login, err := svc.LoginStudent(ctx, &StudentLoginRequest{Code: "ABC123"})
	if err != nil {
		t.Fatal(err)
	}
	p, err := svc.Authenticate(ctx, login.Token)
	if err != nil {
		t.Fatal(err)
	}

	// A newer login on another device is not ended by the old device logging out
	newer, err := svc.LoginStudent(ctx, &StudentLoginRequest{Code: "ABC123"})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Logout(ctx, p); err != nil {
		t.Fatalf("Logout(stale) error = %v", err)
	}
	current, err := svc.Authenticate(ctx, newer.Token)
	if err != nil {
		t.Fatalf("newer session ended by stale logout: %v", err)
	}
	if n := len(env.events.EventsOfType(events.StudentLoggedOut)); n != 0 {
		t.Errorf("logout events after stale logout = %d", n)
	}

	if err := svc.Logout(ctx, current); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := svc.Authenticate(ctx, newer.Token); !errors.Is(err, ErrSessionSuperseded) {
		t.Errorf("Authenticate after logout error = %v", err)
	}
	if n := len(env.events.EventsOfType(events.StudentLoggedOut)); n != 1 {
		t.Errorf("logout events = %d, want 1", n)
	}
}

func TestAdminLoginAndSeed(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewAuthService(env.deps, 0)

	if err := svc.SeedAdmin(ctx, "admin", "first-pass"); err != nil {
		t.Fatalf("SeedAdmin() error = %v", err)
	}
	if err := svc.SeedAdmin(ctx, "admin", "first-pass"); err != nil {
		t.Fatalf("SeedAdmin() again error = %v", err)
	}

	resp, err := svc.LoginAdmin(ctx, &AdminLoginRequest{Username: "admin", Password: "first-pass"})
	if err != nil {
		t.Fatalf("LoginAdmin() error = %v", err)
	}
	p, err := svc.Authenticate(ctx, resp.Token)
	if err != nil {
		t.Fatalf("Authenticate(admin) error = %v", err)
	}
	if p.Role() != models.RoleAdmin {
		t.Errorf("Role() = %s", p.Role())
	}

	if _, err := svc.LoginAdmin(ctx, &AdminLoginRequest{Username: "admin", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v", err)
	}
	if _, err := svc.LoginAdmin(ctx, &AdminLoginRequest{Username: "nobody", Password: "first-pass"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown admin error = %v", err)
	}

	if err := svc.SeedAdmin(ctx, "admin", "second-pass"); err != nil {
		t.Fatalf("SeedAdmin(new password) error = %v", err)
	}
	admin, err := env.store.Admin().GetByUsername(ctx, "admin")
	if err != nil {
		t.Fatal(err)
	}
	if bcrypt.CompareHashAndPassword(admin.PasswordHash, []byte("second-pass")) != nil {
		t.Error("seeded password was not updated")
	}

	if err := svc.Logout(ctx, p); err != nil {
		t.Errorf("Logout(admin) error = %v", err)
	}

	var verrs ValidationErrors
	if err := svc.SeedAdmin(ctx, "", "x"); !errors.As(err, &verrs) {
		t.Errorf("SeedAdmin(empty) error = %v", err)
	}
}

// contendedStore loses every session swap, as if another login always won.
type contendedStore struct{ *memory.Store }

func (s contendedStore) Session() repositories.SessionRepository {
	return contendedSessions{s.Store.Session()}
}

type contendedSessions struct{ repositories.SessionRepository }

func (contendedSessions) CompareAndSwap(ctx context.Context, expected string, next *models.StudentSession) (bool, error) {
	return false, nil
}

func TestLoginGivesUpAfterRetries(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.student(t, "BUSY01", models.GradeFirst)

	deps := env.deps
	deps.Repo = contendedStore{env.store}
	svc := NewAuthService(deps, 3)

	_, err := svc.LoginStudent(ctx, &StudentLoginRequest{Code: "BUSY01"})
	if !errors.Is(err, ErrSessionContention) {
		t.Fatalf("LoginStudent() error = %v, want ErrSessionContention", err)
	}
	if errors.Is(err, ErrConflict) {
		t.Error("contention must not be reported as a client conflict")
	}
	if _, err := env.store.Session().Get(ctx, 1); !repositories.IsNotFoundError(err) {
		t.Errorf("session stored despite failed login: %v", err)
	}
	if n := len(env.events.EventsOfType(events.StudentLoggedIn)); n != 0 {
		t.Errorf("login events = %d, want 0", n)
	}
}
