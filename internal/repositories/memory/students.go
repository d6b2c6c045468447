package memory

import (
	"context"
	"time"

	"github.com/mohammedtarek206/elamid/internal/models"
	"github.com/mohammedtarek206/elamid/internal/repositories"
)

type studentRepo struct{ s *Store }

func (r studentRepo) Create(ctx context.Context, student *models.Student) error {
	r.s.lock()
	defer r.s.unlock()

	if r.codeTaken(student.Code, 0) {
		return repositories.ErrDuplicate
	}
	now := r.s.now()
	student.ID = r.s.id("students")
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	r.s.students[student.ID] = *student
	return nil
}

func (r studentRepo) GetByID(ctx context.Context, id uint) (*models.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	st, ok := r.s.students[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &st, nil
}

func (r studentRepo) GetByIDForUpdate(ctx context.Context, id uint) (*models.Student, error) {
	return r.GetByID(ctx, id)
}

func (r studentRepo) GetByCode(ctx context.Context, code string) (*models.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, st := range r.s.students {
		if st.Code == code {
			return &st, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r studentRepo) List(ctx context.Context, filters repositories.StudentFilters) ([]*models.Student, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Student, 0, len(r.s.students))
	for _, st := range r.s.students {
		if matchStudent(st, filters) {
			out = append(out, &st)
		}
	}
	sortNewestFirst(out, func(s *models.Student) (time.Time, uint) { return s.CreatedAt, s.ID })
	return out, nil
}

func (r studentRepo) Update(ctx context.Context, student *models.Student) error {
	r.s.lock()
	defer r.s.unlock()

	existing, ok := r.s.students[student.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	if r.codeTaken(student.Code, student.ID) {
		return repositories.ErrDuplicate
	}
	student.CreatedAt = existing.CreatedAt
	student.UpdatedAt = r.s.now()
	r.s.students[student.ID] = *student
	return nil
}

func (r studentRepo) Delete(ctx context.Context, id uint) error {
	r.s.lock()
	defer r.s.unlock()

	if _, ok := r.s.students[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.students, id)
	return nil
}

func (r studentRepo) SetLastLogin(ctx context.Context, id uint, at time.Time) error {
	r.s.lock()
	defer r.s.unlock()

	st, ok := r.s.students[id]
	if !ok {
		return repositories.ErrNotFound
	}
	st.LastLoginAt = &at
	r.s.students[id] = st
	return nil
}

func (r studentRepo) ExistsByCode(ctx context.Context, code string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.codeTaken(code, 0), nil
}

func (r studentRepo) Count(ctx context.Context, filters repositories.StudentFilters) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, st := range r.s.students {
		if matchStudent(st, filters) {
			n++
		}
	}
	return n, nil
}

// codeTaken must be called with the lock held.
func (r studentRepo) codeTaken(code string, excludeID uint) bool {
	for id, st := range r.s.students {
		if st.Code == code && id != excludeID {
			return true
		}
	}
	return false
}

func matchStudent(st models.Student, f repositories.StudentFilters) bool {
	if f.Grade != nil && st.Grade != *f.Grade {
		return false
	}
	if f.IsActive != nil && st.IsActive != *f.IsActive {
		return false
	}
	return true
}

type adminRepo struct{ s *Store }

func (r adminRepo) Create(ctx context.Context, admin *models.Admin) error {
	r.s.lock()
	defer r.s.unlock()

	for _, a := range r.s.admins {
		if a.Username == admin.Username {
			return repositories.ErrDuplicate
		}
	}
	now := r.s.now()
	admin.ID = r.s.id("admins")
	admin.CreatedAt = now
	admin.UpdatedAt = now
	r.s.admins[admin.ID] = *admin
	return nil
}

func (r adminRepo) GetByID(ctx context.Context, id uint) (*models.Admin, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.admins[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &a, nil
}

func (r adminRepo) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.admins {
		if a.Username == username {
			return &a, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r adminRepo) UpdatePassword(ctx context.Context, id uint, hash []byte) error {
	r.s.lock()
	defer r.s.unlock()

	a, ok := r.s.admins[id]
	if !ok {
		return repositories.ErrNotFound
	}
	a.PasswordHash = append([]byte(nil), hash...)
	a.UpdatedAt = r.s.now()
	r.s.admins[id] = a
	return nil
}

type sessionRepo struct{ s *Store }

func (r sessionRepo) Get(ctx context.Context, studentID uint) (*models.StudentSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sess, ok := r.s.sessions[studentID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &sess, nil
}

func (r sessionRepo) CompareAndSwap(ctx context.Context, expected string, next *models.StudentSession) (bool, error) {
	r.s.lock()
	defer r.s.unlock()

	current, ok := r.s.sessions[next.StudentID]
	switch {
	case expected == "" && ok:
		return false, nil
	case expected != "" && (!ok || current.Fingerprint != expected):
		return false, nil
	}
	r.s.sessions[next.StudentID] = *next
	return true, nil
}

func (r sessionRepo) Revoke(ctx context.Context, studentID uint, fingerprint string) (bool, error) {
	r.s.lock()
	defer r.s.unlock()

	current, ok := r.s.sessions[studentID]
	if !ok || current.Fingerprint != fingerprint {
		return false, nil
	}
	delete(r.s.sessions, studentID)
	return true, nil
}

func (r sessionRepo) Delete(ctx context.Context, studentID uint) error {
	r.s.lock()
	defer r.s.unlock()
	delete(r.s.sessions, studentID)
	return nil
}
