package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mohammedtarek206/elamid/internal/models"
	"github.com/mohammedtarek206/elamid/internal/repositories"
)

type StudentPostgreSQL struct {
	db *gorm.DB
}

func NewStudentPostgreSQL(db *gorm.DB) repositories.StudentRepository {
	return &StudentPostgreSQL{db: db}
}

func (s *StudentPostgreSQL) Create(ctx context.Context, student *models.Student) error {
	return translateError("create student", s.db.WithContext(ctx).Create(student).Error)
}

func (s *StudentPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Student, error) {
	var student models.Student
	if err := s.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return nil, translateError("get student", err)
	}
	return &student, nil
}

func (s *StudentPostgreSQL) GetByIDForUpdate(ctx context.Context, id uint) (*models.Student, error) {
	var student models.Student
	if err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&student, id).Error; err != nil {
		return nil, translateError("lock student", err)
	}
	return &student, nil
}

func (s *StudentPostgreSQL) GetByCode(ctx context.Context, code string) (*models.Student, error) {
	var student models.Student
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&student).Error; err != nil {
		return nil, translateError("get student by code", err)
	}
	return &student, nil
}

func (s *StudentPostgreSQL) List(ctx context.Context, filters repositories.StudentFilters) ([]*models.Student, error) {
	var students []*models.Student
	err := s.applyFilters(s.db.WithContext(ctx), filters).
		Order("created_at DESC, id DESC").
		Find(&students).Error
	if err != nil {
		return nil, translateError("list students", err)
	}
	return students, nil
}

func (s *StudentPostgreSQL) Update(ctx context.Context, student *models.Student) error {
	res := s.db.WithContext(ctx).
		Model(student).
		Select("name", "code", "grade", "is_active", "is_subscribed", "subscription_expiry", "updated_at").
		Updates(student)
	return affected("update student", res)
}

func (s *StudentPostgreSQL) Delete(ctx context.Context, id uint) error {
	return affected("delete student", s.db.WithContext(ctx).Delete(&models.Student{}, id))
}

func (s *StudentPostgreSQL) SetLastLogin(ctx context.Context, id uint, at time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&models.Student{}).
		Where("id = ?", id).
		Update("last_login_at", at)
	return affected("set last login", res)
}

func (s *StudentPostgreSQL) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Student{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, translateError("check student code", err)
	}
	return count > 0, nil
}

func (s *StudentPostgreSQL) Count(ctx context.Context, filters repositories.StudentFilters) (int64, error) {
	var count int64
	if err := s.applyFilters(s.db.WithContext(ctx).Model(&models.Student{}), filters).Count(&count).Error; err != nil {
		return 0, translateError("count students", err)
	}
	return count, nil
}

func (s *StudentPostgreSQL) applyFilters(query *gorm.DB, filters repositories.StudentFilters) *gorm.DB {
	if filters.Grade != nil {
		query = query.Where("grade = ?", *filters.Grade)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	return query
}

type AdminPostgreSQL struct {
	db *gorm.DB
}

func NewAdminPostgreSQL(db *gorm.DB) repositories.AdminRepository {
	return &AdminPostgreSQL{db: db}
}

func (a *AdminPostgreSQL) Create(ctx context.Context, admin *models.Admin) error {
	return translateError("create admin", a.db.WithContext(ctx).Create(admin).Error)
}

func (a *AdminPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Admin, error) {
	var admin models.Admin
	if err := a.db.WithContext(ctx).First(&admin, id).Error; err != nil {
		return nil, translateError("get admin", err)
	}
	return &admin, nil
}

func (a *AdminPostgreSQL) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	var admin models.Admin
	if err := a.db.WithContext(ctx).Where("username = ?", username).First(&admin).Error; err != nil {
		return nil, translateError("get admin by username", err)
	}
	return &admin, nil
}

func (a *AdminPostgreSQL) UpdatePassword(ctx context.Context, id uint, hash []byte) error {
	res := a.db.WithContext(ctx).
		Model(&models.Admin{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	return affected("update admin password", res)
}

// SessionPostgreSQL keeps one row per student in student_sessions. Every write
// is conditional so concurrent logins cannot lose an update.
type SessionPostgreSQL struct {
	db *gorm.DB
}

func NewSessionPostgreSQL(db *gorm.DB) repositories.SessionRepository {
	return &SessionPostgreSQL{db: db}
}

func (s *SessionPostgreSQL) Get(ctx context.Context, studentID uint) (*models.StudentSession, error) {
	var session models.StudentSession
	if err := s.db.WithContext(ctx).Where("student_id = ?", studentID).First(&session).Error; err != nil {
		return nil, translateError("get session", err)
	}
	return &session, nil
}

func (s *SessionPostgreSQL) CompareAndSwap(ctx context.Context, expected string, next *models.StudentSession) (bool, error) {
	db := s.db.WithContext(ctx)

	var res *gorm.DB
	if expected == "" {
		res = db.Clauses(clause.OnConflict{DoNothing: true}).Create(next)
	} else {
		res = db.Model(&models.StudentSession{}).
			Where("student_id = ? AND fingerprint = ?", next.StudentID, expected).
			Updates(map[string]interface{}{
				"fingerprint": next.Fingerprint,
				"issued_at":   next.IssuedAt,
			})
	}
	if res.Error != nil {
		return false, translateError("swap session", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *SessionPostgreSQL) Revoke(ctx context.Context, studentID uint, fingerprint string) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("student_id = ? AND fingerprint = ?", studentID, fingerprint).
		Delete(&models.StudentSession{})
	if res.Error != nil {
		return false, translateError("revoke session", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *SessionPostgreSQL) Delete(ctx context.Context, studentID uint) error {
	err := s.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Delete(&models.StudentSession{}).Error
	return translateError("delete session", err)
}
