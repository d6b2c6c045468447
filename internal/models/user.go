package models

import (
	"time"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleAdmin   UserRole = "admin"
)

// Grade identifies a secondary school year. Videos and exams are scoped by it.
type Grade int

const (
	GradeFirst  Grade = 1
	GradeSecond Grade = 2
	GradeThird  Grade = 3
)

// Valid reports whether g is one of the supported grades.
func (g Grade) Valid() bool {
	return g >= GradeFirst && g <= GradeThird
}

type Admin struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	Username     string `json:"username" gorm:"uniqueIndex;not null;size:100"`
	PasswordHash []byte `json:"-" gorm:"not null"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Admin) TableName() string {
	return "admins"
}

type Student struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	Name     string `json:"name" gorm:"not null;size:150"`
	Code     string `json:"code" gorm:"uniqueIndex;not null;size:32"`
	Grade    Grade  `json:"grade" gorm:"not null;index"`
	IsActive bool   `json:"isActive" gorm:"not null"`

	// Subscription data is stored for the admin screens only.
	IsSubscribed       bool       `json:"isSubscribed" gorm:"not null;default:false"`
	SubscriptionExpiry *time.Time `json:"subscriptionExpiry"`

	LastLoginAt *time.Time `json:"lastLoginAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (Student) TableName() string {
	return "students"
}

// StudentSession is the single live session of a student. A student has at most
// one row; logging in replaces its fingerprint.
type StudentSession struct {
	StudentID   uint      `json:"studentId" gorm:"primaryKey;autoIncrement:false"`
	Fingerprint string    `json:"-" gorm:"not null;size:64"`
	IssuedAt    time.Time `json:"issuedAt" gorm:"not null"`
}

func (StudentSession) TableName() string {
	return "student_sessions"
}
