package auth

import "github.com/mohammedtarek206/elamid/internal/models"

// Principal is an authenticated caller: either *AdminPrincipal or
// *StudentPrincipal. Callers switch on the concrete type.
type Principal interface {
	ID() uint
	Role() models.UserRole
	isPrincipal()
}

type AdminPrincipal struct {
	Admin *models.Admin
}

func (p *AdminPrincipal) ID() uint              { return p.Admin.ID }
func (p *AdminPrincipal) Role() models.UserRole { return models.RoleAdmin }
func (p *AdminPrincipal) isPrincipal()          {}

type StudentPrincipal struct {
	Student     *models.Student
	Fingerprint string
}

func (p *StudentPrincipal) ID() uint              { return p.Student.ID }
func (p *StudentPrincipal) Role() models.UserRole { return models.RoleStudent }
func (p *StudentPrincipal) isPrincipal()          {}

// CanAccessGrade reports whether p may see content of grade g. Admins see every
// grade; students only their own.
func CanAccessGrade(p Principal, g models.Grade) bool {
	switch p := p.(type) {
	case *AdminPrincipal:
		return true
	case *StudentPrincipal:
		return p.Student.Grade == g
	default:
		return false
	}
}
