// Package catalog owns the folder tree: visibility classes, the
// exactly-one-scope invariant, idempotent bootstrap creation, and the
// access resolver that decides which folders an employee may see.
package catalog

import (
	"time"

	"docstack/internal/util"

	"github.com/google/uuid"
)

// Visibility determines who may see a folder.
type Visibility string

const (
	VisibilityPersonal      Visibility = "PERSONAL"
	VisibilityDepartment    Visibility = "DEPARTMENT"
	VisibilityCompanyPolicy Visibility = "COMPANY_POLICY"
)

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPersonal, VisibilityDepartment, VisibilityCompanyPolicy:
		return true
	}
	return false
}

// Role is the closed set of employee roles. The resolver evaluates it once;
// no other layer branches on it.
type Role int

const (
	RoleEmployee Role = iota
	RoleAdmin
)

// RoleFromName maps a stored role name to the closed variant. Unknown names
// get the least-privileged variant.
func RoleFromName(name string) Role {
	if name == "ADMIN" {
		return RoleAdmin
	}
	return RoleEmployee
}

// Folder carries explicit foreign-key references; callers fetch the
// department or owner by id when they need more than the reference.
type Folder struct {
	ID           uuid.UUID
	Name         string
	Visibility   Visibility
	DepartmentID util.Optional[uuid.UUID]
	OwnerID      util.Optional[string]
	CreatedAt    time.Time
}
