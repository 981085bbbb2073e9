// Package identity is the directory of employees, roles and departments.
// The core reads role and department through it; employee creation exists
// for bootstrap seeding and always pairs the employee with a personal
// folder. Authentication itself lives outside this service.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"docstack/internal/apperr"
	"docstack/internal/audit"
	"docstack/internal/catalog"
	"docstack/internal/database"
	"docstack/internal/util"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Store is the slice of the metadata store the directory needs.
type Store interface {
	GetEmployeeByID(ctx context.Context, employeeID string) (database.EmployeeRecord, error)
	CreateEmployeeWithPersonalFolder(ctx context.Context, emp database.EmployeeRecord, folder database.FolderRecord) error
	GetRoleByID(ctx context.Context, id uuid.UUID) (database.RoleRecord, error)
	GetRoleByName(ctx context.Context, name string) (database.RoleRecord, error)
	CreateRole(ctx context.Context, role database.RoleRecord) error
	GetDepartmentByID(ctx context.Context, id uuid.UUID) (database.DepartmentRecord, error)
	GetDepartmentByName(ctx context.Context, name string) (database.DepartmentRecord, error)
	CreateDepartment(ctx context.Context, dept database.DepartmentRecord) error
	ListDepartments(ctx context.Context) ([]database.DepartmentRecord, error)
}

type Manager struct {
	logger *slog.Logger
	store  Store
	trail  *audit.Trail
}

func NewManager(logger *slog.Logger, store Store, trail *audit.Trail) Manager {
	return Manager{logger: logger, store: store, trail: trail}
}

type Employee struct {
	EmployeeID   string
	Name         string
	RoleName     string
	DepartmentID util.Optional[uuid.UUID]
	CreatedAt    time.Time
}

type Department struct {
	ID   uuid.UUID
	Name string
}

// GetEmployee resolves an employee identifier to role and department.
func (m *Manager) GetEmployee(ctx context.Context, employeeID string) (Employee, error) {
	rec, err := m.store.GetEmployeeByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, database.ErrEmployeeNotFound) {
			return Employee{}, apperr.Wrap(apperr.KindNotFound, err, "employee not found with ID: %s", employeeID)
		}
		return Employee{}, apperr.Wrap(apperr.KindTransient, err, "failed to look up employee")
	}

	role, err := m.store.GetRoleByID(ctx, rec.RoleID)
	if err != nil {
		return Employee{}, apperr.Wrap(apperr.KindInternal, err, "employee %s references unknown role", employeeID)
	}

	return Employee{
		EmployeeID:   rec.EmployeeID,
		Name:         rec.Name,
		RoleName:     role.Name,
		DepartmentID: rec.DepartmentID,
		CreatedAt:    rec.CreatedAt,
	}, nil
}

type CreateEmployeeParams struct {
	EmployeeID   string
	Name         string
	Password     string
	RoleName     string
	DepartmentID util.Optional[uuid.UUID]
}

// CreateEmployee provisions an employee together with their personal
// folder; the two rows commit atomically. The password is stored only as a
// bcrypt hash, opaque to everything in this service.
func (m *Manager) CreateEmployee(ctx context.Context, params CreateEmployeeParams, meta audit.Meta) (Employee, error) {
	if params.EmployeeID == "" {
		return Employee{}, apperr.New(apperr.KindBadRequest, "employee ID is required")
	}
	if params.Password == "" {
		return Employee{}, apperr.New(apperr.KindBadRequest, "password cannot be empty")
	}

	role, err := m.store.GetRoleByName(ctx, params.RoleName)
	if err != nil {
		if errors.Is(err, database.ErrRoleNotFound) {
			return Employee{}, apperr.Wrap(apperr.KindNotFound, err, "role not found: %s", params.RoleName)
		}
		return Employee{}, apperr.Wrap(apperr.KindTransient, err, "failed to look up role")
	}

	if params.DepartmentID.IsSet {
		if _, err := m.store.GetDepartmentByID(ctx, params.DepartmentID.Val); err != nil {
			if errors.Is(err, database.ErrDepartmentNotFound) {
				return Employee{}, apperr.Wrap(apperr.KindNotFound, err, "department not found with ID: %s", params.DepartmentID.Val)
			}
			return Employee{}, apperr.Wrap(apperr.KindTransient, err, "failed to look up department")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return Employee{}, apperr.Wrap(apperr.KindInternal, err, "failed to hash password")
	}

	now := time.Now().UTC()
	emp := database.EmployeeRecord{
		EmployeeID:   params.EmployeeID,
		Name:         params.Name,
		DepartmentID: params.DepartmentID,
		RoleID:       role.ID,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	personal := database.FolderRecord{
		ID:         uuid.New(),
		Name:       params.Name + "_Personal",
		Visibility: string(catalog.VisibilityPersonal),
		OwnerID:    util.Some(params.EmployeeID),
		CreatedAt:  now,
	}

	if err := m.store.CreateEmployeeWithPersonalFolder(ctx, emp, personal); err != nil {
		if errors.Is(err, database.ErrDuplicateEmployee) {
			return Employee{}, apperr.Wrap(apperr.KindConflict, err, "employee ID %q already exists", params.EmployeeID)
		}
		if errors.Is(err, database.ErrDuplicateFolder) {
			return Employee{}, apperr.Wrap(apperr.KindConflict, err, "personal folder already exists for employee %q", params.EmployeeID)
		}
		return Employee{}, apperr.Wrap(apperr.KindTransient, err, "failed to create employee")
	}

	m.trail.Record(ctx, audit.RecordParams{
		Meta:        meta,
		Action:      audit.ActionAddUser,
		EntityKind:  audit.EntityUser,
		EntityID:    params.EmployeeID,
		Description: "Created employee: " + params.Name,
	})

	return Employee{
		EmployeeID:   emp.EmployeeID,
		Name:         emp.Name,
		RoleName:     role.Name,
		DepartmentID: emp.DepartmentID,
		CreatedAt:    emp.CreatedAt,
	}, nil
}

// EnsureRole guarantees a role by name. Losing a creation race reads back
// the winner.
func (m *Manager) EnsureRole(ctx context.Context, name string) (database.RoleRecord, error) {
	role, err := m.store.GetRoleByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, database.ErrRoleNotFound) {
		return database.RoleRecord{}, apperr.Wrap(apperr.KindTransient, err, "failed to look up role")
	}

	role = database.RoleRecord{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	createErr := m.store.CreateRole(ctx, role)
	if createErr == nil {
		return role, nil
	}
	if !errors.Is(createErr, database.ErrDuplicateRole) {
		return database.RoleRecord{}, apperr.Wrap(apperr.KindTransient, createErr, "failed to create role")
	}

	role, err = m.store.GetRoleByName(ctx, name)
	if err != nil {
		return database.RoleRecord{}, apperr.Wrap(apperr.KindTransient, err, "failed to read back role after creation race")
	}
	return role, nil
}

// EnsureDepartment guarantees a department by unique name.
func (m *Manager) EnsureDepartment(ctx context.Context, name string) (Department, error) {
	dept, err := m.store.GetDepartmentByName(ctx, name)
	if err == nil {
		return Department{ID: dept.ID, Name: dept.Name}, nil
	}
	if !errors.Is(err, database.ErrDepartmentNotFound) {
		return Department{}, apperr.Wrap(apperr.KindTransient, err, "failed to look up department")
	}

	dept = database.DepartmentRecord{ID: uuid.New(), Name: name, CreatedAt: time.Now().UTC()}
	createErr := m.store.CreateDepartment(ctx, dept)
	if createErr == nil {
		return Department{ID: dept.ID, Name: dept.Name}, nil
	}
	if !errors.Is(createErr, database.ErrDuplicateDepartment) {
		return Department{}, apperr.Wrap(apperr.KindTransient, createErr, "failed to create department")
	}

	dept, err = m.store.GetDepartmentByName(ctx, name)
	if err != nil {
		return Department{}, apperr.Wrap(apperr.KindTransient, err, "failed to read back department after creation race")
	}
	return Department{ID: dept.ID, Name: dept.Name}, nil
}

// ListDepartments returns every department, ordered by name.
func (m *Manager) ListDepartments(ctx context.Context) ([]Department, error) {
	recs, err := m.store.ListDepartments(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, err, "failed to list departments")
	}
	departments := make([]Department, len(recs))
	for i, rec := range recs {
		departments[i] = Department{ID: rec.ID, Name: rec.Name}
	}
	return departments, nil
}
