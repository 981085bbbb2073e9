package database

import (
	"context"
	"errors"
	"time"

	"docstack/internal/util"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrRoleNotFound        = errors.New("role not found")
	ErrDuplicateRole       = errors.New("role already exists")
	ErrDepartmentNotFound  = errors.New("department not found")
	ErrDuplicateDepartment = errors.New("department already exists")
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrDuplicateEmployee   = errors.New("employee already exists")
)

type RoleRecord struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

type DepartmentRecord struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

type EmployeeRecord struct {
	EmployeeID   string
	Name         string
	DepartmentID util.Optional[uuid.UUID]
	RoleID       uuid.UUID
	PasswordHash string
	CreatedAt    time.Time
}

func (db *Database) CreateRole(ctx context.Context, role RoleRecord) error {
	_, err := db.Pool.Exec(ctx, `INSERT INTO tbl_role (id, name, created_at) VALUES ($1, $2, $3)`,
		role.ID, role.Name, role.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateRole
	}
	return err
}

func (db *Database) GetRoleByID(ctx context.Context, id uuid.UUID) (RoleRecord, error) {
	var role RoleRecord
	err := db.Pool.QueryRow(ctx, `SELECT id, name, created_at FROM tbl_role WHERE id = $1`, id).
		Scan(&role.ID, &role.Name, &role.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return role, ErrRoleNotFound
		}
		return role, err
	}
	return role, nil
}

func (db *Database) GetRoleByName(ctx context.Context, name string) (RoleRecord, error) {
	var role RoleRecord
	err := db.Pool.QueryRow(ctx, `SELECT id, name, created_at FROM tbl_role WHERE name = $1`, name).
		Scan(&role.ID, &role.Name, &role.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return role, ErrRoleNotFound
		}
		return role, err
	}
	return role, nil
}

func (db *Database) CreateDepartment(ctx context.Context, dept DepartmentRecord) error {
	_, err := db.Pool.Exec(ctx, `INSERT INTO tbl_department (id, name, created_at) VALUES ($1, $2, $3)`,
		dept.ID, dept.Name, dept.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateDepartment
	}
	return err
}

func (db *Database) GetDepartmentByID(ctx context.Context, id uuid.UUID) (DepartmentRecord, error) {
	var dept DepartmentRecord
	err := db.Pool.QueryRow(ctx, `SELECT id, name, created_at FROM tbl_department WHERE id = $1`, id).
		Scan(&dept.ID, &dept.Name, &dept.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dept, ErrDepartmentNotFound
		}
		return dept, err
	}
	return dept, nil
}

func (db *Database) GetDepartmentByName(ctx context.Context, name string) (DepartmentRecord, error) {
	var dept DepartmentRecord
	err := db.Pool.QueryRow(ctx, `SELECT id, name, created_at FROM tbl_department WHERE name = $1`, name).
		Scan(&dept.ID, &dept.Name, &dept.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dept, ErrDepartmentNotFound
		}
		return dept, err
	}
	return dept, nil
}

func (db *Database) ListDepartments(ctx context.Context) ([]DepartmentRecord, error) {
	rows, err := db.Pool.Query(ctx, `SELECT id, name, created_at FROM tbl_department ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var departments []DepartmentRecord
	for rows.Next() {
		var dept DepartmentRecord
		if err := rows.Scan(&dept.ID, &dept.Name, &dept.CreatedAt); err != nil {
			return nil, err
		}
		departments = append(departments, dept)
	}
	return departments, rows.Err()
}

// CreateEmployeeWithPersonalFolder inserts the employee row and its personal
// folder in one transaction so a half-provisioned employee never exists.
func (db *Database) CreateEmployeeWithPersonalFolder(ctx context.Context, emp EmployeeRecord, folder FolderRecord) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `INSERT INTO tbl_employee (employee_id, name, department_id, role_id, password_hash, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		emp.EmployeeID, emp.Name, emp.DepartmentID, emp.RoleID, emp.PasswordHash, emp.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmployee
		}
		return err
	}

	if _, err := tx.Exec(ctx, `INSERT INTO tbl_folder (id, name, visibility, department_id, employee_id, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		folder.ID, folder.Name, folder.Visibility, folder.DepartmentID, folder.OwnerID, folder.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateFolder
		}
		return err
	}

	return tx.Commit(ctx)
}

func (db *Database) GetEmployeeByID(ctx context.Context, employeeID string) (EmployeeRecord, error) {
	var emp EmployeeRecord
	err := db.Pool.QueryRow(ctx, `SELECT employee_id, name, department_id, role_id, password_hash, created_at FROM tbl_employee WHERE employee_id = $1`, employeeID).
		Scan(&emp.EmployeeID, &emp.Name, &emp.DepartmentID, &emp.RoleID, &emp.PasswordHash, &emp.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return emp, ErrEmployeeNotFound
		}
		return emp, err
	}
	return emp, nil
}

func (db *Database) ListEmployees(ctx context.Context) ([]EmployeeRecord, error) {
	rows, err := db.Pool.Query(ctx, `SELECT employee_id, name, department_id, role_id, password_hash, created_at FROM tbl_employee ORDER BY employee_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []EmployeeRecord
	for rows.Next() {
		var emp EmployeeRecord
		if err := rows.Scan(&emp.EmployeeID, &emp.Name, &emp.DepartmentID, &emp.RoleID, &emp.PasswordHash, &emp.CreatedAt); err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}
