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
	ErrFolderNotFound = errors.New("folder not found")
	// ErrDuplicateFolder is returned when a second folder for the same
	// logical scope (department, owner, or company policy) is inserted.
	ErrDuplicateFolder = errors.New("folder already exists for scope")
)

// FolderRecord carries explicit foreign-key fields; callers resolve a
// department or owner reference with a separate fetch when they need it.
type FolderRecord struct {
	ID           uuid.UUID
	Name         string
	Visibility   string
	DepartmentID util.Optional[uuid.UUID]
	OwnerID      util.Optional[string]
	CreatedAt    time.Time
}

const folderColumns = `id, name, visibility, department_id, employee_id, created_at`

func scanFolder(row pgx.Row) (FolderRecord, error) {
	var folder FolderRecord
	err := row.Scan(&folder.ID, &folder.Name, &folder.Visibility, &folder.DepartmentID, &folder.OwnerID, &folder.CreatedAt)
	return folder, err
}

func (db *Database) CreateFolder(ctx context.Context, folder FolderRecord) error {
	_, err := db.Pool.Exec(ctx, `INSERT INTO tbl_folder (id, name, visibility, department_id, employee_id, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		folder.ID, folder.Name, folder.Visibility, folder.DepartmentID, folder.OwnerID, folder.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateFolder
	}
	return err
}

func (db *Database) GetFolderByID(ctx context.Context, id uuid.UUID) (FolderRecord, error) {
	folder, err := scanFolder(db.Pool.QueryRow(ctx, `SELECT `+folderColumns+` FROM tbl_folder WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return folder, ErrFolderNotFound
		}
		return folder, err
	}
	return folder, nil
}

func (db *Database) DeleteFolder(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM tbl_folder WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFolderNotFound
	}
	return nil
}

func (db *Database) listFolders(ctx context.Context, query string, args ...any) ([]FolderRecord, error) {
	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var folders []FolderRecord
	for rows.Next() {
		folder, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		folders = append(folders, folder)
	}
	return folders, rows.Err()
}

func (db *Database) ListAllFolders(ctx context.Context) ([]FolderRecord, error) {
	return db.listFolders(ctx, `SELECT `+folderColumns+` FROM tbl_folder ORDER BY created_at`)
}

func (db *Database) ListFoldersByVisibility(ctx context.Context, visibility string) ([]FolderRecord, error) {
	return db.listFolders(ctx, `SELECT `+folderColumns+` FROM tbl_folder WHERE visibility = $1 ORDER BY created_at`, visibility)
}

func (db *Database) ListFoldersByVisibilityAndDepartment(ctx context.Context, visibility string, departmentID uuid.UUID) ([]FolderRecord, error) {
	return db.listFolders(ctx, `SELECT `+folderColumns+` FROM tbl_folder WHERE visibility = $1 AND department_id = $2 ORDER BY created_at`, visibility, departmentID)
}

func (db *Database) ListFoldersByVisibilityAndOwner(ctx context.Context, visibility string, ownerID string) ([]FolderRecord, error) {
	return db.listFolders(ctx, `SELECT `+folderColumns+` FROM tbl_folder WHERE visibility = $1 AND employee_id = $2 ORDER BY created_at`, visibility, ownerID)
}

// ListAccessibleFolders returns the union backing the resolver's non-admin
// branch: the employee's department folders, every company-policy folder,
// and the employee's own personal folders. A missing department reference
// contributes nothing (department_id = NULL never matches).
func (db *Database) ListAccessibleFolders(ctx context.Context, departmentID util.Optional[uuid.UUID], employeeID string) ([]FolderRecord, error) {
	return db.listFolders(ctx, `
		SELECT `+folderColumns+` FROM tbl_folder
		WHERE (visibility = 'DEPARTMENT' AND department_id = $1)
		   OR visibility = 'COMPANY_POLICY'
		   OR (visibility = 'PERSONAL' AND employee_id = $2)
		ORDER BY created_at`,
		departmentID, employeeID)
}
