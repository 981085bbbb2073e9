package catalog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"docstack/internal/apperr"
	"docstack/internal/audit"
	"docstack/internal/database"
	"docstack/internal/util"

	"github.com/google/uuid"
)

// Store is the slice of the metadata store the catalog needs.
type Store interface {
	CreateFolder(ctx context.Context, folder database.FolderRecord) error
	GetFolderByID(ctx context.Context, id uuid.UUID) (database.FolderRecord, error)
	DeleteFolder(ctx context.Context, id uuid.UUID) error
	ListAllFolders(ctx context.Context) ([]database.FolderRecord, error)
	ListFoldersByVisibility(ctx context.Context, visibility string) ([]database.FolderRecord, error)
	ListFoldersByVisibilityAndDepartment(ctx context.Context, visibility string, departmentID uuid.UUID) ([]database.FolderRecord, error)
	ListFoldersByVisibilityAndOwner(ctx context.Context, visibility string, ownerID string) ([]database.FolderRecord, error)
	ListAccessibleFolders(ctx context.Context, departmentID util.Optional[uuid.UUID], employeeID string) ([]database.FolderRecord, error)
	GetEmployeeByID(ctx context.Context, employeeID string) (database.EmployeeRecord, error)
	GetRoleByID(ctx context.Context, id uuid.UUID) (database.RoleRecord, error)
}

type Manager struct {
	logger *slog.Logger
	store  Store
	trail  *audit.Trail
}

func NewManager(logger *slog.Logger, store Store, trail *audit.Trail) Manager {
	return Manager{logger: logger, store: store, trail: trail}
}

type CreateFolderParams struct {
	Name         string
	Visibility   Visibility
	DepartmentID util.Optional[uuid.UUID]
	OwnerID      util.Optional[string]
}

// validateScope enforces the invariant that the visibility class fully
// determines which scope reference is set: DEPARTMENT folders carry exactly
// a department, PERSONAL folders exactly an owner, COMPANY_POLICY neither.
// A violation is a programming error in the caller, not user input.
func validateScope(params CreateFolderParams) error {
	switch params.Visibility {
	case VisibilityDepartment:
		if !params.DepartmentID.IsSet || params.OwnerID.IsSet {
			return apperr.New(apperr.KindInternal, "department folder requires exactly a department reference")
		}
	case VisibilityPersonal:
		if !params.OwnerID.IsSet || params.DepartmentID.IsSet {
			return apperr.New(apperr.KindInternal, "personal folder requires exactly an owner reference")
		}
	case VisibilityCompanyPolicy:
		if params.DepartmentID.IsSet || params.OwnerID.IsSet {
			return apperr.New(apperr.KindInternal, "company policy folder must not carry a scope reference")
		}
	default:
		return apperr.New(apperr.KindInternal, "unknown folder visibility %q", params.Visibility)
	}
	return nil
}

func folderFromRecord(rec database.FolderRecord) Folder {
	return Folder{
		ID:           rec.ID,
		Name:         rec.Name,
		Visibility:   Visibility(rec.Visibility),
		DepartmentID: rec.DepartmentID,
		OwnerID:      rec.OwnerID,
		CreatedAt:    rec.CreatedAt,
	}
}

func foldersFromRecords(recs []database.FolderRecord) []Folder {
	folders := make([]Folder, len(recs))
	for i, rec := range recs {
		folders[i] = folderFromRecord(rec)
	}
	return folders
}

// CreateFolder inserts a folder after checking the scope invariant. A
// uniqueness rejection from the store surfaces as Conflict.
func (m *Manager) CreateFolder(ctx context.Context, params CreateFolderParams, meta audit.Meta) (Folder, error) {
	if params.Name == "" {
		return Folder{}, apperr.New(apperr.KindBadRequest, "folder name is required")
	}
	if err := validateScope(params); err != nil {
		return Folder{}, err
	}

	rec := database.FolderRecord{
		ID:           uuid.New(),
		Name:         params.Name,
		Visibility:   string(params.Visibility),
		DepartmentID: params.DepartmentID,
		OwnerID:      params.OwnerID,
		CreatedAt:    time.Now().UTC(),
	}

	if err := m.store.CreateFolder(ctx, rec); err != nil {
		if errors.Is(err, database.ErrDuplicateFolder) {
			return Folder{}, apperr.Wrap(apperr.KindConflict, err, "folder already exists for this scope")
		}
		return Folder{}, apperr.Wrap(apperr.KindTransient, err, "failed to create folder")
	}

	m.trail.Record(ctx, audit.RecordParams{
		Meta:        meta,
		Action:      audit.ActionCreateFolder,
		EntityKind:  audit.EntityFolder,
		EntityID:    rec.ID.String(),
		Description: "Created folder: " + rec.Name,
	})

	return folderFromRecord(rec), nil
}

func (m *Manager) GetFolder(ctx context.Context, id uuid.UUID) (Folder, error) {
	rec, err := m.store.GetFolderByID(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrFolderNotFound) {
			return Folder{}, apperr.Wrap(apperr.KindNotFound, err, "folder not found with ID: %s", id)
		}
		return Folder{}, apperr.Wrap(apperr.KindTransient, err, "failed to get folder")
	}
	return folderFromRecord(rec), nil
}

// DeleteFolder removes the folder record only. Contained files must already
// be gone; the orchestration operation owns that ordering so no file record
// ever references a missing folder.
func (m *Manager) DeleteFolder(ctx context.Context, id uuid.UUID, meta audit.Meta) error {
	folder, err := m.GetFolder(ctx, id)
	if err != nil {
		return err
	}

	if err := m.store.DeleteFolder(ctx, id); err != nil {
		if errors.Is(err, database.ErrFolderNotFound) {
			return apperr.Wrap(apperr.KindNotFound, err, "folder not found with ID: %s", id)
		}
		return apperr.Wrap(apperr.KindTransient, err, "failed to delete folder")
	}

	m.trail.Record(ctx, audit.RecordParams{
		Meta:        meta,
		Action:      audit.ActionDeleteFolder,
		EntityKind:  audit.EntityFolder,
		EntityID:    id.String(),
		Description: "Deleted folder: " + folder.Name,
	})

	return nil
}

// ListByVisibility returns folders of one class, optionally narrowed to a
// department or owner scope.
func (m *Manager) ListByVisibility(ctx context.Context, visibility Visibility, departmentID util.Optional[uuid.UUID], ownerID util.Optional[string]) ([]Folder, error) {
	var (
		recs []database.FolderRecord
		err  error
	)
	switch {
	case departmentID.IsSet:
		recs, err = m.store.ListFoldersByVisibilityAndDepartment(ctx, string(visibility), departmentID.Val)
	case ownerID.IsSet:
		recs, err = m.store.ListFoldersByVisibilityAndOwner(ctx, string(visibility), ownerID.Val)
	default:
		recs, err = m.store.ListFoldersByVisibility(ctx, string(visibility))
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, err, "failed to list folders")
	}
	return foldersFromRecords(recs), nil
}

// ensure looks up an existing folder for the scope and creates it when
// absent. Losing a creation race is the same outcome as finding the folder:
// the store's uniqueness constraint rejects the loser and the winner's row
// is read back.
func (m *Manager) ensure(ctx context.Context, lookup func() ([]database.FolderRecord, error), params CreateFolderParams) (Folder, error) {
	existing, err := lookup()
	if err != nil {
		return Folder{}, apperr.Wrap(apperr.KindTransient, err, "failed to look up folder")
	}
	if len(existing) > 0 {
		return folderFromRecord(existing[0]), nil
	}

	folder, err := m.CreateFolder(ctx, params, audit.Meta{})
	if err == nil {
		return folder, nil
	}
	if !apperr.Is(err, apperr.KindConflict) {
		return Folder{}, err
	}

	// A concurrent caller won the race; its folder is ours to return.
	existing, lookupErr := lookup()
	if lookupErr != nil || len(existing) == 0 {
		return Folder{}, apperr.Wrap(apperr.KindTransient, err, "failed to read back folder after creation race")
	}
	return folderFromRecord(existing[0]), nil
}

// EnsureDepartmentFolder guarantees the single DEPARTMENT folder for a
// department, creating "<name> Dept" when absent. Safe to call repeatedly.
func (m *Manager) EnsureDepartmentFolder(ctx context.Context, departmentID uuid.UUID, departmentName string) (Folder, error) {
	return m.ensure(ctx,
		func() ([]database.FolderRecord, error) {
			return m.store.ListFoldersByVisibilityAndDepartment(ctx, string(VisibilityDepartment), departmentID)
		},
		CreateFolderParams{
			Name:         departmentName + " Dept",
			Visibility:   VisibilityDepartment,
			DepartmentID: util.Some(departmentID),
		})
}

// EnsureCompanyPolicyFolder guarantees the single company-wide folder.
func (m *Manager) EnsureCompanyPolicyFolder(ctx context.Context) (Folder, error) {
	return m.ensure(ctx,
		func() ([]database.FolderRecord, error) {
			return m.store.ListFoldersByVisibility(ctx, string(VisibilityCompanyPolicy))
		},
		CreateFolderParams{
			Name:       "Company Policy",
			Visibility: VisibilityCompanyPolicy,
		})
}

// EnsurePersonalFolder guarantees the employee's PERSONAL folder.
func (m *Manager) EnsurePersonalFolder(ctx context.Context, employeeID, displayName string) (Folder, error) {
	return m.ensure(ctx,
		func() ([]database.FolderRecord, error) {
			return m.store.ListFoldersByVisibilityAndOwner(ctx, string(VisibilityPersonal), employeeID)
		},
		CreateFolderParams{
			Name:       displayName + "_Personal",
			Visibility: VisibilityPersonal,
			OwnerID:    util.Some(employeeID),
		})
}
