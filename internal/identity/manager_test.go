package identity

import (
	"context"
	"io"
	"testing"

	"docstack/internal/apperr"
	"docstack/internal/audit"
	"docstack/internal/catalog"
	"docstack/internal/database"
	"docstack/internal/logger"
	"docstack/internal/util"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type memStore struct {
	roles       map[uuid.UUID]database.RoleRecord
	departments map[uuid.UUID]database.DepartmentRecord
	employees   map[string]database.EmployeeRecord
	folders     map[uuid.UUID]database.FolderRecord
	audit       []database.AuditEntryRecord

	rejectNextRole bool
	rejectNextDept bool
}

func newMemStore() *memStore {
	return &memStore{
		roles:       make(map[uuid.UUID]database.RoleRecord),
		departments: make(map[uuid.UUID]database.DepartmentRecord),
		employees:   make(map[string]database.EmployeeRecord),
		folders:     make(map[uuid.UUID]database.FolderRecord),
	}
}

func (s *memStore) GetEmployeeByID(_ context.Context, employeeID string) (database.EmployeeRecord, error) {
	rec, ok := s.employees[employeeID]
	if !ok {
		return database.EmployeeRecord{}, database.ErrEmployeeNotFound
	}
	return rec, nil
}

func (s *memStore) CreateEmployeeWithPersonalFolder(_ context.Context, emp database.EmployeeRecord, folder database.FolderRecord) error {
	if _, ok := s.employees[emp.EmployeeID]; ok {
		return database.ErrDuplicateEmployee
	}
	for _, existing := range s.folders {
		if existing.Visibility == folder.Visibility && existing.OwnerID.IsSet && folder.OwnerID.IsSet && existing.OwnerID.Val == folder.OwnerID.Val {
			return database.ErrDuplicateFolder
		}
	}
	s.employees[emp.EmployeeID] = emp
	s.folders[folder.ID] = folder
	return nil
}

func (s *memStore) GetRoleByID(_ context.Context, id uuid.UUID) (database.RoleRecord, error) {
	rec, ok := s.roles[id]
	if !ok {
		return database.RoleRecord{}, database.ErrRoleNotFound
	}
	return rec, nil
}

func (s *memStore) GetRoleByName(_ context.Context, name string) (database.RoleRecord, error) {
	for _, rec := range s.roles {
		if rec.Name == name {
			return rec, nil
		}
	}
	return database.RoleRecord{}, database.ErrRoleNotFound
}

func (s *memStore) CreateRole(_ context.Context, role database.RoleRecord) error {
	if s.rejectNextRole {
		s.rejectNextRole = false
		winner := role
		winner.ID = uuid.New()
		s.roles[winner.ID] = winner
		return database.ErrDuplicateRole
	}
	for _, existing := range s.roles {
		if existing.Name == role.Name {
			return database.ErrDuplicateRole
		}
	}
	s.roles[role.ID] = role
	return nil
}

func (s *memStore) GetDepartmentByID(_ context.Context, id uuid.UUID) (database.DepartmentRecord, error) {
	rec, ok := s.departments[id]
	if !ok {
		return database.DepartmentRecord{}, database.ErrDepartmentNotFound
	}
	return rec, nil
}

func (s *memStore) GetDepartmentByName(_ context.Context, name string) (database.DepartmentRecord, error) {
	for _, rec := range s.departments {
		if rec.Name == name {
			return rec, nil
		}
	}
	return database.DepartmentRecord{}, database.ErrDepartmentNotFound
}

func (s *memStore) CreateDepartment(_ context.Context, dept database.DepartmentRecord) error {
	if s.rejectNextDept {
		s.rejectNextDept = false
		winner := dept
		winner.ID = uuid.New()
		s.departments[winner.ID] = winner
		return database.ErrDuplicateDepartment
	}
	for _, existing := range s.departments {
		if existing.Name == dept.Name {
			return database.ErrDuplicateDepartment
		}
	}
	s.departments[dept.ID] = dept
	return nil
}

func (s *memStore) ListDepartments(_ context.Context) ([]database.DepartmentRecord, error) {
	var recs []database.DepartmentRecord
	for _, rec := range s.departments {
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *memStore) CreateAuditEntry(_ context.Context, entry database.AuditEntryRecord) error {
	s.audit = append(s.audit, entry)
	return nil
}

func (s *memStore) ListAuditEntriesByEntity(_ context.Context, entityKind, entityID string) ([]database.AuditEntryRecord, error) {
	var recs []database.AuditEntryRecord
	for _, rec := range s.audit {
		if rec.EntityKind == entityKind && rec.EntityID == entityID {
			recs = append(recs, rec)
		}
	}
	return recs, nil
}

func newTestManager(t *testing.T) (*Manager, *memStore) {
	t.Helper()
	store := newMemStore()
	log := logger.Silenced(io.Discard)
	trail := audit.NewTrail(log, store)
	m := NewManager(log, store, &trail)
	return &m, store
}

func seedRole(store *memStore, name string) database.RoleRecord {
	role := database.RoleRecord{ID: uuid.New(), Name: name}
	store.roles[role.ID] = role
	return role
}

func seedDepartment(store *memStore, name string) database.DepartmentRecord {
	dept := database.DepartmentRecord{ID: uuid.New(), Name: name}
	store.departments[dept.ID] = dept
	return dept
}

func TestCreateEmployee(t *testing.T) {
	m, store := newTestManager(t)
	seedRole(store, "EMPLOYEE")
	sales := seedDepartment(store, "Sales")

	emp, err := m.CreateEmployee(context.Background(), CreateEmployeeParams{
		EmployeeID:   "EMP010",
		Name:         "Jamie Doe",
		Password:     "s3cret",
		RoleName:     "EMPLOYEE",
		DepartmentID: util.Some(sales.ID),
	}, audit.Meta{ActorID: "ADMIN001"})
	require.NoError(t, err)

	assert.Equal(t, "EMP010", emp.EmployeeID)
	assert.Equal(t, "EMPLOYEE", emp.RoleName)

	stored := store.employees["EMP010"]
	assert.NotEqual(t, "s3cret", stored.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret")))

	// The personal folder came with the employee, owned and scoped.
	require.Len(t, store.folders, 1)
	for _, folder := range store.folders {
		assert.Equal(t, "Jamie Doe_Personal", folder.Name)
		assert.Equal(t, string(catalog.VisibilityPersonal), folder.Visibility)
		assert.Equal(t, "EMP010", folder.OwnerID.UnwrapOr(""))
		assert.False(t, folder.DepartmentID.IsSet)
	}

	require.Len(t, store.audit, 1)
	assert.Equal(t, string(audit.ActionAddUser), store.audit[0].Action)
}

func TestCreateEmployeeValidation(t *testing.T) {
	m, store := newTestManager(t)
	seedRole(store, "EMPLOYEE")

	tests := []struct {
		name   string
		params CreateEmployeeParams
		kind   apperr.Kind
	}{
		{
			name:   "missing employee ID",
			params: CreateEmployeeParams{Name: "x", Password: "p", RoleName: "EMPLOYEE"},
			kind:   apperr.KindBadRequest,
		},
		{
			name:   "empty password",
			params: CreateEmployeeParams{EmployeeID: "EMP011", Name: "x", RoleName: "EMPLOYEE"},
			kind:   apperr.KindBadRequest,
		},
		{
			name:   "unknown role",
			params: CreateEmployeeParams{EmployeeID: "EMP011", Name: "x", Password: "p", RoleName: "WIZARD"},
			kind:   apperr.KindNotFound,
		},
		{
			name: "unknown department",
			params: CreateEmployeeParams{
				EmployeeID: "EMP011", Name: "x", Password: "p", RoleName: "EMPLOYEE",
				DepartmentID: util.Some(uuid.New()),
			},
			kind: apperr.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.CreateEmployee(context.Background(), tt.params, audit.Meta{})
			require.Error(t, err)
			assert.True(t, apperr.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestCreateEmployeeDuplicateIsConflict(t *testing.T) {
	m, store := newTestManager(t)
	seedRole(store, "EMPLOYEE")

	params := CreateEmployeeParams{
		EmployeeID: "EMP010", Name: "Jamie Doe", Password: "p", RoleName: "EMPLOYEE",
	}
	_, err := m.CreateEmployee(context.Background(), params, audit.Meta{})
	require.NoError(t, err)

	_, err = m.CreateEmployee(context.Background(), params, audit.Meta{})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestEnsureRole(t *testing.T) {
	m, store := newTestManager(t)

	first, err := m.EnsureRole(context.Background(), "ADMIN")
	require.NoError(t, err)

	second, err := m.EnsureRole(context.Background(), "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, store.roles, 1)
}

func TestEnsureRoleLostRace(t *testing.T) {
	m, store := newTestManager(t)
	store.rejectNextRole = true

	role, err := m.EnsureRole(context.Background(), "ADMIN")
	require.NoError(t, err)
	assert.Equal(t, "ADMIN", role.Name)
	assert.Len(t, store.roles, 1)
}

func TestEnsureDepartmentLostRace(t *testing.T) {
	m, store := newTestManager(t)
	store.rejectNextDept = true

	dept, err := m.EnsureDepartment(context.Background(), "Sales")
	require.NoError(t, err)
	assert.Equal(t, "Sales", dept.Name)
	assert.Len(t, store.departments, 1)
}

func TestGetEmployeeUnknown(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.GetEmployee(context.Background(), "GHOST")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
