package catalog

import (
	"context"
	"testing"

	"docstack/internal/apperr"
	"docstack/internal/util"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedCompany builds a small org: Sales and Marketing departments with
// their folders, a company policy folder, and personal folders for two
// employees in different departments.
func seedCompany(t *testing.T, m *Manager, store *memStore) (salesID, marketingID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	salesID = uuid.New()
	marketingID = uuid.New()

	_, err := m.EnsureDepartmentFolder(ctx, salesID, "Sales")
	require.NoError(t, err)
	_, err = m.EnsureDepartmentFolder(ctx, marketingID, "Marketing")
	require.NoError(t, err)
	_, err = m.EnsureCompanyPolicyFolder(ctx)
	require.NoError(t, err)
	_, err = m.EnsurePersonalFolder(ctx, "EMP010", "Jamie")
	require.NoError(t, err)
	_, err = m.EnsurePersonalFolder(ctx, "EMP020", "Robin")
	require.NoError(t, err)

	adminRole := store.seedRole("ADMIN")
	employeeRole := store.seedRole("EMPLOYEE")
	store.seedEmployee("ADMIN001", adminRole, util.None[uuid.UUID]())
	store.seedEmployee("EMP010", employeeRole, util.Some(salesID))
	store.seedEmployee("EMP020", employeeRole, util.Some(marketingID))
	return salesID, marketingID
}

func visibleNames(folders []Folder) []string {
	names := make([]string, len(folders))
	for i, f := range folders {
		names[i] = f.Name
	}
	return names
}

func TestAccessibleFoldersForDepartmentEmployee(t *testing.T) {
	m, store := newManager(t)
	seedCompany(t, m, store)

	folders, err := m.AccessibleFolders(context.Background(), "EMP010")
	require.NoError(t, err)

	names := visibleNames(folders)
	assert.ElementsMatch(t, []string{"Sales Dept", "Company Policy", "Jamie_Personal"}, names)

	// Nothing from the other department or another employee leaks in.
	assert.NotContains(t, names, "Marketing Dept")
	assert.NotContains(t, names, "Robin_Personal")
}

func TestAccessibleFoldersForAdminSeesEverything(t *testing.T) {
	m, store := newManager(t)
	seedCompany(t, m, store)

	folders, err := m.AccessibleFolders(context.Background(), "ADMIN001")
	require.NoError(t, err)
	assert.Len(t, folders, len(store.folders))
}

func TestAccessibleFoldersWithoutDepartment(t *testing.T) {
	m, store := newManager(t)
	seedCompany(t, m, store)

	employeeRole := store.seedRole("EMPLOYEE")
	store.seedEmployee("EMP030", employeeRole, util.None[uuid.UUID]())
	_, err := m.EnsurePersonalFolder(context.Background(), "EMP030", "Alex")
	require.NoError(t, err)

	folders, err := m.AccessibleFolders(context.Background(), "EMP030")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Company Policy", "Alex_Personal"}, visibleNames(folders))
}

func TestAccessibleFoldersUnknownEmployee(t *testing.T) {
	m, store := newManager(t)
	seedCompany(t, m, store)

	_, err := m.AccessibleFolders(context.Background(), "GHOST")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestAccessibleFoldersEmptySetIsNoContent(t *testing.T) {
	m, store := newManager(t)

	// An employee with no department, no personal folder and no policy
	// folder anywhere: the account exists but nothing is visible.
	employeeRole := store.seedRole("EMPLOYEE")
	store.seedEmployee("EMP040", employeeRole, util.None[uuid.UUID]())

	_, err := m.AccessibleFolders(context.Background(), "EMP040")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNoContent))
}

func TestAccessibleFoldersAdminOnEmptyCatalog(t *testing.T) {
	m, store := newManager(t)

	adminRole := store.seedRole("ADMIN")
	store.seedEmployee("ADMIN001", adminRole, util.None[uuid.UUID]())

	_, err := m.AccessibleFolders(context.Background(), "ADMIN001")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNoContent))
}

func TestAccessibleFoldersDanglingRole(t *testing.T) {
	m, store := newManager(t)
	seedCompany(t, m, store)

	store.seedEmployee("EMP050", uuid.New(), util.None[uuid.UUID]())

	_, err := m.AccessibleFolders(context.Background(), "EMP050")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInternal))
}
