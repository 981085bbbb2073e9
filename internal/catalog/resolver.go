package catalog

import (
	"context"
	"errors"

	"docstack/internal/apperr"
	"docstack/internal/database"
)

// AccessibleFolders computes the set of folders the employee may see. The
// role is resolved once, here, into the closed Role variant:
//
//   - admins see every folder in the catalog;
//   - everyone else sees the union of their department's DEPARTMENT
//     folders, all COMPANY_POLICY folders, and their own PERSONAL folders.
//
// A missing employee is NotFound. An employee whose visible set is empty is
// NoContent: the employee exists, nothing is visible. The read has no side
// effects and must never include another employee's personal folder or
// another department's folder.
func (m *Manager) AccessibleFolders(ctx context.Context, employeeID string) ([]Folder, error) {
	emp, err := m.store.GetEmployeeByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, database.ErrEmployeeNotFound) {
			return nil, apperr.Wrap(apperr.KindNotFound, err, "employee not found with ID: %s", employeeID)
		}
		return nil, apperr.Wrap(apperr.KindTransient, err, "failed to look up employee")
	}

	role, err := m.store.GetRoleByID(ctx, emp.RoleID)
	if err != nil {
		if errors.Is(err, database.ErrRoleNotFound) {
			// Every employee row references a role; a dangling reference is
			// a broken invariant, not a user-facing condition.
			return nil, apperr.Wrap(apperr.KindInternal, err, "employee %s references unknown role", employeeID)
		}
		return nil, apperr.Wrap(apperr.KindTransient, err, "failed to look up role")
	}

	if RoleFromName(role.Name) == RoleAdmin {
		recs, err := m.store.ListAllFolders(ctx)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindTransient, err, "failed to list folders")
		}
		if len(recs) == 0 {
			return nil, apperr.New(apperr.KindNoContent, "no folders available for admin view")
		}
		return foldersFromRecords(recs), nil
	}

	recs, err := m.store.ListAccessibleFolders(ctx, emp.DepartmentID, emp.EmployeeID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTransient, err, "failed to list accessible folders")
	}
	if len(recs) == 0 {
		return nil, apperr.New(apperr.KindNoContent, "no accessible folders found for employee ID: %s", employeeID)
	}
	return foldersFromRecords(recs), nil
}
