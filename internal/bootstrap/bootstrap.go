// Package bootstrap seeds the baseline data a fresh deployment needs:
// roles, the default admin account, the initial departments and their
// folders. Every step is safe to repeat, so the process can run on every
// startup and concurrent instances converge on the same rows.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"docstack/internal/apperr"
	"docstack/internal/audit"
	"docstack/internal/catalog"
	"docstack/internal/config"
	"docstack/internal/database"
	"docstack/internal/identity"
	"docstack/internal/util"

	"github.com/google/uuid"
)

const (
	RoleAdmin    = "ADMIN"
	RoleEmployee = "EMPLOYEE"
)

type Bootstrapper struct {
	logger   *slog.Logger
	cfg      config.BootstrapConfig
	identity *identity.Manager
	catalog  *catalog.Manager
}

func NewBootstrapper(logger *slog.Logger, cfg config.BootstrapConfig, identityManager *identity.Manager, catalogManager *catalog.Manager) Bootstrapper {
	return Bootstrapper{
		logger:   logger,
		cfg:      cfg,
		identity: identityManager,
		catalog:  catalogManager,
	}
}

// Run executes the seeding sequence. Roles come first because the admin
// account references one; departments and their folders follow; the
// company-wide folder closes the sequence. Already-present rows are reused,
// never duplicated.
func (b *Bootstrapper) Run(ctx context.Context) error {
	if _, err := b.identity.EnsureRole(ctx, RoleAdmin); err != nil {
		return fmt.Errorf("ensure admin role: %w", err)
	}
	if _, err := b.identity.EnsureRole(ctx, RoleEmployee); err != nil {
		return fmt.Errorf("ensure employee role: %w", err)
	}

	if err := b.ensureAdmin(ctx); err != nil {
		return fmt.Errorf("ensure default admin: %w", err)
	}

	for _, name := range b.cfg.Departments {
		dept, err := b.identity.EnsureDepartment(ctx, name)
		if err != nil {
			return fmt.Errorf("ensure department %q: %w", name, err)
		}
		if _, err := b.catalog.EnsureDepartmentFolder(ctx, dept.ID, dept.Name); err != nil {
			return fmt.Errorf("ensure folder for department %q: %w", name, err)
		}
	}

	if _, err := b.catalog.EnsureCompanyPolicyFolder(ctx); err != nil {
		return fmt.Errorf("ensure company policy folder: %w", err)
	}

	b.logger.Info("bootstrap complete",
		"admin_id", b.cfg.AdminID,
		"departments", len(b.cfg.Departments),
	)
	return nil
}

// ensureAdmin creates the default admin account once. The account carries
// no department; its personal folder comes with the creation. Losing a
// creation race against another instance counts as success.
func (b *Bootstrapper) ensureAdmin(ctx context.Context) error {
	_, err := b.identity.GetEmployee(ctx, b.cfg.AdminID)
	if err == nil {
		return nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return err
	}

	_, err = b.identity.CreateEmployee(ctx, identity.CreateEmployeeParams{
		EmployeeID:   b.cfg.AdminID,
		Name:         b.cfg.AdminName,
		Password:     b.cfg.AdminPassword,
		RoleName:     RoleAdmin,
		DepartmentID: util.None[uuid.UUID](),
	}, audit.Meta{})
	if err != nil {
		if apperr.Is(err, apperr.KindConflict) || errors.Is(err, database.ErrDuplicateEmployee) {
			return nil
		}
		return err
	}

	b.logger.Info("default admin account created", "employee_id", b.cfg.AdminID)
	return nil
}
