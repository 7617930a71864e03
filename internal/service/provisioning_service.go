package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tickethelp/repair-service/internal/auth"
	"github.com/tickethelp/repair-service/internal/domain"
	"github.com/tickethelp/repair-service/internal/repository"
)

// UserFixture describes an account to provision.
type UserFixture struct {
	Document  string
	Email     string
	FirstName string
	LastName  string
	Number    string
	Role      domain.Role
	Password  string
}

// DefaultUserFixtures returns one test account per role.
func DefaultUserFixtures() []UserFixture {
	return []UserFixture{
		{Document: "1000000001", Email: "admin@test.com", FirstName: "Admin", LastName: "Test", Number: "3001234567", Role: domain.RoleAdmin, Password: "admin123"},
		{Document: "2000000001", Email: "tech@test.com", FirstName: "Tech", LastName: "Test", Number: "3001234568", Role: domain.RoleTech, Password: "tech123"},
		{Document: "3000000001", Email: "client@test.com", FirstName: "Client", LastName: "Test", Number: "3001234569", Role: domain.RoleClient, Password: "client123"},
		{Document: "4000000001", Email: "owner@test.com", FirstName: "Owner", LastName: "Test", Number: "3001234570", Role: domain.RoleOwner, Password: "owner123"},
	}
}

// SeedReport summarises a provisioning run.
type SeedReport struct {
	Created []string
	Updated []string
	Failed  map[string]error
}

// ProvisioningService seeds accounts and the status catalog.
type ProvisioningService struct {
	store      repository.UnitOfWork
	bcryptCost int
	logger     *zap.Logger
}

// NewProvisioningService constructs the service.
func NewProvisioningService(store repository.UnitOfWork, bcryptCost int, logger *zap.Logger) *ProvisioningService {
	return &ProvisioningService{store: store, bcryptCost: bcryptCost, logger: logger}
}

// SeedUsers upserts each fixture by document. Existing accounts get their
// profile, role and password reset; every seeded account is active and does
// not have to change its password. A failing fixture is recorded and the run
// continues.
func (s *ProvisioningService) SeedUsers(ctx context.Context, fixtures []UserFixture) SeedReport {
	report := SeedReport{Failed: map[string]error{}}
	users := s.store.Repos().Users

	for _, fx := range fixtures {
		created, err := s.seedUser(ctx, users, fx)
		if err != nil {
			s.logger.Error("failed to seed user", zap.String("role", string(fx.Role)), zap.String("email", fx.Email), zap.Error(err))
			report.Failed[fx.Email] = err
			continue
		}
		if created {
			s.logger.Info("user created", zap.String("role", string(fx.Role)), zap.String("email", fx.Email), zap.String("document", fx.Document))
			report.Created = append(report.Created, fx.Email)
		} else {
			s.logger.Info("user updated", zap.String("role", string(fx.Role)), zap.String("email", fx.Email), zap.String("document", fx.Document))
			report.Updated = append(report.Updated, fx.Email)
		}
	}
	return report
}

func (s *ProvisioningService) seedUser(ctx context.Context, users repository.UserRepository, fx UserFixture) (bool, error) {
	if !fx.Role.Valid() {
		return false, fmt.Errorf("unknown role %q", fx.Role)
	}
	hash, err := auth.HashPassword(fx.Password, s.bcryptCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}

	user, err := users.GetByDocument(ctx, fx.Document)
	created := false
	switch {
	case repository.IsNotFound(err):
		user = &domain.User{Document: fx.Document}
		created = true
	case err != nil:
		return false, fmt.Errorf("lookup by document: %w", err)
	}

	user.Email = fx.Email
	user.FirstName = fx.FirstName
	user.LastName = fx.LastName
	user.Number = fx.Number
	user.Role = fx.Role
	user.PasswordHash = hash
	user.IsActive = true
	user.MustChangePassword = false

	if created {
		return true, users.Create(ctx, user)
	}
	return false, users.Update(ctx, user)
}

// SeedStatuses re-applies the fixed six-status catalog.
func (s *ProvisioningService) SeedStatuses(ctx context.Context) error {
	return s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		for _, status := range domain.DefaultStatuses() {
			if err := tx.Statuses.Upsert(ctx, status); err != nil {
				return fmt.Errorf("upsert status %s: %w", status.Code, err)
			}
			s.logger.Info("status seeded", zap.Int64("id", status.ID), zap.String("code", status.Code))
		}
		return nil
	})
}
