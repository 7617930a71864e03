package testutil

import (
	"github.com/tickethelp/repair-service/internal/domain"
)

// Cast holds one user per role plus a second technician.
type Cast struct {
	Admin     *domain.User
	Tech      *domain.User
	OtherTech *domain.User
	Client    *domain.User
	Owner     *domain.User
}

// SeedCast stores the standard set of active users.
func SeedCast(store *MemoryStore) Cast {
	return Cast{
		Admin:     store.AddUser(domain.User{ID: 1, Document: "1000000001", Email: "admin@test.com", FirstName: "Admin", LastName: "Test", Role: domain.RoleAdmin, IsActive: true}),
		Tech:      store.AddUser(domain.User{ID: 2, Document: "2000000001", Email: "tech@test.com", FirstName: "Tech", LastName: "Test", Role: domain.RoleTech, IsActive: true}),
		OtherTech: store.AddUser(domain.User{ID: 5, Document: "2000000002", Email: "tech2@test.com", FirstName: "Other", LastName: "Tech", Role: domain.RoleTech, IsActive: true}),
		Client:    store.AddUser(domain.User{ID: 3, Document: "3000000001", Email: "client@test.com", FirstName: "Client", LastName: "Test", Role: domain.RoleClient, IsActive: true}),
		Owner:     store.AddUser(domain.User{ID: 4, Document: "4000000001", Email: "owner@test.com", FirstName: "Owner", LastName: "Test", Role: domain.RoleOwner, IsActive: true}),
	}
}

// Status returns the catalog entry with code.
func Status(code string) domain.Status {
	for _, s := range domain.DefaultStatuses() {
		if s.Code == code {
			return s
		}
	}
	return domain.Status{}
}
