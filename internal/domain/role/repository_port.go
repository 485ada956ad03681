// internal/domain/role/repository_port.go
package role

import "context"

// Repository reads (and, for tooling, writes) roles/{uid}/isAdmin.
type Repository interface {
	// IsAdmin returns false for users without a role record.
	IsAdmin(ctx context.Context, uid string) (bool, error)

	SetAdmin(ctx context.Context, uid string, isAdmin bool) error
}
