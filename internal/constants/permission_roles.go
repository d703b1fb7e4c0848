package constants

import "stock-admin/internal/pkg/entity"

const (
	Owner  = "owner"
	Admin  = "admin"
	Editor = "editor"
	Viewer = "viewer"
)

// ValidRoles is the set of allowed values for users.role.
var ValidRoles = []string{Viewer, Editor, Admin, Owner}

var allOperations = []string{OperationCreate, OperationRead, OperationUpdate, OperationDelete}

// RoleGrants maps role -> entity -> operations allowed within the project service.
var RoleGrants = map[string]map[string][]string{
	Owner: {
		entity.Organization: allOperations,
		entity.Stock:        allOperations,
		entity.User:         allOperations,
	},
	Admin: {
		entity.Organization: allOperations,
		entity.Stock:        allOperations,
		entity.User:         {OperationCreate, OperationRead, OperationUpdate},
	},
	Editor: {
		entity.Organization: {OperationRead},
		entity.Stock:        {OperationCreate, OperationRead, OperationUpdate},
	},
	Viewer: {
		entity.Organization: {OperationRead},
		entity.Stock:        {OperationRead},
	},
}

// IsValidRole returns true if role is one of the allowed values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Allowed returns true if role holds permission p. Unknown services, entities and roles hold nothing.
func Allowed(role string, p Permission) bool {
	if p.Service != ServiceProject || !entity.Known(p.Entity) {
		return false
	}
	for _, op := range RoleGrants[role][p.Entity] {
		if op == p.Operation {
			return true
		}
	}
	return false
}
