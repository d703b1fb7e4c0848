package constants

import "stock-admin/internal/pkg/entity"

// Access services a permission can be scoped to.
const (
	ServiceProject = "project"
)

// Operations on an entity.
const (
	OperationCreate = "create"
	OperationRead   = "read"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// Permission is a (service, entity, operation) triple.
type Permission struct {
	Service   string
	Entity    string
	Operation string
}

func (p Permission) String() string {
	return p.Service + ":" + p.Entity + ":" + p.Operation
}

// Common stock permissions used by the admin pages.
var (
	CreateStock = Permission{Service: ServiceProject, Entity: entity.Stock, Operation: OperationCreate}
	ReadStock   = Permission{Service: ServiceProject, Entity: entity.Stock, Operation: OperationRead}
	UpdateStock = Permission{Service: ServiceProject, Entity: entity.Stock, Operation: OperationUpdate}
)

// SessionCookieName is the cookie carrying the session id, shared by the server and the API client.
const SessionCookieName = "stockadmin.sid"
