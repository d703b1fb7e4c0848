package entity

import "strings"

// Singular entity names used in permission triples, cache keys and schemas.
const (
	Organization = "organization"
	Stock        = "stock"
	User         = "user"
)

// routeEntities maps a plural collection segment to its singular entity name.
// Built once; nothing writes to it after init.
var routeEntities = map[string]string{
	"organizations": Organization,
	"stocks":        Stock,
	"users":         User,
}

var entityRoutes = func() map[string]string {
	m := make(map[string]string, len(routeEntities))
	for route, name := range routeEntities {
		m[name] = route
	}
	return m
}()

// FromRoute returns the singular entity name for a collection segment ("stocks" -> "stock").
// Unmapped segments are returned unchanged.
func FromRoute(route string) string {
	if name, ok := routeEntities[route]; ok {
		return name
	}
	return route
}

// Collection returns the plural route segment for an entity name ("stock" -> "stocks").
// Unmapped names are returned unchanged.
func Collection(name string) string {
	if route, ok := entityRoutes[name]; ok {
		return route
	}
	return name
}

// Known reports whether name is one of the mapped entity names.
func Known(name string) bool {
	_, ok := entityRoutes[name]
	return ok
}

// FromPath resolves the collection segment of a request path. API prefixes
// ("/api/v1/stocks/:id") and UI paths ("/stocks/edit/:id") both resolve to "stock".
// Returns "" when the path has no collection segment.
func FromPath(path string) string {
	for _, seg := range strings.Split(path, "/") {
		if seg == "" || seg == "api" || isVersion(seg) {
			continue
		}
		return FromRoute(seg)
	}
	return ""
}

func isVersion(seg string) bool {
	if len(seg) < 2 || seg[0] != 'v' {
		return false
	}
	for _, r := range seg[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
