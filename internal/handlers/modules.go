package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// Module owns every route under one /api prefix.
type Module interface {
	// Name identifies the module in logs.
	Name() string
	// Prefix is the fixed mount point, e.g. "/api/cart".
	Prefix() string
	// RegisterRoutes adds the module's routes to r. Paths given to r are relative to Prefix.
	RegisterRoutes(r *mux.Router)
}

// Module prefixes served by the storefront API.
const (
	AuthPrefix      = "/api/auth"
	ProductsPrefix  = "/api/products"
	CartPrefix      = "/api/cart"
	CouponsPrefix   = "/api/coupons"
	PaymentsPrefix  = "/api/payments"
	AnalyticsPrefix = "/api/analytics"
)

// DefaultModules returns the six storefront modules. Until a real implementation is supplied each one
// answers 501, which keeps its prefix owned by the API instead of the SPA fallback.
func DefaultModules() []Module {
	return []Module{
		NewUnimplementedModule("auth", AuthPrefix),
		NewUnimplementedModule("products", ProductsPrefix),
		NewUnimplementedModule("cart", CartPrefix),
		NewUnimplementedModule("coupons", CouponsPrefix),
		NewUnimplementedModule("payments", PaymentsPrefix),
		NewUnimplementedModule("analytics", AnalyticsPrefix),
	}
}

// Mount registers m on r under its prefix. Only the prefix itself and paths below it match, so
// /api/cartography is not routed to the cart module.
func Mount(r *mux.Router, m Module) *mux.Router {
	sub := r.PathPrefix(m.Prefix()).MatcherFunc(PrefixMatcher(m.Prefix())).Subrouter()
	m.RegisterRoutes(sub)
	return sub
}

// PrefixMatcher matches prefix and any path below it, on a segment boundary.
func PrefixMatcher(prefixes ...string) mux.MatcherFunc {
	return func(r *http.Request, _ *mux.RouteMatch) bool {
		for _, prefix := range prefixes {
			if r.URL.Path == prefix || strings.HasPrefix(r.URL.Path, prefix+"/") {
				return true
			}
		}
		return false
	}
}

// UnimplementedModule reserves a prefix and answers 501 for everything under it.
type UnimplementedModule struct {
	name   string
	prefix string
}

// NewUnimplementedModule creates a placeholder module.
func NewUnimplementedModule(name, prefix string) *UnimplementedModule {
	return &UnimplementedModule{name: name, prefix: prefix}
}

// Name implements Module.
func (m *UnimplementedModule) Name() string { return m.name }

// Prefix implements Module.
func (m *UnimplementedModule) Prefix() string { return m.prefix }

// RegisterRoutes implements Module.
func (m *UnimplementedModule) RegisterRoutes(r *mux.Router) {
	r.NewRoute().HandlerFunc(m.serve)
}

func (m *UnimplementedModule) serve(w http.ResponseWriter, r *http.Request) {
	respondJSONError(w, r, http.StatusNotImplemented, "Not Implemented", "The "+m.name+" module is not available")
}
