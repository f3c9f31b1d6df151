package identity

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
)

// Resources and actions known to the policy.
const (
	ResourceRequest      = "maintenance_request"
	ResourceAvailability = "availability"

	ActionCreate     = "create"
	ActionListMine   = "list_mine"
	ActionListAll    = "list_all"
	ActionRead       = "read"
	ActionReview     = "review"
	ActionApprove    = "approve"
	ActionReschedule = "reschedule"
	ActionCancel     = "cancel"
)

//go:embed model.conf
var defaultModel string

//go:embed policy.csv
var defaultPolicy string

// Authorizer decides whether a role may perform an action on a resource.
type Authorizer struct {
	mu       sync.RWMutex
	enforcer *casbin.Enforcer
}

// NewAuthorizer builds an authorizer from the embedded role policy.
func NewAuthorizer() (*Authorizer, error) {
	return NewAuthorizerFromPolicy(defaultPolicy)
}

// NewAuthorizerFromPolicy builds an authorizer from CSV policy lines.
func NewAuthorizerFromPolicy(policy string) (*Authorizer, error) {
	m, err := model.NewModelFromString(defaultModel)
	if err != nil {
		return nil, fmt.Errorf("authz: parse model: %w", err)
	}
	enf, err := casbin.NewEnforcer(m, stringadapter.NewAdapter(policy))
	if err != nil {
		return nil, fmt.Errorf("authz: create enforcer: %w", err)
	}
	return &Authorizer{enforcer: enf}, nil
}

// Allowed reports whether p may perform action on resource.
func (a *Authorizer) Allowed(p Principal, resource, action string) (bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ok, err := a.enforcer.Enforce(string(p.Role), resource, action)
	if err != nil {
		return false, fmt.Errorf("authz: enforce: %w", err)
	}
	return ok, nil
}
