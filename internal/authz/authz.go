// Package authz decides which actions a role may perform on model collections.
package authz

import (
	"net/http"

	"github.com/geocoder89/modelhub/internal/domain/user"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Policy maps a role to the set of actions it may perform. It is built once
// at startup and only read afterwards.
type Policy struct {
	roles map[string]map[Action]struct{}
}

func NewPolicy(grants map[string][]Action) *Policy {
	p := &Policy{roles: make(map[string]map[Action]struct{}, len(grants))}
	for role, actions := range grants {
		set := make(map[Action]struct{}, len(actions))
		for _, a := range actions {
			set[a] = struct{}{}
		}
		p.roles[role] = set
	}
	return p
}

// DefaultPolicy grants every role the actions of the role below it plus one.
func DefaultPolicy() *Policy {
	return NewPolicy(map[string][]Action{
		user.RoleUser:   {ActionRead},
		user.RoleWriter: {ActionRead, ActionCreate},
		user.RoleEditor: {ActionRead, ActionCreate, ActionUpdate},
		user.RoleAdmin:  {ActionRead, ActionCreate, ActionUpdate, ActionDelete},
	})
}

// Allows reports whether role may perform action. Unknown roles may do nothing.
func (p *Policy) Allows(role string, action Action) bool {
	set, ok := p.roles[role]
	if !ok {
		return false
	}
	_, ok = set[action]
	return ok
}

// ActionForMethod maps an HTTP verb to the action it performs on a collection.
func ActionForMethod(method string) (Action, bool) {
	switch method {
	case http.MethodPost:
		return ActionCreate, true
	case http.MethodGet, http.MethodHead:
		return ActionRead, true
	case http.MethodPut, http.MethodPatch:
		return ActionUpdate, true
	case http.MethodDelete:
		return ActionDelete, true
	default:
		return "", false
	}
}
