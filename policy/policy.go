// Package policy decides what a principal may do. Roles are hierarchical:
// admin inherits staff, which inherits citizen.
package policy

import (
	_ "embed"
	"fmt"

	"civic311-be/models"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
)

//go:embed model.conf
var modelText string

//go:embed policy.csv
var policyText string

type Object string

const (
	ObjRequest    Object = "request"
	ObjComment    Object = "comment"
	ObjAttachment Object = "attachment"
	ObjConfig     Object = "config"
)

type Action string

const (
	ActCreate         Action = "create"
	ActReadOwn        Action = "read_own"
	ActReadAny        Action = "read_any"
	ActMutate         Action = "mutate"
	ActReadInternal   Action = "read_internal"
	ActCreateInternal Action = "create_internal"
	ActModerate       Action = "moderate"
	ActManage         Action = "manage"
)

// Policy wraps a casbin enforcer loaded from the embedded role model.
type Policy struct {
	enforcer *casbin.Enforcer
}

func New() (*Policy, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("policy: parse model: %w", err)
	}
	enf, err := casbin.NewEnforcer(m, stringadapter.NewAdapter(policyText))
	if err != nil {
		return nil, fmt.Errorf("policy: init enforcer: %w", err)
	}
	return &Policy{enforcer: enf}, nil
}

// Can reports whether p may perform act on obj. Inactive principals may do
// nothing.
func (pl *Policy) Can(p models.Principal, obj Object, act Action) bool {
	if !p.Active || !p.Role.Valid() {
		return false
	}
	ok, err := pl.enforcer.Enforce(string(p.Role), string(obj), string(act))
	return err == nil && ok
}

// Require is Can returning ErrForbidden on denial.
func (pl *Policy) Require(p models.Principal, obj Object, act Action) error {
	if !pl.Can(p, obj, act) {
		return fmt.Errorf("%w: %s may not %s %s", models.ErrForbidden, p.Role, act, obj)
	}
	return nil
}

// AuthorizeRequestAccess allows the submitter and anyone who may read any
// request.
func (pl *Policy) AuthorizeRequestAccess(p models.Principal, req *models.ServiceRequest) error {
	if pl.Can(p, ObjRequest, ActReadAny) {
		return nil
	}
	if req.CitizenID == p.ID && pl.Can(p, ObjRequest, ActReadOwn) {
		return nil
	}
	return fmt.Errorf("%w: request %d belongs to another citizen", models.ErrForbidden, req.ID)
}

// Scope restricts a directory filter to what p may see. Citizens always see
// only their own requests, whatever the caller asked for.
func (pl *Policy) Scope(p models.Principal, f models.RequestFilter) models.RequestFilter {
	if pl.Can(p, ObjRequest, ActReadAny) {
		return f
	}
	id := p.ID
	f.CitizenID = &id
	return f
}

func (pl *Policy) IncludeInternal(p models.Principal) bool {
	return pl.Can(p, ObjComment, ActReadInternal)
}
