package function

import (
	"fmt"

	"github.com/roach88/exprc/internal/expr"
	"github.com/roach88/exprc/internal/value"
)

// Kind classifies catalog entries.
type Kind int

const (
	KindScalar Kind = iota
	KindAggregate
	KindTable
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindAggregate:
		return "aggregate"
	case KindTable:
		return "table"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Info describes a catalog entry.
type Info struct {
	Name string
	Kind Kind
}

// Implementation is a catalog entry. Use a type assertion to Scalar to find
// out whether it can be evaluated per row.
type Implementation interface {
	Info() Info
}

// Arg lazily produces one argument value for the current row. Functions with
// short-circuit semantics call only the Args they need.
type Arg func() (value.Value, error)

// Scalar is a function that computes one value per row.
type Scalar interface {
	Implementation

	// Specialize returns an implementation bound to the argument expressions
	// and principal, e.g. with a literal pattern pre-compiled. The receiver
	// is not modified.
	Specialize(args []expr.Expression, principal Principal) (Scalar, error)

	// Evaluate computes the result for one row.
	Evaluate(args []Arg) (value.Value, error)
}

// Registry resolves analyzer-resolved signatures to implementations.
type Registry interface {
	Resolve(sig expr.Signature) (Implementation, bool)
}

// Role is a cluster principal. Users can log in, roles cannot.
type Role struct {
	Name   string
	IsUser bool
}

// Roles is a snapshot of the known roles and users.
type Roles []Role

// Find returns the role named name.
func (r Roles) Find(name string) (Role, bool) {
	for _, role := range r {
		if role.Name == name {
			return role, true
		}
	}
	return Role{}, false
}

// Principal is the session identity passed to Specialize.
type Principal struct {
	User  string
	Roles Roles
}

// IsRole reports whether the principal is known to be a role rather than a
// login user.
func (p Principal) IsRole() bool {
	role, ok := p.Roles.Find(p.User)
	return ok && !role.IsUser
}
