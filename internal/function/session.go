package function

import (
	"fmt"

	"github.com/roach88/exprc/internal/diag"
	"github.com/roach88/exprc/internal/expr"
	"github.com/roach88/exprc/internal/value"
)

// coalesce returns its first non-null argument, evaluating no further.
var coalesceFn = &simple{name: "coalesce", eval: func(args []Arg) (value.Value, error) {
	for _, arg := range args {
		v, err := arg()
		if err != nil {
			return nil, err
		}
		if !value.IsNull(v) {
			return v, nil
		}
	}
	return value.Null{}, nil
}}

// currentUser specializes to the session user's name.
type currentUser struct {
	user value.Value
}

func (c *currentUser) Info() Info { return Info{Name: "current_user", Kind: KindScalar} }

func (c *currentUser) Specialize(_ []expr.Expression, p Principal) (Scalar, error) {
	if p.IsRole() {
		return nil, diag.NewUnsupportedError(fmt.Sprintf("%s is a role and cannot be a session user", p.User))
	}
	if p.User == "" {
		return &currentUser{user: value.Null{}}, nil
	}
	return &currentUser{user: value.Text(p.User)}, nil
}

func (c *currentUser) Evaluate([]Arg) (value.Value, error) {
	if c.user == nil {
		return nil, fmt.Errorf("current_user: not specialized")
	}
	return c.user, nil
}
