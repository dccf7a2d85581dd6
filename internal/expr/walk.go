package expr

// Walk visits e and its descendants in pre-order. If fn returns false the
// node's children are skipped.
func Walk(e Expression, fn func(Expression) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch n := e.(type) {
	case *FunctionCall:
		for _, arg := range n.Args {
			Walk(arg, fn)
		}
	case *Alias:
		Walk(n.Inner, fn)
	}
}

// Unalias strips any number of Alias wrappers.
func Unalias(e Expression) Expression {
	for {
		a, ok := e.(*Alias)
		if !ok {
			return e
		}
		e = a.Inner
	}
}

// Columns returns the distinct column names referenced by e in first-seen
// order.
func Columns(e Expression) []string {
	seen := make(map[string]bool)
	var names []string
	Walk(e, func(n Expression) bool {
		if c, ok := n.(*ColumnRef); ok && !seen[c.Name] {
			seen[c.Name] = true
			names = append(names, c.Name)
		}
		return true
	})
	return names
}
