package function

import (
	"sync"

	"go.uber.org/zap"

	"github.com/roach88/exprc/internal/expr"
	"github.com/roach88/exprc/internal/value"
)

// Matcher reports whether a definition accepts the given argument types.
type Matcher func(argTypes []value.DataType) bool

// ReturnTypeFunc derives a definition's return type from its argument types.
type ReturnTypeFunc func(argTypes []value.DataType) value.DataType

// Definition registers an implementation under a name.
type Definition struct {
	Name    string
	Accepts Matcher
	Returns ReturnTypeFunc
	Impl    Implementation
}

// Catalog is an in-memory Registry. It is safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string][]Definition
	logger  *zap.Logger
}

// NewCatalog creates an empty catalog.
func NewCatalog(logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		entries: make(map[string][]Definition),
		logger:  logger,
	}
}

// NewBuiltinCatalog creates a catalog holding the built-in functions.
func NewBuiltinCatalog(logger *zap.Logger) *Catalog {
	c := NewCatalog(logger)
	c.RegisterAll(Builtins())
	return c
}

// Register adds a definition. Definitions registered under the same name are
// tried in registration order.
func (c *Catalog) Register(def Definition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[def.Name] = append(c.entries[def.Name], def)
	c.logger.Debug("Registered function",
		zap.String("name", def.Name),
		zap.Stringer("kind", def.Impl.Info().Kind))
}

// RegisterAll adds several definitions.
func (c *Catalog) RegisterAll(defs []Definition) {
	for _, def := range defs {
		c.Register(def)
	}
}

// Resolve implements Registry.
func (c *Catalog) Resolve(sig expr.Signature) (Implementation, bool) {
	def, ok := c.lookup(sig.Name, sig.ArgumentTypes)
	if !ok {
		c.logger.Debug("Function not found", zap.String("signature", sig.String()))
		return nil, false
	}
	return def.Impl, true
}

// ReturnType implements expr.FunctionResolver.
func (c *Catalog) ReturnType(name string, argTypes []value.DataType) (value.DataType, bool) {
	def, ok := c.lookup(name, argTypes)
	if !ok {
		return value.Undefined, false
	}
	return def.Returns(argTypes), true
}

func (c *Catalog) lookup(name string, argTypes []value.DataType) (Definition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, def := range c.entries[name] {
		if def.Accepts == nil || def.Accepts(argTypes) {
			return def, true
		}
	}
	return Definition{}, false
}

// Arity accepts exactly n arguments of any type.
func Arity(n int) Matcher {
	return func(argTypes []value.DataType) bool {
		return len(argTypes) == n
	}
}

// AtLeast accepts n or more arguments of any type.
func AtLeast(n int) Matcher {
	return func(argTypes []value.DataType) bool {
		return len(argTypes) >= n
	}
}

// Types accepts exactly the given argument types. Undefined on either side
// matches anything, since it only ever carries null.
func Types(want ...value.DataType) Matcher {
	return func(argTypes []value.DataType) bool {
		if len(argTypes) != len(want) {
			return false
		}
		for i, t := range argTypes {
			if t != want[i] && t != value.Undefined && want[i] != value.Undefined {
				return false
			}
		}
		return true
	}
}

// Numeric accepts exactly n numeric (or undefined) arguments.
func Numeric(n int) Matcher {
	return func(argTypes []value.DataType) bool {
		if len(argTypes) != n {
			return false
		}
		for _, t := range argTypes {
			if t != value.Undefined && !t.IsNumeric() {
				return false
			}
		}
		return true
	}
}

// Comparable accepts two arguments that can be ordered against each other.
func Comparable() Matcher {
	return func(argTypes []value.DataType) bool {
		return len(argTypes) == 2 && value.Comparable(argTypes[0], argTypes[1])
	}
}

// Returns a fixed return type.
func Returns(t value.DataType) ReturnTypeFunc {
	return func([]value.DataType) value.DataType { return t }
}
