package row

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprc/internal/diag"
	"github.com/roach88/exprc/internal/expr"
	"github.com/roach88/exprc/internal/scalar"
	"github.com/roach88/exprc/internal/value"
)

func testSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := NewSchema(
		Column{Name: "x", Type: value.LongType},
		Column{Name: "name", Type: value.TextType},
	)
	require.NoError(t, err)
	return s
}

func TestSchema_Row(t *testing.T) {
	s := testSchema(t)

	r, err := s.Row(map[string]value.Value{"x": value.Integer(3)})
	require.NoError(t, err)
	assert.Equal(t, Row{value.Long(3), value.Null{}}, r)
	assert.Equal(t, value.Long(3), r.Get(s, "x"))
	assert.Equal(t, value.Null{}, r.Get(s, "missing"))

	_, err = s.Row(map[string]value.Value{"nope": value.Long(1)})
	assert.Error(t, err)

	_, err = s.Row(map[string]value.Value{"x": value.Double(1.5)})
	assert.Error(t, err)
}

func TestNewSchema_Duplicate(t *testing.T) {
	_, err := NewSchema(Column{Name: "x"}, Column{Name: "x"})
	assert.Error(t, err)
}

func TestContext_Bind(t *testing.T) {
	s := testSchema(t)
	ctx := NewContext(s)
	r := Row{value.Long(7), value.Text("a")}

	tests := []struct {
		name string
		col  string
		kind expr.ColumnKind
		want value.Value
	}{
		{"ordinary", "name", expr.Ordinary, value.Text("a")},
		{"dynamic declared", "x", expr.Dynamic, value.Long(7)},
		{"dynamic undeclared", "attrs", expr.Dynamic, value.Null{}},
		{"void", "x", expr.Void, value.Null{}},
		{"void undeclared", "gone", expr.Void, value.Null{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ctx.Bind(tt.col, tt.kind)
			require.NoError(t, err)
			got, err := ev.Evaluate(r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContext_BindUnknownOrdinary(t *testing.T) {
	_, err := NewContext(testSchema(t)).Bind("nope", expr.Ordinary)
	require.Error(t, err)
	assert.True(t, diag.IsInternalInvariant(err))
}

func TestRef_ShortRow(t *testing.T) {
	ev, err := NewContext(testSchema(t)).Bind("name", expr.Ordinary)
	require.NoError(t, err)
	got, err := ev.Evaluate(Row{value.Long(1)})
	require.NoError(t, err)
	assert.Equal(t, value.Null{}, got)

	var _ scalar.RowContext = (*Context)(nil)
}
