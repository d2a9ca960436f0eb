package codegen

import (
	"strings"
	"testing"

	"github.com/cellmlab/cellgen/internal/ode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fhnSource = `# Simplified FitzHugh-Nagumo model
parameters("Membrane",
           a=ScalarParam(0.13, unit="1"),
           c_1=0.26,
           c_2=0.1,
           v_rest=-85.0,
           v_peak=40.0)
parameters("Recovery",
           b=0.013,
           c_3=1.0)

states("Membrane", V=-85.0)
states("Recovery", w=0.0)

expressions("Membrane")
v_amp = v_peak - v_rest
v_th = v_rest + a*v_amp
i_ion = c_1*(V - v_rest)*(v_th - V)*(V - v_peak)/(v_amp**2) - c_2*(V - v_rest)*w/v_amp
dV_dt = -i_ion

expressions("Recovery")
dw_dt = b*(V - v_rest - c_3*w)
`

func mustParse(t *testing.T, name, src string) *ode.Model {
	t.Helper()
	m, err := ode.Parse(name, src)
	require.NoError(t, err)
	return m
}

func TestGenerate(t *testing.T) {
	m := mustParse(t, "fitzhugh_nagumo", fhnSource)

	source, err := New(m, "V").Generate()
	require.NoError(t, err)

	assert.Contains(t, source, "class Fitzhugh_nagumo(CardiacCellModel):")
	assert.Contains(t, source, "The module was autogenerated from a gotran ode file")

	// Parameters and initial conditions keep the declared spellings.
	assert.Contains(t, source, `params = OrderedDict([("a", 0.13),`)
	assert.Contains(t, source, `("v_rest", -85.0),`)
	assert.Contains(t, source, `("c_3", 1.0)])`)
	assert.Contains(t, source, `ic = OrderedDict([("V", -85.0),`)
	assert.Contains(t, source, `("w", 0.0)])`)

	// State handling.
	assert.Contains(t, source, "V = v")
	assert.Contains(t, source, "assert(len(s) == 1)")
	assert.Contains(t, source, "w, = s")
	assert.Contains(t, source, "return 1")

	// Component grouping and the derivative lines.
	assert.Contains(t, source, "# Expressions for the Membrane component")
	assert.Contains(t, source, "# Expressions for the Recovery component")
	assert.Contains(t, source, "current[0] = -i_ion")
	assert.Contains(t, source, "F_expressions[0] = b*(V - v_rest - c_3*w)")

	// Small integer powers expand into products.
	assert.Contains(t, source, "(v_amp*v_amp)")
	assert.NotContains(t, source, "**")
}

func TestGenerateNarrowsParameters(t *testing.T) {
	m := mustParse(t, "fitzhugh_nagumo", fhnSource)

	source, err := New(m, "V").Generate()
	require.NoError(t, err)

	iBody := methodBody(t, source, "def _I(")
	fBody := methodBody(t, source, "def F(")

	// c_1 feeds only the membrane current; b only the recovery equation.
	assert.Contains(t, iBody, `c_1 = self._parameters["c_1"]`)
	assert.NotContains(t, iBody, `b = self._parameters["b"]`)
	assert.Contains(t, fBody, `b = self._parameters["b"]`)
	assert.NotContains(t, fBody, `c_1 = self._parameters["c_1"]`)

	// The recovery intermediates are not re-derived in F.
	assert.NotContains(t, fBody, "i_ion =")
}

// methodBody returns the text from the given def marker to the next def.
func methodBody(t *testing.T, source, marker string) string {
	t.Helper()
	start := strings.Index(source, marker)
	require.GreaterOrEqual(t, start, 0, "method %q not found", marker)
	rest := source[start+len(marker):]
	if end := strings.Index(rest, "def "); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

func TestGenerateMathFunctions(t *testing.T) {
	src := `states("Membrane", V=-84.0)
parameters("Membrane",
           amp=1.0,
           start=10.0,
           dur=2.0)
expressions("Membrane")
i_stim = Conditional(And(Ge(time, start), Le(time, start + dur)), amp, 0.0)
dV_dt = -exp(-V)*ln(2.0) + sqrt(i_stim**2)
`
	m := mustParse(t, "stim", src)

	source, err := New(m, "V").Generate()
	require.NoError(t, err)

	assert.Contains(t, source,
		"i_stim = ufl.conditional(ufl.And(ufl.ge(time, start), ufl.le(time, start + dur)), amp, 0.0)")
	assert.Contains(t, source, "current[0] = -ufl.exp(-V)*ufl.ln(2.0) + ufl.sqrt((i_stim*i_stim))")
}

func TestGenerateCustomMembranePotential(t *testing.T) {
	src := `states("Membrane", u=-80.0)
states("Gates", n=0.1)
expressions("Membrane")
du_dt = -u
expressions("Gates")
dn_dt = 1.0 - n
`
	m := mustParse(t, "custom", src)

	source, err := New(m, "u").Generate()
	require.NoError(t, err)

	assert.Contains(t, source, "u = v")
	assert.Contains(t, source, "current[0] = -u")
	assert.Contains(t, source, `ic = OrderedDict([("u", -80.0),`)
	assert.Contains(t, source, "F_expressions[0] = 1.0 - n")
}

func TestGenerateUnknownMembranePotential(t *testing.T) {
	m := mustParse(t, "fitzhugh_nagumo", fhnSource)

	_, err := New(m, "u").Generate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no state named "u"`)
}

func TestGenerateMissingDerivative(t *testing.T) {
	// Hand-built model: the loader normally guarantees a derivative per
	// state, but the generator reports its own error when asked directly.
	m := &ode.Model{
		Name:   "broken",
		States: []ode.State{{Name: "V", Init: 0, Raw: "0.0"}},
	}

	_, err := New(m, "V").Generate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no derivative dV_dt")
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input  string
		output string
		want   string
	}{
		{"model.ode", "", "model.py"},
		{"dir/sub/model.ode", "", "model.py"},
		{"model", "", "model.py"},
		{"model.ode", "custom", "custom.py"},
		{"model.ode", "custom.py", "custom.py"},
		{"model.ode", "py", "py.py"},
		{"model.ode", ".py", ".py"},
		{"model.ode", "dir/custom", "dir/custom.py"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OutputPath(tt.input, tt.output),
			"OutputPath(%q, %q)", tt.input, tt.output)
	}
}
