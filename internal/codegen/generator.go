// Package codegen turns a loaded ODE model into Python source implementing
// an xalbrain CardiacCellModel subclass.
package codegen

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cellmlab/cellgen/internal/ode"
)

// Generator produces cell-model source for one model. The membrane
// potential name selects which state becomes the transmembrane current;
// it is not validated until Generate runs.
type Generator struct {
	model *ode.Model
	vName string
}

func New(model *ode.Model, membranePotential string) *Generator {
	return &Generator{model: model, vName: membranePotential}
}

type kv struct {
	Name string
	Raw  string
}

// Block is a run of generated lines under one component comment.
type Block struct {
	Comment string
	Lines   []string
}

type templateData struct {
	ClassName  string
	ParamsDict string
	ICDict     string
	V          string
	NumStates  int
	Unpack     string
	IParams    []string
	FParams    []string
	IBlocks    []Block
	FBlocks    []Block
}

// Generate renders the complete Python module.
func (g *Generator) Generate() (string, error) {
	m := g.model
	if _, ok := m.State(g.vName); !ok {
		return "", fmt.Errorf("model %q has no state named %q to use as membrane potential", m.Name, g.vName)
	}
	dv, ok := m.DerivativeOf(g.vName)
	if !ok {
		return "", fmt.Errorf("model %q has no derivative d%s_dt for the membrane potential", m.Name, g.vName)
	}

	var others []ode.State
	for _, s := range m.States {
		if s.Name != g.vName {
			others = append(others, s)
		}
	}

	iNeeds := g.closure([]ode.Expr{dv.RHS})
	var fSeeds []ode.Expr
	slot := map[string]int{}
	for i, s := range others {
		slot[s.Name] = i
		d, _ := m.DerivativeOf(s.Name)
		fSeeds = append(fSeeds, d.RHS)
	}
	fNeeds := g.closure(fSeeds)

	data := templateData{
		ClassName:  className(m.Name),
		ParamsDict: orderedDict("params", paramPairs(m)),
		ICDict:     orderedDict("ic", icPairs(m, g.vName)),
		V:          g.vName,
		NumStates:  len(others),
		Unpack:     unpack(others),
		IParams:    g.neededParams(iNeeds),
		FParams:    g.neededParams(fNeeds),
		IBlocks: g.blocks(iNeeds, func(e ode.Expression) (string, bool) {
			if e.Name != g.vName {
				return "", false
			}
			return "current[0] = " + pyExpr(e.RHS), true
		}),
		FBlocks: g.blocks(fNeeds, func(e ode.Expression) (string, bool) {
			if e.Name == g.vName {
				return "", false
			}
			return fmt.Sprintf("F_expressions[%d] = %s", slot[e.Name], pyExpr(e.RHS)), true
		}),
	}

	var buf bytes.Buffer
	if err := cellModelTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering cell model: %w", err)
	}
	return buf.String(), nil
}

// closure returns every identifier reachable from the seed expressions,
// following references through intermediate expressions.
func (g *Generator) closure(seeds []ode.Expr) map[string]bool {
	need := map[string]bool{}
	var visit func(e ode.Expr)
	visit = func(e ode.Expr) {
		for _, id := range ode.Idents(e, nil) {
			if need[id] {
				continue
			}
			need[id] = true
			if inter, ok := g.model.Intermediate(id); ok {
				visit(inter.RHS)
			}
		}
	}
	for _, e := range seeds {
		visit(e)
	}
	return need
}

// neededParams filters the declared parameters down to the ones a method
// actually reads, keeping declaration order.
func (g *Generator) neededParams(needs map[string]bool) []string {
	var out []string
	for _, p := range g.model.Parameters {
		if needs[p.Name] {
			out = append(out, p.Name)
		}
	}
	return out
}

// blocks walks the model expressions in declaration order, keeping the
// intermediates in needs and whatever lines emit produces for derivatives,
// grouped into component-comment blocks.
func (g *Generator) blocks(needs map[string]bool, emit func(ode.Expression) (string, bool)) []Block {
	var out []Block
	current := -1
	for _, e := range g.model.Expressions {
		var line string
		if e.Deriv {
			l, ok := emit(e)
			if !ok {
				continue
			}
			line = l
		} else {
			if !needs[e.Name] {
				continue
			}
			line = e.Name + " = " + pyExpr(e.RHS)
		}
		comment := componentComment(e.Component)
		if current < 0 || out[current].Comment != comment {
			out = append(out, Block{Comment: comment})
			current = len(out) - 1
		}
		out[current].Lines = append(out[current].Lines, line)
	}
	return out
}

func componentComment(component string) string {
	if component == "" {
		return "Expressions"
	}
	return "Expressions for the " + component + " component"
}

func className(modelName string) string {
	var b strings.Builder
	for i, r := range modelName {
		switch {
		case r == '_' || r >= '0' && r <= '9' && i > 0 ||
			r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := b.String()
	if name == "" {
		name = "Cell_model"
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func paramPairs(m *ode.Model) []kv {
	pairs := make([]kv, 0, len(m.Parameters))
	for _, p := range m.Parameters {
		pairs = append(pairs, kv{p.Name, p.Raw})
	}
	return pairs
}

// icPairs lists initial conditions with the membrane potential first, as
// the solver unpacks (v, s) in that order.
func icPairs(m *ode.Model, vName string) []kv {
	pairs := make([]kv, 0, len(m.States))
	if v, ok := m.State(vName); ok {
		pairs = append(pairs, kv{v.Name, v.Raw})
	}
	for _, s := range m.States {
		if s.Name != vName {
			pairs = append(pairs, kv{s.Name, s.Raw})
		}
	}
	return pairs
}

func unpack(states []ode.State) string {
	if len(states) == 0 {
		return ""
	}
	names := make([]string, len(states))
	for i, s := range states {
		names[i] = s.Name
	}
	joined := strings.Join(names, ", ")
	if len(states) == 1 {
		joined += ","
	}
	return joined + " = s"
}

// orderedDict formats an OrderedDict literal in the continuation-aligned
// style of the original generated models.
func orderedDict(varName string, pairs []kv) string {
	if len(pairs) == 0 {
		return fmt.Sprintf("        %s = OrderedDict()", varName)
	}
	prefix := fmt.Sprintf("        %s = OrderedDict([", varName)
	pad := strings.Repeat(" ", len(prefix))
	var b strings.Builder
	for i, p := range pairs {
		if i == 0 {
			b.WriteString(prefix)
		} else {
			b.WriteString(pad)
		}
		fmt.Fprintf(&b, "(%q, %s)", p.Name, p.Raw)
		if i < len(pairs)-1 {
			b.WriteString(",\n")
		} else {
			b.WriteString("])")
		}
	}
	return b.String()
}

// OutputPath applies the output naming rule: an explicit name gains a
// ".py" suffix unless its last three characters already are ".py"; an
// empty name derives from the input basename with ".ode" stripped.
func OutputPath(inputPath, output string) string {
	if output == "" {
		base := filepath.Base(inputPath)
		return strings.TrimSuffix(base, ".ode") + ".py"
	}
	if len(output) < 3 || output[len(output)-3:] != ".py" {
		return output + ".py"
	}
	return output
}
