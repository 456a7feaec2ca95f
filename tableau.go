package ilp

import (
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

type variableKind int

const (
	decisionVariable variableKind = iota
	slackVariable
	artificialVariable
	objectiveVariable
)

// A row states Σ coefs[v]*v = constant. The basic variable has coefficient 1
// in its own row and does not occur in any other row.
type row struct {
	id       int
	basic    int
	constant *big.Rat
	coefs    map[int]*big.Rat
}

type tableauVariable struct {
	id   int
	name string
	kind variableKind

	// set once a row proves the variable can never become positive.
	knownZero bool

	// ids of the rows with a nonzero coefficient for this variable
	rows map[int]struct{}

	// id of the row this variable is basic in, -1 if non-basic
	basicRow int
}

// tableau is the working storage of the simplex method.
// Rows and variables refer to each other by id only, so copy is a plain map copy.
type tableau struct {
	rows       map[int]*row
	variables  map[int]*tableauVariable
	artificial map[int]struct{}
	objectives map[int]struct{}

	nextRow int
	nextVar int

	trace *tracer
}

func newTableau(variables []*DecisionVariable, trace *tracer) *tableau {
	t := &tableau{
		rows:       make(map[int]*row),
		variables:  make(map[int]*tableauVariable, len(variables)),
		artificial: make(map[int]struct{}),
		objectives: make(map[int]struct{}),
		trace:      trace,
	}
	for _, v := range variables {
		t.variables[v.id] = &tableauVariable{
			id:       v.id,
			name:     v.name,
			kind:     decisionVariable,
			rows:     make(map[int]struct{}),
			basicRow: -1,
		}
		if v.id >= t.nextVar {
			t.nextVar = v.id + 1
		}
	}
	return t
}

func (t *tableau) newVariable(name string, kind variableKind) int {
	id := t.nextVar
	t.nextVar++
	t.variables[id] = &tableauVariable{
		id:       id,
		name:     name,
		kind:     kind,
		rows:     make(map[int]struct{}),
		basicRow: -1,
	}
	return id
}

// copy returns an independent tableau with the same variable and row ids.
func (t *tableau) copy() *tableau {
	c := &tableau{
		rows:       make(map[int]*row, len(t.rows)),
		variables:  make(map[int]*tableauVariable, len(t.variables)),
		artificial: make(map[int]struct{}, len(t.artificial)),
		objectives: make(map[int]struct{}, len(t.objectives)),
		nextRow:    t.nextRow,
		nextVar:    t.nextVar,
		trace:      t.trace,
	}
	for id, r := range t.rows {
		coefs := make(map[int]*big.Rat, len(r.coefs))
		for v, a := range r.coefs {
			coefs[v] = new(big.Rat).Set(a)
		}
		c.rows[id] = &row{
			id:       r.id,
			basic:    r.basic,
			constant: new(big.Rat).Set(r.constant),
			coefs:    coefs,
		}
	}
	for id, v := range t.variables {
		rows := make(map[int]struct{}, len(v.rows))
		for r := range v.rows {
			rows[r] = struct{}{}
		}
		nv := *v
		nv.rows = rows
		c.variables[id] = &nv
	}
	for id := range t.artificial {
		c.artificial[id] = struct{}{}
	}
	for id := range t.objectives {
		c.objectives[id] = struct{}{}
	}
	return c
}

// registerRow inserts a row built outside the tableau and records its variable memberships.
func (t *tableau) registerRow(r *row) {
	t.rows[r.id] = r
	for v := range r.coefs {
		t.variables[v].rows[r.id] = struct{}{}
	}
	t.variables[r.basic].basicRow = r.id
}

func (t *tableau) removeRow(r *row) {
	for v := range r.coefs {
		delete(t.variables[v].rows, r.id)
	}
	if b := t.variables[r.basic]; b != nil && b.basicRow == r.id {
		b.basicRow = -1
	}
	delete(t.rows, r.id)
	delete(t.objectives, r.id)
}

// removeVariable drops a variable and its column. Its value is taken to be zero.
func (t *tableau) removeVariable(id int) {
	v := t.variables[id]
	for rid := range v.rows {
		delete(t.rows[rid].coefs, id)
	}
	delete(t.variables, id)
	delete(t.artificial, id)
}

// subtractRow performs dst -= factor*src. If registered is set, variable
// memberships are kept up to date; rows under construction skip that.
func (t *tableau) subtractRow(dst, src *row, factor *big.Rat, registered bool) {
	tmp := new(big.Rat)
	for v, a := range src.coefs {
		tmp.Mul(factor, a)
		d, ok := dst.coefs[v]
		if !ok {
			dst.coefs[v] = new(big.Rat).Neg(tmp)
			if registered {
				t.variables[v].rows[dst.id] = struct{}{}
			}
			continue
		}
		d.Sub(d, tmp)
		if d.Sign() == 0 {
			delete(dst.coefs, v)
			if registered {
				delete(t.variables[v].rows, dst.id)
			}
		}
	}
	dst.constant.Sub(dst.constant, tmp.Mul(factor, src.constant))
}

// eliminateBasicVariables expresses an unregistered row in non-basic variables only,
// by subtracting the rows of every basic variable it mentions.
func (t *tableau) eliminateBasicVariables(r *row) {
	for _, v := range sortedKeys(r.coefs) {
		if v == r.basic {
			continue
		}
		a, ok := r.coefs[v]
		if !ok {
			continue
		}
		br := t.variables[v].basicRow
		if br < 0 {
			continue
		}
		t.subtractRow(r, t.rows[br], new(big.Rat).Set(a), false)
	}
}

// addConstraint translates c into a new row with a slack or artificial basic variable.
// Rows without coefficients are checked and dropped; ErrInfeasible is returned if they do not hold.
func (t *tableau) addConstraint(c Constraint) error {
	r := &row{
		id:       t.nextRow,
		basic:    -1,
		constant: new(big.Rat).Neg(c.expression.constant.rat()),
		coefs:    make(map[int]*big.Rat, len(c.expression.terms)+1),
	}
	for _, term := range c.expression.terms {
		v, ok := t.variables[term.Variable.id]
		if !ok {
			panic(fmt.Sprintf("ilp: constraint references variable %q unknown to the tableau", term.Variable.name))
		}
		if v.knownZero {
			continue
		}
		r.coefs[v.id] = new(big.Rat).Set(term.Coefficient.rat())
	}
	t.eliminateBasicVariables(r)

	if len(r.coefs) == 0 {
		if c.satisfiedBy(wrap(new(big.Rat).Neg(r.constant))) {
			return nil
		}
		return errors.Wrapf(ErrInfeasible, "constraint %s cannot hold", c)
	}
	t.nextRow++

	slack := -1
	switch c.comparison {
	case LTE:
		slack = t.newVariable(fmt.Sprintf("s%d", r.id), slackVariable)
		r.coefs[slack] = big.NewRat(1, 1)
	case GTE:
		slack = t.newVariable(fmt.Sprintf("s%d", r.id), slackVariable)
		r.coefs[slack] = big.NewRat(-1, 1)
	}

	// keep the right hand side non-negative; a zero one lets the slack be basic either way
	if r.constant.Sign() < 0 || (r.constant.Sign() == 0 && slack >= 0 && r.coefs[slack].Sign() < 0) {
		r.constant.Neg(r.constant)
		for _, a := range r.coefs {
			a.Neg(a)
		}
	}

	if slack >= 0 && r.coefs[slack].Sign() > 0 {
		r.basic = slack
	} else {
		a := t.newVariable(fmt.Sprintf("a%d", r.id), artificialVariable)
		r.coefs[a] = big.NewRat(1, 1)
		r.basic = a
		t.artificial[a] = struct{}{}
	}
	t.registerRow(r)

	if t.trace.enabled() {
		t.trace.printf("added constraint %s as row %d (basic %s)", c, r.id, t.variables[r.basic].name)
	}
	return nil
}

// addObjective inserts the row z - Σcᵢxᵢ = k for the objective Σcᵢxᵢ + k and
// returns its id. Maximizing the objective maximizes z.
func (t *tableau) addObjective(e Expression) int {
	z := t.newVariable(fmt.Sprintf("z%d", t.nextRow), objectiveVariable)
	r := &row{
		id:       t.nextRow,
		basic:    z,
		constant: new(big.Rat).Set(e.constant.rat()),
		coefs:    map[int]*big.Rat{z: big.NewRat(1, 1)},
	}
	t.nextRow++
	for _, term := range e.terms {
		v, ok := t.variables[term.Variable.id]
		if !ok {
			panic(fmt.Sprintf("ilp: objective references variable %q unknown to the tableau", term.Variable.name))
		}
		if v.knownZero {
			continue
		}
		r.coefs[v.id] = new(big.Rat).Neg(term.Coefficient.rat())
	}
	t.eliminateBasicVariables(r)
	t.registerRow(r)
	t.objectives[r.id] = struct{}{}
	return r.id
}

// removeObjective strips an objective row and its variable.
func (t *tableau) removeObjective(id int) {
	r := t.rows[id]
	t.removeRow(r)
	delete(t.variables, r.basic)
}

func (t *tableau) objectiveValue(id int) Fraction {
	return FractionFromRat(t.rows[id].constant)
}

// value returns the current value of a variable. Non-basic variables are zero.
func (t *tableau) value(id int) *big.Rat {
	v, ok := t.variables[id]
	if !ok || v.basicRow < 0 {
		return zeroRat
	}
	return t.rows[v.basicRow].constant
}

func (t *tableau) evaluate(e Expression) Fraction {
	return e.evaluate(t.value)
}

func (t *tableau) isObjectiveRow(id int) bool {
	_, ok := t.objectives[id]
	return ok
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// String renders the tableau as a matrix of float approximations, one row per tableau row
// with the right hand side as the last column. Only meant for tracing.
func (t *tableau) String() string {
	rowIDs := sortedKeys(t.rows)
	var cols []int
	for _, id := range sortedKeys(t.variables) {
		if len(t.variables[id].rows) > 0 {
			cols = append(cols, id)
		}
	}
	if len(rowIDs) == 0 || len(cols) == 0 {
		return "(empty tableau)"
	}
	colIndex := make(map[int]int, len(cols))
	for i, v := range cols {
		colIndex[v] = i
	}

	d := mat.NewDense(len(rowIDs), len(cols)+1, nil)
	basics := make([]string, len(rowIDs))
	for i, rid := range rowIDs {
		r := t.rows[rid]
		for v, a := range r.coefs {
			f, _ := a.Float64()
			d.Set(i, colIndex[v], f)
		}
		f, _ := r.constant.Float64()
		d.Set(i, len(cols), f)
		basics[i] = t.variables[r.basic].name
	}

	var sb strings.Builder
	names := make([]string, len(cols))
	for i, v := range cols {
		names[i] = t.variables[v].name
	}
	fmt.Fprintf(&sb, "columns: %s | rhs\n", strings.Join(names, " "))
	fmt.Fprintf(&sb, "basics:  %s\n", strings.Join(basics, " "))
	fmt.Fprintf(&sb, "%v", mat.Formatted(d, mat.Squeeze()))
	return sb.String()
}
