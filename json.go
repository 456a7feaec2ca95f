package ilp

import (
	"encoding/json"
	"io"
	"sort"
	"strconv"

	"github.com/pkg/errors"
)

// The JSON form of a model exists to replay solver inputs while debugging.
// Its layout is not meant to be stable.

type jsonExpression struct {
	Constant string            `json:"constant"`
	Terms    map[string]string `json:"terms"`
}

type jsonConstraint struct {
	Expression jsonExpression `json:"expression"`
	Comparison string         `json:"comparison"`
}

type jsonBranchingConstraint struct {
	Type       string         `json:"type"`
	Expression jsonExpression `json:"expression"`
	Min        string         `json:"min,omitempty"`
	Max        string         `json:"max,omitempty"`
}

type jsonModel struct {
	Variables            map[string]string         `json:"variables"`
	Constraints          []jsonConstraint          `json:"constraints"`
	BranchingConstraints []jsonBranchingConstraint `json:"branching-constraints"`
	Objectives           []jsonExpression          `json:"objectives,omitempty"`
}

const (
	jsonInteger           = "int"
	jsonZeroIfLessThan    = "zero-if-lt"
	jsonZeroIfGreaterThan = "zero-if-gt"
)

func encodeExpression(e Expression) jsonExpression {
	out := jsonExpression{
		Constant: e.constant.String(),
		Terms:    make(map[string]string, len(e.terms)),
	}
	for _, t := range e.terms {
		out.Terms[strconv.Itoa(t.Variable.id)] = t.Coefficient.String()
	}
	return out
}

func (m *Model) toJSON(objectives []Expression) jsonModel {
	out := jsonModel{
		Variables:            make(map[string]string, len(m.variables)),
		Constraints:          make([]jsonConstraint, 0, len(m.constraints)),
		BranchingConstraints: make([]jsonBranchingConstraint, 0, len(m.branching)),
	}
	for _, v := range m.variables {
		out.Variables[strconv.Itoa(v.id)] = v.name
	}
	for _, c := range m.constraints {
		out.Constraints = append(out.Constraints, jsonConstraint{
			Expression: encodeExpression(c.expression),
			Comparison: c.comparison.String(),
		})
	}
	for _, b := range m.branching {
		jb := jsonBranchingConstraint{Expression: encodeExpression(b.expression)}
		switch b.kind {
		case integerBranching:
			jb.Type = jsonInteger
		case zeroIfLessThanBranching:
			jb.Type = jsonZeroIfLessThan
			jb.Min = b.threshold.String()
		case zeroIfGreaterThanBranching:
			jb.Type = jsonZeroIfGreaterThan
			jb.Max = b.threshold.String()
		}
		out.BranchingConstraints = append(out.BranchingConstraints, jb)
	}
	for _, o := range objectives {
		out.Objectives = append(out.Objectives, encodeExpression(o))
	}
	return out
}

// MarshalJSON encodes the model's variables, constraints and branching constraints.
func (m *Model) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.toJSON(nil))
}

// UnmarshalJSON replaces the model's contents. Options are kept.
func (m *Model) UnmarshalJSON(data []byte) error {
	var jm jsonModel
	if err := json.Unmarshal(data, &jm); err != nil {
		return errors.Wrap(err, "ilp: malformed model")
	}
	decoded, _, err := fromJSON(jm, m.options)
	if err != nil {
		return err
	}
	*m = *decoded
	return nil
}

// WriteJSON writes the model together with the objectives it is to be solved for.
func (m *Model) WriteJSON(w io.Writer, objectives ...Expression) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(m.toJSON(objectives)), "ilp: encoding model")
}

// ReadJSON decodes a model written by WriteJSON, along with its objectives.
func ReadJSON(r io.Reader, opts ...Option) (*Model, []Expression, error) {
	var jm jsonModel
	if err := json.NewDecoder(r).Decode(&jm); err != nil {
		return nil, nil, errors.Wrap(err, "ilp: malformed model")
	}
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return fromJSON(jm, o)
}

func fromJSON(jm jsonModel, options Options) (*Model, []Expression, error) {
	ids := make([]int, 0, len(jm.Variables))
	for key := range jm.Variables {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, nil, errors.Errorf("ilp: invalid variable id %q", key)
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	m := &Model{
		names:   make(map[string]*DecisionVariable, len(ids)),
		options: options,
	}
	// the encoded ids are only labels; variables are renumbered in id order
	byID := make(map[string]Expression, len(ids))
	for _, id := range ids {
		key := strconv.Itoa(id)
		name := jm.Variables[key]
		if _, ok := m.names[name]; ok {
			return nil, nil, errors.Errorf("ilp: duplicate variable name %q", name)
		}
		byID[key] = m.AddVariable(name)
	}

	decode := func(je jsonExpression) (Expression, error) {
		e := Expression{}
		if je.Constant != "" {
			c, err := ParseFraction(je.Constant)
			if err != nil {
				return Expression{}, err
			}
			e = Constant(c)
		}
		for key, coef := range je.Terms {
			v, ok := byID[key]
			if !ok {
				return Expression{}, errors.Errorf("ilp: expression references unknown variable %q", key)
			}
			f, err := ParseFraction(coef)
			if err != nil {
				return Expression{}, err
			}
			e = e.Add(v.MulFraction(f))
		}
		return e, nil
	}

	for _, jc := range jm.Constraints {
		e, err := decode(jc.Expression)
		if err != nil {
			return nil, nil, err
		}
		cmp, err := parseComparison(jc.Comparison)
		if err != nil {
			return nil, nil, err
		}
		m.AddConstraint(NewConstraint(e, cmp))
	}

	for _, jb := range jm.BranchingConstraints {
		e, err := decode(jb.Expression)
		if err != nil {
			return nil, nil, err
		}
		switch jb.Type {
		case jsonInteger:
			m.AddIntegerConstraint(e)
		case jsonZeroIfLessThan:
			min, err := ParseFraction(jb.Min)
			if err != nil {
				return nil, nil, err
			}
			if min.Sign() <= 0 {
				return nil, nil, errors.Errorf("ilp: zero-if-lt threshold %s must be positive", min)
			}
			m.AddZeroIfLessThanConstraint(e, min)
		case jsonZeroIfGreaterThan:
			max, err := ParseFraction(jb.Max)
			if err != nil {
				return nil, nil, err
			}
			if max.Sign() >= 0 {
				return nil, nil, errors.Errorf("ilp: zero-if-gt threshold %s must be negative", max)
			}
			m.AddZeroIfMoreThanConstraint(e, max)
		default:
			return nil, nil, errors.Errorf("ilp: unknown branching constraint type %q", jb.Type)
		}
	}

	objectives := make([]Expression, 0, len(jm.Objectives))
	for _, jo := range jm.Objectives {
		e, err := decode(jo)
		if err != nil {
			return nil, nil, err
		}
		objectives = append(objectives, e)
	}
	return m, objectives, nil
}
