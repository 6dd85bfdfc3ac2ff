package instruction

import (
	"math"

	"github.com/jamplate/jamplate/internal/errs"
	"github.com/jamplate/jamplate/internal/memory"
	"github.com/jamplate/jamplate/internal/value"
)

// popOperands pops the right then the left operand of a binary
// instruction (right was pushed last) and evaluates both to text.
func popOperands(m *memory.Memory) (left, right string, err error) {
	r, err := m.Pop()
	if err != nil {
		return "", "", err
	}
	l, err := m.Pop()
	if err != nil {
		return "", "", err
	}
	rt, err := r.Evaluate(m)
	if err != nil {
		return "", "", err
	}
	lt, err := l.Evaluate(m)
	if err != nil {
		return "", "", err
	}
	return lt, rt, nil
}

func popNumericOperands(source errs.SourceRef, op string, m *memory.Memory) (left, right float64, err error) {
	lt, rt, err := popOperands(m)
	if err != nil {
		return 0, 0, err
	}
	lf, lok := value.ParseNumber(lt)
	rf, rok := value.ParseNumber(rt)
	if !lok || !rok {
		return 0, 0, errs.NewExec(source, "%s requires two numbers, got %q and %q", op, lt, rt)
	}
	return lf, rf, nil
}

// Sum pops right then left; when both parse as numbers they are
// added numerically, otherwise the two texts are concatenated. This
// is the one arithmetic opcode with a text fallback, since "+" is
// also how jamplate templates build up strings.
type Sum struct {
	source errs.SourceRef
}

func NewSum(source errs.SourceRef) *Sum { return &Sum{source: source} }

func (s *Sum) Exec(env Env, m *memory.Memory) error {
	lt, rt, err := popOperands(m)
	if err != nil {
		return err
	}
	lf, lok := value.ParseNumber(lt)
	rf, rok := value.ParseNumber(rt)
	if lok && rok {
		m.Push(value.NewNumber(lf + rf))
		return nil
	}
	m.Push(value.NewText(lt + rt))
	return nil
}

func (s *Sum) Source() errs.SourceRef { return s.source }

// Product requires both operands to parse as numbers.
type Product struct {
	source errs.SourceRef
}

func NewProduct(source errs.SourceRef) *Product { return &Product{source: source} }

func (p *Product) Exec(env Env, m *memory.Memory) error {
	l, r, err := popNumericOperands(p.source, "product", m)
	if err != nil {
		return err
	}
	m.Push(value.NewNumber(l * r))
	return nil
}

func (p *Product) Source() errs.SourceRef { return p.source }

// Sub subtracts right from left; both operands must be numbers.
type Sub struct {
	source errs.SourceRef
}

func NewSub(source errs.SourceRef) *Sub { return &Sub{source: source} }

func (s *Sub) Exec(env Env, m *memory.Memory) error {
	l, r, err := popNumericOperands(s.source, "subtraction", m)
	if err != nil {
		return err
	}
	m.Push(value.NewNumber(l - r))
	return nil
}

func (s *Sub) Source() errs.SourceRef { return s.source }

// Div divides left by right; both operands must be numbers and right
// must be non-zero.
type Div struct {
	source errs.SourceRef
}

func NewDiv(source errs.SourceRef) *Div { return &Div{source: source} }

func (d *Div) Exec(env Env, m *memory.Memory) error {
	l, r, err := popNumericOperands(d.source, "division", m)
	if err != nil {
		return err
	}
	if r == 0 {
		return errs.NewExec(d.source, "division by zero")
	}
	m.Push(value.NewNumber(l / r))
	return nil
}

func (d *Div) Source() errs.SourceRef { return d.source }

// Mod computes left modulo right; both operands must be numbers and
// right must be non-zero.
type Mod struct {
	source errs.SourceRef
}

func NewMod(source errs.SourceRef) *Mod { return &Mod{source: source} }

func (md *Mod) Exec(env Env, m *memory.Memory) error {
	l, r, err := popNumericOperands(md.source, "modulus", m)
	if err != nil {
		return err
	}
	if r == 0 {
		return errs.NewExec(md.source, "modulus by zero")
	}
	m.Push(value.NewNumber(math.Mod(l, r)))
	return nil
}

func (md *Mod) Source() errs.SourceRef { return md.source }

// Defined pops a value and pushes a 1/0 boolean text according to
// whether its text is truthy (not one of the falsy texts).
type Defined struct{}

func (Defined) Exec(env Env, m *memory.Memory) error {
	v, err := m.Pop()
	if err != nil {
		return err
	}
	text, err := v.Evaluate(m)
	if err != nil {
		return err
	}
	m.Push(boolValue(!value.IsFalsy(text)))
	return nil
}

// Negate is Defined's logical complement: pushes 1 when the popped
// value's text is falsy.
type Negate struct{}

func (Negate) Exec(env Env, m *memory.Memory) error {
	v, err := m.Pop()
	if err != nil {
		return err
	}
	text, err := v.Evaluate(m)
	if err != nil {
		return err
	}
	m.Push(boolValue(value.IsFalsy(text)))
	return nil
}
