// Package value implements the lazy, memory-parameterized value
// model of spec.md §3.6: tagged payloads (number, text, array,
// object, pair, quote) composed by pipe-chaining, with every value
// ultimately stringifiable.
//
// The Java source lets Value<T> and Memory hold live references to
// each other. Go has no room for that cycle here: Env is the narrow
// interface a Pipe needs from the runtime (heap lookups), and the
// concrete *memory.Memory satisfies it structurally — this package
// never imports memory.
package value

import (
	"math"
	"strconv"
	"strings"
)

// Kind tags a Value's payload shape.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindArray
	KindObject
	KindPair
	KindQuote
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindPair:
		return "pair"
	case KindQuote:
		return "quote"
	default:
		return "unknown"
	}
}

// Env is the subset of Memory a Pipe or a lazy seed may consult while
// evaluating — currently just heap reads, since that is the only
// runtime state a Value (as opposed to an Instruction) is allowed to
// observe.
type Env interface {
	HeapGet(addr string) (Value, bool)
}

// Pipe is a function from (Env, previous text) to next text — the
// composition primitive of spec.md §3.6.
type Pipe func(env Env, prev string) (string, error)

// Value is a lazy, memory-parameterized computation that ultimately
// stringifies. Collection kinds additionally implement Arrayer,
// Objecter, Pairer or Quoter for their structural payload.
type Value interface {
	Kind() Kind
	Evaluate(env Env) (string, error)
	Apply(pipe Pipe) Value
}

// Arrayer is implemented by KindArray values.
type Arrayer interface {
	Elements(env Env) ([]Value, error)
}

// KV is one key/value entry of an object, in the object's insertion
// order.
type KV struct {
	Key Value
	Val Value
}

// Objecter is implemented by KindObject values.
type Objecter interface {
	Pairs(env Env) ([]KV, error)
}

// Pairer is implemented by KindPair values.
type Pairer interface {
	Parts(env Env) (Value, Value, error)
}

// Quoter is implemented by KindQuote values: a quote defers
// evaluation of its wrapped value until something explicitly forces
// it via Quoted().Evaluate.
type Quoter interface {
	Quoted() Value
}

// base is the shared implementation backing every concrete Value:
// a lazily-computed seed text, optionally post-processed by a
// composed Pipe chain.
type base struct {
	kind Kind
	seed func(env Env) (string, error)
	pipe Pipe
}

func (b *base) Kind() Kind { return b.kind }

func (b *base) Evaluate(env Env) (string, error) {
	prev, err := b.seed(env)
	if err != nil {
		return "", err
	}
	if b.pipe == nil {
		return prev, nil
	}
	return b.pipe(env, prev)
}

// Apply returns a derived value whose pipe is old-pipe ∘ new-pipe: the
// new value's seed re-runs the receiver's full evaluation, and feeds
// its result into pipe as "prev".
func (b *base) Apply(pipe Pipe) Value {
	captured := b
	return &base{kind: b.kind, seed: captured.Evaluate, pipe: pipe}
}

// NewText builds a constant KindText value.
func NewText(s string) Value {
	return &base{kind: KindText, seed: func(Env) (string, error) { return s, nil }}
}

// NewTextFunc builds a KindText value whose text is computed lazily
// against Env — used by the heap-access instruction and by directive
// substitution, where the text is not known until evaluation time.
func NewTextFunc(seed func(env Env) (string, error)) Value {
	return &base{kind: KindText, seed: seed}
}

// NewNumber builds a constant KindNumber value, stringified per the
// integer/decimal rule of spec.md §3.6.
func NewNumber(f float64) Value {
	return &base{kind: KindNumber, seed: func(Env) (string, error) { return FormatNumber(f), nil }}
}

// NewNumberFunc builds a KindNumber value computed lazily from a
// float producer.
func NewNumberFunc(seed func(env Env) (float64, error)) Value {
	return &base{kind: KindNumber, seed: func(env Env) (string, error) {
		f, err := seed(env)
		if err != nil {
			return "", err
		}
		return FormatNumber(f), nil
	}}
}

// FormatNumber stringifies a float per spec.md §3.6/§9: integral
// values (within the exact-integer range of float64) render without
// a decimal point; everything else renders as a minimal decimal,
// never in exponential notation.
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < (1<<53) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseNumber parses s as a float, trimming surrounding whitespace.
// ok is false if s is not a valid number.
func ParseNumber(s string) (f float64, ok bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

// IsFalsy reports whether s is one of the "falsy" texts Branch
// compares against (spec.md §4.5): empty, "0", or "false".
func IsFalsy(s string) bool {
	switch s {
	case "", "0", "false":
		return true
	default:
		return false
	}
}
