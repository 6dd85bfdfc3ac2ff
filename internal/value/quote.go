package value

// quoteValue is a KindQuote value: it defers evaluation of an inner
// Value. Evaluating a quote directly forces it (same text as the
// wrapped value would produce); Quoter.Quoted hands back the wrapped
// value itself, unforced. No instruction in the instruction set
// creates or unwraps quotes.
type quoteValue struct {
	base
	inner Value
}

// NewQuote wraps inner so it can be passed around without forcing
// evaluation.
func NewQuote(inner Value) Value {
	q := &quoteValue{inner: inner}
	q.base = base{kind: KindQuote, seed: func(env Env) (string, error) { return inner.Evaluate(env) }}
	return q
}

func (q *quoteValue) Quoted() Value {
	return q.inner
}
