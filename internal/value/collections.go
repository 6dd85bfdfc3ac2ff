package value

import "strconv"

// arrayValue is a KindArray value: a fixed sequence of element
// Values. Stringifying renders a JSON array of the elements'
// stringified forms (spec.md §3.6 only pins down Object's canonical
// form by example; Array follows the same convention).
type arrayValue struct {
	base
	elements []Value
}

// NewArray builds a KindArray value from elements, in order.
func NewArray(elements []Value) Value {
	a := &arrayValue{elements: elements}
	a.base = base{kind: KindArray, seed: a.stringify}
	return a
}

func (a *arrayValue) stringify(env Env) (string, error) {
	var b []byte
	b = append(b, '[')
	for i, el := range a.elements {
		if i > 0 {
			b = append(b, ',')
		}
		text, err := el.Evaluate(env)
		if err != nil {
			return "", err
		}
		b = strconv.AppendQuote(b, text)
	}
	b = append(b, ']')
	return string(b), nil
}

func (a *arrayValue) Elements(Env) ([]Value, error) {
	return a.elements, nil
}

// objectValue is a KindObject value: an ordered sequence of key/value
// pairs. Stringifying renders canonical JSON with string-valued
// fields, per spec.md §8 scenario 5.
type objectValue struct {
	base
	pairs []KV
}

// NewObject builds a KindObject value from its key/value pairs, in
// insertion order.
func NewObject(pairs []KV) Value {
	o := &objectValue{pairs: pairs}
	o.base = base{kind: KindObject, seed: o.stringify}
	return o
}

func (o *objectValue) stringify(env Env) (string, error) {
	var b []byte
	b = append(b, '{')
	for i, kv := range o.pairs {
		if i > 0 {
			b = append(b, ',')
		}
		key, err := kv.Key.Evaluate(env)
		if err != nil {
			return "", err
		}
		val, err := kv.Val.Evaluate(env)
		if err != nil {
			return "", err
		}
		b = strconv.AppendQuote(b, key)
		b = append(b, ':')
		b = strconv.AppendQuote(b, val)
	}
	b = append(b, '}')
	return string(b), nil
}

func (o *objectValue) Pairs(Env) ([]KV, error) {
	return o.pairs, nil
}

// pairValue is a KindPair value: a single key/value association, the
// building block objects are assembled from.
type pairValue struct {
	base
	key Value
	val Value
}

// NewPair builds a KindPair value.
func NewPair(key, val Value) Value {
	p := &pairValue{key: key, val: val}
	p.base = base{kind: KindPair, seed: p.stringify}
	return p
}

func (p *pairValue) stringify(env Env) (string, error) {
	k, err := p.key.Evaluate(env)
	if err != nil {
		return "", err
	}
	v, err := p.val.Evaluate(env)
	if err != nil {
		return "", err
	}
	return k + ":" + v, nil
}

func (p *pairValue) Parts(Env) (Value, Value, error) {
	return p.key, p.val, nil
}
