package memory

import (
	"encoding/json"

	"github.com/jamplate/jamplate/internal/value"
)

// DefineAddress is the reserved heap key holding a JSON mirror of
// every user-defined symbol (spec.md §3.7, §4.5 "DEFINE double-write").
const DefineAddress = "DEFINE"

// HeapGet reads addr from the heap. Memory satisfies value.Env
// through this method, so a lazy Value's Pipe or seed can look up
// heap state without this package depending on value for anything
// beyond the Value type itself.
func (m *Memory) HeapGet(addr string) (value.Value, bool) {
	v, ok := m.heap[addr]
	return v, ok
}

// HeapSet writes v to addr, replacing any previous value.
func (m *Memory) HeapSet(addr string, v value.Value) {
	m.heap[addr] = v
}

// HeapCompute performs an atomic read-modify-write against addr's
// current value (or the zero value if addr is unset), storing and
// returning the result of fn.
func (m *Memory) HeapCompute(addr string, fn func(current value.Value, exists bool) value.Value) value.Value {
	current, exists := m.heap[addr]
	next := fn(current, exists)
	m.heap[addr] = next
	return next
}

// HeapFree removes addr from the heap.
func (m *Memory) HeapFree(addr string) {
	delete(m.heap, addr)
}

// defineMap reads and parses the DEFINE mirror, falling back to an
// empty object on a parse error exactly as spec.md §4.5 requires.
func (m *Memory) defineMap() (map[string]string, error) {
	v, ok := m.heap[DefineAddress]
	if !ok {
		return map[string]string{}, nil
	}
	text, err := v.Evaluate(m)
	if err != nil {
		return nil, err
	}
	out := map[string]string{}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return map[string]string{}, nil
	}
	return out, nil
}

func (m *Memory) storeDefineMap(mp map[string]string) error {
	encoded, err := json.Marshal(mp)
	if err != nil {
		return err
	}
	m.heap[DefineAddress] = value.NewText(string(encoded))
	return nil
}

// DefineSet records name=text in the DEFINE mirror. Callers
// performing a mirrored alloc (RepllocAddrExecInstr) must call this
// alongside HeapSet so DefAddr stays consistent with the heap's
// address map.
func (m *Memory) DefineSet(name, text string) error {
	mp, err := m.defineMap()
	if err != nil {
		return err
	}
	mp[name] = text
	return m.storeDefineMap(mp)
}

// DefineUnset removes name from the DEFINE mirror. Callers performing
// a mirrored free (FreeAddr) must call this alongside HeapFree.
func (m *Memory) DefineUnset(name string) error {
	mp, err := m.defineMap()
	if err != nil {
		return err
	}
	delete(mp, name)
	return m.storeDefineMap(mp)
}

// DefineHas reports whether name is currently present in the DEFINE
// mirror — the membership test DefAddr/NdefAddr consult.
func (m *Memory) DefineHas(name string) (bool, error) {
	mp, err := m.defineMap()
	if err != nil {
		return false, err
	}
	_, ok := mp[name]
	return ok, nil
}
