package environment

import (
	"encoding/json"
	"fmt"

	"github.com/jamplate/jamplate/internal/document"
	"github.com/jamplate/jamplate/internal/errs"
	"github.com/jamplate/jamplate/internal/instruction"
	"github.com/jamplate/jamplate/internal/memory"
	"github.com/jamplate/jamplate/internal/value"
)

// node is the schema-explicit wire form spec.md §9 calls for:
// "Instructions serialize as {opcode, args, children}". Args carries
// every scalar/leaf field a given opcode needs; Children carries
// nested Instructions (including the one-or-two-operand cases like
// Branch or Repalloc, which ride along as named entries inside
// Children keyed by role rather than position).
type node struct {
	Opcode   string           `json:"opcode"`
	Args     map[string]any   `json:"args,omitempty"`
	Children map[string]*node `json:"children,omitempty"`
	Items    []*node          `json:"items,omitempty"`
}

// MarshalInstruction encodes root's full tree into the persisted wire
// form. PushConst/Alloc values must be compile-time literals (text or
// number) — the only kinds the compiler packages ever embed as a
// constant — so they are snapshotted by evaluating against an empty
// Memory, which has no heap entries to resolve.
func MarshalInstruction(root instruction.Instruction) ([]byte, error) {
	n, err := encode(root)
	if err != nil {
		return nil, err
	}
	return json.Marshal(n)
}

// UnmarshalInstruction decodes the wire form MarshalInstruction
// produces back into a live Instruction tree.
func UnmarshalInstruction(data []byte) (instruction.Instruction, error) {
	var n node
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return decode(&n)
}

func encodeValue(v value.Value) (map[string]any, error) {
	m := memory.New()
	text, err := v.Evaluate(m)
	if err != nil {
		return nil, fmt.Errorf("serialize constant value: %w", err)
	}
	return map[string]any{"kind": int(v.Kind()), "text": text}, nil
}

func decodeValue(raw map[string]any) (value.Value, error) {
	kindF, _ := raw["kind"].(float64)
	text, _ := raw["text"].(string)
	switch value.Kind(int(kindF)) {
	case value.KindNumber:
		f, ok := value.ParseNumber(text)
		if !ok {
			return nil, errs.InvalidInput("serialized number constant %q does not parse", text)
		}
		return value.NewNumber(f), nil
	default:
		return value.NewText(text), nil
	}
}

func encodeItems(items []instruction.Instruction) ([]*node, error) {
	out := make([]*node, 0, len(items))
	for _, it := range items {
		n, err := encode(it)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func decodeItems(items []*node) ([]instruction.Instruction, error) {
	out := make([]instruction.Instruction, 0, len(items))
	for _, n := range items {
		inner, err := decode(n)
		if err != nil {
			return nil, err
		}
		out = append(out, inner)
	}
	return out, nil
}

func encode(instr instruction.Instruction) (*node, error) {
	switch v := instr.(type) {
	case *instruction.Block:
		items, err := encodeItems(v.Items)
		if err != nil {
			return nil, err
		}
		return &node{Opcode: "block", Items: items}, nil
	case *instruction.PushConst:
		val, err := encodeValue(v.Value)
		if err != nil {
			return nil, err
		}
		return &node{Opcode: "push_const", Args: map[string]any{"value": val}}, nil
	case instruction.Pop:
		return &node{Opcode: "pop"}, nil
	case instruction.Dup:
		return &node{Opcode: "dup"}, nil
	case instruction.PushFrame:
		return &node{Opcode: "push_frame"}, nil
	case instruction.DumpFrame:
		return &node{Opcode: "dump_frame"}, nil
	case instruction.JoinFrame:
		return &node{Opcode: "join_frame"}, nil
	case instruction.GlueFrame:
		return &node{Opcode: "glue_frame"}, nil
	case instruction.Idle:
		return &node{Opcode: "idle"}, nil
	case *instruction.Access:
		return &node{Opcode: "access", Args: map[string]any{"addr": v.Addr, "from_stack": v.FromStack}}, nil
	case *instruction.Alloc:
		val, err := encodeValue(v.Value)
		if err != nil {
			return nil, err
		}
		return &node{Opcode: "alloc", Args: map[string]any{"addr": v.Addr, "value": val}}, nil
	case *instruction.Repalloc:
		instr, err := encode(v.Instr)
		if err != nil {
			return nil, err
		}
		return &node{Opcode: "repalloc", Args: map[string]any{"addr": v.Addr}, Children: map[string]*node{"instr": instr}}, nil
	case *instruction.FreeAddr:
		return &node{Opcode: "free_addr", Args: map[string]any{"addr": v.Addr}}, nil
	case *instruction.Repfree:
		return &node{Opcode: "repfree", Args: map[string]any{"addr": v.Addr}}, nil
	case *instruction.DefAddr:
		return &node{Opcode: "def_addr", Args: map[string]any{"addr": v.Addr}}, nil
	case *instruction.NdefAddr:
		return &node{Opcode: "ndef_addr", Args: map[string]any{"addr": v.Addr}}, nil
	case *instruction.Sum:
		return &node{Opcode: "sum"}, nil
	case *instruction.Product:
		return &node{Opcode: "product"}, nil
	case *instruction.Sub:
		return &node{Opcode: "sub"}, nil
	case *instruction.Div:
		return &node{Opcode: "div"}, nil
	case *instruction.Mod:
		return &node{Opcode: "mod"}, nil
	case instruction.Defined:
		return &node{Opcode: "defined"}, nil
	case instruction.Negate:
		return &node{Opcode: "negate"}, nil
	case *instruction.PushPair:
		key, err := encode(v.Key)
		if err != nil {
			return nil, err
		}
		val, err := encode(v.Val)
		if err != nil {
			return nil, err
		}
		return &node{Opcode: "push_pair", Children: map[string]*node{"key": key, "val": val}}, nil
	case *instruction.PushArray:
		items, err := encodeItems(v.Items)
		if err != nil {
			return nil, err
		}
		return &node{Opcode: "push_array", Items: items}, nil
	case *instruction.PushObject:
		items, err := encodeItems(v.Items)
		if err != nil {
			return nil, err
		}
		return &node{Opcode: "push_object", Items: items}, nil
	case *instruction.Branch:
		children := map[string]*node{}
		cond, err := encode(v.Cond)
		if err != nil {
			return nil, err
		}
		children["cond"] = cond
		then, err := encode(v.Then)
		if err != nil {
			return nil, err
		}
		children["then"] = then
		if v.Else != nil {
			els, err := encode(v.Else)
			if err != nil {
				return nil, err
			}
			children["else"] = els
		}
		return &node{Opcode: "branch", Children: children}, nil
	case *instruction.Iped:
		items, err := encodeItems(v.Items)
		if err != nil {
			return nil, err
		}
		return &node{Opcode: "iped", Items: items}, nil
	case *instruction.Fped:
		iterable, err := encode(v.Iterable)
		if err != nil {
			return nil, err
		}
		body, err := encode(v.Body)
		if err != nil {
			return nil, err
		}
		return &node{
			Opcode:   "fped",
			Args:     map[string]any{"addr": v.Addr},
			Children: map[string]*node{"iterable": iterable, "body": body},
		}, nil
	case *instruction.Import:
		nameInstr, err := encode(v.NameInstr)
		if err != nil {
			return nil, err
		}
		return &node{Opcode: "import", Children: map[string]*node{"name": nameInstr}}, nil
	case *instruction.PrintConst:
		return &node{Opcode: "print_const", Args: map[string]any{"text": v.Text}}, nil
	case instruction.Print:
		return &node{Opcode: "print"}, nil
	case *instruction.ConsoleExec:
		inner, err := encode(v.Instr)
		if err != nil {
			return nil, err
		}
		return &node{Opcode: "console_exec", Children: map[string]*node{"instr": inner}}, nil
	case *instruction.PrintExec:
		inner, err := encode(v.Instr)
		if err != nil {
			return nil, err
		}
		return &node{Opcode: "print_exec", Children: map[string]*node{"instr": inner}}, nil
	default:
		return nil, errs.InvalidInput("no serialization mapping for instruction type %T", instr)
	}
}

func childOf(n *node, role string) (*node, bool) {
	if n.Children == nil {
		return nil, false
	}
	c, ok := n.Children[role]
	return c, ok
}

func decode(n *node) (instruction.Instruction, error) {
	switch n.Opcode {
	case "block":
		items, err := decodeItems(n.Items)
		if err != nil {
			return nil, err
		}
		return instruction.NewBlock(errs.SourceRef{}, items...), nil
	case "push_const":
		raw, _ := n.Args["value"].(map[string]any)
		val, err := decodeValue(raw)
		if err != nil {
			return nil, err
		}
		return &instruction.PushConst{Value: val}, nil
	case "pop":
		return instruction.Pop{}, nil
	case "dup":
		return instruction.Dup{}, nil
	case "push_frame":
		return instruction.PushFrame{}, nil
	case "dump_frame":
		return instruction.DumpFrame{}, nil
	case "join_frame":
		return instruction.JoinFrame{}, nil
	case "glue_frame":
		return instruction.GlueFrame{}, nil
	case "idle":
		return instruction.Idle{}, nil
	case "access":
		addr, _ := n.Args["addr"].(string)
		fromStack, _ := n.Args["from_stack"].(bool)
		return &instruction.Access{Addr: addr, FromStack: fromStack}, nil
	case "alloc":
		addr, _ := n.Args["addr"].(string)
		raw, _ := n.Args["value"].(map[string]any)
		val, err := decodeValue(raw)
		if err != nil {
			return nil, err
		}
		return &instruction.Alloc{Addr: addr, Value: val}, nil
	case "repalloc":
		addr, _ := n.Args["addr"].(string)
		inner, ok := childOf(n, "instr")
		if !ok {
			return nil, errs.InvalidInput("repalloc node missing instr child")
		}
		instr, err := decode(inner)
		if err != nil {
			return nil, err
		}
		return &instruction.Repalloc{Addr: addr, Instr: instr}, nil
	case "free_addr":
		addr, _ := n.Args["addr"].(string)
		return &instruction.FreeAddr{Addr: addr}, nil
	case "repfree":
		addr, _ := n.Args["addr"].(string)
		return &instruction.Repfree{Addr: addr}, nil
	case "def_addr":
		addr, _ := n.Args["addr"].(string)
		return &instruction.DefAddr{Addr: addr}, nil
	case "ndef_addr":
		addr, _ := n.Args["addr"].(string)
		return &instruction.NdefAddr{Addr: addr}, nil
	case "sum":
		return instruction.NewSum(errs.SourceRef{}), nil
	case "product":
		return instruction.NewProduct(errs.SourceRef{}), nil
	case "sub":
		return instruction.NewSub(errs.SourceRef{}), nil
	case "div":
		return instruction.NewDiv(errs.SourceRef{}), nil
	case "mod":
		return instruction.NewMod(errs.SourceRef{}), nil
	case "defined":
		return instruction.Defined{}, nil
	case "negate":
		return instruction.Negate{}, nil
	case "push_pair":
		key, ok := childOf(n, "key")
		if !ok {
			return nil, errs.InvalidInput("push_pair node missing key child")
		}
		val, ok := childOf(n, "val")
		if !ok {
			return nil, errs.InvalidInput("push_pair node missing val child")
		}
		keyInstr, err := decode(key)
		if err != nil {
			return nil, err
		}
		valInstr, err := decode(val)
		if err != nil {
			return nil, err
		}
		return &instruction.PushPair{Key: keyInstr, Val: valInstr}, nil
	case "push_array":
		items, err := decodeItems(n.Items)
		if err != nil {
			return nil, err
		}
		return &instruction.PushArray{Items: items}, nil
	case "push_object":
		items, err := decodeItems(n.Items)
		if err != nil {
			return nil, err
		}
		return &instruction.PushObject{Items: items}, nil
	case "branch":
		cond, ok := childOf(n, "cond")
		if !ok {
			return nil, errs.InvalidInput("branch node missing cond child")
		}
		then, ok := childOf(n, "then")
		if !ok {
			return nil, errs.InvalidInput("branch node missing then child")
		}
		condInstr, err := decode(cond)
		if err != nil {
			return nil, err
		}
		thenInstr, err := decode(then)
		if err != nil {
			return nil, err
		}
		branch := &instruction.Branch{Cond: condInstr, Then: thenInstr}
		if els, ok := childOf(n, "else"); ok {
			elsInstr, err := decode(els)
			if err != nil {
				return nil, err
			}
			branch.Else = elsInstr
		}
		return branch, nil
	case "iped":
		items, err := decodeItems(n.Items)
		if err != nil {
			return nil, err
		}
		return &instruction.Iped{Items: items}, nil
	case "fped":
		addr, _ := n.Args["addr"].(string)
		iterable, ok := childOf(n, "iterable")
		if !ok {
			return nil, errs.InvalidInput("fped node missing iterable child")
		}
		body, ok := childOf(n, "body")
		if !ok {
			return nil, errs.InvalidInput("fped node missing body child")
		}
		iterableInstr, err := decode(iterable)
		if err != nil {
			return nil, err
		}
		bodyInstr, err := decode(body)
		if err != nil {
			return nil, err
		}
		return instruction.NewFped(errs.SourceRef{}, addr, iterableInstr, bodyInstr), nil
	case "import":
		nameInstr, ok := childOf(n, "name")
		if !ok {
			return nil, errs.InvalidInput("import node missing name child")
		}
		decoded, err := decode(nameInstr)
		if err != nil {
			return nil, err
		}
		return instruction.NewImport(errs.SourceRef{}, decoded), nil
	case "print_const":
		text, _ := n.Args["text"].(string)
		return &instruction.PrintConst{Text: text}, nil
	case "print":
		return instruction.Print{}, nil
	case "console_exec":
		inner, ok := childOf(n, "instr")
		if !ok {
			return nil, errs.InvalidInput("console_exec node missing instr child")
		}
		decoded, err := decode(inner)
		if err != nil {
			return nil, err
		}
		return &instruction.ConsoleExec{Instr: decoded}, nil
	case "print_exec":
		inner, ok := childOf(n, "instr")
		if !ok {
			return nil, errs.InvalidInput("print_exec node missing instr child")
		}
		decoded, err := decode(inner)
		if err != nil {
			return nil, err
		}
		return &instruction.PrintExec{Instr: decoded}, nil
	default:
		return nil, errs.InvalidInput("unknown serialized opcode %q", n.Opcode)
	}
}

// Snapshot is the persisted form of an Environment: document names
// mapped to their compilation UUID and serialized instruction tree,
// matching spec.md §6's "environment mappings by document name; for
// documents only the name; for instructions the full structure."
type Snapshot struct {
	Documents map[string]DocumentSnapshot `json:"documents"`
}

// DocumentSnapshot is one document's persisted compilation record.
type DocumentSnapshot struct {
	CompilationID string `json:"compilation_id"`
	Instruction   []byte `json:"instruction"`
}

// Snapshot captures every registered Compilation's compiled root.
// Trees are not part of the snapshot — spec.md §6 retains instruction
// structure but not "Tree back-links" — so a Restore'd Environment can
// Execute and Import but cannot re-run analysis or re-compile.
func (e *Environment) Snapshot() (*Snapshot, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := &Snapshot{Documents: map[string]DocumentSnapshot{}}
	for name, comp := range e.compilations {
		data, err := MarshalInstruction(comp.Root)
		if err != nil {
			return nil, fmt.Errorf("snapshot %q: %w", name, err)
		}
		out.Documents[name] = DocumentSnapshot{CompilationID: comp.ID, Instruction: data}
	}
	return out, nil
}

// Restore rebuilds compilations from a Snapshot. Every restored
// document becomes a deserialized shell (document.Shell) per spec.md
// §6: its name is known but content access fails, since a snapshot
// never carries source text.
func (e *Environment) Restore(snap *Snapshot) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for name, ds := range snap.Documents {
		root, err := UnmarshalInstruction(ds.Instruction)
		if err != nil {
			return fmt.Errorf("restore %q: %w", name, err)
		}
		e.compilations[name] = &Compilation{
			ID:       ds.CompilationID,
			Document: document.Shell(name),
			Root:     root,
		}
	}
	return nil
}
