package instruction

import "github.com/jamplate/jamplate/internal/memory"

// PrintConst writes Text straight to the console with no stack
// traffic at all — the opcode for a literal gap of source text lying
// between two sketched nodes (spec.md's "mirror a constant character
// range" ReprintConstCompiler output).
type PrintConst struct {
	Text string
}

func (p *PrintConst) Exec(env Env, m *memory.Memory) error {
	m.Print(p.Text)
	return nil
}

// Print pops the top value, evaluates it, and writes it straight to
// the console.
type Print struct{}

func (Print) Exec(env Env, m *memory.Memory) error {
	v, err := m.Pop()
	if err != nil {
		return err
	}
	text, err := v.Evaluate(m)
	if err != nil {
		return err
	}
	m.Print(text)
	return nil
}

// ConsoleExec (spec.md's ConsoleExecInstr) runs Instr inside its own
// frame, joins the frame into one text value, and prints it. Used to
// wrap a block of leaf instructions that together produce one piece
// of output, such as a directive body.
type ConsoleExec struct {
	Instr Instruction
}

func (c *ConsoleExec) Exec(env Env, m *memory.Memory) error {
	m.PushFrame()
	if err := c.Instr.Exec(env, m); err != nil {
		return err
	}
	joined, err := m.JoinFrame()
	if err != nil {
		return err
	}
	if _, err := m.Pop(); err != nil {
		return err
	}
	text, err := joined.Evaluate(m)
	if err != nil {
		return err
	}
	m.Print(text)
	return nil
}

// PrintExec (spec.md's PrintExecInstr) runs Instr directly against the
// current frame and prints whatever it leaves on top of the stack, with
// no frame join. Used where Instr is already known to push exactly
// one value (e.g. a single expression result).
type PrintExec struct {
	Instr Instruction
}

func (p *PrintExec) Exec(env Env, m *memory.Memory) error {
	if err := p.Instr.Exec(env, m); err != nil {
		return err
	}
	v, err := m.Pop()
	if err != nil {
		return err
	}
	text, err := v.Evaluate(m)
	if err != nil {
		return err
	}
	m.Print(text)
	return nil
}
