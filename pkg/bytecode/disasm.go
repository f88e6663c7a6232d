package bytecode

import (
	"fmt"
	"strings"

	"github.com/chazu/lolcode/compiler"
)

// Disassemble returns a human-readable listing of the chunk.
func (c *Chunk) Disassemble(name string) string {
	var sb strings.Builder

	// Header
	if name != "" {
		sb.WriteString(fmt.Sprintf("; === %s ===\n", name))
	}
	sb.WriteString(fmt.Sprintf("; LOLCODE bytecode v%d, %d bytes\n\n", FormatVersion, len(c.Code)))

	// Constants
	if len(c.Constants) > 0 {
		sb.WriteString("; Constants:\n")
		for i, v := range c.Constants {
			display := v.Repr()
			if len(display) > 40 {
				display = display[:37] + "..."
			}
			sb.WriteString(fmt.Sprintf(";   [%3d] %-8s %s\n", i, v.Kind, display))
		}
		sb.WriteString("\n")
	}

	// Code section
	sb.WriteString("; Code:\n")
	offset := 0
	for offset < len(c.Code) {
		line, n, err := c.DisassembleInstruction(offset)
		if err != nil {
			sb.WriteString(fmt.Sprintf("%04X  ; %v\n", offset, err))
			break
		}
		sb.WriteString(fmt.Sprintf("%04X  %s\n", offset, line))
		offset += n
	}
	return sb.String()
}

// DisassembleInstruction formats the instruction at offset and returns it
// with its length in bytes.
func (c *Chunk) DisassembleInstruction(offset int) (string, int, error) {
	if offset < 0 || offset >= len(c.Code) {
		return "", 0, fmt.Errorf("offset %d outside code of %d bytes", offset, len(c.Code))
	}
	op, ok := LookupOpcode(c.Code[offset])
	if !ok {
		return "", 0, fmt.Errorf("invalid opcode 0x%02X at offset %d", c.Code[offset], offset)
	}
	n := op.InstructionLen()
	if offset+n > len(c.Code) {
		return "", 0, fmt.Errorf("truncated %s at offset %d", op, offset)
	}

	var arg int
	switch op.OperandLen() {
	case 0:
		return op.String(), n, nil
	case 1:
		arg = int(c.Code[offset+1])
	case 3:
		arg = c.ReadU24(offset + 1)
	}

	switch op {
	case OpLoadConst, OpLoadConstLong, OpInterp, OpInterpLong:
		note := "?"
		if arg < len(c.Constants) {
			note = c.Constants[arg].Repr()
		}
		return fmt.Sprintf("%s %d ; %s", op, arg, note), n, nil

	case OpJump, OpJumpIfFalse:
		target := c.ReadJump(offset + 1)
		return fmt.Sprintf("%s -> %04X", op, target), n, nil

	case OpCast:
		return fmt.Sprintf("%s %d ; %s", op, arg, compiler.ValueType(arg)), n, nil

	case OpPrint:
		if arg == 0 {
			return fmt.Sprintf("%s %d ; no newline", op, arg), n, nil
		}
		return fmt.Sprintf("%s %d", op, arg), n, nil

	default:
		return fmt.Sprintf("%s %d", op, arg), n, nil
	}
}
