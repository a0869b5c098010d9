// asm.go - textual assembler for the instruction subset exercised by tests

/*
This package mirrors ie32asm.go's shape: a two-pass assembler (labels
collected on pass one, code emitted on pass two) built on manual
strings.Fields/strings.Split tokenizing rather than a regexp engine. It
covers exactly the mnemonics the end-to-end scenarios this module is
tested against need - add, sub, addi, lw, sw, beq, bne, blt, bge, bltu,
bgeu, jalr, lui, auipc, jal - not a full RISC-V assembler.

Register names are x0..x31; immediates are decimal (optionally
negative) or 0x-prefixed hex. Labels are resolved to pc-relative
offsets for the branch mnemonics and jal, and to absolute word
addresses otherwise (including jalr).
*/

package assembler

import (
	"fmt"
	"strconv"
	"strings"
)

// SyntaxError reports the source line that failed to assemble.
type SyntaxError struct {
	Line int
	Text string
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, e.Text, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

const wordSize = 4

// Assemble lowers source into a little-endian stream of 32-bit words
// starting at base, one instruction per source line (after stripping
// comments, blank lines and label definitions).
func Assemble(source string, base uint32) ([]uint32, error) {
	lines := splitLines(source)

	labels, instrLines, err := firstPass(lines, base)
	if err != nil {
		return nil, err
	}

	return secondPass(instrLines, labels, base)
}

type sourceLine struct {
	lineNo int
	text   string
}

func splitLines(source string) []sourceLine {
	var out []sourceLine
	for i, raw := range strings.Split(source, "\n") {
		line := raw
		if idx := strings.Index(line, ";"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, sourceLine{lineNo: i + 1, text: line})
	}
	return out
}

// firstPass records each label's word address and returns the
// non-label lines in program order.
func firstPass(lines []sourceLine, base uint32) (map[string]uint32, []sourceLine, error) {
	labels := make(map[string]uint32)
	var instrLines []sourceLine

	addr := base
	for _, l := range lines {
		if strings.HasSuffix(l.text, ":") {
			name := strings.TrimSuffix(l.text, ":")
			labels[name] = addr
			continue
		}
		instrLines = append(instrLines, l)
		addr += wordSize
	}
	return labels, instrLines, nil
}

func secondPass(lines []sourceLine, labels map[string]uint32, base uint32) ([]uint32, error) {
	words := make([]uint32, 0, len(lines))
	addr := base
	for _, l := range lines {
		word, err := assembleLine(l.text, addr, labels)
		if err != nil {
			return nil, &SyntaxError{Line: l.lineNo, Text: l.text, Err: err}
		}
		words = append(words, word)
		addr += wordSize
	}
	return words, nil
}

func assembleLine(text string, pc uint32, labels map[string]uint32) (uint32, error) {
	text = strings.ReplaceAll(text, ",", " ")
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty instruction")
	}
	mnemonic := strings.ToLower(fields[0])
	args := fields[1:]

	switch mnemonic {
	case "add":
		return assembleR(args, 0x33, 0, 0x00)
	case "sub":
		return assembleR(args, 0x33, 0, 0x20)
	case "addi":
		return assembleI(args, 0x13, 0, labels, pc)
	case "lw":
		return assembleLoad(args, labels, pc)
	case "sw":
		return assembleStore(args, labels, pc)
	case "beq":
		return assembleBranch(args, 0, labels, pc)
	case "bne":
		return assembleBranch(args, 1, labels, pc)
	case "blt":
		return assembleBranch(args, 4, labels, pc)
	case "bge":
		return assembleBranch(args, 5, labels, pc)
	case "bltu":
		return assembleBranch(args, 6, labels, pc)
	case "bgeu":
		return assembleBranch(args, 7, labels, pc)
	case "jalr":
		return assembleJalr(args, labels, pc)
	case "lui":
		return assembleU(args, 0x37, labels, pc)
	case "auipc":
		return assembleU(args, 0x17, labels, pc)
	case "jal":
		return assembleJal(args, labels, pc)
	default:
		return 0, fmt.Errorf("unknown mnemonic %q", mnemonic)
	}
}

func reg(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || (s[0] != 'x' && s[0] != 'X') {
		return 0, fmt.Errorf("invalid register %q", s)
	}
	n, err := strconv.ParseUint(s[1:], 10, 8)
	if err != nil || n > 31 {
		return 0, fmt.Errorf("invalid register %q", s)
	}
	return uint32(n), nil
}

// resolveImm parses a decimal/hex literal or, failing that, looks the
// token up as a label, returning pc-relative or absolute value per
// relative.
func resolveImm(tok string, labels map[string]uint32, pc uint32, relative bool) (int32, error) {
	tok = strings.TrimSpace(tok)
	if v, err := strconv.ParseInt(tok, 0, 64); err == nil {
		return int32(v), nil
	}
	if addr, ok := labels[tok]; ok {
		if relative {
			return int32(addr) - int32(pc), nil
		}
		return int32(addr), nil
	}
	return 0, fmt.Errorf("undefined label or malformed immediate %q", tok)
}

// parseOffsetMem parses the "imm(rs1)" syntax used by lw/sw.
func parseOffsetMem(s string, labels map[string]uint32, pc uint32) (imm int32, rs1 uint32, err error) {
	open := strings.IndexByte(s, '(')
	close := strings.IndexByte(s, ')')
	if open < 0 || close < 0 || close < open {
		return 0, 0, fmt.Errorf("expected imm(rs1), got %q", s)
	}
	imm, err = resolveImm(s[:open], labels, pc, false)
	if err != nil {
		return 0, 0, err
	}
	rs1, err = reg(s[open+1 : close])
	if err != nil {
		return 0, 0, err
	}
	return imm, rs1, nil
}

func assembleR(args []string, opcode, funct3, funct7 uint32) (uint32, error) {
	if len(args) != 3 {
		return 0, fmt.Errorf("expected rd, rs1, rs2")
	}
	rd, err := reg(args[0])
	if err != nil {
		return 0, err
	}
	rs1, err := reg(args[1])
	if err != nil {
		return 0, err
	}
	rs2, err := reg(args[2])
	if err != nil {
		return 0, err
	}
	return opcode | rd<<7 | funct3<<12 | rs1<<15 | rs2<<20 | funct7<<25, nil
}

func assembleI(args []string, opcode, funct3 uint32, labels map[string]uint32, pc uint32) (uint32, error) {
	if len(args) != 3 {
		return 0, fmt.Errorf("expected rd, rs1, imm")
	}
	rd, err := reg(args[0])
	if err != nil {
		return 0, err
	}
	rs1, err := reg(args[1])
	if err != nil {
		return 0, err
	}
	imm, err := resolveImm(args[2], labels, pc, false)
	if err != nil {
		return 0, err
	}
	return opcode | rd<<7 | funct3<<12 | rs1<<15 | (uint32(imm)&0xFFF)<<20, nil
}

func assembleLoad(args []string, labels map[string]uint32, pc uint32) (uint32, error) {
	if len(args) != 2 {
		return 0, fmt.Errorf("expected rd, imm(rs1)")
	}
	rd, err := reg(args[0])
	if err != nil {
		return 0, err
	}
	imm, rs1, err := parseOffsetMem(args[1], labels, pc)
	if err != nil {
		return 0, err
	}
	const funct3 = 2 // word load
	return 0x03 | rd<<7 | funct3<<12 | rs1<<15 | (uint32(imm)&0xFFF)<<20, nil
}

func assembleStore(args []string, labels map[string]uint32, pc uint32) (uint32, error) {
	if len(args) != 2 {
		return 0, fmt.Errorf("expected rs2, imm(rs1)")
	}
	rs2, err := reg(args[0])
	if err != nil {
		return 0, err
	}
	imm, rs1, err := parseOffsetMem(args[1], labels, pc)
	if err != nil {
		return 0, err
	}
	const funct3 = 2 // word store
	uimm := uint32(imm) & 0xFFF
	imm11_5 := uimm >> 5
	imm4_0 := uimm & 0x1F
	return 0x23 | imm4_0<<7 | funct3<<12 | rs1<<15 | rs2<<20 | imm11_5<<25, nil
}

func assembleBranch(args []string, funct3 uint32, labels map[string]uint32, pc uint32) (uint32, error) {
	if len(args) != 3 {
		return 0, fmt.Errorf("expected rs1, rs2, target")
	}
	rs1, err := reg(args[0])
	if err != nil {
		return 0, err
	}
	rs2, err := reg(args[1])
	if err != nil {
		return 0, err
	}
	imm, err := resolveImm(args[2], labels, pc, true)
	if err != nil {
		return 0, err
	}
	uimm := uint32(imm)
	bit12 := (uimm >> 12) & 1
	bit11 := (uimm >> 11) & 1
	bits10_5 := (uimm >> 5) & 0x3F
	bits4_1 := (uimm >> 1) & 0xF
	return 0x63 | bit11<<7 | bits4_1<<8 | funct3<<12 | rs1<<15 | rs2<<20 | bits10_5<<25 | bit12<<31, nil
}

func assembleJalr(args []string, labels map[string]uint32, pc uint32) (uint32, error) {
	if len(args) != 3 {
		return 0, fmt.Errorf("expected rd, rs1, imm")
	}
	rd, err := reg(args[0])
	if err != nil {
		return 0, err
	}
	rs1, err := reg(args[1])
	if err != nil {
		return 0, err
	}
	imm, err := resolveImm(args[2], labels, pc, false)
	if err != nil {
		return 0, err
	}
	const funct3 = 0
	return 0x67 | rd<<7 | funct3<<12 | rs1<<15 | (uint32(imm)&0xFFF)<<20, nil
}

func assembleU(args []string, opcode uint32, labels map[string]uint32, pc uint32) (uint32, error) {
	if len(args) != 2 {
		return 0, fmt.Errorf("expected rd, imm")
	}
	rd, err := reg(args[0])
	if err != nil {
		return 0, err
	}
	imm, err := resolveImm(args[1], labels, pc, false)
	if err != nil {
		return 0, err
	}
	return opcode | rd<<7 | (uint32(imm) & 0xFFFFF000), nil
}

func assembleJal(args []string, labels map[string]uint32, pc uint32) (uint32, error) {
	if len(args) != 2 {
		return 0, fmt.Errorf("expected rd, target")
	}
	rd, err := reg(args[0])
	if err != nil {
		return 0, err
	}
	imm, err := resolveImm(args[1], labels, pc, true)
	if err != nil {
		return 0, err
	}
	uimm := uint32(imm)
	bit20 := (uimm >> 20) & 1
	bits10_1 := (uimm >> 1) & 0x3FF
	bit11 := (uimm >> 11) & 1
	bits19_12 := (uimm >> 12) & 0xFF
	return 0x6F | rd<<7 | bits19_12<<12 | bit11<<20 | bits10_1<<21 | bit20<<31, nil
}
