// errors.go - error taxonomy for the rv32emu core

package main

import "errors"

// Sentinel errors for this module's fault/fail conditions. Hart.Step
// wraps these with diagnostic detail (the faulting pc, opcode, etc.) via
// fmt.Errorf's %w verb, so callers can still recover the sentinel with
// errors.Is.
var (
	// ErrFetchFault is returned when bus.LoadWord(pc) is unmapped.
	ErrFetchFault = errors.New("fetch fault")

	// ErrIllegalOpcode is returned when the primary opcode has no
	// decoder table entry.
	ErrIllegalOpcode = errors.New("illegal opcode")

	// ErrIllegalInstruction is returned when a decoded instruction's
	// funct3/funct7 fields select an operation this Hart does not
	// implement.
	ErrIllegalInstruction = errors.New("illegal instruction")

	// ErrAssemblerSyntax names the assembler-syntax fault class (a source
	// line matches no known pattern, or a label is undefined). The
	// assembler package does not return or wrap it: it cannot import this
	// package and reports such lines as its own *assembler.SyntaxError.
	ErrAssemblerSyntax = errors.New("assembler syntax error")

	// ErrFormatSpec is returned when CacheStats is asked to render with
	// an unsupported format specifier.
	ErrFormatSpec = errors.New("unsupported format specifier")
)
