// instruction.go - decoded instruction record

/*
InstructionRecord is the tagged sum over the six formats the decoder
produces. Go has no native sum type, so each format is its own struct
implementing the unexported isInstruction marker method - the same
"interface as closed sum" idiom assembler/ie32asm.go uses for its
token/operand variants, just applied one level up at the instruction
level.
*/

package main

// InstructionRecord is implemented by exactly RType, IType, SType,
// BType, UType and UJType.
type InstructionRecord interface {
	isInstruction()
}

// RType is the OP (0x33) format: register-register ALU operations.
type RType struct {
	Rd, Rs1, Rs2   uint32
	Funct3, Funct7 uint32
}

// IType covers OP_IMM (0x13), LOAD (0x03) and JALR (0x67): all three
// share the same field extraction, so Op carries the primary opcode
// that produced this record for the Hart to dispatch on.
type IType struct {
	Op      uint32
	Rd, Rs1 uint32
	Funct3  uint32
	Imm     int32
}

// SType is the STORE (0x23) format.
type SType struct {
	Rs1, Rs2 uint32
	Funct3   uint32
	Imm      int32
}

// BType is the BRANCH (0x63) format.
type BType struct {
	Rs1, Rs2 uint32
	Funct3   uint32
	Imm      int32
}

// UType covers LUI (0x37) and AUIPC (0x17); Op carries the primary
// opcode so the Hart can tell the two apart.
type UType struct {
	Op  uint32
	Rd  uint32
	Imm uint32
}

// UJType is the JAL (0x6F) format.
type UJType struct {
	Rd  uint32
	Imm int32
}

func (RType) isInstruction()  {}
func (IType) isInstruction()  {}
func (SType) isInstruction()  {}
func (BType) isInstruction()  {}
func (UType) isInstruction()  {}
func (UJType) isInstruction() {}
