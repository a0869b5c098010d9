// decoder.go - 128-entry opcode-indexed decode table

/*
decode uses a fixed array of function pointers, one per opcode byte:
decoderTable is a [128]func, built once at init time, indexed directly by
the primary opcode with no branching on the hot path. Opcodes with no
table entry fail fetch with ErrIllegalOpcode.
*/

package main

import "fmt"

const (
	opOP     = 0x33
	opOPIMM  = 0x13
	opLOAD   = 0x03
	opJALR   = 0x67
	opSTORE  = 0x23
	opBRANCH = 0x63
	opLUI    = 0x37
	opAUIPC  = 0x17
	opJAL    = 0x6F
)

type decodeFunc func(word, opcode uint32) InstructionRecord

var decoderTable [128]decodeFunc

func init() {
	decoderTable[opOP] = decodeR
	decoderTable[opOPIMM] = decodeI
	decoderTable[opLOAD] = decodeI
	decoderTable[opJALR] = decodeI
	decoderTable[opSTORE] = decodeS
	decoderTable[opBRANCH] = decodeB
	decoderTable[opLUI] = decodeU
	decoderTable[opAUIPC] = decodeU
	decoderTable[opJAL] = decodeUJ
}

// decode dispatches word's primary opcode through decoderTable,
// returning ErrIllegalOpcode if no entry is registered.
func decode(word uint32) (InstructionRecord, error) {
	opcode := word & 0x7F
	fn := decoderTable[opcode]
	if fn == nil {
		return nil, fmt.Errorf("%w: 0x%02x", ErrIllegalOpcode, opcode)
	}
	return fn(word, opcode), nil
}

func fieldRd(word uint32) uint32     { return (word >> 7) & 0x1F }
func fieldRs1(word uint32) uint32    { return (word >> 15) & 0x1F }
func fieldRs2(word uint32) uint32    { return (word >> 20) & 0x1F }
func fieldFunct3(word uint32) uint32 { return (word >> 12) & 0x7 }
func fieldFunct7(word uint32) uint32 { return (word >> 25) & 0x7F }

// signExtend sign-extends the low bits-wide value v into an int32.
func signExtend(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

func decodeR(word, _ uint32) InstructionRecord {
	return RType{
		Rd:     fieldRd(word),
		Rs1:    fieldRs1(word),
		Rs2:    fieldRs2(word),
		Funct3: fieldFunct3(word),
		Funct7: fieldFunct7(word),
	}
}

func decodeI(word, opcode uint32) InstructionRecord {
	imm := word >> 20
	return IType{
		Op:     opcode,
		Rd:     fieldRd(word),
		Rs1:    fieldRs1(word),
		Funct3: fieldFunct3(word),
		Imm:    signExtend(imm, 12),
	}
}

func decodeS(word, _ uint32) InstructionRecord {
	imm := (fieldFunct7(word) << 5) | fieldRd(word)
	return SType{
		Rs1:    fieldRs1(word),
		Rs2:    fieldRs2(word),
		Funct3: fieldFunct3(word),
		Imm:    signExtend(imm, 12),
	}
}

func decodeB(word, _ uint32) InstructionRecord {
	bit31 := (word >> 31) & 1
	bit7 := (word >> 7) & 1
	bits30_25 := (word >> 25) & 0x3F
	bits11_8 := (word >> 8) & 0xF

	imm := (bit31 << 12) | (bit7 << 11) | (bits30_25 << 5) | (bits11_8 << 1)
	return BType{
		Rs1:    fieldRs1(word),
		Rs2:    fieldRs2(word),
		Funct3: fieldFunct3(word),
		Imm:    signExtend(imm, 13),
	}
}

func decodeU(word, opcode uint32) InstructionRecord {
	return UType{
		Op:  opcode,
		Rd:  fieldRd(word),
		Imm: word & 0xFFFFF000,
	}
}

func decodeUJ(word, _ uint32) InstructionRecord {
	bit31 := (word >> 31) & 1
	bits19_12 := (word >> 12) & 0xFF
	bit20 := (word >> 20) & 1
	bits30_21 := (word >> 21) & 0x3FF

	imm := (bit31 << 20) | (bits19_12 << 12) | (bit20 << 11) | (bits30_21 << 1)
	return UJType{
		Rd:  fieldRd(word),
		Imm: signExtend(imm, 21),
	}
}
