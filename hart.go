// hart.go - fetch/decode/execute loop

/*
Hart is the single-threaded execution core: 32 integer registers (x0
hardwired to zero), a program counter, and a BusPort used for both
instruction fetch and data access. Step decodes exactly one
instruction and reports a terminal error (FetchFault, IllegalOpcode,
IllegalInstruction) rather than trying to recover, matching
cpu_ie32.go's Step/Execute split - just without that CPU's interrupt
and timer machinery, which has no equivalent here.
*/

package main

import (
	"fmt"

	"github.com/golang/glog"
)

// Hart is the fetch/decode/execute core.
type Hart struct {
	regs [32]uint32
	pc   uint32
	bus  BusPort
}

// NewHart constructs a Hart whose fetches and data accesses go through
// bus, starting execution at pc.
func NewHart(bus BusPort, pc uint32) *Hart {
	return &Hart{bus: bus, pc: pc}
}

// PC returns the current program counter.
func (h *Hart) PC() uint32 { return h.pc }

// Reg returns register r (0..31); x0 always reads 0.
func (h *Hart) Reg(r uint32) uint32 {
	if r == 0 {
		return 0
	}
	return h.regs[r]
}

func (h *Hart) setReg(r uint32, v uint32) {
	if r == 0 {
		return
	}
	h.regs[r] = v
}

// Step fetches, decodes and executes exactly one instruction.
func (h *Hart) Step() error {
	word, ok := h.bus.LoadWord(h.pc)
	if !ok {
		err := fmt.Errorf("%w: pc=0x%08x", ErrFetchFault, h.pc)
		glog.Errorf("hart: %v", err)
		return err
	}

	inst, err := decode(word)
	if err != nil {
		err = fmt.Errorf("step at pc=0x%08x: %w", h.pc, err)
		glog.Errorf("hart: %v", err)
		return err
	}

	if err := h.execute(inst); err != nil {
		glog.Errorf("hart: %v", err)
		return err
	}
	return nil
}

// Run steps the Hart until Step returns an error, which it returns to
// the caller, or until maxSteps steps have run, in which case it returns
// nil. A program intended to halt cleanly ends in "jalr x0,x0,0" (a jump
// to address 0) and the caller stops calling Run/Step when pc reaches
// it - Run itself has no halt detection, mirroring cpu_ie32.go's
// free-running Execute() loop.
func (h *Hart) Run(maxSteps int) error {
	for i := 0; i < maxSteps; i++ {
		if err := h.Step(); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hart) execute(inst InstructionRecord) error {
	switch in := inst.(type) {
	case RType:
		return h.execR(in)
	case IType:
		return h.execI(in)
	case SType:
		return h.execS(in)
	case BType:
		return h.execB(in)
	case UType:
		return h.execU(in)
	case UJType:
		return h.execUJ(in)
	default:
		return fmt.Errorf("%w: unrecognised instruction record %T", ErrIllegalInstruction, inst)
	}
}

func (h *Hart) execR(in RType) error {
	a, b := h.Reg(in.Rs1), h.Reg(in.Rs2)
	var result uint32
	switch {
	case in.Funct7 == 0x00 && in.Funct3 == 0:
		result = a + b
	case in.Funct7 == 0x20 && in.Funct3 == 0:
		result = a - b
	default:
		return fmt.Errorf("%w: R funct7=0x%02x funct3=0x%x at pc=0x%08x", ErrIllegalInstruction, in.Funct7, in.Funct3, h.pc)
	}
	h.setReg(in.Rd, result)
	h.pc += 4
	return nil
}

func (h *Hart) execI(in IType) error {
	switch {
	case h.isOpImm(in):
		if in.Funct3 != 0 {
			return fmt.Errorf("%w: OP_IMM funct3=0x%x at pc=0x%08x", ErrIllegalInstruction, in.Funct3, h.pc)
		}
		h.setReg(in.Rd, h.Reg(in.Rs1)+uint32(in.Imm))
		h.pc += 4
		return nil

	case h.isLoad(in):
		addr := h.Reg(in.Rs1) + uint32(in.Imm)
		word, ok := h.bus.LoadWord(addr)
		if !ok {
			word = 0
		}
		h.setReg(in.Rd, word)
		h.pc += 4
		return nil

	case h.isJalr(in):
		target := (h.Reg(in.Rs1) + uint32(in.Imm)) &^ 1
		linkPC := h.pc + 4
		h.setReg(in.Rd, linkPC)
		h.pc = target
		return nil

	default:
		return fmt.Errorf("%w: unrecognised I-type context at pc=0x%08x", ErrIllegalInstruction, h.pc)
	}
}

// isOpImm/isLoad/isJalr disambiguate which of the three I-type opcodes
// produced this record, using the Op field the decoder stamped on it.
func (h *Hart) isOpImm(in IType) bool { return in.Op == opOPIMM }
func (h *Hart) isLoad(in IType) bool  { return in.Op == opLOAD }
func (h *Hart) isJalr(in IType) bool  { return in.Op == opJALR }

func (h *Hart) execS(in SType) error {
	addr := h.Reg(in.Rs1) + uint32(in.Imm)
	val := h.Reg(in.Rs2)

	var toStore uint32
	switch in.Funct3 {
	case 0:
		toStore = val & 0xFF
	case 1:
		toStore = val & 0xFFFF
	case 2:
		toStore = val
	default:
		return fmt.Errorf("%w: STORE funct3=0x%x at pc=0x%08x", ErrIllegalInstruction, in.Funct3, h.pc)
	}

	if !h.bus.StoreWord(addr, toStore) {
		glog.Warningf("hart: store to unmapped address 0x%08x at pc=0x%08x dropped", addr, h.pc)
	}
	h.pc += 4
	return nil
}

func (h *Hart) execB(in BType) error {
	a, b := h.Reg(in.Rs1), h.Reg(in.Rs2)
	var taken bool
	switch in.Funct3 {
	case 0:
		taken = a == b
	case 1:
		taken = a != b
	case 4:
		taken = int32(a) < int32(b)
	case 5:
		taken = int32(a) >= int32(b)
	case 6:
		taken = a < b
	case 7:
		taken = a >= b
	default:
		return fmt.Errorf("%w: BRANCH funct3=0x%x at pc=0x%08x", ErrIllegalInstruction, in.Funct3, h.pc)
	}

	if taken {
		h.pc += uint32(in.Imm)
	} else {
		h.pc += 4
	}
	return nil
}

func (h *Hart) execU(in UType) error {
	switch in.Op {
	case opLUI:
		h.setReg(in.Rd, in.Imm)
	case opAUIPC:
		h.setReg(in.Rd, h.pc+in.Imm)
	default:
		return fmt.Errorf("%w: unrecognised U-type context at pc=0x%08x", ErrIllegalInstruction, h.pc)
	}
	h.pc += 4
	return nil
}

func (h *Hart) execUJ(in UJType) error {
	h.setReg(in.Rd, h.pc+4)
	h.pc = uint32(int32(h.pc) + in.Imm)
	return nil
}
