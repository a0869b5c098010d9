package main

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"

	"github.com/rv32emu/rv32emu/assembler"
)

// loadProgram assembles source at base into port, word by word.
func loadProgram(t *testing.T, port BusPort, source string, base uint32) {
	t.Helper()
	words, err := assembler.Assemble(source, base)
	require.NoError(t, err)
	for i, w := range words {
		require.True(t, port.StoreWord(base+uint32(i*4), w))
	}
}

func TestHart_TriangularSum(t *testing.T) {
	const base = 0x1000
	const source = `
		addi x1,x0,11
		addi x2,x0,0
		addi x3,x0,1
	loop:
		add x2,x2,x3
		addi x3,x3,1
		bne x3,x1,loop
		sw x2,32(x0)
		jalr x0,x0,0
	`
	mem := newMemBusPort()
	loadProgram(t, mem, source, base)

	h := NewHart(mem, base)
	for i := 0; i < 1000; i++ {
		word, ok := mem.LoadWord(h.PC())
		require.True(t, ok)
		if word == 0x00000067 { // jalr x0,x0,0 - halt
			break
		}
		require.NoError(t, h.Step())
	}

	t.Logf("register file at halt:\n%s", spew.Sdump(h.regs))
	require.Equal(t, uint32(55), h.Reg(2))
	v, ok := mem.LoadWord(32)
	require.True(t, ok)
	require.Equal(t, uint32(55), v)
}

func TestHart_ConstantPropagation(t *testing.T) {
	const base = 0x1000
	const source = `
		addi x1,x0,5
		addi x2,x1,7
		sw x2,16(x0)
		jalr x0,x0,0
	`
	mem := newMemBusPort()
	loadProgram(t, mem, source, base)

	h := NewHart(mem, base)
	for i := 0; i < 4; i++ {
		require.NoError(t, h.Step())
	}

	require.Equal(t, uint32(12), h.Reg(2))
	v, ok := mem.LoadWord(16)
	require.True(t, ok)
	require.Equal(t, uint32(12), v)
}

func TestHart_X0AlwaysZero(t *testing.T) {
	mem := newMemBusPort()
	loadProgram(t, mem, "addi x0,x0,123\njalr x0,x0,0", 0x1000)

	h := NewHart(mem, 0x1000)
	require.NoError(t, h.Step())
	require.Equal(t, uint32(0), h.Reg(0))
}

func TestHart_FetchFaultOnUnmappedPC(t *testing.T) {
	h := NewHart(newMemBusPort(), 0x1000)
	err := h.Step()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrFetchFault)
}

func TestHart_IllegalInstructionOnUnknownFunct(t *testing.T) {
	mem := newMemBusPort()
	// OP with funct7=0x01, funct3=0 - neither add nor sub
	mem.StoreWord(0x1000, uint32(opOP)|0<<12|1<<25)
	h := NewHart(mem, 0x1000)

	err := h.Step()
	require.Error(t, err)
	require.ErrorIs(t, err, ErrIllegalInstruction)
}

func TestHart_JalrDoesNotAdvancePCByFour(t *testing.T) {
	mem := newMemBusPort()
	loadProgram(t, mem, "addi x1,x0,64\njalr x2,x1,0", 0x1000)

	h := NewHart(mem, 0x1000)
	require.NoError(t, h.Step()) // addi
	require.NoError(t, h.Step()) // jalr

	require.Equal(t, uint32(64), h.PC())
	require.Equal(t, uint32(0x1008), h.Reg(2), "rd gets the link address pc+4, not the jump target")
}

func TestHart_Lui(t *testing.T) {
	mem := newMemBusPort()
	loadProgram(t, mem, "lui x1,0x12345000\njalr x0,x0,0", 0x1000)

	h := NewHart(mem, 0x1000)
	require.NoError(t, h.Step())
	require.Equal(t, uint32(0x12345000), h.Reg(1))
}

func TestHart_Auipc(t *testing.T) {
	mem := newMemBusPort()
	loadProgram(t, mem, "auipc x1,0x1000\njalr x0,x0,0", 0x2000)

	h := NewHart(mem, 0x2000)
	require.NoError(t, h.Step())
	require.Equal(t, uint32(0x2000+0x1000), h.Reg(1))
}
