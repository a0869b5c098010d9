package assembler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssemble_AddEncoding(t *testing.T) {
	words, err := Assemble("add x3,x1,x2", 0x1000)
	require.NoError(t, err)
	require.Len(t, words, 1)
	require.Equal(t, uint32(0x33)|3<<7|1<<15|2<<20, words[0])
}

func TestAssemble_AddiNegativeImmediate(t *testing.T) {
	words, err := Assemble("addi x1,x0,-1", 0x1000)
	require.NoError(t, err)
	require.Equal(t, uint32(0x13)|1<<7|0xFFF<<20, words[0])
}

func TestAssemble_LabelResolvesToBackwardBranchOffset(t *testing.T) {
	source := `
	loop:
		addi x1,x1,-1
		bne x1,x0,loop
	`
	words, err := Assemble(source, 0x1000)
	require.NoError(t, err)
	require.Len(t, words, 2)
	// bne is the second word, at pc=0x1004, branching back to 0x1000:
	// offset = -4.
	require.NotZero(t, words[1]&(1<<31), "negative offset must set the sign bit")
}

func TestAssemble_UndefinedLabelIsSyntaxError(t *testing.T) {
	_, err := Assemble("beq x0,x0,nowhere", 0x1000)
	require.Error(t, err)
	var synErr *SyntaxError
	require.ErrorAs(t, err, &synErr)
}

func TestAssemble_LoadStoreOffsetSyntax(t *testing.T) {
	words, err := Assemble("sw x2,32(x0)\nlw x3,32(x0)", 0x1000)
	require.NoError(t, err)
	require.Len(t, words, 2)
}

func TestAssemble_TriangularSumProgram(t *testing.T) {
	source := `
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
	words, err := Assemble(source, 0x1000)
	require.NoError(t, err)
	require.Len(t, words, 8)
	require.Equal(t, uint32(0x00000067), words[7], "halting jalr x0,x0,0 encodes to all-zero fields plus the opcode")
}
