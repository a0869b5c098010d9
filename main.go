// main.go - demonstration entry point wiring the memory hierarchy and Hart

/*
main assembles a program (built in, or loaded from a file given on the
command line), wires it onto Hart -> SetAssociativeCache -> MmioWindow
-> ConcurrentMap, and runs it until pc reaches a "jalr x0,x0,0" in the
program, a step leaves pc unchanged, or a terminal error occurs,
printing final register state and cache
statistics. It plays the same wire-once-and-run role the commented-out
main() in memory_bus.go's companion file plays for MachineBus/CPU,
minus the GUI/audio/video wiring this core has no equivalent of.
*/

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/rv32emu/rv32emu/assembler"
)

const (
	loadBase   = 0x1000
	maxRunStep = 1 << 20
)

const triangularSumProgram = `
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

func main() {
	flag.Parse()
	defer glog.Flush()

	source := triangularSumProgram
	if flag.NArg() > 0 {
		data, err := os.ReadFile(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		source = string(data)
	}

	words, err := assembler.Assemble(source, loadBase)
	if err != nil {
		fmt.Fprintf(os.Stderr, "assemble: %v\n", err)
		os.Exit(1)
	}

	backing := NewConcurrentMap(64)
	mmio := NewMmioWindow(backing)
	cache := NewSetAssociativeCache(64, 2, mmio, WriteBack)

	for i, w := range words {
		cache.StoreWord(uint32(loadBase+i*4), w)
	}

	// "jalr x0,x0,0" jumps to address 0, so the run stops when pc reaches
	// that instruction, before executing it. The check reads the
	// assembled words rather than fetching through the cache -
	// cache.Stats() would otherwise double-count every executed
	// instruction (one fetch here, one inside Step). A step that leaves
	// pc unchanged (a self-loop) also ends the run.
	const haltWord = 0x00000067 // jalr x0,x0,0
	hart := NewHart(cache, loadBase)
	for step := 0; step < maxRunStep; step++ {
		prevPC := hart.PC()
		if idx := (prevPC - loadBase) / 4; prevPC >= loadBase && idx < uint32(len(words)) && words[idx] == haltWord {
			break
		}
		if err := hart.Step(); err != nil {
			fmt.Fprintf(os.Stderr, "step: %v\n", err)
			os.Exit(1)
		}
		if hart.PC() == prevPC {
			break
		}
	}

	fmt.Printf("pc=0x%08x\n", hart.PC())
	for r := 0; r < 32; r++ {
		fmt.Printf("x%-2d = %d\n", r, hart.Reg(uint32(r)))
	}
	fmt.Println(cache.Stats().String())
}
