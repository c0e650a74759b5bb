package asmloader

import (
	"fmt"
	"sort"
	"strings"
)

// Print renders instructions back into the textual listing format Load
// accepts, re-attaching each label at the instruction address it was
// recorded against (spec.md §8 round-trip property: assembly text →
// loader → emit text → loader yields the identical instruction array and
// label table).
func Print(instructions []Instruction, labels map[string]int) string {
	atAddr := make(map[int][]string)
	for name, addr := range labels {
		atAddr[addr] = append(atAddr[addr], name)
	}
	for _, names := range atAddr {
		sort.Strings(names)
	}

	var b strings.Builder
	for _, inst := range instructions {
		for _, name := range atAddr[inst.Address] {
			fmt.Fprintf(&b, "%s:\n", name)
		}
		b.WriteString(inst.Opcode)
		for i, op := range inst.Operands {
			if i == 0 {
				b.WriteString(" ")
			} else {
				b.WriteString(", ")
			}
			b.WriteString(op.String())
		}
		b.WriteString("\n")
	}
	return b.String()
}
