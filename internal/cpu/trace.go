package cpu

import "fmt"

// String renders the CPU's register snapshot in the layout nestest-style
// log comparisons expect: PC, A, X, Y, P, SP and the running cycle count.
// It is test scaffolding only — nothing in Tick depends on it.
func (c *CPU) String() string {
	return fmt.Sprintf(
		"%04X A:%02X X:%02X Y:%02X P:%02X SP:%02X CYC:%d",
		c.PC, c.A, c.X, c.Y, c.P, c.SP, c.Cycles,
	)
}
