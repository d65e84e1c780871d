package vhdl

import (
	"fmt"
	"strings"

	"github.com/roach88/bitheap/internal/compressor"
)

// CompressorEntity renders the design unit of compressor c: a parallel
// counter writing the count of set X0 bits plus twice the count of set X1
// bits to R.
func CompressorEntity(c compressor.Compressor) string {
	ports := []Port{{Name: "X0", Dir: In, Width: c.Inputs0}}
	sensitivity := "X0"
	if c.Inputs1 > 0 {
		ports = append(ports, Port{Name: "X1", Dir: In, Width: c.Inputs1})
		sensitivity = "X0, X1"
	}
	ports = append(ports, Port{Name: "R", Dir: Out, Width: c.Outputs()})

	var b strings.Builder
	writeHeader(&b)
	fmt.Fprintf(&b, "entity %s is\n", c.Name())
	writePorts(&b, ports)
	b.WriteString("end entity;\n\n")

	fmt.Fprintf(&b, "architecture arch of %s is\n", c.Name())
	b.WriteString("begin\n")
	fmt.Fprintf(&b, "   process(%s)\n", sensitivity)
	fmt.Fprintf(&b, "      variable count : natural range 0 to %d;\n", c.MaxValue())
	b.WriteString("   begin\n")
	b.WriteString("      count := 0;\n")
	writeCountLoop(&b, "X0", 1)
	if c.Inputs1 > 0 {
		writeCountLoop(&b, "X1", 2)
	}
	fmt.Fprintf(&b, "      R <= std_logic_vector(to_unsigned(count, %d));\n", c.Outputs())
	b.WriteString("   end process;\n")
	b.WriteString("end architecture;\n")
	return b.String()
}

func writeCountLoop(b *strings.Builder, port string, step int) {
	fmt.Fprintf(b, "      for i in %s'range loop\n", port)
	fmt.Fprintf(b, "         if %s(i) = '1' then\n", port)
	fmt.Fprintf(b, "            count := count + %d;\n", step)
	b.WriteString("         end if;\n")
	b.WriteString("      end loop;\n")
}
