package chip8

import (
	"fmt"
	"strings"
)

// Quirks toggles behaviours that differ between CHIP-8 interpreters
type Quirks uint16

const (
	// QuirkVfReset clears VF after OR, AND and XOR
	QuirkVfReset Quirks = 1 << iota
	// QuirkShiftWithVy copies Vy into Vx before shifting
	QuirkShiftWithVy
	// QuirkJumpUsesVx makes Bxnn jump to xnn + Vx instead of nnn + V0
	QuirkJumpUsesVx
	// QuirkMemoryMovesIndex advances I past the registers stored or loaded by Fx55/Fx65
	QuirkMemoryMovesIndex
	// QuirkAddCarry sets VF to the carry of 7xkk
	QuirkAddCarry
	// QuirkInclusiveLoadStore makes Fx55/Fx65 include Vx itself
	QuirkInclusiveLoadStore
)

// NoQuirks is the default behaviour
const NoQuirks Quirks = 0

var quirkNames = []struct {
	name  string
	quirk Quirks
}{
	{"vfreset", QuirkVfReset},
	{"shiftvy", QuirkShiftWithVy},
	{"jumpvx", QuirkJumpUsesVx},
	{"memindex", QuirkMemoryMovesIndex},
	{"addcarry", QuirkAddCarry},
	{"inclusive", QuirkInclusiveLoadStore},
}

func (q Quirks) Has(flag Quirks) bool {
	return q&flag > 0
}

func (q Quirks) String() string {
	names := make([]string, 0, len(quirkNames))
	for _, qn := range quirkNames {
		if q.Has(qn.quirk) {
			names = append(names, qn.name)
		}
	}

	return strings.Join(names, ",")
}

// ParseQuirks parses a comma separated list of quirk names, as printed by Quirks.String
func ParseQuirks(s string) (Quirks, error) {
	var q Quirks

	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}

		found := false
		for _, qn := range quirkNames {
			if qn.name == part {
				q |= qn.quirk
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown quirk %q", part)
		}
	}

	return q, nil
}
