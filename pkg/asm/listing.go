package asm

import (
	"fmt"
	"sort"
	"strings"

	"stackvm/pkg/color"
)

// Listing renders a tagged program one position per line, with the label
// and procedure names that point at each position.
func Listing(p *Program) string {
	names := symbolNames(p)
	width := len(fmt.Sprint(p.Len()))

	var b strings.Builder
	for pos, in := range p.Instructions {
		fmt.Fprintf(&b, "%s  %s", color.Address(pos, width), color.YellowText(fmt.Sprintf("%-10s", in.Op)))
		if in.Op == OpPush {
			b.WriteString(color.BlueText(fmt.Sprintf(" %d", in.Imm)))
		} else if in.Op.HasOperand() {
			b.WriteString(color.BlueText(fmt.Sprintf(" %d", in.Arg)))
		}
		if n := names[pos]; len(n) > 0 {
			b.WriteString(color.GrayText("  ; " + strings.Join(n, ", ")))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// PackedListing renders byte code with offsets and raw bytes
func PackedListing(p *Packed) string {
	width := len(fmt.Sprint(len(p.Code)))

	var b strings.Builder
	for at := 0; at < len(p.Code); {
		in, n, err := p.Decode(at)
		if err != nil {
			fmt.Fprintf(&b, "%s  %s\n", color.Address(at, width), color.RedText(err.Error()))
			break
		}
		fmt.Fprintf(&b, "%s  %-27s %s\n",
			color.Address(at, width),
			color.GrayText(fmt.Sprintf("% x", p.Code[at:at+n])),
			color.YellowText(in.String()))
		at += n
	}
	return b.String()
}

func symbolNames(p *Program) map[int][]string {
	names := make(map[int][]string)
	for name, pos := range p.Labels {
		names[pos] = append(names[pos], "label "+name)
	}
	for name, span := range p.Procedures {
		names[span.Decl] = append(names[span.Decl], "proc "+name)
	}
	for _, n := range names {
		sort.Strings(n)
	}
	return names
}
