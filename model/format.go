package model

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/FoxTes/hydrascript/interp"
	"github.com/FoxTes/hydrascript/vm"
	"github.com/gookit/color"
)

const (
	heavyRule = "================================================================================"
	lightRule = "--------------------------------------------------------------------------------"
	// instructions shown on each side of a fault
	faultContext = 3
)

func section(b *strings.Builder, title string) {
	b.WriteString(color.Gray.Sprint(lightRule))
	b.WriteString("\n")
	b.WriteString(color.Cyan.Sprint(title))
	b.WriteString("\n")
	b.WriteString(color.Gray.Sprint(lightRule))
	b.WriteString("\n")
}

// FormatFault renders a fault with the surrounding code and the active
// calls at the time it happened.
func FormatFault(f *interp.Fault, prog *vm.Program, backtrace []string) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(color.Gray.Sprint(heavyRule))
	b.WriteString("\n")
	b.WriteString(color.Red.Sprint("FAULT"))
	b.WriteString("\n")
	b.WriteString(color.Gray.Sprint(heavyRule))
	b.WriteString("\n")
	b.WriteString(color.Bold.Sprint("Kind:        "))
	b.WriteString(color.Yellow.Sprintf("%s\n", faultKind(f.Err)))
	b.WriteString(color.Bold.Sprint("Instruction: "))
	b.WriteString(fmt.Sprintf("%04d", f.Number))
	if f.Line > 0 {
		b.WriteString(fmt.Sprintf(" (line %d)", f.Line))
	}
	b.WriteString("\n")
	b.WriteString(color.Bold.Sprint("Message:     "))
	b.WriteString(color.Red.Sprintf("%v\n", f.Err))
	b.WriteString("\n")

	if prog != nil && f.Number >= 0 && f.Number < len(prog.Instructions) {
		section(&b, "Code:")
		lo := max(0, f.Number-faultContext)
		hi := min(len(prog.Instructions), f.Number+faultContext+1)
		for i := lo; i < hi; i++ {
			if fn, ok := prog.FunctionAt(i); ok {
				b.WriteString(color.Magenta.Sprintf("  %s:\n", fn))
			}
			line := fmt.Sprintf("%04d: %s", i, prog.Instructions[i])
			if i == f.Number {
				b.WriteString(color.Red.Sprintf("→ %s\n", line))
			} else {
				b.WriteString(fmt.Sprintf("  %s\n", line))
			}
		}
		b.WriteString("\n")
	}

	section(&b, "Backtrace:")
	if len(backtrace) == 0 {
		b.WriteString("  (top level)\n")
	}
	for i, frame := range backtrace {
		b.WriteString(fmt.Sprintf("  %2d. %s\n", i+1, frame))
	}
	b.WriteString(color.Gray.Sprint(heavyRule))
	b.WriteString("\n")
	return b.String()
}

func faultKind(err error) string {
	switch {
	case errors.Is(err, vm.ErrLoweringContract):
		return "lowering contract violation"
	case errors.Is(err, vm.ErrUnboundName):
		return "unbound name"
	case errors.Is(err, vm.ErrStackUnderflow):
		return "stack underflow"
	case errors.Is(err, vm.ErrType):
		return "type error"
	case errors.Is(err, vm.ErrDivisionByZero):
		return "division by zero"
	}
	return "runtime error"
}

// FormatStatistics formats run statistics
func FormatStatistics(res *Result) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(color.Cyan.Sprint("=== Run statistics ==="))
	b.WriteString("\n")
	b.WriteString(color.Bold.Sprint("Final state: "))
	switch res.State {
	case interp.Halted:
		b.WriteString(color.Green.Sprintf("%s\n", res.State))
	case interp.Faulted:
		b.WriteString(color.Red.Sprintf("%s\n", res.State))
	default:
		b.WriteString(color.Yellow.Sprintf("%s\n", res.State))
	}
	b.WriteString(color.Bold.Sprint("Instructions executed: "))
	b.WriteString(fmt.Sprintf("%d\n", res.Steps))
	b.WriteString(color.Bold.Sprint("Maximum call depth: "))
	b.WriteString(fmt.Sprintf("%d\n", res.MaxDepth))
	if res.UniqueStates > 0 {
		b.WriteString(color.Bold.Sprint("Loop states recorded: "))
		b.WriteString(fmt.Sprintf("%d\n", res.UniqueStates))
	}
	b.WriteString(color.Bold.Sprint("Duration: "))
	b.WriteString(fmt.Sprintf("%s\n", res.Duration))
	if res.Value != nil && res.Value != vm.None {
		b.WriteString(color.Bold.Sprint("Result: "))
		b.WriteString(fmt.Sprintf("%s\n", res.Value))
	}
	return b.String()
}

// FormatGlobals lists the final top-level bindings in name order.
func FormatGlobals(globals map[string]vm.Value) string {
	var b strings.Builder
	section(&b, "Globals:")
	if len(globals) == 0 {
		b.WriteString("  (none)\n")
		return b.String()
	}
	names := make([]string, 0, len(globals))
	for k := range globals {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		b.WriteString("  ")
		b.WriteString(color.Yellow.Sprint(k))
		b.WriteString(fmt.Sprintf(" = %s\n", globals[k]))
	}
	return b.String()
}

// WriteDisassembly writes a program listing under a header, indented.
func WriteDisassembly(w io.Writer, name string, prog *vm.Program) error {
	fmt.Fprintf(w, "%s\n", color.Cyan.Sprintf("=== %s: %d instructions, %d functions ===", name, len(prog.Instructions), len(prog.Functions)))
	return prog.Disassemble(&indentWriter{w: w, indent: "  ", atLineStart: true})
}

// indentWriter wraps an io.Writer to add indentation to each line
type indentWriter struct {
	w           io.Writer
	indent      string
	atLineStart bool
}

func (iw *indentWriter) Write(p []byte) (n int, err error) {
	totalWritten := 0

	for len(p) > 0 {
		if iw.atLineStart {
			if _, err := io.WriteString(iw.w, iw.indent); err != nil {
				return totalWritten, err
			}
			iw.atLineStart = false
		}

		idx := 0
		for idx < len(p) && p[idx] != '\n' {
			idx++
		}
		if idx < len(p) {
			idx++ // Include '\n'
			iw.atLineStart = true
		}

		written, err := iw.w.Write(p[:idx])
		totalWritten += written
		if err != nil {
			return totalWritten, err
		}
		p = p[idx:]
	}

	return totalWritten, nil
}
