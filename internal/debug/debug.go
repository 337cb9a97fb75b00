// Package debug provides tools for debugging the overlay's Gio layout
// code and for diagnostic dumps from the chart controller, generalized
// from gioverse-chat's debug package for BitChart's UI-thread code.
package debug

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"os"
	"runtime"

	"gioui.org/layout"
	"gioui.org/unit"
	"gioui.org/widget"
)

type (
	C = layout.Context
	D = layout.Dimensions
)

// Outline traces a small outline around the provided widget region, used by
// the overlay to visualize the tooltip region when DebugOutline is enabled.
func Outline(gtx C, col color.NRGBA, w func(gtx C) D) D {
	return widget.Border{
		Color: col,
		Width: unit.Dp(1),
	}.Layout(gtx, w)
}

// Dump logs v as formatted JSON on stderr, used for ad-hoc inspection of
// indicator results and viewport state.
func Dump(v interface{}) {
	b, _ := json.MarshalIndent(v, "", "  ")
	b = append(b, '\n')
	io.Copy(os.Stderr, bytes.NewBuffer(b))
}

// Caller returns the file:line nFrames above it on the call stack, for
// ad-hoc diagnostics.
func Caller(nFrames int) string {
	fpcs := make([]uintptr, 1)
	n := runtime.Callers(nFrames, fpcs)
	if n == 0 {
		return "NO CALLER"
	}
	caller := runtime.FuncForPC(fpcs[0] - 1)
	if caller == nil {
		return "MSG CALLER WAS NIL"
	}
	file, line := caller.FileLine(fpcs[0] - 1)
	return fmt.Sprintf("%s:%d", file, line)
}
