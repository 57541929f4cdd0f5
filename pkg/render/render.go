/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: render.go
Description: Text views over bit buffers: a bit grid folded at the frame width, a
hex dump with an ASCII column, a plain ASCII view and a per-column consistency strip
for frame-width results.
*/

package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/kleascm/bitlens/pkg/bits"
)

// View selects a renderer
type View string

const (
	ViewBits  View = "bits"
	ViewHex   View = "hex"
	ViewASCII View = "ascii"
)

// DefaultFrameWidth is the bit grid width when none is configured
const DefaultFrameWidth = 64

// ParseView validates a view name
func ParseView(s string) (View, error) {
	switch View(strings.ToLower(strings.TrimSpace(s))) {
	case ViewBits, "bit", "binary":
		return ViewBits, nil
	case ViewHex:
		return ViewHex, nil
	case ViewASCII, "text":
		return ViewASCII, nil
	default:
		return "", fmt.Errorf("unknown view %q (want bits, hex or ascii)", s)
	}
}

// Options controls the layout of every view. Width is in bits for the bit grid and
// in bytes for the hex and ASCII views; Offset uses the same unit.
type Options struct {
	Width  int
	Offset int
	Rows   int // zero renders everything
}

func (o Options) rows(total int) int {
	if o.Rows > 0 && o.Rows < total {
		return o.Rows
	}
	return total
}

// Render writes buf in the chosen view
func Render(w io.Writer, buf *bits.Buffer, view View, opts Options) error {
	switch view {
	case ViewBits:
		return Bits(w, buf, opts)
	case ViewHex:
		return Hex(w, buf, opts)
	case ViewASCII:
		return ASCII(w, buf, opts)
	default:
		return fmt.Errorf("unknown view %q", view)
	}
}

// Bits renders one frame per row: '1' for set bits and '.' for clear bits, each
// row prefixed by its bit offset
func Bits(w io.Writer, buf *bits.Buffer, opts Options) error {
	width := opts.Width
	if width <= 0 {
		width = DefaultFrameWidth
	}
	start := clampOffset(opts.Offset, buf.Len())
	total := (buf.Len() - start + width - 1) / width
	rows := opts.rows(total)

	var line strings.Builder
	for r := 0; r < rows; r++ {
		line.Reset()
		rowStart := start + r*width
		rowEnd := min(rowStart+width, buf.Len())
		fmt.Fprintf(&line, "%8d  ", rowStart)
		for i := rowStart; i < rowEnd; i++ {
			if buf.Bit(i) {
				line.WriteByte('1')
			} else {
				line.WriteByte('.')
			}
		}
		line.WriteByte('\n')
		if _, err := io.WriteString(w, line.String()); err != nil {
			return err
		}
	}
	return nil
}

// Hex renders a classic hex dump. The final partial byte is zero-padded.
func Hex(w io.Writer, buf *bits.Buffer, opts Options) error {
	width := opts.Width
	if width <= 0 {
		width = 16
	}
	data := buf.Bytes()
	start := clampOffset(opts.Offset, len(data))
	total := (len(data) - start + width - 1) / width
	rows := opts.rows(total)

	var line strings.Builder
	for r := 0; r < rows; r++ {
		line.Reset()
		rowStart := start + r*width
		rowEnd := min(rowStart+width, len(data))
		fmt.Fprintf(&line, "%08X  ", rowStart)
		for i := rowStart; i < rowStart+width; i++ {
			if i < rowEnd {
				fmt.Fprintf(&line, "%02X ", data[i])
			} else {
				line.WriteString("   ")
			}
		}
		line.WriteString(" |")
		for _, b := range data[rowStart:rowEnd] {
			line.WriteByte(printable(b))
		}
		line.WriteString("|\n")
		if _, err := io.WriteString(w, line.String()); err != nil {
			return err
		}
	}
	return nil
}

// ASCII renders bytes as text, replacing non-printable bytes with '.'
func ASCII(w io.Writer, buf *bits.Buffer, opts Options) error {
	width := opts.Width
	if width <= 0 {
		width = 64
	}
	data := buf.Bytes()
	start := clampOffset(opts.Offset, len(data))
	total := (len(data) - start + width - 1) / width
	rows := opts.rows(total)

	var line strings.Builder
	for r := 0; r < rows; r++ {
		line.Reset()
		rowStart := start + r*width
		rowEnd := min(rowStart+width, len(data))
		for _, b := range data[rowStart:rowEnd] {
			line.WriteByte(printable(b))
		}
		line.WriteByte('\n')
		if _, err := io.WriteString(w, line.String()); err != nil {
			return err
		}
	}
	return nil
}

const strip = " .:-=+*#%@"

// ConsistencyStrip maps per-column consistency values in [0, 1] to a row of
// density characters, darkest for fully consistent columns
func ConsistencyStrip(consistency []float64) string {
	var sb strings.Builder
	sb.Grow(len(consistency))
	top := len(strip) - 1
	for _, c := range consistency {
		switch {
		case c <= 0:
			sb.WriteByte(strip[0])
		case c >= 1:
			sb.WriteByte(strip[top])
		default:
			sb.WriteByte(strip[int(c*float64(top)+0.5)])
		}
	}
	return sb.String()
}

func printable(b byte) byte {
	if b >= 0x20 && b <= 0x7E {
		return b
	}
	return '.'
}

func clampOffset(offset, n int) int {
	if offset < 0 {
		return 0
	}
	if offset > n {
		return n
	}
	return offset
}
