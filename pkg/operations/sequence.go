/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: sequence.go
Description: Take/reverse/invert/skip micro-operation interpreter. Parses the compact
textual grammar (for example "t4r3i8s1") into primitive operations and replays the
sequence cyclically over a bit buffer until the input is exhausted or a full pass
makes no progress.
*/

package operations

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kleascm/bitlens/pkg/bits"
)

// Kind identifies a primitive operation
type Kind byte

const (
	Take    Kind = 't'
	Reverse Kind = 'r'
	Invert  Kind = 'i'
	Skip    Kind = 's'
)

// String returns the human readable name of the kind
func (k Kind) String() string {
	switch k {
	case Take:
		return "Take"
	case Reverse:
		return "Reverse"
	case Invert:
		return "Invert"
	case Skip:
		return "Skip"
	default:
		return fmt.Sprintf("Kind(%q)", byte(k))
	}
}

// Operation is one primitive step carrying a bit count
type Operation struct {
	Kind  Kind
	Count int
}

// String renders the operation in grammar form, e.g. "t4"
func (o Operation) String() string {
	return string(rune(o.Kind)) + strconv.Itoa(o.Count)
}

// ParseError describes a malformed operation sequence
type ParseError struct {
	Input  string // full input being parsed
	Offset int    // byte offset of the offending token
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid operation sequence %q at offset %d: %s", e.Input, e.Offset, e.Reason)
}

// Sequence is an ordered list of primitive operations. It is immutable once parsed
// and safe to share between goroutines.
type Sequence struct {
	ops []Operation
}

// NewSequence builds a sequence from explicit operations
func NewSequence(ops ...Operation) *Sequence {
	cp := make([]Operation, len(ops))
	copy(cp, ops)
	return &Sequence{ops: cp}
}

// ParseSequence parses the grammar ([tTrRiIsS][0-9]+)*. The empty string yields
// an empty sequence.
func ParseSequence(input string) (*Sequence, error) {
	seq := &Sequence{}
	i := 0
	for i < len(input) {
		start := i
		letter := input[i]
		i++

		digits := i
		for i < len(input) && input[i] >= '0' && input[i] <= '9' {
			i++
		}
		if digits == i {
			return nil, &ParseError{
				Input:  input,
				Offset: start,
				Reason: fmt.Sprintf("expected number after %q", letter),
			}
		}

		count, err := strconv.ParseUint(input[digits:i], 10, strconv.IntSize)
		if err != nil || count > math.MaxInt {
			return nil, &ParseError{
				Input:  input,
				Offset: digits,
				Reason: fmt.Sprintf("invalid number: %s", input[digits:i]),
			}
		}

		kind, ok := kindFor(letter)
		if !ok {
			return nil, &ParseError{
				Input:  input,
				Offset: start,
				Reason: fmt.Sprintf("unknown operation: %q", letter),
			}
		}

		seq.ops = append(seq.ops, Operation{Kind: kind, Count: int(count)})
	}
	return seq, nil
}

// MustParseSequence is ParseSequence for literals. It panics on bad input.
func MustParseSequence(input string) *Sequence {
	seq, err := ParseSequence(input)
	if err != nil {
		panic(err)
	}
	return seq
}

func kindFor(letter byte) (Kind, bool) {
	switch letter | 0x20 {
	case 't':
		return Take, true
	case 'r':
		return Reverse, true
	case 'i':
		return Invert, true
	case 's':
		return Skip, true
	}
	return 0, false
}

// Operations returns a copy of the parsed operations
func (s *Sequence) Operations() []Operation {
	cp := make([]Operation, len(s.ops))
	copy(cp, s.ops)
	return cp
}

// Len returns the number of operations
func (s *Sequence) Len() int {
	return len(s.ops)
}

// String renders the canonical grammar form; ParseSequence(s.String()) yields
// the same operations.
func (s *Sequence) String() string {
	var sb strings.Builder
	for _, op := range s.ops {
		sb.WriteString(op.String())
	}
	return sb.String()
}

// Apply replays the sequence over input, starting again from the first operation
// after every pass, until the whole input is consumed. A pass that does not advance
// the cursor ends the replay, so all-zero sequences terminate immediately.
func (s *Sequence) Apply(input *bits.Buffer) *bits.Buffer {
	n := input.Len()
	out := bits.New(n)
	pos := 0

	for pos < n {
		passStart := pos
		for _, op := range s.ops {
			if pos >= n {
				break
			}
			if op.Count == 0 {
				continue
			}
			end := pos + op.Count
			if end > n || end < pos {
				end = n
			}
			switch op.Kind {
			case Take:
				out.AppendRange(input, pos, end)
			case Reverse:
				out.AppendReversed(input, pos, end)
			case Invert:
				out.AppendInverted(input, pos, end)
			case Skip:
			}
			pos = end
		}
		if pos == passStart {
			break
		}
	}
	return out
}
