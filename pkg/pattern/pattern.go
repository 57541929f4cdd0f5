/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: pattern.go
Description: Pattern definitions for the bit pattern locator. A pattern is entered
as hex, ASCII or a bit string and compiled into a bit needle that the locator slides
over a buffer with a bounded number of tolerated mismatches (garbles).
*/

package pattern

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/kleascm/bitlens/pkg/bits"
)

// ErrInvalidPattern is wrapped by every pattern parse failure
var ErrInvalidPattern = errors.New("invalid pattern")

// Format is the notation a pattern was entered in
type Format string

const (
	FormatHex   Format = "hex"
	FormatASCII Format = "ascii"
	FormatBits  Format = "bits"
)

// ParseFormat accepts a case-insensitive format name
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatHex:
		return FormatHex, nil
	case FormatASCII:
		return FormatASCII, nil
	case FormatBits, "bin", "binary":
		return FormatBits, nil
	default:
		return "", fmt.Errorf("unknown pattern format: %s", s)
	}
}

// Match is one window of the haystack within the garble tolerance
type Match struct {
	Position   int          `json:"position"`
	Bits       *bits.Buffer `json:"-"`     // the haystack bits actually found
	Delta      int          `json:"delta"` // offset from the previous match, zero for the first
	Mismatches int          `json:"mismatches"`
}

// BitsString renders the matched bits
func (m Match) BitsString() string {
	return m.Bits.String()
}

// Pattern is a named search needle with the results of its latest search
type Pattern struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Format     Format `json:"format"`
	Input      string `json:"input"`
	MaxGarbles int    `json:"max_garbles"`

	needle  *bits.Buffer
	matches []Match
}

// New compiles a pattern. It fails when input is not valid in the given format.
func New(name string, format Format, input string, maxGarbles int) (*Pattern, error) {
	needle, err := Compile(format, input)
	if err != nil {
		return nil, err
	}
	if maxGarbles < 0 {
		maxGarbles = 0
	}
	return &Pattern{
		ID:         uuid.New().String(),
		Name:       name,
		Format:     format,
		Input:      input,
		MaxGarbles: maxGarbles,
		needle:     needle,
	}, nil
}

// Update recompiles the needle from a new format and input. On failure the
// pattern keeps its previous state. Matches are always cleared on success.
func (p *Pattern) Update(format Format, input string) error {
	needle, err := Compile(format, input)
	if err != nil {
		return err
	}
	p.Format = format
	p.Input = input
	p.needle = needle
	p.matches = nil
	return nil
}

// Needle returns the compiled bit needle
func (p *Pattern) Needle() *bits.Buffer {
	return p.needle
}

// Matches returns the results of the most recent search
func (p *Pattern) Matches() []Match {
	return p.matches
}

// ClearMatches drops stale results, e.g. after the searched buffer changed
func (p *Pattern) ClearMatches() {
	p.matches = nil
}

// Search replaces the stored matches with a fresh scan of haystack
func (p *Pattern) Search(haystack *bits.Buffer) []Match {
	p.matches = Find(haystack, p.needle, p.MaxGarbles)
	return p.matches
}

// Compile converts input in the given format into a bit needle
func Compile(format Format, input string) (*bits.Buffer, error) {
	switch format {
	case FormatHex:
		return parseHex(input)
	case FormatASCII:
		return parseASCII(input)
	case FormatBits:
		return parseBits(input)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidPattern, format)
	}
}

func parseHex(input string) (*bits.Buffer, error) {
	s := strings.TrimSpace(input)
	if len(s) < 2 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return nil, fmt.Errorf("%w: hex pattern must start with 0x", ErrInvalidPattern)
	}
	digits := s[2:]
	if digits == "" {
		return nil, fmt.Errorf("%w: hex pattern is empty", ErrInvalidPattern)
	}

	buf := bits.New(len(digits) * 4)
	for _, c := range digits {
		v, ok := hexValue(c)
		if !ok {
			return nil, fmt.Errorf("%w: invalid hex character: %q", ErrInvalidPattern, c)
		}
		for shift := 3; shift >= 0; shift-- {
			buf.Push(v>>uint(shift)&1 == 1)
		}
	}
	return buf, nil
}

func hexValue(c rune) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return byte(c - '0'), true
	case c >= 'a' && c <= 'f':
		return byte(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return byte(c-'A') + 10, true
	}
	return 0, false
}

func parseASCII(input string) (*bits.Buffer, error) {
	if input == "" {
		return nil, fmt.Errorf("%w: ascii pattern is empty", ErrInvalidPattern)
	}
	return bits.FromBytes([]byte(input)), nil
}

func parseBits(input string) (*bits.Buffer, error) {
	s := strings.TrimSpace(input)
	buf := bits.New(len(s))
	for _, c := range s {
		switch c {
		case '0':
			buf.Push(false)
		case '1':
			buf.Push(true)
		case ' ', '_':
		default:
			return nil, fmt.Errorf("%w: invalid bit character: %q", ErrInvalidPattern, c)
		}
	}
	if buf.IsEmpty() {
		return nil, fmt.Errorf("%w: bit pattern is empty", ErrInvalidPattern)
	}
	return buf, nil
}
