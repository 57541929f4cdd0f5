/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: stages_test.go
Description: Tests for stage spec parsing.
*/

package commands_test

import (
	"context"
	"testing"

	"github.com/kleascm/bitlens/cmd/bitlens/commands"
	"github.com/kleascm/bitlens/pkg/bits"
	"github.com/kleascm/bitlens/pkg/interleaver"
	"github.com/kleascm/bitlens/pkg/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseStageKinds tests parsing every stage spec kind
func TestParseStageKinds(t *testing.T) {
	cases := []struct {
		spec string
		kind pipeline.OperationType
	}{
		{"seq=t4s4", pipeline.TypeTakeSkipSequence},
		{"invert", pipeline.TypeInvertBits},
		{"truncate=0:8*2", pipeline.TypeTruncateBits},
		{"block=8x4", pipeline.TypeInterleaveBits},
		{"conv=3x2:de", pipeline.TypeInterleaveBits},
		{"symbol=8:2x4", pipeline.TypeInterleaveBits},
		{"load=capture.bin", pipeline.TypeLoadFile},
		{"sheets=0@t8,2@s4t4", pipeline.TypeMultiWorksheetLoad},
	}
	for _, tc := range cases {
		t.Run(tc.spec, func(t *testing.T) {
			op, err := commands.ParseStage(tc.spec)
			require.NoError(t, err)
			assert.Equal(t, tc.kind, op.Type())
			assert.Equal(t, tc.spec, op.Name())
			assert.True(t, op.Enabled())
		})
	}
}

// TestParseStageValues tests the parameters carried by parsed stages
func TestParseStageValues(t *testing.T) {
	op, err := commands.ParseStage("truncate=2+2 : 8*100")
	require.NoError(t, err)
	truncate := op.(*pipeline.TruncateBits)
	assert.Equal(t, 4, truncate.Start)
	assert.Equal(t, 800, truncate.End)

	op, err = commands.ParseStage("conv=3x2:de")
	require.NoError(t, err)
	conv := op.(*pipeline.InterleaveBits).Interleaver.(interleaver.ConvolutionalConfig)
	assert.Equal(t, interleaver.NewConvolutional(3, 2, interleaver.Deinterleave), conv)

	op, err = commands.ParseStage("symbol=8:2x4:deinterleave")
	require.NoError(t, err)
	sym := op.(*pipeline.InterleaveBits).Interleaver.(interleaver.SymbolConfig)
	assert.Equal(t, interleaver.NewSymbol(8, 2, 4, interleaver.Deinterleave), sym)

	op, err = commands.ParseStage("sheets=1@t8, 3@i4")
	require.NoError(t, err)
	multi := op.(*pipeline.MultiWorksheetLoad)
	require.Len(t, multi.Sources, 2)
	assert.Equal(t, 3, multi.Sources[1].WorksheetIndex)
	assert.Equal(t, "i4", multi.Sources[1].Sequence.String())
}

// TestParseStageDisabled tests that a leading ! adds the stage disabled
func TestParseStageDisabled(t *testing.T) {
	op, err := commands.ParseStage("!invert")
	require.NoError(t, err)
	assert.False(t, op.Enabled())
	assert.Equal(t, "invert", op.Name())
}

// TestParseStageErrors tests rejection of malformed stage specs
func TestParseStageErrors(t *testing.T) {
	for _, spec := range []string{
		"rotate=3",
		"seq=t4q2",
		"truncate=8",
		"truncate=4-8:10",
		"block=8",
		"block=0x4",
		"conv=3x2:sideways",
		"symbol=2x4",
		"load=",
		"sheets=",
		"sheets=1t8",
	} {
		_, err := commands.ParseStage(spec)
		assert.Error(t, err, spec)
	}
}

// TestParsedStagesRun tests running a pipeline built from stage specs
func TestParsedStagesRun(t *testing.T) {
	ops, err := commands.ParseStages([]string{"block=2x2", "!invert", "block=2x2:de"})
	require.NoError(t, err)

	in := bits.MustParse("1011")
	result, err := (&pipeline.Runner{}).Run(context.Background(), ops, pipeline.Input{Initial: in})
	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.True(t, in.Equal(result.Bits), result.Bits.String())

	_, err = commands.ParseStages([]string{"invert", "bogus"})
	assert.ErrorContains(t, err, "stage 1")
}
