/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: pipeline_test.go
Description: Unit tests for pipeline stages, the Runner and the JSON stage codec.
*/

package pipeline_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/kleascm/bitlens/pkg/bits"
	"github.com/kleascm/bitlens/pkg/interleaver"
	"github.com/kleascm/bitlens/pkg/operations"
	"github.com/kleascm/bitlens/pkg/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	completed []string
	failed    []string
}

func (r *recordingObserver) StageCompleted(op pipeline.BitOperation, _ time.Duration, _ int) {
	r.completed = append(r.completed, op.Name())
}

func (r *recordingObserver) StageFailed(op pipeline.BitOperation, _ error) {
	r.failed = append(r.failed, op.Name())
}

func mapLoader(files map[string][]byte) pipeline.ByteLoader {
	return func(_ context.Context, path string) ([]byte, error) {
		data, ok := files[path]
		if !ok {
			return nil, os.ErrNotExist
		}
		return data, nil
	}
}

func run(t *testing.T, r *pipeline.Runner, ops []pipeline.BitOperation, in pipeline.Input) *pipeline.Result {
	t.Helper()
	result, err := r.Run(context.Background(), ops, in)
	require.NoError(t, err)
	return result
}

// TestDescriptions tests the stage descriptions
func TestDescriptions(t *testing.T) {
	cases := []struct {
		op   pipeline.BitOperation
		want string
	}{
		{pipeline.NewInvertBits("inv"), "Inverts all bits"},
		{pipeline.NewLoadFile("load", "/tmp/captures/test.bin"), "Load: test.bin"},
		{pipeline.NewTruncateBits("cut", 8, 64), "Keep bits 8-64"},
		{pipeline.NewTakeSkipSequence("ts", operations.MustParseSequence("T4s4")), "t4s4"},
		{pipeline.NewInterleaveBits("blk", interleaver.NewBlock(8, 4, interleaver.Interleave)), "Block 8×4 Interleave"},
		{pipeline.NewInterleaveBits("conv", interleaver.NewConvolutional(3, 2, interleaver.Deinterleave)), "Conv B=3 M=2 Deinterleave"},
		{pipeline.NewInterleaveBits("sym", interleaver.NewSymbol(8, 2, 4, interleaver.Interleave)), "Symbol 2×4 (8bit) Interleave"},
		{pipeline.NewMultiWorksheetLoad("multi",
			pipeline.WorksheetSequence{WorksheetIndex: 1, Sequence: operations.MustParseSequence("t8")},
			pipeline.WorksheetSequence{WorksheetIndex: 2, Sequence: operations.MustParseSequence("t8")},
		), "Load from 2 worksheet(s)"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.op.Description())
		assert.True(t, tc.op.Enabled())
	}
}

// TestTruncateClampsBounds tests that truncation clamps its bounds to the input
func TestTruncateClampsBounds(t *testing.T) {
	input := bits.MustParse("1011001110")
	assert.Equal(t, "1100", pipeline.NewTruncateBits("t", 2, 6).Transform(input).String())
	assert.Equal(t, "110", pipeline.NewTruncateBits("t", 7, 100).Transform(input).String())
	assert.True(t, pipeline.NewTruncateBits("t", 6, 6).Transform(input).IsEmpty())
	assert.True(t, pipeline.NewTruncateBits("t", 8, 3).Transform(input).IsEmpty())
	assert.True(t, pipeline.NewTruncateBits("t", 50, 90).Transform(input).IsEmpty())
}

// TestInvertTwiceIsIdentity tests that two invert stages cancel out
func TestInvertTwiceIsIdentity(t *testing.T) {
	input := bits.MustParse("1010011")
	inv := pipeline.NewInvertBits("inv")
	assert.True(t, inv.Transform(inv.Transform(input)).Equal(input))
}

// TestRunAppliesEnabledStagesInOrder tests that only enabled stages run and in list order
func TestRunAppliesEnabledStagesInOrder(t *testing.T) {
	disabled := pipeline.NewInvertBits("skipped")
	disabled.SetEnabled(false)

	ops := []pipeline.BitOperation{
		pipeline.NewTakeSkipSequence("odd", operations.MustParseSequence("t1s1")),
		disabled,
		pipeline.NewTruncateBits("first three", 0, 3),
	}

	var progress []pipeline.Progress
	observer := &recordingObserver{}
	r := &pipeline.Runner{Observer: observer, OnProgress: func(p pipeline.Progress) { progress = append(progress, p) }}

	result := run(t, r, ops, pipeline.Input{Initial: bits.MustParse("11001100")})
	assert.Equal(t, "101", result.Bits.String())
	assert.False(t, result.FromScratch)
	assert.NoError(t, result.Err())
	assert.Equal(t, []string{"odd", "first three"}, observer.completed)
	require.Len(t, progress, 2)
	assert.Equal(t, pipeline.Progress{Stage: 2, Total: 2, Description: "Keep bits 0-3"}, progress[1])
}

// TestRunWithoutStagesCopiesInitial tests that an empty pipeline returns a copy of its input
func TestRunWithoutStagesCopiesInitial(t *testing.T) {
	initial := bits.MustParse("1001")
	result := run(t, &pipeline.Runner{}, nil, pipeline.Input{Initial: initial})
	assert.True(t, result.Bits.Equal(initial))

	result = run(t, &pipeline.Runner{}, nil, pipeline.Input{})
	assert.True(t, result.Bits.IsEmpty())
}

// TestRunLoadModeStartsFromScratch tests that a loader stage discards the initial buffer
func TestRunLoadModeStartsFromScratch(t *testing.T) {
	r := &pipeline.Runner{Loader: mapLoader(map[string][]byte{
		"a.bin": {0xF0},
		"b.bin": {0x0F},
	})}
	ops := []pipeline.BitOperation{
		pipeline.NewLoadFile("a", "a.bin"),
		pipeline.NewInvertBits("inv"),
		pipeline.NewLoadFile("b", "b.bin"),
	}

	result := run(t, r, ops, pipeline.Input{Initial: bits.MustParse("1111")})
	assert.True(t, result.FromScratch)
	assert.Equal(t, []byte{0x0F, 0x0F}, result.Bits.Bytes())
}

// TestRunIsBestEffort tests that a failing stage is recorded and later stages still run
func TestRunIsBestEffort(t *testing.T) {
	observer := &recordingObserver{}
	r := &pipeline.Runner{Loader: mapLoader(map[string][]byte{"ok.bin": {0xAA}}), Observer: observer}
	ops := []pipeline.BitOperation{
		pipeline.NewLoadFile("missing", "missing.bin"),
		pipeline.NewLoadFile("present", "ok.bin"),
		pipeline.NewTruncateBits("cut", 0, 4),
	}

	result := run(t, r, ops, pipeline.Input{})
	assert.Equal(t, "1010", result.Bits.String())
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 0, result.Errors[0].Index)
	assert.Equal(t, "missing", result.Errors[0].Name)
	assert.True(t, errors.Is(result.Err(), os.ErrNotExist))
	assert.Equal(t, []string{"missing"}, observer.failed)
	assert.Equal(t, []string{"present", "cut"}, observer.completed)
}

// TestRunLoadFileWithoutLoaderFails tests that a file load stage fails without a loader
func TestRunLoadFileWithoutLoaderFails(t *testing.T) {
	result := run(t, &pipeline.Runner{}, []pipeline.BitOperation{pipeline.NewLoadFile("f", "x.bin")}, pipeline.Input{})
	require.Len(t, result.Errors, 1)
	assert.True(t, result.Bits.IsEmpty())
}

// TestMultiWorksheetLoad tests loading from several worksheets with their own sequences
func TestMultiWorksheetLoad(t *testing.T) {
	sources := map[int]*bits.Buffer{
		0: bits.MustParse("11110000"),
		1: bits.MustParse("10101010"),
		2: bits.MustParse("00110011"),
		3: nil,
	}
	op := pipeline.NewMultiWorksheetLoad("multi",
		pipeline.WorksheetSequence{WorksheetIndex: 0, Sequence: operations.MustParseSequence("t4s4")},
		pipeline.WorksheetSequence{WorksheetIndex: 1, Sequence: operations.MustParseSequence("t8")},
		pipeline.WorksheetSequence{WorksheetIndex: 3, Sequence: operations.MustParseSequence("t8")},
		pipeline.WorksheetSequence{WorksheetIndex: 2, Sequence: operations.MustParseSequence("s6t2")},
	)

	// worksheet 1 is the one being evaluated, so it is not read as a source
	result := run(t, &pipeline.Runner{}, []pipeline.BitOperation{op}, pipeline.Input{Worksheets: sources, Current: 1})
	assert.NoError(t, result.Err())
	assert.Equal(t, "111111", result.Bits.String())
}

// TestMultiWorksheetLoadOutOfRange tests that a missing worksheet index fails the stage
func TestMultiWorksheetLoadOutOfRange(t *testing.T) {
	op := pipeline.NewMultiWorksheetLoad("multi",
		pipeline.WorksheetSequence{WorksheetIndex: 0, Sequence: operations.MustParseSequence("t2")},
		pipeline.WorksheetSequence{WorksheetIndex: 9, Sequence: operations.MustParseSequence("t2")},
	)
	ops := []pipeline.BitOperation{op, pipeline.NewInvertBits("inv")}

	result := run(t, &pipeline.Runner{}, ops, pipeline.Input{
		Worksheets: map[int]*bits.Buffer{0: bits.MustParse("1111")},
		Current:    5,
	})
	require.Len(t, result.Errors, 1)
	assert.ErrorIs(t, result.Errors[0], pipeline.ErrWorksheetOutOfRange)
	assert.True(t, result.Bits.IsEmpty())
}

// TestMultiWorksheetLoadUnreadableSource tests that a source whose file failed to
// load fails the stage instead of being skipped
func TestMultiWorksheetLoadUnreadableSource(t *testing.T) {
	op := pipeline.NewMultiWorksheetLoad("multi",
		pipeline.WorksheetSequence{WorksheetIndex: 0, Sequence: operations.MustParseSequence("t8")},
		pipeline.WorksheetSequence{WorksheetIndex: 1, Sequence: operations.MustParseSequence("t8")},
	)

	result := run(t, &pipeline.Runner{}, []pipeline.BitOperation{op}, pipeline.Input{
		Worksheets: map[int]*bits.Buffer{0: bits.MustParse("11110000"), 1: nil},
		Failed:     map[int]error{1: os.ErrNotExist},
		Current:    2,
	})
	require.Len(t, result.Errors, 1)
	assert.ErrorIs(t, result.Errors[0], os.ErrNotExist)
	assert.Contains(t, result.Errors[0].Error(), "worksheet 1")
	assert.True(t, result.Bits.IsEmpty())
}

// TestRunHonoursCancellation tests that a cancelled context stops the run
func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&pipeline.Runner{}).Run(ctx, []pipeline.BitOperation{pipeline.NewInvertBits("inv")}, pipeline.Input{})
	assert.ErrorIs(t, err, context.Canceled)
}

// TestCodecRoundTrip tests encoding and decoding a stage list
func TestCodecRoundTrip(t *testing.T) {
	disabled := pipeline.NewTruncateBits("cut", 0, 800)
	disabled.SetEnabled(false)

	ops := []pipeline.BitOperation{
		pipeline.NewLoadFile("load", "captures/a.bin"),
		pipeline.NewTakeSkipSequence("ts", operations.MustParseSequence("t4r3i8s1")),
		pipeline.NewInvertBits("inv"),
		disabled,
		pipeline.NewInterleaveBits("blk", interleaver.NewBlock(8, 4, interleaver.Deinterleave)),
		pipeline.NewInterleaveBits("conv", interleaver.NewConvolutional(4, 2, interleaver.Interleave)),
		pipeline.NewInterleaveBits("sym", interleaver.NewSymbol(8, 2, 4, interleaver.Deinterleave)),
		pipeline.NewMultiWorksheetLoad("multi", pipeline.WorksheetSequence{WorksheetIndex: 2, Sequence: operations.MustParseSequence("t16s16")}),
	}

	data, err := pipeline.EncodeOperations(ops)
	require.NoError(t, err)

	back, err := pipeline.DecodeOperations(data)
	require.NoError(t, err)
	require.Len(t, back, len(ops))
	for i := range ops {
		assert.Equal(t, ops[i].Type(), back[i].Type())
		assert.Equal(t, ops[i].Name(), back[i].Name())
		assert.Equal(t, ops[i].Enabled(), back[i].Enabled())
		assert.Equal(t, ops[i].Description(), back[i].Description())
	}

	multi := back[7].(*pipeline.MultiWorksheetLoad)
	assert.Equal(t, 2, multi.Sources[0].WorksheetIndex)
	assert.Equal(t, "t16s16", multi.Sources[0].Sequence.String())
}

// TestDecodeRejectsBadRecords tests that unknown or malformed stage records fail to decode
func TestDecodeRejectsBadRecords(t *testing.T) {
	_, err := pipeline.DecodeOperations([]byte(`[{"type":"take_skip","name":"x","sequence":"q1"}]`))
	assert.Error(t, err)

	_, err = pipeline.DecodeOperations([]byte(`[{"type":"interleave","name":"x","interleaver":"block"}]`))
	assert.Error(t, err)

	_, err = pipeline.DecodeOperations([]byte(`[{"type":"teleport","name":"x"}]`))
	assert.Error(t, err)

	_, err = pipeline.DecodeOperations([]byte(`not json`))
	assert.Error(t, err)
}
