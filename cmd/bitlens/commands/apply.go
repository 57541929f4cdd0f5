/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: apply.go
Description: Apply command implementation. Runs a stage pipeline over one input file,
prints per-stage failures and renders or writes the resulting bits.
*/

package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/kleascm/bitlens/pkg/bits"
	"github.com/kleascm/bitlens/pkg/pipeline"
	"github.com/kleascm/bitlens/pkg/render"
	"github.com/kleascm/bitlens/pkg/storage"
	"github.com/kleascm/bitlens/pkg/workspace"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunApply runs the --stage pipeline over the file named by args[0]
func RunApply(cmd *cobra.Command, args []string) error {
	logger, collector, err := prepare()
	if err != nil {
		return err
	}
	defer finish(logger, collector)

	specs, _ := cmd.Flags().GetStringArray("stage")
	ops, err := ParseStages(specs)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	input, err := loadInput(ctx, args[0], logger, collector)
	if err != nil {
		return err
	}

	fmt.Printf("🔧 Applying %d stage(s) to %s (%d bits)\n", len(ops), args[0], input.Len())
	result, err := runStages(ctx, ops, input, logger.GetLogger(), newStageObserver(logger, collector))
	if err != nil {
		return err
	}

	printStageErrors(result)
	fmt.Printf("✅ Output: %d bits\n", result.Bits.Len())
	fmt.Println()

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		if err := storage.WriteFile(output, result.Bits); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		fmt.Printf("💾 Wrote %s\n", output)
		return nil
	}

	return renderFromFlags(cmd, result.Bits)
}

// runStages evaluates ops on the background worker and prints its progress
func runStages(ctx context.Context, ops []pipeline.BitOperation, input *bits.Buffer, log logrus.FieldLogger, observer pipeline.Observer) (*pipeline.Result, error) {
	runner := &pipeline.Runner{Loader: storage.ReadBytes, Observer: observer}
	worker := workspace.NewWorker(runner, log)

	progress, completion := worker.Start(ctx, ops, pipeline.Input{Initial: input})
	for p := range progress {
		fmt.Printf("   [%d/%d] %s\n", p.Stage, p.Total, p.Description)
	}

	done, ok := <-completion
	if !ok {
		return nil, fmt.Errorf("pipeline cancelled: %w", ctx.Err())
	}
	return done.Result, nil
}

func printStageErrors(result *pipeline.Result) {
	for _, stageErr := range result.Errors {
		fmt.Printf("❌ %v\n", stageErr)
	}
}

// renderFromFlags prints buf with the --view, --width, --offset and --rows flags
func renderFromFlags(cmd *cobra.Command, buf *bits.Buffer) error {
	viewName, _ := cmd.Flags().GetString("view")
	view, err := render.ParseView(viewName)
	if err != nil {
		return err
	}

	// the configured frame width is in bits; byte views keep their own default
	var opts render.Options
	if view == render.ViewBits {
		opts.Width = viper.GetInt("view.frame_width")
	}
	for name, target := range map[string]*int{"width": &opts.Width, "offset": &opts.Offset, "rows": &opts.Rows} {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if *target, err = ParseCount(name, flag.Value.String()); err != nil {
			return err
		}
	}

	return render.Render(os.Stdout, buf, view, opts)
}
