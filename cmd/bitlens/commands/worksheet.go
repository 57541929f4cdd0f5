/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: worksheet.go
Description: Worksheet command implementations. Manages the worksheets, stage lists
and patterns kept in the sqlite session file, and runs a worksheet's pipeline with
the sources of the other worksheets available to multi-worksheet loads.
*/

package commands

import (
	"fmt"

	"github.com/kleascm/bitlens/pkg/logging"
	"github.com/kleascm/bitlens/pkg/metrics"
	"github.com/kleascm/bitlens/pkg/pattern"
	"github.com/kleascm/bitlens/pkg/pipeline"
	"github.com/kleascm/bitlens/pkg/storage"
	"github.com/kleascm/bitlens/pkg/workspace"
	"github.com/spf13/cobra"
)

// sessionCommand opens the session file around fn and saves it when fn succeeds
// and save is set
func sessionCommand(save bool, fn func(cmd *cobra.Command, args []string, env *sessionEnv) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		logger, collector, err := prepare()
		if err != nil {
			return err
		}
		defer finish(logger, collector)

		db, err := openStore(logger)
		if err != nil {
			return err
		}
		defer db.Close()

		session, err := workspace.Load(db, logger.GetLogger())
		if err != nil {
			return fmt.Errorf("failed to load session: %w", err)
		}

		env := &sessionEnv{logger: logger, collector: collector, session: session}
		if err := fn(cmd, args, env); err != nil {
			return err
		}
		if !save {
			return nil
		}
		return workspace.Save(db, session)
	}
}

type sessionEnv struct {
	logger    *logging.Logger
	collector *metrics.Collector
	session   *workspace.Session
}

// RunWorksheetAdd creates a worksheet with an optional source file and stages
var RunWorksheetAdd = sessionCommand(true, func(cmd *cobra.Command, args []string, env *sessionEnv) error {
	file, _ := cmd.Flags().GetString("file")
	specs, _ := cmd.Flags().GetStringArray("stage")

	ops, err := ParseStages(specs)
	if err != nil {
		return err
	}
	ws, err := env.session.AddWorksheet(args[0], file)
	if err != nil {
		return err
	}
	for _, op := range ops {
		ws.AddOperation(op)
	}

	fmt.Printf("✅ Added worksheet %d: %s (%d stage(s))\n", len(env.session.Worksheets)-1, ws.Name, len(ws.Operations))
	return nil
})

// RunWorksheetStage appends stages to an existing worksheet
var RunWorksheetStage = sessionCommand(true, func(cmd *cobra.Command, args []string, env *sessionEnv) error {
	_, ws, err := env.session.Lookup(args[0])
	if err != nil {
		return err
	}
	ops, err := ParseStages(args[1:])
	if err != nil {
		return err
	}
	for _, op := range ops {
		ws.AddOperation(op)
	}
	fmt.Printf("✅ %s now has %d stage(s)\n", ws.Name, len(ws.Operations))
	return nil
})

// RunWorksheetToggle flips the enabled flag of one stage
var RunWorksheetToggle = sessionCommand(true, func(cmd *cobra.Command, args []string, env *sessionEnv) error {
	_, ws, err := env.session.Lookup(args[0])
	if err != nil {
		return err
	}
	index, err := ParseCount("stage index", args[1])
	if err != nil {
		return err
	}
	enabled, err := ws.ToggleOperation(index)
	if err != nil {
		return err
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Printf("✅ Stage %d of %s %s\n", index, ws.Name, state)
	return nil
})

// RunWorksheetList prints every worksheet in order
var RunWorksheetList = sessionCommand(false, func(cmd *cobra.Command, args []string, env *sessionEnv) error {
	if len(env.session.Worksheets) == 0 {
		fmt.Println("📭 No worksheets.")
		return nil
	}
	for i, ws := range env.session.Worksheets {
		marker := " "
		if i == env.session.Current {
			marker = "*"
		}
		file := ws.FilePath
		if file == "" {
			file = "-"
		}
		fmt.Printf("%s %2d  %-20s %-30s %d/%d stage(s)  %d pattern(s)\n",
			marker, i, ws.Name, file, ws.EnabledCount(), len(ws.Operations), len(ws.Patterns))
	}
	return nil
})

// RunWorksheetShow prints one worksheet's stages and patterns
var RunWorksheetShow = sessionCommand(false, func(cmd *cobra.Command, args []string, env *sessionEnv) error {
	index, ws, err := env.session.Lookup(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("📄 Worksheet %d: %s\n", index, ws.Name)
	if ws.FilePath != "" {
		fmt.Printf("   Source: %s\n", ws.FilePath)
	}
	fmt.Println()

	fmt.Println("   Stages:")
	for i, op := range ws.Operations {
		state := "on "
		if !op.Enabled() {
			state = "off"
		}
		fmt.Printf("   %2d. [%s] %-24s %s\n", i, state, op.Name(), op.Description())
	}
	if len(ws.Patterns) > 0 {
		fmt.Println()
		fmt.Println("   Patterns:")
		for _, p := range ws.Patterns {
			fmt.Printf("   - %s: %s %q (garbles %d)\n", p.Name, p.Format, p.Input, p.MaxGarbles)
		}
	}
	return nil
})

// RunWorksheetRemove deletes a worksheet
var RunWorksheetRemove = sessionCommand(true, func(cmd *cobra.Command, args []string, env *sessionEnv) error {
	if err := env.session.RemoveWorksheet(args[0]); err != nil {
		return err
	}
	fmt.Printf("🗑️  Removed worksheet %s\n", args[0])
	return nil
})

// RunWorksheetPatternAdd attaches a search pattern to a worksheet
var RunWorksheetPatternAdd = sessionCommand(true, func(cmd *cobra.Command, args []string, env *sessionEnv) error {
	_, ws, err := env.session.Lookup(args[0])
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	name, _ := flags.GetString("name")
	formatName, _ := flags.GetString("format")
	input, _ := flags.GetString("input")
	garbles, _ := flags.GetInt("garbles")

	format, err := pattern.ParseFormat(formatName)
	if err != nil {
		return err
	}
	if name == "" {
		name = input
	}
	p, err := pattern.New(name, format, input, garbles)
	if err != nil {
		return err
	}
	ws.AddPattern(p)

	fmt.Printf("✅ Pattern %s added to %s (%d bits)\n", p.Name, ws.Name, p.Needle().Len())
	return nil
})

// RunWorksheetRun evaluates a worksheet, searches its patterns and makes it current
var RunWorksheetRun = sessionCommand(true, func(cmd *cobra.Command, args []string, env *sessionEnv) error {
	index, ws, err := env.session.Lookup(args[0])
	if err != nil {
		return err
	}
	if err := env.session.Select(index); err != nil {
		return err
	}

	fmt.Printf("🚀 Running worksheet %s (%d of %d stage(s) enabled)\n", ws.Name, ws.EnabledCount(), len(ws.Operations))
	runner := &pipeline.Runner{
		Loader:   storage.ReadBytes,
		Observer: newStageObserver(env.logger, env.collector),
		OnProgress: func(p pipeline.Progress) {
			fmt.Printf("   [%d/%d] %s\n", p.Stage, p.Total, p.Description)
		},
	}
	result, err := env.session.Run(cmd.Context(), index, runner)
	if err != nil {
		return err
	}

	printStageErrors(result)
	fmt.Printf("✅ Output: %d bits\n", result.Bits.Len())

	for _, p := range ws.Patterns {
		matches := p.Matches()
		env.logger.LogSearch(p.Name, len(matches))
		env.collector.ObserveSearch(len(matches))
		fmt.Printf("🔍 %s: %d match(es)", p.Name, len(matches))
		if len(matches) > 0 {
			fmt.Printf(", first at bit %d", matches[0].Position)
		}
		fmt.Println()
	}

	if output, _ := cmd.Flags().GetString("output"); output != "" {
		if err := storage.WriteFile(output, result.Bits); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		fmt.Printf("💾 Wrote %s\n", output)
	}
	return nil
})
