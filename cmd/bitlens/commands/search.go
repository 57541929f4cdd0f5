/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: search.go
Description: Search command implementation. Locates a hex, ASCII or bit pattern in a
file, optionally after running a stage pipeline, within a mismatch tolerance.
*/

package commands

import (
	"fmt"

	"github.com/kleascm/bitlens/pkg/pattern"
	"github.com/spf13/cobra"
)

// RunSearch searches the file named by args[0] for --pattern
func RunSearch(cmd *cobra.Command, args []string) error {
	logger, collector, err := prepare()
	if err != nil {
		return err
	}
	defer finish(logger, collector)

	flags := cmd.Flags()
	input, _ := flags.GetString("pattern")
	formatName, _ := flags.GetString("format")
	garbles, _ := flags.GetInt("garbles")
	limit, _ := flags.GetInt("limit")
	specs, _ := flags.GetStringArray("stage")

	format, err := pattern.ParseFormat(formatName)
	if err != nil {
		return err
	}
	p, err := pattern.New(input, format, input, garbles)
	if err != nil {
		return err
	}
	ops, err := ParseStages(specs)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	haystack, err := loadInput(ctx, args[0], logger, collector)
	if err != nil {
		return err
	}

	if len(ops) > 0 {
		result, err := runStages(ctx, ops, haystack, logger.GetLogger(), newStageObserver(logger, collector))
		if err != nil {
			return err
		}
		printStageErrors(result)
		haystack = result.Bits
	}

	fmt.Printf("🔍 Searching %d bits for %s %q (%d bits, up to %d mismatches)\n",
		haystack.Len(), p.Format, p.Input, p.Needle().Len(), p.MaxGarbles)

	matches := p.Search(haystack)
	logger.LogSearch(p.Name, len(matches))
	collector.ObserveSearch(len(matches))

	if len(matches) == 0 {
		fmt.Println("📭 No matches.")
		return nil
	}

	fmt.Printf("✅ %d match(es)\n\n", len(matches))
	fmt.Printf("  %10s  %10s  %4s  %s\n", "position", "delta", "miss", "bits")
	for i, m := range matches {
		if limit > 0 && i == limit {
			fmt.Printf("  ... %d more\n", len(matches)-limit)
			break
		}
		fmt.Printf("  %10d  %10d  %4d  %s\n", m.Position, m.Delta, m.Mismatches, m.BitsString())
	}
	return nil
}
