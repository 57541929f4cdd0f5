/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: dump.go
Description: Dump command implementation. Renders a file as a bit grid, hex dump or
ASCII view.
*/

package commands

import (
	"github.com/spf13/cobra"
)

// RunDump renders the file named by args[0]
func RunDump(cmd *cobra.Command, args []string) error {
	logger, collector, err := prepare()
	if err != nil {
		return err
	}
	defer finish(logger, collector)

	buf, err := loadInput(cmd.Context(), args[0], logger, collector)
	if err != nil {
		return err
	}
	return renderFromFlags(cmd, buf)
}
