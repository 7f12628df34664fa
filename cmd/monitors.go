package cmd

import (
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dominicbreuker/fsw"
	"github.com/dominicbreuker/fsw/native"
)

var monitorsCmd = &cobra.Command{
	Use:   "monitors",
	Short: "List monitor types and whether this build can use them",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := initLibrary(verbose)
		if err != nil {
			return err
		}
		renderMonitors(os.Stdout, lib)
		return nil
	},
}

// monitorRows probes every monitor type by opening and closing a session.
func monitorRows(lib *fsw.Library) [][]string {
	rows := make([][]string, 0, len(native.MonitorTypes))
	for _, mt := range native.MonitorTypes {
		available := "no"
		reason := ""
		session, err := lib.NewSession(mt)
		if err == nil {
			available = "yes"
			_ = session.Close()
		} else if status, ok := fsw.Status(err); ok {
			reason = status.String()
		} else {
			reason = err.Error()
		}
		rows = append(rows, []string{mt.String(), available, reason})
	}
	return rows
}

func renderMonitors(w io.Writer, lib *fsw.Library) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader([]string{"MONITOR", "AVAILABLE", "REASON"})
	table.AppendBulk(monitorRows(lib))
	table.Render()
}
