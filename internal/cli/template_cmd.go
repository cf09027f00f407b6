package cli

import (
	"fmt"
	"os"

	"github.com/limaJavier/timetableplus/pkg/input"

	"github.com/spf13/cobra"
)

func newTemplateCmd(app *App) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an empty XLSX input workbook",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			file, err := os.Create(out)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := file.Close(); err == nil {
					err = closeErr
				}
			}()

			if err := input.WriteTemplate(file); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s: fill in the %q sheet and run \"timetable solve --file %s\"\n", out, input.SubjectsSheet, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "subjects.xlsx", "Workbook path")

	return cmd
}
