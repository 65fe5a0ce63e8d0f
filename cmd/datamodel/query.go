package main

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/syssam/datamodel/dialect/sql"
)

func newQueryCmd(root *rootOptions) *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "query <statement>",
		Short: "Run a statement on a data source and print the rows",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			src := sql.NewSources(cfg)
			defer src.Close()
			s, err := src.Session(cmd.Context(), source)
			if err != nil {
				return err
			}
			defer s.Close()
			t, err := s.Command(args[0]).Fill(cmd.Context())
			if err != nil {
				return err
			}
			out, err := pterm.DefaultTable.WithHasHeader().WithData(tableData(t)).Srender()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			fmt.Fprintf(cmd.OutOrStdout(), "(%d rows)\n", t.Len())
			return nil
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", "", "data source name (default data source when empty)")
	return cmd
}

func tableData(t *sql.Table) pterm.TableData {
	data := pterm.TableData{append([]string(nil), t.Columns...)}
	for _, row := range t.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			switch v := v.(type) {
			case nil:
				cells[i] = "NULL"
			case []byte:
				cells[i] = fmt.Sprintf("0x%X", v)
			default:
				cells[i] = fmt.Sprint(v)
			}
		}
		data = append(data, cells)
	}
	return data
}
