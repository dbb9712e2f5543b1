package cmd

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ByLCY/inventario/probe"
)

var pingSearch string

var pingCmd = &cobra.Command{
	Use:   "ping [tag...]",
	Short: "Check host reachability for the given assets (all when none given)",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openStore()
		if err != nil {
			return err
		}
		defer repo.Close()

		assets, err := selectAssets(repo, pingSearch, args)
		if err != nil {
			return err
		}
		p := probe.New(probe.WithWorkers(cfg.PingWorkers), probe.WithLogger(logger))
		writePings(cmd.OutOrStdout(), p.CheckAssets(cmd.Context(), assets))
		return nil
	},
}

func init() {
	pingCmd.Flags().StringVarP(&pingSearch, "search", "s", "", "只检查匹配关键字的资产")
}

func writePings(w io.Writer, results []probe.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"PATRIMONIO", "IP", "CONEXÃO"})
	for _, r := range results {
		t.AppendRow(table.Row{r.Tag, r.IP, r.Status.Label()})
	}
	t.SetStyle(table.StyleLight)
	t.Render()
}
