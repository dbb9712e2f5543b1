package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ByLCY/inventario/inventory"
	"github.com/ByLCY/inventario/store"
)

var (
	listSearch string
	listOutput string
	batchOpts  = inventory.DefaultBatch()
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the inventory",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openStore()
		if err != nil {
			return err
		}
		defer repo.Close()

		assets, err := repo.Search(listSearch)
		if err != nil {
			return err
		}
		return writeAssets(cmd.OutOrStdout(), assets, listOutput)
	},
}

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a batch of assets",
	Example: `  inventario add --prefix TAG-2026- --sector RH --model "Notebook Dell" --quantity 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openStore()
		if err != nil {
			return err
		}
		defer repo.Close()

		assets, inserted, err := store.RegisterBatch(repo, batchOpts)
		if err != nil {
			return err
		}
		logger.Info("batch registered", zap.Int("requested", len(assets)), zap.Int("inserted", inserted))
		fmt.Fprintf(cmd.OutOrStdout(), "%d ativos cadastrados!\n", inserted)
		return writeAssets(cmd.OutOrStdout(), assets, "table")
	},
}

func init() {
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "不区分大小写的关键字")
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "输出格式 {table|json}")

	f := addCmd.Flags()
	f.StringVar(&batchOpts.Prefix, "prefix", batchOpts.Prefix, "资产编号前缀")
	f.StringVar(&batchOpts.Sector, "sector", batchOpts.Sector, "所属部门")
	f.StringVar(&batchOpts.Model, "model", batchOpts.Model, "设备型号")
	f.IntVarP(&batchOpts.Quantity, "quantity", "n", batchOpts.Quantity, fmt.Sprintf("数量 (%d-%d)", inventory.MinBatch, inventory.MaxBatch))
}

func writeAssets(w io.Writer, assets []inventory.Asset, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(assets)
	case "table", "":
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.AppendHeader(table.Row{"PATRIMONIO", "TIPO", "MODELO", "IP", "SESSAO", "STATUS"})
		for _, a := range assets {
			t.AppendRow(table.Row{a.Tag, a.Type, a.Model, a.IP, a.Sector, a.Status})
		}
		t.SetStyle(table.StyleLight)
		t.Render()
		return nil
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
