package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ByLCY/inventario/advisor"
)

var (
	askKey    string
	askSearch string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the generative model about the inventory",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openStore()
		if err != nil {
			return err
		}
		defer repo.Close()

		assets, err := repo.Search(askSearch)
		if err != nil {
			return err
		}
		key := askKey
		if key == "" {
			key = cfg.GeminiKey
		}
		a := advisor.New(cfg.GeminiModel, nil, logger)
		answer, err := a.Ask(cmd.Context(), key, advisor.InventoryContext(assets), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	},
}

func init() {
	askCmd.Flags().StringVar(&askKey, "key", "", "Gemini API key（默认取配置或 GEMINI_API_KEY）")
	askCmd.Flags().StringVarP(&askSearch, "search", "s", "", "只把匹配关键字的资产作为上下文")
}
