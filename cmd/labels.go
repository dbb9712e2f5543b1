package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ByLCY/inventario/dsl"
	"github.com/ByLCY/inventario/inventory"
	"github.com/ByLCY/inventario/layout"
	"github.com/ByLCY/inventario/session"
	"github.com/ByLCY/inventario/sheet"
	"github.com/ByLCY/inventario/store"
)

type labelsOptions struct {
	output string
	design string
	debug  string
	search string
	tags   []string
}

var labelsOpts labelsOptions

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Compose a PDF label sheet from the inventory",
	Example: `  inventario labels --out etiquetas.pdf
  inventario labels --tag TAG-2026-0001 --tag TAG-2026-0002
  inventario labels --search financeiro --design etiqueta.design --debug-json layout.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openStore()
		if err != nil {
			return err
		}
		defer repo.Close()

		if err := runLabels(repo, sheet.NewCompositor(sheet.WithLogger(logger)), labelsOpts); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "已生成 PDF：%s\n", labelsOpts.output)
		return nil
	},
}

func init() {
	f := labelsCmd.Flags()
	f.StringVarP(&labelsOpts.output, "out", "o", sheet.FileName, "PDF 输出路径")
	f.StringVar(&labelsOpts.design, "design", "", "标签设计文件路径")
	f.StringVar(&labelsOpts.debug, "debug-json", "", "布局调试 JSON 输出路径")
	f.StringVarP(&labelsOpts.search, "search", "s", "", "只包含匹配关键字的资产")
	f.StringArrayVarP(&labelsOpts.tags, "tag", "t", nil, "只包含指定编号的资产（可重复）")
}

// runLabels 串联选择、布局与渲染。
func runLabels(st store.AssetStore, c *sheet.Compositor, opts labelsOptions) error {
	design := session.DefaultDesign()
	if opts.design != "" {
		var err error
		if design, err = dsl.Load(opts.design); err != nil {
			return err
		}
	}

	assets, err := selectAssets(st, opts.search, opts.tags)
	if err != nil {
		return err
	}
	records := inventory.Records(assets)

	if opts.debug != "" {
		result, err := c.Layout(records, design)
		if err != nil {
			return err
		}
		if err := writeDebug(result, opts.debug); err != nil {
			return err
		}
	}

	doc, err := c.Compose(records, design)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(opts.output), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(opts.output, doc.Bytes, 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	return nil
}

// selectAssets 优先按编号选择，其次按关键字，否则返回全部。
func selectAssets(st store.AssetStore, search string, tags []string) ([]inventory.Asset, error) {
	switch {
	case len(tags) > 0:
		return st.GetMany(tags)
	case search != "":
		return st.Search(search)
	default:
		return st.ListAll()
	}
}

func writeDebug(result *layout.Result, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(result, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}
