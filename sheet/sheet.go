// Package sheet 串联布局与渲染，产出可下载的标签 PDF。
package sheet

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ByLCY/inventario/layout"
	"github.com/ByLCY/inventario/renderer"
	canvasrenderer "github.com/ByLCY/inventario/renderer/canvas"
)

const (
	FileName        = "etiquetas.pdf"
	ReprintFileName = "etiquetas_reimp.pdf"
	MIMEType        = "application/pdf"
)

// Document 是一次合成的产物。
type Document struct {
	Bytes    []byte
	FileName string
	MIMEType string
	Pages    int
	Cells    int
	Logo     layout.LogoState
}

// Compositor 不在调用之间保存状态，可被多个会话共享。
type Compositor struct {
	renderer renderer.Renderer
	grid     *layout.Grid
	logger   *zap.Logger
}

// Option 配置 Compositor。
type Option func(*Compositor)

// WithRenderer 替换默认的 canvas 渲染器。
func WithRenderer(r renderer.Renderer) Option {
	return func(c *Compositor) { c.renderer = r }
}

// WithGrid 使用自定义网格。
func WithGrid(g layout.Grid) Option {
	return func(c *Compositor) { c.grid = &g }
}

// WithLogger 设置日志记录器。
func WithLogger(l *zap.Logger) Option {
	return func(c *Compositor) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCompositor 创建合成器。
func NewCompositor(opts ...Option) *Compositor {
	c := &Compositor{
		renderer: canvasrenderer.NewRenderer(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Layout 只计算排版，不生成 PDF。
func (c *Compositor) Layout(records []layout.Record, cfg layout.LabelConfig) (*layout.Result, error) {
	result, err := layout.Build(records, cfg, layout.BuildOptions{Grid: c.grid})
	if err != nil {
		return nil, fmt.Errorf("布局计算失败: %w", err)
	}
	if result.Logo == layout.LogoDegraded {
		c.logger.Warn("logo could not be decoded, labels composed without it",
			zap.Int("logo_bytes", len(cfg.Logo)))
	}
	return result, nil
}

// Compose 把记录排成标签页并渲染为 PDF。空输入得到一页空白文档。
func (c *Compositor) Compose(records []layout.Record, cfg layout.LabelConfig) (Document, error) {
	result, err := c.Layout(records, cfg)
	if err != nil {
		return Document{}, err
	}
	data, err := c.renderer.Render(result)
	if err != nil {
		return Document{}, fmt.Errorf("渲染 PDF 失败: %w", err)
	}

	doc := Document{
		Bytes:    data,
		FileName: FileName,
		MIMEType: MIMEType,
		Pages:    len(result.Pages),
		Cells:    len(records),
		Logo:     result.Logo,
	}
	c.logger.Debug("label sheet composed",
		zap.Int("pages", doc.Pages),
		zap.Int("cells", doc.Cells),
		zap.String("logo", string(doc.Logo)),
		zap.Int("bytes", len(doc.Bytes)))
	return doc, nil
}

// Reprint 与 Compose 相同，但使用重印文件名。
func (c *Compositor) Reprint(records []layout.Record, cfg layout.LabelConfig) (Document, error) {
	doc, err := c.Compose(records, cfg)
	if err != nil {
		return Document{}, err
	}
	doc.FileName = ReprintFileName
	return doc, nil
}
