package layout

import (
	"fmt"
	"image"

	"github.com/ByLCY/inventario/binding"
)

// 单元格内部的固定几何（mm）与字号（pt）。
const (
	textInset       = 2.0
	textLineHeight  = 4.0
	textTopNoLogo   = 3.0
	textTopWithLogo = 10.0
	logoInset       = 2.0
	logoHeight      = 7.0
	qrSize          = 11.0
	qrOffset        = 13.0 // 自单元格右/下边缘向内
	borderWidth     = 0.2

	titleSizePt = 7.0
	tagSizePt   = 8.0
	bodySizePt  = 7.0

	FontBold    = "Bold"
	FontRegular = "Regular"

	qrTemplate = "TAG: ${tag} | SETOR: ${sector}"
)

var textColor = Color{R: 0, G: 0, B: 0}

// QRPayload 返回写入二维码的文本。
func QRPayload(rec Record) string {
	return binding.Interpolate(qrTemplate, rec.vars())
}

func (r Record) vars() map[string]string {
	return map[string]string{
		"tag":    r.Tag,
		"sector": r.Sector,
		"model":  r.Model,
	}
}

// Build 按固定网格把记录依次放入标签单元格并分页。
// 徽标无法解码时降级为无徽标排版，不会返回错误。
func Build(records []Record, cfg LabelConfig, opts BuildOptions) (*Result, error) {
	grid := opts.grid()
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	logo, err := DecodeLogo(cfg.Logo)
	state := LogoNone
	switch {
	case err != nil:
		state = LogoDegraded
		logo = nil
	case logo != nil:
		state = LogoEmbedded
	}

	collector := newPageCollector(grid)
	cursor := NewCursor(grid)
	placer := cellPlacer{grid: grid, cfg: cfg}
	placer.logoWidth, placer.logoHeight = logoSize(logo, grid)
	for i, rec := range records {
		placer.place(collector.page(cursor.Page), i, rec, cursor)
		cursor = cursor.Advance(grid)
	}

	return &Result{
		Pages: collector.pages(),
		Resources: ResourceSet{
			Fonts: map[string]FontResource{
				FontBold:    {Name: FontBold, Src: "embed:bold", Style: "bold"},
				FontRegular: {Name: FontRegular, Src: "embed:regular", Style: "regular"},
			},
			Logo: logo,
		},
		Meta: DocumentMeta{
			Title:    cfg.Title,
			Author:   cfg.CreatedBy,
			Subject:  "Etiquetas de ativos",
			Creator:  "inventario",
			Keywords: []string{"patrimonio", "etiquetas"},
		},
		Logo: state,
	}, nil
}

// logoSize 按固定高度保持宽高比；过宽时按单元格宽度等比缩小。无徽标时返回 0, 0。
func logoSize(logo image.Image, g Grid) (w, h float64) {
	if logo == nil {
		return 0, 0
	}
	b := logo.Bounds()
	w = logoHeight * float64(b.Dx()) / float64(b.Dy())
	h = logoHeight
	if maxW := g.LabelWidth - 2*logoInset; w > maxW {
		h = logoHeight * maxW / w
		w = maxW
	}
	return w, h
}

type cellPlacer struct {
	grid       Grid
	cfg        LabelConfig
	logoWidth  float64
	logoHeight float64
}

func (p cellPlacer) place(acc *pageAccumulator, index int, rec Record, cur Cursor) {
	g := p.grid
	x := cur.X(g)
	y := cur.Y

	acc.cells = append(acc.cells, Cell{
		Index:  index,
		Page:   cur.Page,
		Row:    cur.Row,
		Column: cur.Column,
		X:      x,
		Y:      y,
		Width:  g.LabelWidth,
		Height: g.LabelHeight,
		Tag:    rec.Tag,
	})
	acc.rects = append(acc.rects, Rect{
		X:           x,
		Y:           y,
		Width:       g.LabelWidth,
		Height:      g.LabelHeight,
		StrokeColor: textColor,
		StrokeWidth: borderWidth,
	})

	textY := y + textTopNoLogo
	if p.logoWidth > 0 {
		acc.images = append(acc.images, ImageBox{
			Kind:   ImageLogo,
			X:      x + logoInset,
			Y:      y + logoInset,
			Width:  p.logoWidth,
			Height: p.logoHeight,
			Cell:   index,
		})
		textY = y + textTopWithLogo
	}

	vars := rec.vars()
	lines := []struct {
		content string
		font    string
		sizePt  float64
	}{
		{binding.Interpolate(p.cfg.Title, vars), FontBold, titleSizePt},
		{fmt.Sprintf("PATRIMONIO: %s", rec.Tag), FontBold, tagSizePt},
		{fmt.Sprintf("SETOR: %s", rec.Sector), FontRegular, bodySizePt},
		{fmt.Sprintf("MODELO: %s", rec.Model), FontRegular, bodySizePt},
	}
	for _, ln := range lines {
		acc.texts = append(acc.texts, TextBox{
			Content:    ln.content,
			X:          x + textInset,
			Y:          textY,
			Width:      g.LabelWidth - 2*textInset,
			LineHeight: textLineHeight,
			Font:       ln.font,
			FontSize:   Pt(ln.sizePt),
			Color:      textColor,
			Cell:       index,
		})
		textY += textLineHeight
	}

	if p.cfg.ShowQR {
		acc.images = append(acc.images, ImageBox{
			Kind:    ImageQR,
			X:       x + g.LabelWidth - qrOffset,
			Y:       y + g.LabelHeight - qrOffset,
			Width:   qrSize,
			Height:  qrSize,
			Payload: QRPayload(rec),
			Cell:    index,
		})
	}
}

type pageAccumulator struct {
	cells  []Cell
	rects  []Rect
	texts  []TextBox
	images []ImageBox
}

// pageCollector 按需创建页面：换页只在下一张标签落位时生效，空输入保留一页空白页。
type pageCollector struct {
	grid Grid
	accs []*pageAccumulator
}

func newPageCollector(g Grid) *pageCollector {
	pc := &pageCollector{grid: g}
	pc.accs = append(pc.accs, &pageAccumulator{})
	return pc
}

func (pc *pageCollector) page(idx int) *pageAccumulator {
	for len(pc.accs) <= idx {
		pc.accs = append(pc.accs, &pageAccumulator{})
	}
	return pc.accs[idx]
}

func (pc *pageCollector) pages() []Page {
	out := make([]Page, len(pc.accs))
	for i, acc := range pc.accs {
		out[i] = Page{
			Width:  pc.grid.PageWidth,
			Height: pc.grid.PageHeight,
			Cells:  acc.cells,
			Rects:  acc.rects,
			Texts:  acc.texts,
			Images: acc.images,
		}
	}
	return out
}
