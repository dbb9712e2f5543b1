package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/inventario/fonts"
	"github.com/ByLCY/inventario/layout"
	"github.com/ByLCY/inventario/qr"
	"github.com/ByLCY/inventario/renderer"
)

const defaultStrokeWidth = 0.2

// Renderer 通过 github.com/tdewolff/canvas 绘制布局结果。
type Renderer struct {
	// QRPixels 为二维码位图边长，<=0 时使用 qr.DefaultPixels。
	QRPixels int

	fontMu       sync.Mutex
	fontFamilies map[string]*fontFamilyEntry
}

var _ renderer.Renderer = (*Renderer)(nil)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// NewRenderer 创建基于 canvas 的 PDF 渲染器。
func NewRenderer() *Renderer {
	return &Renderer{fontFamilies: map[string]*fontFamilyEntry{}}
}

// Render 将布局结果渲染为 PDF 字节。
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	if len(result.Pages) == 0 {
		return nil, fmt.Errorf("缺少可渲染的页面")
	}

	var buf bytes.Buffer
	writer := pdf.New(&buf, result.Pages[0].Width, result.Pages[0].Height, nil)
	r.applyMeta(writer, result.Meta)
	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c := canvas.New(page.Width, page.Height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

		if err := r.drawPage(ctx, page, result.Resources); err != nil {
			return nil, err
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

func (r *Renderer) drawPage(ctx *canvas.Context, page layout.Page, resources layout.ResourceSet) error {
	// 先画边框，再画文本与图片
	r.drawRects(ctx, page.Rects)
	for _, tb := range page.Texts {
		fontRes := resolveFontResource(tb.Font, resources.Fonts)
		if err := r.drawTextBox(ctx, tb, fontRes); err != nil {
			return err
		}
	}
	r.drawImages(ctx, page.Images, resources.Logo)
	return nil
}

func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox, fontRes layout.FontResource) error {
	// TextBox 的坐标/字号/行高均为 mm；创建字体面需要 pt，这里做一次 mm→pt。
	face, err := r.fontFace(fontRes, toPt(tb.FontSize), tb.Color)
	if err != nil {
		return err
	}
	// fpdf 风格：文本在行框内垂直居中
	metrics := face.Metrics()
	textHeight := metrics.Ascent + metrics.Descent
	baseline := tb.Y + (tb.LineHeight-textHeight)/2 + metrics.Ascent
	ctx.DrawText(tb.X, baseline, canvas.NewTextLine(face, tb.Content, canvas.Left))
	return nil
}

// drawImages 绘制徽标与二维码；无法生成的图片只跳过对应位置。
func (r *Renderer) drawImages(ctx *canvas.Context, images []layout.ImageBox, logo image.Image) {
	for _, box := range images {
		var img image.Image
		switch box.Kind {
		case layout.ImageLogo:
			img = logo
		case layout.ImageQR:
			encoded, err := qr.Encode(box.Payload, r.QRPixels)
			if err != nil {
				continue
			}
			img = encoded
		}
		if img == nil || box.Width <= 0 || box.Height <= 0 {
			continue
		}
		ctx.DrawImage(box.X, box.Y, img, canvas.DPMM(fitDPMM(img.Bounds(), box)))
	}
}

// fitDPMM 返回使图片完整落入 box 的分辨率（取宽、高两者中较大的像素密度）。
func fitDPMM(b image.Rectangle, box layout.ImageBox) float64 {
	dpmm := math.Max(float64(b.Dx())/box.Width, float64(b.Dy())/box.Height)
	if dpmm <= 0 {
		return 1
	}
	return dpmm
}

// drawRects 绘制矩形边框（不填充）
func (r *Renderer) drawRects(ctx *canvas.Context, rects []layout.Rect) {
	for _, rc := range rects {
		w := rc.StrokeWidth
		if w <= 0 {
			w = defaultStrokeWidth
		}
		ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
		ctx.SetStrokeColor(colorFromLayout(rc.StrokeColor))
		ctx.SetStrokeWidth(w)
		ctx.DrawPath(rc.X, rc.Y, canvas.Rectangle(rc.Width, rc.Height))
	}
}

func (r *Renderer) fontFace(font layout.FontResource, size float64, col layout.Color) (*canvas.FontFace, error) {
	family, style, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	return family.Face(size, colorFromLayout(col), style, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(font layout.FontResource) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(font)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := parseFontStyle(font.Style)
	name := font.Name
	if name == "" {
		name = layout.FontRegular
	}
	src := font.Src
	if src == "" {
		src = "embed:regular"
	}
	data, err := fonts.Load(src)
	if err != nil {
		return nil, canvas.FontRegular, err
	}
	family := canvas.NewFontFamily(name)
	if err := family.LoadFont(data, 0, style); err != nil {
		return nil, canvas.FontRegular, fmt.Errorf("加载字体 %s 失败: %w", name, err)
	}

	r.fontFamilies[key] = &fontFamilyEntry{family: family, style: style}
	return family, style, nil
}

func resolveFontResource(name string, fonts map[string]layout.FontResource) layout.FontResource {
	if font, ok := fonts[name]; ok {
		return font
	}
	if font, ok := fonts[layout.FontRegular]; ok {
		return font
	}
	return layout.FontResource{}
}

func parseFontStyle(style string) canvas.FontStyle {
	if strings.Contains(strings.ToLower(style), "bold") {
		return canvas.FontBold
	}
	return canvas.FontRegular
}

func fontCacheKey(font layout.FontResource) string {
	return fmt.Sprintf("%s|%s|%s", font.Name, font.Src, font.Style)
}

func colorFromLayout(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }
