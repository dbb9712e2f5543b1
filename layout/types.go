package layout

import "image"

// 该文件定义标签排版结果与资源描述，供布局计算、渲染与调试 JSON 共用。

// Record 是单张标签消费的资产字段。
type Record struct {
	Tag    string `json:"tag"`
	Sector string `json:"sector"`
	Model  string `json:"model"`
}

// LabelConfig 描述标签外观，在一次排版调用期间不可变。
type LabelConfig struct {
	Title     string `json:"title"`
	CreatedBy string `json:"createdBy"`
	ShowQR    bool   `json:"showQr"`
	Logo      []byte `json:"-"` // 原始图片字节，可为空
}

// Result 保存布局后的页面与资源信息。
type Result struct {
	Pages     []Page       `json:"pages"`
	Resources ResourceSet  `json:"resources"`
	Meta      DocumentMeta `json:"meta"`
	Logo      LogoState    `json:"logo"`
}

// Cells 返回所有页面上的标签单元格，按输入顺序排列。
func (r *Result) Cells() []Cell {
	if r == nil {
		return nil
	}
	var out []Cell
	for _, p := range r.Pages {
		out = append(out, p.Cells...)
	}
	return out
}

// ResourceSet 记录渲染阶段需要的字体与已解码图片。
type ResourceSet struct {
	Fonts map[string]FontResource `json:"fonts"`
	// Logo 为解码成功的徽标，降级或未配置时为 nil。
	Logo image.Image `json:"-"`
}

// FontResource 描述字体资源，src 为 embed:<name> 形式。
type FontResource struct {
	Name  string `json:"name"`
	Src   string `json:"src"`
	Style string `json:"style"`
}

// Color 采用 0-255 的 RGB 数值。
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Page 记录页面尺寸与可以直接渲染的元素（单位：mm）。
type Page struct {
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Cells  []Cell     `json:"cells"`
	Rects  []Rect     `json:"rects,omitempty"`
	Texts  []TextBox  `json:"texts"`
	Images []ImageBox `json:"images"`
}

// Cell 是一张已定位的标签，仅在排版期间存在。
type Cell struct {
	Index  int     `json:"index"` // 输入记录下标
	Page   int     `json:"page"`
	Row    int     `json:"row"`
	Column int     `json:"column"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Tag    string  `json:"tag"`
}

// Overlaps 判断两个单元格的矩形是否相交（共享边不算相交）。
func (c Cell) Overlaps(o Cell) bool {
	return c.X < o.X+o.Width && o.X < c.X+c.Width &&
		c.Y < o.Y+o.Height && o.Y < c.Y+c.Height
}

// TextBox 表示一个已经排好坐标的单行文本。
type TextBox struct {
	Content    string  `json:"content"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	LineHeight float64 `json:"lineHeight"`
	Font       string  `json:"font"`
	FontSize   float64 `json:"fontSize"` // mm
	Color      Color   `json:"color"`
	Cell       int     `json:"cell"`
}

// ImageKind 区分徽标与二维码。
type ImageKind string

const (
	ImageLogo ImageKind = "logo"
	ImageQR   ImageKind = "qr"
)

// ImageBox 用于描述图片位置与尺寸；二维码由渲染器根据 Payload 生成。
type ImageBox struct {
	Kind    ImageKind `json:"kind"`
	X       float64   `json:"x"`
	Y       float64   `json:"y"`
	Width   float64   `json:"width"`
	Height  float64   `json:"height"`
	Payload string    `json:"payload,omitempty"`
	Cell    int       `json:"cell"`
}

// Rect 表示一个矩形边框。
type Rect struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	StrokeColor Color   `json:"strokeColor"`
	StrokeWidth float64 `json:"strokeWidth"` // mm
}

// DocumentMeta 保存 PDF 元信息。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}
