package layout

import "fmt"

// Grid 固定网格的几何参数，单位均为 mm。
type Grid struct {
	PageWidth   float64
	PageHeight  float64
	LabelWidth  float64
	LabelHeight float64
	MarginLeft  float64
	MarginTop   float64
	Spacing     float64
	Columns     int
	// BreakAt 为纵向游标阈值：整行完成后游标超过该值即换页。
	BreakAt float64
}

// DefaultGrid 返回 A4 上每行 3 张、60x30mm 的标签网格。
func DefaultGrid() Grid {
	return Grid{
		PageWidth:   210,
		PageHeight:  297,
		LabelWidth:  60,
		LabelHeight: 30,
		MarginLeft:  10,
		MarginTop:   10,
		Spacing:     2,
		Columns:     3,
		BreakAt:     250,
	}
}

// Validate 检查网格参数是否可用于排版。
func (g Grid) Validate() error {
	switch {
	case g.PageWidth <= 0 || g.PageHeight <= 0:
		return fmt.Errorf("%w: 页面尺寸必须为正数", ErrInvalidGrid)
	case g.LabelWidth <= 0 || g.LabelHeight <= 0:
		return fmt.Errorf("%w: 标签尺寸必须为正数", ErrInvalidGrid)
	case g.Columns <= 0:
		return fmt.Errorf("%w: 列数必须大于 0", ErrInvalidGrid)
	case g.Spacing < 0:
		return fmt.Errorf("%w: 间距不能为负数", ErrInvalidGrid)
	case g.BreakAt < g.MarginTop:
		return fmt.Errorf("%w: 换页阈值小于上边距", ErrInvalidGrid)
	}
	return nil
}

// Cursor 是放置循环中唯一的可变状态：当前页、行、列与纵向偏移。
type Cursor struct {
	Page   int
	Row    int
	Column int
	Y      float64
}

// NewCursor 返回第一页左上角的游标。
func NewCursor(g Grid) Cursor {
	return Cursor{Y: g.MarginTop}
}

// X 计算当前列的横向偏移。
func (c Cursor) X(g Grid) float64 {
	return g.MarginLeft + float64(c.Column)*(g.LabelWidth+g.Spacing)
}

// Advance 在放置一张标签之后推进游标。
// 换页检查发生在放置之后：某一行的底边可能已越过阈值，下一张才会换页。
func (c Cursor) Advance(g Grid) Cursor {
	c.Column++
	if c.Column > g.Columns-1 {
		c.Column = 0
		c.Row++
		c.Y += g.LabelHeight + g.Spacing
	}
	if c.Y > g.BreakAt {
		c.Page++
		c.Row = 0
		c.Column = 0
		c.Y = g.MarginTop
	}
	return c
}
