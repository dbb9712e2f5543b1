package layout

// BuildOptions 配置排版阶段的参数。
type BuildOptions struct {
	// Grid 为空时使用 DefaultGrid。
	Grid *Grid
}

func (o BuildOptions) grid() Grid {
	if o.Grid != nil {
		return *o.Grid
	}
	return DefaultGrid()
}
