package layout

// pt 与 mm 之间的换算常量。
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

// Pt 将点(pt)转换为毫米(mm)。
func Pt(v float64) float64 { return v * PtToMm }
