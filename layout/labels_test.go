package layout

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"path/filepath"
	"reflect"
	"testing"
)

func makeRecords(n int) []Record {
	out := make([]Record, n)
	for i := range out {
		out[i] = Record{
			Tag:    fmt.Sprintf("TAG-2026-%04d", i+1),
			Sector: "GERAL",
			Model:  "Notebook Dell",
		}
	}
	return out
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func mustBuild(t *testing.T, records []Record, cfg LabelConfig) *Result {
	t.Helper()
	res, err := Build(records, cfg, BuildOptions{})
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	return res
}

func TestBuildPlacesOneCellPerRecordInOrder(t *testing.T) {
	records := makeRecords(53)
	res := mustBuild(t, records, LabelConfig{Title: "T", ShowQR: true})

	cells := res.Cells()
	if len(cells) != len(records) {
		t.Fatalf("expected %d cells, got %d", len(records), len(cells))
	}
	for i, c := range cells {
		if c.Index != i || c.Tag != records[i].Tag {
			t.Fatalf("cell %d references index=%d tag=%q", i, c.Index, c.Tag)
		}
	}
}

func TestBuildCellsNeverOverlapWithinPage(t *testing.T) {
	res := mustBuild(t, makeRecords(60), LabelConfig{})
	for pi, page := range res.Pages {
		for i := range page.Cells {
			for j := i + 1; j < len(page.Cells); j++ {
				if page.Cells[i].Overlaps(page.Cells[j]) {
					t.Fatalf("page %d: cell %d overlaps cell %d", pi, page.Cells[i].Index, page.Cells[j].Index)
				}
			}
		}
	}
}

func TestBuildColumnsCycleEveryThirdCell(t *testing.T) {
	res := mustBuild(t, makeRecords(20), LabelConfig{})
	for i, c := range res.Cells() {
		if c.Column != i%3 {
			t.Fatalf("cell %d expected column %d, got %d", i, i%3, c.Column)
		}
		wantX := 10 + float64(i%3)*62
		if c.X != wantX {
			t.Fatalf("cell %d expected x=%g, got %g", i, wantX, c.X)
		}
		if c.Row != i/3 {
			t.Fatalf("cell %d expected row %d, got %d", i, i/3, c.Row)
		}
	}
}

func TestBuildBreaksPageAfterEightRows(t *testing.T) {
	res := mustBuild(t, makeRecords(25), LabelConfig{})
	if len(res.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(res.Pages))
	}
	if got := len(res.Pages[0].Cells); got != 24 {
		t.Fatalf("expected 24 cells on first page, got %d", got)
	}
	last := res.Pages[0].Cells[23]
	if last.Y != 234 {
		t.Fatalf("last row on first page expected y=234, got %g", last.Y)
	}
	next := res.Pages[1].Cells[0]
	if next.Page != 1 || next.Y != 10 || next.Column != 0 || next.Row != 0 {
		t.Fatalf("unexpected first cell on second page: %+v", next)
	}
}

// 页面按需创建：恰好填满一页时不追加空白页，这与逐行预先换页的做法不同，是有意为之。
func TestBuildNoTrailingBlankPage(t *testing.T) {
	res := mustBuild(t, makeRecords(24), LabelConfig{})
	if len(res.Pages) != 1 {
		t.Fatalf("expected exactly 1 page for 24 labels, got %d", len(res.Pages))
	}
}

// 换页检查在整行完成之后：底边越过阈值的一行仍留在当前页。
func TestBuildChecksBreakAfterPlacingRow(t *testing.T) {
	g := DefaultGrid()
	g.BreakAt = 50
	res, err := Build(makeRecords(7), LabelConfig{}, BuildOptions{Grid: &g})
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	if len(res.Pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(res.Pages))
	}
	first := res.Pages[0].Cells
	if len(first) != 6 {
		t.Fatalf("expected 6 cells on first page, got %d", len(first))
	}
	if bottom := first[5].Y + first[5].Height; bottom <= g.BreakAt {
		t.Fatalf("second row bottom should pass the threshold, got %g", bottom)
	}
	if c := res.Pages[1].Cells[0]; c.Y != g.MarginTop {
		t.Fatalf("new page must restart at top margin, got %g", c.Y)
	}
}

func TestBuildEmptyInputYieldsSingleBlankPage(t *testing.T) {
	res := mustBuild(t, nil, LabelConfig{Title: "", ShowQR: true})
	if len(res.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(res.Pages))
	}
	p := res.Pages[0]
	if len(p.Cells)+len(p.Texts)+len(p.Images)+len(p.Rects) != 0 {
		t.Fatalf("expected blank page, got %+v", p)
	}
	if p.Width != 210 || p.Height != 297 {
		t.Fatalf("unexpected page size %gx%g", p.Width, p.Height)
	}
}

func TestBuildFourRecordsWithQR(t *testing.T) {
	res := mustBuild(t, makeRecords(4), LabelConfig{Title: "ETIQUETAS", ShowQR: true})
	if len(res.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(res.Pages))
	}
	page := res.Pages[0]
	wantCols := []int{0, 1, 2, 0}
	wantRows := []int{0, 0, 0, 1}
	for i, c := range page.Cells {
		if c.Column != wantCols[i] || c.Row != wantRows[i] {
			t.Fatalf("cell %d at row=%d col=%d", i, c.Row, c.Column)
		}
	}

	texts := map[int][]TextBox{}
	for _, tb := range page.Texts {
		texts[tb.Cell] = append(texts[tb.Cell], tb)
	}
	qrs := map[int]int{}
	for _, img := range page.Images {
		if img.Kind != ImageQR {
			t.Fatalf("unexpected image kind %q", img.Kind)
		}
		qrs[img.Cell]++
	}
	for i, c := range page.Cells {
		lines := texts[i]
		if len(lines) != 4 {
			t.Fatalf("cell %d expected 4 text lines, got %d", i, len(lines))
		}
		want := []string{
			"ETIQUETAS",
			"PATRIMONIO: " + c.Tag,
			"SETOR: GERAL",
			"MODELO: Notebook Dell",
		}
		for j, ln := range lines {
			if ln.Content != want[j] {
				t.Fatalf("cell %d line %d: got %q want %q", i, j, ln.Content, want[j])
			}
			if wantY := c.Y + 3 + float64(j)*4; math.Abs(ln.Y-wantY) > 1e-9 {
				t.Fatalf("cell %d line %d: y=%g want %g", i, j, ln.Y, wantY)
			}
		}
		if qrs[i] != 1 {
			t.Fatalf("cell %d expected one QR, got %d", i, qrs[i])
		}
	}
}

func TestBuildQRPlacementRelativeToCell(t *testing.T) {
	res := mustBuild(t, makeRecords(2), LabelConfig{ShowQR: true})
	page := res.Pages[0]
	for _, img := range page.Images {
		c := page.Cells[img.Cell]
		if img.X != c.X+47 || img.Y != c.Y+17 || img.Width != 11 || img.Height != 11 {
			t.Fatalf("unexpected QR box %+v for cell %+v", img, c)
		}
		if want := "TAG: " + c.Tag + " | SETOR: GERAL"; img.Payload != want {
			t.Fatalf("payload %q want %q", img.Payload, want)
		}
	}
}

func TestBuildWithoutQR(t *testing.T) {
	res := mustBuild(t, makeRecords(3), LabelConfig{ShowQR: false})
	if n := len(res.Pages[0].Images); n != 0 {
		t.Fatalf("expected no images, got %d", n)
	}
}

func TestBuildDegradesOnUndecodableLogo(t *testing.T) {
	res := mustBuild(t, makeRecords(5), LabelConfig{Title: "T", Logo: []byte("definitely not an image")})
	if res.Logo != LogoDegraded {
		t.Fatalf("expected degraded logo state, got %q", res.Logo)
	}
	if res.Resources.Logo != nil {
		t.Fatalf("degraded result must not carry a logo image")
	}
	if n := len(res.Cells()); n != 5 {
		t.Fatalf("expected 5 cells, got %d", n)
	}
	page := res.Pages[0]
	for _, img := range page.Images {
		if img.Kind == ImageLogo {
			t.Fatalf("logo image should be skipped")
		}
	}
	for _, tb := range page.Texts {
		if tb.Content != "T" {
			continue
		}
		if c := page.Cells[tb.Cell]; tb.Y != c.Y+3 {
			t.Fatalf("title should start at the no-logo offset, got y=%g cell y=%g", tb.Y, c.Y)
		}
	}
}

func TestBuildPlacesLogoAndShiftsText(t *testing.T) {
	res := mustBuild(t, makeRecords(2), LabelConfig{Title: "T", Logo: pngBytes(t, 20, 10)})
	if res.Logo != LogoEmbedded {
		t.Fatalf("expected embedded logo, got %q", res.Logo)
	}
	page := res.Pages[0]
	var logos int
	for _, img := range page.Images {
		if img.Kind != ImageLogo {
			continue
		}
		logos++
		c := page.Cells[img.Cell]
		if img.X != c.X+2 || img.Y != c.Y+2 || img.Height != 7 || math.Abs(img.Width-14) > 1e-9 {
			t.Fatalf("unexpected logo box %+v", img)
		}
	}
	if logos != 2 {
		t.Fatalf("expected 2 logos, got %d", logos)
	}
	first := page.Texts[0]
	if first.Y != page.Cells[0].Y+10 {
		t.Fatalf("text should start below the logo, got y=%g", first.Y)
	}
}

func TestBuildScalesWideLogoInsideCell(t *testing.T) {
	res := mustBuild(t, makeRecords(1), LabelConfig{Logo: pngBytes(t, 200, 10)})
	var logo *ImageBox
	for i := range res.Pages[0].Images {
		if res.Pages[0].Images[i].Kind == ImageLogo {
			logo = &res.Pages[0].Images[i]
		}
	}
	if logo == nil {
		t.Fatalf("expected a logo box")
	}
	if logo.Width != 56 || math.Abs(logo.Height-2.8) > 1e-9 {
		t.Fatalf("wide logo should be capped to 56x2.8, got %gx%g", logo.Width, logo.Height)
	}
	if got, want := logo.Width/logo.Height, 20.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("aspect ratio %g want %g", got, want)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	cfg := LabelConfig{Title: "TI ${sector}", ShowQR: true, Logo: pngBytes(t, 20, 10)}
	first := mustBuild(t, makeRecords(30), cfg)
	second := mustBuild(t, makeRecords(30), cfg)
	if !reflect.DeepEqual(first.Pages, second.Pages) || first.Meta.Title != second.Meta.Title {
		t.Fatalf("two builds of the same input differ")
	}
}

func TestBuildInterpolatesTitle(t *testing.T) {
	rec := []Record{{Tag: "A1", Sector: "RH", Model: "X"}}
	res := mustBuild(t, rec, LabelConfig{Title: "TI ${sector} ${unknown}"})
	if got := res.Pages[0].Texts[0].Content; got != "TI RH ${unknown}" {
		t.Fatalf("unexpected title %q", got)
	}
}

func TestBuildRendersEmptyFieldsAsIs(t *testing.T) {
	res := mustBuild(t, []Record{{}}, LabelConfig{})
	texts := res.Pages[0].Texts
	if texts[1].Content != "PATRIMONIO: " || texts[2].Content != "SETOR: " || texts[3].Content != "MODELO: " {
		t.Fatalf("unexpected contents: %+v", texts)
	}
}

func TestBuildRejectsInvalidGrid(t *testing.T) {
	g := DefaultGrid()
	g.Columns = 0
	_, err := Build(makeRecords(1), LabelConfig{}, BuildOptions{Grid: &g})
	if !errors.Is(err, ErrInvalidGrid) {
		t.Fatalf("expected ErrInvalidGrid, got %v", err)
	}
}

func TestBuildMeta(t *testing.T) {
	res := mustBuild(t, nil, LabelConfig{Title: "ETIQUETAS", CreatedBy: "Departamento de TI"})
	if res.Meta.Title != "ETIQUETAS" || res.Meta.Author != "Departamento de TI" {
		t.Fatalf("unexpected meta %+v", res.Meta)
	}
}

func TestWriteDebugJSON(t *testing.T) {
	res := mustBuild(t, makeRecords(2), LabelConfig{ShowQR: true, Logo: pngBytes(t, 4, 4)})
	path := filepath.Join(t.TempDir(), "layout.json")
	if err := WriteDebugJSON(res, path); err != nil {
		t.Fatalf("WriteDebugJSON: %v", err)
	}
}
