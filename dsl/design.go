package dsl

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ByLCY/inventario/binding"
	"github.com/ByLCY/inventario/layout"
)

const (
	keyCreatedBy = "created-by"
	keyQR        = "qr"
	keyLogo      = "logo"
)

var (
	ErrUnknownKey         = errors.New("dsl: unknown key")
	ErrDuplicateKey       = errors.New("dsl: duplicate key")
	ErrValueType          = errors.New("dsl: unexpected value type")
	ErrUnknownPlaceholder = errors.New("dsl: unknown placeholder")
)

// 标题中允许出现的占位符，与 layout.Record 的字段一一对应。
var knownPlaceholders = map[string]struct{}{
	"tag":    {},
	"sector": {},
	"model":  {},
}

// Settings 是校验后的设计内容；Logo 仍是相对路径，尚未读取。
type Settings struct {
	Title     string
	CreatedBy string
	ShowQR    bool
	Logo      string
}

// Settings 校验设计并提取各项设置。未写 qr 时默认显示二维码。
func (d *Design) Settings() (Settings, error) {
	out := Settings{Title: string(d.Title), ShowQR: true}
	if err := ValidateTitle(out.Title); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", d.Pos, err)
	}

	seen := map[string]bool{}
	for _, e := range d.Entries {
		key := strings.ToLower(e.Key)
		if seen[key] {
			return Settings{}, fmt.Errorf("%s: %w %q", e.Pos, ErrDuplicateKey, e.Key)
		}
		seen[key] = true

		switch key {
		case keyCreatedBy:
			s, err := e.stringValue()
			if err != nil {
				return Settings{}, err
			}
			out.CreatedBy = s
		case keyLogo:
			s, err := e.stringValue()
			if err != nil {
				return Settings{}, err
			}
			out.Logo = s
		case keyQR:
			if e.Value.Bool == nil {
				return Settings{}, fmt.Errorf("%s: %w: %s wants bool, got %s", e.Pos, ErrValueType, e.Key, e.Value.Kind())
			}
			out.ShowQR = bool(*e.Value.Bool)
		default:
			return Settings{}, fmt.Errorf("%s: %w %q", e.Pos, ErrUnknownKey, e.Key)
		}
	}
	return out, nil
}

// ValidateTitle 检查标题中的占位符，只允许 tag、sector、model。
func ValidateTitle(title string) error {
	for _, name := range binding.Placeholders(title) {
		if _, ok := knownPlaceholders[name]; !ok {
			return fmt.Errorf("%w ${%s}", ErrUnknownPlaceholder, name)
		}
	}
	return nil
}

func (e *Entry) stringValue() (string, error) {
	if e.Value.String == nil {
		return "", fmt.Errorf("%s: %w: %s wants string, got %s", e.Pos, ErrValueType, e.Key, e.Value.Kind())
	}
	return string(*e.Value.String), nil
}

// LabelConfig 把设计转换为标签配置；logo 相对 baseDir 解析并读入内存。
func (d *Design) LabelConfig(baseDir string) (layout.LabelConfig, error) {
	s, err := d.Settings()
	if err != nil {
		return layout.LabelConfig{}, err
	}
	cfg := layout.LabelConfig{
		Title:     s.Title,
		CreatedBy: s.CreatedBy,
		ShowQR:    s.ShowQR,
	}
	if s.Logo != "" {
		path := s.Logo
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return layout.LabelConfig{}, fmt.Errorf("读取徽标 %s 失败: %w", path, err)
		}
		cfg.Logo = data
	}
	return cfg, nil
}

// Load 读取并解析设计文件，logo 相对文件所在目录解析。
func Load(path string) (layout.LabelConfig, error) {
	file, err := os.Open(path)
	if err != nil {
		return layout.LabelConfig{}, fmt.Errorf("无法打开设计文件 %s: %w", path, err)
	}
	defer file.Close()

	d, err := Parse(file)
	if err != nil {
		return layout.LabelConfig{}, fmt.Errorf("解析设计文件失败: %w", err)
	}
	return d.LabelConfig(filepath.Dir(path))
}

// Format 把标签配置写回设计文件文本；logoPath 为空时省略 logo。
func Format(cfg layout.LabelConfig, logoPath string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "design %s {\n", strconv.Quote(cfg.Title))
	fmt.Fprintf(&b, "  %s: %s\n", keyCreatedBy, strconv.Quote(cfg.CreatedBy))
	fmt.Fprintf(&b, "  %s: %t\n", keyQR, cfg.ShowQR)
	if logoPath != "" {
		fmt.Fprintf(&b, "  %s: %s\n", keyLogo, strconv.Quote(logoPath))
	}
	b.WriteString("}\n")
	return b.String()
}
