package binding

import (
	"regexp"
	"strings"
)

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate 将文本中的 ${name} 替换为 vars 中的值。
// 名称不区分大小写；不存在的名称保留原占位符。
func Interpolate(text string, vars map[string]string) string {
	if len(vars) == 0 || !strings.Contains(text, "${") {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		name := strings.ToLower(strings.TrimSpace(groups[1]))
		if name == "" {
			return match
		}
		if val, ok := vars[name]; ok {
			return val
		}
		return match
	})
}

// Placeholders 返回文本中出现的占位符名称（小写、去重、保持出现顺序）。
func Placeholders(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range exprPattern.FindAllStringSubmatch(text, -1) {
		name := strings.ToLower(strings.TrimSpace(m[1]))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}
