package dsl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `\d+(?:\.\d+)?`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[:;]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	designParser = participle.MustBuild[Design](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// Design 是标签设计文件的 AST 根节点。
//
//	design "ETIQUETAS DE ATIVOS - TI 2026" {
//	  created-by: "Departamento de TI"
//	  qr: true
//	  logo: "logo.png"
//	}
type Design struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Title   StringLiteral  `parser:"Newline* 'design' @String"`
	Entries []*Entry       `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}' Newline*"`
}

// Entry 是 design 块内的一行 `key: value`。
type Entry struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@Ident"`
	Value *Value         `parser:"':' @@"`
}

// Value 保存一个标量，恰好有一个字段被设置。
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Bool   *Boolean       `parser:"| @( 'true' | 'false' )"`
	Number *string        `parser:"| @Number"`
	Ident  *string        `parser:"| @Ident"`
}

// Kind 返回可读的值类型。
func (v *Value) Kind() string {
	switch {
	case v == nil:
		return "empty"
	case v.String != nil:
		return "string"
	case v.Bool != nil:
		return "bool"
	case v.Number != nil:
		return "number"
	case v.Ident != nil:
		return "identifier"
	default:
		return "empty"
	}
}

// StringLiteral 在捕获时去掉 Go 风格字符串的引号。
type StringLiteral string

// Capture 实现 participle.Capture。
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Boolean 捕获 `true` 或 `false`。
type Boolean bool

// Capture 实现 participle.Capture。
func (b *Boolean) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("boolean capture requires value")
	}
	*b = values[0] == "true"
	return nil
}

// Parse 从 io.Reader 解析设计文件。
func Parse(r io.Reader) (*Design, error) {
	return designParser.Parse("", r)
}

// ParseString 从字符串解析设计内容。
func ParseString(input string) (*Design, error) {
	return designParser.ParseString("", input)
}
