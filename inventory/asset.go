// Package inventory 定义资产记录及批量登记、检索等纯数据规则。
package inventory

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ByLCY/inventario/layout"
)

// 登记默认值。
const (
	DefaultType   = "Computador"
	DefaultIP     = "0.0.0.0"
	DefaultStatus = "Ativo"

	MinBatch = 1
	MaxBatch = 100
)

var (
	ErrEmptyTag      = errors.New("inventory: 资产编号不能为空")
	ErrBatchQuantity = errors.New("inventory: 批量数量超出范围")
	ErrInvalidIP     = errors.New("inventory: IP 地址无效")
)

var ipPattern = regexp.MustCompile(`^((25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`)

// Asset 对应库存表中的一行，Tag 为主键。
type Asset struct {
	Tag    string `json:"tag"`
	Type   string `json:"type"`
	Model  string `json:"model"`
	IP     string `json:"ip"`
	Sector string `json:"sector"`
	Status string `json:"status"`
}

// Record 返回标签排版需要的字段。
func (a Asset) Record() layout.Record {
	return layout.Record{Tag: a.Tag, Sector: a.Sector, Model: a.Model}
}

// Records 批量转换为排版记录，保持顺序。
func Records(assets []Asset) []layout.Record {
	out := make([]layout.Record, len(assets))
	for i, a := range assets {
		out[i] = a.Record()
	}
	return out
}

// Fields 描述可编辑的列；Tag 不可修改。
type Fields struct {
	Model  string `json:"model"`
	IP     string `json:"ip"`
	Sector string `json:"sector"`
	Status string `json:"status"`
}

// Fields 返回资产当前的可编辑字段。
func (a Asset) Fields() Fields {
	return Fields{Model: a.Model, IP: a.IP, Sector: a.Sector, Status: a.Status}
}

// Validate 检查可编辑字段；IP 为空或非点分十进制时报错。
func (f Fields) Validate() error {
	if !ValidIP(f.IP) {
		return fmt.Errorf("%w: %q", ErrInvalidIP, f.IP)
	}
	return nil
}

// ValidIP 判断是否为点分十进制 IPv4 地址。
func ValidIP(ip string) bool {
	return ipPattern.MatchString(ip)
}

// Matches 在所有字段中做不区分大小写的子串匹配；空关键字匹配一切。
func Matches(a Asset, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, v := range []string{a.Tag, a.Type, a.Model, a.IP, a.Sector, a.Status} {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

// Filter 返回匹配关键字的资产，保持原顺序。
func Filter(assets []Asset, term string) []Asset {
	out := make([]Asset, 0, len(assets))
	for _, a := range assets {
		if Matches(a, term) {
			out = append(out, a)
		}
	}
	return out
}

// Batch 描述一次批量登记。
type Batch struct {
	Prefix   string `json:"prefix"`
	Sector   string `json:"sector"`
	Model    string `json:"model"`
	Quantity int    `json:"quantity"`
}

// DefaultBatch 返回登记表单的初始值。
func DefaultBatch() Batch {
	return Batch{Prefix: "TAG-2026-", Sector: "GERAL", Model: "Notebook Dell", Quantity: 5}
}

// Validate 检查数量范围。
func (b Batch) Validate() error {
	if b.Quantity < MinBatch || b.Quantity > MaxBatch {
		return fmt.Errorf("%w: %d (允许 %d-%d)", ErrBatchQuantity, b.Quantity, MinBatch, MaxBatch)
	}
	return nil
}

// Assets 从现有记录数 existing 之后开始编号，生成 {prefix}{n:04d} 形式的资产。
func (b Batch) Assets(existing int) ([]Asset, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	out := make([]Asset, b.Quantity)
	for i := range out {
		out[i] = Asset{
			Tag:    fmt.Sprintf("%s%04d", b.Prefix, existing+i+1),
			Type:   DefaultType,
			Model:  b.Model,
			IP:     DefaultIP,
			Sector: b.Sector,
			Status: DefaultStatus,
		}
	}
	return out, nil
}
