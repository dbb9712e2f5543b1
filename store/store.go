// Package store 定义资产表的持久化接口。
package store

import (
	"errors"

	"github.com/ByLCY/inventario/inventory"
)

// ErrNotFound 表示没有资产使用所请求的编号。
var ErrNotFound = errors.New("store: asset not found")

// AssetStore 是以编号为键的资产表。写操作由调用方串行化。
type AssetStore interface {
	// 读操作
	ListAll() ([]inventory.Asset, error)
	Search(term string) ([]inventory.Asset, error)
	Get(tag string) (inventory.Asset, error)
	GetMany(tags []string) ([]inventory.Asset, error)
	Count() (int, error)

	// 写操作
	InsertIfAbsent(a inventory.Asset) (bool, error)
	DeleteByTag(tag string) error
	UpdateFields(tag string, f inventory.Fields) error

	Close() error
}
