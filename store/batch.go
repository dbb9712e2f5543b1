package store

import (
	"fmt"

	"github.com/ByLCY/inventario/inventory"
)

// RegisterBatch 按当前行数为批次编号并逐条插入。
// 已存在的编号保持不变，但仍会返回，以便照常打印标签。
// 调用方需在整个调用期间持有写锁。
func RegisterBatch(st AssetStore, b inventory.Batch) (assets []inventory.Asset, inserted int, err error) {
	count, err := st.Count()
	if err != nil {
		return nil, 0, fmt.Errorf("counting assets: %w", err)
	}
	assets, err = b.Assets(count)
	if err != nil {
		return nil, 0, err
	}
	for _, a := range assets {
		ok, err := st.InsertIfAbsent(a)
		if err != nil {
			return nil, inserted, fmt.Errorf("inserting %s: %w", a.Tag, err)
		}
		if ok {
			inserted++
		}
	}
	return assets, inserted, nil
}
