package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/ByLCY/inventario/inventory"
	"github.com/ByLCY/inventario/store"
)

const selectColumns = `SELECT patrimonio, tipo, modelo, ip, sessao, status FROM ativos`

// AssetRepository 是 store.AssetStore 的 SQLite 实现。
type AssetRepository struct {
	db *DB
}

var _ store.AssetStore = (*AssetRepository)(nil)

// NewAssetRepository 创建 SQLite 资产仓储。
func NewAssetRepository(db *DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// Open 等价于 New 加 NewAssetRepository。
func Open(dbPath string) (*AssetRepository, error) {
	db, err := New(dbPath)
	if err != nil {
		return nil, err
	}
	return NewAssetRepository(db), nil
}

// Close 关闭底层数据库。
func (r *AssetRepository) Close() error {
	return r.db.Close()
}

// ListAll 按插入顺序返回全部资产。
func (r *AssetRepository) ListAll() ([]inventory.Asset, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	return r.query(selectColumns + ` ORDER BY rowid`)
}

// Search 返回任意列包含 term 的资产，不区分大小写。
func (r *AssetRepository) Search(term string) ([]inventory.Asset, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return r.ListAll()
	}

	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	// LIKE 只对 ASCII 忽略大小写，这里取全部行后在内存中过滤
	all, err := r.query(selectColumns + ` ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	return inventory.Filter(all, term), nil
}

// Get 按编号读取资产。
func (r *AssetRepository) Get(tag string) (inventory.Asset, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	row := r.db.Conn().QueryRow(selectColumns+` WHERE patrimonio = ?`, tag)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return inventory.Asset{}, fmt.Errorf("%w: %s", store.ErrNotFound, tag)
	}
	if err != nil {
		return inventory.Asset{}, fmt.Errorf("failed to get asset: %w", err)
	}
	return a, nil
}

// GetMany 按 tags 的给定顺序返回资产，未知编号跳过。
func (r *AssetRepository) GetMany(tags []string) ([]inventory.Asset, error) {
	out := make([]inventory.Asset, 0, len(tags))
	for _, tag := range tags {
		a, err := r.Get(tag)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// Count 返回表中行数。
func (r *AssetRepository) Count() (int, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var n int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM ativos`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count assets: %w", err)
	}
	return n, nil
}

// InsertIfAbsent 插入 a；编号已存在时保持原样，返回 inserted=false 且不报错。
func (r *AssetRepository) InsertIfAbsent(a inventory.Asset) (bool, error) {
	if strings.TrimSpace(a.Tag) == "" {
		return false, inventory.ErrEmptyTag
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT OR IGNORE INTO ativos (patrimonio, tipo, modelo, ip, sessao, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.Tag, a.Type, a.Model, a.IP, a.Sector, a.Status)
	if err != nil {
		return false, fmt.Errorf("failed to insert asset: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to insert asset: %w", err)
	}
	return n > 0, nil
}

// DeleteByTag 删除资产，删除未知编号不算错误。
func (r *AssetRepository) DeleteByTag(tag string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM ativos WHERE patrimonio = ?`, tag); err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	return nil
}

// UpdateFields 覆盖 tag 的可编辑列。
func (r *AssetRepository) UpdateFields(tag string, f inventory.Fields) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	result, err := r.db.Conn().Exec(`
		UPDATE ativos SET modelo = ?, ip = ?, sessao = ?, status = ?
		WHERE patrimonio = ?
	`, f.Model, f.IP, f.Sector, f.Status, tag)
	if err != nil {
		return fmt.Errorf("failed to update asset: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update asset: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", store.ErrNotFound, tag)
	}
	return nil
}

func (r *AssetRepository) query(q string, args ...any) ([]inventory.Asset, error) {
	rows, err := r.db.Conn().Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assets: %w", err)
	}
	defer rows.Close()

	var assets []inventory.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

// scanAsset 容忍旧数据中的 NULL 列。
func scanAsset(s scanner) (inventory.Asset, error) {
	var tag string
	var typ, model, ip, sector, status sql.NullString
	if err := s.Scan(&tag, &typ, &model, &ip, &sector, &status); err != nil {
		return inventory.Asset{}, err
	}
	return inventory.Asset{
		Tag:    tag,
		Type:   typ.String,
		Model:  model.String,
		IP:     ip.String,
		Sector: sector.String,
		Status: status.String,
	}, nil
}
