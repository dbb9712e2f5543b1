package sqlite

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DB 封装 SQLite 连接，写操作串行执行。
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// New 打开 dbPath，缺少资产表时自动创建。
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

// migrate 在资产表不存在时创建它。列名沿用现有的 inventario_ti_2026.db 文件。
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS ativos (
		patrimonio TEXT PRIMARY KEY,
		tipo TEXT,
		modelo TEXT,
		ip TEXT,
		sessao TEXT,
		status TEXT
	);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Close 关闭数据库连接。
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn 返回底层连接，供各仓储使用。
func (db *DB) Conn() *sql.DB {
	return db.conn
}
