// Package session 管理登录状态、标签设计与最近一次合成的 PDF。
// 会话没有过期时间；登出或清除即销毁。
package session

import (
	"crypto/subtle"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/ByLCY/inventario/layout"
	"github.com/ByLCY/inventario/sheet"
)

// CookieName 是携带会话 ID 的 cookie 名称。
const CookieName = "inventario_session"

const (
	DefaultTitle     = "ETIQUETAS DE ATIVOS - TI 2026"
	DefaultCreatedBy = "Departamento de TI"
)

var (
	ErrNotFound      = errors.New("session: not found")
	ErrWrongPassword = errors.New("session: wrong password")
)

// Session 保存单个浏览器会话的状态。
type Session struct {
	ID       string
	LoggedIn bool
	Design   layout.LabelConfig
	Cached   *sheet.Document
}

// DefaultDesign 返回新会话的标签设计。
func DefaultDesign() layout.LabelConfig {
	return layout.LabelConfig{
		Title:     DefaultTitle,
		CreatedBy: DefaultCreatedBy,
		ShowQR:    true,
	}
}

// Manager 持有所有会话；返回的是副本，修改需通过 Replace 写回。
type Manager struct {
	password string
	design   layout.LabelConfig

	mu       sync.RWMutex
	sessions map[string]Session
}

// NewManager 创建会话管理器，password 为登录口令。
func NewManager(password string) *Manager {
	return &Manager{password: password, design: DefaultDesign(), sessions: map[string]Session{}}
}

// SetDefaultDesign 替换之后新建会话的初始设计。已存在的会话不受影响。
func (m *Manager) SetDefaultDesign(cfg layout.LabelConfig) {
	m.mu.Lock()
	m.design = cfg
	m.mu.Unlock()
}

// Create 新建一个未登录的会话。
func (m *Manager) Create() Session {
	m.mu.Lock()
	s := Session{ID: uuid.NewString(), Design: m.design}
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

// Get 按 ID 查找会话。
func (m *Manager) Get(id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s, nil
}

// Replace 写回会话。会话必须已存在。
func (m *Manager) Replace(s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		return ErrNotFound
	}
	m.sessions[s.ID] = s
	return nil
}

// Clear 删除会话。
func (m *Manager) Clear(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Login 校验口令并把会话标记为已登录。
func (m *Manager) Login(id, password string) (Session, error) {
	if subtle.ConstantTimeCompare([]byte(password), []byte(m.password)) != 1 {
		return Session{}, ErrWrongPassword
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	s.LoggedIn = true
	m.sessions[id] = s
	return s, nil
}

// Logout 销毁会话，包括其设计与缓存的 PDF。
func (m *Manager) Logout(id string) {
	m.Clear(id)
}

// Len 返回当前会话数量。
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
