// Package web 提供资产清单的网页界面，包括登录、批量登记、标签下载、
// 检索编辑、连通性检测、顾问问答和标签设计。
package web

import (
	"embed"
	"html/template"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"github.com/ByLCY/inventario/advisor"
	"github.com/ByLCY/inventario/probe"
	"github.com/ByLCY/inventario/session"
	"github.com/ByLCY/inventario/sheet"
	"github.com/ByLCY/inventario/store"
)

//go:embed templates/*.html
var templateFS embed.FS

// MaxLogoSize 限制上传 logo 的大小。
const MaxLogoSize = 5 << 20

// Deps 是服务端依赖的组件。
type Deps struct {
	Store      store.AssetStore
	Sessions   *session.Manager
	Compositor *sheet.Compositor
	Prober     *probe.Prober
	Advisor    *advisor.Advisor
	// 顾问表单未填密钥时使用 GeminiKey。
	GeminiKey string
	Logger    *zap.Logger
}

type Server struct {
	store      store.AssetStore
	sessions   *session.Manager
	compositor *sheet.Compositor
	prober     *probe.Prober
	advisor    *advisor.Advisor
	geminiKey  string
	logger     *zap.Logger
	tmpl       *template.Template

	// writeMu 串行化写操作；批次编号需要先读行数。
	writeMu sync.Mutex
}

// NewServer 解析内嵌模板并装配依赖。
func NewServer(d Deps) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	compositor := d.Compositor
	if compositor == nil {
		compositor = sheet.NewCompositor(sheet.WithLogger(logger))
	}
	prober := d.Prober
	if prober == nil {
		prober = probe.New(probe.WithLogger(logger))
	}
	adv := d.Advisor
	if adv == nil {
		adv = advisor.New("", nil, logger)
	}
	return &Server{
		store:      d.Store,
		sessions:   d.Sessions,
		compositor: compositor,
		prober:     prober,
		advisor:    adv,
		geminiKey:  d.GeminiKey,
		logger:     logger,
		tmpl:       tmpl,
	}, nil
}

// Handler 注册路由，并套上会话与登录中间件。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// 登录
	mux.HandleFunc("GET /login", s.loginPage)
	mux.HandleFunc("POST /login", s.login)
	mux.HandleFunc("POST /logout", s.logout)

	// 资产
	mux.HandleFunc("GET /{$}", s.index)
	mux.HandleFunc("POST /assets/batch", s.registerBatch)
	mux.HandleFunc("POST /assets/edit", s.editAssets)
	mux.HandleFunc("POST /assets/delete", s.deleteAssets)
	mux.HandleFunc("POST /assets/update", s.updateAssets)
	mux.HandleFunc("POST /ping", s.ping)

	// 标签
	mux.HandleFunc("GET /labels/download", s.downloadLabels)
	mux.HandleFunc("POST /labels/reprint", s.reprintLabels)

	// 顾问
	mux.HandleFunc("GET /advisor", s.advisorPage)
	mux.HandleFunc("POST /advisor", s.askAdvisor)

	// 设计
	mux.HandleFunc("GET /design", s.designPage)
	mux.HandleFunc("POST /design", s.saveDesign)
	mux.HandleFunc("GET /design/export", s.exportDesign)

	return s.withSession(s.requireLogin(mux))
}
