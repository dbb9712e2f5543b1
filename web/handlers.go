package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ByLCY/inventario/advisor"
	"github.com/ByLCY/inventario/dsl"
	"github.com/ByLCY/inventario/inventory"
	"github.com/ByLCY/inventario/layout"
	"github.com/ByLCY/inventario/probe"
	"github.com/ByLCY/inventario/session"
	"github.com/ByLCY/inventario/sheet"
	"github.com/ByLCY/inventario/store"
)

type indexView struct {
	Assets     []inventory.Asset
	Query      string
	Batch      inventory.Batch
	Flash      string
	Error      string
	HasCached  bool
	CachedFile string
	Pings      []probe.Result
	Selected   map[string]bool
}

type advisorView struct {
	Query    string
	Question string
	Answer   string
	Error    string
	HasKey   bool
}

type designView struct {
	Design  layout.LabelConfig
	HasLogo bool
	Flash   string
	Error   string
}

type loginView struct {
	Error string
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("template execution failed", zap.String("template", name), zap.Error(err))
	}
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	if sess, err := s.current(r); err == nil && sess.LoggedIn {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, "login.html", loginView{})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if _, err := s.sessions.Login(sessionID(r), r.FormValue("password")); err != nil {
		if !errors.Is(err, session.ErrWrongPassword) {
			s.logger.Warn("login failed", zap.Error(err))
		}
		s.render(w, http.StatusUnauthorized, "login.html", loginView{Error: "Senha inválida."})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Logout(sessionID(r))
	http.SetCookie(w, &http.Cookie{
		Name:   session.CookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	s.renderIndex(w, r, http.StatusOK, indexView{Query: r.URL.Query().Get("q")})
}

// renderIndex 填充资产列表和会话中缓存的标签页。
func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, status int, v indexView) {
	assets, err := s.store.Search(v.Query)
	if err != nil {
		s.logger.Error("listing assets failed", zap.Error(err))
		v.Error = joinMessages(v.Error, "Falha ao ler o inventário.")
	}
	v.Assets = assets
	if v.Batch == (inventory.Batch{}) {
		v.Batch = inventory.DefaultBatch()
	}
	if sess, err := s.current(r); err == nil && sess.Cached != nil {
		v.HasCached = true
		v.CachedFile = sess.Cached.FileName
	}
	s.render(w, status, "index.html", v)
}

func (s *Server) registerBatch(w http.ResponseWriter, r *http.Request) {
	batch := inventory.Batch{
		Prefix: r.FormValue("prefix"),
		Sector: r.FormValue("sector"),
		Model:  r.FormValue("model"),
	}
	qty, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quantity")))
	if err != nil {
		s.renderIndex(w, r, http.StatusBadRequest, indexView{Batch: batch, Error: "Quantidade inválida."})
		return
	}
	batch.Quantity = qty

	assets, inserted, err := s.insertBatch(batch)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, inventory.ErrBatchQuantity) {
			status = http.StatusBadRequest
		}
		s.renderIndex(w, r, status, indexView{Batch: batch, Error: err.Error()})
		return
	}

	sess, err := s.current(r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	doc, err := s.compositor.Compose(inventory.Records(assets), sess.Design)
	if err != nil {
		s.logger.Error("composing labels failed", zap.Error(err))
		s.renderIndex(w, r, http.StatusInternalServerError, indexView{Error: "Falha ao gerar etiquetas."})
		return
	}
	sess.Cached = &doc
	if err := s.sessions.Replace(sess); err != nil {
		s.logger.Warn("session vanished while caching labels", zap.Error(err))
	}

	s.logger.Info("batch registered",
		zap.String("prefix", batch.Prefix),
		zap.Int("requested", batch.Quantity),
		zap.Int("inserted", inserted))
	flash := fmt.Sprintf("%d ativos cadastrados!", inserted)
	if skipped := len(assets) - inserted; skipped > 0 {
		flash += fmt.Sprintf(" (%d já existiam)", skipped)
	}
	s.renderIndex(w, r, http.StatusOK, indexView{Flash: flash})
}

func (s *Server) insertBatch(b inventory.Batch) ([]inventory.Asset, int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return store.RegisterBatch(s.store, b)
}

func (s *Server) downloadLabels(w http.ResponseWriter, r *http.Request) {
	sess, err := s.current(r)
	if err != nil || sess.Cached == nil {
		http.Error(w, "Nenhuma etiqueta gerada nesta sessão", http.StatusNotFound)
		return
	}
	writeDocument(w, *sess.Cached)
}

func (s *Server) reprintLabels(w http.ResponseWriter, r *http.Request) {
	assets, ok := s.selected(w, r)
	if !ok {
		return
	}
	sess, err := s.current(r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	doc, err := s.compositor.Reprint(inventory.Records(assets), sess.Design)
	if err != nil {
		s.logger.Error("composing reprint failed", zap.Error(err))
		http.Error(w, "Falha ao gerar etiquetas", http.StatusInternalServerError)
		return
	}
	writeDocument(w, doc)
}

func writeDocument(w http.ResponseWriter, doc sheet.Document) {
	w.Header().Set("Content-Type", doc.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Bytes)))
	_, _ = w.Write(doc.Bytes)
}

// selected 解析勾选的编号，未勾选时渲染提示。
func (s *Server) selected(w http.ResponseWriter, r *http.Request) ([]inventory.Asset, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Formulário inválido", http.StatusBadRequest)
		return nil, false
	}
	tags := r.PostForm["tag"]
	if len(tags) == 0 {
		s.renderIndex(w, r, http.StatusBadRequest, indexView{
			Query: r.PostFormValue("q"),
			Error: "Marque os itens na tabela para gerenciar.",
		})
		return nil, false
	}
	assets, err := s.store.GetMany(tags)
	if err != nil {
		s.logger.Error("loading selection failed", zap.Error(err))
		http.Error(w, "Falha ao ler o inventário", http.StatusInternalServerError)
		return nil, false
	}
	return assets, true
}

func (s *Server) ping(w http.ResponseWriter, r *http.Request) {
	assets, ok := s.selected(w, r)
	if !ok {
		return
	}
	results := s.prober.CheckAssets(r.Context(), assets)
	s.renderIndex(w, r, http.StatusOK, indexView{
		Query:    r.PostFormValue("q"),
		Pings:    results,
		Selected: tagSet(assets),
	})
}

// editAssets 为勾选的行打开编辑表单。
func (s *Server) editAssets(w http.ResponseWriter, r *http.Request) {
	assets, ok := s.selected(w, r)
	if !ok {
		return
	}
	s.renderIndex(w, r, http.StatusOK, indexView{
		Query:    r.PostFormValue("q"),
		Selected: tagSet(assets),
	})
}

func (s *Server) deleteAssets(w http.ResponseWriter, r *http.Request) {
	assets, ok := s.selected(w, r)
	if !ok {
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	for _, a := range assets {
		if err := s.store.DeleteByTag(a.Tag); err != nil {
			s.logger.Error("delete failed", zap.String("tag", a.Tag), zap.Error(err))
			s.renderIndex(w, r, http.StatusInternalServerError, indexView{Error: "Falha ao remover " + a.Tag})
			return
		}
	}
	s.logger.Info("assets removed", zap.Int("count", len(assets)))
	s.renderIndex(w, r, http.StatusOK, indexView{
		Query: r.PostFormValue("q"),
		Flash: fmt.Sprintf("%d item(ns) removido(s).", len(assets)),
	})
}

// updateAssets 读取并列的 tag/model/ip/sector/status 字段，每个编辑行一组。
func (s *Server) updateAssets(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Formulário inválido", http.StatusBadRequest)
		return
	}
	form := r.PostForm
	tags := form["tag"]
	models, ips, sectors, statuses := form["model"], form["ip"], form["sector"], form["status"]
	if len(tags) == 0 || len(models) != len(tags) || len(ips) != len(tags) ||
		len(sectors) != len(tags) || len(statuses) != len(tags) {
		s.renderIndex(w, r, http.StatusBadRequest, indexView{Error: "Edição incompleta."})
		return
	}

	edits := make([]inventory.Fields, len(tags))
	for i := range tags {
		edits[i] = inventory.Fields{
			Model:  models[i],
			IP:     strings.TrimSpace(ips[i]),
			Sector: sectors[i],
			Status: statuses[i],
		}
		if err := edits[i].Validate(); err != nil {
			s.renderIndex(w, r, http.StatusBadRequest, indexView{Error: fmt.Sprintf("%s: IP inválido %q", tags[i], edits[i].IP)})
			return
		}
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	for i, tag := range tags {
		if err := s.store.UpdateFields(tag, edits[i]); err != nil {
			s.logger.Warn("update failed", zap.String("tag", tag), zap.Error(err))
			s.renderIndex(w, r, http.StatusBadRequest, indexView{Error: "Falha ao salvar " + tag})
			return
		}
	}
	s.renderIndex(w, r, http.StatusOK, indexView{Query: form.Get("q"), Flash: "Salvo!"})
}

func (s *Server) advisorPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "advisor.html", advisorView{HasKey: s.geminiKey != ""})
}

func (s *Server) askAdvisor(w http.ResponseWriter, r *http.Request) {
	v := advisorView{
		Query:    r.FormValue("q"),
		Question: r.FormValue("question"),
		HasKey:   s.geminiKey != "",
	}
	key := strings.TrimSpace(r.FormValue("api_key"))
	if key == "" {
		key = s.geminiKey
	}
	assets, err := s.store.Search(v.Query)
	if err != nil {
		s.logger.Error("listing assets failed", zap.Error(err))
		v.Error = "Falha ao ler o inventário."
		s.render(w, http.StatusInternalServerError, "advisor.html", v)
		return
	}

	answer, err := s.advisor.Ask(r.Context(), key, advisor.InventoryContext(assets), v.Question)
	if err != nil {
		// 外部服务的错误直接显示在页面上
		v.Error = "Erro: " + err.Error()
	} else {
		v.Answer = answer
	}
	s.render(w, http.StatusOK, "advisor.html", v)
}

func (s *Server) designPage(w http.ResponseWriter, r *http.Request) {
	sess, err := s.current(r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, "design.html", designView{Design: sess.Design, HasLogo: len(sess.Design.Logo) > 0})
}

func (s *Server) saveDesign(w http.ResponseWriter, r *http.Request) {
	sess, err := s.current(r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, MaxLogoSize+1<<20)
	if err := r.ParseMultipartForm(MaxLogoSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.render(w, http.StatusBadRequest, "design.html", designView{Design: sess.Design, Error: "Arquivo muito grande."})
		return
	}

	design := sess.Design
	design.Title = r.FormValue("title")
	design.CreatedBy = r.FormValue("created_by")
	design.ShowQR = r.FormValue("show_qr") != ""
	if err := dsl.ValidateTitle(design.Title); err != nil {
		s.render(w, http.StatusBadRequest, "design.html", designView{
			Design:  sess.Design,
			HasLogo: len(sess.Design.Logo) > 0,
			Error:   "Título inválido: use apenas ${tag}, ${sector} ou ${model}.",
		})
		return
	}
	if r.FormValue("remove_logo") != "" {
		design.Logo = nil
	}
	if file, _, err := r.FormFile("logo"); err == nil {
		data, err := io.ReadAll(io.LimitReader(file, MaxLogoSize+1))
		file.Close()
		if err != nil || len(data) > MaxLogoSize {
			s.render(w, http.StatusBadRequest, "design.html", designView{Design: sess.Design, Error: "Falha ao ler o logo."})
			return
		}
		design.Logo = data
	}

	v := designView{Design: design, HasLogo: len(design.Logo) > 0, Flash: "Design atualizado."}
	if len(design.Logo) > 0 {
		if _, err := layout.DecodeLogo(design.Logo); err != nil {
			// 设计仍然保存，标签不带 logo
			v.Flash = "Design atualizado, mas o logo não pôde ser lido e será omitido."
		}
	}
	sess.Design = design
	if err := s.sessions.Replace(sess); err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	s.render(w, http.StatusOK, "design.html", v)
}

// exportDesign 以设计文件形式下载当前设计。文件不含 logo 数据，因此不写 logo 行。
func (s *Server) exportDesign(w http.ResponseWriter, r *http.Request) {
	sess, err := s.current(r)
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="etiqueta.design"`)
	_, _ = io.WriteString(w, dsl.Format(sess.Design, ""))
}

func tagSet(assets []inventory.Asset) map[string]bool {
	out := make(map[string]bool, len(assets))
	for _, a := range assets {
		out[a.Tag] = true
	}
	return out
}

func joinMessages(a, b string) string {
	if a == "" {
		return b
	}
	return a + " " + b
}
