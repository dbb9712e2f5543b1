package web

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/inventario/advisor"
	"github.com/ByLCY/inventario/dsl"
	"github.com/ByLCY/inventario/inventory"
	"github.com/ByLCY/inventario/probe"
	"github.com/ByLCY/inventario/session"
	"github.com/ByLCY/inventario/store/sqlite"
)

const password = "admin123"

type okRunner struct{}

func (okRunner) Run(context.Context, string, ...string) error { return nil }

type echoGenerator struct{}

func (echoGenerator) Generate(_ context.Context, _ string, prompt string) (string, error) {
	return "resposta para: " + prompt[strings.LastIndex(prompt, "Pergunta: ")+len("Pergunta: "):], nil
}

type harness struct {
	t      *testing.T
	srv    *httptest.Server
	client *http.Client
	repo   *sqlite.AssetRepository
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	repo, err := sqlite.Open(filepath.Join(t.TempDir(), "inventario.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	s, err := NewServer(Deps{
		Store:    repo,
		Sessions: session.NewManager(password),
		Prober:   probe.New(probe.WithRunner(okRunner{})),
		Advisor: advisor.New("test-model", func(context.Context, string) (advisor.Generator, error) {
			return echoGenerator{}, nil
		}, nil),
	})
	require.NoError(t, err)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &harness{t: t, srv: srv, client: &http.Client{Jar: jar}, repo: repo}
}

func (h *harness) get(path string) (*http.Response, string) {
	h.t.Helper()
	resp, err := h.client.Get(h.srv.URL + path)
	require.NoError(h.t, err)
	return resp, readBody(h.t, resp)
}

func (h *harness) post(path string, form url.Values) (*http.Response, string) {
	h.t.Helper()
	resp, err := h.client.PostForm(h.srv.URL+path, form)
	require.NoError(h.t, err)
	return resp, readBody(h.t, resp)
}

func (h *harness) login() {
	h.t.Helper()
	resp, body := h.post("/login", url.Values{"password": {password}})
	require.Equal(h.t, http.StatusOK, resp.StatusCode)
	require.Contains(h.t, body, "Controle de Ativos")
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func (h *harness) seed(assets ...inventory.Asset) {
	h.t.Helper()
	for _, a := range assets {
		_, err := h.repo.InsertIfAbsent(a)
		require.NoError(h.t, err)
	}
}

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	h := newHarness(t)
	resp, body := h.get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "/login", resp.Request.URL.Path)
	assert.Contains(t, body, "Login Administrativo")
}

func TestUnauthenticatedXHRGets401(t *testing.T) {
	h := newHarness(t)
	req, err := http.NewRequest(http.MethodGet, h.srv.URL+"/labels/download", nil)
	require.NoError(t, err)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	resp, err := h.client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	h := newHarness(t)
	resp, body := h.post("/login", url.Values{"password": {"nope"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Senha inválida.")
}

func TestLogoutDropsSession(t *testing.T) {
	h := newHarness(t)
	h.login()
	resp, _ := h.post("/logout", nil)
	assert.Equal(t, "/login", resp.Request.URL.Path)
	resp, _ = h.get("/")
	assert.Equal(t, "/login", resp.Request.URL.Path)
}

func TestBatchRegistersAndCachesLabels(t *testing.T) {
	h := newHarness(t)
	h.login()

	resp, _ := h.get("/labels/download")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := h.post("/assets/batch", url.Values{
		"prefix": {"TAG-2026-"}, "sector": {"RH"}, "model": {"Dell"}, "quantity": {"3"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "3 ativos cadastrados!")
	assert.Contains(t, body, "TAG-2026-0003")

	n, err := h.repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	resp, pdf := h.get("/labels/download")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "etiquetas.pdf")
	assert.True(t, strings.HasPrefix(pdf, "%PDF-"))
}

func TestBatchRejectsBadQuantity(t *testing.T) {
	h := newHarness(t)
	h.login()
	for _, qty := range []string{"0", "101", "x"} {
		resp, _ := h.post("/assets/batch", url.Values{"prefix": {"T-"}, "quantity": {qty}})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, qty)
	}
	n, err := h.repo.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSearchFiltersInventory(t *testing.T) {
	h := newHarness(t)
	h.seed(
		inventory.Asset{Tag: "A-1", Sector: "Financeiro", IP: "0.0.0.0"},
		inventory.Asset{Tag: "B-2", Sector: "RH", IP: "0.0.0.0"},
	)
	h.login()
	_, body := h.get("/?q=finan")
	assert.Contains(t, body, "A-1")
	assert.NotContains(t, body, "B-2")
}

func TestReprintSelected(t *testing.T) {
	h := newHarness(t)
	h.seed(inventory.Asset{Tag: "A-1", Sector: "RH", Model: "X", IP: "0.0.0.0"})
	h.login()

	resp, body := h.post("/labels/reprint", url.Values{"tag": {"A-1"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "etiquetas_reimp.pdf")
	assert.True(t, strings.HasPrefix(body, "%PDF-"))

	resp, body = h.post("/labels/reprint", url.Values{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Marque os itens")
}

func TestPingClassifiesSelected(t *testing.T) {
	h := newHarness(t)
	h.seed(
		inventory.Asset{Tag: "A-1", IP: "0.0.0.0"},
		inventory.Asset{Tag: "B-2", IP: "10.0.0.5"},
	)
	h.login()
	resp, body := h.post("/ping", url.Values{"tag": {"A-1", "B-2"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, probe.NotApplicable.Label())
	assert.Contains(t, body, probe.Online.Label())
	assert.Contains(t, body, "Edição de Selecionados")
}

func TestUpdateAndDelete(t *testing.T) {
	h := newHarness(t)
	h.seed(inventory.Asset{Tag: "A-1", Model: "old", IP: "0.0.0.0", Sector: "RH", Status: "Ativo"})
	h.login()

	resp, body := h.post("/assets/update", url.Values{
		"tag": {"A-1"}, "model": {"new"}, "ip": {"999.1.1.1"}, "sector": {"RH"}, "status": {"Ativo"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "IP inválido")

	resp, body = h.post("/assets/update", url.Values{
		"tag": {"A-1"}, "model": {"new"}, "ip": {"10.0.0.9"}, "sector": {"TI"}, "status": {"Manutenção"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Salvo!")
	got, err := h.repo.Get("A-1")
	require.NoError(t, err)
	assert.Equal(t, inventory.Fields{Model: "new", IP: "10.0.0.9", Sector: "TI", Status: "Manutenção"}, got.Fields())

	resp, _ = h.post("/assets/delete", url.Values{"tag": {"A-1"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	n, err := h.repo.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAdvisorAnswersInline(t *testing.T) {
	h := newHarness(t)
	h.login()

	_, body := h.post("/advisor", url.Values{"api_key": {"k"}, "question": {"quantos?"}})
	assert.Contains(t, body, "resposta para: quantos?")

	resp, body := h.post("/advisor", url.Values{"question": {"quantos?"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Erro:")
}

func TestDesignUpdateAndExport(t *testing.T) {
	h := newHarness(t)
	h.login()

	_, body := h.get("/design")
	assert.Contains(t, body, session.DefaultTitle)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "NOVO TITULO"))
	require.NoError(t, mw.WriteField("created_by", "Equipe"))
	fw, err := mw.CreateFormFile("logo", "logo.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("not an image"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := h.client.Post(h.srv.URL+"/design", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	body = readBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "será omitido")

	resp, exported := h.get("/design/export")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, exported, `design "NOVO TITULO"`)
	assert.Contains(t, exported, `created-by: "Equipe"`)
	assert.Contains(t, exported, "qr: false")
	assert.NotContains(t, exported, "logo:")

	// 导出的文件无需其他附件即可重新加载
	d, err := dsl.ParseString(exported)
	require.NoError(t, err)
	cfg, err := d.LabelConfig(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "NOVO TITULO", cfg.Title)
}

func TestDesignRejectsUnknownTitlePlaceholder(t *testing.T) {
	h := newHarness(t)
	h.login()

	resp, body := h.post("/design", url.Values{"title": {"TI ${owner}"}, "created_by": {"x"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Título inválido")

	_, exported := h.get("/design/export")
	assert.Contains(t, exported, session.DefaultTitle)
}

func TestEditOpensEditorWithoutPing(t *testing.T) {
	h := newHarness(t)
	h.seed(
		inventory.Asset{Tag: "A1", IP: "10.0.0.1"},
		inventory.Asset{Tag: "B2", IP: "10.0.0.2"},
	)
	h.login()

	_, body := h.get("/?q=A1")
	assert.NotContains(t, body, "Edição de Selecionados")

	resp, body := h.post("/assets/edit", url.Values{"tag": {"A1"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Edição de Selecionados")
	assert.Contains(t, body, `name="tag" value="A1"`)
	assert.NotContains(t, body, `type="hidden" name="tag" value="B2"`)
	assert.NotContains(t, body, probe.Online.Label())

	resp, _ = h.post("/assets/edit", url.Values{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
