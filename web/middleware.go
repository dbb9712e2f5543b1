package web

import (
	"context"
	"net/http"

	"github.com/ByLCY/inventario/session"
)

type sessionKey struct{}

// withSession 关联调用方的会话，首次访问时创建会话并写入 cookie。
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess session.Session
		cookie, err := r.Cookie(session.CookieName)
		if err == nil {
			sess, err = s.sessions.Get(cookie.Value)
		}
		if err != nil {
			sess = s.sessions.Create()
			http.SetCookie(w, &http.Cookie{
				Name:     session.CookieName,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, sess.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireLogin 放行 /login，其余路径要求会话已登录。
func (s *Server) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			next.ServeHTTP(w, r)
			return
		}
		sess, err := s.current(r)
		if err != nil || !sess.LoggedIn {
			// AJAX/API 请求返回 401，普通请求跳转登录页
			if r.Header.Get("X-Requested-With") == "XMLHttpRequest" ||
				r.Header.Get("Content-Type") == "application/json" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sessionID(r *http.Request) string {
	id, _ := r.Context().Value(sessionKey{}).(string)
	return id
}

func (s *Server) current(r *http.Request) (session.Session, error) {
	return s.sessions.Get(sessionID(r))
}
