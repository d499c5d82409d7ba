package httpserver

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const viewCookieName = "xqbridge_view"

// RegisterStaticRoutes 挂载：
// - /web/*        -> 桌面版页面（webDir）
// - /web_mobile/* -> 手机版页面（有 webDir/mobile 就用它，否则用 webDir）
// - /             -> 按 ?view= / cookie / User-Agent 重定向
func RegisterStaticRoutes(mux *http.ServeMux, webDir string) {
	mobileDir := filepath.Join(webDir, "mobile")
	if fi, err := os.Stat(mobileDir); err != nil || !fi.IsDir() {
		mobileDir = webDir
	}

	mux.Handle("/web/", http.StripPrefix("/web/", http.FileServer(http.Dir(webDir))))
	mux.Handle("/web_mobile/", http.StripPrefix("/web_mobile/", http.FileServer(http.Dir(mobileDir))))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/":
			target := "/web/"
			if pickView(w, r) == "mobile" {
				target = "/web_mobile/"
			}
			w.Header().Set("Vary", "User-Agent, Cookie")
			http.Redirect(w, r, target, http.StatusFound)
		case "/web", "/web_mobile":
			http.Redirect(w, r, r.URL.Path+"/", http.StatusFound)
		default:
			http.NotFound(w, r)
		}
	})
}

func pickView(w http.ResponseWriter, r *http.Request) string {
	if v, ok := normalizeView(r.URL.Query().Get("view")); ok {
		http.SetCookie(w, &http.Cookie{
			Name:     viewCookieName,
			Value:    v,
			Path:     "/",
			MaxAge:   30 * 24 * 60 * 60,
			SameSite: http.SameSiteLaxMode,
		})
		return v
	}
	if c, err := r.Cookie(viewCookieName); err == nil {
		if v, ok := normalizeView(c.Value); ok {
			return v
		}
	}
	ua := strings.ToLower(r.UserAgent())
	for _, n := range []string{"android", "iphone", "ipad", "mobile", "harmony"} {
		if strings.Contains(ua, n) {
			return "mobile"
		}
	}
	return "web"
}

func normalizeView(v string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "web", "desktop", "pc":
		return "web", true
	case "mobile", "m", "phone":
		return "mobile", true
	default:
		return "", false
	}
}
