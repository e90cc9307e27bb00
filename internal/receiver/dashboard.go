package receiver

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
)

//go:embed web/dashboard.html
var webFS embed.FS

var dashboardTmpl = template.Must(template.ParseFS(webFS, "web/dashboard.html"))

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, struct{ Teacher string }{s.cfg.Teacher}); err != nil {
		s.logger.Error("render dashboard", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
