package receiver

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const maxUpload = 64 << 20

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeError(w, newInvalidRequest("invalid multipart form: "+err.Error()))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	if s.cfg.AuthRequired() && r.FormValue("password") != s.cfg.Password {
		s.logger.Warn("submission rejected", slog.String("remote", r.RemoteAddr))
		writeError(w, newUnauthorized())
		return
	}

	student := strings.TrimSpace(r.FormValue("student"))
	if student == "" {
		student = "Unknown Student"
	}
	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		title = "Untitled"
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			writeError(w, newInvalidRequest("missing file"))
			return
		}
		writeError(w, newInternal(err))
		return
	}
	defer file.Close()

	ext := Extension(header.Header.Get("Content-Type"))
	now := s.now()
	path, err := s.save(now.Format("2006-01-02"), FileName(student, title, ext), file)
	if err != nil {
		s.logger.Error("save submission", slog.String("error", err.Error()))
		writeError(w, newInternal(err))
		return
	}

	s.logger.Info("submission saved",
		slog.String("student", student),
		slog.String("title", title),
		slog.String("path", path))

	s.broker.PublishSubmission(SubmissionEvent{
		Time:    now.Format("15:04"),
		Student: student,
		Title:   title,
		Path:    path,
	})
	writeJSON(w, http.StatusOK, Reply{OK: true, Saved: path})
}

// save writes src to a free name under the day's directory.
func (s *Server) save(day, name string, src io.Reader) (string, error) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	dir := filepath.Join(s.cfg.SaveDir, day)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}
	dest := uniquePath(dir, name)
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dest, err)
	}
	success := false
	defer func() {
		if !success {
			_ = os.Remove(dest)
		}
	}()
	if _, err := io.Copy(f, src); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write %s: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", dest, err)
	}
	success = true
	return dest, nil
}

func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("path")
	dest, err := filepath.Abs(raw)
	if err != nil || raw == "" {
		writeError(w, newForbidden())
		return
	}
	root, err := filepath.Abs(s.cfg.SaveDir)
	if err != nil {
		writeError(w, newInternal(err))
		return
	}
	rel, err := filepath.Rel(root, dest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		writeError(w, newForbidden())
		return
	}
	if !fileExists(dest) {
		writeError(w, newNotFound())
		return
	}
	if err := s.open(dest); err != nil {
		s.logger.Error("open submission", slog.String("path", dest), slog.String("error", err.Error()))
		writeError(w, newInternal(err))
		return
	}
	writeJSON(w, http.StatusOK, Reply{OK: true})
}
