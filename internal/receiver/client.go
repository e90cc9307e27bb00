package receiver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

// Target is a receiver found on the network.
type Target struct {
	Instance string
	Teacher  string
	Host     string
	Port     int
	Auth     bool
}

// URL returns the receiver's base URL.
func (t Target) URL() string {
	return "http://" + net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// Label is how the target is shown in pickers.
func (t Target) Label() string {
	if t.Auth {
		return t.Teacher + " (password)"
	}
	return t.Teacher
}

// Discover browses mDNS for receivers until timeout elapses.
func Discover(ctx context.Context, timeout time.Duration) ([]Target, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("mdns resolver: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, 16)
	if err := resolver.Browse(ctx, ServiceType, Domain, entries); err != nil {
		return nil, fmt.Errorf("mdns browse: %w", err)
	}

	seen := make(map[string]Target)
collect:
	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				break collect
			}
			if t, ok := targetFromEntry(entry); ok {
				seen[entry.Instance] = t
			}
		case <-ctx.Done():
			break collect
		}
	}

	targets := make([]Target, 0, len(seen))
	for _, t := range seen {
		targets = append(targets, t)
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Teacher < targets[j].Teacher })
	return targets, nil
}

func targetFromEntry(entry *zeroconf.ServiceEntry) (Target, bool) {
	var host string
	switch {
	case len(entry.AddrIPv4) > 0:
		host = entry.AddrIPv4[0].String()
	case len(entry.AddrIPv6) > 0:
		host = entry.AddrIPv6[0].String()
	case entry.HostName != "":
		host = strings.TrimSuffix(entry.HostName, ".")
	default:
		return Target{}, false
	}
	t := Target{Instance: entry.Instance, Teacher: entry.Instance, Host: host, Port: entry.Port}
	for key, value := range parseTXT(entry.Text) {
		switch key {
		case "teacher":
			if value != "" {
				t.Teacher = value
			}
		case "auth":
			t.Auth = value == "1"
		}
	}
	return t, true
}

func parseTXT(records []string) map[string]string {
	out := make(map[string]string, len(records))
	for _, rec := range records {
		key, value, _ := strings.Cut(rec, "=")
		out[key] = value
	}
	return out
}

// Submission is one file sent to a receiver.
type Submission struct {
	Student  string
	Title    string
	Password string
	Path     string
}

// ContentType returns the upload content type for path.
func ContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	default:
		return "application/pdf"
	}
}

// Submit posts sub to the receiver at baseURL and decodes its reply. A
// rejected submission returns the reply and an *Error.
func Submit(ctx context.Context, client *http.Client, baseURL string, sub Submission) (Reply, error) {
	if client == nil {
		client = http.DefaultClient
	}
	body, contentType, err := encodeSubmission(sub)
	if err != nil {
		return Reply{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/submit", body)
	if err != nil {
		return Reply{}, fmt.Errorf("submit: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := client.Do(req)
	if err != nil {
		return Reply{}, fmt.Errorf("submit: %w", err)
	}
	defer resp.Body.Close()

	var reply Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return Reply{}, fmt.Errorf("submit: decode reply (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK || !reply.OK {
		return reply, errorFromStatus(resp.StatusCode, reply.Error)
	}
	return reply, nil
}

func encodeSubmission(sub Submission) (io.Reader, string, error) {
	f, err := os.Open(sub.Path)
	if err != nil {
		return nil, "", fmt.Errorf("submit: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := [][2]string{{"student", sub.Student}, {"title", sub.Title}}
	if sub.Password != "" {
		fields = append(fields, [2]string{"password", sub.Password})
	}
	for _, kv := range fields {
		if err := mw.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", fmt.Errorf("submit: %w", err)
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(sub.Path)))
	header.Set("Content-Type", ContentType(sub.Path))
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("submit: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("submit: read %s: %w", sub.Path, err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("submit: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}

func errorFromStatus(status int, msg string) *Error {
	code := ErrInternal
	switch status {
	case http.StatusUnauthorized:
		code = ErrUnauthorized
	case http.StatusBadRequest:
		code = ErrInvalidRequest
	case http.StatusForbidden:
		code = ErrForbidden
	case http.StatusNotFound:
		code = ErrNotFound
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &Error{Code: code, Status: status, Message: msg}
}
