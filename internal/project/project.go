// Package project stores writing projects as JSON records on disk.
package project

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/csheth/manuscripts/internal/citation"
)

// Project is one writing project: its markdown content and the sources it
// cites, in insertion order.
type Project struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Created  time.Time         `json:"created"`
	Modified time.Time         `json:"modified"`
	Content  string            `json:"content"`
	Sources  []citation.Source `json:"sources"`
}

// naiveLayout is how records written by the earlier desktop app store
// times: local time, no zone, optional fraction.
const naiveLayout = "2006-01-02T15:04:05.999999999"

// UnmarshalJSON accepts RFC 3339 timestamps and the zoneless local ones
// found in older data directories.
func (p *Project) UnmarshalJSON(data []byte) error {
	type record Project
	aux := struct {
		*record
		Created  string `json:"created"`
		Modified string `json:"modified"`
	}{record: (*record)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var err error
	if p.Created, err = parseTimestamp(aux.Created); err != nil {
		return fmt.Errorf("created: %w", err)
	}
	if p.Modified, err = parseTimestamp(aux.Modified); err != nil {
		return fmt.Errorf("modified: %w", err)
	}
	return nil
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(naiveLayout, s, time.Local)
}

// Summary is the listing view of a project.
type Summary struct {
	ID       string
	Name     string
	Modified time.Time
}

// Label renders the summary the way the project list shows it.
func (s Summary) Label() string {
	return s.Name + " (" + s.Modified.Format("Jan 02, 2006") + ")"
}

func (p Project) Summary() Summary {
	return Summary{ID: p.ID, Name: p.Name, Modified: p.Modified}
}

// ValidateName rejects blank project names.
func ValidateName(name string) error {
	return validation.Validate(strings.TrimSpace(name),
		validation.Required.Error("project name is required"),
		validation.Length(1, 200),
	)
}

// AddSource appends src.
func (p *Project) AddSource(src citation.Source) {
	p.Sources = append(p.Sources, src)
}

// RemoveSource drops the source with id. It reports whether one was found.
func (p *Project) RemoveSource(id string) bool {
	for i, src := range p.Sources {
		if src.ID == id {
			p.Sources = append(p.Sources[:i], p.Sources[i+1:]...)
			return true
		}
	}
	return false
}

// ReplaceSource swaps the stored source that shares src's id.
func (p *Project) ReplaceSource(src citation.Source) bool {
	for i := range p.Sources {
		if p.Sources[i].ID == src.ID {
			p.Sources[i] = src
			return true
		}
	}
	return false
}

// Source looks a source up by id.
func (p Project) Source(id string) (citation.Source, bool) {
	for _, src := range p.Sources {
		if src.ID == id {
			return src, true
		}
	}
	return citation.Source{}, false
}

// ImportSources copies every source of other whose id is not already
// present and returns how many were added.
func (p *Project) ImportSources(other Project) int {
	seen := make(map[string]bool, len(p.Sources))
	for _, src := range p.Sources {
		seen[src.ID] = true
	}
	added := 0
	for _, src := range other.Sources {
		if seen[src.ID] {
			continue
		}
		seen[src.ID] = true
		p.Sources = append(p.Sources, src)
		added++
	}
	return added
}
