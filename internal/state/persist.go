package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/HendryAvila/phasekeep/internal/phase"
)

// DocumentVersion is the schema version written to new state documents.
const DocumentVersion = 1

// ErrNotFound is returned by LoadDocument when the state file does not exist.
var ErrNotFound = errors.New("state file not found")

// ParseError is returned when a state file exists but cannot be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Document is the persisted state file: one record per branch.
type Document struct {
	Version  int                           `json:"version"`
	Branches map[string]*phase.BranchState `json:"branches"`
}

func newDocument() *Document {
	return &Document{Version: DocumentVersion, Branches: make(map[string]*phase.BranchState)}
}

// clone deep-copies the document.
func (d *Document) clone() *Document {
	out := &Document{Version: d.Version, Branches: make(map[string]*phase.BranchState, len(d.Branches))}
	for k, v := range d.Branches {
		out.Branches[k] = v.Clone()
	}
	return out
}

// LoadDocument reads the state document at path.
// Returns ErrNotFound if the file is absent, or *ParseError on malformed JSON.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if doc.Version == 0 && doc.Branches == nil {
		return nil, &ParseError{Path: path, Err: errors.New("missing version and branches")}
	}
	if doc.Version > DocumentVersion {
		return nil, &ParseError{Path: path, Err: fmt.Errorf("unsupported version %d", doc.Version)}
	}
	if doc.Branches == nil {
		doc.Branches = make(map[string]*phase.BranchState)
	}
	for name, rec := range doc.Branches {
		if rec == nil {
			delete(doc.Branches, name)
			continue
		}
		if rec.Branch == "" {
			rec.Branch = name
		}
		if rec.Transitions == nil {
			rec.Transitions = []phase.Transition{}
		}
	}
	return &doc, nil
}

// SaveDocument atomically writes doc to path, creating the parent directory.
func SaveDocument(path string, doc *Document) error {
	if doc.Version == 0 {
		doc.Version = DocumentVersion
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state document: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	return atomicWrite(path, append(data, '\n'))
}

// atomicWrite writes data to a temp file next to path, syncs it, then
// renames it over path. Readers see either the old or the new file.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp file %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("chmod temp file %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName) // best-effort cleanup on rename failure
		return fmt.Errorf("rename %s -> %s: %w", tmpName, path, err)
	}
	return nil
}
