package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/layername/internal/host"
	"github.com/dgallion1/layername/internal/layertree"
	"github.com/go-chi/chi/v5"
)

// handleUploadDocument accepts a JSON document body, or a multipart form with a
// .json or .svg file under "file".
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	var (
		doc *layertree.Document
		err error
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		doc, err = s.readUploadedFile(w, r)
	} else {
		doc, err = layertree.DecodeDocument(r.Body)
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("document exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	mem, err := s.docs.Add(doc)
	if err != nil {
		jsonError(w, "invalid document: "+err.Error(), http.StatusBadRequest)
		return
	}
	selected, total, _ := mem.Counts(r.Context())
	s.log.Info("document uploaded", "doc_id", mem.ID(), "name", doc.Name, "layers", doc.LayerCount())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":         mem.ID(),
		"name":           doc.Name,
		"layers":         doc.LayerCount(),
		"selected":       selected,
		"selected_total": total,
	})
}

func (s *Server) readUploadedFile(w http.ResponseWriter, r *http.Request) (*layertree.Document, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("file is required: %w", err)
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, &http.MaxBytesError{Limit: s.cfg.MaxUploadBytes}
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return layertree.DecodeDocument(bytes.NewReader(data))
	case ".svg":
		return host.ParseSVG(bytes.NewReader(data), filename)
	}
	return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
}

func (s *Server) document(w http.ResponseWriter, r *http.Request) (*host.Memory, bool) {
	docID := chi.URLParam(r, "docID")
	mem, ok := s.docs.Get(docID)
	if !ok {
		jsonError(w, "document not found", http.StatusNotFound)
		return nil, false
	}
	return mem, true
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	mem, ok := s.document(w, r)
	if !ok {
		return
	}
	doc := mem.Document()
	doc.Previews = nil
	selected, total, err := mem.Counts(r.Context())
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"document":       doc,
		"layers":         doc.LayerCount(),
		"selected":       selected,
		"selected_total": total,
	})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if !s.docs.Remove(docID) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	s.log.Info("document deleted", "doc_id", docID)
	w.WriteHeader(http.StatusNoContent)
}

type selectionRequest struct {
	IDs []string `json:"ids"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	mem, ok := s.document(w, r)
	if !ok {
		return
	}
	var req selectionRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		jsonError(w, "invalid selection: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := mem.Select(req.IDs); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, host.ErrUnknownLayer) {
			code = http.StatusBadRequest
		}
		jsonError(w, err.Error(), code)
		return
	}
	selected, total, _ := mem.Counts(r.Context())
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"selected":       selected,
		"selected_total": total,
	})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
