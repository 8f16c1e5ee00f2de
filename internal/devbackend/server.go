// Copyright (C) ConfigHub, Inc.
// SPDX-License-Identifier: MIT

// Package devbackend is a local stand-in for the lending backend's record
// API. It accepts the same partial updates the CLI sends, checks them
// against the wizard registry and keeps them in SQLite.
package devbackend

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/monadic/lendops/pkg/backend"
	"github.com/monadic/lendops/pkg/schema"
	"github.com/monadic/lendops/pkg/submit"
)

// Logger receives one line per request.
type Logger interface {
	Log(format string, args ...any)
}

// Options configure a Server.
type Options struct {
	// Token, when set, must be presented as a bearer token.
	Token string
	// Reject lists backend section keys that are always answered with 422.
	Reject []string
	Log    Logger
}

// Server serves GET and PATCH on /v1/{resource}/{id}.
type Server struct {
	store    *Store
	registry *schema.Registry
	opts     Options
	reject   sets.Set[string]
	mux      *http.ServeMux
}

// NewServer wires a server over store for the wizards in registry.
func NewServer(store *Store, registry *schema.Registry, opts Options) *Server {
	s := &Server{
		store:    store,
		registry: registry,
		opts:     opts,
		reject:   sets.New(opts.Reject...),
		mux:      http.NewServeMux(),
	}
	s.mux.HandleFunc("GET "+backend.APIPrefix+"/{resource}/{id}", s.handleGet)
	s.mux.HandleFunc("PATCH "+backend.APIPrefix+"/{resource}/{id}", s.handlePatch)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.opts.Token != "" && r.Header.Get("Authorization") != "Bearer "+s.opts.Token {
		writeError(w, http.StatusUnauthorized, "missing or invalid token")
		return
	}
	s.mux.ServeHTTP(w, r)
}

func (s *Server) logf(format string, args ...any) {
	if s.opts.Log != nil {
		s.opts.Log.Log(format, args...)
	}
}

func (s *Server) wizardFor(resource string) *schema.Wizard {
	for _, w := range s.registry.Wizards() {
		if w.Resource == resource {
			return w
		}
	}
	return nil
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	resource, id := r.PathValue("resource"), r.PathValue("id")
	if s.wizardFor(resource) == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown resource %q", resource))
		return
	}
	rec, err := s.store.Get(r.Context(), resource, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(rec) == 0 {
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s %s not found", resource, id))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request) {
	resource, id := r.PathValue("resource"), r.PathValue("id")
	requestID := r.Header.Get(backend.RequestIDHeader)

	wiz := s.wizardFor(resource)
	if wiz == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown resource %q", resource))
		return
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		writeError(w, http.StatusBadRequest, "body must be a JSON object: "+err.Error())
		return
	}
	if len(body) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "empty update")
		return
	}

	for key, raw := range body {
		if msg := s.checkSection(wiz, key, raw); msg != "" {
			s.logf("PATCH %s/%s [%s] rejected: %s", resource, id, requestID, msg)
			writeError(w, http.StatusUnprocessableEntity, msg)
			return
		}
	}

	if err := s.store.Patch(r.Context(), resource, id, requestID, body); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logf("PATCH %s/%s [%s] sections=%s", resource, id, requestID, strings.Join(sets.List(sets.KeySet(body)), ","))
	w.WriteHeader(http.StatusNoContent)
}

// checkSection returns a rejection message or "".
func (s *Server) checkSection(wiz *schema.Wizard, key string, raw json.RawMessage) string {
	if s.reject.Has(key) || s.reject.Has("*") {
		return fmt.Sprintf("%s: rejected by configuration", key)
	}
	var sec *schema.Section
	for i := range wiz.Sections {
		if wiz.Sections[i].BackendKey == key {
			sec = &wiz.Sections[i]
			break
		}
	}
	if sec == nil {
		return fmt.Sprintf("%s: unknown section for %s", key, wiz.Resource)
	}

	var entries []submit.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Sprintf("%s: entries must be a list: %v", key, err)
	}
	for i, e := range entries {
		if _, ok := sec.Descriptor(e.Key); !ok {
			return fmt.Sprintf("%s[%d]: unknown parameter %q", key, i, e.Key)
		}
		if e.Weightage != nil && (*e.Weightage < 0 || *e.Weightage > 100) {
			return fmt.Sprintf("%s[%d]: weightage %v out of range", key, i, *e.Weightage)
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
