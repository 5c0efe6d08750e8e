package devtools

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/vango-dev/observable/pkg/snapshot"
)

// SnapshotInfo describes a saved or restored snapshot.
type SnapshotInfo struct {
	Key     string    `json:"key"`
	TakenAt time.Time `json:"takenAt"`
	Cells   int       `json:"cells"`
}

func (s *Server) handleSnapshotList(w http.ResponseWriter, r *http.Request) {
	keys, err := s.config.Snapshots.List(r.Context(), "")
	if err != nil {
		s.writeError(w, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, keys)
}

func (s *Server) handleSnapshotGet(w http.ResponseWriter, r *http.Request) {
	doc, err := snapshot.Load(r.Context(), s.config.Snapshots, chi.URLParam(r, "key"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleSnapshotDelete(w http.ResponseWriter, r *http.Request) {
	if s.config.ReadOnly {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "devtools is read-only"})
		return
	}

	key := chi.URLParam(r, "key")
	if err := s.config.Snapshots.Delete(r.Context(), key); err != nil {
		s.logger.Error("snapshot delete failed", "key", key, "error", err)
		s.writeError(w, err)
		return
	}
	s.logger.Info("snapshot deleted", "key", key)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSnapshotSave(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	doc, err := snapshot.Save(r.Context(), s.config.Store, s.config.Snapshots, key)
	if err != nil {
		s.logger.Error("snapshot save failed", "key", key, "error", err)
		s.writeError(w, err)
		return
	}
	s.logger.Info("snapshot saved", "key", key, "cells", len(doc.Cells))
	writeJSON(w, http.StatusCreated, SnapshotInfo{Key: key, TakenAt: doc.TakenAt, Cells: len(doc.Cells)})
}

func (s *Server) handleSnapshotRestore(w http.ResponseWriter, r *http.Request) {
	if s.config.ReadOnly {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "devtools is read-only"})
		return
	}

	key := chi.URLParam(r, "key")
	doc, err := snapshot.Restore(r.Context(), s.config.Store, s.config.Snapshots, key)
	if err != nil {
		s.logger.Warn("snapshot restore failed", "key", key, "error", err)
		s.writeError(w, err)
		return
	}
	s.logger.Info("snapshot restored", "key", key, "cells", len(doc.Cells))
	writeJSON(w, http.StatusOK, SnapshotInfo{Key: key, TakenAt: doc.TakenAt, Cells: len(doc.Cells)})
}
