package web

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/refsync/internal/core"
	"github.com/JonMunkholm/refsync/internal/logging"
)

// tableResponse describes one registered table.
type tableResponse struct {
	Key         string   `json:"key"`
	Tier        int      `json:"tier"`
	SourceFile  string   `json:"source_file"`
	TargetTable string   `json:"target_table"`
	KeyValue    bool     `json:"key_value"`
	Wired       bool     `json:"wired"`
	Columns     []string `json:"columns"`
}

// parityResponse is the body of GET /api/parity.
type parityResponse struct {
	OK bool `json:"ok"`
	core.ParityReport
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListTables(w http.ResponseWriter, r *http.Request) {
	descs := s.reg.ForEachInTierOrder()
	out := make([]tableResponse, len(descs))
	for i, d := range descs {
		out[i] = tableResponse{
			Key:         d.Key,
			Tier:        d.Tier,
			SourceFile:  d.SourceFile,
			TargetTable: d.TargetTable,
			KeyValue:    d.IsKeyValueMap,
			Wired:       d.Wired(),
			Columns:     d.ColumnNames(),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleSyncTable re-applies one table. Unknown keys are rejected here even
// though the Syncer itself would skip them, so a typo in an editor hook
// shows up as a 404 rather than a silent no-op.
func (s *Server) handleSyncTable(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if _, ok := s.reg.Get(key); !ok {
		respondError(w, r, fmt.Errorf("%w: %s", core.ErrUnknownTable, key))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Sync.SyncTimeout)
	defer cancel()

	result, err := s.syncer.SyncTable(ctx, key)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("sync hook applied",
		"table", key,
		"rows", result.Rows,
		"skipped", result.Skipped,
	)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleParity(w http.ResponseWriter, r *http.Request) {
	parity := core.NewParity(s.reg, s.loader, s.store, core.ParityConfig{
		Format: core.FormatOptions{MaxRows: s.cfg.Diff.MaxRows, MaxFields: s.cfg.Diff.MaxFields},
		Tables: r.URL.Query()["table"],
	})

	report, err := parity.Run(r.Context(), io.Discard)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, parityResponse{OK: report.OK(), ParityReport: report})
}

func (s *Server) handleVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := s.store.Versions(r.Context(), s.reg.TargetTables())
	if err != nil {
		respondError(w, r, &core.StoreError{Op: "read", Err: err})
		return
	}
	writeJSON(w, http.StatusOK, versions)
}
