package server

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"dynasty/internal/core"
	"dynasty/internal/journal"
	"dynasty/internal/ops"
	"dynasty/internal/permadeath"
)

// App holds the wired components the handlers depend on.
type App struct {
	Core    *core.Core
	Death   *permadeath.Manager
	Journal *journal.Journal
	Feed    *Feed

	BootNow time.Time
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func RegisterAPIRoutes(mux *http.ServeMux, rr *RouteRegistry, app *App) {
	c := app.Core

	// Read the full dynasty state (render/redirect decisions).
	rr.Handle(mux, "GET /api/dynasty", "Read dynasty state", "", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, c.Snapshot())
	})

	rr.Handle(mux, "GET /api/status", "Process status", "", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"uptime_seconds": int(time.Since(app.BootNow).Seconds()),
			"started":        c.Started(),
			"enabled":        c.Enabled(),
			"day":            c.DayCount(),
		})
	})

	rr.Handle(mux, "POST /api/dynasty/start", "Start the dynasty run", "", func(w http.ResponseWriter, r *http.Request) {
		if err := c.StartDynasty(); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, map[string]any{"started": true})
	})

	rr.Handle(mux, "POST /api/dynasty/place", "Mark the player placed in the world", "", func(w http.ResponseWriter, r *http.Request) {
		if err := c.MarkPlayerPlaced(); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, map[string]any{"player_placed": true})
	})

	rr.Handle(mux, "POST /api/dynasty/enable", "Enable the session toggle", "", func(w http.ResponseWriter, r *http.Request) {
		c.Enable()
		writeJSON(w, map[string]any{"enabled": true})
	})

	rr.Handle(mux, "POST /api/dynasty/disable", "Disable the session toggle", "", func(w http.ResponseWriter, r *http.Request) {
		c.Disable()
		writeJSON(w, map[string]any{"enabled": false})
	})

	rr.Handle(mux, "POST /api/dynasty/save", "Persist the live state", "", func(w http.ResponseWriter, r *http.Request) {
		if err := c.SaveDynasty(); err != nil {
			http.Error(w, err.Error(), 409)
			return
		}
		writeJSON(w, map[string]any{"saved": true})
	})

	// Manual tick, same path the scheduler takes.
	rr.Handle(mux, "POST /api/dynasty/tick", "Advance the simulation one day", "", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, c.TriggerDailyTick())
	})

	rr.Handle(mux, "POST /api/dynasty/purchase", "Purchase event hook", `{"quantity":1,"item":"bread"}`, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Quantity int    `json:"quantity"`
			Item     string `json:"item"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json body", 400)
			return
		}
		if body.Quantity < 1 {
			http.Error(w, "quantity must be at least 1", 400)
			return
		}
		c.OnPurchase(body.Quantity, body.Item)
		writeJSON(w, map[string]any{"influence": c.Snapshot().Influence})
	})

	rr.Handle(mux, "POST /api/dynasty/siege", "Siege event hook", `{"town_id":"Cierzo"}`, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			TownID string `json:"town_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json body", 400)
			return
		}
		if body.TownID == "" {
			http.Error(w, "town_id is required", 400)
			return
		}
		c.OnSiege(body.TownID)
		writeJSON(w, map[string]any{"bonds": c.Snapshot().Bonds})
	})

	rr.Handle(mux, "POST /api/dynasty/death", "Identity death signal", "", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, app.Death.OnDeath())
	})

	rr.Handle(mux, "DELETE /api/dynasty", "Delete the current identity's record", "", func(w http.ResponseWriter, r *http.Request) {
		c.Store().DeleteCurrent()
		writeJSON(w, map[string]any{"deleted": true})
	})

	rr.Handle(mux, "POST /api/admin/backup", "Archive the save directory", "", func(w http.ResponseWriter, r *http.Request) {
		archive := backupArchivePath(c.Store().Dir())
		if err := ops.BackupSaveDir(c.Store().Dir(), archive); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, map[string]any{"archive": archive})
	})

	rr.Handle(mux, "POST /api/admin/wipe", "Backup then delete every record", "", func(w http.ResponseWriter, r *http.Request) {
		archive := backupArchivePath(c.Store().Dir())
		if err := ops.BackupSaveDir(c.Store().Dir(), archive); err != nil {
			http.Error(w, "backup before wipe failed: "+err.Error(), 500)
			return
		}
		if err := c.WipeAll(); err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, map[string]any{"wiped": true, "archive": archive})
	})

	rr.Handle(mux, "GET /api/journal", "Recent journal events", "", func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}
		events, err := app.Journal.Recent(r.Context(), limit)
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		writeJSON(w, events)
	})

	rr.Handle(mux, "GET /api/notifications", "Buffered player notifications", "", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, app.Feed.List())
	})

	mux.HandleFunc("GET /api/routes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, rr.Docs())
	})
}

func backupArchivePath(saveDir string) string {
	name := "dynasty-backup-" + time.Now().Format("20060102-150405") + ".tar.gz"
	return filepath.Join(filepath.Dir(saveDir), "backups", name)
}
