package handlers

import (
	"database/sql"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/carpenike/fitcoach/internal/importers"
	"github.com/carpenike/fitcoach/internal/middleware"
	"github.com/carpenike/fitcoach/internal/models"
)

// maxImportBytes caps uploaded export files.
const maxImportBytes = 10 << 20

// Imports holds dependencies for the workout history import handler.
type Imports struct {
	DB *sql.DB
}

// Import reads a Strong or Hevy CSV export from the request body. With
// ?dry_run=true it returns a preview; otherwise it stores the workouts as
// completed sessions. ?unit=lbs marks Strong weights as pounds.
func (h *Imports) Import(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())

	unit := importers.WeightUnit(r.URL.Query().Get("unit"))
	switch unit {
	case "":
		unit = importers.UnitKg
	case importers.UnitKg, importers.UnitLbs:
	default:
		writeError(w, http.StatusBadRequest, "unit must be kg or lbs")
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "import file is too large")
		return
	}

	pf, err := importers.Parse(data, unit)
	if errors.Is(err, importers.ErrUnknownFormat) {
		writeError(w, http.StatusBadRequest, "unrecognized file: expected a Strong or Hevy CSV export")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if pf.Format == importers.FormatCatalogJSON {
		writeError(w, http.StatusBadRequest, "exercise catalogs are loaded with the fitcoach CLI")
		return
	}

	if r.URL.Query().Get("dry_run") == "true" {
		preview, err := models.PreviewImport(h.DB, user.ID, pf)
		if err != nil {
			serverError(w, "preview import", err)
			return
		}
		writeJSON(w, http.StatusOK, preview)
		return
	}

	result, err := models.ImportHistory(h.DB, user.ID, pf, user.Location())
	if err != nil {
		modelError(w, "import history", err)
		return
	}
	zap.S().Infof("handlers: user %d imported %d sessions from %s", user.ID, result.SessionsCreated, pf.Format)
	writeJSON(w, http.StatusCreated, result)
}
