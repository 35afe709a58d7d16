package entitlements

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/danielcastano/eventgate-backend/api/responses"
	"github.com/danielcastano/eventgate-backend/api/validators"
	internalentitlements "github.com/danielcastano/eventgate-backend/internal/entitlements"
	pkgerrors "github.com/danielcastano/eventgate-backend/pkg/errors"
	"github.com/danielcastano/eventgate-backend/pkg/logger"
)

const (
	defaultScanPageSize = 50
	maxScanPageSize     = 500
)

// Scan processes one admission attempt at a gate. Denials come back as 200s
// with granted=false: the scan itself succeeded and was recorded.
func Scan(svc internalentitlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlements service unavailable"))
			return
		}

		scannerID, _, err := callerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req internalentitlements.ScanRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if req.EventID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "event id is required"))
			return
		}
		req.ScannerID = scannerID

		outcome, err := svc.ProcessEntryScan(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, outcome)
	}
}

// ListScans returns the admission audit trail for one event, newest first.
func ListScans(svc internalentitlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlements service unavailable"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "eventId"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "event id is required"))
			return
		}
		eventID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event id"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", defaultScanPageSize, 1, maxScanPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		scans, err := svc.ListScans(r.Context(), eventID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, scans)
	}
}
