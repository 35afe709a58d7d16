package entitlements

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/danielcastano/eventgate-backend/api/middleware"
	"github.com/danielcastano/eventgate-backend/api/responses"
	"github.com/danielcastano/eventgate-backend/api/validators"
	internalentitlements "github.com/danielcastano/eventgate-backend/internal/entitlements"
	"github.com/danielcastano/eventgate-backend/pkg/enums"
	pkgerrors "github.com/danielcastano/eventgate-backend/pkg/errors"
	"github.com/danielcastano/eventgate-backend/pkg/logger"
)

// ListMine returns the caller's credentials.
func ListMine(svc internalentitlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlements service unavailable"))
			return
		}

		actorID, _, err := callerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListByOwner(r.Context(), actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// GenerateCode mints a fresh rotating admission code for a credential the
// caller owns.
func GenerateCode(svc internalentitlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlements service unavailable"))
			return
		}

		actorID, isAdmin, err := callerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entID, err := parseEntitlementID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ent, err := svc.Get(r.Context(), entID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if ent.OwnerUserID != actorID && !isAdmin {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "entitlement does not belong to user"))
			return
		}

		payload, err := svc.GenerateCode(r.Context(), entID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, payload)
	}
}

type transferRequest struct {
	NewOwnerID string `json:"newOwnerId" validate:"required,uuid4"`
}

// Transfer moves a credential to a new owner.
func Transfer(svc internalentitlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlements service unavailable"))
			return
		}

		actorID, isAdmin, err := callerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entID, err := parseEntitlementID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload transferRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		newOwnerID, err := uuid.Parse(strings.TrimSpace(payload.NewOwnerID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid new owner id"))
			return
		}

		ent, err := svc.Get(r.Context(), entID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if ent.OwnerUserID != actorID && !isAdmin {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "entitlement does not belong to user"))
			return
		}

		replacement, err := svc.Transfer(r.Context(), internalentitlements.TransferInput{
			EntitlementID: entID,
			NewOwnerID:    newOwnerID,
			ActorID:       actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, replacement)
	}
}

type revokeRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// Revoke invalidates a credential. Router-level role gating restricts this
// to admins.
func Revoke(svc internalentitlements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "entitlements service unavailable"))
			return
		}

		actorID, _, err := callerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		entID, err := parseEntitlementID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload revokeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Revoke(r.Context(), entID, payload.Reason, actorID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

func callerFromContext(r *http.Request) (uuid.UUID, bool, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		return uuid.Nil, false, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	actorID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	role := middleware.RoleFromContext(r.Context())
	return actorID, role == string(enums.UserRoleAdmin), nil
}

func parseEntitlementID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "entitlementId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "entitlement id is required")
	}
	entID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid entitlement id")
	}
	return entID, nil
}
