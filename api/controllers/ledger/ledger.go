package ledger

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/danielcastano/eventgate-backend/api/responses"
	"github.com/danielcastano/eventgate-backend/api/validators"
	internalledger "github.com/danielcastano/eventgate-backend/internal/ledger"
	"github.com/danielcastano/eventgate-backend/pkg/db/models"
	"github.com/danielcastano/eventgate-backend/pkg/enums"
	pkgerrors "github.com/danielcastano/eventgate-backend/pkg/errors"
	"github.com/danielcastano/eventgate-backend/pkg/logger"
	"github.com/danielcastano/eventgate-backend/pkg/pagination"
)

type balanceResponse struct {
	BalanceCents int64                        `json:"balanceCents"`
	Filter       internalledger.BalanceFilter `json:"filter"`
}

// Balance sums ledger legs matching the query filters. Admin surface.
func Balance(svc internalledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		filter, err := buildBalanceFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, err := svc.GetBalance(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balanceResponse{BalanceCents: balance, Filter: filter})
	}
}

type entityEntriesResponse struct {
	Entries    []models.LedgerEntry `json:"entries"`
	NextCursor string               `json:"nextCursor,omitempty"`
}

// EntityEntries returns the ledger legs recorded against one entity, newest
// first, as one cursor page.
func EntityEntries(svc internalledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "entityId"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "entity id is required"))
			return
		}
		entityID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid entity id"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		entries, next, err := svc.ListByEntity(r.Context(), entityID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, entityEntriesResponse{Entries: entries, NextCursor: next})
	}
}

func buildBalanceFilter(r *http.Request) (internalledger.BalanceFilter, error) {
	var filter internalledger.BalanceFilter
	q := r.URL.Query()

	if raw := strings.TrimSpace(q.Get("entityId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid entityId")
		}
		filter.EntityID = &id
	}
	if raw := strings.TrimSpace(q.Get("entityType")); raw != "" {
		entityType := enums.LedgerEntityType(strings.ToLower(raw))
		if !entityType.IsValid() {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "invalid entityType")
		}
		filter.EntityType = &entityType
	}
	if raw := strings.TrimSpace(q.Get("actorId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid actorId")
		}
		filter.ActorID = &id
	}
	if raw := strings.TrimSpace(q.Get("actorType")); raw != "" {
		actorType := enums.LedgerActorType(strings.ToLower(raw))
		if !actorType.IsValid() {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "invalid actorType")
		}
		filter.ActorType = &actorType
	}
	if raw := strings.TrimSpace(q.Get("state")); raw != "" {
		state, err := enums.ParseMoneyState(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid state")
		}
		filter.State = &state
	}
	if raw := strings.TrimSpace(q.Get("referenceId")); raw != "" {
		filter.ReferenceID = &raw
	}

	return filter, nil
}
