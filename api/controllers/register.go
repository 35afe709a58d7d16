package controllers

import (
	"net/http"

	"github.com/danielcastano/eventgate-backend/api/middleware"
	"github.com/danielcastano/eventgate-backend/api/responses"
	"github.com/danielcastano/eventgate-backend/api/validators"
	"github.com/danielcastano/eventgate-backend/internal/auth"
	"github.com/danielcastano/eventgate-backend/pkg/enums"
	pkgerrors "github.com/danielcastano/eventgate-backend/pkg/errors"
	"github.com/danielcastano/eventgate-backend/pkg/logger"
)

// AuthRegister onboards a new account and logs it straight in. Staff roles
// can only be granted when the caller is an authenticated admin.
func AuthRegister(reg auth.RegisterService, svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if reg == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		actorRole := enums.UserRole(middleware.RoleFromContext(r.Context()))
		user, err := reg.Register(r.Context(), body, actorRole)
		if err != nil {
			if logg != nil {
				logg.Error(r.Context(), "register failed", err)
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), auth.LoginRequest{Email: body.Email, Password: body.Password})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		w.Header().Set("X-EG-Token", result.AccessToken)
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"user":         user,
			"accessToken":  result.AccessToken,
			"refreshToken": result.RefreshToken,
		})
	}
}
