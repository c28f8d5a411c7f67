package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"portfolio/src/schemas"
	"portfolio/src/utils"
)

// SessionCookie is the cookie jwtauth.Verifier reads the session token from.
const SessionCookie = "jwt"

func (h *Handler) PostLogin(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var creds = new(schemas.TokenRequest)
	if err := json.NewDecoder(r.Body).Decode(creds); err != nil {
		h.HandleErrors(w, r, utils.BadRequest("invalid login payload"))
		return
	}

	tokenResponse, err := h.Auth.Login(ctx, creds.Username, creds.Password)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    tokenResponse.AccessToken,
		Path:     "/",
		Expires:  tokenResponse.ExpiresAt,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	h.respond(w, r, tokenResponse, http.StatusOK)
}

func (h *Handler) PostLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
