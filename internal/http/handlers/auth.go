package handlers

import (
	"net/http"
	"time"

	apierrors "github.com/pribylovaa/go-profile-auth/internal/http/errors"
)

// Register — POST /auth/register.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	res, err := h.svc.Register(r.Context(), in.toInput())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.setRefreshCookie(w, res.Tokens.RefreshToken)
	writeJSON(w, http.StatusCreated, registerResponse{
		User: userFromModel(res.User),
		accessResponse: accessResponse{
			AccessToken:     res.Tokens.AccessToken,
			AccessExpiresAt: res.Tokens.AccessExpiresAt,
		},
	})
}

// Login — POST /auth/login.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	pair, _, err := h.svc.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, http.StatusOK, accessResponse{
		AccessToken:     pair.AccessToken,
		AccessExpiresAt: pair.AccessExpiresAt,
	})
}

// Refresh — POST /auth/refresh. Refresh-токен читается только из cookie.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	grant, err := h.svc.Refresh(r.Context(), h.refreshFromCookie(r))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, accessResponse{
		AccessToken:     grant.AccessToken,
		AccessExpiresAt: grant.ExpiresAt,
	})
}

// Logout — POST /auth/logout. Всегда успешен и всегда очищает cookie.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.svc.Logout(r.Context(), h.refreshFromCookie(r))

	h.clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

func (h *Handlers) refreshFromCookie(r *http.Request) string {
	c, err := r.Cookie(h.cookie.Name)
	if err != nil {
		return ""
	}
	return c.Value
}

func (h *Handlers) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, h.baseCookie(token, int(h.cookie.MaxAge/time.Second)))
}

func (h *Handlers) clearRefreshCookie(w http.ResponseWriter) {
	c := h.baseCookie("", -1)
	c.Expires = time.Unix(0, 0)
	http.SetCookie(w, c)
}

func (h *Handlers) baseCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     h.cookie.Path,
		Domain:   h.cookie.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
