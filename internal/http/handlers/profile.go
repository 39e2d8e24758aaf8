package handlers

import (
	"net/http"

	apierrors "github.com/pribylovaa/go-profile-auth/internal/http/errors"
)

// GetProfile — GET /profile.
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	uid, err := currentUser(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	user, err := h.svc.GetProfile(r.Context(), uid)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(user))
}

// UpdateProfile — PUT /profile. Поля, отсутствующие в теле, не меняются.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	uid, err := currentUser(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in updateProfileRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	user, err := h.svc.UpdateProfile(r.Context(), uid, in.toInput())
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(user))
}

// AvatarPresign — POST /profile/avatar/presign.
func (h *Handlers) AvatarPresign(w http.ResponseWriter, r *http.Request) {
	uid, err := currentUser(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in avatarPresignRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	info, err := h.svc.AvatarUploadURL(r.Context(), uid, in.ContentType, in.ContentLength)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, presignFromInfo(info))
}

// AvatarConfirm — POST /profile/avatar/confirm.
func (h *Handlers) AvatarConfirm(w http.ResponseWriter, r *http.Request) {
	uid, err := currentUser(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in avatarConfirmRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	user, err := h.svc.ConfirmAvatar(r.Context(), uid, in.AvatarKey)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userFromModel(user))
}
