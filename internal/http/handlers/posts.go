package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	apierrors "github.com/pribylovaa/go-profile-auth/internal/http/errors"
	"github.com/pribylovaa/go-profile-auth/internal/service"
)

// ListPosts — GET /posts?limit=&offset=.
func (h *Handlers) ListPosts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	offset, err := queryInt(r, "offset")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	posts, err := h.svc.ListPosts(r.Context(), limit, offset)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := postsResponse{Posts: make([]postResponse, 0, len(posts))}
	for i := range posts {
		out.Posts = append(out.Posts, postFromModel(&posts[i]))
	}

	writeJSON(w, http.StatusOK, out)
}

// CreatePost — POST /posts.
func (h *Handlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	uid, err := currentUser(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in postRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	post, err := h.svc.CreatePost(r.Context(), uid, in.Title, in.Content)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, postFromModel(post))
}

// UpdatePost — PUT /posts/{id}.
func (h *Handlers) UpdatePost(w http.ResponseWriter, r *http.Request) {
	uid, err := currentUser(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	postID, err := pathUUID(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	var in postPatchRequest
	if err := decodeStrict(w, r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	post, err := h.svc.UpdatePost(r.Context(), uid, postID, service.PostPatch{Title: in.Title, Content: in.Content})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, postFromModel(post))
}

// DeletePost — DELETE /posts/{id}.
func (h *Handlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	uid, err := currentUser(r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	postID, err := pathUUID(r, "id")
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.DeletePost(r.Context(), uid, postID); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad %s", apierrors.ErrInvalidArgument, name)
	}
	return id, nil
}

// queryInt читает необязательный целый параметр; отсутствие — 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: bad %s", apierrors.ErrInvalidArgument, name)
	}
	return v, nil
}
