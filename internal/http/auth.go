package http

import (
	"errors"
	"net/http"
	"strconv"

	"monohelper/internal/core"
)

// Identity headers. X-Tg-ID names the requesting user; X-Admin-Token grants
// admin rights when it matches the configured token.
const (
	headerTgID       = "X-Tg-ID"
	headerAdminToken = "X-Admin-Token"
)

var errUnauthenticated = errors.New("unauthenticated")

// requester resolves the caller's identity. Admin-token callers do not need
// to be registered users.
func (s *Server) requester(r *http.Request) (core.User, error) {
	var tgID int64
	if raw := r.Header.Get(headerTgID); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return core.User{}, errUnauthenticated
		}
		tgID = id
	}

	if s.adminToken != "" && r.Header.Get(headerAdminToken) == s.adminToken {
		return core.User{TgID: tgID, Admin: true, Active: true}, nil
	}

	if tgID == 0 {
		return core.User{}, errUnauthenticated
	}

	user, err := s.repo.GetUser(r.Context(), tgID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, errUnauthenticated
		}
		return core.User{}, err
	}
	return user, nil
}

// mustRequester writes the error response on failure and reports whether the
// handler may proceed.
func (s *Server) mustRequester(w http.ResponseWriter, r *http.Request) (core.User, bool) {
	user, err := s.requester(r)
	if err != nil {
		if errors.Is(err, errUnauthenticated) {
			respondError(w, http.StatusUnauthorized, "authentication required")
		} else {
			respondError(w, http.StatusInternalServerError, "internal error")
		}
		return core.User{}, false
	}
	return user, true
}

// requireOwnerAccess checks the requester may read data owned by ownerTgID
// and writes the 403 on failure.
func (s *Server) requireOwnerAccess(w http.ResponseWriter, r *http.Request, requester core.User, ownerTgID int64) bool {
	ok, err := s.access.CanAccess(r.Context(), requester, ownerTgID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return false
	}
	if !ok {
		respondError(w, http.StatusForbidden, "access denied")
		return false
	}
	return true
}
