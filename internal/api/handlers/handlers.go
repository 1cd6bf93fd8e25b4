// Package handlers holds one thin controller per endpoint: decode the
// request, take the session from the context, call a service, shape the
// response.
package handlers

import (
	"encoding/json"
	"net/http"

	"game-api-server/internal/api/middleware"
	"game-api-server/internal/api/response"
	"game-api-server/internal/errcode"
	"game-api-server/internal/session"
)

// decode reads the JSON body into v, answering InvalidRequestBody on
// failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, middleware.MaxBodyBytes)).Decode(v); err != nil {
		response.Write(w, errcode.InvalidRequestBody, nil)
		return false
	}
	return true
}

// authed returns the request's session. Routes behind Authenticate always
// have one.
func authed(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, ok := middleware.SessionFrom(r.Context())
	if !ok {
		response.Write(w, errcode.NotFoundSession, nil)
	}
	return sess, ok
}

// decodeAuthed combines authed and decode.
func decodeAuthed(w http.ResponseWriter, r *http.Request, v any) (*session.Session, bool) {
	sess, ok := authed(w, r)
	if !ok {
		return nil, false
	}
	if !decode(w, r, v) {
		return nil, false
	}
	return sess, true
}
