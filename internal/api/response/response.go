// Package response writes the JSON envelope every endpoint answers with:
// an object whose "code" field holds the encoded result code, next to the
// endpoint's payload fields.
package response

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/hlog"
	"github.com/tidwall/sjson"

	"game-api-server/internal/errcode"
)

// CodeRecorder is implemented by response writers that want the typed
// result code alongside the body, sparing them from parsing it back out.
type CodeRecorder interface {
	RecordCode(code errcode.Code)
}

// Write sends payload with code merged in as its "code" field. payload must
// encode to a JSON object; nil sends the code alone.
func Write(w http.ResponseWriter, code errcode.Code, payload any) {
	body := []byte(`{}`)
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			code = errcode.InternalServerError
		} else {
			body = raw
		}
	}

	body, err := sjson.SetBytes(body, "code", int(code))
	if err != nil {
		code = errcode.InternalServerError
		body = []byte(`{"code":` + strconv.Itoa(int(code)) + `}`)
	}

	if rec, ok := w.(CodeRecorder); ok {
		rec.RecordCode(code)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code.HTTPStatus())
	_, _ = w.Write(body)
}

// OK sends a success envelope.
func OK(w http.ResponseWriter, payload any) {
	Write(w, errcode.Success, payload)
}

// Error sends the code carried by err. Server-side failures were logged
// where they happened; they are logged here again at debug level with the
// request's logger.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	code := errcode.CodeOf(err)
	if code.IsServerError() {
		hlog.FromRequest(r).Debug().Err(err).Stringer("code", code).Msg("Request failed")
	}
	Write(w, code, nil)
}
