package middleware

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"game-api-server/internal/errcode"
)

// StatusRewrite moves the transport part of an envelope's result code to
// the HTTP status line: a body code of status*1000+sub is answered with
// that status and a body code of sub. The code is taken from the writer
// when the envelope recorded it, and parsed out of the JSON body otherwise.
// Non-JSON bodies and bodies without a numeric code pass through.
func StatusRewrite() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			buf := newResponseBuffer()
			next.ServeHTTP(buf, r)
			rewriteStatus(buf)
			buf.flush(w)
		})
	}
}

func rewriteStatus(buf *responseBuffer) {
	if !isJSON(buf.header.Get("Content-Type")) {
		return
	}
	body := buf.body.Bytes()
	if !gjson.ValidBytes(body) {
		return
	}

	code := buf.code
	if !buf.hasCode {
		field := gjson.GetBytes(body, "code")
		if field.Type != gjson.Number {
			return
		}
		code = errcode.Code(field.Int())
	}

	status, sub := code.Split()
	if status < 100 || status > 599 {
		return
	}

	rewritten, err := sjson.SetBytes(body, "code", sub)
	if err != nil {
		return
	}
	buf.body.Reset()
	buf.body.Write(rewritten)
	buf.status = status
	buf.hasCode = false
	buf.header.Set("Content-Length", strconv.Itoa(len(rewritten)))
}

func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/json"
}
