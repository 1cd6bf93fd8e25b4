package middleware

import (
	"bytes"
	"net/http"

	"game-api-server/internal/api/response"
	"game-api-server/internal/errcode"
)

// responseBuffer holds a downstream response until the stage that owns it
// decides what reaches the client.
type responseBuffer struct {
	header  http.Header
	status  int
	body    bytes.Buffer
	code    errcode.Code
	hasCode bool
}

var _ response.CodeRecorder = (*responseBuffer)(nil)

func newResponseBuffer() *responseBuffer {
	return &responseBuffer{header: make(http.Header)}
}

func (b *responseBuffer) Header() http.Header { return b.header }

func (b *responseBuffer) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *responseBuffer) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *responseBuffer) RecordCode(code errcode.Code) {
	b.code = code
	b.hasCode = true
}

// flush copies the buffered response to w, passing the recorded code on.
func (b *responseBuffer) flush(w http.ResponseWriter) {
	dst := w.Header()
	for k, v := range b.header {
		dst[k] = v
	}
	if b.hasCode {
		if rec, ok := w.(response.CodeRecorder); ok {
			rec.RecordCode(b.code)
		}
	}
	status := b.status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(b.body.Bytes())
}
