package errcode

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// TestCodeRoundTripProperty checks that any (status, sub) pair survives
// encoding into a single Code and splitting back.
func TestCodeRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		status := rapid.IntRange(100, 599).Draw(t, "status")
		sub := rapid.IntRange(0, 999).Draw(t, "sub")

		code := New(status, sub)
		gotStatus, gotSub := code.Split()

		if gotStatus != status || gotSub != sub {
			t.Fatalf("round trip mismatch: New(%d, %d)=%d split to (%d, %d)",
				status, sub, int(code), gotStatus, gotSub)
		}
	})
}

func TestCodeExample(t *testing.T) {
	code := New(http.StatusConflict, 3)
	assert.Equal(t, Code(409003), code)
	assert.Equal(t, http.StatusConflict, code.HTTPStatus())
	assert.Equal(t, 3, code.Sub())
}

// TestSubCodesUnique guards the table: clients only see the sub-code after the
// status rewrite, so two codes sharing a sub-code would be indistinguishable.
func TestSubCodesUnique(t *testing.T) {
	seen := make(map[int]Code)
	for _, code := range All() {
		status := code.HTTPStatus()
		assert.GreaterOrEqual(t, status, 200, "%s has invalid status", code)
		assert.Less(t, status, 600, "%s has invalid status", code)

		if other, dup := seen[code.Sub()]; dup {
			t.Fatalf("sub-code %d shared by %s and %s", code.Sub(), other, code)
		}
		seen[code.Sub()] = code
	}
}

func TestCodeOf(t *testing.T) {
	cause := errors.New("connection reset")

	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"nil is success", nil, Success},
		{"bare code", CannotFindMail, CannotFindMail},
		{"wrapped code", Wrap(FailedSellItem, cause), FailedSellItem},
		{"code wrapped by fmt", fmt.Errorf("outer: %w", Wrap(FailedEquipRune, cause)), FailedEquipRune},
		{"plain error", cause, InternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(FailedClearStage, cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "FailedClearStage")
	assert.True(t, FailedClearStage.IsServerError())
	assert.False(t, CannotKillMonster.IsServerError())
}
