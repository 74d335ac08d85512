package logsvc

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/myschool-rw/myschool/core"
)

func newTestLogger(buf *bytes.Buffer) *RollbarLogger {
	l := NewRollbarLogger(log.New(buf, "TEST : ", 0), core.NewTestConfig())
	l.Enable(false)
	return l
}

func TestRollbarLogger_prepare(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	err := errors.New("boom")
	actor := core.Actor{ID: "3", Name: "admin", School: "SOS Kigali"}
	args := l.prepare("failed", []interface{}{err, actor, core.Actor{ID: "4"}})

	assert.Equal(t, "failed", args[0])
	assert.Equal(t, err, args[1])
	assert.Len(t, args, 4)
	assert.Equal(t, map[string]interface{}{"school": "SOS Kigali", "is_system": false, "request_id": ""}, args[2])
}

func TestRollbarLogger_print(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	l.Info("visit recorded", map[string]interface{}{"visit_id": 7})
	assert.Contains(t, buf.String(), "TEST : visit recorded")
	assert.Contains(t, buf.String(), "visit_id:7")
}
