package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/user"
)

func TestLine(t *testing.T) {
	usr := user.User{ID: "u-1", Name: "Ada", Email: "ada@example.com"}
	tests := []struct {
		name string
		args []interface{}
		want string
	}{
		{name: "message only", want: "ERROR boom"},
		{name: "error", args: []interface{}{errors.New("db down")}, want: "ERROR boom | db down"},
		{
			name: "fields are sorted",
			args: []interface{}{map[string]interface{}{"course": "c-1", "attempt": 2}},
			want: "ERROR boom | attempt=2 course=c-1",
		},
		{name: "user is identified by id", args: []interface{}{usr}, want: "ERROR boom | user=u-1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, line("ERROR", "boom", tc.args))
		})
	}
}

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "", 0), core.NewTestConfig())
	logger.Enable(false)

	usr := user.User{ID: "u-1", Name: "Ada"}
	assert.Equal(t, []interface{}{"issuing", "x"}, logger.prepare("issuing", []interface{}{usr, "x", usr}))

	logger.Info("certificate issued", map[string]interface{}{"code": "VC-1"})
	logger.Warn("slow")
	assert.Equal(t, "INFO certificate issued | code=VC-1\nWARN slow\n", buf.String())
}
