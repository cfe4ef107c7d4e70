package logsvc

import (
	"bytes"
	"log"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

func TestRollbarLogger_print(t *testing.T) {
	usr := user.User{ID: "1", Name: "John Doe", Email: "john@example.com", Bio: "Learner"}

	tests := []struct {
		name    string
		args    []interface{}
		want    []string
		notWant []string
	}{
		{name: "no args", want: []string{"[ERROR] Internal Server Error\n"}},
		{
			name: "error and extras",
			args: []interface{}{errors.New("boom"), map[string]interface{}{"path": "/x"}},
			want: []string{"boom\n", "map[path:/x]\n"},
		},
		{name: "user", args: []interface{}{usr}, notWant: []string{"john@example.com", "Learner"}},
		{name: "user pointer", args: []interface{}{errors.New("boom"), &usr}, want: []string{"boom\n"}, notWant: []string{"john@example.com", "Learner"}},
		{name: "nil user pointer", args: []interface{}{(*user.User)(nil), nil}, notWant: []string{"<nil>"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := NewRollbarLogger(log.New(&buf, "", 0), &core.Config{Debug: true})

			l.Error("Internal Server Error", tt.args...)
			for _, s := range tt.want {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.notWant {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}
