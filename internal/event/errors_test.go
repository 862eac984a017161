package event

import (
	"errors"
	"testing"
)

func TestHandlerError(t *testing.T) {
	inner := errors.New("disk full")

	tests := []struct {
		name string
		err  *HandlerError
		want string
	}{
		{
			name: "named",
			err:  &HandlerError{Node: "save", Connection: "writer", Priority: PriorityStrong, Err: inner},
			want: "handler writer at priority strong on save: disk full",
		},
		{
			name: "anonymous",
			err:  &HandlerError{Priority: 7, Err: inner},
			want: "handler <anonymous> at priority 7 on <unnamed>: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, tt.err.Error())
			}
			if !errors.Is(tt.err, inner) {
				t.Error("expected Unwrap to expose the handler error")
			}
		})
	}
}
