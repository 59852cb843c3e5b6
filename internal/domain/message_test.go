package domain

import (
	"testing"
	"time"
)

func TestHasReadMarker(t *testing.T) {
	at := time.Now().UTC()
	cases := []struct {
		name string
		msg  Message
		want bool
	}{
		{"unread", Message{ID: "m1", Body: "hola"}, false},
		// The marker is the timestamp; the flag alone carries no patch.
		{"read flag without timestamp", Message{ID: "m1", Body: "hola", Read: true}, false},
		{"read_at only", Message{ID: "m1", Body: "hola", ReadAt: &at}, true},
		{"both", Message{ID: "m1", Body: "hola", Read: true, ReadAt: &at}, true},
	}
	for _, tc := range cases {
		if got := tc.msg.HasReadMarker(); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
