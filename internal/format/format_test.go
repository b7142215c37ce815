package format

import (
	"bytes"
	"testing"
)

func TestJSONFormatter(t *testing.T) {
	payload := map[string]any{"uri": "file:///a.jpg?x=1&y=2", "id": 1}

	tests := []struct {
		name   string
		indent string
		want   string
	}{
		{name: "compact", want: "{\"id\":1,\"uri\":\"file:///a.jpg?x=1&y=2\"}\n"},
		{name: "indented", indent: "  ", want: "{\n  \"id\": 1,\n  \"uri\": \"file:///a.jpg?x=1&y=2\"\n}\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (JSONFormatter{Indent: tc.indent}).Write(&buf, payload); err != nil {
				t.Fatalf("write: %v", err)
			}
			if buf.String() != tc.want {
				t.Fatalf("got %q, want %q", buf.String(), tc.want)
			}
		})
	}
}
