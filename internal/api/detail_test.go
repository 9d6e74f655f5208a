package api

import (
	"strings"
	"testing"
)

func TestExtractDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"plain string",
			`{"detail": "report not found"}`,
			"report not found",
		},
		{
			"object msg",
			`{"detail": {"msg": "illegal transition"}}`,
			"illegal transition",
		},
		{
			"object message",
			`{"detail": {"message": "token expired"}}`,
			"token expired",
		},
		{
			"array of objects",
			`{"detail": [{"msg": "rejection_reason must be at least 10 characters"}, {"msg": "field required"}]}`,
			"rejection_reason must be at least 10 characters; field required",
		},
		{
			"mixed array",
			`{"detail": ["first problem", {"msg": "second problem"}]}`,
			"first problem; second problem",
		},
		{
			"empty body",
			``,
			"no error detail provided",
		},
		{
			"whitespace body",
			"  \n ",
			"no error detail provided",
		},
		{
			"non-json body",
			`<html>502 Bad Gateway</html>`,
			"<html>502 Bad Gateway</html>",
		},
		{
			"unrecognized shape",
			`{"error": "boom"}`,
			`{"error": "boom"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractDetail([]byte(tt.body)); got != tt.want {
				t.Errorf("ExtractDetail() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractDetailTruncatesRawBodies(t *testing.T) {
	body := strings.Repeat("x", 500)
	got := ExtractDetail([]byte(body))
	if len(got) != maxRawDetail+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("raw body not truncated: len=%d", len(got))
	}
}
