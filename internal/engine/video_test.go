package engine

import (
	"errors"
	"testing"
)

func TestParseVideoURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ&t=42", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ?si=abc", "dQw4w9WgXcQ"},
		{"youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ?start=1", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/live/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := ParseVideoURL(tt.in)
			if err != nil {
				t.Fatalf("ParseVideoURL(%q) error: %v", tt.in, err)
			}
			if v.ID != tt.want {
				t.Errorf("ParseVideoURL(%q).ID = %q, want %q", tt.in, v.ID, tt.want)
			}
			if v.URL != "https://www.youtube.com/watch?v="+tt.want {
				t.Errorf("canonical URL = %q", v.URL)
			}
		})
	}
}

func TestParseVideoURL_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "https://vimeo.com/12345678901", "https://www.youtube.com/feed/trending", "not a url at all"} {
		_, err := ParseVideoURL(in)
		if err == nil {
			t.Errorf("ParseVideoURL(%q) expected error", in)
			continue
		}
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("ParseVideoURL(%q) error kind = %v, want invalid_input", in, KindOf(err))
		}
	}
}
