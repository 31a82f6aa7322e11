package qrcode

import (
	"bytes"
	"image/png"
	"testing"
)

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base, game, want string
	}{
		{"http://localhost:8080", "abc123", "http://localhost:8080/?game=abc123"},
		{"https://wolves.example/", "x y", "https://wolves.example/?game=x+y"},
	}
	for _, tt := range tests {
		if got := JoinURL(tt.base, tt.game); got != tt.want {
			t.Errorf("JoinURL(%q, %q) = %q, want %q", tt.base, tt.game, got, tt.want)
		}
	}
}

func TestGenerate(t *testing.T) {
	data, err := Generate(JoinURL("http://localhost:8080", "abc123"), 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if w := img.Bounds().Dx(); w != DefaultSize {
		t.Fatalf("width = %d, want %d", w, DefaultSize)
	}
}
