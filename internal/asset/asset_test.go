package asset

import (
	"context"
	"fmt"
	"io"
	"testing"
)

func TestExtractPublicID(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{
			url:  "https://res.cloudinary.com/demo/image/upload/v1234567/auto-parts/assisted-sourcing/abc123.jpg",
			want: "auto-parts/assisted-sourcing/abc123",
		},
		{
			url:  "https://res.cloudinary.com/demo/image/upload/v1/folder/image.png",
			want: "folder/image",
		},
		{
			url:  "https://example.com/no/marker/here.jpg",
			want: "",
		},
		{
			url:  "",
			want: "",
		},
	}

	for _, c := range cases {
		if got := ExtractPublicID(c.url); got != c.want {
			t.Fatalf("ExtractPublicID(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}

// fakeStore 生成 Cloudinary 形态的 URL，用于验证回环性质。
type fakeStore struct {
	seq int
}

func (f *fakeStore) Upload(ctx context.Context, r io.Reader, folder string) (*Image, error) {
	f.seq++
	publicID := fmt.Sprintf("%s/img%d", folder, f.seq)
	return &Image{
		URL:      fmt.Sprintf("https://res.cloudinary.com/demo/image/upload/v%d/%s.jpg", 1000+f.seq, publicID),
		PublicID: publicID,
	}, nil
}

func (f *fakeStore) Delete(ctx context.Context, publicID string) error { return nil }

func TestExtractPublicIDRoundTrip(t *testing.T) {
	var s Store = &fakeStore{}
	for _, folder := range []string{"auto-parts/parts", "auto-parts/assisted-sourcing", "x"} {
		img, err := s.Upload(context.Background(), nil, folder)
		if err != nil {
			t.Fatalf("upload: %v", err)
		}
		if got := ExtractPublicID(img.URL); got != img.PublicID {
			t.Fatalf("round trip broken: url=%s got=%q want=%q", img.URL, got, img.PublicID)
		}
	}
}
