package urlutil

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "plain domain gets https", in: "example.com", want: "https://example.com/"},
		{name: "http kept", in: "http://example.com/about", want: "http://example.com/about"},
		{name: "fragment stripped", in: "https://example.com/page#top", want: "https://example.com/page"},
		{name: "query kept", in: "https://example.com/?q=1", want: "https://example.com/?q=1"},
		{name: "default port stripped", in: "https://example.com:443/x", want: "https://example.com/x"},
		{name: "localhost allowed", in: "http://localhost:8080/", want: "http://localhost:8080/"},
		{name: "ip allowed", in: "http://127.0.0.1/", want: "http://127.0.0.1/"},
		{name: "empty", in: "  ", wantErr: true},
		{name: "bad scheme", in: "ftp://example.com", wantErr: true},
		{name: "dotless host", in: "https://intranet", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Validate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	base, err := url.Parse("https://example.com/dir/page")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/dir/other", Resolve(base, "other"))
	assert.Equal(t, "https://example.com/abs", Resolve(base, "/abs"))
	assert.Equal(t, "https://other.com/", Resolve(base, "https://other.com/"))
	assert.Equal(t, "", Resolve(base, "#section"))
	assert.Equal(t, "", Resolve(base, "mailto:a@b.com"))
	assert.Equal(t, "", Resolve(base, "javascript:void(0)"))
	assert.Equal(t, "", Resolve(base, "tel:+5511999999999"))
}

func TestSameOrigin(t *testing.T) {
	assert.True(t, SameOrigin("https://example.com/a", "https://example.com/b?x=1"))
	assert.False(t, SameOrigin("https://example.com/", "http://example.com/"))
	assert.False(t, SameOrigin("https://example.com/", "https://sub.example.com/"))
}

func TestLooksLikeHTML(t *testing.T) {
	assert.True(t, LooksLikeHTML("https://example.com/"))
	assert.True(t, LooksLikeHTML("https://example.com/about"))
	assert.True(t, LooksLikeHTML("https://example.com/page.html"))
	assert.False(t, LooksLikeHTML("https://example.com/brochure.pdf"))
	assert.False(t, LooksLikeHTML("https://example.com/app.js"))
	assert.False(t, LooksLikeHTML("https://example.com/logo.png"))
}
