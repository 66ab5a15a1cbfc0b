package pdf

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/docconv/internal/domain"
	"github.com/spherical/docconv/internal/observability"
)

func TestReplaceSpecialChars(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"plain text", "plain text"},
		{"ﬁnance ofﬃce", "finance office"},
		{"ﬀﬂﬄﬅﬆ", "fffl" + "ffl" + "ft" + "st"},
		{"Ꜳꜳ Ꜩꜩ Ꝏꝏ", "AAaa TZtz OOoo"},
		{"ꜺꜻꝠꝡ", "AVavVYvy"},
		{"中文 ﬁ", "中文 fi"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ReplaceSpecialChars(tt.in))
	}
}

func TestReplaceSpecialChars_CoversMap(t *testing.T) {
	for r, want := range specialChars {
		assert.Equal(t, want, ReplaceSpecialChars(string(r)), "rune %U", r)
	}
}

func TestJoinPages_FormFeed(t *testing.T) {
	assert.Equal(t, "", joinPages(nil))
	assert.Equal(t, "one", joinPages([]string{"one"}))
	assert.Equal(t, "one\ftwo\f\fthree", joinPages([]string{"one", "two", "", "three"}))
}

func TestTruncate_Disabled(t *testing.T) {
	out, err := Truncate("/does/not/matter.pdf", t.TempDir(), 0)
	require.NoError(t, err)
	assert.Equal(t, "/does/not/matter.pdf", out)
}

func TestTruncate_MissingFile(t *testing.T) {
	_, err := Truncate(filepath.Join(t.TempDir(), "missing.pdf"), t.TempDir(), 8)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeDocumentOpen))
}

func TestTextExtractor_MissingFile(t *testing.T) {
	e := NewTextExtractor(observability.Nop())
	_, err := e.Extract(filepath.Join(t.TempDir(), "missing.pdf"), t.TempDir(), 80, 0)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeDocumentOpen))
}
