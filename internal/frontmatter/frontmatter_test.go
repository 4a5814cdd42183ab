package frontmatter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_NoFrontmatter_ReturnsBodyOnly(t *testing.T) {
	input := []byte("# Title\n\nHello\n")

	fm, body, had, err := Split(input)
	require.NoError(t, err)
	require.False(t, had)
	require.Empty(t, fm)
	require.Equal(t, input, body)
}

func TestSplit_YAMLFrontmatter_SplitsFrontmatterAndBody(t *testing.T) {
	fm, body, had, err := Split([]byte("---\ntitle: Notes\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: Notes\n"), fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestSplit_MissingClosingDelimiter_ReturnsError(t *testing.T) {
	_, _, had, err := Split([]byte("---\ntitle: Notes\n# Title\n"))
	require.ErrorIs(t, err, ErrMissingClosingDelimiter)
	require.False(t, had)
}

func TestSplit_CRLF_SplitsFrontmatterAndBody(t *testing.T) {
	fm, body, had, err := Split([]byte("---\r\ntitle: Notes\r\n---\r\n# Title\r\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Equal(t, []byte("title: Notes\r\n"), fm)
	require.Equal(t, []byte("# Title\r\n"), body)
}

func TestSplit_EmptyFrontmatterBlock(t *testing.T) {
	fm, body, had, err := Split([]byte("---\n---\n# Title\n"))
	require.NoError(t, err)
	require.True(t, had)
	require.Empty(t, fm)
	require.Equal(t, []byte("# Title\n"), body)
}

func TestParse_DecodesHeaderAndKeepsOtherFields(t *testing.T) {
	src, err := Parse([]byte("---\ntitle: Lecture 3\nshort_title: L3\nauthor: Jane Roe\npackages: [amssymb, tikz]\ntags:\n  - algebra\n---\nBody text\n"))
	require.NoError(t, err)
	require.True(t, src.Had)
	require.Equal(t, Header{
		Title:      "Lecture 3",
		ShortTitle: "L3",
		Author:     "Jane Roe",
		Packages:   []string{"amssymb", "tikz"},
	}, src.Header)
	require.Equal(t, []any{"algebra"}, src.Fields["tags"])
	require.Equal(t, "Body text\n", string(src.Body))
}

func TestParse_NoFrontmatter(t *testing.T) {
	src, err := Parse([]byte("just text"))
	require.NoError(t, err)
	require.False(t, src.Had)
	require.Empty(t, src.Fields)
	require.Equal(t, Header{}, src.Header)
	require.Equal(t, "just text", string(src.Body))
}

func TestParse_InvalidYAML_ReturnsError(t *testing.T) {
	_, err := Parse([]byte("---\n: not yaml\n---\nbody\n"))
	require.Error(t, err)
}
