package tokenizer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DeafMist/list-digest/internal/tokenizer"
)

func TestTiktokenRoundTrip(t *testing.T) {
	tok, err := tokenizer.New("cl100k_base")
	require.NoError(t, err)

	text := "Package relay lets nodes accept transaction packages."
	ids := tok.Encode(text)
	require.NotEmpty(t, ids)
	require.Less(t, len(ids), len(text))
	require.Equal(t, len(ids), tok.Count(text))
	require.Equal(t, text, tok.Decode(ids))
	require.Zero(t, tok.Count(""))
}

func TestTiktokenUnknownEncoding(t *testing.T) {
	_, err := tokenizer.New("no_such_encoding")
	require.Error(t, err)
}
