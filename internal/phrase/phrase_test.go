package phrase

import (
	"context"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/archivetest"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/reconstruct"
	apperrors "github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		phrase string
		ok     bool
	}{
		{"plain", "Jordan river", true},
		{"punctuation", `"We agree,"`, true},
		{"max length", strings.Repeat("a", MaxLength), true},
		{"too long", strings.Repeat("a", MaxLength+1), false},
		{"non ascii", "café", false},
		{"newline", "a\nb", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.phrase)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestFind(t *testing.T) {
	assert.Equal(t, []Match{{Start: 0, End: 2}, {Start: 3, End: 5}}, Find("ab ab", "ab"))
	assert.Equal(t, []Match{{Start: 0, End: 2}}, Find("aaa", "aa"))
	assert.Empty(t, Find("abc", "x"))
	assert.Empty(t, Find("abc", ""))

	text := archivetest.JordanBody
	m := Find(text, "Jordan river")
	require.Len(t, m, 1)
	assert.Equal(t, "Jordan river", text[m[0].Start:m[0].End])
}

func newService(t *testing.T) (*Service, *archivetest.Corpus) {
	t.Helper()
	corpus := archivetest.NewCorpus(t)
	return New(corpus.Store, corpus.Store, reconstruct.New(corpus.Store)), corpus
}

func TestDefine(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Define(ctx, "rose today")
	require.NoError(t, err)

	_, err = svc.Define(ctx, "rose today")
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)
	_, err = svc.Define(ctx, "café")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = svc.Define(ctx, strings.Repeat("x", 101))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	ok, err := svc.IsDefined(ctx, "rose today")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.IsDefined(ctx, "café")
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "rose today", list[0].Phrase)
}

func TestSearch(t *testing.T) {
	svc, corpus := newService(t)
	ctx := context.Background()

	m, err := svc.Search(ctx, corpus.IDs[archivetest.JordanTitle], "said one")
	require.NoError(t, err)
	assert.Len(t, m, 1)

	m, err = svc.Search(ctx, corpus.IDs[archivetest.MarketTitle], "said one")
	require.NoError(t, err)
	assert.Empty(t, m)

	_, err = svc.Search(ctx, 500, "said")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	all, err := svc.SearchAll(ctx, "today.")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, archivetest.MarketTitle, all[0].Title)
	assert.Equal(t, archivetest.WeatherTitle, all[1].Title)

	all, err = svc.SearchAll(ctx, "nothing like this")
	require.NoError(t, err)
	assert.Empty(t, all)
}
