package main

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkload(t *testing.T) {
	reqs := workload([]string{"river", "", "two words"}, []int64{7, 9})

	kinds := map[string]int{}
	for _, r := range reqs {
		kinds[r.kind]++
	}
	assert.Equal(t, map[string]int{"word": 2, "locations": 2, "article": 2, "stats": 2, "contexts": 1, "list": 1}, kinds)
	assert.Equal(t, "/api/v1/search?word=two+words", reqs[2].path)
	assert.Equal(t, "/api/v1/words/two%20words/locations", reqs[3].path)
	assert.Equal(t, "/api/v1/articles/7/contexts?word=river", reqs[6].path)

	reqs = workload(nil, nil)
	require.Len(t, reqs, 1)
	assert.Equal(t, "list", reqs[0].kind)
}

func TestPercentile(t *testing.T) {
	sorted := []time.Duration{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.Equal(t, time.Duration(5), percentile(sorted, 50))
	assert.Equal(t, time.Duration(10), percentile(sorted, 95))
	assert.Equal(t, time.Duration(10), percentile(sorted, 100))
	assert.Equal(t, time.Duration(0), percentile(nil, 50))
}

func TestPrintReport(t *testing.T) {
	rec := newRecorder()
	rec.record("word", 2*time.Millisecond, 200, nil)
	rec.record("word", 4*time.Millisecond, 500, nil)
	rec.record("article", 0, 0, errors.New("connection refused"))

	var buf bytes.Buffer
	require.NoError(t, printReport(&buf, rec, time.Second))
	out := buf.String()
	assert.Contains(t, out, "word")
	assert.Contains(t, out, "article")
	assert.Contains(t, out, "500")

	var empty bytes.Buffer
	assert.Error(t, printReport(&empty, newRecorder(), time.Second))
}
