package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	type ingested struct {
		ArticleID int64  `json:"article_id"`
		Title     string `json:"title"`
	}

	got, err := DecodeJSON[ingested]([]byte(`{"article_id":7,"title":"Budget vote"}`))
	require.NoError(t, err)
	assert.Equal(t, ingested{ArticleID: 7, Title: "Budget vote"}, got)

	_, err = DecodeJSON[ingested]([]byte(`{not json`))
	assert.Error(t, err)
}

func TestEventMessageCarriesType(t *testing.T) {
	now := time.Date(2021, 3, 3, 0, 0, 0, 0, time.UTC)

	msg, err := Event{Key: "7", Type: "article_ingested", Value: map[string]int{"article_id": 7}}.message(now)
	require.NoError(t, err)
	assert.Equal(t, []byte("7"), msg.Key)
	assert.JSONEq(t, `{"article_id":7}`, string(msg.Value))
	assert.Equal(t, now, msg.Time)
	assert.Equal(t, "article_ingested", headerValue(msg.Headers, HeaderEventType))

	msg, err = Event{Key: "x", Value: 1}.message(now)
	require.NoError(t, err)
	assert.Empty(t, msg.Headers)
	assert.Equal(t, "", headerValue(msg.Headers, HeaderEventType))

	_, err = Event{Type: "bad", Value: make(chan int)}.message(now)
	assert.Error(t, err)
}

func TestPingWithoutBrokers(t *testing.T) {
	p := &Producer{}
	assert.Error(t, p.Ping(context.Background()))
}
