package stages

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Raft Consensus Explained</title></head>
<body>
<nav>Home | About | Contact</nav>
<article>
<h1>Raft Consensus Explained</h1>
<p>Raft is a consensus algorithm designed to be understandable. It separates
leader election from log replication, which makes the protocol easier to
reason about than Paxos. Each server is in one of three states: leader,
follower, or candidate.</p>
<p>The leader handles all client requests and replicates log entries to the
followers. Safety is guaranteed by the election restriction: a candidate must
hold all committed entries to win an election.</p>
</article>
<footer>Copyright notice</footer>
</body>
</html>`

func TestSourceFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(samplePage))
	}))
	defer server.Close()

	fetcher := NewSourceFetcher()
	notes := fetcher.Fetch(context.Background(), []string{server.URL})

	require.Len(t, notes, 1)
	assert.Equal(t, server.URL, notes[0].URL)
	assert.Equal(t, "Raft Consensus Explained", notes[0].Title)
	assert.Contains(t, notes[0].Excerpt, "consensus algorithm")
}

func TestSourceFetcherSkipsFailures(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer failing.Close()

	working := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePage))
	}))
	defer working.Close()

	fetcher := NewSourceFetcher()
	notes := fetcher.Fetch(context.Background(), []string{
		failing.URL,
		"ftp://unsupported.example.com/file",
		"::not a url::",
		working.URL,
	})

	// Only the working source survives; failures never abort the batch.
	require.Len(t, notes, 1)
	assert.Equal(t, working.URL, notes[0].URL)
}

func TestSourceFetcherExcerptCap(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePage))
	}))
	defer server.Close()

	fetcher := NewSourceFetcher(WithMaxExcerpt(40))
	notes := fetcher.Fetch(context.Background(), []string{server.URL})

	require.Len(t, notes, 1)
	assert.LessOrEqual(t, len(notes[0].Excerpt), 40)
}
