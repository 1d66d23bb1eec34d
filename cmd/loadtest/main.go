// Command loadtest drives read traffic against a running searcher and
// reports throughput and latency per query kind.
//
// It first lists the archive to learn article ids and then cycles through
// word searches, article reads, context lookups and statistics until the
// duration elapses.
//
// Usage:
//
//	go run ./cmd/loadtest -url http://localhost:8080 -concurrency 20 -duration 30s
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/internal/report"
)

type request struct {
	kind string
	path string
}

// workload builds the request cycle for the given words and article ids.
func workload(words []string, articleIDs []int64) []request {
	var reqs []request
	for _, w := range words {
		if w == "" {
			continue
		}
		reqs = append(reqs, request{"word", "/api/v1/search?word=" + url.QueryEscape(w)})
		reqs = append(reqs, request{"locations", "/api/v1/words/" + url.PathEscape(w) + "/locations"})
	}
	for i, id := range articleIDs {
		reqs = append(reqs, request{"article", fmt.Sprintf("/api/v1/articles/%d", id)})
		reqs = append(reqs, request{"stats", fmt.Sprintf("/api/v1/articles/%d/stats", id)})
		if len(words) == 0 {
			continue
		}
		if w := words[i%len(words)]; w != "" {
			reqs = append(reqs, request{"contexts", fmt.Sprintf("/api/v1/articles/%d/contexts?word=%s", id, url.QueryEscape(w))})
		}
	}
	reqs = append(reqs, request{"list", "/api/v1/articles"})
	return reqs
}

// recorder collects latencies and status codes per query kind. Requests
// that got no response are counted as dropped.
type recorder struct {
	mu        sync.Mutex
	latencies map[string][]time.Duration
	failed    map[string]int
	dropped   map[string]int
	codes     map[int]int
}

func newRecorder() *recorder {
	return &recorder{
		latencies: make(map[string][]time.Duration),
		failed:    make(map[string]int),
		dropped:   make(map[string]int),
		codes:     make(map[int]int),
	}
}

func (r *recorder) record(kind string, d time.Duration, code int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.dropped[kind]++
		return
	}
	r.codes[code]++
	if code >= 400 {
		r.failed[kind]++
	}
	r.latencies[kind] = append(r.latencies[kind], d)
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "base URL of the searcher")
	concurrency := flag.Int("concurrency", 10, "number of concurrent workers")
	duration := flag.Duration("duration", 30*time.Second, "test duration")
	wordList := flag.String("words", "the,river,market,today,said", "comma-separated words to query")
	flag.Parse()

	client := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        *concurrency * 2,
			MaxIdleConnsPerHost: *concurrency * 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	ids, err := articleIDs(context.Background(), client, *baseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "listing articles: %v\n", err)
		os.Exit(1)
	}
	reqs := workload(strings.Split(*wordList, ","), ids)

	fmt.Println("=== News Archive Load Test ===")
	fmt.Printf("Target:      %s\n", *baseURL)
	fmt.Printf("Concurrency: %d\n", *concurrency)
	fmt.Printf("Duration:    %s\n", *duration)
	fmt.Printf("Articles:    %d\n", len(ids))
	fmt.Printf("Requests:    %d in the cycle\n\n", len(reqs))

	rec := run(client, *baseURL, reqs, *concurrency, *duration)
	if err := printReport(os.Stdout, rec, *duration); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func articleIDs(ctx context.Context, client *http.Client, baseURL string) ([]int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/v1/articles", nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var body struct {
		Articles []struct {
			ID int64 `json:"id"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	ids := make([]int64, len(body.Articles))
	for i, a := range body.Articles {
		ids[i] = a.ID
	}
	return ids, nil
}

func run(client *http.Client, baseURL string, reqs []request, concurrency int, duration time.Duration) *recorder {
	rec := newRecorder()
	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < concurrency; w++ {
		g.Go(func() error {
			for i := w; gctx.Err() == nil; i++ {
				r := reqs[i%len(reqs)]
				req, err := http.NewRequestWithContext(gctx, http.MethodGet, baseURL+r.path, nil)
				if err != nil {
					return err
				}
				start := time.Now()
				resp, err := client.Do(req)
				elapsed := time.Since(start)
				if err != nil {
					if gctx.Err() == nil {
						rec.record(r.kind, elapsed, 0, err)
					}
					continue
				}
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				rec.record(r.kind, elapsed, resp.StatusCode, nil)
			}
			return nil
		})
	}
	g.Wait()
	return rec
}

func printReport(w io.Writer, rec *recorder, duration time.Duration) error {
	rec.mu.Lock()
	defer rec.mu.Unlock()

	kinds := make([]string, 0, len(rec.latencies))
	for k := range rec.latencies {
		kinds = append(kinds, k)
	}
	for k := range rec.dropped {
		if _, ok := rec.latencies[k]; !ok {
			kinds = append(kinds, k)
		}
	}
	sort.Strings(kinds)

	t := report.NewTable("KIND", "REQUESTS", "ERRORS", "RPS", "P50", "P95", "P99", "MAX").AlignRight(1, 2, 3, 4, 5, 6, 7)
	total := 0
	for _, k := range kinds {
		lat := append([]time.Duration(nil), rec.latencies[k]...)
		sort.Slice(lat, func(i, j int) bool { return lat[i] < lat[j] })
		n := len(lat) + rec.dropped[k]
		total += n
		t.AddRow(k, n, rec.failed[k]+rec.dropped[k], fmt.Sprintf("%.1f", float64(n)/duration.Seconds()),
			percentile(lat, 50), percentile(lat, 95), percentile(lat, 99), percentile(lat, 100))
	}
	if err := t.Render(w); err != nil {
		return err
	}

	fmt.Fprintln(w)
	codes := make([]int, 0, len(rec.codes))
	for c := range rec.codes {
		codes = append(codes, c)
	}
	sort.Ints(codes)
	ct := report.NewTable("STATUS", "COUNT").AlignRight(0, 1)
	for _, c := range codes {
		ct.AddRow(c, rec.codes[c])
	}
	if err := ct.Render(w); err != nil {
		return err
	}
	if total == 0 {
		return fmt.Errorf("no requests completed; is the searcher running?")
	}
	return nil
}

// percentile expects sorted input and uses the nearest-rank method.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
