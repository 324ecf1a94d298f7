package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	opts = append([]Option{WithBaseURL(server.URL)}, opts...)
	return New("test-key", opts...), server
}

// slowFor returns a handler that stalls the first n requests past the
// client timeout and then serves body.
func slowFor(n int32, calls *atomic.Int32, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= n {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
			return
		}
		fmt.Fprint(w, body)
	}
}

func TestFetchByGenreRequest(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-KEY") != "test-key" {
			t.Error("missing API key header")
		}
		if r.URL.Path != "/movie" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		expect := map[string]string{
			"page":        "1",
			"limit":       "20",
			"type":        "movie",
			"genres.name": "комедия",
			"sortField":   "rating.kp",
			"sortType":    "-1",
		}
		for k, v := range expect {
			if q.Get(k) != v {
				t.Errorf("param %s: expected %q, got %q", k, v, q.Get(k))
			}
		}
		if nn := q["notNullFields"]; len(nn) != 2 || nn[0] != "poster.url" || nn[1] != "name" {
			t.Errorf("unexpected notNullFields %v", nn)
		}
		fmt.Fprint(w, `{"docs": [{"id": 1}, {"name": "no id"}, {"id": 2}, {"id": 3}, {"id": 4}]}`)
	})

	movies, err := client.FetchByGenre(context.Background(), "комедия", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(movies) != 3 {
		t.Fatalf("expected 3 movies, got %d", len(movies))
	}
	if movies[2].ID != 3 {
		t.Errorf("expected third movie id 3, got %d", movies[2].ID)
	}
}

func TestSearchByNameRequest(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("query") != "Inception" || q.Get("page") != "1" || q.Get("limit") != "3" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"docs": []}`)
	})

	movies, err := client.SearchByName(context.Background(), "Inception", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(movies) != 0 {
		t.Errorf("expected empty result, got %d", len(movies))
	}
}

func TestFetchRandom(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/random" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if len(r.URL.Query()["notNullFields"]) != 2 {
			t.Errorf("expected notNullFields filters, got %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"id": 42, "name": "Random", "year": 2001}`)
	})

	movie, err := client.FetchRandom(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if movie == nil || movie.ID != 42 {
		t.Fatalf("expected movie 42, got %+v", movie)
	}
}

func TestFetchRandomMalformed(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name": "no id"}`)
	})

	movie, err := client.FetchRandom(context.Background())
	if err != nil {
		t.Fatalf("malformed record should not fail the call: %v", err)
	}
	if movie != nil {
		t.Errorf("expected nil movie, got %+v", movie)
	}
}

func TestFetchDetails(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/301" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.RawQuery != "" {
			t.Errorf("expected no query, got %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"id": 301, "name": "Матрица", "movieLength": 136,
			"persons": [{"name": "Киану Ривз", "enProfession": "actor"}]}`)
	})

	d, err := client.FetchDetails(context.Background(), 301)
	if err != nil {
		t.Fatal(err)
	}
	if d.ID != 301 || d.Name != "Матрица" {
		t.Errorf("unexpected details %+v", d)
	}
	if len(d.Actors) != 1 || d.Actors[0] != "Киану Ривз" {
		t.Errorf("unexpected actors %v", d.Actors)
	}
}

func TestRetryOnReadTimeoutRecovers(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, slowFor(2, &calls, `{"id": 5, "name": "Late"}`),
		WithTimeout(100*time.Millisecond))

	movie, err := client.FetchRandom(context.Background())
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if movie == nil || movie.ID != 5 {
		t.Errorf("expected movie 5, got %+v", movie)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestRetryOnReadTimeoutExhausted(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, slowFor(3, &calls, `{"id": 5}`),
		WithTimeout(100*time.Millisecond))

	_, err := client.FetchRandom(context.Background())
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts and no 4th, got %d", got)
	}
}

func TestStatusErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message": "quota exceeded"}`)
	})

	_, err := client.SearchByName(context.Background(), "x", 3)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %d", se.StatusCode)
	}
	if se.Body != `{"message": "quota exceeded"}` {
		t.Errorf("expected body to be kept, got %q", se.Body)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", got)
	}
}

func TestTransportErrorNotRetried(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	client := New("test-key", WithBaseURL(addr))
	_, err := client.FetchDetails(context.Background(), 1)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("connection refused must not be reported as a timeout")
	}
}

func TestCallerDeadlineNotRetried(t *testing.T) {
	var calls atomic.Int32
	client, _ := newTestClient(t, slowFor(3, &calls, `{"id": 5}`),
		WithTimeout(time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := client.FetchRandom(ctx)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if errors.Is(err, ErrTimeout) {
		t.Error("an expired caller context must not be reported as a read timeout")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", got)
	}
}
