package pipeline

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/OPENER-next/OpenStop-stats/queue"
)

func TestFetch(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789abcdef"), 640) // 10 KiB
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	out := queue.New(64)
	err := fetch(Config{
		URL:       srv.URL + "/changesets-latest.osm.bz2",
		ChunkSize: 1024,
		Client:    srv.Client(),
	}, out)
	if err != nil {
		t.Fatal(err)
	}

	var got []byte
	chunks := 0
	for {
		chunk, ok := out.Pop()
		if !ok {
			break
		}
		if len(chunk) > 1024 {
			t.Errorf("chunk of %d bytes exceeds chunk size", len(chunk))
		}
		got = append(got, chunk...)
		chunks++
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("fetched %d bytes, want %d", len(got), len(payload))
	}
	if chunks < 10 {
		t.Errorf("expected at least 10 chunks, got %d", chunks)
	}
	if out.Aborted() {
		t.Error("expected graceful close")
	}
}

func TestFetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	out := queue.New(4)
	err := fetch(Config{
		URL:       srv.URL + "/missing.osm.bz2",
		ChunkSize: 1024,
		Client:    srv.Client(),
	}, out)
	if err == nil {
		t.Fatal("expected error for 404")
	}

	// The queue still closes gracefully so downstream stages
	// terminate instead of hanging.
	if _, ok := out.Pop(); ok {
		t.Error("expected no chunks")
	}
	if out.Aborted() {
		t.Error("expected graceful close, not abort")
	}
}

func TestFetchInterrupted(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "8192")
		w.Write(payload)
	}))
	defer srv.Close()

	out := queue.New(64)
	err := fetch(Config{
		URL:       srv.URL + "/changesets-latest.osm.bz2",
		ChunkSize: 1024,
		Client:    srv.Client(),
	}, out)
	if err == nil {
		t.Fatal("expected error for interrupted download")
	}

	// Chunks received before the failure were delivered in order,
	// then the queue closed gracefully.
	var got []byte
	for {
		chunk, ok := out.Pop()
		if !ok {
			break
		}
		got = append(got, chunk...)
	}
	if !bytes.HasPrefix(payload, got) {
		t.Error("delivered chunks are not a prefix of the payload")
	}
	if out.Aborted() {
		t.Error("expected graceful close, not abort")
	}
}

func TestFetchAbortedDownstream(t *testing.T) {
	payload := bytes.Repeat([]byte("y"), 1<<16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	out := queue.New(1)
	out.Abort()

	err := fetch(Config{
		URL:       srv.URL + "/changesets-latest.osm.bz2",
		ChunkSize: 1024,
		Client:    srv.Client(),
	}, out)
	if err != nil {
		t.Fatal("downstream abort must not surface as fetch error:", err)
	}
}
