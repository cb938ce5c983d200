package replication

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestParseState(t *testing.T) {
	state, err := ParseState([]byte(`---
last_run: 2016-12-07 19:16:01.500000000 +00:00
sequence: 2139110
`))
	if err != nil {
		t.Fatal(err)
	}
	if state.Sequence != 2139110 {
		t.Error("unexpected sequence", state)
	}

	expected := time.Date(2016, 12, 7, 19, 16, 1, 500000000, time.UTC)
	if !state.Time.Equal(expected) {
		t.Error("unexpected time", state)
	}
}

func TestParseStateInvalid(t *testing.T) {
	if _, err := ParseState([]byte("last_run: not a time\n")); err == nil {
		t.Fatal("expected error")
	}
}

func TestCurrentState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/state.yaml" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("---\nlast_run: 2024-08-24 00:00:01.000000000 +00:00\nsequence: 6100000\n"))
	}))
	defer srv.Close()

	state, err := CurrentState(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	if state.Sequence != 6100000 {
		t.Error("unexpected sequence", state)
	}
}

func TestCurrentStateNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	if _, err := CurrentState(srv.URL + "/"); err == nil {
		t.Fatal("expected error for missing state.yaml")
	}
}
