package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/quasarlabs/ignite/internal/events"
)

type payload struct {
	Name string `json:"name"`
}

func TestFetchJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"1.21.4"}`))
	}))
	defer srv.Close()

	c := NewClient(nil)
	got, err := FetchJSON[payload](context.Background(), c, srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "1.21.4" {
		t.Errorf("got %+v", got)
	}
}

func TestFetchJSON_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(nil)
	if _, err := FetchJSON[payload](context.Background(), c, srv.URL); err == nil {
		t.Fatal("expected an error for a 404 response")
	}
}

func TestDownload_WritesFileAndEmitsProgress(t *testing.T) {
	body := []byte("hello world, this is a downloaded file")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "sub", "file.bin")

	sink := events.New()
	var progressEvents int
	sink.On(events.SingleDownloadProgress, func(data any) { progressEvents++ })

	c := NewClient(nil)
	n, err := c.Download(context.Background(), srv.URL, dest, sink)
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(len(body)) {
		t.Errorf("n = %d, want %d", n, len(body))
	}
	if progressEvents == 0 {
		t.Error("expected at least one progress event")
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(body) {
		t.Errorf("file contents mismatch")
	}
	if _, err := os.Stat(dest + ".tmp"); !os.IsNotExist(err) {
		t.Error("expected the .tmp file to be gone after a successful download")
	}
}

func TestDownloadAll_EmitsCompletionPerFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	pairs := []Pair{
		{URL: srv.URL, Dest: filepath.Join(dir, "a.bin")},
		{URL: srv.URL, Dest: filepath.Join(dir, "b.bin")},
		{URL: srv.URL, Dest: filepath.Join(dir, "c.bin")},
	}

	sink := events.New()
	var completions int
	sink.On(events.MultipleDownloadProgress, func(data any) { completions++ })

	c := NewClient(nil)
	if err := c.DownloadAll(context.Background(), pairs, sink); err != nil {
		t.Fatal(err)
	}
	if completions != len(pairs) {
		t.Errorf("completions = %d, want %d", completions, len(pairs))
	}

	for _, p := range pairs {
		if _, err := os.Stat(p.Dest); err != nil {
			t.Errorf("expected %s to exist: %v", p.Dest, err)
		}
	}
}

func TestDownloadAll_FailsFastOnUnrecoverableError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	dir := t.TempDir()
	pairs := []Pair{{URL: srv.URL, Dest: filepath.Join(dir, "a.bin")}}

	c := NewClient(nil)
	if err := c.DownloadAll(context.Background(), pairs, events.New()); err == nil {
		t.Fatal("expected an error when the server always returns 500")
	}
}
