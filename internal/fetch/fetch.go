// Package fetch implements the HTTP fetch and downloader layer (C4): JSON
// fetch, a single streamed download with a per-chunk stall watchdog, and a
// bounded-concurrency batch download with retries.
//
// The retryable HTTP client setup is carried over from the teacher's
// internal/download/manager.go almost verbatim (RetryMax=3,
// RetryWaitMin/Max, a tuned Transport); the watchdog and batch-retry
// semantics are new, grounded on
// _examples/original_source/src/http/downloader.rs's per-chunk
// tokio::time::timeout loop and its "Connection dead, no data for 3
// seconds." error text, which this module preserves verbatim even though the
// active threshold is 10 seconds (see DESIGN.md's open-question decision).
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/quasarlabs/ignite/internal/errs"
	"github.com/quasarlabs/ignite/internal/events"
)

const (
	// stallWatchdog is the real per-chunk timeout. Its error message below
	// intentionally still says "3 seconds" — see the package doc comment.
	stallWatchdog = 10 * time.Second

	batchConcurrency = 10
	retryAttempts    = 3
	retryDelay       = 5 * time.Second
)

// Client wraps a retrying HTTP client used for every network operation in
// the installer.
type Client struct {
	http *http.Client
	log  *zap.Logger
}

// NewClient builds a Client with the teacher's retry/transport tuning. A nil
// logger is replaced with a no-op logger.
func NewClient(log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = nil

	retryClient.HTTPClient.Transport = &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	retryClient.HTTPClient.Timeout = 5 * time.Minute

	return &Client{http: retryClient.StandardClient(), log: log}
}

// FetchJSON performs a GET against url and decodes the body as T.
func FetchJSON[T any](ctx context.Context, c *Client, url string) (T, error) {
	var zero T

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return zero, errs.IO(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, errs.Wrap(errs.KindDownload, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return zero, errs.Download(fmt.Sprintf("%s: unexpected status %d", url, resp.StatusCode))
	}

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return zero, errs.Parse(fmt.Sprintf("decoding %s: %v", url, err))
	}
	return out, nil
}

// Download streams url to dest via a .tmp file that is renamed into place on
// success, emitting a SingleDownloadProgress event per chunk read. If no
// chunk arrives within the stall watchdog, the download is aborted. Returns
// the final size in bytes.
func (c *Client) Download(ctx context.Context, url, dest string, sink *events.Sink) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, errs.IO(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, errs.Wrap(errs.KindDownload, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, errs.Download(fmt.Sprintf("%s: unexpected status %d", url, resp.StatusCode))
	}

	total := resp.ContentLength

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, errs.IO(err)
	}

	tmp := dest + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return 0, errs.IO(err)
	}

	written, err := c.copyWithWatchdog(ctx, resp.Body, f, url, total, sink)
	f.Close()
	if err != nil {
		os.Remove(tmp)
		return 0, err
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return 0, errs.IO(err)
	}

	c.log.Debug("downloaded", zap.String("url", url), zap.String("size", humanize.Bytes(uint64(written))))
	return written, nil
}

// copyWithWatchdog copies r into w in chunks, resetting a stall timer on
// every successful read and emitting progress after each chunk. Each read
// runs in its own goroutine so a stalled r.Read can be abandoned on
// watchdog/cancellation without blocking the caller; the abandoned
// goroutine's buffer is never touched again since it is allocated fresh per
// attempt and only referenced by that goroutine and its result.
func (c *Client) copyWithWatchdog(ctx context.Context, r io.Reader, w io.Writer, path string, total int64, sink *events.Sink) (int64, error) {
	type chunk struct {
		buf []byte
		n   int
		err error
	}

	var written int64
	for {
		reads := make(chan chunk, 1)
		go func() {
			buf := make([]byte, 32*1024)
			n, err := r.Read(buf)
			reads <- chunk{buf, n, err}
		}()

		select {
		case res := <-reads:
			if res.n > 0 {
				if _, werr := w.Write(res.buf[:res.n]); werr != nil {
					return written, errs.IO(werr)
				}
				written += int64(res.n)
				sink.EmitSingleDownloadProgress(path, written, total)
			}
			if res.err == io.EOF {
				return written, nil
			}
			if res.err != nil {
				return written, errs.Wrap(errs.KindDownload, path, res.err)
			}
		case <-time.After(stallWatchdog):
			return written, errs.Download("Connection dead, no data for 3 seconds.")
		case <-ctx.Done():
			return written, ctx.Err()
		}
	}
}

// Pair is one (url, destination) download request for DownloadAll.
type Pair struct {
	URL  string
	Dest string
}

// DownloadAll runs up to K=10 concurrent downloads, each retried up to 3
// times with a fixed 5s inter-attempt delay on any Network/Download failure.
// Emits MultipleDownloadProgress as each file finishes. The first
// irrecoverable failure cancels all in-flight downloads (fail-fast).
func (c *Client) DownloadAll(ctx context.Context, pairs []Pair, sink *events.Sink) error {
	if len(pairs) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)

	total := len(pairs)
	var done int32

	for _, p := range pairs {
		p := p
		g.Go(func() error {
			if err := c.downloadWithRetry(gctx, p); err != nil {
				return fmt.Errorf("%s: %w", p.URL, err)
			}
			n := atomic.AddInt32(&done, 1)
			sink.EmitMultipleDownloadProgress(p.Dest, int(n), total)
			return nil
		})
	}

	return g.Wait()
}

func (c *Client) downloadWithRetry(ctx context.Context, p Pair) error {
	var lastErr error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryDelay):
			}
		}

		_, err := c.Download(ctx, p.URL, p.Dest, nil)
		if err == nil {
			return nil
		}
		lastErr = err

		if !errs.Is(err, errs.KindDownload) && !errs.Is(err, errs.KindTimeout) {
			return err // not retry-eligible
		}
	}
	return lastErr
}
