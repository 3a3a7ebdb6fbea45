package dataset

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// Fetcher downloads remote datasets to a local temp file.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	log     *logrus.Entry
}

func NewFetcher(log *logrus.Entry, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		log:     log,
	}
}

func IsRemote(p string) bool {
	l := strings.ToLower(p)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Fetch downloads rawURL into a temp file that keeps the URL's extension, so
// the loader can still pick a format. Network errors and 5xx responses are
// retried with exponential backoff; other non-2xx responses fail at once.
// The returned cleanup removes the temp file.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, func(), error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, fmt.Errorf("parse url: %w", err)
	}
	log := f.log.WithField("url", u.Redacted())

	tmp, err := os.CreateTemp("", "dedup-input-*"+path.Ext(u.Path))
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = f.timeout
	attempt := 0
	op := func() error {
		attempt++
		if _, err := tmp.Seek(0, io.SeekStart); err != nil {
			return backoff.Permanent(err)
		}
		if err := tmp.Truncate(0); err != nil {
			return backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := f.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			log.WithError(err).WithField("attempt", attempt).Warn("download failed, retrying")
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			log.WithField("status", resp.StatusCode).WithField("attempt", attempt).Warn("server error, retrying")
			return fmt.Errorf("server error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		if resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return backoff.Permanent(fmt.Errorf("download failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
		}
		if _, err := io.Copy(tmp, resp.Body); err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		tmp.Close()
		cleanup()
		return "", nil, fmt.Errorf("fetch %s: %w", u.Redacted(), err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}
	log.WithField("attempts", attempt).WithField("file", tmp.Name()).Info("dataset downloaded")
	return tmp.Name(), cleanup, nil
}
