// Package transport provides chunked HTTP fetching and streaming gzip
// decompression with byte-level progress reporting and cooperative
// cancellation, used by the catalog load pipeline.
package transport

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"github.com/avast/retry-go/v4"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"

	"github.com/brickworks/brickdex/pkg/constants"
	"github.com/brickworks/brickdex/pkg/errors"
	"github.com/brickworks/brickdex/pkg/logging"
)

// ProgressFunc receives transfer progress as a percentage in [0, 100] plus a
// human-readable message. Callbacks fire between chunks and must not block.
type ProgressFunc func(percent int, message string)

// Client fetches remote catalog resources in chunks.
type Client struct {
	http   *http.Client
	logger zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the client logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a transport client.
func New(opts ...Option) *Client {
	c := &Client{
		http:   &http.Client{Timeout: constants.DefaultHTTPTimeout},
		logger: *logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch downloads url, reading the response body incrementally and reporting
// progress at least every 5% when the content length is known, or every
// 50 KB otherwise. Non-2xx responses fail with a NetworkError naming the
// status code; transient failures (transport errors, 5xx) are retried with
// backoff. Cancellation between chunks fails with ErrCancelled.
func (c *Client) Fetch(ctx context.Context, url string, onProgress ProgressFunc) ([]byte, error) {
	var body []byte

	err := retry.Do(
		func() error {
			var err error
			body, err = c.fetchOnce(ctx, url, onProgress)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(constants.MaxFetchRetries),
		retry.Delay(constants.RetryBackoff),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isTransient),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn().Uint("attempt", n+1).Err(err).Str("url", url).Msg("retrying fetch")
		}),
	)
	if err != nil {
		if ctx.Err() != nil && !errors.IsCancelled(err) {
			return nil, errors.Cancelled(ctx.Err())
		}
		return nil, err
	}
	return body, nil
}

func (c *Client) fetchOnce(ctx context.Context, url string, onProgress ProgressFunc) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewNetworkError(url, 0, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Cancelled(ctx.Err())
		}
		return nil, errors.NewNetworkError(url, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewNetworkError(url, resp.StatusCode, nil)
	}

	total := resp.ContentLength // -1 when unknown
	var buf bytes.Buffer
	if total > 0 {
		buf.Grow(int(total))
	}

	chunk := make([]byte, constants.FetchChunkSize)
	received := int64(0)
	nextPercent := constants.ProgressPercentStep
	nextBytes := int64(constants.ProgressByteStep)

	for {
		if ctx.Err() != nil {
			return nil, errors.Cancelled(ctx.Err())
		}

		n, readErr := resp.Body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			received += int64(n)

			if onProgress != nil {
				if total > 0 {
					percent := int(received * 100 / total)
					if percent >= nextPercent {
						onProgress(min(100, percent), fmt.Sprintf("downloaded %d KB / %d KB", received/1024, total/1024))
						nextPercent = percent + constants.ProgressPercentStep
					}
				} else if received >= nextBytes {
					// Unknown content length: advance an estimate, one
					// point per 50 KB, capped below completion.
					percent := int(min(int64(95), received/constants.ProgressByteStep))
					onProgress(percent, fmt.Sprintf("downloaded %d KB", received/1024))
					nextBytes = received + constants.ProgressByteStep
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			if ctx.Err() != nil {
				return nil, errors.Cancelled(ctx.Err())
			}
			return nil, errors.NewNetworkError(url, 0, readErr)
		}
	}

	if onProgress != nil {
		onProgress(100, fmt.Sprintf("downloaded %d KB", received/1024))
	}
	return buf.Bytes(), nil
}

// Decompress feeds data through a streaming gzip reader, reporting progress
// as the compressed input is consumed, and returns the decompressed text.
// Cancellation between chunks fails with ErrCancelled.
func Decompress(ctx context.Context, data []byte, onProgress ProgressFunc) (string, error) {
	src := &countingReader{r: bytes.NewReader(data)}

	zr, err := gzip.NewReader(src)
	if err != nil {
		return "", errors.WrapParse("gzip", err)
	}
	defer zr.Close()

	var out bytes.Buffer
	chunk := make([]byte, constants.FetchChunkSize)
	decompressed := int64(0)
	nextBytes := int64(constants.ProgressByteStep)

	for {
		if ctx.Err() != nil {
			return "", errors.Cancelled(ctx.Err())
		}

		n, readErr := zr.Read(chunk)
		if n > 0 {
			out.Write(chunk[:n])
			decompressed += int64(n)

			// Cadence follows decompressed output; the fraction of
			// compressed input consumed is the only bounded denominator
			// for a percentage, since the inflated size is unknown until
			// the stream ends.
			if onProgress != nil && len(data) > 0 && decompressed >= nextBytes {
				percent := int(src.n * 100 / int64(len(data)))
				onProgress(min(100, percent), fmt.Sprintf("decompressed %d KB", decompressed/1024))
				nextBytes = decompressed + constants.ProgressByteStep
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return "", errors.WrapParse("gzip", readErr)
		}
	}

	if onProgress != nil {
		onProgress(100, fmt.Sprintf("decompressed %d KB", decompressed/1024))
	}
	return out.String(), nil
}

// isTransient reports whether a fetch failure is worth retrying: transport
// errors and 5xx statuses are, cancellation and 4xx are not.
func isTransient(err error) bool {
	if errors.IsCancelled(err) || stderrors.Is(err, context.Canceled) {
		return false
	}
	var ne *errors.NetworkError
	if stderrors.As(err, &ne) {
		return ne.StatusCode == 0 || ne.StatusCode >= 500
	}
	return false
}

// countingReader tracks bytes consumed from the wrapped reader.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
