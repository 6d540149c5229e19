// Package httputil provides the HTTP client used to talk to a remote
// frameup server.
//
// # Overview
//
//   - [Client]: GET requests with retries, status mapping and hooks
//   - [Retry]: automatic retry with exponential backoff
//
// # Retry
//
// [Client] retries transient failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// A 404 becomes a NOT_FOUND error and is returned at once. Other 4xx
// responses are returned as INVALID_INPUT without retrying.
//
//	c := httputil.NewClient(30 * time.Second)
//	var frames []FrameInfo
//	err := c.GetJSON(ctx, "https://frames.example.com/api/frames", &frames)
//
// # Configuration
//
// Default settings are suitable for most use cases:
//
//   - Timeout: 30 seconds per request
//   - Max attempts: 3
//   - Base backoff: 1 second
package httputil
