package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/catxpapa/catxframeup/pkg/decoration"
	"github.com/catxpapa/catxframeup/pkg/errors"
	"github.com/catxpapa/catxframeup/pkg/frame"
	"github.com/catxpapa/catxframeup/pkg/httputil"
)

// HTTPSource reads assets from a remote frameup server.
type HTTPSource struct {
	base   string
	client *httputil.Client
}

// NewHTTPSource returns a source for the server at baseURL. A nil client
// uses httputil defaults.
func NewHTTPSource(baseURL string, client *httputil.Client) (*HTTPSource, error) {
	if err := errors.ValidateURL(baseURL); err != nil {
		return nil, err
	}
	if client == nil {
		client = httputil.NewClient(0)
	}
	return &HTTPSource{base: strings.TrimRight(baseURL, "/"), client: client}, nil
}

// Origin implements Source.
func (s *HTTPSource) Origin() string { return s.base }

// envelope is the server's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (s *HTTPSource) api(ctx context.Context, v any, elem ...string) error {
	u, err := httputil.JoinURL(s.base, append([]string{"api"}, elem...)...)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "build url")
	}
	var env envelope
	if err := s.client.GetJSON(ctx, u, &env); err != nil {
		return err
	}
	if !env.Success {
		return errors.New(errors.ErrCodeNetwork, "%s: %s", u, env.Error)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "decode %s", u)
	}
	return nil
}

// ListFrames implements Source.
func (s *HTTPSource) ListFrames(ctx context.Context) ([]FrameInfo, error) {
	var frames []FrameInfo
	if err := s.api(ctx, &frames, "frames"); err != nil {
		return nil, err
	}
	for i := range frames {
		if frames[i].Ref == "" {
			frames[i].Ref = FrameRef(frames[i].ID)
		}
	}
	return frames, nil
}

// ListDecorations implements Source.
func (s *HTTPSource) ListDecorations(ctx context.Context) ([]DecorationInfo, error) {
	var decos []DecorationInfo
	if err := s.api(ctx, &decos, "decorations"); err != nil {
		return nil, err
	}
	for i := range decos {
		if decos[i].Ref == "" {
			decos[i].Ref = DecorationRef(decos[i].ID)
		}
	}
	return decos, nil
}

// FrameConfig implements Source. The server has no per-frame route, so
// the listing is searched.
func (s *HTTPSource) FrameConfig(ctx context.Context, id string) (frame.Config, error) {
	frames, err := s.ListFrames(ctx)
	if err != nil {
		return frame.Config{}, err
	}
	for _, f := range frames {
		if f.ID == id {
			return f.Settings, nil
		}
	}
	return frame.Config{}, errors.New(errors.ErrCodeNotFound, "frame %q not found", id)
}

// DecorationConfig implements Source.
func (s *HTTPSource) DecorationConfig(ctx context.Context, id string) (decoration.Config, error) {
	decos, err := s.ListDecorations(ctx)
	if err != nil {
		return decoration.Config{}, err
	}
	for _, d := range decos {
		if d.ID == id {
			if d.Settings.DefaultScale <= 0 {
				d.Settings.DefaultScale = decoration.DefaultScale
			}
			return d.Settings, nil
		}
	}
	return decoration.Config{}, errors.New(errors.ErrCodeNotFound, "decoration %q not found", id)
}

// Open implements Source.
func (s *HTTPSource) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if err := errors.ValidatePath(ref); err != nil {
		return nil, err
	}
	u, err := httputil.JoinURL(s.base, "assets", ref)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build url")
	}
	body, err := s.client.Get(ctx, u)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

var _ Source = (*HTTPSource)(nil)
