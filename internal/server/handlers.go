package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/catxpapa/catxframeup/pkg/assets"
	"github.com/catxpapa/catxframeup/pkg/errors"
	"github.com/catxpapa/catxframeup/pkg/history"
	"github.com/catxpapa/catxframeup/pkg/pipeline"
	"github.com/catxpapa/catxframeup/pkg/project"
)

var errUploadsDisabled = errors.New(errors.ErrCodeUnsupported, "uploads are not available for this asset backend")

func HandleListFrames(src assets.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		frames, err := src.ListFrames(r.Context())
		if err != nil {
			fail(w, r, err)
			return
		}
		respond(w, r, frames)
	}
}

func HandleListDecorations(src assets.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decos, err := src.ListDecorations(r.Context())
		if err != nil {
			fail(w, r, err)
			return
		}
		respond(w, r, decos)
	}
}

func HandleListUploads(wr assets.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if wr == nil {
			respond(w, r, []assets.Upload{})
			return
		}
		ups, err := wr.ListUploads(r.Context())
		if err != nil {
			fail(w, r, err)
			return
		}
		respond(w, r, ups)
	}
}

// historyItem is the listing shape the web editor reads.
type historyItem struct {
	ID        string           `json:"id"`
	JSONPath  string           `json:"jsonPath"`
	ImagePath *string          `json:"imagePath"`
	Data      project.Document `json:"data"`
	SaveTime  time.Time        `json:"saveTime"`
}

func toHistoryItem(e history.Entry) historyItem {
	item := historyItem{
		ID:       e.ID,
		JSONPath: "/history/" + e.ID + ".json",
		Data:     e.Document,
		SaveTime: e.SaveTime,
	}
	if e.HasImage {
		p := "/history/" + e.ID + ".png"
		item.ImagePath = &p
	}
	return item
}

func HandleListHistory(store history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := store.List(r.Context())
		if err != nil {
			fail(w, r, err)
			return
		}
		items := make([]historyItem, 0, len(entries))
		for _, e := range entries {
			items = append(items, toHistoryItem(e))
		}
		respond(w, r, items)
	}
}

func HandleGetHistory(store history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			fail(w, r, err)
			return
		}
		respond(w, r, toHistoryItem(e))
	}
}

// HandleUpload accepts a multipart upload. The file field is named after
// the kind ("image", "frame" or "decoration"); frames and decorations
// carry a "settings" JSON field.
func HandleUpload(src assets.Source, wr assets.Writer, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, ok := assets.ParseKind(chi.URLParam(r, "kind"))
		if !ok {
			failStatus(w, r, http.StatusNotFound, "unknown upload type")
			return
		}
		if wr == nil {
			fail(w, r, errUploadsDisabled)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, assets.MaxUploadSize+1<<20)
		if err := r.ParseMultipartForm(assets.MaxUploadSize); err != nil {
			fail(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid upload"))
			return
		}
		file, header, err := r.FormFile(string(kind))
		if err != nil {
			fail(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "no %s file uploaded", kind))
			return
		}
		defer file.Close()

		up, err := wr.SaveUpload(r.Context(), kind, header.Filename, file, []byte(r.FormValue("settings")))
		if err != nil {
			logger.Warn("Upload rejected", "kind", kind, "file", header.Filename, "err", err)
			fail(w, r, err)
			return
		}

		switch kind {
		case assets.KindFrame:
			cfg, err := src.FrameConfig(r.Context(), up.ID)
			if err != nil {
				fail(w, r, err)
				return
			}
			respond(w, r, assets.FrameInfo{ID: up.ID, Name: up.ID, Ref: up.Ref, ImagePath: up.Path, Settings: cfg})
		case assets.KindDecoration:
			cfg, err := src.DecorationConfig(r.Context(), up.ID)
			if err != nil {
				fail(w, r, err)
				return
			}
			respond(w, r, assets.DecorationInfo{ID: up.ID, Name: up.ID, Ref: up.Ref, ImagePath: up.Path, Settings: cfg})
		default:
			respond(w, r, up)
		}
	}
}

var dataURLPrefix = regexp.MustCompile(`^data:image/\w+;base64,`)

type saveRequest struct {
	ImageData   string          `json:"imageData"`
	ProjectData json.RawMessage `json:"projectData"`
}

type saveResponse struct {
	ID        string `json:"id"`
	ImagePath string `json:"imagePath"`
	JSONPath  string `json:"jsonPath"`
}

func HandleSaveHistory(store history.Store, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req saveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			fail(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body"))
			return
		}
		if req.ImageData == "" || len(req.ProjectData) == 0 {
			fail(w, r, errors.New(errors.ErrCodeInvalidInput, "imageData and projectData are required"))
			return
		}
		png, err := base64.StdEncoding.DecodeString(dataURLPrefix.ReplaceAllString(req.ImageData, ""))
		if err != nil {
			fail(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "imageData is not base64"))
			return
		}
		doc, err := project.Decode(bytes.NewReader(req.ProjectData))
		if err != nil {
			fail(w, r, err)
			return
		}

		e, err := store.Save(r.Context(), doc, png)
		if err != nil {
			fail(w, r, err)
			return
		}
		logger.Info("Saved work", "id", e.ID, "size", len(png))
		respond(w, r, saveResponse{
			ID:        e.ID,
			ImagePath: "/history/" + e.ID + ".png",
			JSONPath:  "/history/" + e.ID + ".json",
		})
	}
}

// HandleRender renders a project document and returns the PNG.
func HandleRender(runner *pipeline.Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := project.Decode(r.Body)
		if err != nil {
			fail(w, r, err)
			return
		}
		res, err := runner.RenderDocument(r.Context(), doc)
		if err != nil {
			fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("X-Canvas-Size", fmt.Sprintf("%dx%d", res.Canvas.X, res.Canvas.Y))
		w.Write(res.PNG)
	}
}

// forgetter drops a ref from the render loader so cleared uploads stop
// rendering. *assets.Loader implements it.
type forgetter interface {
	Forget(ctx context.Context, ref string)
}

func HandleClear(wr assets.Writer, store history.Store, loader forgetter, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			n   int
			err error
		)
		target := chi.URLParam(r, "target")
		switch target {
		case "uploads":
			if wr == nil {
				fail(w, r, errUploadsDisabled)
				return
			}
			n, err = clearUploads(r.Context(), wr, loader)
		case "history":
			n, err = store.Clear(r.Context())
		default:
			failStatus(w, r, http.StatusNotFound, "unknown clear target")
			return
		}
		if err != nil {
			fail(w, r, err)
			return
		}
		logger.Info("Cleared", "target", target, "count", n)
		respondMessage(w, r, fmt.Sprintf("cleared %d %s files", n, target))
	}
}

func clearUploads(ctx context.Context, wr assets.Writer, loader forgetter) (int, error) {
	ups, err := wr.ListUploads(ctx)
	if err != nil {
		return 0, err
	}
	n, err := wr.ClearUploads(ctx)
	if err != nil {
		return n, err
	}
	if loader != nil {
		for _, up := range ups {
			loader.Forget(ctx, up.Ref)
		}
	}
	return n, nil
}

// HandleResetAssets always fails: restoring the stock assets needs a
// pristine copy that is not shipped with the server.
func HandleResetAssets() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fail(w, r, errors.New(errors.ErrCodeUnsupported, "asset reset is not supported"))
	}
}

func contentType(name string) string {
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

func HandleAsset(src assets.Source) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ref := chi.URLParam(r, "*")
		if err := errors.ValidatePath(ref); err != nil {
			fail(w, r, err)
			return
		}
		rc, err := src.Open(r.Context(), ref)
		if err != nil {
			fail(w, r, err)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", contentType(ref))
		w.Header().Set("Cache-Control", "public, max-age=3600")
		io.Copy(w, rc)
	}
}

// HandleHistoryFile serves /history/<id>.png and /history/<id>.json.
func HandleHistoryFile(store history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file := chi.URLParam(r, "file")
		ext := path.Ext(file)
		id := strings.TrimSuffix(file, ext)
		if err := errors.ValidateAssetID(id); err != nil {
			fail(w, r, err)
			return
		}
		switch ext {
		case ".png":
			png, err := store.Image(r.Context(), id)
			if err != nil {
				fail(w, r, err)
				return
			}
			w.Header().Set("Content-Type", "image/png")
			w.Write(png)
		case ".json":
			e, err := store.Get(r.Context(), id)
			if err != nil {
				fail(w, r, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			project.Encode(w, e.Document)
		default:
			failStatus(w, r, http.StatusNotFound, "not found")
		}
	}
}
