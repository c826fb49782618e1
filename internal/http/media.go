package httpapi

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (s *Server) MediaContent(w http.ResponseWriter, r *http.Request) {
	asset, body, err := s.Blobs.Open(chi.URLParam(r, "assetId"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	defer func() { _ = body.Close() }()
	if asset.Filename != nil {
		w.Header().Set("Content-Disposition", "inline; filename=\""+*asset.Filename+"\"")
	}
	if asset.ContentType != "" {
		w.Header().Set("Content-Type", asset.ContentType)
	}
	w.Header().Set("Content-Length", strconv.FormatInt(asset.SizeBytes, 10))
	_, _ = io.Copy(w, body)
}
