package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"trendcharts/internal/datasets"
	"trendcharts/internal/gallery"
)

func NewHTTPMux(webhook http.HandlerFunc, g *gallery.Gallery) *http.ServeMux {
	mux := http.NewServeMux()
	if webhook != nil {
		mux.HandleFunc("/telegram/webhook", webhook)
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(200) })
	mux.HandleFunc("GET /charts/{file}", chartHandler(g))
	return mux
}

// chartHandler serves /charts/NAME.png (line chart, ?view=indexed, or
// ?year=YYYY for a snapshot) and /charts/NAME.gif (animation).
func chartHandler(g *gallery.Gallery) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file := r.PathValue("file")
		ext := path.Ext(file)
		name := strings.TrimSuffix(file, ext)
		ctx, cancel := context.WithTimeout(r.Context(), 90*time.Second)
		defer cancel()

		var (
			img         []byte
			err         error
			contentType = "image/png"
		)
		switch {
		case ext == ".gif":
			contentType = "image/gif"
			img, _, err = g.Animation(ctx, name)
		case ext != ".png":
			http.Error(w, "unsupported format "+ext, http.StatusNotFound)
			return
		case r.URL.Query().Get("year") != "":
			year, convErr := strconv.Atoi(r.URL.Query().Get("year"))
			if convErr != nil {
				http.Error(w, "bad year", http.StatusBadRequest)
				return
			}
			img, _, err = g.Snapshot(ctx, name, year)
		case r.URL.Query().Get("view") == "indexed":
			img, _, err = g.Indexed(ctx, name)
		default:
			img, _, err = g.Chart(ctx, name)
		}
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, datasets.ErrUnknownDataset) {
				status = http.StatusNotFound
			}
			log.Printf("http: chart %s failed: %v", file, err)
			http.Error(w, err.Error(), status)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "public, max-age=60")
		w.Write(img)
	}
}

func ListenAndServe(addr string, mux *http.ServeMux) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
