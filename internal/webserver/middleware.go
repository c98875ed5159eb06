package webserver

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/zstd"
)

type compressResponseWriter struct {
	http.ResponseWriter
	writer io.Writer
}

func (w *compressResponseWriter) Write(b []byte) (int, error) {
	return w.writer.Write(b)
}

// CompressionMiddleware negotiates zstd or gzip response compression based
// on the Accept-Encoding header.
func CompressionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writer, closer, encoding := selectEncoder(w, r.Header.Get("Accept-Encoding"))
		if encoding == "" {
			next.ServeHTTP(w, r)
			return
		}
		defer closer()

		w.Header().Set("Content-Encoding", encoding)
		w.Header().Add("Vary", "Accept-Encoding")
		w.Header().Del("Content-Length") // Can't know compressed size

		next.ServeHTTP(&compressResponseWriter{ResponseWriter: w, writer: writer}, r)
	})
}

func selectEncoder(w http.ResponseWriter, acceptEncoding string) (io.Writer, func(), string) {
	if strings.Contains(acceptEncoding, "zstd") {
		encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err == nil {
			return encoder, func() { _ = encoder.Close() }, "zstd"
		}
	}

	if strings.Contains(acceptEncoding, "gzip") {
		gz := gzip.NewWriter(w)
		return gz, func() { _ = gz.Close() }, "gzip"
	}

	return nil, nil, ""
}
