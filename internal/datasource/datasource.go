// Package datasource abstracts where raw CSV bytes come from.
package datasource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"csvrecord/internal/config"
	"csvrecord/internal/datasource/file"
	"csvrecord/internal/datasource/httpds"
)

// Source opens a fresh byte stream per call.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

var (
	_ Source = (*file.Local)(nil)
	_ Source = (*httpds.Source)(nil)
)

// FromConfig builds the Source named by cfg.Kind.
func FromConfig(cfg config.Source) (Source, error) {
	switch cfg.Kind {
	case "file":
		return file.NewLocal(cfg.File.Path), nil
	case "http":
		h := cfg.HTTP
		hdr := make(http.Header, len(h.Headers))
		for k, v := range h.Headers {
			hdr.Set(k, v)
		}
		return httpds.New(h.URL, httpds.Config{
			ResponseTimeout:    time.Duration(h.TimeoutSeconds) * time.Second,
			MaxRetries:         h.MaxRetries,
			InsecureSkipVerify: h.InsecureSkipVerify,
			Headers:            hdr,
		}), nil
	default:
		return nil, fmt.Errorf("datasource: unknown source kind %q", cfg.Kind)
	}
}
