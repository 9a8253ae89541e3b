package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGzipMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("echo:" + string(body)))
	})

	type want struct {
		status       int
		body         string
		gzipResponse bool
	}

	tests := []struct {
		name           string
		gzipRequest    bool
		acceptEncoding string
		body           string
		want           want
	}{
		{
			name:           "plain request plain response",
			body:           "ranking",
			acceptEncoding: "",
			want: want{
				status: http.StatusOK,
				body:   "echo:ranking",
			},
		},
		{
			name:           "gzip request body",
			gzipRequest:    true,
			body:           "compressed payload",
			acceptEncoding: "",
			want: want{
				status: http.StatusOK,
				body:   "echo:compressed payload",
			},
		},
		{
			name:           "gzip response",
			body:           "ranking",
			acceptEncoding: "gzip",
			want: want{
				status:       http.StatusOK,
				body:         "echo:ranking",
				gzipResponse: true,
			},
		},
		{
			name:           "gzip both directions",
			gzipRequest:    true,
			body:           "compressed payload",
			acceptEncoding: "gzip",
			want: want{
				status:       http.StatusOK,
				body:         "echo:compressed payload",
				gzipResponse: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var reqBody io.Reader = strings.NewReader(tt.body)
			if tt.gzipRequest {
				var buf bytes.Buffer
				gz := gzip.NewWriter(&buf)
				gz.Write([]byte(tt.body))
				gz.Close()
				reqBody = &buf
			}

			req := httptest.NewRequest(http.MethodPost, "/", reqBody)
			if tt.gzipRequest {
				req.Header.Set("Content-Encoding", "gzip")
			}
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}

			rw := httptest.NewRecorder()
			GzipMiddleware(handler).ServeHTTP(rw, req)

			if rw.Code != tt.want.status {
				t.Fatalf("status = %d, want %d", rw.Code, tt.want.status)
			}

			var respBody []byte
			if tt.want.gzipResponse {
				if rw.Header().Get("Content-Encoding") != "gzip" {
					t.Fatal("response is not gzip encoded")
				}
				gr, err := gzip.NewReader(rw.Body)
				if err != nil {
					t.Fatalf("gzip reader: %v", err)
				}
				defer gr.Close()
				respBody, _ = io.ReadAll(gr)
			} else {
				respBody = rw.Body.Bytes()
			}

			if string(respBody) != tt.want.body {
				t.Fatalf("body = %q, want %q", respBody, tt.want.body)
			}
		})
	}
}
