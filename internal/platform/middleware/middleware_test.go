package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"
)

type MiddlewareSuite struct {
	suite.Suite
}

func TestMiddlewareSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareSuite))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func (s *MiddlewareSuite) TestContentTypeJSON() {
	handler := ContentTypeJSON(okHandler())

	cases := []struct {
		name        string
		method      string
		contentType string
		wantStatus  int
	}{
		{"post with json accepted", http.MethodPost, "application/json", http.StatusOK},
		{"post with charset accepted", http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{"post without content type accepted", http.MethodPost, "", http.StatusOK},
		{"post with other type rejected", http.MethodPost, "text/plain", http.StatusUnsupportedMediaType},
		{"get passes through regardless", http.MethodGet, "text/plain", http.StatusOK},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			req := httptest.NewRequest(tc.method, "/auth/signin", strings.NewReader("{}"))
			if tc.contentType != "" {
				req.Header.Set("Content-Type", tc.contentType)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)
			s.Equal(tc.wantStatus, rec.Code)
			if tc.wantStatus == http.StatusUnsupportedMediaType {
				s.Contains(rec.Body.String(), "invalid_content_type")
			}
		})
	}
}

func (s *MiddlewareSuite) TestRequestID() {
	s.Run("client request id is propagated", func() {
		var seen string
		handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("X-Request-ID", "req-42")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		s.Equal("req-42", seen)
		s.Equal("req-42", rec.Header().Get("X-Request-ID"))
	})

	s.Run("missing request id is minted", func() {
		handler := RequestID(okHandler())

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		s.NotEmpty(rec.Header().Get("X-Request-ID"))
	})
}
