package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/mdzip/internal/config"
	"github.com/gaurav-prasanna/mdzip/internal/logger"
)

const introCSV = "article_title,article_body\n" +
	"Intro,\"<h1>Hi</h1><p>Hello <a href=\"\"https://x.com\"\">world</a></p>\"\n"

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Workspace = "memory"
	return cfg
}

func newTestServer(cfg *config.Config) *Server {
	return New(cfg, logger.NewForTests())
}

func uploadRequest(t *testing.T, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleConvert(t *testing.T) {
	t.Run("Should return the archive as an attachment", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestServer(testConfig()).Handler().ServeHTTP(rec, uploadRequest(t, "articles.csv", []byte(introCSV), nil))

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, `attachment; filename="markdown_files.zip"`, rec.Header().Get("Content-Disposition"))
		assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
		assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

		zr, err := zip.NewReader(bytes.NewReader(rec.Body.Bytes()), int64(rec.Body.Len()))
		require.NoError(t, err)
		require.Len(t, zr.File, 2)
		assert.Equal(t, "Intro_1.md", zr.File[0].Name)
		assert.Equal(t, "SUMMARY.md", zr.File[1].Name)
	})

	t.Run("Should apply form overrides", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := uploadRequest(t, "articles.csv", []byte(introCSV), map[string]string{"layout": "single"})
		newTestServer(testConfig()).Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, `attachment; filename="converted.md"`, rec.Header().Get("Content-Disposition"))
		assert.True(t, strings.HasPrefix(rec.Body.String(), "# Intro\n\n"))
		assert.Contains(t, rec.Body.String(), "Hello [world](https://x.com)")
	})

	t.Run("Should reject invalid overrides", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := uploadRequest(t, "articles.csv", []byte(introCSV), map[string]string{"format": "docx"})
		newTestServer(testConfig()).Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Should map input errors to 400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := uploadRequest(t, "rows.csv", []byte("name,text\na,b\n"), nil)
		req.Header.Set(RequestIDHeader, "req-1")
		newTestServer(testConfig()).Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := errorBody(t, rec)
		assert.Contains(t, body["error"], "CSV must contain 'article_title' and 'article_body'")
		assert.Equal(t, "req-1", body["request_id"])
		assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))
	})

	t.Run("Should require a file", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newTestServer(testConfig()).Handler().ServeHTTP(rec, uploadRequest(t, "", nil, map[string]string{"layout": "flat"}))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Should reject uploads over the limit", func(t *testing.T) {
		cfg := testConfig()
		cfg.Server.MaxUploadMB = 1
		big := bytes.Repeat([]byte("a"), 2<<20)

		rec := httptest.NewRecorder()
		newTestServer(cfg).Handler().ServeHTTP(rec, uploadRequest(t, "big.csv", big, nil))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestHandlePreview(t *testing.T) {
	t.Run("Should return markdown and rendered HTML", func(t *testing.T) {
		form := strings.NewReader("html=" + "%3Ch2%3ET%3C%2Fh2%3E%3Cp%3Ex%3C%2Fp%3E")
		req := httptest.NewRequest(http.MethodPost, "/preview", form)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		newTestServer(testConfig()).Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got previewResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "## Tx\n\n", got.Markdown)
		assert.Contains(t, got.HTML, `<h2 id="tx">Tx</h2>`)
	})

	t.Run("Should reject an empty field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/preview", strings.NewReader("html=+"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		newTestServer(testConfig()).Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Should reject an unknown engine", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/preview", strings.NewReader("html=%3Cp%3Ex%3C%2Fp%3E&engine=regex"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		newTestServer(testConfig()).Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestIndexAndHealth(t *testing.T) {
	s := newTestServer(testConfig())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<form action="/convert"`)
	assert.Contains(t, rec.Body.String(), `<option value="sections" selected>`)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- newTestServer(testConfig()).Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestApplyFlag(t *testing.T) {
	v := false
	applyFlag(&v, "on")
	assert.True(t, v)
	applyFlag(&v, "")
	assert.True(t, v)
	applyFlag(&v, "false")
	assert.False(t, v)
}
