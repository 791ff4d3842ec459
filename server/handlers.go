package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gaurav-prasanna/mdzip/core"
	"github.com/gaurav-prasanna/mdzip/core/normalize"
	"github.com/gaurav-prasanna/mdzip/core/pipeline"
	"github.com/gaurav-prasanna/mdzip/core/render"
	"github.com/gaurav-prasanna/mdzip/internal/config"
	"github.com/gaurav-prasanna/mdzip/internal/logger"
)

// convertForm holds the optional per-request overrides of the upload form.
// Checkbox fields arrive as "on" when ticked.
type convertForm struct {
	Layout          string `form:"layout"`
	Format          string `form:"format"`
	Engine          string `form:"engine"`
	Summary         string `form:"summary"`
	Dedupe          string `form:"dedupe"`
	ExtractMain     string `form:"extract_main"`
	LenientCallouts string `form:"lenient_callouts"`
}

// apply copies the non-empty overrides onto cfg.
func (f convertForm) apply(cfg *config.Config) {
	if f.Layout != "" {
		cfg.Layout = f.Layout
	}
	if f.Format != "" {
		cfg.Format = f.Format
	}
	if f.Engine != "" {
		cfg.Engine = f.Engine
	}
	applyFlag(&cfg.Summary, f.Summary)
	applyFlag(&cfg.Dedupe, f.Dedupe)
	applyFlag(&cfg.ExtractMain, f.ExtractMain)
	applyFlag(&cfg.LenientCallouts, f.LenientCallouts)
}

func applyFlag(dst *bool, v string) {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		*dst = true
	case "off", "false", "0", "no":
		*dst = false
	}
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index", gin.H{
		"Layout": s.cfg.Layout,
		"Format": s.cfg.Format,
		"Engine": s.cfg.Engine,
		"MaxMB":  s.cfg.Server.MaxUploadMB,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConvert(c *gin.Context) {
	limit := s.cfg.MaxUploadBytes()
	if c.Request.ContentLength > limit {
		s.fail(c, fmt.Errorf("%w: limit is %d bytes", errTooLarge, limit))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	var form convertForm
	if err := c.ShouldBind(&form); err != nil {
		s.fail(c, uploadError(err))
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		s.fail(c, uploadError(err))
		return
	}
	f, err := header.Open()
	if err != nil {
		s.fail(c, fmt.Errorf("opening upload: %w", err))
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		s.fail(c, fmt.Errorf("reading upload: %w", err))
		return
	}

	reqCfg := *s.cfg
	form.apply(&reqCfg)
	if err := config.Validate(&reqCfg); err != nil {
		s.fail(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	log := logger.FromContext(c.Request.Context())
	p, err := pipeline.NewFromConfig(&reqCfg, log)
	if err != nil {
		s.fail(c, err)
		return
	}
	res, err := p.Run(c.Request.Context(), header.Filename, data)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Name))
	c.Data(http.StatusOK, res.ContentType, res.Data)
}

type previewResponse struct {
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

func (s *Server) handlePreview(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadBytes())

	input := c.PostForm("html")
	if strings.TrimSpace(input) == "" {
		s.fail(c, fmt.Errorf("%w: form field 'html' is required", core.ErrEmptyInput))
		return
	}

	engine := c.DefaultPostForm("engine", s.cfg.Engine)
	n, err := normalize.New(engine, s.cfg.ImageFolder, s.cfg.LenientCallouts)
	if err != nil {
		s.fail(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	md, err := n.Normalize(input)
	if err != nil {
		s.fail(c, err)
		return
	}
	fragment, err := render.NewHTMLRenderer().Fragment(md)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, previewResponse{Markdown: md, HTML: fragment})
}

var (
	errBadRequest = errors.New("bad request")
	errTooLarge   = errors.New("upload too large")
)

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: limit is %d bytes", errTooLarge, tooLarge.Limit)
	}
	return fmt.Errorf("%w: %w", errBadRequest, err)
}

// fail maps err to a status code and writes a JSON error body.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest), core.IsInputError(err):
		status = http.StatusBadRequest
	}
	_ = c.Error(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "conversion failed"
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error":      msg,
		"request_id": c.GetString(requestIDKey),
	})
}
