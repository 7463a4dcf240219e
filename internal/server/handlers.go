package server

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	javaprint "github.com/alnah/go-javaprint"
	"github.com/alnah/go-javaprint/internal/archive"
	"github.com/alnah/go-javaprint/internal/jobs"
)

// Multipart field names.
const (
	fieldZip      = "zip"
	fieldSettings = "settings"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"jobs":   s.manager.Stats(),
	})
}

func (s *Server) handleOptions(c *fiber.Ctx) error {
	return c.JSON(s.catalog)
}

// handleRender renders synchronously and answers with the artifact.
func (s *Server) handleRender(c *fiber.Ctx) error {
	release, err := s.manager.BeginDirect()
	if err != nil {
		return err
	}
	defer release()

	work, err := s.readUpload(c)
	if err != nil {
		return err
	}
	defer func() {
		if err := work.Upload.Cleanup(); err != nil {
			s.logger.Printf("removing upload %s: %v", work.Upload.TempDir, err)
		}
	}()

	art, err := s.run(c.UserContext(), work, nil)
	if err != nil {
		return err
	}
	return sendArtifact(c, art)
}

// handleStart queues a job and answers 202 with its id.
func (s *Server) handleStart(c *fiber.Ctx) error {
	work, err := s.readUpload(c)
	if err != nil {
		return err
	}
	info, err := s.manager.Submit(work)
	if err != nil {
		return err
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"jobId": info.ID})
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	info, err := s.manager.Get(c.Params("jobId"))
	if err != nil {
		return err
	}
	return c.JSON(info)
}

func (s *Server) handleDownload(c *fiber.Ctx) error {
	art, err := s.manager.Download(c.Params("jobId"))
	if err != nil {
		return err
	}
	return sendArtifact(c, art)
}

// requireJob answers 404 before a websocket upgrade for unknown jobs.
func (s *Server) requireJob(c *fiber.Ctx) error {
	if _, err := s.manager.Get(c.Params("jobId")); err != nil {
		return err
	}
	return c.Next()
}

// readUpload saves the single zip part to a temp directory and parses the
// settings part. The caller owns the returned upload.
func (s *Server) readUpload(c *fiber.Ctx) (jobs.Work, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return jobs.Work{}, javaprint.NewUserError(http.StatusBadRequest, msgZipRequired)
	}
	files := form.File[fieldZip]
	switch {
	case len(files) == 0:
		return jobs.Work{}, javaprint.NewUserError(http.StatusBadRequest, msgZipRequired)
	case len(files) > 1:
		return jobs.Work{}, javaprint.NewUserError(http.StatusBadRequest, msgOneZip)
	}

	var payload string
	if values := form.Value[fieldSettings]; len(values) > 0 {
		payload = values[0]
	}

	f, err := files[0].Open()
	if err != nil {
		return jobs.Work{}, fmt.Errorf("opening upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	upload, err := archive.Save(f, files[0].Filename, s.limits, s.prefix)
	if err != nil {
		return jobs.Work{}, err
	}
	return jobs.Work{Upload: upload, Settings: javaprint.ParseSettings(payload)}, nil
}

func sendArtifact(c *fiber.Ctx, art *javaprint.Artifact) error {
	c.Set(fiber.HeaderContentType, art.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, art.Filename))
	return c.Send(art.Data)
}
