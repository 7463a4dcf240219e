package server

import (
	"context"

	javaprint "github.com/alnah/go-javaprint"
	"github.com/alnah/go-javaprint/internal/archive"
	"github.com/alnah/go-javaprint/internal/jobs"
)

// NewRunner reads the projects of an upload and renders them through p.
// Progress starts at 0 of the selected file count before the first render.
func NewRunner(p *javaprint.Pipeline, limits archive.Limits) jobs.Runner {
	return func(ctx context.Context, w jobs.Work, progress javaprint.ProgressFunc) (*javaprint.Artifact, error) {
		settings := w.Settings
		if settings == nil {
			settings = javaprint.DefaultSettings()
		}
		projects, err := archive.ReadProjects(w.Upload.ZipPath, limits, settings.ProjectLevel, settings.IncludedFiles)
		if err != nil {
			return nil, err
		}
		if progress != nil {
			total := 0
			for _, proj := range projects {
				total += len(proj.Files)
			}
			progress(0, total)
		}
		return p.Run(ctx, projects, settings, w.Upload.OriginalName, progress)
	}
}
