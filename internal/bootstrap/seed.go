package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/akoreshkov/docfields/internal/core/domain"
	"github.com/akoreshkov/docfields/internal/core/ports"
)

type jobSeed struct {
	Title          string           `yaml:"title"`
	Description    string           `yaml:"description"`
	Prompt         string           `yaml:"prompt"`
	Fields         domain.JobSchema `yaml:"fields"`
	AssignedEmails []string         `yaml:"assigned_emails"`
	Status         string           `yaml:"status"`
}

type seedFile struct {
	Jobs []jobSeed `yaml:"jobs"`
}

// SeedJobs loads job definitions from a YAML file and upserts them by
// title, so repeated startups with the same file are idempotent.
func SeedJobs(ctx context.Context, path string, jobs ports.JobRepository, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	for _, seed := range file.Jobs {
		if err := seed.Fields.Validate(); err != nil {
			return fmt.Errorf("seed job %q: %w", seed.Title, err)
		}

		status := domain.JobStatus(seed.Status)
		if status == "" {
			status = domain.JobStatusActive
		}

		job := domain.Job{
			Title:          seed.Title,
			Description:    seed.Description,
			Prompt:         seed.Prompt,
			Schema:         seed.Fields,
			AssignedEmails: seed.AssignedEmails,
			Status:         status,
		}
		if err := jobs.UpsertByTitle(ctx, &job); err != nil {
			return fmt.Errorf("upsert seed job %q: %w", seed.Title, err)
		}
		logger.Info("job_seeded", "job_id", job.ID, "title", job.Title)
	}
	return nil
}
