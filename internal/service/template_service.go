package service

import (
	"context"
	"fmt"
	"time"

	"github.com/stagepass/stagepass/internal/domain"
	"github.com/stagepass/stagepass/pkg/emailbuilder"
	"github.com/stagepass/stagepass/pkg/logger"
	"github.com/stagepass/stagepass/pkg/mailer"
)

type TemplateService struct {
	repo   domain.TemplateRepository
	mailer mailer.Mailer
	logger logger.Logger
}

func NewTemplateService(repo domain.TemplateRepository, mailer mailer.Mailer, logger logger.Logger) *TemplateService {
	return &TemplateService{
		repo:   repo,
		mailer: mailer,
		logger: logger,
	}
}

func (s *TemplateService) CreateTemplate(ctx context.Context, organizationID string, template *domain.Template) error {
	// Set initial version and timestamps
	template.Version = 1
	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now

	// Validate template after setting required fields
	if err := template.Validate(); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}

	// The stored HTML is always derived from the document, never client-supplied
	template.Email.Compile()

	if err := s.repo.CreateTemplate(ctx, organizationID, template); err != nil {
		s.logger.WithField("template_id", template.ID).Error(fmt.Sprintf("Failed to create template: %v", err))
		return fmt.Errorf("failed to create template: %w", err)
	}

	return nil
}

func (s *TemplateService) GetTemplateByID(ctx context.Context, organizationID string, id string, version int64) (*domain.Template, error) {
	template, err := s.repo.GetTemplateByID(ctx, organizationID, id, version)
	if err != nil {
		if _, ok := err.(*domain.ErrTemplateNotFound); ok {
			return nil, err
		}
		s.logger.WithField("template_id", id).Error(fmt.Sprintf("Failed to get template: %v", err))
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	return template, nil
}

func (s *TemplateService) GetTemplates(ctx context.Context, organizationID string, category string) ([]*domain.Template, error) {
	templates, err := s.repo.GetTemplates(ctx, organizationID, category)
	if err != nil {
		s.logger.Error(fmt.Sprintf("Failed to get templates: %v", err))
		return nil, fmt.Errorf("failed to get templates: %w", err)
	}

	return templates, nil
}

func (s *TemplateService) UpdateTemplate(ctx context.Context, organizationID string, template *domain.Template) error {
	// The existing template must still be live
	existing, err := s.repo.GetTemplateByID(ctx, organizationID, template.ID, 0)
	if err != nil {
		return err
	}

	// Versioning is repository-owned; validate against the next version
	template.Version = existing.Version + 1
	template.CreatedAt = existing.CreatedAt
	template.UpdatedAt = time.Now().UTC()

	if err := template.Validate(); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}

	template.Email.Compile()

	if err := s.repo.UpdateTemplate(ctx, organizationID, template); err != nil {
		s.logger.WithField("template_id", template.ID).Error(fmt.Sprintf("Failed to update template: %v", err))
		return fmt.Errorf("failed to update template: %w", err)
	}

	return nil
}

func (s *TemplateService) DeleteTemplate(ctx context.Context, organizationID string, id string) error {
	if err := s.repo.DeleteTemplate(ctx, organizationID, id); err != nil {
		if _, ok := err.(*domain.ErrTemplateNotFound); ok {
			return err
		}
		s.logger.WithField("template_id", id).Error(fmt.Sprintf("Failed to delete template: %v", err))
		return fmt.Errorf("failed to delete template: %w", err)
	}

	return nil
}

func (s *TemplateService) CompileTemplate(ctx context.Context, payload domain.CompileTemplateRequest) (*domain.CompileTemplateResponse, error) {
	if err := payload.Document.Validate(); err != nil {
		return nil, fmt.Errorf("invalid document: %w", err)
	}

	return &domain.CompileTemplateResponse{
		HTML: emailbuilder.RenderDocument(payload.Document),
	}, nil
}

func (s *TemplateService) TestSend(ctx context.Context, req domain.TestSendRequest) error {
	template, err := s.GetTemplateByID(ctx, req.OrganizationID, req.ID, req.Version)
	if err != nil {
		return err
	}

	// Recompile so a stale stored cache never reaches a real inbox
	template.Email.Compile()

	subject := fmt.Sprintf("[TEST] %s", template.Email.Subject)
	if err := s.mailer.SendTemplateTest(ctx, req.To, subject, template.Email.CompiledHTML); err != nil {
		s.logger.WithField("template_id", req.ID).Error(fmt.Sprintf("Failed to send test email: %v", err))
		return fmt.Errorf("failed to send test email: %w", err)
	}

	return nil
}
