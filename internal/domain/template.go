package domain

import (
	"bytes"
	"context"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/asaskevich/govalidator"

	"github.com/stagepass/stagepass/pkg/emailbuilder"
)

type TemplateCategory string

const (
	TemplateCategoryTicketing  TemplateCategory = "ticketing"
	TemplateCategoryMembership TemplateCategory = "membership"
	TemplateCategoryEvent      TemplateCategory = "event"
	TemplateCategoryDonation   TemplateCategory = "donation"
	TemplateCategoryNewsletter TemplateCategory = "newsletter"
	TemplateCategorySystem     TemplateCategory = "system"
	TemplateCategoryOther      TemplateCategory = "other"
)

func (t TemplateCategory) Validate() error {
	switch t {
	case TemplateCategoryTicketing, TemplateCategoryMembership, TemplateCategoryEvent,
		TemplateCategoryDonation, TemplateCategoryNewsletter, TemplateCategorySystem,
		TemplateCategoryOther:
		return nil
	}
	return fmt.Errorf("invalid template category: %s", t)
}

// Template is one email template owned by an organization. Updates create a
// new version row; the repository keeps the full version history.
type Template struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Version   int64          `json:"version"`
	Category  string         `json:"category"`
	Email     *EmailTemplate `json:"email"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt *time.Time     `json:"deleted_at,omitempty"`
}

func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("invalid template: id is required")
	}
	if len(t.ID) > 32 {
		return fmt.Errorf("invalid template: id length must be between 1 and 32")
	}

	if t.Name == "" {
		return fmt.Errorf("invalid template: name is required")
	}
	if len(t.Name) > 32 {
		return fmt.Errorf("invalid template: name length must be between 1 and 32")
	}

	if t.Version <= 0 {
		return fmt.Errorf("invalid template: version must be positive")
	}

	if t.Category == "" {
		return fmt.Errorf("invalid template: category is required")
	}
	if err := TemplateCategory(t.Category).Validate(); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}

	if t.Email == nil {
		return fmt.Errorf("invalid template: email is required")
	}
	if err := t.Email.Validate(); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}

	return nil
}

// EmailTemplate is the email payload of a template: the editable block
// document plus the compiled HTML cache derived from it. CompiledHTML is
// recomputed on every save and never hand-edited.
type EmailTemplate struct {
	Subject      string                `json:"subject"`
	ReplyTo      string                `json:"reply_to,omitempty"`
	Document     emailbuilder.Document `json:"document"`
	CompiledHTML string                `json:"compiled_html"`
}

func (e *EmailTemplate) Validate() error {
	if e.Subject == "" {
		return fmt.Errorf("invalid email template: subject is required")
	}
	if len(e.Subject) > 255 {
		return fmt.Errorf("invalid email template: subject length must be between 1 and 255")
	}
	if e.ReplyTo != "" && !govalidator.IsEmail(e.ReplyTo) {
		return fmt.Errorf("invalid email template: reply_to is not a valid email")
	}
	if err := e.Document.Validate(); err != nil {
		return fmt.Errorf("invalid email template: %w", err)
	}

	if e.CompiledHTML == "" {
		e.CompiledHTML = emailbuilder.RenderDocument(e.Document)
	}

	return nil
}

// Compile recomputes the rendered-HTML cache from the block document.
func (e *EmailTemplate) Compile() {
	e.CompiledHTML = emailbuilder.RenderDocument(e.Document)
}

func (e *EmailTemplate) Scan(val interface{}) error {
	var data []byte

	if b, ok := val.([]byte); ok {
		// VERY IMPORTANT: we need to clone the bytes here
		// The sql driver will reuse the same bytes RAM slots for future queries
		data = bytes.Clone(b)
	} else if s, ok := val.(string); ok {
		data = []byte(s)
	} else if val == nil {
		return nil
	}

	return json.Unmarshal(data, e)
}

func (e EmailTemplate) Value() (driver.Value, error) {
	return json.Marshal(e)
}

// Request/Response types

type CreateTemplateRequest struct {
	OrganizationID string         `json:"organization_id"`
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Category       string         `json:"category"`
	Email          *EmailTemplate `json:"email"`
}

func (r *CreateTemplateRequest) Validate() (template *Template, organizationID string, err error) {
	if r.OrganizationID == "" {
		return nil, "", fmt.Errorf("invalid create template request: organization_id is required")
	}

	template = &Template{
		ID:       r.ID,
		Name:     r.Name,
		Version:  1, // Start with version 1 for new templates
		Category: r.Category,
		Email:    r.Email,
	}
	if err := template.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid create template request: %w", err)
	}

	return template, r.OrganizationID, nil
}

type UpdateTemplateRequest struct {
	OrganizationID string         `json:"organization_id"`
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Category       string         `json:"category"`
	Email          *EmailTemplate `json:"email"`
}

func (r *UpdateTemplateRequest) Validate() (template *Template, organizationID string, err error) {
	if r.OrganizationID == "" {
		return nil, "", fmt.Errorf("invalid update template request: organization_id is required")
	}
	if r.ID == "" {
		return nil, "", fmt.Errorf("invalid update template request: id is required")
	}

	return &Template{
		ID:       r.ID,
		Name:     r.Name,
		Category: r.Category,
		Email:    r.Email,
	}, r.OrganizationID, nil
}

type GetTemplatesRequest struct {
	OrganizationID string `json:"organization_id"`
	Category       string `json:"category,omitempty"`
}

func (r *GetTemplatesRequest) FromURLParams(queryParams url.Values) (err error) {
	r.OrganizationID = queryParams.Get("organization_id")
	r.Category = queryParams.Get("category")

	if r.OrganizationID == "" {
		return fmt.Errorf("invalid get templates request: organization_id is required")
	}
	if r.Category != "" {
		if err := TemplateCategory(r.Category).Validate(); err != nil {
			return fmt.Errorf("invalid get templates request: %w", err)
		}
	}

	return nil
}

type GetTemplateRequest struct {
	OrganizationID string `json:"organization_id"`
	ID             string `json:"id"`
	Version        int64  `json:"version,omitempty"`
}

func (r *GetTemplateRequest) FromURLParams(queryParams url.Values) (err error) {
	r.OrganizationID = queryParams.Get("organization_id")
	r.ID = queryParams.Get("id")
	versionStr := queryParams.Get("version")

	if r.OrganizationID == "" {
		return fmt.Errorf("invalid get template request: organization_id is required")
	}
	if r.ID == "" {
		return fmt.Errorf("invalid get template request: id is required")
	}

	if versionStr != "" {
		version, err := strconv.ParseInt(versionStr, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid get template request: version must be a valid integer")
		}
		r.Version = version
	}

	return nil
}

type DeleteTemplateRequest struct {
	OrganizationID string `json:"organization_id"`
	ID             string `json:"id"`
}

func (r *DeleteTemplateRequest) Validate() (organizationID string, id string, err error) {
	if r.OrganizationID == "" {
		return "", "", fmt.Errorf("invalid delete template request: organization_id is required")
	}
	if r.ID == "" {
		return "", "", fmt.Errorf("invalid delete template request: id is required")
	}

	return r.OrganizationID, r.ID, nil
}

// CompileTemplateRequest asks for an editor document to be compiled without
// saving it; the editor preview surface calls this on every change.
type CompileTemplateRequest struct {
	Document emailbuilder.Document `json:"document"`
}

type CompileTemplateResponse struct {
	HTML string `json:"html"`
}

// TestSendRequest sends a saved template to a single recipient. Merge tokens
// are left verbatim; resolution happens in the real send pipeline.
type TestSendRequest struct {
	OrganizationID string `json:"organization_id"`
	ID             string `json:"id"`
	Version        int64  `json:"version,omitempty"`
	To             string `json:"to"`
}

func (r *TestSendRequest) Validate() error {
	if r.OrganizationID == "" {
		return fmt.Errorf("invalid test send request: organization_id is required")
	}
	if r.ID == "" {
		return fmt.Errorf("invalid test send request: id is required")
	}
	if r.To == "" {
		return fmt.Errorf("invalid test send request: to is required")
	}
	if !govalidator.IsEmail(r.To) {
		return fmt.Errorf("invalid test send request: to is not a valid email")
	}
	return nil
}

// TemplateService provides operations for managing templates
type TemplateService interface {
	// CreateTemplate creates a new template
	CreateTemplate(ctx context.Context, organizationID string, template *Template) error

	// GetTemplateByID retrieves a template by ID and optional version
	GetTemplateByID(ctx context.Context, organizationID string, id string, version int64) (*Template, error)

	// GetTemplates retrieves the latest version of every template
	GetTemplates(ctx context.Context, organizationID string, category string) ([]*Template, error)

	// UpdateTemplate updates an existing template, creating a new version
	UpdateTemplate(ctx context.Context, organizationID string, template *Template) error

	// DeleteTemplate deletes a template by ID
	DeleteTemplate(ctx context.Context, organizationID string, id string) error

	// CompileTemplate compiles an editor document to HTML without saving
	CompileTemplate(ctx context.Context, payload CompileTemplateRequest) (*CompileTemplateResponse, error)

	// TestSend compiles a saved template and emails it to one recipient
	TestSend(ctx context.Context, req TestSendRequest) error
}

// TemplateRepository provides database operations for templates
type TemplateRepository interface {
	// CreateTemplate creates a new template in the database
	CreateTemplate(ctx context.Context, organizationID string, template *Template) error

	// GetTemplateByID retrieves a template by its ID and optional version
	GetTemplateByID(ctx context.Context, organizationID string, id string, version int64) (*Template, error)

	// GetTemplateLatestVersion retrieves the latest version of a template
	GetTemplateLatestVersion(ctx context.Context, organizationID string, id string) (int64, error)

	// GetTemplates retrieves the latest version of every template
	GetTemplates(ctx context.Context, organizationID string, category string) ([]*Template, error)

	// UpdateTemplate updates an existing template, creating a new version
	UpdateTemplate(ctx context.Context, organizationID string, template *Template) error

	// DeleteTemplate soft-deletes all versions of a template
	DeleteTemplate(ctx context.Context, organizationID string, id string) error
}

// ErrTemplateNotFound is returned when a template is not found
type ErrTemplateNotFound struct {
	Message string
}

func (e *ErrTemplateNotFound) Error() string {
	return e.Message
}
