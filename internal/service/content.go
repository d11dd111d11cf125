package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/secondbrain/internal/model"
	"github.com/templui/secondbrain/internal/repository"
	"github.com/templui/secondbrain/internal/validation"
)

const maxPage = 1_000_000

type CreateContentInput struct {
	Type  model.ContentType
	Link  *string
	Title string
	Tags  []string
}

// UpdateContentInput carries a partial update. Nil fields are left unchanged;
// an empty Link clears the link.
type UpdateContentInput struct {
	Type   *model.ContentType
	Link   *string
	Title  *string
	Tags   *[]string
	Shared *bool
}

type ListContentInput struct {
	Scope  model.ContentScope
	Type   model.ContentType
	Tags   []string
	Shared *bool
	Page   int
}

type accessMode int

const (
	accessRead accessMode = iota
	accessWrite
)

// ContentService is the single entry point for content reads and writes.
// Every operation resolves the caller's access before touching data:
// owners may do anything, other users may only read shared items.
type ContentService struct {
	contentRepository repository.ContentRepository
	tagService        *TagService
	fileService       *FileService
	pageSize          int
	now               func() time.Time
}

func NewContentService(contentRepository repository.ContentRepository, tagService *TagService, fileService *FileService, pageSize int) *ContentService {
	return &ContentService{
		contentRepository: contentRepository,
		tagService:        tagService,
		fileService:       fileService,
		pageSize:          pageSize,
		now:               time.Now,
	}
}

func (s *ContentService) Create(ctx context.Context, ownerID string, in CreateContentInput) (*model.Content, error) {
	title := strings.TrimSpace(in.Title)
	link := trimmed(in.Link)

	err := validateContent(in.Type, link, title)
	if err != nil {
		return nil, err
	}

	err = validation.ValidateTagCount(in.Tags)
	if err != nil {
		return nil, invalid("tags", err)
	}

	tags, err := s.tagService.Resolve(ctx, in.Tags)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	content := &model.Content{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Type:      in.Type,
		Link:      optional(link),
		Title:     title,
		Shared:    false,
		CreatedAt: now,
		UpdatedAt: now,
		Tags:      tags,
	}

	err = s.contentRepository.Create(ctx, content, tagIDs(tags))
	if err != nil {
		return nil, fmt.Errorf("failed to create content: %w", err)
	}

	return content, nil
}

// List returns one page of content visible to viewerID.
func (s *ContentService) List(ctx context.Context, viewerID string, in ListContentInput) (*model.ContentPage, error) {
	scope := in.Scope
	if scope == "" {
		scope = model.ScopeAll
	}
	if !scope.Valid() {
		return nil, &ValidationError{Field: "scope", Message: "scope must be one of all, mine, discover"}
	}

	if in.Type != "" {
		err := validation.ValidateContentType(in.Type)
		if err != nil {
			return nil, invalid("type", err)
		}
	}

	page := in.Page
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		return nil, &ValidationError{Field: "page", Message: "page is out of range"}
	}

	items, total, err := s.contentRepository.List(ctx, repository.ContentFilter{
		ViewerID: viewerID,
		Scope:    scope,
		Type:     in.Type,
		TagNames: NormalizeTags(in.Tags),
		Shared:   in.Shared,
		Limit:    s.pageSize,
		Offset:   (page - 1) * s.pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}

	return &model.ContentPage{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: s.pageSize,
		Pages:    (total + s.pageSize - 1) / s.pageSize,
	}, nil
}

func (s *ContentService) ByID(ctx context.Context, viewerID, id string) (*model.Content, error) {
	return s.load(ctx, viewerID, id, accessRead)
}

func (s *ContentService) Update(ctx context.Context, viewerID, id string, in UpdateContentInput) (*model.Content, error) {
	content, err := s.load(ctx, viewerID, id, accessWrite)
	if err != nil {
		return nil, err
	}

	merged := *content
	if in.Type != nil {
		merged.Type = *in.Type
	}
	if in.Link != nil {
		merged.Link = optional(strings.TrimSpace(*in.Link))
	}
	if in.Title != nil {
		merged.Title = strings.TrimSpace(*in.Title)
	}
	if in.Shared != nil {
		merged.Shared = *in.Shared
	}

	if in.Type != nil || in.Link != nil || in.Title != nil {
		err = validateContent(merged.Type, trimmed(merged.Link), merged.Title)
		if err != nil {
			return nil, err
		}
	}

	var ids []string
	replaceTags := in.Tags != nil
	if replaceTags {
		err = validation.ValidateTagCount(*in.Tags)
		if err != nil {
			return nil, invalid("tags", err)
		}

		tags, err := s.tagService.Resolve(ctx, *in.Tags)
		if err != nil {
			return nil, err
		}
		merged.Tags = tags
		ids = tagIDs(tags)
	}

	merged.UpdatedAt = s.now().UTC()

	err = s.contentRepository.Update(ctx, &merged, ids, replaceTags)
	if err != nil {
		if errors.Is(err, repository.ErrContentNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update content: %w", err)
	}

	if content.Type == model.ContentTypeDocument && merged.Type != model.ContentTypeDocument {
		s.dropAttachments(ctx, merged.ID)
	}

	return &merged, nil
}

func (s *ContentService) Delete(ctx context.Context, viewerID, id string) error {
	content, err := s.load(ctx, viewerID, id, accessWrite)
	if err != nil {
		return err
	}

	s.dropAttachments(ctx, content.ID)

	err = s.contentRepository.Delete(ctx, content.ID)
	if err != nil {
		if errors.Is(err, repository.ErrContentNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete content: %w", err)
	}

	return nil
}

// SetShared flips visibility. Only the shared flag changes.
func (s *ContentService) SetShared(ctx context.Context, viewerID, id string, shared bool) (*model.Content, error) {
	content, err := s.load(ctx, viewerID, id, accessWrite)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	err = s.contentRepository.SetShared(ctx, content.ID, shared, now)
	if err != nil {
		if errors.Is(err, repository.ErrContentNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update sharing: %w", err)
	}

	content.Shared = shared
	content.UpdatedAt = now
	return content, nil
}

// AttachDocument uploads a PDF for document content, replacing any previous one.
func (s *ContentService) AttachDocument(ctx context.Context, viewerID, id string, file multipart.File, header *multipart.FileHeader) (*model.File, error) {
	if !s.fileService.Enabled() {
		return nil, ErrStorageDisabled
	}

	content, err := s.load(ctx, viewerID, id, accessWrite)
	if err != nil {
		return nil, err
	}

	if content.Type != model.ContentTypeDocument {
		return nil, &ValidationError{Field: "type", Message: "only document content can carry an attachment"}
	}

	err = validation.ValidateFile(header, validation.DocumentConstraints)
	if err != nil {
		return nil, invalid("file", err)
	}

	previous, err := s.fileService.Document(ctx, model.FileOwnerContent, content.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	uploaded, err := s.fileService.Upload(ctx, viewerID, model.FileOwnerContent, content.ID, model.FileTypeDocument, file, header)
	if err != nil {
		return nil, err
	}

	if previous != nil {
		err = s.fileService.Delete(ctx, previous)
		if err != nil {
			slog.Warn("failed to delete replaced document", "error", err, "file_id", previous.ID)
		}
	}

	return uploaded, nil
}

// DocumentURL returns a short-lived download URL for the attachment.
func (s *ContentService) DocumentURL(ctx context.Context, viewerID, id string) (string, error) {
	if !s.fileService.Enabled() {
		return "", ErrStorageDisabled
	}

	content, err := s.load(ctx, viewerID, id, accessRead)
	if err != nil {
		return "", err
	}

	file, err := s.fileService.Document(ctx, model.FileOwnerContent, content.ID)
	if err != nil {
		return "", err
	}

	url, err := s.fileService.URL(ctx, file)
	if err != nil {
		return "", fmt.Errorf("failed to sign document url: %w", err)
	}
	return url, nil
}

// load fetches content and checks the viewer's access before anything else happens.
func (s *ContentService) load(ctx context.Context, viewerID, id string, mode accessMode) (*model.Content, error) {
	content, err := s.contentRepository.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrContentNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get content: %w", err)
	}

	switch mode {
	case accessWrite:
		if !content.OwnedBy(viewerID) {
			return nil, ErrAccessDenied
		}
	default:
		if !content.VisibleTo(viewerID) {
			return nil, ErrAccessDenied
		}
	}

	return content, nil
}

func (s *ContentService) dropAttachments(ctx context.Context, contentID string) {
	err := s.fileService.DeleteOwnerFiles(ctx, model.FileOwnerContent, contentID)
	if err != nil {
		slog.Warn("failed to delete content attachments", "error", err, "content_id", contentID)
	}
}

func validateContent(t model.ContentType, link, title string) error {
	err := validation.ValidateContentType(t)
	if err != nil {
		return invalid("type", err)
	}

	err = validation.ValidateTitle(title)
	if err != nil {
		return invalid("title", err)
	}

	err = validation.ValidateLink(t, link)
	if err != nil {
		return invalid("link", err)
	}

	return nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
