package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/templui/secondbrain/internal/model"
	"github.com/templui/secondbrain/internal/repository"
	"github.com/templui/secondbrain/internal/validation"
)

// TagService maps free-text tag names onto the shared tag vocabulary.
type TagService struct {
	tagRepository repository.TagRepository
}

func NewTagService(tagRepository repository.TagRepository) *TagService {
	return &TagService{tagRepository: tagRepository}
}

// NormalizeTags trims names, drops empties and removes exact duplicates,
// keeping first-seen order. Matching is case-sensitive.
func NormalizeTags(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	names := make([]string, 0, len(raw))
	for _, name := range raw {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// Resolve returns one tag per distinct name, creating tags that do not exist yet.
func (s *TagService) Resolve(ctx context.Context, raw []string) ([]model.Tag, error) {
	names := NormalizeTags(raw)
	if len(names) > validation.MaxTags {
		return nil, ErrTooManyTags
	}

	tags := make([]model.Tag, 0, len(names))
	for _, name := range names {
		tag, err := s.findOrCreate(ctx, name)
		if err != nil {
			return nil, err
		}
		tags = append(tags, *tag)
	}

	return tags, nil
}

func (s *TagService) findOrCreate(ctx context.Context, name string) (*model.Tag, error) {
	tag, err := s.tagRepository.ByName(ctx, name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, repository.ErrTagNotFound) {
		return nil, fmt.Errorf("failed to look up tag %q: %w", name, err)
	}

	tag = &model.Tag{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	err = s.tagRepository.Create(ctx, tag)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, repository.ErrDuplicateTag) {
		return nil, fmt.Errorf("failed to create tag %q: %w", name, err)
	}

	// A concurrent request created it first
	tag, err = s.tagRepository.ByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to re-fetch tag %q: %w", name, err)
	}
	return tag, nil
}

func tagIDs(tags []model.Tag) []string {
	ids := make([]string, len(tags))
	for i, t := range tags {
		ids[i] = t.ID
	}
	return ids
}
