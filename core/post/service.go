package post

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shulesite/core"
)

type (
	Repository interface {
		CheckSlugUniqueness(ctx context.Context, slug string, excludedIDs []string, exec ...core.DBExecutor) error
		CreatePost(ctx context.Context, pst Post, exec ...core.DBExecutor) (Post, error)
		// FilterPosts returns the page of posts plus the unpaginated total.
		FilterPosts(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Post, int, error)
		GetPostByID(ctx context.Context, id string, exec ...core.DBExecutor) (Post, error)
		GetPostBySlug(ctx context.Context, slug string, exec ...core.DBExecutor) (Post, error)
		UpdatePost(ctx context.Context, pst Post, exec ...core.DBExecutor) (Post, error)
		DeletePost(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) checkSlug(ctx context.Context, slug string, exclIDs ...string) error {
	if err := svc.repo.CheckSlugUniqueness(ctx, slug, exclIDs); err != nil {
		if errors.Cause(err) == ErrSlugExists {
			return core.NewValidationError(err, core.FieldError{Field: "slug", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, np NewPost) (Post, error) {
	if err := svc.checkSlug(ctx, np.Slug); err != nil {
		return Post{}, err
	}

	now := time.Now().UTC()
	pst := Post{
		Title:           np.Title,
		Slug:            np.Slug,
		Body:            np.Body,
		Excerpt:         np.Excerpt,
		CoverImageURL:   np.CoverImageURL,
		MetaTitle:       np.MetaTitle,
		MetaDescription: np.MetaDescription,
		Published:       np.Published,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if np.Published {
		pst.PublishedAt = &now
	}
	return svc.repo.CreatePost(ctx, pst)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Post, int, error) {
	filter.Clean()
	return svc.repo.FilterPosts(ctx, filter)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Post, error) {
	return svc.repo.GetPostByID(ctx, id)
}

func (svc *Service) GetBySlug(ctx context.Context, slug string) (Post, error) {
	return svc.repo.GetPostBySlug(ctx, core.CleanString(slug, true /* lower */))
}

func (svc *Service) Update(ctx context.Context, id string, up UpdatePost) (Post, error) {
	pst, err := svc.repo.GetPostByID(ctx, id)
	if err != nil {
		return Post{}, err
	}

	if up.Title != "" {
		pst.Title = up.Title
	}
	if up.Slug != "" && up.Slug != pst.Slug {
		if err = svc.checkSlug(ctx, up.Slug, pst.ID); err != nil {
			return Post{}, err
		}
		pst.Slug = up.Slug
	}
	if up.Body != "" {
		pst.Body = up.Body
	}
	if up.Excerpt != nil {
		pst.Excerpt = *up.Excerpt
	}
	if up.CoverImageURL != nil {
		pst.CoverImageURL = *up.CoverImageURL
	}
	if up.MetaTitle != nil {
		pst.MetaTitle = *up.MetaTitle
	}
	if up.MetaDescription != nil {
		pst.MetaDescription = *up.MetaDescription
	}
	pst.UpdatedAt = time.Now().UTC()

	return svc.repo.UpdatePost(ctx, pst)
}

func (svc *Service) SetPublished(ctx context.Context, id string, published bool) (Post, error) {
	pst, err := svc.repo.GetPostByID(ctx, id)
	if err != nil {
		return Post{}, err
	}

	now := time.Now().UTC()
	pst.Published = published
	if published && pst.PublishedAt == nil {
		pst.PublishedAt = &now
	}
	pst.UpdatedAt = now

	return svc.repo.UpdatePost(ctx, pst)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeletePost(ctx, id)
}
