package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/shulesite/core"
	"github.com/trezcool/shulesite/core/post"
)

type postRepository struct {
	db *postTable
}

var _ post.Repository = (*postRepository)(nil) // interface compliance check

func NewPostRepository(db *DB) post.Repository {
	return &postRepository{db: db.post}
}

func (repo *postRepository) query() []post.Post {
	posts := make([]post.Post, 0, len(repo.db.table))
	for _, pst := range repo.db.table {
		posts = append(posts, *pst)
	}
	// newest first, published date taking precedence over creation date
	sort.Slice(posts, func(i, j int) bool {
		ti, tj := posts[i].CreatedAt, posts[j].CreatedAt
		if posts[i].PublishedAt != nil {
			ti = *posts[i].PublishedAt
		}
		if posts[j].PublishedAt != nil {
			tj = *posts[j].PublishedAt
		}
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return posts[i].ID < posts[j].ID
	})
	return posts
}

func (repo *postRepository) CheckSlugUniqueness(_ context.Context, slug string, excludedIDs []string, _ ...core.DBExecutor) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	excluded := make(map[string]struct{}, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = struct{}{}
	}
	for _, pst := range repo.db.table {
		if _, ok := excluded[pst.ID]; ok {
			continue
		}
		if pst.Slug == slug {
			return post.ErrSlugExists
		}
	}
	return nil
}

func (repo *postRepository) CreatePost(_ context.Context, pst post.Post, _ ...core.DBExecutor) (post.Post, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	pst.ID = uuid.New().String()
	repo.db.table[pst.ID] = &pst
	return pst, nil
}

func (repo *postRepository) FilterPosts(_ context.Context, filter post.QueryFilter, _ ...core.DBExecutor) ([]post.Post, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var matched []post.Post
	for _, pst := range repo.query() {
		if filter.Search != "" {
			search := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(pst.Title), search) &&
				!strings.Contains(strings.ToLower(pst.Slug), search) {
				continue
			}
		}
		if filter.Published != nil && pst.Published != *filter.Published {
			continue
		}
		matched = append(matched, pst)
	}

	total := len(matched)
	if filter.Offset > 0 {
		if filter.Offset >= total {
			return nil, total, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (repo *postRepository) GetPostByID(_ context.Context, id string, _ ...core.DBExecutor) (post.Post, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if pst, ok := repo.db.table[id]; ok {
		return *pst, nil
	}
	return post.Post{}, post.ErrNotFound
}

func (repo *postRepository) GetPostBySlug(_ context.Context, slug string, _ ...core.DBExecutor) (post.Post, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, pst := range repo.db.table {
		if pst.Slug == slug {
			return *pst, nil
		}
	}
	return post.Post{}, post.ErrNotFound
}

func (repo *postRepository) UpdatePost(_ context.Context, pst post.Post, _ ...core.DBExecutor) (post.Post, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[pst.ID]
	if !ok {
		return post.Post{}, post.ErrNotFound
	}
	pst.CreatedAt = orig.CreatedAt
	repo.db.table[pst.ID] = &pst
	return pst, nil
}

func (repo *postRepository) DeletePost(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return post.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}
