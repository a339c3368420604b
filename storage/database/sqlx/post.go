package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shulesite/core"
	"github.com/trezcool/shulesite/core/post"
)

type postRepository struct {
	db *sqlx.DB
}

var _ post.Repository = (*postRepository)(nil) // interface compliance check

func NewPostRepository(db *sqlx.DB) *postRepository {
	return &postRepository{db: db}
}

type postRow struct {
	ID              string      `db:"id"`
	Title           string      `db:"title"`
	Slug            string      `db:"slug"`
	Body            string      `db:"body"`
	Excerpt         null.String `db:"excerpt"`
	CoverImageURL   null.String `db:"cover_image_url"`
	MetaTitle       null.String `db:"meta_title"`
	MetaDescription null.String `db:"meta_description"`
	Published       bool        `db:"published"`
	PublishedAt     null.Time   `db:"published_at"`
	CreatedAt       null.Time   `db:"created_at"`
	UpdatedAt       null.Time   `db:"updated_at"`
}

func (repo postRepository) row(pst post.Post) postRow {
	row := postRow{
		ID:              pst.ID,
		Title:           pst.Title,
		Slug:            pst.Slug,
		Body:            pst.Body,
		Excerpt:         null.NewString(pst.Excerpt, pst.Excerpt != ""),
		CoverImageURL:   null.NewString(pst.CoverImageURL, pst.CoverImageURL != ""),
		MetaTitle:       null.NewString(pst.MetaTitle, pst.MetaTitle != ""),
		MetaDescription: null.NewString(pst.MetaDescription, pst.MetaDescription != ""),
		Published:       pst.Published,
		CreatedAt:       null.NewTime(pst.CreatedAt.UTC(), !pst.CreatedAt.IsZero()),
		UpdatedAt:       null.NewTime(pst.UpdatedAt.UTC(), !pst.UpdatedAt.IsZero()),
	}
	if pst.PublishedAt != nil {
		row.PublishedAt = null.TimeFrom(pst.PublishedAt.UTC())
	}
	return row
}

func (repo postRepository) unrow(row postRow) post.Post {
	pst := post.Post{
		ID:              row.ID,
		Title:           row.Title,
		Slug:            row.Slug,
		Body:            row.Body,
		Excerpt:         row.Excerpt.String,
		CoverImageURL:   row.CoverImageURL.String,
		MetaTitle:       row.MetaTitle.String,
		MetaDescription: row.MetaDescription.String,
		Published:       row.Published,
		CreatedAt:       row.CreatedAt.Time,
		UpdatedAt:       row.UpdatedAt.Time,
	}
	if row.PublishedAt.Valid {
		t := row.PublishedAt.Time
		pst.PublishedAt = &t
	}
	return pst
}

func (repo postRepository) unrowSlice(rows []postRow) []post.Post {
	posts := make([]post.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, repo.unrow(row))
	}
	return posts
}

func (repo postRepository) CheckSlugUniqueness(ctx context.Context, slug string, excludedIDs []string, _ ...core.DBExecutor) error {
	query := `SELECT EXISTS (SELECT 1 FROM post WHERE slug = $1`
	args := []interface{}{slug}
	for _, id := range excludedIDs {
		args = append(args, id)
		query += fmt.Sprintf(` AND id <> $%d`, len(args))
	}
	query += `)`

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, query, args...); err != nil {
		return errors.Wrap(err, "checking slug uniqueness")
	}
	if exists {
		return post.ErrSlugExists
	}
	return nil
}

func (repo postRepository) CreatePost(ctx context.Context, pst post.Post, exec ...core.DBExecutor) (post.Post, error) {
	pst.ID = uuid.New().String()
	row := repo.row(pst)

	_, err := repo.getExec(exec).ExecContext(ctx,
		`INSERT INTO post (id, title, slug, body, excerpt, cover_image_url, meta_title, meta_description,
		                   published, published_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		row.ID, row.Title, row.Slug, row.Body, row.Excerpt, row.CoverImageURL, row.MetaTitle,
		row.MetaDescription, row.Published, row.PublishedAt, row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		return post.Post{}, errors.Wrap(err, "inserting post")
	}
	return pst, nil
}

func (repo postRepository) FilterPosts(ctx context.Context, filter post.QueryFilter, _ ...core.DBExecutor) ([]post.Post, int, error) {
	where := ` WHERE TRUE`
	var args []interface{}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += fmt.Sprintf(` AND (title ILIKE $%d OR slug ILIKE $%d)`, len(args), len(args))
	}
	if filter.Published != nil {
		args = append(args, *filter.Published)
		where += fmt.Sprintf(` AND published = $%d`, len(args))
	}

	var total int
	if err := repo.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM post`+where, args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting posts")
	}

	query := `SELECT * FROM post` + where + ` ORDER BY COALESCE(published_at, created_at) DESC, id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	var rows []postRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, errors.Wrap(err, "filtering posts")
	}
	return repo.unrowSlice(rows), total, nil
}

func (repo postRepository) GetPostByID(ctx context.Context, id string, _ ...core.DBExecutor) (post.Post, error) {
	var row postRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM post WHERE id = $1`, id); err != nil {
		return post.Post{}, trapPostNoRowsErr(err, "getting post by ID")
	}
	return repo.unrow(row), nil
}

func (repo postRepository) GetPostBySlug(ctx context.Context, slug string, _ ...core.DBExecutor) (post.Post, error) {
	var row postRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM post WHERE slug = $1`, slug); err != nil {
		return post.Post{}, trapPostNoRowsErr(err, "getting post by slug")
	}
	return repo.unrow(row), nil
}

func (repo postRepository) UpdatePost(ctx context.Context, pst post.Post, exec ...core.DBExecutor) (post.Post, error) {
	row := repo.row(pst)
	res, err := repo.getExec(exec).ExecContext(ctx,
		`UPDATE post
		 SET title = $1, slug = $2, body = $3, excerpt = $4, cover_image_url = $5, meta_title = $6,
		     meta_description = $7, published = $8, published_at = $9, updated_at = $10
		 WHERE id = $11`,
		row.Title, row.Slug, row.Body, row.Excerpt, row.CoverImageURL, row.MetaTitle,
		row.MetaDescription, row.Published, row.PublishedAt, row.UpdatedAt, row.ID,
	)
	if err != nil {
		return post.Post{}, errors.Wrap(err, "updating post")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return post.Post{}, post.ErrNotFound
	}
	return pst, nil
}

func (repo postRepository) DeletePost(ctx context.Context, id string, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM post WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting post")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return post.ErrNotFound
	}
	return nil
}

func (repo postRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.db
}

// trapPostNoRowsErr maps psql "no rows" err to post.ErrNotFound
func trapPostNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return post.ErrNotFound
	}
	return errors.Wrap(err, msg)
}
