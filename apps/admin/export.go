package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/trezcool/shulesite/core/content"
	"github.com/trezcool/shulesite/core/post"
)

// export dumps a table as CSV to outFile (stdout when empty).
func (cli *commandLine) export(table, kind, outFile string) error {
	var out io.Writer = os.Stdout
	if outFile != "" {
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	w := csv.NewWriter(out)
	defer w.Flush()

	ctx := context.Background()
	switch table {
	case "content":
		return cli.exportContent(ctx, w, kind)
	case "posts":
		return cli.exportPosts(ctx, w)
	case "staff":
		return cli.exportStaff(ctx, w)
	case "users":
		return cli.exportUsers(ctx, w)
	default:
		return fmt.Errorf("unknown table %q", table)
	}
}

func (cli *commandLine) exportContent(ctx context.Context, w *csv.Writer, kind string) error {
	kinds := content.Kinds
	if kind != "" {
		k, err := content.ParseKind(kind)
		if err != nil {
			return err
		}
		kinds = []content.Kind{k}
	}

	if err := w.Write([]string{"id", "kind", "page", "parent_id", "order", "visible", "published", "payload", "created_at", "updated_at"}); err != nil {
		return err
	}
	for _, k := range kinds {
		recs, err := cli.contentRepo.QueryRecords(ctx, content.Filter{Kind: k})
		if err != nil {
			return err
		}
		content.SortRecords(recs)
		for _, rec := range recs {
			payload, err := json.Marshal(rec.Payload)
			if err != nil {
				return err
			}
			published := ""
			if rec.Published != nil {
				published = strconv.FormatBool(*rec.Published)
			}
			row := []string{
				rec.ID,
				string(rec.Kind),
				rec.Page,
				rec.ParentID,
				strconv.Itoa(rec.Order),
				strconv.FormatBool(rec.Visible),
				published,
				string(payload),
				fmtTime(rec.CreatedAt),
				fmtTime(rec.UpdatedAt),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

func (cli *commandLine) exportPosts(ctx context.Context, w *csv.Writer) error {
	posts, _, err := cli.postRepo.FilterPosts(ctx, post.QueryFilter{})
	if err != nil {
		return err
	}

	if err := w.Write([]string{"id", "title", "slug", "excerpt", "published", "published_at", "created_at", "updated_at"}); err != nil {
		return err
	}
	for _, pst := range posts {
		publishedAt := ""
		if pst.PublishedAt != nil {
			publishedAt = fmtTime(*pst.PublishedAt)
		}
		row := []string{
			pst.ID,
			pst.Title,
			pst.Slug,
			pst.Excerpt,
			strconv.FormatBool(pst.Published),
			publishedAt,
			fmtTime(pst.CreatedAt),
			fmtTime(pst.UpdatedAt),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (cli *commandLine) exportStaff(ctx context.Context, w *csv.Writer) error {
	members, err := cli.staffRepo.QueryAllMembers(ctx)
	if err != nil {
		return err
	}

	if err := w.Write([]string{"id", "name", "role", "email", "order", "visible", "created_at", "updated_at"}); err != nil {
		return err
	}
	for _, mbr := range members {
		row := []string{
			mbr.ID,
			mbr.Name,
			mbr.Role,
			mbr.Email,
			strconv.Itoa(mbr.Order),
			strconv.FormatBool(mbr.Visible),
			fmtTime(mbr.CreatedAt),
			fmtTime(mbr.UpdatedAt),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func (cli *commandLine) exportUsers(ctx context.Context, w *csv.Writer) error {
	users, err := cli.usrRepo.QueryAllUsers(ctx)
	if err != nil {
		return err
	}

	if err := w.Write([]string{"id", "name", "username", "email", "is_active", "roles", "created_at", "last_login"}); err != nil {
		return err
	}
	for _, usr := range users {
		isActive := ""
		if usr.IsActive != nil {
			isActive = strconv.FormatBool(*usr.IsActive)
		}
		lastLogin := ""
		if !usr.LastLogin.IsZero() {
			lastLogin = fmtTime(usr.LastLogin)
		}
		row := []string{
			usr.ID,
			usr.Name,
			usr.Username,
			usr.Email,
			isActive,
			strings.Join(usr.Roles, ","),
			fmtTime(usr.CreatedAt),
			lastLogin,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func fmtTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }
