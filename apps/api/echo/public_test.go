package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shulesite/core/content"
	"github.com/trezcool/shulesite/core/post"
	"github.com/trezcool/shulesite/core/settings"
	"github.com/trezcool/shulesite/core/staff"
	"github.com/trezcool/shulesite/services/email"
)

func Test_siteApi_navigation(t *testing.T) {
	ctx := context.Background()
	fix := setup(t)

	home := createNavRecord(t, fix, "home")
	about := createNavRecord(t, fix, "about")
	history := createNavRecord(t, fix, "history", about.ID)
	hidden := createNavRecord(t, fix, "hidden")
	_, err := fix.contentSvc.SetVisible(ctx, content.KindNavigation, hidden.ID, false)
	require.NoError(t, err)

	// hidden parent hides its visible child
	secret := createNavRecord(t, fix, "secret")
	_, err = fix.contentSvc.SetVisible(ctx, content.KindNavigation, secret.ID, false)
	require.NoError(t, err)
	createNavRecord(t, fix, "secret-child", secret.ID)

	req, rec := newRequest(http.MethodGet, "/v1/site/navigation")
	fix.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var nodes []content.Node
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nodes))
	require.Len(t, nodes, 2)
	assert.Equal(t, home.ID, nodes[0].ID)
	assert.Equal(t, about.ID, nodes[1].ID)
	require.Len(t, nodes[1].Children, 1)
	assert.Equal(t, history.ID, nodes[1].Children[0].ID)
}

func Test_siteApi_pageSections(t *testing.T) {
	ctx := context.Background()
	fix := setup(t)

	section := func(page string, published bool) content.Record {
		rec, err := fix.contentSvc.Create(ctx, content.KindPageSection, content.NewRecord{
			Page:      page,
			Published: &published,
			Payload: content.Payload{Section: &content.SectionPayload{
				Variant:  content.SectionRichText,
				RichText: &content.RichTextSection{HTML: "<p>x</p>"},
			}},
		})
		require.NoError(t, err)
		return rec
	}

	published := section("home", true)
	section("home", false)      // draft, not public
	section("admissions", true) // other page

	req, rec := newRequest(http.MethodGet, "/v1/site/pages/home/sections")
	fix.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var records []content.Record
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &records))
	require.Len(t, records, 1)
	assert.Equal(t, published.ID, records[0].ID)
}

func Test_siteApi_posts(t *testing.T) {
	ctx := context.Background()
	fix := setup(t)

	mkPost := func(title, slug string, published bool) post.Post {
		pst, err := fix.postSvc.Create(ctx, post.NewPost{Title: title, Slug: slug, Body: "<p>x</p>", Published: published})
		require.NoError(t, err)
		return pst
	}

	pub1 := mkPost("First", "first", true)
	mkPost("Second", "second", true)
	draft := mkPost("Draft", "draft", false)

	// listing only shows published posts
	req, rec := newRequest(http.MethodGet, "/v1/site/posts")
	fix.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var list PublicPostListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Total)
	assert.Len(t, list.Posts, 2)
	assert.Equal(t, 1, list.Page)

	// pagination clamps and pages
	req, rec = newRequest(http.MethodGet, "/v1/site/posts?page=2&page_size=1")
	fix.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Total)
	assert.Len(t, list.Posts, 1)
	assert.Equal(t, 2, list.Page)
	assert.Equal(t, 1, list.PageSize)

	// search
	req, rec = newRequest(http.MethodGet, "/v1/site/posts?search=first")
	fix.app.ServeHTTP(rec, req)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Posts, 1)
	assert.Equal(t, pub1.ID, list.Posts[0].ID)

	// detail by slug
	req, rec = newRequest(http.MethodGet, "/v1/site/posts/first")
	fix.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// drafts 404 on the public site
	req, rec = newRequest(http.MethodGet, "/v1/site/posts/"+draft.Slug)
	fix.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_siteApi_team(t *testing.T) {
	ctx := context.Background()
	fix := setup(t)

	shown, err := fix.staffSvc.Create(ctx, staff.NewMember{Name: "Shown", Role: "Teacher"})
	require.NoError(t, err)
	hidden, err := fix.staffSvc.Create(ctx, staff.NewMember{Name: "Hidden", Role: "Teacher"})
	require.NoError(t, err)
	_, err = fix.staffSvc.SetVisible(ctx, hidden.ID, false)
	require.NoError(t, err)

	req, rec := newRequest(http.MethodGet, "/v1/site/team")
	fix.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var members []staff.Member
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &members))
	require.Len(t, members, 1)
	assert.Equal(t, shown.ID, members[0].ID)
}

func Test_siteApi_settings(t *testing.T) {
	ctx := context.Background()
	fix := setup(t)

	_, err := fix.settingsSvc.Upsert(ctx, settings.UpsertSetting{
		Namespace: settings.NamespaceSite, Key: "school-name", Value: "Shule Academy",
	})
	require.NoError(t, err)
	_, err = fix.settingsSvc.UpsertFlag(ctx, settings.UpsertFlag{Name: "testimonials-carousel", Enabled: true})
	require.NoError(t, err)

	req, rec := newRequest(http.MethodGet, "/v1/site/settings")
	fix.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp PublicSettingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Shule Academy", resp.Settings[settings.NamespaceSite]["school-name"])
	assert.True(t, resp.Flags["testimonials-carousel"])
}

func Test_siteApi_contact(t *testing.T) {
	fix := setup(t)
	emailsvc.ClearSentMessages()

	body := marchallObj(t, ContactRequest{
		Name:    "Parent",
		Email:   "parent@test.cd",
		Subject: "Admissions",
		Message: "When does enrollment open?",
	})
	req, rec := newRequest(http.MethodPost, "/v1/site/contact", body)
	fix.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Len(t, emailsvc.SentMessages, 1)
	msg := emailsvc.SentMessages[0]
	assert.Contains(t, msg.Subject, "Admissions")
	require.NotNil(t, msg.ReplyTo)
	assert.Equal(t, "parent@test.cd", msg.ReplyTo.Address)

	// invalid payload
	body = marchallObj(t, ContactRequest{Name: "X"})
	req, rec = newRequest(http.MethodPost, "/v1/site/contact", body)
	fix.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
