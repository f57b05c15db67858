//nolint:testpackage // Handlers are wired with in-package fakes
package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jonesrussell/pocketish/internal/domain"
)

func TestAddTag(t *testing.T) {
	links := &fakeLinks{link: &domain.Link{ID: 7}}
	tags := &fakeTagStore{systemTags: []string{"webdev"}}

	w := doRequest(newTestRouter(links, tags),
		http.MethodPost, "/api/v1/links/7/tags", `{"name": "Golang"}`)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if tags.upserted != "golang" {
		t.Errorf("upserted = %q, want normalized golang", tags.upserted)
	}

	var resp struct {
		UserTags   []string `json:"user_tags"`
		SystemTags []string `json:"system_tags"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.UserTags) != 1 || resp.UserTags[0] != "golang" {
		t.Errorf("user_tags = %v", resp.UserTags)
	}
	if len(resp.SystemTags) != 1 || resp.SystemTags[0] != "webdev" {
		t.Errorf("system_tags = %v", resp.SystemTags)
	}
}

func TestAddTag_LinkNotOwned(t *testing.T) {
	w := doRequest(newTestRouter(&fakeLinks{}, &fakeTagStore{}),
		http.MethodPost, "/api/v1/links/7/tags", `{"name": "golang"}`)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for foreign link", w.Code)
	}
}

func TestAddTag_MissingName(t *testing.T) {
	links := &fakeLinks{link: &domain.Link{ID: 7}}

	w := doRequest(newTestRouter(links, &fakeTagStore{}),
		http.MethodPost, "/api/v1/links/7/tags", `{}`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestRemoveTag(t *testing.T) {
	links := &fakeLinks{link: &domain.Link{ID: 7}}
	tags := &fakeTagStore{}

	w := doRequest(newTestRouter(links, tags),
		http.MethodDelete, "/api/v1/links/7/tags/Golang", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if tags.deleted != "golang" {
		t.Errorf("deleted = %q, want golang", tags.deleted)
	}
}

func TestSuggestTags(t *testing.T) {
	tags := &fakeTagStore{suggested: []string{"golang", "gophers"}}

	w := doRequest(newTestRouter(&fakeLinks{}, tags),
		http.MethodGet, "/api/v1/tags?prefix=go", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Tags []string `json:"tags"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Tags) != 2 || resp.Tags[0] != "golang" {
		t.Errorf("tags = %v", resp.Tags)
	}
}

func TestSuggestTags_EmptyResult(t *testing.T) {
	w := doRequest(newTestRouter(&fakeLinks{}, &fakeTagStore{}),
		http.MethodGet, "/api/v1/tags?prefix=zz", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if body := w.Body.String(); body != `{"tags":[]}` {
		t.Errorf("body = %s, want empty array not null", body)
	}
}
