//nolint:testpackage // Testing internal repository requires same package access
package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/pocketish/internal/domain"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, setupErr := sqlmock.New()
	if setupErr != nil {
		t.Fatalf("failed to create sqlmock: %v", setupErr)
	}
	t.Cleanup(func() { db.Close() })

	return sqlx.NewDb(db, "sqlmock"), mock
}

func linkRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "url", "url_hash", "normalized_url", "normalized_url_hash",
		"title", "summary", "category", "status", "archived_at", "created_at", "updated_at",
	})
}

func TestLinkRepository_Enqueue(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLinkRepository(db)
	ctx := context.Background()

	mock.ExpectQuery("INSERT INTO links").
		WithArgs(
			int64(1),
			"https://example.com/post",
			domain.HashURL("https://example.com/post"),
			"https://example.com/post",
			domain.HashURL("https://example.com/post"),
			"My Post",
			domain.StatusQueued,
		).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	id, created, enqueueErr := repo.Enqueue(ctx, 1, "https://example.com/post", "My Post")
	if enqueueErr != nil {
		t.Fatalf("Enqueue() error = %v", enqueueErr)
	}
	if id != 42 {
		t.Errorf("Enqueue() id = %d, want 42", id)
	}
	if !created {
		t.Error("Enqueue() created = false, want true for new link")
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestLinkRepository_Enqueue_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLinkRepository(db)
	ctx := context.Background()

	// ON CONFLICT DO NOTHING returns no rows; the existing id is looked up.
	mock.ExpectQuery("INSERT INTO links").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery("SELECT id FROM links").
		WithArgs(int64(1), domain.HashURL("https://example.com/post")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	id, created, enqueueErr := repo.Enqueue(ctx, 1, "https://example.com/post", "")
	if enqueueErr != nil {
		t.Fatalf("Enqueue() error = %v", enqueueErr)
	}
	if id != 42 {
		t.Errorf("Enqueue() id = %d, want existing id 42", id)
	}
	if created {
		t.Error("Enqueue() created = true, want false for duplicate")
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestLinkRepository_Enqueue_EmptyURL(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewLinkRepository(db)

	_, _, enqueueErr := repo.Enqueue(context.Background(), 1, "   ", "")
	if !errors.Is(enqueueErr, domain.ErrValidation) {
		t.Errorf("Enqueue() error = %v, want ErrValidation", enqueueErr)
	}
}

func TestLinkRepository_ClaimNext(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLinkRepository(db)

	now := time.Now()
	mock.ExpectQuery("UPDATE links").
		WithArgs(domain.StatusProcessing, domain.StatusQueued).
		WillReturnRows(linkRows().AddRow(
			7, 1, "https://example.com/post", domain.HashURL("https://example.com/post"),
			"https://example.com/post", domain.HashURL("https://example.com/post"),
			"", "", "", domain.StatusProcessing, nil, now, now,
		))

	link, claimErr := repo.ClaimNext(context.Background())
	if claimErr != nil {
		t.Fatalf("ClaimNext() error = %v", claimErr)
	}
	if link == nil {
		t.Fatal("ClaimNext() returned nil link")
	}
	if link.ID != 7 {
		t.Errorf("ClaimNext() id = %d, want 7", link.ID)
	}
	if link.Status != domain.StatusProcessing {
		t.Errorf("ClaimNext() status = %s, want processing", link.Status)
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestLinkRepository_ClaimNext_EmptyQueue(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLinkRepository(db)

	mock.ExpectQuery("UPDATE links").
		WithArgs(domain.StatusProcessing, domain.StatusQueued).
		WillReturnRows(linkRows())

	link, claimErr := repo.ClaimNext(context.Background())
	if claimErr != nil {
		t.Fatalf("ClaimNext() error = %v", claimErr)
	}
	if link != nil {
		t.Errorf("ClaimNext() = %+v, want nil for empty queue", link)
	}
}

func TestLinkRepository_Complete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLinkRepository(db)

	mock.ExpectExec("UPDATE links").
		WithArgs("Title", "[2 min read] Summary", "Technology", domain.StatusReady, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	completeErr := repo.Complete(context.Background(), 7, "Title", "[2 min read] Summary", "Technology")
	if completeErr != nil {
		t.Errorf("Complete() error = %v", completeErr)
	}

	if expectErr := mock.ExpectationsWereMet(); expectErr != nil {
		t.Errorf("unfulfilled expectations: %v", expectErr)
	}
}

func TestLinkRepository_Fail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLinkRepository(db)

	mock.ExpectExec("UPDATE links").
		WithArgs(domain.StatusError, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if failErr := repo.Fail(context.Background(), 7); failErr != nil {
		t.Errorf("Fail() error = %v", failErr)
	}
}

func TestLinkRepository_RequeueStale(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLinkRepository(db)

	mock.ExpectExec("UPDATE links").
		WithArgs(domain.StatusQueued, domain.StatusProcessing, "900 seconds").
		WillReturnResult(sqlmock.NewResult(0, 3))

	requeued, requeueErr := repo.RequeueStale(context.Background(), 15*time.Minute)
	if requeueErr != nil {
		t.Fatalf("RequeueStale() error = %v", requeueErr)
	}
	if requeued != 3 {
		t.Errorf("RequeueStale() = %d, want 3", requeued)
	}
}

func TestLinkRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLinkRepository(db)

	mock.ExpectQuery("SELECT").
		WithArgs(int64(99), int64(1)).
		WillReturnRows(linkRows())

	_, getErr := repo.GetByID(context.Background(), 1, 99)
	if !errors.Is(getErr, domain.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", getErr)
	}
}

func TestLinkRepository_SetArchived(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLinkRepository(db)

	mock.ExpectExec("UPDATE links").
		WithArgs(true, int64(7), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if archiveErr := repo.SetArchived(context.Background(), 1, 7, true); archiveErr != nil {
		t.Errorf("SetArchived() error = %v", archiveErr)
	}
}

func TestLinkRepository_SetArchived_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLinkRepository(db)

	mock.ExpectExec("UPDATE links").
		WithArgs(false, int64(99), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	archiveErr := repo.SetArchived(context.Background(), 1, 99, false)
	if !errors.Is(archiveErr, domain.ErrNotFound) {
		t.Errorf("SetArchived() error = %v, want ErrNotFound", archiveErr)
	}
}

func TestLinkRepository_Search(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLinkRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT DISTINCT").
		WithArgs(int64(1), "%golang%", 50).
		WillReturnRows(linkRows().AddRow(
			7, 1, "https://example.com/post", "h1", "https://example.com/post", "h2",
			"Go Post", "[1 min read] About Go.", "Technology", domain.StatusReady, nil, now, now,
		))

	links, searchErr := repo.Search(context.Background(), 1, SearchFilter{Query: "golang", Limit: 50})
	if searchErr != nil {
		t.Fatalf("Search() error = %v", searchErr)
	}
	if len(links) != 1 {
		t.Fatalf("Search() returned %d links, want 1", len(links))
	}
	if links[0].Title != "Go Post" {
		t.Errorf("Search() title = %q, want \"Go Post\"", links[0].Title)
	}
}

func TestLinkRepository_Search_TagFilter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewLinkRepository(db)

	mock.ExpectQuery("SELECT DISTINCT").
		WithArgs(int64(1), "golang", DefaultSearchLimit).
		WillReturnRows(linkRows())

	links, searchErr := repo.Search(context.Background(), 1, SearchFilter{Tag: "Golang"})
	if searchErr != nil {
		t.Fatalf("Search() error = %v", searchErr)
	}
	if len(links) != 0 {
		t.Errorf("Search() returned %d links, want 0", len(links))
	}
}
