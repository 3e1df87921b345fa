package inkpress

import (
	"errors"
	"path/filepath"
	"testing"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test_blog.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustCreateUser(t *testing.T, s *Store, email string) User {
	t.Helper()
	u, err := s.CreateUser(email, "Test User", "$2a$10$fakehashfakehashfakehash")
	if err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", email, err)
	}
	return u
}

func mustCreatePost(t *testing.T, s *Store, title string, authorID int64) BlogPost {
	t.Helper()
	p, err := s.CreatePost(BlogPost{
		Title:    title,
		Subtitle: "subtitle",
		Date:     "January 2, 2026",
		Body:     "body",
		ImageURL: "http://example.com/cover.png",
		AuthorID: authorID,
	})
	if err != nil {
		t.Fatalf("CreatePost(%s) failed: %v", title, err)
	}
	return p
}

func TestCreateUserRoles(t *testing.T) {
	s := setupTestStore(t)

	first := mustCreateUser(t, s, "first@example.com")
	if first.Role != RoleAdmin {
		t.Errorf("first user role = %q, want %q", first.Role, RoleAdmin)
	}

	second := mustCreateUser(t, s, "second@example.com")
	if second.Role != RoleMember {
		t.Errorf("second user role = %q, want %q", second.Role, RoleMember)
	}
	if second.ID <= first.ID {
		t.Errorf("ids should be monotonic: first=%d second=%d", first.ID, second.ID)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := setupTestStore(t)

	mustCreateUser(t, s, "a@x.com")
	_, err := s.CreateUser("a@x.com", "Other", "hash")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		t.Fatalf("count users: %v", err)
	}
	if count != 1 {
		t.Errorf("user count = %d, want 1", count)
	}
}

func TestGetUserByEmail(t *testing.T) {
	s := setupTestStore(t)

	created := mustCreateUser(t, s, "a@x.com")
	got, err := s.GetUserByEmail("a@x.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if got.ID != created.ID || got.Name != created.Name || got.Role != created.Role {
		t.Errorf("got %+v, want %+v", got, created)
	}

	_, err = s.GetUserByEmail("missing@x.com")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreatePostDuplicateTitle(t *testing.T) {
	s := setupTestStore(t)
	u := mustCreateUser(t, s, "a@x.com")

	mustCreatePost(t, s, "Hello", u.ID)
	_, err := s.CreatePost(BlogPost{
		Title: "Hello", Subtitle: "other", Date: "January 3, 2026",
		Body: "b", ImageURL: "http://example.com/i.png", AuthorID: u.ID,
	})
	if !errors.Is(err, ErrDuplicateTitle) {
		t.Fatalf("expected ErrDuplicateTitle, got %v", err)
	}

	posts, err := s.ListPosts()
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(posts) != 1 {
		t.Errorf("post count = %d, want 1 (conflict must create no row)", len(posts))
	}
}

func TestUpdatePostTitleConflict(t *testing.T) {
	s := setupTestStore(t)
	u := mustCreateUser(t, s, "a@x.com")

	p1 := mustCreatePost(t, s, "First", u.ID)
	p2 := mustCreatePost(t, s, "Second", u.ID)

	taken, err := s.TitleTaken("First", p2.ID)
	if err != nil {
		t.Fatalf("TitleTaken failed: %v", err)
	}
	if !taken {
		t.Error("TitleTaken should report the other post's title as taken")
	}
	taken, err = s.TitleTaken("Second", p2.ID)
	if err != nil {
		t.Fatalf("TitleTaken failed: %v", err)
	}
	if taken {
		t.Error("a post's own title must not count as taken")
	}

	p2.Title = "First"
	if err := s.UpdatePost(p2); !errors.Is(err, ErrDuplicateTitle) {
		t.Fatalf("expected ErrDuplicateTitle, got %v", err)
	}
	got, err := s.GetPost(p2.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != "Second" {
		t.Errorf("conflicting update must leave the row unchanged, title = %q", got.Title)
	}

	// Editing to its own current title succeeds.
	p1.Subtitle = "updated"
	if err := s.UpdatePost(p1); err != nil {
		t.Fatalf("UpdatePost to own title failed: %v", err)
	}
}

func TestUpdatePostKeepsDate(t *testing.T) {
	s := setupTestStore(t)
	u := mustCreateUser(t, s, "a@x.com")
	p := mustCreatePost(t, s, "Dated", u.ID)

	p.Title = "Dated, Revised"
	p.Body = "new body"
	p.Date = "tampered"
	if err := s.UpdatePost(p); err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}

	got, err := s.GetPost(p.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != "Dated, Revised" || got.Body != "new body" {
		t.Errorf("mutable fields not updated: %+v", got)
	}
	if got.Date != "January 2, 2026" {
		t.Errorf("creation date must survive edits, got %q", got.Date)
	}
}

func TestUpdatePostNotFound(t *testing.T) {
	s := setupTestStore(t)
	u := mustCreateUser(t, s, "a@x.com")

	err := s.UpdatePost(BlogPost{ID: 99, Title: "t", Subtitle: "s", Body: "b", ImageURL: "u", AuthorID: u.ID})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetPostNotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetPost(42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListPostsNewestFirstWithAuthor(t *testing.T) {
	s := setupTestStore(t)
	u := mustCreateUser(t, s, "a@x.com")

	mustCreatePost(t, s, "Older", u.ID)
	mustCreatePost(t, s, "Newer", u.ID)

	posts, err := s.ListPosts()
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("post count = %d, want 2", len(posts))
	}
	if posts[0].Title != "Newer" {
		t.Errorf("first post = %q, want the newest", posts[0].Title)
	}
	if posts[0].AuthorName != "Test User" {
		t.Errorf("AuthorName = %q, want joined user name", posts[0].AuthorName)
	}
}

func TestDeletePostCascadesComments(t *testing.T) {
	s := setupTestStore(t)
	u := mustCreateUser(t, s, "a@x.com")
	p1 := mustCreatePost(t, s, "Doomed", u.ID)
	p2 := mustCreatePost(t, s, "Survivor", u.ID)

	for i := 0; i < 3; i++ {
		if _, err := s.CreateComment(p1.ID, u.ID, "on doomed"); err != nil {
			t.Fatalf("CreateComment failed: %v", err)
		}
	}
	if _, err := s.CreateComment(p2.ID, u.ID, "on survivor"); err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}

	if err := s.DeletePost(p1.ID); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}

	if _, err := s.GetPost(p1.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("post should be gone, got %v", err)
	}
	var orphans int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM comments WHERE post_id = ?`, p1.ID).Scan(&orphans); err != nil {
		t.Fatalf("count comments: %v", err)
	}
	if orphans != 0 {
		t.Errorf("orphaned comment rows = %d, want 0", orphans)
	}

	remaining, err := s.ListComments(p2.ID)
	if err != nil {
		t.Fatalf("ListComments failed: %v", err)
	}
	if len(remaining) != 1 {
		t.Errorf("survivor's comments = %d, want 1", len(remaining))
	}
}

func TestDeletePostNotFound(t *testing.T) {
	s := setupTestStore(t)

	if err := s.DeletePost(7); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateCommentRequiresPost(t *testing.T) {
	s := setupTestStore(t)
	u := mustCreateUser(t, s, "a@x.com")

	if _, err := s.CreateComment(123, u.ID, "floating"); err == nil {
		t.Error("comment on a missing post must fail the foreign key check")
	}
}

func TestListCommentsJoinsAuthor(t *testing.T) {
	s := setupTestStore(t)
	u := mustCreateUser(t, s, "a@x.com")
	p := mustCreatePost(t, s, "Commented", u.ID)

	if _, err := s.CreateComment(p.ID, u.ID, "first"); err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}
	if _, err := s.CreateComment(p.ID, u.ID, "second"); err != nil {
		t.Fatalf("CreateComment failed: %v", err)
	}

	comments, err := s.ListComments(p.ID)
	if err != nil {
		t.Fatalf("ListComments failed: %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("comment count = %d, want 2", len(comments))
	}
	if comments[0].Body != "first" {
		t.Errorf("comments should be in submission order, got %q first", comments[0].Body)
	}
	if comments[0].AuthorName != "Test User" {
		t.Errorf("AuthorName = %q, want joined user name", comments[0].AuthorName)
	}
}
