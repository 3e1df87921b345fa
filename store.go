package inkpress

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

// Store errors surfaced to handlers. Uniqueness conflicts are recoverable
// and reported back to the submitter; anything else propagates.
var (
	ErrNotFound       = sql.ErrNoRows
	ErrDuplicateEmail = errors.New("email already registered")
	ErrDuplicateTitle = errors.New("title already in use")
)

// Store wraps a SQLite database and provides CRUD operations for users,
// blog posts, and comments.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and applies the schema.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	// foreign_keys is a per-connection pragma; passing it in the DSN makes
	// the driver apply it to every pooled connection, which the comment
	// cascade on post deletion depends on.
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, err
	}
	// Enable WAL mode for concurrent read/write access, set a busy timeout
	// so writers wait instead of returning SQLITE_BUSY immediately, and tune
	// performance: synchronous=NORMAL is safe with WAL and avoids an fsync
	// per transaction.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	ddl, err := fs.ReadFile(schemaFS, "schema.sql")
	if err != nil {
		return err
	}
	_, err = s.db.Exec(string(ddl))
	return err
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure
// on the given column ("table.column").
func isUniqueViolation(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}

// --- Users ---

// CreateUser inserts a new account. The first account ever created gets
// the admin role; every later one is a member. The role decision and the
// insert share one transaction so two racing registrations cannot both
// become admin. Returns ErrDuplicateEmail on an email conflict.
func (s *Store) CreateUser(email, name, passwordHash string) (User, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return User{}, err
	}
	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		tx.Rollback()
		return User{}, err
	}
	role := RoleMember
	if count == 0 {
		role = RoleAdmin
	}
	res, err := tx.Exec(`INSERT INTO users (email, name, password_hash, role) VALUES (?, ?, ?, ?)`,
		email, name, passwordHash, role)
	if err != nil {
		tx.Rollback()
		if isUniqueViolation(err, "users.email") {
			return User{}, ErrDuplicateEmail
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return User{}, err
	}
	if err := tx.Commit(); err != nil {
		return User{}, err
	}
	return User{ID: id, Email: email, Name: name, PasswordHash: passwordHash, Role: role}, nil
}

// GetUserByEmail returns the account registered under email.
func (s *Store) GetUserByEmail(email string) (User, error) {
	var u User
	err := s.db.QueryRow(`SELECT id, email, name, password_hash, role FROM users WHERE email = ?`, email).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetUserByID returns the account with the given id.
func (s *Store) GetUserByID(id int64) (User, error) {
	var u User
	err := s.db.QueryRow(`SELECT id, email, name, password_hash, role FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// --- Posts ---

const postColumns = `p.id, p.title, p.subtitle, p.date, p.body, p.img_url, p.author_id, u.name`

func scanPost(row interface{ Scan(...any) error }) (BlogPost, error) {
	var p BlogPost
	err := row.Scan(&p.ID, &p.Title, &p.Subtitle, &p.Date, &p.Body, &p.ImageURL, &p.AuthorID, &p.AuthorName)
	return p, err
}

// ListPosts returns all posts, newest first, with author names joined in.
func (s *Store) ListPosts() ([]BlogPost, error) {
	rows, err := s.db.Query(`SELECT ` + postColumns + ` FROM blog_posts p JOIN users u ON u.id = p.author_id ORDER BY p.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []BlogPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetPost returns a single post by id, or ErrNotFound.
func (s *Store) GetPost(id int64) (BlogPost, error) {
	return scanPost(s.db.QueryRow(`SELECT `+postColumns+` FROM blog_posts p JOIN users u ON u.id = p.author_id WHERE p.id = ?`, id))
}

// CreatePost inserts a new post and returns it with its assigned id.
// Returns ErrDuplicateTitle when the title is already taken; the
// transaction is rolled back and no row remains.
func (s *Store) CreatePost(p BlogPost) (BlogPost, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return BlogPost{}, err
	}
	res, err := tx.Exec(`INSERT INTO blog_posts (title, subtitle, date, body, img_url, author_id) VALUES (?, ?, ?, ?, ?, ?)`,
		p.Title, p.Subtitle, p.Date, p.Body, p.ImageURL, p.AuthorID)
	if err != nil {
		tx.Rollback()
		if isUniqueViolation(err, "blog_posts.title") {
			return BlogPost{}, ErrDuplicateTitle
		}
		return BlogPost{}, fmt.Errorf("create post: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return BlogPost{}, err
	}
	if err := tx.Commit(); err != nil {
		return BlogPost{}, err
	}
	p.ID = id
	return p, nil
}

// UpdatePost rewrites a post's mutable fields (title, subtitle, image,
// body, author). The creation date is never touched. Returns
// ErrDuplicateTitle on a title conflict and ErrNotFound for an unknown id.
func (s *Store) UpdatePost(p BlogPost) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	res, err := tx.Exec(`UPDATE blog_posts SET title = ?, subtitle = ?, body = ?, img_url = ?, author_id = ? WHERE id = ?`,
		p.Title, p.Subtitle, p.Body, p.ImageURL, p.AuthorID, p.ID)
	if err != nil {
		tx.Rollback()
		if isUniqueViolation(err, "blog_posts.title") {
			return ErrDuplicateTitle
		}
		return fmt.Errorf("update post: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return err
	}
	if n == 0 {
		tx.Rollback()
		return ErrNotFound
	}
	return tx.Commit()
}

// TitleTaken reports whether a post other than excludeID already uses title.
func (s *Store) TitleTaken(title string, excludeID int64) (bool, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM blog_posts WHERE title = ? AND id != ?`, title, excludeID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DeletePost removes a post by id. Its comments go with it via the
// ON DELETE CASCADE foreign key. Returns ErrNotFound for an unknown id.
func (s *Store) DeletePost(id int64) error {
	res, err := s.db.Exec(`DELETE FROM blog_posts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Comments ---

// CreateComment attaches a comment to a post. Both references are
// enforced by foreign keys; a missing post or author fails the insert.
func (s *Store) CreateComment(postID, authorID int64, body string) (Comment, error) {
	res, err := s.db.Exec(`INSERT INTO comments (body, author_id, post_id) VALUES (?, ?, ?)`, body, authorID, postID)
	if err != nil {
		return Comment{}, fmt.Errorf("create comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Comment{}, err
	}
	return Comment{ID: id, PostID: postID, AuthorID: authorID, Body: body}, nil
}

// ListComments returns a post's comments in submission order, with
// author names joined in.
func (s *Store) ListComments(postID int64) ([]Comment, error) {
	rows, err := s.db.Query(`SELECT c.id, c.post_id, c.author_id, u.name, c.body
		FROM comments c JOIN users u ON u.id = c.author_id
		WHERE c.post_id = ? ORDER BY c.id`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.AuthorName, &c.Body); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
