package inkpress

// User roles. The first account ever registered is bootstrapped as the
// admin; everyone after that is a member.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// User is a registered account. PasswordHash holds a bcrypt hash; the
// plaintext password never reaches the store.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         string
}

// BlogPost is the core content type stored in SQLite and rendered by templates.
// Date is a display string ("January 2, 2006") fixed at creation time and
// never rewritten on edit. Body is markdown.
type BlogPost struct {
	ID         int64
	Title      string
	Subtitle   string
	Date       string
	Body       string
	ImageURL   string
	AuthorID   int64
	AuthorName string
}

// Comment belongs to exactly one post and one author. AuthorName is
// joined in at query time for display.
type Comment struct {
	ID         int64
	PostID     int64
	AuthorID   int64
	AuthorName string
	Body       string
}

// Identity is the authenticated user resolved from the session cookie
// for the current request. The zero value is the anonymous visitor.
type Identity struct {
	ID            int64
	Email         string
	Name          string
	Role          string
	Authenticated bool
}

// IsAdmin reports whether the identity may author, edit, and delete posts.
func (i Identity) IsAdmin() bool {
	return i.Authenticated && i.Role == RoleAdmin
}
