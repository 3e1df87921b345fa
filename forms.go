package inkpress

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// The four form schemas users submit. Fields bind from POST bodies via
// the form tags (echo's binder) and validate declaratively via the
// validate tags. A submission is accepted only if every constraint
// passes; Errors carries per-field messages back into the template.

// RegisterForm creates a new account.
type RegisterForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
	Name     string `form:"name" validate:"required"`

	Errors map[string]string `form:"-" validate:"-"`
}

// LoginForm authenticates an existing account.
type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`

	Errors map[string]string `form:"-" validate:"-"`
}

// PostForm creates or edits a blog post. ID is a hidden field that is
// empty on create and carries the post id on edit.
type PostForm struct {
	ID       string `form:"id" validate:"-"`
	Title    string `form:"title" validate:"required"`
	Subtitle string `form:"subtitle" validate:"required"`
	ImageURL string `form:"img_url" validate:"required,url"`
	Body     string `form:"body" validate:"required"`

	Errors map[string]string `form:"-" validate:"-"`
}

// CommentForm submits a comment on a post.
type CommentForm struct {
	Body string `form:"body" validate:"required"`

	Errors map[string]string `form:"-" validate:"-"`
}

func (f *RegisterForm) Validate() bool {
	f.Errors = fieldErrors(f)
	return len(f.Errors) == 0
}

func (f *LoginForm) Validate() bool {
	f.Errors = fieldErrors(f)
	return len(f.Errors) == 0
}

func (f *PostForm) Validate() bool {
	f.Errors = fieldErrors(f)
	return len(f.Errors) == 0
}

func (f *CommentForm) Validate() bool {
	f.Errors = fieldErrors(f)
	return len(f.Errors) == 0
}

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New()
	// Report errors under the submitted field name, not the Go field name.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// fieldErrors validates a form struct and maps each failed field to a
// human-readable message keyed by its form field name.
func fieldErrors(form any) map[string]string {
	err := formValidator.Struct(form)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"": err.Error()}
	}
	errs := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		errs[fe.Field()] = fieldMessage(fe)
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "url":
		return "Enter a valid URL."
	default:
		return "Invalid value."
	}
}
