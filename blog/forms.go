package blog

import (
	"mime/multipart"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cppla/blogicum/config"
	"github.com/cppla/blogicum/utils"
)

var (
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
)

// PostInput is the submitted post form. Image is only set for multipart requests.
type PostInput struct {
	Title       string                `json:"title" form:"title" binding:"required"`
	Text        string                `json:"text" form:"text" binding:"required"`
	PubDate     time.Time             `json:"pub_date" form:"pub_date" binding:"required"`
	IsPublished *bool                 `json:"is_published" form:"is_published"`
	LocationID  *uint                 `json:"location" form:"location"`
	CategoryID  *uint                 `json:"category" form:"category"`
	Image       *multipart.FileHeader `json:"-" form:"image"`
}

// CommentInput is the submitted comment form.
type CommentInput struct {
	Text string `json:"text" form:"text" binding:"required"`
}

// ProfileInput holds the account fields a user may change on their own profile.
type ProfileInput struct {
	Username  string `json:"username" form:"username" binding:"required"`
	Email     string `json:"email" form:"email" binding:"omitempty,email"`
	FirstName string `json:"first_name" form:"first_name"`
	LastName  string `json:"last_name" form:"last_name"`
}

// CategoryInput is the admin category form.
type CategoryInput struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
	Slug        string `json:"slug" binding:"required"`
	IsPublished *bool  `json:"is_published"`
}

// LocationInput is the admin location form.
type LocationInput struct {
	Name        string `json:"name" binding:"required"`
	IsPublished *bool  `json:"is_published"`
}

type cleanPost struct {
	title       string
	text        string
	pubDate     time.Time
	isPublished bool
	locationID  *uint
	categoryID  *uint
}

func (in PostInput) clean(limits config.BlogConfig, errs *ValidationError) cleanPost {
	out := cleanPost{
		title:       utils.SanitizePlain(strings.TrimSpace(in.Title)),
		text:        strings.TrimSpace(utils.Sanitize(in.Text)),
		pubDate:     in.PubDate.UTC(),
		isPublished: in.IsPublished == nil || *in.IsPublished,
		locationID:  nonZero(in.LocationID),
		categoryID:  nonZero(in.CategoryID),
	}
	checkRequired(errs, "title", out.title, limits.TitleMaxLen)
	if out.text == "" {
		errs.Add("text", "this field is required")
	}
	if in.PubDate.IsZero() {
		errs.Add("pub_date", "this field is required")
	}
	return out
}

func (in CommentInput) clean(limits config.BlogConfig, errs *ValidationError) string {
	text := strings.TrimSpace(utils.Sanitize(in.Text))
	checkRequired(errs, "text", text, limits.CommentMaxLen)
	return text
}

func (in ProfileInput) clean(errs *ValidationError) ProfileInput {
	out := ProfileInput{
		Username:  strings.TrimSpace(in.Username),
		Email:     strings.TrimSpace(in.Email),
		FirstName: utils.SanitizePlain(strings.TrimSpace(in.FirstName)),
		LastName:  utils.SanitizePlain(strings.TrimSpace(in.LastName)),
	}
	checkRequired(errs, "username", out.Username, 150)
	if out.Username != "" && !usernamePattern.MatchString(out.Username) {
		errs.Add("username", "may contain only letters, digits and @/./+/-/_")
	}
	if utf8.RuneCountInString(out.FirstName) > 150 {
		errs.Add("first_name", "must be at most 150 characters")
	}
	if utf8.RuneCountInString(out.LastName) > 150 {
		errs.Add("last_name", "must be at most 150 characters")
	}
	return out
}

func (in CategoryInput) clean(limits config.BlogConfig, errs *ValidationError) CategoryInput {
	out := CategoryInput{
		Title:       utils.SanitizePlain(strings.TrimSpace(in.Title)),
		Description: strings.TrimSpace(utils.Sanitize(in.Description)),
		Slug:        strings.TrimSpace(in.Slug),
		IsPublished: in.IsPublished,
	}
	checkRequired(errs, "title", out.Title, limits.TitleMaxLen)
	checkRequired(errs, "description", out.Description, 0)
	checkRequired(errs, "slug", out.Slug, limits.SlugMaxLen)
	if out.Slug != "" && !slugPattern.MatchString(out.Slug) {
		errs.Add("slug", "may contain only latin letters, digits, hyphens and underscores")
	}
	return out
}

func (in LocationInput) clean(limits config.BlogConfig, errs *ValidationError) LocationInput {
	out := LocationInput{
		Name:        utils.SanitizePlain(strings.TrimSpace(in.Name)),
		IsPublished: in.IsPublished,
	}
	checkRequired(errs, "name", out.Name, limits.NameMaxLen)
	return out
}

// checkRequired flags an empty value or one longer than limit runes (limit <= 0 means unlimited).
func checkRequired(errs *ValidationError, field, value string, limit int) {
	if value == "" {
		errs.Add(field, "this field is required")
		return
	}
	if limit > 0 && utf8.RuneCountInString(value) > limit {
		errs.Add(field, "must be at most "+strconv.Itoa(limit)+" characters")
	}
}

func nonZero(id *uint) *uint {
	if id == nil || *id == 0 {
		return nil
	}
	return id
}

// ValidUsername reports whether s is a non-empty username of letters, digits and @.+-_ up to 150 characters.
func ValidUsername(s string) bool {
	return s != "" && utf8.RuneCountInString(s) <= 150 && usernamePattern.MatchString(s)
}
