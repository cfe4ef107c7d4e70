package user

import (
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/darasa/core"
)

// Role is the closed set of account kinds. Each role owns one dashboard subtree.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
)

var (
	AllRoles = []Role{RoleStudent, RoleInstructor}

	errInvalidRole = errors.New("invalid role")
)

// ParseRole converts a raw role name. An empty name is a student.
func ParseRole(s string) (Role, error) {
	switch Role(core.CleanString(s, true /* lower */)) {
	case "", RoleStudent:
		return RoleStudent, nil
	case RoleInstructor:
		return RoleInstructor, nil
	default:
		return "", errors.Wrap(errInvalidRole, s)
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor:
		return true
	default:
		return false
	}
}

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash []byte `json:"-"`
	Role         Role   `json:"role"`
	Avatar       string `json:"avatar"`

	// student collections
	EnrolledCourses  []string `json:"enrolledCourses,omitempty"`
	CompletedLessons []string `json:"completedLessons,omitempty"`
	// instructor collections
	Courses []string `json:"courses,omitempty"`

	Phone     string   `json:"phone,omitempty"`
	Location  string   `json:"location,omitempty"`
	Website   string   `json:"website,omitempty"`
	Bio       string   `json:"bio,omitempty"`
	Skills    []string `json:"skills,omitempty"`
	Interests []string `json:"interests,omitempty"`

	CreatedAt time.Time `json:"createdAt"` // UTC
	UpdatedAt time.Time `json:"updatedAt"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// Sanitized returns a copy of the User without its credential.
func (u User) Sanitized() User {
	u.PasswordHash = nil
	return u
}

func (u User) IsStudent() bool    { return u.Role == RoleStudent }
func (u User) IsInstructor() bool { return u.Role == RoleInstructor }

func (u User) IsEnrolled(courseID string) bool { return contains(u.EnrolledCourses, courseID) }

func (u User) HasCompleted(lessonID string) bool { return contains(u.CompletedLessons, lessonID) }

// NewUser contains information needed to register a new User.
type NewUser struct {
	Name     string `json:"name" validate:"required,notblank"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     Role   `json:"role" validate:"omitempty,role"`
}

// Clean normalizes the input the way lookups expect it.
func (nu *NewUser) Clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	if nu.Role == "" {
		nu.Role = RoleStudent
	}
}

// UpdateProfile holds the partial fields merged into a User. Nil fields are left untouched.
type UpdateProfile struct {
	Name             *string  `json:"name" validate:"omitempty,notblank,max=100"`
	Email            *string  `json:"email" validate:"omitempty,email,max=254"`
	Avatar           *string  `json:"avatar" validate:"omitempty,url,max=300"`
	Phone            *string  `json:"phone" validate:"omitempty,max=30"`
	Location         *string  `json:"location" validate:"omitempty,max=100"`
	Website          *string  `json:"website" validate:"omitempty,url,max=200"`
	Bio              *string  `json:"bio" validate:"omitempty,max=500"`
	Skills           []string `json:"skills" validate:"omitempty,max=10,dive,max=30"`
	Interests        []string `json:"interests" validate:"omitempty,max=10,dive,max=30"`
	EnrolledCourses  []string `json:"-"`
	CompletedLessons []string `json:"-"`
}

// Clean normalizes set fields.
func (up *UpdateProfile) Clean() {
	if up.Name != nil {
		name := core.CleanString(*up.Name)
		up.Name = &name
	}
	if up.Email != nil {
		email := core.CleanString(*up.Email, true /* lower */)
		up.Email = &email
	}
	up.Skills = cleanTags(up.Skills)
	up.Interests = cleanTags(up.Interests)
}

// Apply merges the set fields into usr.
func (up UpdateProfile) Apply(usr *User) {
	setStr := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setStr(&usr.Name, up.Name)
	setStr(&usr.Email, up.Email)
	setStr(&usr.Avatar, up.Avatar)
	setStr(&usr.Phone, up.Phone)
	setStr(&usr.Location, up.Location)
	setStr(&usr.Website, up.Website)
	setStr(&usr.Bio, up.Bio)
	if up.Skills != nil {
		usr.Skills = append([]string(nil), up.Skills...)
	}
	if up.Interests != nil {
		usr.Interests = append([]string(nil), up.Interests...)
	}
	if up.EnrolledCourses != nil {
		usr.EnrolledCourses = append([]string(nil), up.EnrolledCourses...)
	}
	if up.CompletedLessons != nil {
		usr.CompletedLessons = append([]string(nil), up.CompletedLessons...)
	}
}

// cleanTags trims tags and drops blanks and duplicates, keeping order.
func cleanTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = core.CleanString(tag)
		if tag != "" && !contains(cleaned, tag) {
			cleaned = append(cleaned, tag)
		}
	}
	return cleaned
}

func contains(items []string, item string) bool {
	for _, it := range items {
		if it == item {
			return true
		}
	}
	return false
}

// AppendUnique returns items with item appended, unless already present.
func AppendUnique(items []string, item string) ([]string, bool) {
	if contains(items, item) {
		return items, false
	}
	return append(append(make([]string, 0, len(items)+1), items...), item), true
}
