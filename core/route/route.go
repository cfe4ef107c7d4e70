// Package route maps paths to pages and decides, from the session, whether a page renders or redirects.
package route

import (
	"fmt"
	"strings"

	"github.com/trezcool/darasa/core/user"
)

type Area int

const (
	AreaAuth Area = iota + 1
	AreaStudent
	AreaInstructor
)

func (a Area) String() string {
	switch a {
	case AreaAuth:
		return "auth"
	case AreaStudent:
		return "student"
	case AreaInstructor:
		return "instructor"
	default:
		return fmt.Sprintf("Area(%d)", int(a))
	}
}

// paths
const (
	PathRoot                = "/"
	PathLogin               = "/login"
	PathRegister            = "/register"
	PathForgotPassword      = "/forgot-password"
	PathDashboard           = "/dashboard"
	PathCourses             = "/courses"
	PathCourse              = "/courses/:courseId"
	PathLesson              = "/courses/:courseId/lessons/:lessonId"
	PathProfile             = "/profile"
	PathEditProfile         = "/profile/edit"
	PathInstructorDashboard = "/instructor/dashboard"
	PathInstructorCourses   = "/instructor/courses"
	PathCreateCourse        = "/instructor/courses/create"
	PathEditCourse          = "/instructor/courses/:courseId/edit"
)

type Route struct {
	Name    string
	Pattern string
	Area    Area
	Title   string
}

// Table lists every page. Static patterns come before parametrized siblings.
var Table = []Route{
	{Name: "login", Pattern: PathLogin, Area: AreaAuth, Title: "Login"},
	{Name: "register", Pattern: PathRegister, Area: AreaAuth, Title: "Register"},
	{Name: "forgotPassword", Pattern: PathForgotPassword, Area: AreaAuth, Title: "Forgot Password"},

	{Name: "dashboard", Pattern: PathDashboard, Area: AreaStudent, Title: "Dashboard"},
	{Name: "courses", Pattern: PathCourses, Area: AreaStudent, Title: "Course Catalog"},
	{Name: "lesson", Pattern: PathLesson, Area: AreaStudent, Title: "Lesson"},
	{Name: "course", Pattern: PathCourse, Area: AreaStudent, Title: "Course Details"},
	{Name: "profile", Pattern: PathProfile, Area: AreaStudent, Title: "Profile"},
	{Name: "editProfile", Pattern: PathEditProfile, Area: AreaStudent, Title: "Edit Profile"},

	{Name: "instructorDashboard", Pattern: PathInstructorDashboard, Area: AreaInstructor, Title: "Dashboard"},
	{Name: "instructorCourses", Pattern: PathInstructorCourses, Area: AreaInstructor, Title: "Course Management"},
	{Name: "createCourse", Pattern: PathCreateCourse, Area: AreaInstructor, Title: "Create New Course"},
	{Name: "editCourse", Pattern: PathEditCourse, Area: AreaInstructor, Title: "Edit Course"},
}

// Params holds the values of a pattern's `:name` segments.
type Params map[string]string

// Decision is the outcome of resolving a path: either a page to render or a redirect target.
type Decision struct {
	Route    Route
	Params   Params
	Redirect string
}

func (d Decision) IsRedirect() bool { return d.Redirect != "" }

// Lookup finds a route by pattern.
func Lookup(pattern string) (Route, bool) {
	for _, r := range Table {
		if r.Pattern == pattern {
			return r, true
		}
	}
	return Route{}, false
}

// Match finds the route serving path.
func Match(path string) (Route, Params, bool) {
	segs := split(path)
	for _, r := range Table {
		if params, ok := matchSegments(split(r.Pattern), segs); ok {
			return r, params, true
		}
	}
	return Route{}, nil, false
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func matchSegments(pattern, segs []string) (Params, bool) {
	if len(pattern) != len(segs) {
		return nil, false
	}
	params := make(Params)
	for i, p := range pattern {
		if strings.HasPrefix(p, ":") {
			if segs[i] == "" {
				return nil, false
			}
			params[p[1:]] = segs[i]
		} else if p != segs[i] {
			return nil, false
		}
	}
	return params, true
}

// Home is the dashboard root of a role.
func Home(role user.Role) string {
	switch role {
	case user.RoleStudent:
		return PathDashboard
	case user.RoleInstructor:
		return PathInstructorDashboard
	default:
		return PathLogin
	}
}

// Guard decides whether usr (nil when anonymous) may see a page of area.
// It returns the redirect target, or "" when the page renders.
func Guard(area Area, usr *user.User) string {
	switch area {
	case AreaAuth:
		if usr != nil {
			return Home(usr.Role)
		}
		return ""
	case AreaStudent, AreaInstructor:
		if usr == nil {
			return PathLogin
		}
		if !usr.Role.Valid() {
			return PathLogin
		}
		if area != areaOf(usr.Role) {
			return Home(usr.Role)
		}
		return ""
	default:
		return PathDashboard
	}
}

func areaOf(role user.Role) Area {
	switch role {
	case user.RoleStudent:
		return AreaStudent
	case user.RoleInstructor:
		return AreaInstructor
	default:
		return 0
	}
}

// Resolve matches path and applies Guard. The root and unknown paths redirect to the student dashboard.
func Resolve(path string, usr *user.User) Decision {
	r, params, ok := Match(path)
	if !ok {
		return Decision{Redirect: PathDashboard}
	}
	if to := Guard(r.Area, usr); to != "" {
		return Decision{Route: r, Params: params, Redirect: to}
	}
	return Decision{Route: r, Params: params}
}

// Follow resolves path and every redirect after it, like a browser would.
// It returns the final Decision and the chain of visited paths.
func Follow(path string, usr *user.User) (Decision, []string) {
	const maxHops = 5
	visited := []string{path}
	d := Resolve(path, usr)
	for hops := 0; d.IsRedirect() && hops < maxHops; hops++ {
		visited = append(visited, d.Redirect)
		d = Resolve(d.Redirect, usr)
	}
	return d, visited
}

// Build fills the `:name` segments of pattern.
func Build(pattern string, params Params) string {
	segs := split(pattern)
	for i, s := range segs {
		if strings.HasPrefix(s, ":") {
			segs[i] = params[s[1:]]
		}
	}
	return "/" + strings.Join(segs, "/")
}
