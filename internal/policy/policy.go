// Package policy holds the role and ownership rules of every resource in one table.
package policy

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/SAP-F-2025/elearning-service/internal/models"
)

type Action string

const (
	ActionList     Action = "list"
	ActionRetrieve Action = "retrieve"
	ActionCreate   Action = "create"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
)

// Scope narrows the rows a role sees when listing a resource
type Scope string

const (
	// ScopeAll applies no filter
	ScopeAll Scope = "all"
	// ScopeOwned keeps rows the user owns through the resource's owner chain
	ScopeOwned Scope = "owned"
	// ScopeSelf keeps rows whose user_id is the requester
	ScopeSelf Scope = "self"
	// ScopeEnrolled keeps rows of courses the requester is enrolled in
	ScopeEnrolled Scope = "enrolled"
)

// Resource names, also used in routes and error codes
const (
	Users           = "users"
	Languages       = "languages"
	Camps           = "camps"
	Categories      = "course-categories"
	Courses         = "courses"
	Modules         = "modules"
	Enrollments     = "enrollments"
	Progress        = "progress"
	Assessments     = "assessments"
	Questions       = "questions"
	UserAssessments = "user-assessments"
	Certifications  = "certifications"
	Discussions     = "discussions"
	Replies         = "replies"
	Jobs            = "jobs"
	Applications    = "applications"
	PeerSessions    = "peer-sessions"
)

var codeNames = map[string]string{
	Users:           "USER",
	Languages:       "LANGUAGE",
	Camps:           "CAMP",
	Categories:      "CATEGORY",
	Courses:         "COURSE",
	Modules:         "MODULE",
	Enrollments:     "ENROLLMENT",
	Progress:        "PROGRESS",
	Assessments:     "ASSESSMENT",
	Questions:       "QUESTION",
	UserAssessments: "USER_ASSESSMENT",
	Certifications:  "CERTIFICATION",
	Discussions:     "DISCUSSION",
	Replies:         "REPLY",
	Jobs:            "JOB",
	Applications:    "APPLICATION",
	PeerSessions:    "PEER_SESSION",
}

// CodeName is the upper-case singular used in error codes, e.g. COURSE_NOT_FOUND
func CodeName(resource string) string {
	if name, ok := codeNames[resource]; ok {
		return name
	}
	return strings.ToUpper(strings.NewReplacer("-", "_").Replace(resource))
}

const (
	CodeNotAuthenticated = "NOT_AUTHENTICATED"
	CodeUserInactive     = "USER_INACTIVE"
	CodeUserNotVerified  = "USER_NOT_VERIFIED"
	CodeInvalidRole      = "INVALID_ROLE"
	CodePermissionDenied = "PERMISSION_DENIED"
)

// Actor is the authenticated requester
type Actor struct {
	ID         uint
	Role       models.UserRole
	IsActive   bool
	IsVerified bool
}

// ActorFromUser builds an Actor from a stored user
func ActorFromUser(u *models.User) *Actor {
	if u == nil {
		return nil
	}
	return &Actor{ID: u.ID, Role: u.Role, IsActive: u.IsActive, IsVerified: u.IsVerified}
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == models.RoleAdmin
}

// Owned is implemented by every record that names its owners
type Owned interface {
	OwnerIDs() []uint
}

// Rule governs one action on a resource. Empty Roles admits every role; Owned
// requires the actor to be among the object's owners.
type Rule struct {
	Roles      []models.UserRole
	Owned      bool
	DeniedCode string
}

type Policy struct {
	Rules        map[Action]Rule
	Scopes       map[models.UserRole]Scope
	DefaultScope Scope
}

// Violation is a denied authorization decision
type Violation struct {
	Code    string
	Message string
	Status  int
}

func (v *Violation) Error() string {
	return v.Message
}

var (
	instructorOnly = []models.UserRole{models.RoleAdmin, models.RoleInstructor}
	adminOnly      = []models.UserRole{models.RoleAdmin}
	peerHosts      = []models.UserRole{models.RoleAdmin, models.RoleInstructor, models.RoleMentor}
	ownerRule      = Rule{Owned: true}
)

func catalogPolicy() Policy {
	return Policy{
		Rules: map[Action]Rule{
			ActionCreate: {Roles: adminOnly},
			ActionUpdate: {Roles: adminOnly},
			ActionDelete: {Roles: adminOnly},
		},
		DefaultScope: ScopeAll,
	}
}

func courseContentPolicy(defaultScope Scope) Policy {
	return Policy{
		Rules: map[Action]Rule{
			ActionCreate: {Roles: instructorOnly, Owned: true},
			ActionUpdate: {Roles: instructorOnly, Owned: true},
			ActionDelete: {Roles: instructorOnly, Owned: true},
		},
		Scopes:       map[models.UserRole]Scope{models.RoleInstructor: ScopeOwned},
		DefaultScope: defaultScope,
	}
}

// Table is the policy of every resource
var Table = map[string]Policy{
	Users: {
		Rules: map[Action]Rule{
			ActionList:   {Roles: adminOnly},
			ActionCreate: {Roles: adminOnly},
			ActionUpdate: ownerRule,
			ActionDelete: {Roles: adminOnly},
		},
		Scopes:       map[models.UserRole]Scope{},
		DefaultScope: ScopeSelf,
	},
	Languages:  catalogPolicy(),
	Camps:      catalogPolicy(),
	Categories: catalogPolicy(),
	Courses: {
		Rules: map[Action]Rule{
			ActionCreate: {Roles: instructorOnly},
			ActionUpdate: {Roles: instructorOnly, Owned: true},
			ActionDelete: {Roles: instructorOnly, Owned: true},
		},
		Scopes:       map[models.UserRole]Scope{models.RoleInstructor: ScopeOwned},
		DefaultScope: ScopeAll,
	},
	Modules: courseContentPolicy(ScopeAll),
	Assessments: {
		Rules: map[Action]Rule{
			ActionCreate: {Roles: instructorOnly, Owned: true},
			ActionUpdate: {Roles: instructorOnly, Owned: true},
			ActionDelete: {Roles: instructorOnly, Owned: true},
		},
		Scopes:       map[models.UserRole]Scope{models.RoleInstructor: ScopeOwned, models.RoleAdmin: ScopeAll},
		DefaultScope: ScopeEnrolled,
	},
	Questions: courseContentPolicy(ScopeAll),
	Enrollments: {
		Rules: map[Action]Rule{
			ActionUpdate: ownerRule,
			ActionDelete: ownerRule,
		},
		Scopes:       map[models.UserRole]Scope{models.RoleInstructor: ScopeOwned},
		DefaultScope: ScopeSelf,
	},
	Progress: {
		Rules: map[Action]Rule{
			ActionUpdate: ownerRule,
			ActionDelete: ownerRule,
		},
		Scopes:       map[models.UserRole]Scope{models.RoleInstructor: ScopeOwned},
		DefaultScope: ScopeSelf,
	},
	UserAssessments: {
		Rules: map[Action]Rule{
			ActionUpdate: {Roles: instructorOnly, Owned: true},
			ActionDelete: {Roles: instructorOnly, Owned: true},
		},
		Scopes:       map[models.UserRole]Scope{models.RoleInstructor: ScopeOwned},
		DefaultScope: ScopeSelf,
	},
	Certifications: courseContentPolicy(ScopeSelf),
	Discussions: {
		Rules: map[Action]Rule{
			ActionUpdate: ownerRule,
			ActionDelete: ownerRule,
		},
		Scopes:       map[models.UserRole]Scope{models.RoleInstructor: ScopeOwned},
		DefaultScope: ScopeAll,
	},
	Replies: {
		Rules: map[Action]Rule{
			ActionUpdate: ownerRule,
			ActionDelete: ownerRule,
		},
		Scopes:       map[models.UserRole]Scope{models.RoleInstructor: ScopeOwned},
		DefaultScope: ScopeAll,
	},
	Jobs: {
		Rules: map[Action]Rule{
			ActionCreate: {Roles: models.JobPosterRoles},
			ActionUpdate: {Roles: models.JobPosterRoles, Owned: true, DeniedCode: "UNAUTHORIZED_JOB_ACCESS"},
			ActionDelete: {Roles: models.JobPosterRoles, Owned: true, DeniedCode: "UNAUTHORIZED_JOB_ACCESS"},
		},
		DefaultScope: ScopeAll,
	},
	Applications: {
		Rules: map[Action]Rule{
			ActionRetrieve: ownerRule,
			ActionUpdate:   ownerRule,
			ActionDelete:   {Roles: models.JobPosterRoles, Owned: true},
		},
		Scopes: map[models.UserRole]Scope{
			models.RoleEmployer:   ScopeOwned,
			models.RoleInstructor: ScopeOwned,
			models.RoleMentor:     ScopeOwned,
			models.RoleNGOPartner: ScopeOwned,
		},
		DefaultScope: ScopeSelf,
	},
	PeerSessions: {
		Rules: map[Action]Rule{
			ActionCreate: {Roles: peerHosts},
			ActionUpdate: {Roles: peerHosts, Owned: true},
			ActionDelete: {Roles: peerHosts, Owned: true},
		},
		DefaultScope: ScopeAll,
	},
}

// CheckActor verifies the requester may use the API at all
func CheckActor(actor *Actor) error {
	switch {
	case actor == nil:
		return &Violation{Code: CodeNotAuthenticated, Message: "Authentication credentials were not provided.", Status: http.StatusUnauthorized}
	case !actor.IsActive:
		return &Violation{Code: CodeUserInactive, Message: "User account is inactive.", Status: http.StatusForbidden}
	case !actor.IsVerified:
		return &Violation{Code: CodeUserNotVerified, Message: "User account is not verified.", Status: http.StatusForbidden}
	}
	return nil
}

// RequireRoles fails with INVALID_ROLE unless the actor has one of roles
func RequireRoles(actor *Actor, roles ...models.UserRole) error {
	if err := CheckActor(actor); err != nil {
		return err
	}
	if len(roles) == 0 || actor.IsAdmin() || actor.Role.In(roles...) {
		return nil
	}
	return &Violation{
		Code:    CodeInvalidRole,
		Message: "User must have one of the following roles: " + joinRoles(roles),
		Status:  http.StatusForbidden,
	}
}

// Authorize decides whether actor may perform action on resource. obj is the
// target record for object-level actions, or the parent record on create.
func Authorize(actor *Actor, resource string, action Action, obj Owned) error {
	if err := CheckActor(actor); err != nil {
		return err
	}
	if actor.IsAdmin() {
		return nil
	}

	p, ok := Table[resource]
	if !ok {
		return &Violation{Code: CodePermissionDenied, Message: fmt.Sprintf("No policy for resource %q.", resource), Status: http.StatusForbidden}
	}

	rule, ok := p.Rules[action]
	if !ok {
		return nil
	}
	if err := RequireRoles(actor, rule.Roles...); err != nil {
		return err
	}
	if rule.Owned && obj != nil && !IsOwner(actor, obj) {
		code := rule.DeniedCode
		if code == "" {
			code = CodePermissionDenied
		}
		return &Violation{Code: code, Message: "You do not have permission to perform this action.", Status: http.StatusForbidden}
	}
	return nil
}

// IsOwner reports whether actor is one of obj's owners
func IsOwner(actor *Actor, obj Owned) bool {
	for _, id := range obj.OwnerIDs() {
		if id == actor.ID {
			return true
		}
	}
	return false
}

// ScopeFor returns the list scope of resource for actor
func ScopeFor(actor *Actor, resource string) Scope {
	if actor == nil {
		return ScopeSelf
	}
	p, ok := Table[resource]
	if !ok {
		return ScopeSelf
	}
	if scope, ok := p.Scopes[actor.Role]; ok {
		return scope
	}
	if actor.IsAdmin() {
		return ScopeAll
	}
	if p.DefaultScope == "" {
		return ScopeAll
	}
	return p.DefaultScope
}

func joinRoles(roles []models.UserRole) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}
