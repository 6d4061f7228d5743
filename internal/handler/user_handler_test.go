package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ggonzalesd/UniTable/shared/apperrors"
	"github.com/ggonzalesd/UniTable/shared/cqrs"
	"github.com/ggonzalesd/UniTable/shared/models"
	"github.com/gin-gonic/gin"
)

// ---- mock implementations ----

type mockUserCommander struct {
	registerFn func(cqrs.RegisterUserCommand) (*models.User, error)
	updateFn   func(cqrs.UpdateProfileCommand) (*models.User, error)
	deleteFn   func(cqrs.DeleteUserCommand) error
	followFn   func(cqrs.ToggleFollowCommand) (bool, error)
	premiumFn  func(cqrs.TogglePremiumCommand) (bool, error)
	joinFn     func(cqrs.JoinGroupCommand) ([]models.Group, error)
}

func (m *mockUserCommander) Register(_ context.Context, cmd cqrs.RegisterUserCommand) (*models.User, error) {
	if m.registerFn != nil {
		return m.registerFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockUserCommander) UpdateProfile(_ context.Context, cmd cqrs.UpdateProfileCommand) (*models.User, error) {
	if m.updateFn != nil {
		return m.updateFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockUserCommander) DeleteUser(_ context.Context, cmd cqrs.DeleteUserCommand) error {
	if m.deleteFn != nil {
		return m.deleteFn(cmd)
	}
	return fmt.Errorf("not configured")
}
func (m *mockUserCommander) ToggleFollow(_ context.Context, cmd cqrs.ToggleFollowCommand) (bool, error) {
	if m.followFn != nil {
		return m.followFn(cmd)
	}
	return false, fmt.Errorf("not configured")
}
func (m *mockUserCommander) TogglePremium(_ context.Context, cmd cqrs.TogglePremiumCommand) (bool, error) {
	if m.premiumFn != nil {
		return m.premiumFn(cmd)
	}
	return false, fmt.Errorf("not configured")
}
func (m *mockUserCommander) JoinGroup(_ context.Context, cmd cqrs.JoinGroupCommand) ([]models.Group, error) {
	if m.joinFn != nil {
		return m.joinFn(cmd)
	}
	return nil, fmt.Errorf("not configured")
}

type mockUserQuerier struct {
	getFn        func(cqrs.GetUserQuery) (*models.User, error)
	findFn       func(cqrs.FindByNameQuery) ([]models.UserView, error)
	listFn       func() ([]models.UserView, error)
	candidatesFn func(cqrs.ListFollowCandidatesQuery) ([]models.FollowCandidate, error)
	contactsFn   func(cqrs.ListContactsQuery) ([]models.UserView, error)
	rewardsFn    func(cqrs.ListRewardsQuery) ([]models.Reward, error)
	activitiesFn func(cqrs.ListActivitiesQuery) ([]models.Activity, error)
	groupsFn     func(cqrs.ListUserGroupsQuery) ([]models.Group, error)
}

func (m *mockUserQuerier) GetUser(_ context.Context, q cqrs.GetUserQuery) (*models.User, error) {
	if m.getFn != nil {
		return m.getFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockUserQuerier) FindByName(_ context.Context, q cqrs.FindByNameQuery) ([]models.UserView, error) {
	if m.findFn != nil {
		return m.findFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockUserQuerier) ListUsers(context.Context) ([]models.UserView, error) {
	if m.listFn != nil {
		return m.listFn()
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockUserQuerier) ListFollowCandidates(_ context.Context, q cqrs.ListFollowCandidatesQuery) ([]models.FollowCandidate, error) {
	if m.candidatesFn != nil {
		return m.candidatesFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockUserQuerier) ListContacts(_ context.Context, q cqrs.ListContactsQuery) ([]models.UserView, error) {
	if m.contactsFn != nil {
		return m.contactsFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockUserQuerier) ListRewards(_ context.Context, q cqrs.ListRewardsQuery) ([]models.Reward, error) {
	if m.rewardsFn != nil {
		return m.rewardsFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockUserQuerier) ListActivities(_ context.Context, q cqrs.ListActivitiesQuery) ([]models.Activity, error) {
	if m.activitiesFn != nil {
		return m.activitiesFn(q)
	}
	return nil, fmt.Errorf("not configured")
}
func (m *mockUserQuerier) ListUserGroups(_ context.Context, q cqrs.ListUserGroupsQuery) ([]models.Group, error) {
	if m.groupsFn != nil {
		return m.groupsFn(q)
	}
	return nil, fmt.Errorf("not configured")
}

// ---- helpers ----

func fakeAuthUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set("userId", userID)
		}
		c.Next()
	}
}

func newUserTestRouter(cmds UserCommander, qrys UserQuerier, authUserID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(fakeAuthUser(authUserID))
	h := NewUserHandler(cmds, qrys)
	users := r.Group("/v1/users")
	users.POST("", h.Register)
	users.GET("", h.ListUsers)
	users.GET("/:userId", h.GetUser)
	users.POST("/:userId/follow", h.ToggleFollow)
	me := r.Group("/v1/me")
	me.GET("", h.GetCurrentUser)
	me.PUT("", h.UpdateProfile)
	me.DELETE("", h.DeleteCurrentUser)
	me.POST("/premium", h.TogglePremium)
	me.GET("/contacts", h.ListContacts)
	me.GET("/follow-candidates", h.ListFollowCandidates)
	me.GET("/groups", h.ListGroups)
	me.POST("/groups/:groupId", h.JoinGroup)
	me.GET("/rewards", h.ListRewards)
	me.GET("/activities", h.ListActivities)
	return r
}

func doRequest(router *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, url, nil)
	if body != nil {
		b, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, url, strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ---- test data ----

var uTestUser = &models.User{
	ID: "usr-001", Names: "Ana", Surnames: "Lopez", Email: "ana@x.com",
	PasswordHash: "$2a$10$secret", Program: "CS",
	Groups: []models.Group{}, Contacts: []models.UserView{},
	CreatedAt: time.Now(), UpdatedAt: time.Now(),
}

func uValidUserBody() map[string]interface{} {
	return map[string]interface{}{
		"names": "Ana", "surnames": "Lopez", "email": "ana@x.com",
		"password": "p1", "program": "CS",
	}
}

// ---- tests ----

func TestRegister(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		registerFn     func(cqrs.RegisterUserCommand) (*models.User, error)
		expectedStatus int
	}{
		{
			name:           "success - creates new user",
			body:           uValidUserBody(),
			registerFn:     func(cmd cqrs.RegisterUserCommand) (*models.User, error) { return uTestUser, nil },
			expectedStatus: http.StatusCreated,
		},
		{
			name: "bad request - invalid user data",
			body: map[string]interface{}{"email": "not-valid"},
			registerFn: func(cmd cqrs.RegisterUserCommand) (*models.User, error) {
				return nil, apperrors.Validation("invalid user data", apperrors.FieldError{Field: "Email", Type: "email"})
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - malformed body",
			body:           "not json",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "conflict - email already registered",
			body: uValidUserBody(),
			registerFn: func(cmd cqrs.RegisterUserCommand) (*models.User, error) {
				return nil, apperrors.Conflict("email is already registered")
			},
			expectedStatus: http.StatusConflict,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := &mockUserCommander{registerFn: tt.registerFn}
			router := newUserTestRouter(cmds, &mockUserQuerier{}, "")
			w := doRequest(router, http.MethodPost, "/v1/users", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestRegister_HidesPasswordHash(t *testing.T) {
	cmds := &mockUserCommander{registerFn: func(cqrs.RegisterUserCommand) (*models.User, error) { return uTestUser, nil }}
	router := newUserTestRouter(cmds, &mockUserQuerier{}, "")
	w := doRequest(router, http.MethodPost, "/v1/users", uValidUserBody())
	if strings.Contains(w.Body.String(), "secret") {
		t.Errorf("password hash leaked: %s", w.Body.String())
	}
}

func TestGetUser(t *testing.T) {
	tests := []struct {
		name           string
		urlUserID      string
		getFn          func(cqrs.GetUserQuery) (*models.User, error)
		expectedStatus int
	}{
		{
			name:           "success - fetch user by id",
			urlUserID:      "usr-001",
			getFn:          func(q cqrs.GetUserQuery) (*models.User, error) { return uTestUser, nil },
			expectedStatus: http.StatusOK,
		},
		{
			name:           "bad request - malformed id",
			urlUserID:      "acc-001",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:      "not found - user does not exist",
			urlUserID: "usr-999",
			getFn: func(q cqrs.GetUserQuery) (*models.User, error) {
				return nil, apperrors.NotFoundByID("user", q.UserID)
			},
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newUserTestRouter(&mockUserCommander{}, &mockUserQuerier{getFn: tt.getFn}, "usr-001")
			w := doRequest(router, http.MethodGet, "/v1/users/"+tt.urlUserID, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetCurrentUser(t *testing.T) {
	tests := []struct {
		name           string
		authUserID     string
		expectedStatus int
	}{
		{name: "success - authenticated", authUserID: "usr-001", expectedStatus: http.StatusOK},
		{name: "unauthorised - no identity", authUserID: "", expectedStatus: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qrys := &mockUserQuerier{getFn: func(q cqrs.GetUserQuery) (*models.User, error) {
				if q.UserID != "usr-001" {
					t.Errorf("expected query for usr-001, got %s", q.UserID)
				}
				return uTestUser, nil
			}}
			router := newUserTestRouter(&mockUserCommander{}, qrys, tt.authUserID)
			w := doRequest(router, http.MethodGet, "/v1/me", nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestListUsers(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		findFn         func(cqrs.FindByNameQuery) ([]models.UserView, error)
		expectedStatus int
	}{
		{
			name:           "success - list every user",
			url:            "/v1/users",
			expectedStatus: http.StatusOK,
		},
		{
			name: "success - find by name",
			url:  "/v1/users?names=Ana&surnames=Lopez",
			findFn: func(q cqrs.FindByNameQuery) ([]models.UserView, error) {
				return []models.UserView{uTestUser.View()}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "not found - nobody with that name",
			url:  "/v1/users?names=Zoe&surnames=Lopez",
			findFn: func(q cqrs.FindByNameQuery) ([]models.UserView, error) {
				return nil, apperrors.NotFound("no user named Zoe Lopez")
			},
			expectedStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qrys := &mockUserQuerier{
				findFn: tt.findFn,
				listFn: func() ([]models.UserView, error) { return []models.UserView{}, nil },
			}
			router := newUserTestRouter(&mockUserCommander{}, qrys, "usr-001")
			w := doRequest(router, http.MethodGet, tt.url, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestUpdateProfile(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		updateFn       func(cqrs.UpdateProfileCommand) (*models.User, error)
		expectedStatus int
	}{
		{
			name: "success - update own profile",
			body: uValidUserBody(),
			updateFn: func(cmd cqrs.UpdateProfileCommand) (*models.User, error) {
				if cmd.UserID != "usr-001" {
					return nil, fmt.Errorf("unexpected user %s", cmd.UserID)
				}
				return uTestUser, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "conflict - email taken",
			body: uValidUserBody(),
			updateFn: func(cmd cqrs.UpdateProfileCommand) (*models.User, error) {
				return nil, apperrors.Conflict("email is already registered")
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "bad request - invalid data",
			body: map[string]interface{}{},
			updateFn: func(cmd cqrs.UpdateProfileCommand) (*models.User, error) {
				return nil, apperrors.Validation("invalid user data")
			},
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := &mockUserCommander{updateFn: tt.updateFn}
			router := newUserTestRouter(cmds, &mockUserQuerier{}, "usr-001")
			w := doRequest(router, http.MethodPut, "/v1/me", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestDeleteCurrentUser(t *testing.T) {
	tests := []struct {
		name           string
		deleteFn       func(cqrs.DeleteUserCommand) error
		expectedStatus int
	}{
		{
			name:           "success - delete own account",
			deleteFn:       func(cmd cqrs.DeleteUserCommand) error { return nil },
			expectedStatus: http.StatusNoContent,
		},
		{
			name:           "not found - user does not exist",
			deleteFn:       func(cmd cqrs.DeleteUserCommand) error { return apperrors.NotFoundByID("user", cmd.UserID) },
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "server error - store failure",
			deleteFn:       func(cmd cqrs.DeleteUserCommand) error { return apperrors.General(fmt.Errorf("tx aborted")) },
			expectedStatus: http.StatusInternalServerError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := &mockUserCommander{deleteFn: tt.deleteFn}
			router := newUserTestRouter(cmds, &mockUserQuerier{}, "usr-001")
			w := doRequest(router, http.MethodDelete, "/v1/me", nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestToggleFollow(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		followFn       func(cqrs.ToggleFollowCommand) (bool, error)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "success - follow",
			target:         "usr-002",
			followFn:       func(cmd cqrs.ToggleFollowCommand) (bool, error) { return true, nil },
			expectedStatus: http.StatusOK,
			expectedBody:   `{"following":true}`,
		},
		{
			name:           "success - unfollow",
			target:         "usr-002",
			followFn:       func(cmd cqrs.ToggleFollowCommand) (bool, error) { return false, nil },
			expectedStatus: http.StatusOK,
			expectedBody:   `{"following":false}`,
		},
		{
			name:   "bad request - follow self",
			target: "usr-001",
			followFn: func(cmd cqrs.ToggleFollowCommand) (bool, error) {
				return false, apperrors.Validation("a user cannot follow themselves")
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "bad request - malformed id",
			target:         "nope",
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := &mockUserCommander{followFn: tt.followFn}
			router := newUserTestRouter(cmds, &mockUserQuerier{}, "usr-001")
			w := doRequest(router, http.MethodPost, "/v1/users/"+tt.target+"/follow", nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedBody != "" && w.Body.String() != tt.expectedBody {
				t.Errorf("[%s] expected body %s, got %s", tt.name, tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestTogglePremium(t *testing.T) {
	cmds := &mockUserCommander{premiumFn: func(cmd cqrs.TogglePremiumCommand) (bool, error) { return true, nil }}
	router := newUserTestRouter(cmds, &mockUserQuerier{}, "usr-001")
	w := doRequest(router, http.MethodPost, "/v1/me/premium", nil)
	if w.Code != http.StatusOK || w.Body.String() != `{"isPremium":true}` {
		t.Errorf("expected 200 {\"isPremium\":true}, got %d %s", w.Code, w.Body.String())
	}
}

func TestJoinGroup(t *testing.T) {
	tests := []struct {
		name           string
		groupID        string
		joinFn         func(cqrs.JoinGroupCommand) ([]models.Group, error)
		expectedStatus int
	}{
		{
			name:    "success - join group",
			groupID: "grp-001",
			joinFn: func(cmd cqrs.JoinGroupCommand) ([]models.Group, error) {
				return []models.Group{{ID: cmd.GroupID, Name: "Algebra"}}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:    "not found - group does not exist",
			groupID: "grp-999",
			joinFn: func(cmd cqrs.JoinGroupCommand) ([]models.Group, error) {
				return nil, apperrors.NotFoundByID("group", cmd.GroupID)
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "bad request - malformed id",
			groupID:        "usr-001",
			expectedStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := &mockUserCommander{joinFn: tt.joinFn}
			router := newUserTestRouter(cmds, &mockUserQuerier{}, "usr-001")
			w := doRequest(router, http.MethodPost, "/v1/me/groups/"+tt.groupID, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.name, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}

func TestCurrentUserLists(t *testing.T) {
	missing := apperrors.NotFoundByID("user", "usr-001")
	qrys := &mockUserQuerier{
		contactsFn: func(cqrs.ListContactsQuery) ([]models.UserView, error) { return []models.UserView{}, nil },
		candidatesFn: func(cqrs.ListFollowCandidatesQuery) ([]models.FollowCandidate, error) {
			return []models.FollowCandidate{}, nil
		},
		groupsFn:     func(cqrs.ListUserGroupsQuery) ([]models.Group, error) { return []models.Group{}, nil },
		rewardsFn:    func(cqrs.ListRewardsQuery) ([]models.Reward, error) { return []models.Reward{}, nil },
		activitiesFn: func(cqrs.ListActivitiesQuery) ([]models.Activity, error) { return nil, missing },
	}
	tests := []struct {
		url            string
		expectedStatus int
	}{
		{"/v1/me/contacts", http.StatusOK},
		{"/v1/me/follow-candidates", http.StatusOK},
		{"/v1/me/groups", http.StatusOK},
		{"/v1/me/rewards", http.StatusOK},
		{"/v1/me/activities", http.StatusNotFound},
	}
	router := newUserTestRouter(&mockUserCommander{}, qrys, "usr-001")
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			w := doRequest(router, http.MethodGet, tt.url, nil)
			if w.Code != tt.expectedStatus {
				t.Errorf("[%s] expected status %d, got %d; body: %s", tt.url, tt.expectedStatus, w.Code, w.Body.String())
			}
		})
	}
}
