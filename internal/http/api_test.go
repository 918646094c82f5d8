package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microblog/internal/domain"
	"microblog/internal/repository"
	"microblog/internal/repository/mock"
	"microblog/internal/service"
)

type testAPI struct {
	router  *gin.Engine
	handler *Handler
	users   *mock.UserRepository
	groups  *mock.GroupRepository
	posts   *mock.PostRepository
	svc     service.PostService
}

func setupAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	users := mock.NewUserRepository()
	groups := mock.NewGroupRepository()
	posts := mock.NewPostRepository(users, groups)

	postSvc := service.NewPostService(posts, groups, users, nil)
	logger := logrus.New()
	handler := NewHandler(
		postSvc,
		service.NewUserService(users),
		service.NewGroupService(groups),
		nil,
		"test-secret",
		time.Hour,
		"admin-token",
		logger,
	)

	router := gin.New()
	handler.RegisterRoutes(router)

	return &testAPI{
		router:  router,
		handler: handler,
		users:   users,
		groups:  groups,
		posts:   posts,
		svc:     postSvc,
	}
}

func (a *testAPI) addUser(t *testing.T, username string) *domain.User {
	t.Helper()
	user := &domain.User{Username: username, PasswordHash: "x"}
	_, err := a.users.Create(context.Background(), user)
	require.NoError(t, err)
	return user
}

func (a *testAPI) addGroup(t *testing.T, title, slug string) *domain.Group {
	t.Helper()
	group := &domain.Group{Title: title, Slug: slug}
	_, err := a.groups.Create(context.Background(), group)
	require.NoError(t, err)
	return group
}

func (a *testAPI) addPost(t *testing.T, authorID int64, groupID *int64, text string) *domain.Post {
	t.Helper()
	post, err := a.svc.Create(context.Background(), authorID, service.PostForm{Text: text, GroupID: groupID})
	require.NoError(t, err)
	return post
}

func (a *testAPI) token(t *testing.T, user *domain.User) string {
	t.Helper()
	token, err := a.handler.issueToken(user, time.Now())
	require.NoError(t, err)
	return token
}

func (a *testAPI) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst))
}

func TestRoutesSelectExpectedTemplates(t *testing.T) {
	api := setupAPI(t)
	user := api.addUser(t, "AutoTestUser")
	group := api.addGroup(t, "Test group", "test_slug")
	post := api.addPost(t, user.ID, &group.ID, "Тестовый текст #1")
	token := api.token(t, user)

	cases := []struct {
		path     string
		token    string
		template string
	}{
		{"/", "", templateIndex},
		{"/group/test_slug/", "", templateGroupList},
		{"/profile/AutoTestUser/", "", templateProfile},
		{fmt.Sprintf("/posts/%d/", post.ID), "", templatePostDetail},
		{"/create/", token, templateCreatePost},
		{fmt.Sprintf("/posts/%d/edit/", post.ID), token, templateCreatePost},
	}
	for _, tc := range cases {
		w := api.do(http.MethodGet, tc.path, tc.token, "")
		require.Equal(t, http.StatusOK, w.Code, "GET %s", tc.path)

		var resp struct {
			Template string `json:"template"`
		}
		decodeJSON(t, w, &resp)
		assert.Equal(t, tc.template, resp.Template, "GET %s", tc.path)
	}
}

func TestProfileFeedPaginationOverHTTP(t *testing.T) {
	api := setupAPI(t)
	user := api.addUser(t, "u")
	group := api.addGroup(t, "Test group", "test_slug")
	for i := 1; i <= 12; i++ {
		api.addPost(t, user.ID, &group.ID, fmt.Sprintf("запись №%d", i))
	}

	for _, tc := range []struct {
		page  string
		count int
	}{
		{"1", 10},
		{"2", 2},
		{"3", 0},
	} {
		w := api.do(http.MethodGet, "/profile/u/?page="+tc.page, "", "")
		require.Equal(t, http.StatusOK, w.Code, "page %s", tc.page)

		var resp ProfileResponse
		decodeJSON(t, w, &resp)
		assert.Len(t, resp.Page.Items, tc.count, "page %s", tc.page)
		assert.Equal(t, int64(12), resp.Page.TotalItems)
	}
}

func TestFeedAndDetailNotFound(t *testing.T) {
	api := setupAPI(t)
	api.addUser(t, "known")

	for _, path := range []string{
		"/group/no_such_slug/",
		"/profile/no_such_user/",
		"/posts/9000/",
	} {
		w := api.do(http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusNotFound, w.Code, "GET %s", path)
	}
}

func TestCreateRequiresAuthentication(t *testing.T) {
	api := setupAPI(t)

	w := api.do(http.MethodPost, "/create/", "", `{"text":"аноним"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(http.MethodPost, "/create/", "not-a-token", `{"text":"аноним"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	count, err := api.posts.Count(context.Background(), repository.PostFilter{})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateRedirectsToProfile(t *testing.T) {
	api := setupAPI(t)
	user := api.addUser(t, "writer")
	token := api.token(t, user)

	w := api.do(http.MethodPost, "/create/", token, `{"text":"новый пост"}`)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/profile/writer/", w.Header().Get("Location"))

	count, err := api.posts.Count(context.Background(), repository.PostFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCreateWithEmptyTextFailsValidation(t *testing.T) {
	api := setupAPI(t)
	user := api.addUser(t, "writer")
	token := api.token(t, user)

	for _, body := range []string{`{"text":""}`, `{"text":"   "}`} {
		w := api.do(http.MethodPost, "/create/", token, body)
		require.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)

		var resp struct {
			Fields []service.FieldError `json:"fields"`
		}
		decodeJSON(t, w, &resp)
		require.NotEmpty(t, resp.Fields)
		assert.Equal(t, "text", resp.Fields[0].Field)
	}

	count, err := api.posts.Count(context.Background(), repository.PostFilter{})
	require.NoError(t, err)
	assert.Zero(t, count, "failed submissions must not change the post count")
}

func TestEditByNonAuthorDoesNotMutate(t *testing.T) {
	api := setupAPI(t)
	author := api.addUser(t, "u1")
	other := api.addUser(t, "u2")
	post := api.addPost(t, author.ID, nil, "оригинал")

	w := api.do(http.MethodPost, fmt.Sprintf("/posts/%d/edit/", post.ID), api.token(t, other), `{"text":"взлом"}`)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), w.Header().Get("Location"))

	// even an invalid submission bounces a non-author away instead of
	// answering with field errors
	w = api.do(http.MethodPost, fmt.Sprintf("/posts/%d/edit/", post.ID), api.token(t, other), `{"text":"   "}`)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), w.Header().Get("Location"))

	stored, err := api.svc.Get(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, "оригинал", stored.Text)
}

func TestEditByAuthorRedirectsToDetail(t *testing.T) {
	api := setupAPI(t)
	author := api.addUser(t, "u1")
	post := api.addPost(t, author.ID, nil, "оригинал")

	w := api.do(http.MethodPost, fmt.Sprintf("/posts/%d/edit/", post.ID), api.token(t, author), `{"text":"правка"}`)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), w.Header().Get("Location"))

	stored, err := api.svc.Get(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, "правка", stored.Text)
	assert.Equal(t, author.ID, stored.AuthorID)
	assert.True(t, post.CreatedAt.Equal(stored.CreatedAt))
}

func TestRegisterLoginAndPost(t *testing.T) {
	api := setupAPI(t)

	w := api.do(http.MethodPost, "/auth/register", "", `{"username":"fresh","password":"a long password"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = api.do(http.MethodPost, "/auth/login", "", `{"username":"fresh","password":"a long password"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var login struct {
		Token string `json:"token"`
	}
	decodeJSON(t, w, &login)
	require.NotEmpty(t, login.Token)

	w = api.do(http.MethodPost, "/create/", login.Token, `{"text":"первый пост"}`)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	w = api.do(http.MethodPost, "/auth/login", "", `{"username":"fresh","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateGroupRequiresAdminToken(t *testing.T) {
	api := setupAPI(t)
	body := `{"title":"Новая группа","slug":"new_group","description":"о группе"}`

	req := httptest.NewRequest(http.MethodPost, "/groups/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/groups/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Admin-Token", "admin-token")
	w = httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp GroupResponse
	decodeJSON(t, w, &resp)
	assert.Equal(t, "new_group", resp.Slug)
}
