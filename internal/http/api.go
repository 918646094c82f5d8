package http

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"microblog/internal/domain"
	"microblog/internal/service"
	"microblog/internal/storage"
)

// Template identifiers returned with every view result so the rendering
// frontend knows which page to draw.
const (
	templateIndex      = "posts/index.html"
	templateGroupList  = "posts/group_list.html"
	templateProfile    = "posts/profile.html"
	templatePostDetail = "posts/post_detail.html"
	templateCreatePost = "posts/create_post.html"
)

const imageURLTTL = 15 * time.Minute

// Handler wires HTTP routes to domain services.
type Handler struct {
	posts      service.PostService
	users      service.UserService
	groups     service.GroupService
	storage    storage.Service
	jwtSecret  string
	tokenTTL   time.Duration
	adminToken string
	logger     *logrus.Logger
}

func NewHandler(
	posts service.PostService,
	users service.UserService,
	groups service.GroupService,
	store storage.Service,
	jwtSecret string,
	tokenTTL time.Duration,
	adminToken string,
	logger *logrus.Logger,
) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		posts:      posts,
		users:      users,
		groups:     groups,
		storage:    store,
		jwtSecret:  jwtSecret,
		tokenTTL:   tokenTTL,
		adminToken: adminToken,
		logger:     logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	router.GET("/", h.index)
	router.GET("/group/:slug/", h.groupFeed)
	router.GET("/profile/:username/", h.profileFeed)
	router.GET("/posts/:id/", h.postDetail)

	authed := router.Group("/", h.authRequired())
	{
		authed.GET("/create/", h.createForm)
		authed.POST("/create/", h.createPost)
		authed.GET("/posts/:id/edit/", h.editForm)
		authed.POST("/posts/:id/edit/", h.editPost)
		authed.POST("/posts/:id/image", h.uploadImage)
	}

	router.POST("/auth/register", h.register)
	router.POST("/auth/login", h.login)
	router.POST("/groups/", h.createGroup)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// ---- feed views ----

func (h *Handler) index(c *gin.Context) {
	feed, err := h.posts.IndexFeed(c.Request.Context(), pageParam(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, IndexResponse{
		Template: templateIndex,
		Page:     h.pageToResponse(c, feed),
	})
}

func (h *Handler) groupFeed(c *gin.Context) {
	feed, err := h.posts.GroupFeed(c.Request.Context(), c.Param("slug"), pageParam(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, GroupFeedResponse{
		Template: templateGroupList,
		Group:    groupToResponse(*feed.Group),
		Page:     h.pageToResponse(c, feed.Posts),
	})
}

func (h *Handler) profileFeed(c *gin.Context) {
	feed, err := h.posts.ProfileFeed(c.Request.Context(), c.Param("username"), pageParam(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ProfileResponse{
		Template: templateProfile,
		Author:   userToResponse(feed.Author),
		Page:     h.pageToResponse(c, feed.Posts),
	})
}

func (h *Handler) postDetail(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	post, err := h.posts.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, PostDetailResponse{
		Template: templatePostDetail,
		Post:     h.postToResponse(c, *post),
	})
}

// ---- authoring views ----

type postFormRequest struct {
	Text    string `json:"text" form:"text"`
	GroupID *int64 `json:"group" form:"group"`
}

func (h *Handler) createForm(c *gin.Context) {
	h.renderForm(c, nil)
}

func (h *Handler) createPost(c *gin.Context) {
	var req postFormRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := currentUserID(c)
	if _, err := h.posts.Create(c.Request.Context(), userID, service.PostForm{
		Text:    req.Text,
		GroupID: req.GroupID,
	}); err != nil {
		h.respondError(c, err)
		return
	}

	author, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/profile/%s/", author.Username))
}

func (h *Handler) editForm(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	post, err := h.posts.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if post.AuthorID != currentUserID(c) {
		c.Redirect(http.StatusSeeOther, fmt.Sprintf("/posts/%d/", id))
		return
	}
	h.renderForm(c, post)
}

func (h *Handler) editPost(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}
	var req postFormRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, err := h.posts.Edit(c.Request.Context(), currentUserID(c), id, service.PostForm{
		Text:    req.Text,
		GroupID: req.GroupID,
	})
	if errors.Is(err, service.ErrNotAuthor) {
		// Non-authors are sent away, not shown an error page.
		c.Redirect(http.StatusSeeOther, fmt.Sprintf("/posts/%d/", id))
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, fmt.Sprintf("/posts/%d/", id))
}

func (h *Handler) uploadImage(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer src.Close()

	post, err := h.posts.AttachImage(c.Request.Context(), currentUserID(c), id, file.Filename, src, file.Size)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, PostDetailResponse{
		Template: templatePostDetail,
		Post:     h.postToResponse(c, *post),
	})
}

func (h *Handler) renderForm(c *gin.Context, post *domain.Post) {
	groups, err := h.groups.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := FormSchemaResponse{
		Template: templateCreatePost,
		Fields:   service.PostFormFields(),
		Groups:   make([]GroupResponse, len(groups)),
	}
	for i := range groups {
		resp.Groups[i] = groupToResponse(groups[i])
	}
	if post != nil {
		resp.Values = &PostFormValues{
			Text:    post.Text,
			GroupID: post.GroupID,
		}
	}
	c.JSON(http.StatusOK, resp)
}

// ---- auth and administration ----

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": userToResponse(user)})
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, err := h.issueToken(user, time.Now())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user": userToResponse(user)})
}

type createGroupRequest struct {
	Title       string `json:"title" binding:"required"`
	Slug        string `json:"slug" binding:"required"`
	Description string `json:"description"`
}

// createGroup is the administrative entry point for the group catalog,
// guarded by a static admin token rather than user auth.
func (h *Handler) createGroup(c *gin.Context) {
	if h.adminToken == "" ||
		subtle.ConstantTimeCompare([]byte(c.GetHeader("X-Admin-Token")), []byte(h.adminToken)) != 1 {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin token required"})
		return
	}

	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	group, err := h.groups.Create(c.Request.Context(), req.Title, req.Slug, req.Description)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, groupToResponse(*group))
}

// ---- request plumbing ----

func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func postIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrGroupNotFound),
		errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotAuthor):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUserAlreadyExists),
		errors.Is(err, service.ErrGroupAlreadyExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// ---- view results ----

type UserResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type GroupResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type PostResponse struct {
	ID        int64          `json:"id"`
	Text      string         `json:"text"`
	Author    UserResponse   `json:"author"`
	Group     *GroupResponse `json:"group,omitempty"`
	ImageURL  string         `json:"image_url,omitempty"`
	CreatedAt string         `json:"created_at"`
	UpdatedAt string         `json:"updated_at"`
}

type PageResponse struct {
	Number      int            `json:"number"`
	Size        int            `json:"size"`
	TotalItems  int64          `json:"total_items"`
	TotalPages  int            `json:"total_pages"`
	HasNext     bool           `json:"has_next"`
	HasPrevious bool           `json:"has_previous"`
	Items       []PostResponse `json:"items"`
}

type IndexResponse struct {
	Template string       `json:"template"`
	Page     PageResponse `json:"page"`
}

type GroupFeedResponse struct {
	Template string        `json:"template"`
	Group    GroupResponse `json:"group"`
	Page     PageResponse  `json:"page"`
}

type ProfileResponse struct {
	Template string       `json:"template"`
	Author   UserResponse `json:"author"`
	Page     PageResponse `json:"page"`
}

type PostDetailResponse struct {
	Template string       `json:"template"`
	Post     PostResponse `json:"post"`
}

type PostFormValues struct {
	Text    string `json:"text"`
	GroupID *int64 `json:"group,omitempty"`
}

type FormSchemaResponse struct {
	Template string              `json:"template"`
	Fields   []service.FormField `json:"fields"`
	Groups   []GroupResponse     `json:"groups"`
	Values   *PostFormValues     `json:"values,omitempty"`
}

func userToResponse(user *domain.User) UserResponse {
	if user == nil {
		return UserResponse{}
	}
	return UserResponse{ID: user.ID, Username: user.Username}
}

func groupToResponse(group domain.Group) GroupResponse {
	return GroupResponse{
		ID:          group.ID,
		Title:       group.Title,
		Slug:        group.Slug,
		Description: group.Description,
	}
}

func (h *Handler) postToResponse(c *gin.Context, post domain.Post) PostResponse {
	resp := PostResponse{
		ID:        post.ID,
		Text:      post.Text,
		Author:    userToResponse(post.Author),
		CreatedAt: post.CreatedAt.Format(time.RFC3339),
		UpdatedAt: post.UpdatedAt.Format(time.RFC3339),
	}
	if post.Group != nil {
		g := groupToResponse(*post.Group)
		resp.Group = &g
	}
	if post.ImageLocation != "" && h.storage != nil {
		url, err := h.storage.GetObjectURL(c.Request.Context(), post.ImageLocation, imageURLTTL)
		if err != nil {
			h.logger.WithError(err).Warn("presign post image")
		} else {
			resp.ImageURL = url
		}
	}
	return resp
}

func (h *Handler) pageToResponse(c *gin.Context, feed service.Feed) PageResponse {
	items := make([]PostResponse, len(feed.Items))
	for i := range feed.Items {
		items[i] = h.postToResponse(c, feed.Items[i])
	}
	return PageResponse{
		Number:      feed.Number,
		Size:        feed.Size,
		TotalItems:  feed.TotalItems,
		TotalPages:  feed.TotalPages,
		HasNext:     feed.HasNext,
		HasPrevious: feed.HasPrevious,
		Items:       items,
	}
}
