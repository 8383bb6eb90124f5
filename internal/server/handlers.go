package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/ButyrinIA/socialfeed/internal/service"
	"github.com/ButyrinIA/socialfeed/internal/storage"
	"github.com/gin-gonic/gin"
)

type tokenRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
}

type listPostsQuery struct {
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Cursor string `form:"cursor"`
}

type postRequest struct {
	Content string `json:"content" binding:"required"`
	// Defaults to true when omitted.
	AllowComments *bool `json:"allow_comments"`
}

type commentRequest struct {
	PostID   string  `json:"post_id" binding:"required"`
	ParentID *string `json:"parent_id"`
	Content  string  `json:"content" binding:"required"`
}

func (s *Server) issueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := s.deps.Feed.Login(c.Request.Context(), req.Username)
	if err != nil {
		s.writeError(c, err)
		return
	}
	token, err := s.deps.Auth.IssueToken(user.ID)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "user_id": user.ID})
}

func (s *Server) listPosts(c *gin.Context) {
	var query listPostsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var cursor *string
	if query.Cursor != "" {
		cursor = &query.Cursor
	}
	page, err := s.deps.Feed.ListPosts(c.Request.Context(), query.Limit, cursor)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) createPost(c *gin.Context) {
	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	allowComments := req.AllowComments == nil || *req.AllowComments
	post, err := s.deps.Feed.CreatePost(c.Request.Context(), c.GetString(userIDKey), req.Content, allowComments)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (s *Server) getPost(c *gin.Context) {
	detail, err := s.deps.Feed.PostDetail(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) createComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := s.deps.Feed.CreateComment(c.Request.Context(), c.GetString(userIDKey), req.PostID, req.ParentID, req.Content)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (s *Server) likePost(c *gin.Context) {
	if err := s.deps.Feed.LikePost(c.Request.Context(), c.GetString(userIDKey), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) likeComment(c *gin.Context) {
	if err := s.deps.Feed.LikeComment(c.Request.Context(), c.GetString(userIDKey), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) leaderboard(c *gin.Context) {
	rows, err := s.deps.Feed.Leaderboard(c.Request.Context(), time.Now())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// writeError maps domain errors to HTTP statuses. Unknown errors are logged
// and reported as 500 without detail.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrAlreadyLiked):
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Already liked"})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrCommentsDisabled):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		s.deps.Logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
