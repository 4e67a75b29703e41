package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KaramelBytes/salesloom-cli/internal/aggregate"
	"github.com/KaramelBytes/salesloom-cli/internal/ingest"
	"github.com/KaramelBytes/salesloom-cli/internal/report"
	"github.com/KaramelBytes/salesloom-cli/internal/store"
)

var uploadExtensions = []string{".csv", ".xlsx"}

const (
	detailFileType = "Only CSV or XLSX files are allowed"
	detailEmpty    = "Empty file uploaded"
	detailNoData   = "No data available for article generation. Please upload data first."
	detailDays     = "Days must be between 1 and 365"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"storage": s.store.Info(c.Request.Context()),
		"version": Version,
	})
}

// readUpload returns the bytes and name of the multipart "file" field.
// ok=false with a nil error means no file was sent.
func readUpload(c *gin.Context) (data []byte, name string, ok bool, err error) {
	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, fmt.Errorf("read multipart form: %w", err)
	}
	name = filepath.Base(fh.Filename)
	ext := strings.ToLower(filepath.Ext(name))
	if !containsString(uploadExtensions, ext) {
		return nil, name, false, errors.New(detailFileType)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, name, false, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err = io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, name, false, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > maxUploadBytes {
		return nil, name, false, fmt.Errorf("file exceeds %d MiB", maxUploadBytes>>20)
	}
	if len(data) == 0 {
		return nil, name, false, errors.New(detailEmpty)
	}
	return data, name, true, nil
}

func (s *Server) uploadData(c *gin.Context) {
	owner, err := ownerFrom(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	data, name, ok, err := readUpload(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if !ok {
		fail(c, http.StatusBadRequest, "file is required")
		return
	}
	res, err := s.ingest.Ingest(c.Request.Context(), data, name, owner)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusUnprocessableEntity, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) generateArticles(c *gin.Context) {
	ctx := c.Request.Context()
	owner, err := ownerFrom(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	data, name, ok, err := readUpload(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if ok {
		res, err := s.ingest.Ingest(ctx, data, name, owner)
		if err != nil || res.Status != ingest.StatusSuccess {
			if err != nil {
				_ = c.Error(err)
			}
			fail(c, http.StatusBadRequest, "File processing failed")
			return
		}
	}
	round, err := s.drafter.Run(ctx, owner)
	if errors.Is(err, report.ErrNoData) {
		fail(c, http.StatusBadRequest, detailNoData)
		return
	}
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, "generation failed")
		return
	}
	c.JSON(http.StatusOK, round)
}

func (s *Server) recentArticles(c *gin.Context) {
	owner, err := ownerFrom(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days < 1 || days > 365 {
		fail(c, http.StatusBadRequest, detailDays)
		return
	}
	drafts, err := s.store.RecentDrafts(c.Request.Context(), time.Now().AddDate(0, 0, -days), owner)
	if err != nil {
		s.log.WithError(err).Error("recent drafts failed")
		c.JSON(http.StatusOK, []any{})
		return
	}
	c.JSON(http.StatusOK, drafts)
}

func (s *Server) stats(c *gin.Context) {
	ctx := c.Request.Context()
	owner, err := ownerFrom(c)
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	summary, err := s.store.Aggregate(ctx, owner)
	if err != nil {
		s.log.WithError(err).Error("aggregate failed")
		summary = aggregate.Empty()
	}
	recent, err := s.store.RecentDrafts(ctx, time.Now().AddDate(0, 0, -30), owner)
	if err != nil {
		s.log.WithError(err).Error("recent drafts failed")
	}
	c.JSON(http.StatusOK, gin.H{
		"status":                "success",
		"storage":               s.store.Info(ctx),
		"data_summary":          summary,
		"recent_articles_count": len(recent),
		"system_health":         "optimal",
	})
}

type createUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

func (s *Server) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	u, err := s.store.CreateUser(c.Request.Context(), strings.TrimSpace(req.Username), strings.TrimSpace(req.Email))
	if errors.Is(err, store.ErrConflict) {
		fail(c, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, "could not create user")
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.store.ListUsers(c.Request.Context())
	if err != nil {
		s.log.WithError(err).Error("list users failed")
		c.JSON(http.StatusOK, []any{})
		return
	}
	c.JSON(http.StatusOK, users)
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, errBadOwner.Error())
		return 0, false
	}
	return id, true
}

func (s *Server) getUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	u, err := s.store.GetUser(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		fail(c, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, "could not load user")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) clearUserData(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	counts, err := s.store.Clear(c.Request.Context(), &id)
	if err != nil {
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, "could not clear data")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "user_id": id, "deleted": counts})
}
