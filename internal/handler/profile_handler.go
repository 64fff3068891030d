package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/notaflow/notaflow/internal/pkg/errcode"
	"github.com/notaflow/notaflow/internal/pkg/response"
	"github.com/notaflow/notaflow/internal/service"
)

const maxAvatarSize = 5 << 20

type ProfileHandler struct {
	profiles *service.ProfileService
}

func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	profile, err := h.profiles.Get(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, profile)
}

type profileUpdateRequest struct {
	DisplayName *string `json:"display_name"`
	Theme       *string `json:"theme"`
	Font        *string `json:"font"`
}

func (h *ProfileHandler) Update(c *gin.Context) {
	var req profileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	profile, err := h.profiles.Update(c.Request.Context(), getUserID(c), service.ProfileUpdateInput{
		DisplayName: req.DisplayName,
		Theme:       req.Theme,
		Font:        req.Font,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, profile)
}

func (h *ProfileHandler) UploadAvatar(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "file is required")
		return
	}
	if file.Size > maxAvatarSize {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "file too large")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()
	profile, err := h.profiles.SetAvatar(c.Request.Context(), getUserID(c), file.Filename, opened, file.Size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, profile)
}
