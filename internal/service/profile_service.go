package service

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/notaflow/notaflow/internal/filestore"
	"github.com/notaflow/notaflow/internal/model"
	appErr "github.com/notaflow/notaflow/internal/pkg/errors"
	"github.com/notaflow/notaflow/internal/pkg/timeutil"
	"github.com/notaflow/notaflow/internal/repo"
)

type ProfileService struct {
	profiles  *repo.ProfileRepo
	store     filestore.Store
	publicURL string
}

func NewProfileService(profiles *repo.ProfileRepo, store filestore.Store, publicURL string) *ProfileService {
	return &ProfileService{profiles: profiles, store: store, publicURL: publicURL}
}

// Get creates the profile on first read, mirroring the web client's
// fetch-or-create flow.
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	profile, err := s.profiles.Get(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !appErr.IsNotFound(err) {
		return nil, err
	}
	profile = &model.Profile{UserID: userID, Theme: model.ThemeLight, Mtime: timeutil.NowMilli()}
	if err := s.profiles.Create(ctx, profile); err != nil && !appErr.IsConflict(err) {
		return nil, err
	}
	return s.profiles.Get(ctx, userID)
}

type ProfileUpdateInput struct {
	DisplayName *string
	Theme       *string
	Font        *string
}

func (s *ProfileService) Update(ctx context.Context, userID string, input ProfileUpdateInput) (*model.Profile, error) {
	update := map[string]interface{}{}
	if input.DisplayName != nil {
		update["display_name"] = *input.DisplayName
	}
	if input.Theme != nil {
		theme := *input.Theme
		if theme != model.ThemeLight && theme != model.ThemeDark {
			return nil, appErr.ErrInvalid
		}
		update["theme"] = theme
	}
	if input.Font != nil {
		update["font"] = *input.Font
	}
	if len(update) == 0 {
		return s.Get(ctx, userID)
	}
	update["mtime"] = timeutil.NowMilli()
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.profiles.Update(ctx, userID, update); err != nil {
		return nil, err
	}
	return s.profiles.Get(ctx, userID)
}

// SetAvatar stores the uploaded image and points the profile at its
// public URL. The previous object, if any, is removed best-effort.
func (s *ProfileService) SetAvatar(ctx context.Context, userID, filename string, r filestore.ReadSeekCloser, size int64) (*model.Profile, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	ext := strings.ToLower(path.Ext(filename))
	key := fmt.Sprintf("avatars/%s-%d%s", userID, timeutil.NowMilli(), ext)
	if err := s.store.Save(ctx, key, r, size); err != nil {
		return nil, appErr.ErrUploadFailed
	}
	url := s.store.URL(key, s.publicURL)
	update := map[string]interface{}{
		"avatar_url": url,
		"mtime":      timeutil.NowMilli(),
	}
	if err := s.profiles.Update(ctx, userID, update); err != nil {
		return nil, err
	}
	if old := avatarKeyFromURL(current.AvatarURL); old != "" {
		_ = s.store.Delete(ctx, old)
	}
	return s.profiles.Get(ctx, userID)
}

func avatarKeyFromURL(url string) string {
	idx := strings.Index(url, "avatars/")
	if idx < 0 {
		return ""
	}
	return url[idx:]
}
