package model

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

type Profile struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Theme       string `json:"theme"`
	Font        string `json:"font"`
	AvatarURL   string `json:"avatar_url"`
	Mtime       int64  `json:"mtime"`
}
