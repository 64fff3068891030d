package model

type Image struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Path   string `json:"path"`
	URL    string `json:"url"`
	Ctime  int64  `json:"ctime"`
}
