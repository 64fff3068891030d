package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/notaflow/notaflow/internal/notestore"
	appErr "github.com/notaflow/notaflow/internal/pkg/errors"
)

const (
	defaultTimeout  = 10 * time.Second
	noteCacheSize   = 256
	noteCacheTTL    = 5 * time.Minute
	maxErrorBodyLen = 4096
)

// Client talks to a Notaflow server over its JSON API. Single notes are
// served from a small LRU so switching back to a recently seen note does
// not refetch; any persist or delete drops the cached copy.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	cache   *expirable.LRU[string, notestore.Note]
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		cache:   expirable.NewLRU[string, notestore.Note](noteCacheSize, nil, noteCacheTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetToken(token string) {
	c.token = token
}

// wireNote matches the server's note model; pinned travels as 0/1.
type wireNote struct {
	ID      string `json:"id"`
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Pinned  int    `json:"pinned"`
	Ctime   int64  `json:"ctime"`
	Mtime   int64  `json:"mtime"`
}

func (w wireNote) toNote() notestore.Note {
	return notestore.Note{
		ID:      w.ID,
		UserID:  w.UserID,
		Title:   w.Title,
		Content: w.Content,
		Pinned:  w.Pinned == 1,
		Ctime:   w.Ctime,
		Mtime:   w.Mtime,
	}
}

type noteBody struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Pinned  bool   `json:"pinned"`
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) FetchNotes(ctx context.Context, userID string) ([]notestore.Note, error) {
	_ = userID // ownership is carried by the bearer token
	var wire []wireNote
	if err := c.call(ctx, http.MethodGet, "/api/v1/notes", nil, &wire); err != nil {
		return nil, err
	}
	notes := make([]notestore.Note, 0, len(wire))
	for _, w := range wire {
		note := w.toNote()
		c.cache.Add(note.ID, note)
		notes = append(notes, note)
	}
	return notes, nil
}

func (c *Client) GetNote(ctx context.Context, noteID string) (notestore.Note, error) {
	if note, ok := c.cache.Get(noteID); ok {
		return note, nil
	}
	var wire wireNote
	if err := c.call(ctx, http.MethodGet, "/api/v1/notes/"+noteID, nil, &wire); err != nil {
		return notestore.Note{}, err
	}
	note := wire.toNote()
	c.cache.Add(note.ID, note)
	return note, nil
}

func (c *Client) CreateNote(ctx context.Context, fields NoteFields) (notestore.Note, error) {
	var wire wireNote
	body := noteBody{Title: fields.Title, Content: fields.Content, Pinned: fields.Pinned}
	if err := c.call(ctx, http.MethodPost, "/api/v1/notes", body, &wire); err != nil {
		return notestore.Note{}, err
	}
	note := wire.toNote()
	c.cache.Add(note.ID, note)
	return note, nil
}

func (c *Client) PersistNote(ctx context.Context, noteID string, fields NoteFields) (notestore.Note, error) {
	c.cache.Remove(noteID)
	var wire wireNote
	body := noteBody{Title: fields.Title, Content: fields.Content, Pinned: fields.Pinned}
	if err := c.call(ctx, http.MethodPut, "/api/v1/notes/"+noteID, body, &wire); err != nil {
		return notestore.Note{}, err
	}
	note := wire.toNote()
	c.cache.Add(note.ID, note)
	return note, nil
}

func (c *Client) DeleteNote(ctx context.Context, noteID string) error {
	c.cache.Remove(noteID)
	return c.call(ctx, http.MethodDelete, "/api/v1/notes/"+noteID, nil, nil)
}

type Profile struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Theme       string `json:"theme"`
	Font        string `json:"font"`
	AvatarURL   string `json:"avatar_url"`
}

func (c *Client) GetProfile(ctx context.Context) (Profile, error) {
	var profile Profile
	err := c.call(ctx, http.MethodGet, "/api/v1/profile", nil, &profile)
	return profile, err
}

type ProfileUpdate struct {
	DisplayName *string `json:"display_name,omitempty"`
	Theme       *string `json:"theme,omitempty"`
	Font        *string `json:"font,omitempty"`
}

func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (Profile, error) {
	var profile Profile
	err := c.call(ctx, http.MethodPut, "/api/v1/profile", update, &profile)
	return profile, err
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResult struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

func (c *Client) Register(ctx context.Context, creds Credentials) (AuthResult, error) {
	var result AuthResult
	err := c.call(ctx, http.MethodPost, "/api/v1/auth/register", creds, &result)
	return result, err
}

func (c *Client) Login(ctx context.Context, creds Credentials) (AuthResult, error) {
	var result AuthResult
	err := c.call(ctx, http.MethodPost, "/api/v1/auth/login", creds, &result)
	return result, err
}

type UploadedImage struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// UploadImage posts a multipart file and returns the public URL the
// caller splices into note content.
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (UploadedImage, error) {
	var image UploadedImage
	err := c.upload(ctx, "/api/v1/images", filename, r, &image)
	return image, err
}

func (c *Client) UploadAvatar(ctx context.Context, filename string, r io.Reader) (Profile, error) {
	var profile Profile
	err := c.upload(ctx, "/api/v1/profile/avatar", filename, r, &profile)
	return profile, err
}

// ExportNoteHTML downloads the rendered HTML document for a note. The
// export endpoint streams the file directly instead of the JSON envelope.
func (c *Client) ExportNoteHTML(ctx context.Context, noteID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/notes/"+noteID+"/export", nil)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, truncate(string(data)))
	}
	return data, nil
}

func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) upload(ctx context.Context, path, filename string, r io.Reader, out interface{}) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, r); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return err
	}
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return statusError(resp.StatusCode, truncate(string(data)))
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || env.Code != 0 {
		return statusError(resp.StatusCode, env.Message)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func statusError(status int, message string) error {
	switch status {
	case http.StatusUnauthorized:
		return appErr.ErrUnauthorized
	case http.StatusForbidden:
		return appErr.ErrForbidden
	case http.StatusNotFound:
		return appErr.ErrNotFound
	case http.StatusBadRequest:
		return appErr.ErrInvalid
	case http.StatusConflict:
		return appErr.ErrConflict
	case http.StatusTooManyRequests:
		return appErr.ErrTooMany
	default:
		return fmt.Errorf("server error (%d): %s", status, message)
	}
}

func truncate(s string) string {
	if len(s) > maxErrorBodyLen {
		return s[:maxErrorBodyLen]
	}
	return s
}
