package service

import (
	"bytes"
	"context"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/notaflow/notaflow/internal/repo"
)

type ExportService struct {
	notes *repo.NoteRepo
	md    goldmark.Markdown
}

func NewExportService(notes *repo.NoteRepo) *ExportService {
	return &ExportService{
		notes: notes,
		md:    goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// ExportHTML renders a note as a standalone HTML document.
func (s *ExportService) ExportHTML(ctx context.Context, userID, noteID string) ([]byte, string, error) {
	note, err := s.notes.GetByID(ctx, userID, noteID)
	if err != nil {
		return nil, "", err
	}
	doc, err := s.renderDocument(note.Title, note.Content)
	if err != nil {
		return nil, "", err
	}
	return doc, note.Title, nil
}

func (s *ExportService) renderDocument(title, content string) ([]byte, error) {
	var body bytes.Buffer
	if err := s.md.Convert([]byte(content), &body); err != nil {
		return nil, err
	}
	var doc bytes.Buffer
	fmt.Fprintf(&doc, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n<h1>%s</h1>\n",
		html.EscapeString(title), html.EscapeString(title))
	doc.Write(body.Bytes())
	doc.WriteString("\n</body>\n</html>\n")
	return doc.Bytes(), nil
}
