package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderDocument(t *testing.T) {
	svc := NewExportService(nil)

	doc, err := svc.renderDocument("Groceries <b>", "# list\n\n- milk\n- eggs")
	require.NoError(t, err)

	out := string(doc)
	require.Contains(t, out, "<title>Groceries &lt;b&gt;</title>")
	require.Contains(t, out, "<h1>Groceries &lt;b&gt;</h1>")
	require.Contains(t, out, "<li>milk</li>")
	require.Contains(t, out, "<li>eggs</li>")
}
