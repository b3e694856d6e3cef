package templates

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKioskPageCarriesSessionID(t *testing.T) {
	SetBuild("abc1234", "2026-01-02")
	w := httptest.NewRecorder()
	WriteKioskHTML(w, `s1"><script>`)

	body := w.Body.String()
	require.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	require.Contains(t, body, "abc1234")
	require.Contains(t, body, "s1&#34;&gt;&lt;script&gt;")
}

func TestHomePage(t *testing.T) {
	SetBuild("abc1234", "2026-01-02")
	w := httptest.NewRecorder()
	WriteHomeHTML(w)
	require.Contains(t, w.Body.String(), "2026-01-02")
	require.Contains(t, w.Body.String(), `href="/new"`)
}
