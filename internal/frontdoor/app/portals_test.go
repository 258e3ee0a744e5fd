package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/frontdoor/pkg/jwtx"
)

func writeCatalogue(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portals.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadPortalsFromFile(t *testing.T) {
	t.Parallel()

	path := writeCatalogue(t, `
[[portal]]
id         = "library"
title      = "Library"
url        = "https://library.example.edu/catalogue"

[[portal]]
id         = "backoffice"
title      = "Back office"
url        = "https://ops.example.edu:8443"
hidden_for = [" docente", "alumno "]
`)

	portals, err := LoadPortals(path)
	require.NoError(t, err)
	require.Len(t, portals, 2)
	require.Equal(t, "library", portals[0].ID)
	require.Nil(t, portals[0].HiddenFor)
	require.Equal(t, []string{jwtx.RoleTeacher, jwtx.RoleStudent}, portals[1].HiddenFor)
	require.False(t, portals[1].VisibleTo("Alumno"))
	require.True(t, portals[1].VisibleTo(jwtx.RoleAdministrator))
}

func TestLoadPortalsRejectsBadCatalogues(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"empty":         ``,
		"unknown key":   "[[portal]]\nid = \"a\"\ntitle = \"A\"\nurl = \"https://a.example.edu\"\nhiden_for = [\"ALUMNO\"]\n",
		"missing id":    "[[portal]]\ntitle = \"A\"\nurl = \"https://a.example.edu\"\n",
		"missing title": "[[portal]]\nid = \"a\"\nurl = \"https://a.example.edu\"\n",
		"relative url":  "[[portal]]\nid = \"a\"\ntitle = \"A\"\nurl = \"/a\"\n",
		"ftp url":       "[[portal]]\nid = \"a\"\ntitle = \"A\"\nurl = \"ftp://a.example.edu\"\n",
		"duplicate id":  "[[portal]]\nid = \"a\"\ntitle = \"A\"\nurl = \"https://a.example.edu\"\n[[portal]]\nid = \"a\"\ntitle = \"B\"\nurl = \"https://b.example.edu\"\n",
		"not toml":      "[[portal\n",
	}
	for name, body := range cases {
		_, err := LoadPortals(writeCatalogue(t, body))
		require.Error(t, err, name)
	}

	_, err := LoadPortals(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestDefaultPortalVisibility(t *testing.T) {
	t.Parallel()

	portals, err := LoadPortals("")
	require.NoError(t, err)
	require.NoError(t, validatePortals(portals))

	visible := func(role string) []string {
		var ids []string
		for _, p := range portals {
			if p.VisibleTo(role) {
				ids = append(ids, p.ID)
			}
		}
		return ids
	}

	require.Equal(t,
		[]string{"tienda", "comedor", "biblioteca", "eventos", "analitica", "gestion"},
		visible(jwtx.RoleAdministrator))
	require.Equal(t,
		[]string{"docentes", "tienda", "comedor", "biblioteca", "eventos"},
		visible(jwtx.RoleTeacher))
	require.Equal(t,
		[]string{"alumnos", "tienda", "comedor", "biblioteca", "eventos"},
		visible(jwtx.RoleStudent))
	require.Len(t, visible("INVITADO"), len(portals))
}

func TestAllowListFor(t *testing.T) {
	t.Parallel()

	allow := AllowListFor(DefaultPortals(), []string{"https://extra.example.edu:8443/ignored/path"})
	require.True(t, allow.Contains("https://student-portal-front-production.up.railway.app"))
	require.True(t, allow.Contains("https://extra.example.edu:8443"))
	require.False(t, allow.Contains("https://evil.example.com"))
	require.Len(t, allow.Origins(), len(DefaultPortals())+1)
}
