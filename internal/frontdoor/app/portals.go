package app

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/domain"
	"github.com/aussiebroadwan/frontdoor/pkg/jwtx"
)

var ErrNoPortals = errors.New("portal catalogue is empty")

// portalFile is the on-disk layout:
//
//	[[portal]]
//	id         = "library"
//	title      = "Portal Biblioteca"
//	url        = "https://library.example.edu"
//	hidden_for = ["ALUMNO"]
type portalFile struct {
	Portals []portalEntry `toml:"portal"`
}

type portalEntry struct {
	ID        string   `toml:"id"`
	Title     string   `toml:"title"`
	URL       string   `toml:"url"`
	HiddenFor []string `toml:"hidden_for"`
}

// LoadPortals reads the catalogue at path. An empty path yields the
// built-in catalogue. Unknown keys are rejected so typos do not silently
// widen visibility.
func LoadPortals(path string) ([]domain.Portal, error) {
	if path == "" {
		return DefaultPortals(), nil
	}

	var f portalFile
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode portal catalogue: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q in portal catalogue", undecoded[0].String())
	}

	portals := make([]domain.Portal, 0, len(f.Portals))
	for _, e := range f.Portals {
		portals = append(portals, domain.Portal{
			ID:        strings.TrimSpace(e.ID),
			Title:     strings.TrimSpace(e.Title),
			URL:       strings.TrimSpace(e.URL),
			HiddenFor: upper(e.HiddenFor),
		})
	}

	if err := validatePortals(portals); err != nil {
		return nil, err
	}
	return portals, nil
}

func validatePortals(portals []domain.Portal) error {
	if len(portals) == 0 {
		return ErrNoPortals
	}

	seen := make(map[string]struct{}, len(portals))
	for i, p := range portals {
		if p.ID == "" {
			return fmt.Errorf("portal #%d: id is required", i+1)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("portal %q: duplicate id", p.ID)
		}
		seen[p.ID] = struct{}{}

		if p.Title == "" {
			return fmt.Errorf("portal %q: title is required", p.ID)
		}
		u, err := url.Parse(p.URL)
		if err != nil || domain.Origin(u) == "" {
			return fmt.Errorf("portal %q: url must be an absolute http(s) URL", p.ID)
		}
	}
	return nil
}

func upper(roles []string) []string {
	if len(roles) == 0 {
		return nil
	}
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r = strings.ToUpper(strings.TrimSpace(r)); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// DefaultPortals is the federation as originally deployed. Teachers and
// students see only their own portal; the back-office portals are for
// administrators.
func DefaultPortals() []domain.Portal {
	var (
		admin   = jwtx.RoleAdministrator
		teacher = jwtx.RoleTeacher
		student = jwtx.RoleStudent
	)
	return []domain.Portal{
		{ID: "docentes", Title: "Portal docente", URL: "https://campus-connect-front-docentes.vercel.app", HiddenFor: []string{admin, student}},
		{ID: "alumnos", Title: "Portal de alumnos", URL: "https://student-portal-front-production.up.railway.app/misCursos", HiddenFor: []string{admin, teacher}},
		{ID: "tienda", Title: "Portal Tienda", URL: "https://uade-store.vercel.app"},
		{ID: "comedor", Title: "Portal Comedor", URL: "https://proyecto-react-shadcn.vercel.app"},
		{ID: "biblioteca", Title: "Portal Biblioteca", URL: "https://biblioteca-uade.vercel.app"},
		{ID: "eventos", Title: "Portal eventos", URL: "https://desap2-eventos-front.onrender.com"},
		{ID: "analitica", Title: "Portal analítica", URL: "https://campus-connect-da-ii.up.railway.app", HiddenFor: []string{teacher, student}},
		{ID: "gestion", Title: "Portal Gestión", URL: "https://backoffice-production-ui.up.railway.app", HiddenFor: []string{teacher, student}},
	}
}

// AllowListFor trusts every portal's origin plus the extra origins.
func AllowListFor(portals []domain.Portal, extra []string) domain.AllowList {
	entries := make([]string, 0, len(portals)+len(extra))
	for _, p := range portals {
		entries = append(entries, p.URL)
	}
	entries = append(entries, extra...)
	return domain.NewAllowList(entries...)
}
