package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/domain"
	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/service"
	"github.com/aussiebroadwan/frontdoor/pkg/httpx"
	"github.com/aussiebroadwan/frontdoor/pkg/jwtx"
	"github.com/aussiebroadwan/frontdoor/pkg/slogx"
)

// DashboardHandler serves the signed-in pages.
type DashboardHandler struct {
	sessions *sessions
	Portals  []domain.Portal
}

// HandleHome returns the viewer and the portals their role may open.
//
//	@Summary		Dashboard
//	@Description	Requires a valid session with a role. Otherwise the browser is sent to the entry point; an expired
//	@Description	session is cleared first and reported as error=session_expired.
//	@Tags			Dashboard
//	@Produce		json
//	@Success		200	{object}	HomeResponse	"viewer and visible portals"
//	@Success		303	{string}	string			"No usable session"
//	@Router			/home [get]
func (h *DashboardHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	flow, _, tab := h.sessions.open(w, r)

	claims, ok := h.guard(w, r, flow)
	if !ok {
		return
	}

	role := claims.ResolvedRole()
	resp := HomeResponse{
		Viewer: Viewer{
			Name:    claims.DisplayName(),
			Email:   claims.Email,
			Role:    role,
			SubRole: claims.SubRole,
			OrgUnit: claims.OrgUnit,
		},
		Portals: []PortalView{},
	}
	for _, p := range h.Portals {
		if !p.VisibleTo(role) {
			continue
		}
		resp.Portals = append(resp.Portals, PortalView{
			ID:      p.ID,
			Title:   p.Title,
			URL:     p.URL,
			OpenURL: "/portals/" + url.PathEscape(p.ID) + "/open?" + url.Values{TabParam: {tab.String()}}.Encode(),
		})
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

// HandleOpen hands the current access token to a configured portal.
//
//	@Summary		Open a portal
//	@Description	Sends the browser to the portal with the access token attached. Portals hidden from the viewer's role
//	@Description	are reported as not found.
//	@Tags			Dashboard
//	@Produce		json
//	@Param			id	path		string				true	"Portal id"
//	@Success		303	{string}	string				"Portal handoff"
//	@Failure		404	{object}	httpx.ErrorResponse	"Unknown portal"
//	@Router			/portals/{id}/open [get]
func (h *DashboardHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flow, _, _ := h.sessions.open(w, r)

	claims, ok := h.guard(w, r, flow)
	if !ok {
		return
	}

	portal, found := h.portal(r.PathValue("id"))
	if !found || !portal.VisibleTo(claims.ResolvedRole()) {
		httpx.WriteError(w, http.StatusNotFound, codeNotFound, "unknown portal")
		return
	}

	location, err := flow.Gate.Launch(ctx, portal.URL)
	switch {
	case errors.Is(err, service.ErrUntrustedDestination):
		// Portal origins join the allow-list at startup, this is a
		// configuration error.
		slogx.FromContext(ctx).Error("configured portal rejected by allow-list", "portal", portal.ID, "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, codeServerError, "portal is misconfigured")
		return
	case err != nil:
		httpx.WriteError(w, http.StatusInternalServerError, codeServerError, "failed to read session")
		return
	}
	httpx.SeeOther(w, r, location)
}

// guard writes the redirect itself when the session is unusable.
func (h *DashboardHandler) guard(w http.ResponseWriter, r *http.Request, flow *service.Flow) (*jwtx.Claims, bool) {
	claims, err := flow.Guard.Check(r.Context())
	switch {
	case err == nil:
		return claims, true
	case errors.Is(err, service.ErrSessionExpired):
		navigate(w, r, service.Outcome{Route: service.RouteEntry, Err: err}, codeSessionExpired)
	case errors.Is(err, service.ErrNoSession), errors.Is(err, service.ErrNoRole):
		navigate(w, r, service.Outcome{Route: service.RouteEntry}, "")
	default:
		httpx.WriteError(w, http.StatusInternalServerError, codeServerError, "failed to read session")
	}
	return nil, false
}

func (h *DashboardHandler) portal(id string) (domain.Portal, bool) {
	for _, p := range h.Portals {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Portal{}, false
}
