package api

import (
	"net/http"
	"net/url"
	"strings"

	"storefront-orders/internal/service"

	"github.com/gin-gonic/gin"
)

// checkoutLanding resolves ?session_id= to the order page or a feedback page
func (h *Handler) checkoutLanding(kind service.LandingKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := h.sessions.Landing(c.Request.Context(), userID(c), c.Query("session_id"), kind)
		c.Redirect(http.StatusFound, rd.Location)
	}
}

// legacyRedirects maps retired checkout paths to their current landing page
var legacyRedirects = map[string]string{
	"/checkout/complete": service.LandingSuccess.Path(),
	"/order/success":     service.LandingSuccess.Path(),
	"/order/cancelled":   service.LandingCancel.Path(),
}

// legacySessionParams are query names older links used for the session id
var legacySessionParams = []string{"sessionId", "checkout_session_id"}

func (h *Handler) setupLegacyRoutes(router *gin.Engine) {
	for from, to := range legacyRedirects {
		router.GET(from, legacyRedirect(to))
	}
}

func legacyRedirect(target string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, rebuildLegacyURL(target, c.Request.URL.Query()))
	}
}

// rebuildLegacyURL keeps every query parameter and renames legacy session
// parameters to session_id
func rebuildLegacyURL(target string, query url.Values) string {
	out := url.Values{}
	for k, vs := range query {
		out[k] = append([]string(nil), vs...)
	}
	for _, name := range legacySessionParams {
		vs, ok := out[name]
		if !ok {
			continue
		}
		delete(out, name)
		if out.Get("session_id") == "" && len(vs) > 0 {
			out.Set("session_id", vs[0])
		}
	}
	if len(out) == 0 {
		return target
	}
	return target + "?" + out.Encode()
}

var feedbackMessages = map[string]string{
	"auth-required": "Sign in to view your order.",
	"outage":        "We could not load your order right now. Please try again shortly.",
	"forbidden":     "This order is not available for your account.",
}

// feedback answers the landing pages the checkout redirects point at
func (h *Handler) feedback(c *gin.Context) {
	kind := c.Param("kind")
	msg, ok := feedbackMessages[kind]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown feedback page"})
		return
	}

	resp := gin.H{
		"kind":    kind,
		"message": msg,
	}
	if cb := c.Query("callbackUrl"); isLocalPath(cb) {
		resp["callbackUrl"] = cb
	}
	c.JSON(http.StatusOK, resp)
}

// isLocalPath rejects absolute and protocol-relative URLs
func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.Contains(p, "\\")
}
