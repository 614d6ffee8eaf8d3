package access

// Rule describes one endpoint pattern. Method is an HTTP verb or "*";
// Path is an exact path or a prefix wildcard ending in "/*".
type Rule struct {
	Method string
	Path   string
}

// Ruleset groups the access rules into the four tiers. Tables are static,
// loaded once at startup, and never mutated, so unsynchronized concurrent
// reads are safe.
type Ruleset struct {
	Public        []Rule
	Authenticated []Rule
	Admin         []Rule
	System        []Rule
}

// DefaultRuleset is the production endpoint-access table. Reads on wifi and
// esim listings are public; mutations require a signed-in user and, mostly,
// a completed profile. The admin tier deliberately excludes /api/wifi so
// that member contributions are not shadowed by the admin wildcard;
// moderation lives under /api/admin/wifi instead.
func DefaultRuleset() Ruleset {
	return Ruleset{
		Public: []Rule{
			{Method: "*", Path: "/api/auth/*"},
			{Method: "GET", Path: "/api/csrf"},
			{Method: "GET", Path: "/api/wifi"},
			{Method: "GET", Path: "/api/wifi/*"},
			{Method: "GET", Path: "/api/esim"},
			{Method: "GET", Path: "/api/sitemap.xml"},
			{Method: "POST", Path: "/api/user/check-email"},
			{Method: "POST", Path: "/api/user/check-wallet"},
		},
		Authenticated: []Rule{
			{Method: "GET", Path: "/api/dashboard"},
			{Method: "GET", Path: "/api/contributions"},
			{Method: "GET", Path: "/api/reviews"},
			{Method: "*", Path: "/api/notifications"},
			{Method: "POST", Path: "/api/wifi"},
			{Method: "POST", Path: "/api/wifi/*"},
			{Method: "PATCH", Path: "/api/wifi/*"},
			{Method: "DELETE", Path: "/api/wifi/*"},
			{Method: "POST", Path: "/api/esim"},
			{Method: "*", Path: "/api/security"},
			{Method: "GET", Path: "/api/user/profile"},
			{Method: "GET", Path: "/api/user/profile/stats"},
			{Method: "PATCH", Path: "/api/user/profile"},
			{Method: "POST", Path: "/api/user/profile/avatar"},
			{Method: "POST", Path: "/api/user/profile/verify-email"},
			{Method: "PATCH", Path: "/api/user/profile/push"},
			{Method: "POST", Path: "/api/user/profile/wallet"},
			{Method: "DELETE", Path: "/api/user/profile/wallet"},
		},
		Admin: []Rule{
			{Method: "*", Path: "/api/admin/*"},
			{Method: "*", Path: "/api/users/*"},
			{Method: "*", Path: "/api/settings/*"},
		},
		System: []Rule{
			{Method: "*", Path: "/api/cron/*"},
			{Method: "*", Path: "/api/ai/*"},
			{Method: "*", Path: "/api/services/*"},
		},
	}
}
