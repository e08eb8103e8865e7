// Package server serves the badge endpoints and the local OAuth callback used to mint refresh tokens.
//
// # Router
//
// [BasicRouter] wraps [http.ServeMux] with a [Middleware] stack; the first middleware added runs
// outermost. [NewRouter] installs request ids, real client IPs, request logging and panic recovery
// from github.com/go-chi/chi/v5/middleware in front of any [Handler].
//
// # Badges
//
// [BadgeHandler] exposes:
//
//	GET /, /svg                track badge, 503 {"error":"SVG not ready"} when nothing resolves
//	GET /link                  302 to the track, 404 when there is none
//	GET /daylist[/light|/dark] daylist caption badge, time-of-day fallback without a phrase
//	GET /favicon.ico|png       204
//	GET /healthz               {"status":"ok","revision":...}
//
// # OAuth callback
//
// [OAuthHandler] checks the state parameter, exchanges the code and reports the token once
// through [OAuthHandler.Result].
package server
