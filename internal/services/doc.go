// Package services implements the Spotify Web API client behind the badges.
//
// # Token lifecycle
//
// [SpotifyService] holds a single account's refresh token and client credentials. The
// access token is minted lazily through the OAuth2 refresh-token grant ([golang.org/x/oauth2])
// and stored with an expiry 60 seconds earlier than the one the accounts service reports
// (3600 seconds when it reports none). Requests with an expired token refresh first; a
// 401 from the API triggers exactly one refresh and one retry. Rejected refreshes surface
// the remote error_description through [AuthError].
//
// # Caching
//
// [SpotifyService.Request] consults a [cache.Policy]: the first rule whose prefix matches
// the endpoint decides the TTL, and a zero TTL bypasses the cache. Cached endpoints go
// through a [cache.Loader], so concurrent misses share one upstream call.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrMissingCredentials] : refresh token, client id or client secret absent
//   - [shared.ErrRefreshFailed] : wrapped by [AuthError]
//   - [shared.ErrAPIRequest] : wrapped by [APIError], carries status and body
//   - [shared.ErrPlaylistNotFound] : no playlist matched a prefix search
//
// A 204 (nothing playing) is not an error: typed helpers return nil.
package services
