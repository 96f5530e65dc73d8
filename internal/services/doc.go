// Package services implements the two collaborators a sync run depends on: a [Library] of saved tracks and a [Poster]
// that publishes status updates.
//
// # Spotify
//
// [SpotifyService] reads one page of the user's saved tracks from /v1/me/tracks and maps each record to a
// [models.SavedItem]. Authentication uses [oauth2]: the stored access/refresh token pair is installed with
// [SpotifyService.OAuthenticate] and the [oauth2.Client] refreshes expired tokens automatically.
//
// # X
//
// [XService] creates posts through the v2 API (POST /2/tweets) with an OAuth 2.0 user-context token.
// An optional client-side [rate.Limiter] caps request frequency.
//
// # Token Persistence
//
// Both services wrap their token source so that every new token is handed to a [TokenRefreshFunc]. The CLI uses
// this to write refreshed tokens back to config.toml.
//
// # Error Handling
//
// Responses are mapped onto the sentinel errors of the shared package:
//   - [shared.ErrTokenExpired] : 401, token rejected and could not be refreshed
//   - [shared.ErrForbidden] : 403 from X, e.g. duplicate content; never retried
//   - [shared.ErrRateLimited] : 429, wrapped in a [*RateLimitError] carrying retry-after and reset metadata
//   - [shared.ErrAPIRequest] : any other non-2xx status or transport failure
//
// # Dry Runs
//
// [DryRunPoster] logs the text it would post and always succeeds.
package services
