// Package auth provides account registration, credential login, and JWT
// based request authentication for the course platform API.
//
// Registration:
//   - RegisterUserHandler validates a RegisterUserMessage, rejects duplicate
//     emails, hashes the password with bcrypt, derives a Gravatar avatar, and
//     persists the account through the Users repository. The users table
//     carries a unique constraint on email so concurrent registrations of the
//     same address resolve to exactly one account.
//
// Tokens:
//   - TokenService signs HS256 tokens carrying the user id, names, avatar,
//     and role. Verify classifies failures into Expired, InvalidSignature, and
//     Malformed so callers can log the reason while still answering 401.
//
// HTTP:
//   - RouteAuthenticator wraps the jwtware middleware. ProtectedRoute resolves
//     the bearer token to a stored User and places it on the request context
//     where CurrentUser and FromContext can read it.
//   - RegisterAuthRoutes mounts the /api/users endpoints on a fiber router.
//
// Activity sinks:
//   - ActivitySink receives login and registration events. Sinks run best
//     effort; errors are logged and never fail the request.
package auth
