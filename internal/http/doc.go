// Package http provides HTTP handlers and middleware for the transport API.
//
// The router exposes the following endpoints:
//   - POST /sessions: issues a session token. Body: {"email","password"}.
//     Response: {"token","expires_at"} with the token also surfaced via the
//     `X-Session-Token` header and a `session_token` cookie.
//   - DELETE /sessions/current: revokes the caller's session token extracted
//     from the Authorization header or session cookie. Returns 204.
//   - GET /requests, POST /requests, GET /requests/{id}, PUT /requests/{id},
//     DELETE /requests/{id}: transport request endpoints exchanging the
//     `requestDTO` payload defined in request_handler.go. PUT and DELETE
//     accept `?series=true` to apply the change to the whole series from the
//     target's date forward.
//   - GET /services, POST /services, GET /services/{id}, PUT /services/{id},
//     POST /services/{id}/archive, POST /services/{id}/activate: service
//     catalog endpoints exchanging the `serviceDTO` payload defined in
//     service_handler.go. Listing is available to any authenticated
//     principal while mutations require admin privileges.
//
// Request/response DTOs live alongside their respective handlers so tests
// and documentation share the same ground truth.
package http
