// Package jwt issues and verifies the portal bearer token.
//
// The token only names a server-side session (claim "sid") and the backend
// customer id (subject). The backend token never leaves the server.
package jwt
