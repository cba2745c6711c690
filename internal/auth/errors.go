package auth

import "errors"

// ErrUnauthenticated covers every rejected credential: missing, malformed,
// expired, revoked or forged. Callers must not distinguish between them.
var ErrUnauthenticated = errors.New("unauthenticated")
