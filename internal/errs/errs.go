package errs

import (
	"errors"
	"fmt"
)

// AuthReason classifies authentication failures.
type AuthReason string

const (
	// AuthMissingCredentials indicates no usable cookies could be loaded.
	AuthMissingCredentials AuthReason = "missing_credentials"

	// AuthCsrfUnavailable indicates the CSRF probe found no token marker.
	AuthCsrfUnavailable AuthReason = "csrf_unavailable"

	// AuthSessionExpired indicates the remote rejected the session
	// credentials. Fatal for the rest of the run.
	AuthSessionExpired AuthReason = "session_expired"
)

// AuthError represents an authentication failure. Unrecoverable for the
// current run without operator intervention.
type AuthError struct {
	Reason  AuthReason
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth: %s", e.Reason)
	}
	return fmt.Sprintf("auth: %s: %s", e.Reason, e.Message)
}

// RemoteReason classifies remote service failures.
type RemoteReason string

const (
	// RemoteRateLimited indicates the remote throttled automated access.
	RemoteRateLimited RemoteReason = "rate_limited"

	// RemoteMalformed indicates a response could not be decoded into entries.
	RemoteMalformed RemoteReason = "malformed"

	// RemoteNotFound indicates the requested resource does not exist.
	RemoteNotFound RemoteReason = "not_found"
)

// RemoteError represents a remote service error response.
type RemoteError struct {
	Reason     RemoteReason
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote: %s (status %d): %s", e.Reason, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote: %s: %s", e.Reason, e.Message)
}

// NetworkReason classifies transport failures.
type NetworkReason string

const (
	NetworkTimeout          NetworkReason = "timeout"
	NetworkConnectionFailed NetworkReason = "connection_failed"
)

// NetworkError represents a transport failure on a single request.
type NetworkError struct {
	Reason NetworkReason
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network: %s: %s: %v", e.Reason, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// FilesystemReason classifies local write failures.
type FilesystemReason string

const (
	FilesystemWriteFailed FilesystemReason = "write_failed"
	FilesystemPathTooLong FilesystemReason = "path_too_long"
)

// FilesystemError represents a failed write under the output directory.
type FilesystemError struct {
	Reason FilesystemReason
	Path   string
	Err    error
}

func (e *FilesystemError) Error() string {
	if e.Reason == FilesystemPathTooLong {
		return fmt.Sprintf("filesystem: %s: %s (consider --cut-length to truncate file names): %v", e.Reason, e.Path, e.Err)
	}
	return fmt.Sprintf("filesystem: %s: %s: %v", e.Reason, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// DecryptionError represents a failed decryption; the original encrypted
// artifact is retained regardless.
type DecryptionError struct {
	Path string
	Err  error
}

func (e *DecryptionError) Error() string {
	return fmt.Sprintf("decryption failed for %s: %v", e.Path, e.Err)
}

func (e *DecryptionError) Unwrap() error {
	return e.Err
}

// IsSessionExpired checks if the error indicates a fatal session expiry.
func IsSessionExpired(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) && authErr.Reason == AuthSessionExpired
}

// IsAuth checks if the error is any authentication failure.
func IsAuth(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsRateLimited checks if the error indicates remote throttling.
func IsRateLimited(err error) bool {
	var remoteErr *RemoteError
	return errors.As(err, &remoteErr) && remoteErr.Reason == RemoteRateLimited
}

// Kind returns the taxonomy label for an error, used in outcome records.
func Kind(err error) string {
	var (
		authErr    *AuthError
		remoteErr  *RemoteError
		netErr     *NetworkError
		fsErr      *FilesystemError
		decryptErr *DecryptionError
	)
	switch {
	case errors.As(err, &authErr):
		return "auth:" + string(authErr.Reason)
	case errors.As(err, &remoteErr):
		return "remote:" + string(remoteErr.Reason)
	case errors.As(err, &netErr):
		return "network:" + string(netErr.Reason)
	case errors.As(err, &fsErr):
		return "filesystem:" + string(fsErr.Reason)
	case errors.As(err, &decryptErr):
		return "decryption"
	default:
		return "unknown"
	}
}
