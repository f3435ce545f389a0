package poller

import (
	"errors"

	"jobwatch/internal/status"
)

// ErrorKind buckets the reasons a session can surface an error callback.
type ErrorKind string

const (
	// KindNetwork covers transport failures: refused connections, resets,
	// DNS errors, and per-request deadline expiry.
	KindNetwork ErrorKind = "network"
	// KindHTTP covers non-2xx responses from the backend.
	KindHTTP ErrorKind = "http"
	// KindMalformed covers responses the normalizer rejected.
	KindMalformed ErrorKind = "malformed"
	// KindTimeout means the attempt budget was exhausted before the job
	// reached a terminal state.
	KindTimeout ErrorKind = "timeout"
	// KindJobFailed means the backend reported the job itself failed.
	KindJobFailed ErrorKind = "job_failed"
)

// Classify maps a tick failure onto an ErrorKind for logging and the
// terminal error callback.
func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, status.ErrMalformed):
		return KindMalformed
	case errors.Is(err, status.ErrNetwork):
		return KindNetwork
	}
	if _, ok := status.HTTPStatusCode(err); ok {
		return KindHTTP
	}
	return KindNetwork
}
