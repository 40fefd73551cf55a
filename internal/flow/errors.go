package flow

import "errors"

// ErrInitiationFailed is returned by InitiationStep when the backend fails for any reason other
// than a malformed phone number. The host must treat it as an unrecoverable step failure.
var ErrInitiationFailed = errors.New("unable to initiate the verification process")
