package domain

// Status is the backend's verdict on a submitted code. Only StatusSuccessful accepts;
// every other value, including backend-specific ones, is a rejection.
type Status string

const (
	StatusSuccessful Status = "SUCCESSFUL"
	StatusOther      Status = "OTHER"
)

// Successful reports whether s accepts the code.
func (s Status) Successful() bool { return s == StatusSuccessful }
