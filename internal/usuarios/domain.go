package usuarios

// User is one record returned by the usuarios endpoint.
type User struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Career    *string
}

// HasCareer reports whether the career line should be shown.
func (u User) HasCareer() bool {
	return u.Career != nil && *u.Career != ""
}

// Phase identifies the lifecycle stage of a LoadState.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseFailure Phase = "failure"
)

// LoadState is the controller's renderable lifecycle state. Records is only
// meaningful for PhaseSuccess and Message only for PhaseFailure.
type LoadState struct {
	Phase   Phase
	Records []User
	Message string
}

// Loading returns the in-flight state.
func Loading() LoadState {
	return LoadState{Phase: PhaseLoading}
}

// Success returns a terminal state carrying records in server order.
func Success(records []User) LoadState {
	if records == nil {
		records = []User{}
	}
	return LoadState{Phase: PhaseSuccess, Records: records}
}

// Failure returns a terminal state carrying a human-readable message.
func Failure(message string) LoadState {
	return LoadState{Phase: PhaseFailure, Message: message}
}

// Terminal reports whether no further transition happens without a new activation.
func (s LoadState) Terminal() bool {
	return s.Phase == PhaseSuccess || s.Phase == PhaseFailure
}

func (s LoadState) clone() LoadState {
	if s.Records == nil {
		return s
	}
	records := make([]User, len(s.Records))
	copy(records, s.Records)
	s.Records = records
	return s
}
