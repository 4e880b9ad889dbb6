package domain

// Step is a position in the login state machine
type Step string

const (
	StepPhoneInput       Step = "PHONE_INPUT"
	StepCodeVerification Step = "CODE_VERIFICATION"
	StepCompleted        Step = "COMPLETED"
)

// AuthState is the state of one client's login session.
// VerificationCode is only set while CurrentStep is StepCodeVerification
// and is never serialized.
type AuthState struct {
	User             *SessionUser `json:"user"`
	CurrentStep      Step         `json:"current_step"`
	PhoneNumber      string       `json:"phone_number,omitempty"`
	VerificationCode string       `json:"-"`
	Error            string       `json:"error,omitempty"`
	IsLoading        bool         `json:"is_loading"`
}

// InitialAuthState returns the state a session starts in before the persisted session is loaded
func InitialAuthState() AuthState {
	return AuthState{CurrentStep: StepPhoneInput, IsLoading: true}
}

// IsAuthenticated reports whether the session holds a verified principal
func (s AuthState) IsAuthenticated() bool {
	return s.User != nil && s.CurrentStep == StepCompleted
}

// Action is a tagged transition applied to an AuthState by Reduce.
// The set of actions is closed to this package.
type Action interface {
	action()
}

// SessionRestored is applied when a persisted session was loaded
type SessionRestored struct{ User *SessionUser }

// SessionLoadFailed is applied when no usable persisted session exists
type SessionLoadFailed struct{}

// LoginInitiated is applied when a code was issued for a known phone number
type LoginInitiated struct {
	Phone string
	Code  string
}

// LoginRejected is applied when a login could not be started
type LoginRejected struct{ Error string }

// CodeRejected is applied when a submitted code was not accepted
type CodeRejected struct{ Error string }

// CodeVerified is applied when the submitted code was accepted
type CodeVerified struct{ User *SessionUser }

// LoggedOut is applied on logout
type LoggedOut struct{}

// OperationStarted clears the previous error at the start of an operation
type OperationStarted struct{}

func (SessionRestored) action()   {}
func (SessionLoadFailed) action() {}
func (LoginInitiated) action()    {}
func (LoginRejected) action()     {}
func (CodeRejected) action()      {}
func (CodeVerified) action()      {}
func (LoggedOut) action()         {}
func (OperationStarted) action()  {}

// Reduce applies an action to a state and returns the next state.
// Actions that are not valid from the current step return the state unchanged.
func Reduce(s AuthState, a Action) AuthState {
	switch a := a.(type) {
	case SessionRestored:
		if a.User == nil {
			return Reduce(s, SessionLoadFailed{})
		}
		return AuthState{User: a.User, CurrentStep: StepCompleted, PhoneNumber: a.User.Phone}
	case SessionLoadFailed:
		return AuthState{CurrentStep: StepPhoneInput}
	case OperationStarted:
		s.Error = ""
		return s
	case LoginInitiated:
		if s.CurrentStep == StepCompleted {
			return s
		}
		return AuthState{CurrentStep: StepCodeVerification, PhoneNumber: a.Phone, VerificationCode: a.Code}
	case LoginRejected:
		if s.CurrentStep == StepCompleted {
			return s
		}
		return AuthState{CurrentStep: StepPhoneInput, PhoneNumber: s.PhoneNumber, Error: a.Error}
	case CodeRejected:
		if s.CurrentStep != StepCodeVerification {
			return s
		}
		s.Error = a.Error
		return s
	case CodeVerified:
		if s.CurrentStep != StepCodeVerification || a.User == nil {
			return s
		}
		return AuthState{User: a.User, CurrentStep: StepCompleted, PhoneNumber: s.PhoneNumber}
	case LoggedOut:
		return AuthState{CurrentStep: StepPhoneInput}
	}
	return s
}

// AuthSnapshot is the read-only view of a login session exposed to the rest of the application
type AuthSnapshot struct {
	User            *SessionUser `json:"user"`
	IsAuthenticated bool         `json:"is_authenticated"`
	IsLoading       bool         `json:"is_loading"`
	Error           string       `json:"error,omitempty"`
	CurrentStep     Step         `json:"current_step"`
	PhoneNumber     string       `json:"phone_number,omitempty"`
	CodeExpiresIn   int          `json:"code_expires_in"`
	IsCodeExpired   bool         `json:"is_code_expired"`
}

// Snapshot combines the state with the countdown values
func (s AuthState) Snapshot(expiresIn int, expired bool) AuthSnapshot {
	return AuthSnapshot{
		User:            s.User,
		IsAuthenticated: s.IsAuthenticated(),
		IsLoading:       s.IsLoading,
		Error:           s.Error,
		CurrentStep:     s.CurrentStep,
		PhoneNumber:     s.PhoneNumber,
		CodeExpiresIn:   expiresIn,
		IsCodeExpired:   expired,
	}
}
