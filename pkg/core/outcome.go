package core

// Message constants shared by the runners.
const (
	MessageSuccess            = "success"
	MessageExitTriggered      = "exit command triggered"
	MessageNoValidation       = "NO_VALIDATION_DEFINED"
	MessageValidationSuccess  = "VALIDATION_SUCCESS_EXECUTED"
	MessageValidationHandled  = "VALIDATION_FAILED_EXECUTED"
	MessageValidMatchExecuted = "VALID_MATCH_EXECUTED"
	MessageCancelled          = "EXECUTION_CANCELLED"
)

// Outcome is the (success, message) pair produced by every dispatched action
// and by every validator resolution. In multi-outcome actions Message doubles
// as the discriminant label matched against valid_match keys.
type Outcome struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Pass returns a successful Outcome.
func Pass(message string) Outcome {
	return Outcome{Success: true, Message: message}
}

// Fail returns a failing Outcome.
func Fail(message string) Outcome {
	return Outcome{Success: false, Message: message}
}

// String renders the outcome for logs.
func (o Outcome) String() string {
	if o.Success {
		return "success(" + o.Message + ")"
	}
	return "failed(" + o.Message + ")"
}
