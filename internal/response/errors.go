package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrSessionActive      ErrCode = "SESSION_ALREADY_ACTIVE"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrTokenExpired       ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden         ErrCode = "FORBIDDEN"
	ErrLearnerAccessOnly ErrCode = "LEARNER_ACCESS_ONLY"
	ErrStaffAccessOnly   ErrCode = "STAFF_ACCESS_ONLY"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound         ErrCode = "NOT_FOUND"
	ErrConflict         ErrCode = "CONFLICT"
	ErrDependencyExists ErrCode = "DEPENDENCY_EXISTS"

	// ─── Evaluation & attempts ─────────────────────────────────────────
	ErrEvaluationNotActive   ErrCode = "EVALUATION_NOT_ACTIVE"
	ErrEvaluationNotGradable ErrCode = "EVALUATION_NOT_GRADABLE"
	ErrNoQuestions           ErrCode = "NO_QUESTIONS"
	ErrAttemptNotFound       ErrCode = "ATTEMPT_NOT_FOUND"
	ErrAttemptClosed         ErrCode = "ATTEMPT_CLOSED"

	// ─── Progress ──────────────────────────────────────────────────────
	ErrLessonLocked ErrCode = "LESSON_LOCKED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Email or password is incorrect."
	case ErrSessionActive:
		return "You are already signed in on another device."
	case ErrSessionInvalidated:
		return "Your session has ended. Please sign in again."
	case ErrTokenRequired:
		return "An authentication token is required."
	case ErrTokenInvalid:
		return "The authentication token is invalid."
	case ErrTokenExpired:
		return "The authentication token has expired."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You do not have permission to access this resource."
	case ErrLearnerAccessOnly:
		return "This resource is restricted to learners."
	case ErrStaffAccessOnly:
		return "This resource is restricted to administrators and trainers."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "The ID format is invalid."
	case ErrInvalidPayload:
		return "The request payload is invalid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "The resource was not found."
	case ErrConflict:
		return "The resource already exists."
	case ErrDependencyExists:
		return "The record cannot be deleted because other records depend on it."

	// ─── Evaluation & attempts ─────────────────────────────────────────
	case ErrEvaluationNotActive:
		return "This evaluation is not currently available."
	case ErrEvaluationNotGradable:
		return "This evaluation has no gradable points and cannot be taken."
	case ErrNoQuestions:
		return "This evaluation has no questions."
	case ErrAttemptNotFound:
		return "No attempt is in progress for this evaluation."
	case ErrAttemptClosed:
		return "This attempt has already been submitted or has expired."

	// ─── Progress ──────────────────────────────────────────────────────
	case ErrLessonLocked:
		return "Complete the previous lesson to unlock this one."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
