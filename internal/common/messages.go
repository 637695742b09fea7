package common

// Client-facing message constants. Handlers and services must use these
// instead of ad-hoc strings so equal failure modes stay textually equal
// (login with an unknown email and login with a wrong password must be
// indistinguishable to the caller).
const (
	MsgSuccess         = "Operation successful"
	MsgRegisterSuccess = "Registration successful"
	MsgLoginSuccess    = "Login successful"
	MsgProfileUpdated  = "Profile updated successfully"
	MsgPasswordChanged = "Password changed successfully"

	MsgNotFound           = "Resource not found"
	MsgRouteNotFound      = "Route not found"
	MsgAuthRequired       = "Authentication required"
	MsgTokenInvalid       = "Invalid or expired token"
	MsgForbidden          = "You do not have permission to access this resource"
	MsgInvalidCredentials = "Invalid email or password"
	MsgEmailExists        = "Email already registered"
	MsgAccountDeactivated = "Account is deactivated"

	MsgValidationFailed         = "Validation failed"
	MsgInvalidPayload           = "Invalid request payload"
	MsgInvalidEmail             = "Invalid email format"
	MsgPasswordTooShort         = "Password must be at least 6 characters"
	MsgNameTooShort             = "Name must be at least 2 characters"
	MsgNameTooLong              = "Name cannot exceed 50 characters"
	MsgInvalidRole              = "Role must be either admin or user"
	MsgCurrentPasswordIncorrect = "Current password is incorrect"

	MsgTooManyRequests     = "Too many requests, please try again later"
	MsgTooManyAuthAttempts = "Too many authentication attempts, please try again later"
	MsgTooManyCreates      = "Too many create requests, please slow down"

	MsgInternalError = "Internal server error"
)
