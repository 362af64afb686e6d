package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeUnknown             = "UNKNOWN"
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeUserEmptyName       = "USER_EMPTY_NAME"
	CodeUserEmptyEmail      = "USER_EMPTY_EMAIL"
	CodeUserInvalidEmail    = "USER_INVALID_EMAIL"
	CodeUserInvalidRole     = "USER_INVALID_ROLE"
	CodeUserPasswordShort   = "USER_PASSWORD_TOO_SHORT"
	CodeUserPasswordLong    = "USER_PASSWORD_TOO_LONG"
	CodeUserEmailTaken      = "USER_EMAIL_TAKEN"
	CodeUserFederatedOnly   = "USER_FEDERATED_ONLY"
	CodeUserPasswordInvalid = "USER_CURRENT_PASSWORD_INVALID"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeUnauthenticated     = "UNAUTHENTICATED"
	CodeAccountDisabled     = "ACCOUNT_DISABLED"
	CodeForbidden           = "FORBIDDEN"
	CodeOAuthDisabled       = "OAUTH_DISABLED"
	CodeOAuthInvalidState   = "OAUTH_INVALID_STATE"
	CodeOAuthFailed         = "OAUTH_FAILED"
	CodeOAuthMissingEmail   = "OAUTH_MISSING_EMAIL"
	CodeNotFound            = "NOT_FOUND"
	CodeUnavailable         = "UNAVAILABLE"
	CodeTooManyRequests     = "TOO_MANY_REQUESTS"
	CodeRouteNotFound       = "ROUTE_NOT_FOUND"
	CodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
)

// Success message keys used by the HTTP API.
const (
	MsgAPIBanner       = "API_BANNER"
	MsgUserRegistered  = "USER_REGISTERED"
	MsgLoginSucceeded  = "LOGIN_SUCCEEDED"
	MsgGoogleLogin     = "GOOGLE_LOGIN_SUCCEEDED"
	MsgPasswordChanged = "PASSWORD_CHANGED"
	MsgUserUpdated     = "USER_UPDATED"
	MsgUserDeleted     = "USER_DELETED"
)

var esMessages = map[Code]string{
	CodeUnknown:             "Error interno del servidor",
	CodeInvalidRequest:      "Solicitud inválida",
	CodeUserEmptyName:       "El nombre es obligatorio",
	CodeUserEmptyEmail:      "El email es obligatorio",
	CodeUserInvalidEmail:    "El email no es válido",
	CodeUserInvalidRole:     "El rol debe ser {{.Allowed}}",
	CodeUserPasswordShort:   "La contraseña debe tener al menos {{.Min}} caracteres",
	CodeUserPasswordLong:    "La contraseña no puede superar {{.Max}} bytes",
	CodeUserEmailTaken:      "El email ya está registrado",
	CodeUserFederatedOnly:   "Esta cuenta solo puede iniciar sesión con Google",
	CodeUserPasswordInvalid: "La contraseña actual es incorrecta",
	CodeInvalidCredentials:  "Credenciales inválidas",
	CodeUnauthenticated:     "No autorizado",
	CodeAccountDisabled:     "La cuenta está desactivada",
	CodeForbidden:           "No tienes permisos para realizar esta acción",
	CodeOAuthDisabled:       "El inicio de sesión con Google no está configurado",
	CodeOAuthInvalidState:   "Estado de autenticación inválido o expirado",
	CodeOAuthFailed:         "Error al iniciar sesión con Google",
	CodeOAuthMissingEmail:   "Google no devolvió un email",
	CodeNotFound:            "Usuario no encontrado",
	CodeUnavailable:         "Servicio no disponible",
	CodeTooManyRequests:     "Demasiadas solicitudes, intenta más tarde",
	CodeRouteNotFound:       "Ruta no encontrada",
	CodeMethodNotAllowed:    "Método no permitido",

	MsgAPIBanner:       "API de gestión de usuarios",
	MsgUserRegistered:  "Usuario registrado exitosamente",
	MsgLoginSucceeded:  "Inicio de sesión exitoso",
	MsgGoogleLogin:     "Login con Google exitoso",
	MsgPasswordChanged: "Contraseña actualizada exitosamente",
	MsgUserUpdated:     "Usuario actualizado exitosamente",
	MsgUserDeleted:     "Usuario eliminado exitosamente",
}

var enMessages = map[Code]string{
	CodeUnknown:             "Internal server error",
	CodeInvalidRequest:      "Invalid request",
	CodeUserEmptyName:       "Name is required",
	CodeUserEmptyEmail:      "Email is required",
	CodeUserInvalidEmail:    "Email is not valid",
	CodeUserInvalidRole:     "Role must be {{.Allowed}}",
	CodeUserPasswordShort:   "Password must be at least {{.Min}} characters",
	CodeUserPasswordLong:    "Password must be at most {{.Max}} bytes",
	CodeUserEmailTaken:      "Email is already registered",
	CodeUserFederatedOnly:   "This account can only sign in with Google",
	CodeUserPasswordInvalid: "Current password is incorrect",
	CodeInvalidCredentials:  "Invalid credentials",
	CodeUnauthenticated:     "Unauthorized",
	CodeAccountDisabled:     "Account is disabled",
	CodeForbidden:           "You do not have permission to perform this action",
	CodeOAuthDisabled:       "Google sign-in is not configured",
	CodeOAuthInvalidState:   "Invalid or expired authentication state",
	CodeOAuthFailed:         "Google sign-in failed",
	CodeOAuthMissingEmail:   "Google did not return an email",
	CodeNotFound:            "User not found",
	CodeUnavailable:         "Service unavailable",
	CodeTooManyRequests:     "Too many requests, try again later",
	CodeRouteNotFound:       "Route not found",
	CodeMethodNotAllowed:    "Method not allowed",

	MsgAPIBanner:       "User management API",
	MsgUserRegistered:  "User registered successfully",
	MsgLoginSucceeded:  "Signed in successfully",
	MsgGoogleLogin:     "Signed in with Google successfully",
	MsgPasswordChanged: "Password updated successfully",
	MsgUserUpdated:     "User updated successfully",
	MsgUserDeleted:     "User deleted successfully",
}
