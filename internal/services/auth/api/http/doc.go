// Package httpapi exposes the account service as a JSON REST API.
//
// Every response uses the same envelope. Successes carry
// {"success":true,"message":...,"data":...}; failures carry
// {"success":false,"message":...,"error":CODE} where CODE is the machine
// readable error code and message is localized from Accept-Language.
package httpapi
