package utils

import (
	"log"
	"strings"
)

// LogEvent writes one line per domain event (trip delays, seat claims, fare
// warnings). Messages carry key=value pairs only, never request payloads.
func LogEvent(requestID, module, action, message string) {
	log.Printf("[%s] action=%s request_id=%s msg=%s",
		strings.ToUpper(module), action, strings.TrimSpace(requestID), message)
}
