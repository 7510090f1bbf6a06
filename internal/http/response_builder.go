// Package http serves the VBudget pages and HTMX partials.
//
// This file implements the builder used by every handler to answer HTMX
// requests: HX-Trigger events for toasts and list refreshes, HX-Reswap to
// leave an open dialog untouched, and the response body.

package http

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"unicode/utf16"
)

// Client-side events. Each list container listens for its refresh event
// and re-fetches its partial.
const (
	EventTransactionsRefresh  = "transactions:refresh"
	EventCategoriesRefresh    = "categories:refresh"
	EventNotificationsRefresh = "notifications:refresh"
	EventIntegrationsRefresh  = "integrations:refresh"
	EventDialogClose          = "dialog:close"
	EventShowNotification     = "show-notification"
)

// Refresh targets as carried by dialog.Outcome.
const (
	RefreshTransactions  = "transactions"
	RefreshCategories    = "categories"
	RefreshNotifications = "notifications"
	RefreshIntegrations  = "integrations"
)

var refreshEvents = map[string]string{
	RefreshTransactions:  EventTransactionsRefresh,
	RefreshCategories:    EventCategoriesRefresh,
	RefreshNotifications: EventNotificationsRefresh,
	RefreshIntegrations:  EventIntegrationsRefresh,
}

// HTMXResponseBuilder provides a fluent API for building HTMX responses.
type HTMXResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       []byte
	headers    map[string]string
}

// NewHTMXResponse creates a new response builder with default 200 status.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named event with optional data to the HX-Trigger header.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	if data == nil {
		data = struct{}{}
	}
	b.triggers[name] = data
	return b
}

// TriggerRefresh fires the refresh event of a list. Unknown names are ignored.
func (b *HTMXResponseBuilder) TriggerRefresh(list string) *HTMXResponseBuilder {
	if ev, ok := refreshEvents[list]; ok {
		b.Trigger(ev, nil)
	}
	return b
}

// TriggerDialogClose asks the page to drop the open dialog.
func (b *HTMXResponseBuilder) TriggerDialogClose() *HTMXResponseBuilder {
	return b.Trigger(EventDialogClose, nil)
}

// NotificationType represents the type of notification to display.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// TriggerNotification adds a show-notification trigger with the specified parameters.
func (b *HTMXResponseBuilder) TriggerNotification(notifType NotificationType, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger(EventShowNotification, map[string]any{
		"type":     string(notifType),
		"message":  message,
		"duration": durationMs,
	})
}

func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message, 3000)
}

func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationError, message, 5000)
}

// KeepDialog tells HTMX not to swap the response, so the dialog the user
// is looking at stays exactly as it was.
func (b *HTMXResponseBuilder) KeepDialog() *HTMXResponseBuilder {
	return b.Header("HX-Reswap", "none")
}

// Header adds a custom header to the response.
func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the response body as bytes.
func (b *HTMXResponseBuilder) Body(content []byte) *HTMXResponseBuilder {
	b.body = content
	return b
}

// BodyString sets the response body as a string.
func (b *HTMXResponseBuilder) BodyString(content string) *HTMXResponseBuilder {
	b.body = []byte(content)
	return b
}

// BodyHTML sets the response body as HTML content.
func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.headers["Content-Type"] = "text/html; charset=utf-8"
	b.body = []byte(html)
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if len(b.triggers) > 0 {
		triggerJSON, err := json.Marshal(b.triggers)
		if err == nil {
			w.Header().Set("HX-Trigger", asciiJSON(triggerJSON))
		}
	}

	w.WriteHeader(b.statusCode)
	if len(b.body) > 0 {
		_, _ = w.Write(b.body)
	}
}

// asciiJSON escapes every non-ASCII rune as \uXXXX. Browsers read header
// values as Latin-1, so raw UTF-8 in a toast message would arrive garbled.
func asciiJSON(data []byte) string {
	var sb strings.Builder
	sb.Grow(len(data))
	for _, r := range string(data) {
		switch {
		case r < 0x80:
			sb.WriteRune(r)
		case r > 0xFFFF:
			r1, r2 := utf16.EncodeRune(r)
			fmt.Fprintf(&sb, "\\u%04x\\u%04x", r1, r2)
		default:
			fmt.Fprintf(&sb, "\\u%04x", r)
		}
	}
	return sb.String()
}

// ErrorResponse creates a standard error response with HTML formatting.
// The message is HTML-escaped for safety.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	escapedMsg := template.HTMLEscapeString(message)
	return NewHTMXResponse().
		Status(statusCode).
		BodyHTML(`<div class="error">` + escapedMsg + `</div>`)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// ToastError answers a failed dialog action: the dialog is kept as is and
// the error is shown as a toast. The status stays 200 so HTMX processes
// the trigger.
func ToastError(message string) *HTMXResponseBuilder {
	return NewHTMXResponse().KeepDialog().TriggerErrorNotification(message)
}
