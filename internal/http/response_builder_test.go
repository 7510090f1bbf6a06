package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusOK).
		BodyString("test").
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "test" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "test")
	}
	if w.Header().Get("HX-Trigger") != "" {
		t.Error("HX-Trigger must not be set without triggers")
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerRefresh(RefreshTransactions).
		TriggerRefresh("unknown").
		TriggerDialogClose().
		TriggerSuccessNotification("Lançamento criado!").
		Write(w)

	header := w.Header().Get("HX-Trigger")
	for i := 0; i < len(header); i++ {
		if header[i] >= 0x80 {
			t.Fatalf("HX-Trigger must be ASCII: %q", header)
		}
	}

	var got map[string]json.RawMessage
	if err := json.Unmarshal([]byte(header), &got); err != nil {
		t.Fatalf("HX-Trigger is not JSON: %v", err)
	}
	for _, ev := range []string{EventTransactionsRefresh, EventDialogClose, EventShowNotification} {
		if _, ok := got[ev]; !ok {
			t.Errorf("HX-Trigger missing %q: %s", ev, w.Header().Get("HX-Trigger"))
		}
	}
	if len(got) != 3 {
		t.Errorf("unexpected events: %v", got)
	}

	var toast struct {
		Type     string `json:"type"`
		Message  string `json:"message"`
		Duration int    `json:"duration"`
	}
	if err := json.Unmarshal(got[EventShowNotification], &toast); err != nil {
		t.Fatal(err)
	}
	if toast.Type != "success" || toast.Message != "Lançamento criado!" || toast.Duration != 3000 {
		t.Errorf("toast = %+v", toast)
	}
}

func TestToastError(t *testing.T) {
	w := httptest.NewRecorder()
	ToastError("Erro ao salvar categoria.").Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want 200", w.Code)
	}
	if got := w.Header().Get("HX-Reswap"); got != "none" {
		t.Errorf("HX-Reswap = %q, want none", got)
	}
	trigger := w.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, `"type":"error"`) || !strings.Contains(trigger, "Erro ao salvar categoria.") {
		t.Errorf("HX-Trigger = %s", trigger)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", w.Body.String())
	}
}

func TestHTMXResponseBuilder_CustomHeader(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Header("X-Custom", "value").
		Write(w)

	if got := w.Header().Get("X-Custom"); got != "value" {
		t.Errorf("X-Custom = %q, want %q", got, "value")
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name     string
		builder  *HTMXResponseBuilder
		wantCode int
	}{
		{"bad request", BadRequestError("x"), http.StatusBadRequest},
		{"not found", NotFoundError("x"), http.StatusNotFound},
		{"internal", InternalServerError("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			if w.Code != tt.wantCode {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantCode)
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestErrorResponse_EscapesHTML(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorResponse(http.StatusBadRequest, "<script>alert(1)</script>").Write(w)

	body := w.Body.String()
	if strings.Contains(body, "<script>") {
		t.Errorf("Body not escaped: %s", body)
	}
	if !strings.Contains(body, "&lt;script&gt;") {
		t.Errorf("Body missing escaped content: %s", body)
	}
}
