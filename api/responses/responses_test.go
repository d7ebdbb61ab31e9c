package responses

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/threadline-co/storefront-backend/pkg/errors"
)

func TestWriteSuccessWrapsDataEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteSuccess(rec, map[string]string{"orderId": "abc"})

	if rec.Code != 200 {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	var body struct {
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Data["orderId"] != "abc" {
		t.Fatalf("unexpected payload %+v", body)
	}
}

func TestWriteWebhookAckIsNotEnveloped(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteWebhookAck(rec)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if received, ok := body["received"].(bool); !ok || !received {
		t.Fatalf("expected bare received:true, got %v", body)
	}
	if _, enveloped := body["data"]; enveloped {
		t.Fatal("webhook ack must not be wrapped in a data envelope")
	}
}

func TestWriteErrorMapsCodeToStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "validation passes message through",
			err:        pkgerrors.New(pkgerrors.CodeValidation, "qty must be positive"),
			wantStatus: 400,
			wantCode:   string(pkgerrors.CodeValidation),
			wantMsg:    "qty must be positive",
		},
		{
			name:       "signature failures use the fixed public message",
			err:        pkgerrors.New(pkgerrors.CodeSignature, "hmac mismatch on v1 component"),
			wantStatus: 400,
			wantCode:   string(pkgerrors.CodeSignature),
			wantMsg:    "signature verification failed",
		},
		{
			name:       "not found",
			err:        pkgerrors.New(pkgerrors.CodeNotFound, "order not found"),
			wantStatus: 404,
			wantCode:   string(pkgerrors.CodeNotFound),
			wantMsg:    "order not found",
		},
		{
			name:       "untyped errors become internal",
			err:        context.DeadlineExceeded,
			wantStatus: 500,
			wantCode:   string(pkgerrors.CodeInternal),
		},
		{
			name:       "dependency failures are 503",
			err:        pkgerrors.New(pkgerrors.CodeDependency, "database unavailable"),
			wantStatus: 503,
			wantCode:   string(pkgerrors.CodeDependency),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(context.Background(), nil, rec, tc.err)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}

			var body struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error.Code != tc.wantCode {
				t.Fatalf("code = %q, want %q", body.Error.Code, tc.wantCode)
			}
			if tc.wantMsg != "" && body.Error.Message != tc.wantMsg {
				t.Fatalf("message = %q, want %q", body.Error.Message, tc.wantMsg)
			}
		})
	}
}
