package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/threadline-co/storefront-backend/api/responses"
	"github.com/threadline-co/storefront-backend/internal/payments"
	"github.com/threadline-co/storefront-backend/internal/reconcile"
	pkgerrors "github.com/threadline-co/storefront-backend/pkg/errors"
	"github.com/threadline-co/storefront-backend/pkg/logger"
)

type completionService interface {
	Process(ctx context.Context, rawPayload []byte, signatureHeader string) (reconcile.Outcome, error)
}

// Completion handles payment-provider completion deliveries. The body is
// read raw and handed to verification untouched; duplicates ack exactly
// like first deliveries so the provider stops redelivering either way.
func Completion(svc completionService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconciler unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		if _, err := svc.Process(ctx, payload, r.Header.Get(payments.SignatureHeader)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteWebhookAck(w)
	}
}
