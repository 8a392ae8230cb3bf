package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"edupoints/internal/bootstrap"
	"edupoints/internal/bootstrap/logging"
	domainpoints "edupoints/internal/domain/points"
	"edupoints/internal/errs"
	"edupoints/internal/usecase/points"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the learning-platform webhook receiver",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App, svc *points.Service) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		addr, _ := cmd.Flags().GetString("addr")
		addr = strings.TrimSpace(addr)
		if addr == "" {
			addr = ":8080"
		}

		policy := points.SignaturePolicy{
			Secret:     app.Config.Webhook.Secret,
			Permissive: app.Config.PermissiveSignature(),
		}

		server := &http.Server{
			Addr:    addr,
			Handler: newWebhookHandler(ctx, svc, policy),
		}

		logging.Info(
			ctx,
			"webhook server started",
			slog.String("addr", addr),
			slog.Bool("permissive_signature", policy.Permissive),
		)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error(ctx, "webhook server failed", slog.Any("err", errs.Loggable(err)))
			return errs.Wrap(err, "serve webhook")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "Webhook listen address")
}

type completionIngestService interface {
	IngestCompletionEvent(context.Context, points.IngestInput) (points.IngestResult, error)
}

type webhookHTTPHandler struct {
	baseCtx context.Context
	svc     completionIngestService
	policy  points.SignaturePolicy
}

type webhookEnvelope struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Error   *webhookErrorBody `json:"error,omitempty"`
}

type webhookErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type webhookEventResponse struct {
	Outcome         string `json:"outcome"`
	ExternalEventID string `json:"external_event_id,omitempty"`
	Tag             string `json:"tag,omitempty"`
	UserID          uint64 `json:"user_id,omitempty"`
	PointsAwarded   int    `json:"points_awarded,omitempty"`
	Duplicate       bool   `json:"duplicate,omitempty"`
}

func newWebhookHandler(ctx context.Context, svc completionIngestService, policy points.SignaturePolicy) http.Handler {
	h := &webhookHTTPHandler{
		baseCtx: ctx,
		svc:     svc,
		policy:  policy,
	}

	r := chi.NewRouter()
	r.Post("/webhooks/learning", h.handleCompletion)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeWebhookEnvelope(w, http.StatusOK, webhookEnvelope{Success: true, Data: map[string]string{"status": "ok"}})
	})
	return r
}

func (h *webhookHTTPHandler) handleCompletion(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	ctx := logging.WithAttrs(h.requestContext(r), slog.String("request_id", requestID))

	if h.svc == nil {
		writeWebhookFailure(w, http.StatusInternalServerError, "internal_error", "ingest service is not configured")
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeWebhookFailure(w, http.StatusBadRequest, "payload_unreadable", "failed to read payload")
		return
	}

	if err := h.policy.Verify(payload, r.Header.Get("X-Webhook-Signature-256")); err != nil {
		logging.Warn(ctx, "webhook signature rejected", slog.Any("err", errs.Loggable(err)))
		writeWebhookFailure(w, http.StatusUnauthorized, "signature_invalid", err.Error())
		return
	}

	adminReplay := strings.EqualFold(strings.TrimSpace(r.Header.Get("X-Admin-Replay")), "true")

	out, err := h.svc.IngestCompletionEvent(ctx, points.IngestInput{
		Payload:     payload,
		AdminReplay: adminReplay,
	})
	if err != nil {
		status, code := classifyIngestError(err)
		if status == http.StatusInternalServerError {
			logging.Error(ctx, "ingest completion event failed", slog.Any("err", errs.Loggable(err)))
			writeWebhookFailure(w, status, code, "internal error")
			return
		}
		logging.Warn(ctx, "completion event rejected", slog.String("code", code), slog.Any("err", errs.Loggable(err)))
		writeWebhookFailure(w, status, code, err.Error())
		return
	}

	logging.Info(
		ctx,
		"completion event handled",
		slog.String("outcome", string(out.Outcome)),
		slog.String("external_event_id", out.ExternalEventID),
		slog.String("tag", out.Tag),
	)

	if out.Outcome == domainpoints.OutcomeIneligible {
		writeWebhookFailure(w, http.StatusForbidden, "account_ineligible", "account type is not eligible for awards")
		return
	}

	writeWebhookEnvelope(w, ingestOutcomeStatus(out.Outcome), webhookEnvelope{
		Success: true,
		Data: webhookEventResponse{
			Outcome:         string(out.Outcome),
			ExternalEventID: out.ExternalEventID,
			Tag:             out.Tag,
			UserID:          out.UserID,
			PointsAwarded:   out.PointsAwarded,
			Duplicate:       out.Duplicate,
		},
	})
}

// requestContext keeps request cancellation from r.Context while carrying the
// server's logger and attrs over to the request scope.
func (h *webhookHTTPHandler) requestContext(r *http.Request) context.Context {
	if h.baseCtx == nil {
		return r.Context()
	}
	ctx := logging.WithLogger(r.Context(), logging.Logger(h.baseCtx))
	return logging.WithAttrs(ctx, logging.Attrs(h.baseCtx)...)
}

func classifyIngestError(err error) (int, string) {
	switch {
	case errors.Is(err, domainpoints.ErrPayloadInvalid):
		return http.StatusBadRequest, "payload_invalid"
	case errors.Is(err, domainpoints.ErrEventTimeInvalid):
		return http.StatusBadRequest, "event_time_invalid"
	case errors.Is(err, domainpoints.ErrEventStale):
		return http.StatusBadRequest, "event_stale"
	case errors.Is(err, domainpoints.ErrSignatureMissing), errors.Is(err, domainpoints.ErrSignatureInvalid):
		return http.StatusUnauthorized, "signature_invalid"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func ingestOutcomeStatus(outcome domainpoints.Outcome) int {
	switch outcome {
	case domainpoints.OutcomeIgnored, domainpoints.OutcomeUnmatched:
		return http.StatusAccepted
	default:
		return http.StatusOK
	}
}

func writeWebhookFailure(w http.ResponseWriter, status int, code string, message string) {
	writeWebhookEnvelope(w, status, webhookEnvelope{
		Success: false,
		Error: &webhookErrorBody{
			Code:    code,
			Message: message,
		},
	})
}

func writeWebhookEnvelope(w http.ResponseWriter, status int, envelope webhookEnvelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope)
}
