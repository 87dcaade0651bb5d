package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/workchain/security-core/envelope"
	"github.com/workchain/security-core/internal/sinks"
	"github.com/workchain/security-core/internal/telemetry"
	"github.com/workchain/security-core/security"
)

func main() {
	const service = "workchain-security-core"
	telemetry.InitLogging(service)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTrace := telemetry.InitTracer(ctx, service)
	shutdownMetrics, metrics := telemetry.InitMetrics(ctx, service)

	meshSinks := security.Sinks{}
	if addr := os.Getenv("WORKCHAIN_NATS_URL"); addr != "" {
		conn, err := sinks.Connect(addr)
		if err != nil {
			slog.Warn("nats connect failed, sinks disabled", "error", err)
		} else {
			defer conn.Close()
			natsSinks := sinks.New(conn, ctx)
			meshSinks = security.Sinks{Alert: natsSinks, Throttle: natsSinks, Isolate: natsSinks, Reroute: natsSinks}
		}
	}

	mesh := security.NewMesh(meshSinks)
	mesh.Initialize()

	envelopeKey, err := envelope.NewKey()
	if err != nil {
		slog.Error("envelope key generation failed", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/v1/requests", handleProcessRequest(mesh, metrics))
	mux.HandleFunc("/v1/clients/", handleClientStatus(mesh))
	mux.HandleFunc("/v1/isolations", handleIsolations(mesh))
	mux.HandleFunc("/v1/envelope/seal", handleSeal(envelopeKey, metrics))
	mux.HandleFunc("/v1/envelope/open", handleOpen(envelopeKey, metrics))

	srv := &http.Server{Addr: listenAddr(), Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			cancel()
		}
	}()

	slog.Info("service started", "addr", srv.Addr)
	<-ctx.Done()
	slog.Info("shutdown initiated")

	ctxSd, c2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer c2()
	_ = srv.Shutdown(ctxSd)
	_ = shutdownTrace(ctxSd)
	_ = shutdownMetrics(ctxSd)
	slog.Info("shutdown complete")
}

func listenAddr() string {
	if addr := os.Getenv("WORKCHAIN_LISTEN_ADDR"); addr != "" {
		return addr
	}
	return ":8080"
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type requestPayload struct {
	ClientID   string             `json:"client_id"`
	ResourceID string             `json:"resource_id"`
	Pattern    uint8              `json:"pattern"`
	Confidence float64            `json:"confidence"`
	Indicators map[string]float64 `json:"indicators"`
}

func handleProcessRequest(mesh *security.Mesh, metrics telemetry.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var payload requestPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		metrics.RequestsProcessed.Add(r.Context(), 1)
		allowed := mesh.ProcessRequest(payload.ClientID, security.BehaviorMetrics{
			ClientID:   payload.ClientID,
			ResourceID: payload.ResourceID,
			Timestamp:  time.Now(),
			Pattern:    security.BehaviorPattern(payload.Pattern),
			Confidence: payload.Confidence,
			Indicators: payload.Indicators,
		})
		if !allowed {
			metrics.RequestsDenied.Add(r.Context(), 1)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"allowed": allowed,
			"score":   mesh.GetAnomalyScore(payload.ClientID),
		})
	}
}

func handleClientStatus(mesh *security.Mesh) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		clientID := r.URL.Path[len("/v1/clients/"):]
		if clientID == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(mesh.GetAnomalyScore(clientID))
	}
}

func handleIsolations(mesh *security.Mesh) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(mesh.ResponseEngine().ListIsolations())
	}
}

type sealRequest struct {
	Plaintext []byte `json:"plaintext"`
	TenantID  []byte `json:"tenant_id"`
}

func handleSeal(key []byte, metrics telemetry.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req sealRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		sealed, err := envelope.Encrypt(key, req.Plaintext, req.TenantID)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": err.Error(), "code": envelope.Code(err)})
			return
		}
		metrics.EnvelopeSealed.Add(r.Context(), 1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"frame": sealed.Frame, "tag": sealed.Tag[:]})
	}
}

type openRequest struct {
	Frame    []byte `json:"frame"`
	Tag      []byte `json:"tag"`
	TenantID []byte `json:"tenant_id"`
}

func handleOpen(key []byte, metrics telemetry.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var req openRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var tag [envelope.TagSize]byte
		copy(tag[:], req.Tag)

		plaintext, err := envelope.Decrypt(key, req.Frame, req.TenantID, tag)
		if err != nil {
			if envelope.Code(err) == envelope.CodeAuthFailed {
				metrics.EnvelopeAuthFailures.Add(r.Context(), 1)
			}
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": err.Error(), "code": envelope.Code(err)})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"plaintext": plaintext})
	}
}
