package test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	refstore "specregistry/internal/refmodel/store"
	spechandler "specregistry/internal/specification/handler"
	specservice "specregistry/internal/specification/service"
	specmemory "specregistry/internal/specification/store/memory"
	"specregistry/internal/token"
	httptransport "specregistry/internal/transport/http"
	"specregistry/pkg/testutil"
)

func TestRouterAssembly(t *testing.T) {
	testutil.Given(t, "the assembled HTTP router", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		refs := refstore.NewMemoryStore()
		registry := specmemory.NewRegistry(refs)
		svc := specservice.New(registry, registry.CoreStore(), registry.ExtensionStore(), registry.AddReqStore(), refs)
		tokens := token.NewJWTService("test-signing-key", "specregistry-test", time.Hour)
		router := httptransport.NewRouter(logger, tokens, spechandler.New(svc, logger))

		testutil.When(t, "probing GET /healthz", func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			testutil.Then(t, "it should report healthy", func(t *testing.T) {
				if rec.Code != http.StatusOK {
					t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
				}
			})
		})

		testutil.When(t, "scraping GET /metrics", func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			testutil.Then(t, "it should expose the metrics endpoint", func(t *testing.T) {
				if rec.Code != http.StatusOK {
					t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
				}
			})
		})

		testutil.When(t, "listing specifications anonymously", func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/specifications", nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			testutil.Then(t, "it should serve the public listing", func(t *testing.T) {
				if rec.Code != http.StatusOK {
					t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
				}
			})
		})
	})
}
