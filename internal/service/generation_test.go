package service_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"

	"llm-api/internal/contextutil"
	"llm-api/internal/llm"
	"llm-api/internal/metrics"
	"llm-api/internal/service"
	"llm-api/internal/service/mocks"
	"llm-api/internal/storage"
)

func init() {
	// Set default logger to discard output for cleaner test output
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testContext() context.Context {
	return context.Background()
}

func strPtr(s string) *string {
	return &s
}

func TestNewGenerationService(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc := service.NewGenerationService(mocks.NewMockGenerator(ctrl), service.Options{})
	if svc == nil {
		t.Fatal("NewGenerationService() returned nil")
	}
}

func TestGenerationService_Generate(t *testing.T) {
	upstreamErr := errors.New("backend unavailable")

	tests := []struct {
		name         string
		req          service.GenerateRequest
		mockSetup    func(*mocks.MockGenerator)
		wantErr      bool
		checkErrType func(error) bool
		wantResult   llm.Result
	}{
		{
			name: "successful generation",
			req:  service.GenerateRequest{Question: strPtr("What is Go?")},
			mockSetup: func(m *mocks.MockGenerator) {
				m.EXPECT().
					Generate(gomock.Any(), "What is Go?", llm.GenerateParams{MaxLength: 100}).
					Return(llm.Result{{GeneratedText: "What is Go? A language."}}, nil)
			},
			wantResult: llm.Result{{GeneratedText: "What is Go? A language."}},
		},
		{
			name: "empty question is forwarded",
			req:  service.GenerateRequest{Question: strPtr("")},
			mockSetup: func(m *mocks.MockGenerator) {
				m.EXPECT().
					Generate(gomock.Any(), "", llm.GenerateParams{MaxLength: 100}).
					Return(llm.Result{{GeneratedText: "anything"}}, nil)
			},
			wantResult: llm.Result{{GeneratedText: "anything"}},
		},
		{
			name:      "missing question",
			req:       service.GenerateRequest{},
			mockSetup: func(m *mocks.MockGenerator) {},
			wantErr:   true,
			checkErrType: func(err error) bool {
				var validationErr *service.ValidationError
				return errors.As(err, &validationErr) &&
					validationErr.Field == "question" &&
					errors.Is(err, service.ErrInvalidInput)
			},
		},
		{
			name: "generator error",
			req:  service.GenerateRequest{Question: strPtr("hi")},
			mockSetup: func(m *mocks.MockGenerator) {
				m.EXPECT().
					Generate(gomock.Any(), "hi", gomock.Any()).
					Return(nil, upstreamErr)
			},
			wantErr: true,
			checkErrType: func(err error) bool {
				return errors.Is(err, service.ErrExternalService) && errors.Is(err, upstreamErr)
			},
		},
		{
			name: "empty result",
			req:  service.GenerateRequest{Question: strPtr("hi")},
			mockSetup: func(m *mocks.MockGenerator) {
				m.EXPECT().
					Generate(gomock.Any(), "hi", gomock.Any()).
					Return(llm.Result{}, nil)
			},
			wantErr: true,
			checkErrType: func(err error) bool {
				return errors.Is(err, service.ErrExternalService) && errors.Is(err, llm.ErrEmptyResult)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			gen := mocks.NewMockGenerator(ctrl)
			tt.mockSetup(gen)
			svc := service.NewGenerationService(gen, service.Options{Provider: "echo"})

			resp, err := svc.Generate(testContext(), tt.req)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("Generate() expected error, got nil")
				}
				if tt.checkErrType != nil && !tt.checkErrType(err) {
					t.Errorf("Generate() error type mismatch: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Generate() unexpected error: %v", err)
			}
			if len(resp.Result) != len(tt.wantResult) || resp.Result[0] != tt.wantResult[0] {
				t.Errorf("Generate() result = %+v, want %+v", resp.Result, tt.wantResult)
			}
		})
	}
}

func TestGenerationService_Generate_MaxLength(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().
		Generate(gomock.Any(), "q", llm.GenerateParams{MaxLength: 42}).
		Return(llm.Result{{GeneratedText: "q a"}}, nil)

	svc := service.NewGenerationService(gen, service.Options{MaxLength: 42})
	if _, err := svc.Generate(testContext(), service.GenerateRequest{Question: strPtr("q")}); err != nil {
		t.Fatalf("Generate() unexpected error: %v", err)
	}
}

func TestGenerationService_Generate_Timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().
		Generate(gomock.Any(), "slow", gomock.Any()).
		DoAndReturn(func(ctx context.Context, prompt string, params llm.GenerateParams) (llm.Result, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

	reg := prometheus.NewRegistry()
	svc := service.NewGenerationService(gen, service.Options{
		Provider: "echo",
		Timeout:  20 * time.Millisecond,
		Metrics:  metrics.New(reg),
	})

	_, err := svc.Generate(testContext(), service.GenerateRequest{Question: strPtr("slow")})
	if !errors.Is(err, service.ErrTimeout) {
		t.Fatalf("Generate() error = %v, want ErrTimeout", err)
	}
	if errors.Is(err, service.ErrExternalService) {
		t.Errorf("Generate() timeout should not be reported as external service error")
	}

	expected := `
# HELP llm_api_generations_total Generation calls by provider and outcome.
# TYPE llm_api_generations_total counter
llm_api_generations_total{outcome="timeout",provider="echo"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "llm_api_generations_total"); err != nil {
		t.Errorf("unexpected generation metrics: %v", err)
	}
}

func TestGenerationService_Generate_ClientCanceled(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	ctx, cancel := context.WithCancel(testContext())

	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().
		Generate(gomock.Any(), "bye", gomock.Any()).
		DoAndReturn(func(ctx context.Context, prompt string, params llm.GenerateParams) (llm.Result, error) {
			cancel()
			return nil, ctx.Err()
		})

	svc := service.NewGenerationService(gen, service.Options{Timeout: time.Minute})

	_, err := svc.Generate(ctx, service.GenerateRequest{Question: strPtr("bye")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Generate() error = %v, want context.Canceled", err)
	}
	if errors.Is(err, service.ErrTimeout) || errors.Is(err, service.ErrExternalService) {
		t.Errorf("Generate() canceled request misclassified: %v", err)
	}
}

func TestGenerationService_Generate_RecordsExchange(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	result := llm.Result{{GeneratedText: "Hello there"}}

	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().Generate(gomock.Any(), "Hello", gomock.Any()).Return(result, nil)

	var recorded storage.Exchange
	store := mocks.NewMockTranscriptStore(ctrl)
	store.EXPECT().
		InsertExchange(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, ex storage.Exchange) error {
			recorded = ex
			return nil
		})

	svc := service.NewGenerationService(gen, service.Options{
		Provider: "openai",
		Store:    store,
	})

	if _, err := svc.Generate(testContext(), service.GenerateRequest{Question: strPtr("Hello")}); err != nil {
		t.Fatalf("Generate() unexpected error: %v", err)
	}

	if recorded.ID == "" {
		t.Error("recorded exchange has no ID")
	}
	if recorded.Question != "Hello" || recorded.Provider != "openai" || recorded.MaxLength != 100 {
		t.Errorf("recorded exchange = %+v", recorded)
	}
	if recorded.CreatedAt.IsZero() {
		t.Error("recorded exchange has no timestamp")
	}

	var stored llm.Result
	if err := json.Unmarshal([]byte(recorded.Response), &stored); err != nil {
		t.Fatalf("recorded response is not JSON: %v", err)
	}
	if len(stored) != 1 || stored[0] != result[0] {
		t.Errorf("recorded response = %+v, want %+v", stored, result)
	}
}

func TestGenerationService_Generate_StoreFailureIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(llm.Result{{GeneratedText: "ok"}}, nil)

	store := mocks.NewMockTranscriptStore(ctrl)
	store.EXPECT().InsertExchange(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	svc := service.NewGenerationService(gen, service.Options{Store: store})

	resp, err := svc.Generate(testContext(), service.GenerateRequest{Question: strPtr("x")})
	if err != nil {
		t.Fatalf("Generate() unexpected error: %v", err)
	}
	if len(resp.Result) != 1 || resp.Result[0].GeneratedText != "ok" {
		t.Errorf("Generate() result = %+v", resp.Result)
	}
}

func TestGenerationService_Generate_NoStoreOnFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gen := mocks.NewMockGenerator(ctrl)
	gen.EXPECT().Generate(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("boom"))

	// No InsertExchange expectation: any call fails the test.
	store := mocks.NewMockTranscriptStore(ctrl)

	svc := service.NewGenerationService(gen, service.Options{Store: store})
	if _, err := svc.Generate(testContext(), service.GenerateRequest{Question: strPtr("x")}); err == nil {
		t.Fatal("Generate() expected error, got nil")
	}
}

// logRecords decodes the JSON log lines written to buf.
func logRecords(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var rec map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("log line is not JSON: %q", scanner.Text())
		}
		records = append(records, rec)
	}
	return records
}

func recordsWithMsg(records []map[string]any, msg string) []map[string]any {
	var out []map[string]any
	for _, rec := range records {
		if rec["msg"] == msg {
			out = append(out, rec)
		}
	}
	return out
}

func TestGenerationService_Generate_LogsExchange(t *testing.T) {
	tests := []struct {
		name          string
		req           service.GenerateRequest
		mockSetup     func(*mocks.MockGenerator)
		wantErr       bool
		wantData      string
		wantResponses []string
	}{
		{
			name: "success logs document and encoded response",
			req: service.GenerateRequest{
				Question: strPtr("What is 2+2?"),
				Document: json.RawMessage(`{"question": "What is 2+2?", "lang": "en"}`),
			},
			mockSetup: func(m *mocks.MockGenerator) {
				m.EXPECT().
					Generate(gomock.Any(), "What is 2+2?", gomock.Any()).
					Return(llm.Result{{GeneratedText: "<b>4</b> & done"}}, nil)
			},
			wantData:      `{"question": "What is 2+2?", "lang": "en"}`,
			wantResponses: []string{`[{"generated_text":"<b>4</b> & done"}]`},
		},
		{
			name: "document missing falls back to question",
			req:  service.GenerateRequest{Question: strPtr("hi")},
			mockSetup: func(m *mocks.MockGenerator) {
				m.EXPECT().
					Generate(gomock.Any(), "hi", gomock.Any()).
					Return(llm.Result{{GeneratedText: "hi"}}, nil)
			},
			wantData:      `{"question":"hi"}`,
			wantResponses: []string{`[{"generated_text":"hi"}]`},
		},
		{
			name: "generator failure logs no response",
			req: service.GenerateRequest{
				Question: strPtr("hi"),
				Document: json.RawMessage(`{"question":"hi"}`),
			},
			mockSetup: func(m *mocks.MockGenerator) {
				m.EXPECT().
					Generate(gomock.Any(), "hi", gomock.Any()).
					Return(nil, errors.New("boom"))
			},
			wantErr:  true,
			wantData: `{"question":"hi"}`,
		},
		{
			name:      "missing question still logs the document",
			req:       service.GenerateRequest{Document: json.RawMessage(`{"prompt":"hi"}`)},
			mockSetup: func(m *mocks.MockGenerator) {},
			wantErr:   true,
			wantData:  `{"prompt":"hi"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			gen := mocks.NewMockGenerator(ctrl)
			tt.mockSetup(gen)
			svc := service.NewGenerationService(gen, service.Options{Provider: "echo"})

			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			ctx := contextutil.WithLogger(testContext(), logger)

			_, err := svc.Generate(ctx, tt.req)
			if tt.wantErr != (err != nil) {
				t.Fatalf("Generate() error = %v, wantErr %v", err, tt.wantErr)
			}

			records := logRecords(t, &buf)

			received := recordsWithMsg(records, "Received data")
			if len(received) != 1 {
				t.Fatalf("Received data records = %d, want 1", len(received))
			}
			if received[0]["data"] != tt.wantData {
				t.Errorf("Received data = %v, want %s", received[0]["data"], tt.wantData)
			}

			generated := recordsWithMsg(records, "Generated response")
			if len(generated) != len(tt.wantResponses) {
				t.Fatalf("Generated response records = %d, want %d", len(generated), len(tt.wantResponses))
			}
			for i, want := range tt.wantResponses {
				if generated[i]["response"] != want {
					t.Errorf("Generated response = %v, want %s", generated[i]["response"], want)
				}
			}
		})
	}
}

func TestEncodeResult(t *testing.T) {
	got, err := service.EncodeResult(llm.Result{{GeneratedText: "a < b && c > d"}, {GeneratedText: "second"}})
	if err != nil {
		t.Fatalf("EncodeResult() error = %v", err)
	}
	want := `[{"generated_text":"a < b && c > d"},{"generated_text":"second"}]`
	if got != want {
		t.Errorf("EncodeResult() = %s, want %s", got, want)
	}
}
