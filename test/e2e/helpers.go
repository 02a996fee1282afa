//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"math"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/complyflow-labs/complyflow/internal/api/handlers"
	"github.com/complyflow-labs/complyflow/internal/extract"
	"github.com/complyflow-labs/complyflow/internal/repository"
	"github.com/complyflow-labs/complyflow/internal/server"
	"github.com/complyflow-labs/complyflow/internal/service"
	"github.com/complyflow-labs/complyflow/internal/testutil"
	"github.com/jackc/pgx/v5/pgxpool"
)

// E2EEnv holds all resources needed for end-to-end tests: a PostgreSQL
// container with the real schema, the real repositories and services, and
// an HTTP server running the production router. Only the AI clients are
// stubbed, with deterministic embeddings and scripted completions.
type E2EEnv struct {
	T             *testing.T
	Ctx           context.Context
	PostgresC     *testutil.PostgresContainer
	Pool          *pgxpool.Pool
	Ingest        *service.IngestService
	Ledger        *repository.DiscoveryRepository
	Notifications *repository.NotificationRepository
	Tx            *repository.TxRunner
	Loader        service.TextLoader
	Completions   *scriptedCompletions
	ServerURL     string
	ServerCloser  func()
	HTTPClient    *http.Client
}

// SetupE2EEnv creates a full test environment with a database container
// and a running server.
func SetupE2EEnv(t *testing.T) *E2EEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	chunkRepo := repository.NewChunkRepository(pool)
	ledgerRepo := repository.NewDiscoveryRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	embedder := &deterministicEmbedder{}
	completions := &scriptedCompletions{}
	loader := extract.NewLoader(nil)

	retriever := service.NewRetrieverService(embedder, chunkRepo, "legal_docs_vectors")
	ingestSvc := service.NewIngestService(loader, embedder, chunkRepo, "legal_docs_vectors")
	chatSvc := service.NewChatService(retriever, completions)
	auditSvc := service.NewAuditorService(completions, retriever)

	cfg := server.RouterConfig{
		ChatHandler:         handlers.NewChatHandler(chatSvc),
		NotificationHandler: handlers.NewNotificationHandler(notificationRepo),
		AuditHandler:        handlers.NewAuditHandler(auditSvc),
	}
	router := server.NewRouter(cfg)

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return &E2EEnv{
		T:             t,
		Ctx:           ctx,
		PostgresC:     pgC,
		Pool:          pool,
		Ingest:        ingestSvc,
		Ledger:        ledgerRepo,
		Notifications: notificationRepo,
		Tx:            txRunner,
		Loader:        loader,
		Completions:   completions,
		ServerURL:     serverURL,
		ServerCloser: func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		},
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources
func (e *E2EEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// Reset truncates all tables between scenarios.
func (e *E2EEnv) Reset() {
	if err := testutil.TruncateAll(e.Ctx, e.Pool); err != nil {
		e.T.Fatalf("failed to truncate tables: %v", err)
	}
}

// Post performs a POST request with a JSON body and returns the status
// code and raw response body.
func (e *E2EEnv) Post(path string, body interface{}) (int, []byte) {
	data, err := json.Marshal(body)
	if err != nil {
		e.T.Fatalf("failed to marshal request body: %v", err)
	}
	return e.do("POST", path, bytes.NewReader(data))
}

// Get performs a GET request and returns the status code and raw body.
func (e *E2EEnv) Get(path string) (int, []byte) {
	return e.do("GET", path, nil)
}

// Delete performs a DELETE request and returns the status code and raw body.
func (e *E2EEnv) Delete(path string) (int, []byte) {
	return e.do("DELETE", path, nil)
}

func (e *E2EEnv) do(method, path string, body io.Reader) (int, []byte) {
	req, err := http.NewRequest(method, e.ServerURL+path, body)
	if err != nil {
		e.T.Fatalf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		e.T.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		e.T.Fatalf("failed to read response body: %v", err)
	}
	return resp.StatusCode, respBody
}

// DecodeData unwraps the {"data": ...} response envelope into out.
func DecodeData(t *testing.T, raw []byte, out interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("failed to decode envelope: %v (body: %s)", err, raw)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("failed to decode data: %v (body: %s)", err, raw)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/healthz")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// UploadObject puts an object into an S3-compatible bucket, for feeding
// the folder watcher under test.
func UploadObject(ctx context.Context, t *testing.T, endpoint, bucket, key string, body []byte) {
	t.Helper()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("us-east-1"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("rustfsadmin", "rustfsadmin", "")),
		awsconfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{URL: endpoint, HostnameImmutable: true}, nil
			})),
	)
	if err != nil {
		t.Fatalf("failed to load aws config: %v", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		t.Fatalf("failed to upload object %s: %v", key, err)
	}
}

// deterministicEmbedder hashes tokens into a fixed-size vector so that
// documents sharing vocabulary with a query land closer in the index.
type deterministicEmbedder struct{}

func (e *deterministicEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return embedText(text), nil
}

func (e *deterministicEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = embedText(text)
	}
	return vectors, nil
}

func embedText(text string) []float32 {
	vec := make([]float32, 1536)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,;:!?\"'()")
		if tok == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%1536]++
	}

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		vec[0] = 1
		return vec
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// scriptedCompletions routes by prompt shape: classification and audit
// prompts get canned JSON verdicts, everything else gets a chat answer.
type scriptedCompletions struct {
	ChatReply string
	Flag      bool
}

func (c *scriptedCompletions) Complete(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	switch {
	case jsonMode && strings.Contains(prompt, `"impact_level"`):
		return `{"impact_level":"HIGH","action_draft":"Review input tax credit claims for affected supplies.","ai_analysis":"This circular restricts ITC on promotional goods."}`, nil
	case jsonMode && strings.Contains(prompt, `"is_flagged"`):
		if c.Flag {
			return `{"is_flagged":true,"reason":"Gift purchases fall under ITC-restricted items."}`, nil
		}
		return `{"is_flagged":false,"reason":""}`, nil
	default:
		if c.ChatReply != "" {
			return c.ChatReply, nil
		}
		return "Based on the indexed circulars, input tax credit is blocked on goods disposed of as gifts [1].", nil
	}
}
