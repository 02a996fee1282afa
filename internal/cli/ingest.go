package cli

import (
	"context"
	"fmt"
	"log"

	"github.com/complyflow-labs/complyflow/internal/config"
	"github.com/complyflow-labs/complyflow/internal/database"
	"github.com/complyflow-labs/complyflow/internal/domain"
	"github.com/complyflow-labs/complyflow/internal/extract"
	"github.com/complyflow-labs/complyflow/internal/openai"
	"github.com/complyflow-labs/complyflow/internal/repository"
	"github.com/complyflow-labs/complyflow/internal/service"
	"github.com/spf13/cobra"
)

// IngestCmd returns the ingest command for one-shot operator backfills.
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Ingest a local document into the vector index",
		Long:  "Extract, chunk and embed a single local document into the compliance index",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}

	cmd.Flags().StringP("category", "c", string(domain.CategoryNotifications), "Document category (acts, notifications, circulars, rules, forms)")
	cmd.Flags().String("source-url", "", "Public URL the document was published at")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if !cfg.HasOpenAI() {
		return fmt.Errorf("ingestion requires OPENAI_API_KEY for embeddings")
	}

	categoryFlag, _ := cmd.Flags().GetString("category")
	category, err := domain.ParseCategory(categoryFlag)
	if err != nil {
		return err
	}
	sourceURL, _ := cmd.Flags().GetString("source-url")

	pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	var loader service.TextLoader
	if cfg.ExtractorURL != "" {
		loader = extract.NewLoader(extract.NewHTTPExtractor(cfg.ExtractorURL))
	} else {
		loader = extract.NewLoader(nil)
	}

	aiClient := openai.NewClientWithConfig(openai.Config{
		APIKey:    cfg.OpenAIAPIKey,
		ChatModel: cfg.ChatModel,
	})
	ingestSvc := service.NewIngestService(loader, aiClient, repository.NewChunkRepository(pool), cfg.Collection)

	count, err := ingestSvc.Ingest(ctx, args[0], category, sourceURL)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	log.Printf("ingested %s: %d chunks indexed", args[0], count)
	return nil
}
