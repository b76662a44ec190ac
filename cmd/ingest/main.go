package main

import (
	"context"
	"flag"
	"log"

	"github.com/coder-lang/Chatbotscannedpdf/config"
	"github.com/coder-lang/Chatbotscannedpdf/pkg/clients/ocr"
	"github.com/coder-lang/Chatbotscannedpdf/pkg/projectlog"
	"github.com/coder-lang/Chatbotscannedpdf/service/factory"
	"github.com/coder-lang/Chatbotscannedpdf/service/ingest"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// The ingest command is the offline half of the system: it extracts the
// scanned PDFs into a corpus artifact and builds the vector index from it.
// Both steps are idempotent, so re-running after a partial failure is the
// intended recovery path.
func main() {
	skipOcr := flag.Bool("skip-ocr", false, "reuse an existing corpus file instead of re-running OCR")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on process environment")
	}
	projectlog.Init()

	cfg := config.GetInstance()
	inputDir := cfg.GetString(config.IngestInputPdfDir)
	corpusFile := cfg.GetString(config.IngestCorpusFile)

	ctx := context.Background()

	if !*skipOcr {
		analyzer, err := ocr.GetInstance()
		if err != nil {
			logrus.Fatalf("failed to create OCR client: %v", err)
		}
		builder := ingest.NewBuilder(analyzer)
		if err := builder.BuildCorpus(ctx, inputDir, corpusFile); err != nil {
			logrus.Fatalf("corpus build failed: %v", err)
		}
		logrus.Infof("corpus written to %s", corpusFile)
	}

	records, err := ingest.ReadCorpus(corpusFile)
	if err != nil {
		logrus.Fatalf("failed to read corpus: %v", err)
	}
	logrus.Infof("loaded %d page record(s) from corpus", len(records))

	stats, err := factory.GetServiceFactory().NewIndexBuilder().BuildIndex(ctx, records)
	if err != nil {
		logrus.Fatalf("index build failed: %v", err)
	}
	logrus.Infof("ingestion complete: indexed=%d skipped=%d failed=%d",
		stats.Indexed, stats.Skipped, stats.Failed)
}
