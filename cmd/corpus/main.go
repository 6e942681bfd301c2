package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/studykit/corpus/service"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "ingest":
		ingestCmd(os.Args[2:])
	case "query":
		queryCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: corpus <command> [options]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  ingest  Load a document into the vector store")
	fmt.Fprintln(os.Stderr, "  query   Search ingested material")
}

func ingestCmd(args []string) {
	flags := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := flags.String("config", "corpus.yaml", "config yaml path")
	path := flags.String("path", "", "document path (required)")
	owner := flags.String("owner", "", "owner id (required)")
	subject := flags.String("subject", "", "subject scope")
	chapter := flags.String("chapter", "", "chapter scope")
	verbose := flags.Bool("v", false, "log pipeline progress")
	flags.Parse(args)
	if *path == "" || *owner == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, err := buildService(*configPath, *verbose)
	if err != nil {
		log.Fatalf("service init: %v", err)
	}
	summary, err := svc.Ingest(ctx, service.IngestRequest{
		Path:    *path,
		OwnerID: *owner,
		Subject: *subject,
		Chapter: *chapter,
	})
	if err != nil {
		log.Fatalf("ingest: %v", err)
	}
	fmt.Println(summary)
	for _, warning := range summary.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}
}

func queryCmd(args []string) {
	flags := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := flags.String("config", "corpus.yaml", "config yaml path")
	question := flags.String("q", "", "question text (required)")
	owner := flags.String("owner", "", "owner id (required)")
	subject := flags.String("subject", "", "subject scope")
	chapter := flags.String("chapter", "", "chapter scope")
	k := flags.Int("k", 0, "number of results (default 3, max 10)")
	noNeighbors := flags.Bool("no-neighbors", false, "skip adjacent-page context")
	flags.Parse(args)
	if *question == "" || *owner == "" {
		flags.Usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, err := buildService(*configPath, false)
	if err != nil {
		log.Fatalf("service init: %v", err)
	}
	results, err := svc.Query(ctx, service.QueryRequest{
		Question:         *question,
		OwnerID:          *owner,
		K:                *k,
		Subject:          *subject,
		Chapter:          *chapter,
		DisableNeighbors: *noNeighbors,
	})
	if err != nil {
		log.Fatalf("query: %v", err)
	}
	if len(results) == 0 {
		fmt.Println("no matches")
		return
	}
	for i, result := range results {
		marker := ""
		if result.IsNeighbor {
			marker = " (context)"
		}
		fmt.Printf("%d. [%.4f]%s %s p.%d\n%s\n\n",
			i+1, result.Confidence, marker,
			result.Metadata.Source, result.Metadata.Page, result.Content)
	}
}

func buildService(configPath string, verbose bool) (*service.Service, error) {
	cfg, err := service.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	var opts []service.Option
	if verbose {
		opts = append(opts, service.WithLogf(log.Printf))
	}
	return service.NewFromConfig(cfg, opts...)
}
