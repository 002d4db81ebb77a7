package main

import (
	"context"
	"flag"
	"log"
	"time"

	"bundlegen/internal/catalog"
	"bundlegen/internal/generator"
	"bundlegen/pkg/utils"
)

// Generates one resource bundle straight against the catalog, without
// going through the API server.
func main() {
	var (
		resource   = flag.String("resource", "", "resource kind: title, issue or section")
		target     = flag.String("target", "", "directory to deploy the bundle into (default: BUNDLEGEN_BUNDLE_DIR)")
		collection = flag.String("collection", "", "optional collection filter")
		catalogURI = flag.String("catalog", "", "catalog base URI (default: BUNDLEGEN_CATALOG_URI)")
		timeout    = flag.Duration("timeout", 30*time.Minute, "overall run deadline")
	)
	flag.Parse()

	cfg := utils.LoadConfig()
	if *catalogURI != "" {
		cfg.CatalogURI = *catalogURI
	}
	if *target == "" {
		*target = cfg.BundleDir
	}

	if *resource == "" {
		log.Fatal("missing -resource (title, issue or section)")
	}
	if cfg.CatalogURI == "" {
		log.Fatal("missing catalog URI: set -catalog or BUNDLEGEN_CATALOG_URI")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := catalog.NewClient(cfg.CatalogURI, cfg.CatalogUsername, cfg.CatalogAPIKey)
	gen := generator.New(client)
	gen.Progress = func(event, res string, fields map[string]any) {
		log.Printf("[%s] %s %v", res, event, fields)
	}

	start := time.Now()
	result, err := gen.Generate(ctx, *resource, *target, *collection)
	if err != nil {
		log.Fatalf("generate %s failed: %v", *resource, err)
	}

	log.Printf("deployed %s (%d records) in %s", result.Filename, result.Records, time.Since(start).Round(time.Millisecond))
}
