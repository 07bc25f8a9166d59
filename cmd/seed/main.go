package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/anneth/shop/internal/config"
	"github.com/anneth/shop/internal/domain"
	"github.com/anneth/shop/internal/logger"
	"github.com/anneth/shop/internal/repository"
	"github.com/google/uuid"
)

func main() {
	importData := flag.Bool("import", false, "insert the products from -file")
	deleteData := flag.Bool("delete", false, "delete every product")
	file := flag.String("file", "products.json", "product catalog in JSON")
	flag.Parse()

	if *importData == *deleteData {
		fmt.Fprintln(os.Stderr, "exactly one of -import or -delete is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger.New(os.Stdout, cfg.LogLevel))

	if err := run(cfg, *importData, *file); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

// run does the work so that deferred cleanup happens before main exits.
func run(cfg *config.Config, importData bool, file string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer func() {
		if err := db.Client().Disconnect(context.Background()); err != nil {
			slog.Error("failed to disconnect from MongoDB", "error", err)
		}
	}()

	repo := repository.NewProductRepository(db)
	if err := repo.CreateIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}

	if !importData {
		n, err := repo.DeleteAllProducts(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete products: %w", err)
		}
		slog.Info("products deleted", "count", n)
		return nil
	}

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	products, err := readProducts(f)
	if err != nil {
		return fmt.Errorf("failed to read catalog %s: %w", file, err)
	}
	if err := repo.InsertProducts(ctx, products); err != nil {
		return fmt.Errorf("failed to insert products: %w", err)
	}
	slog.Info("products imported", "count", len(products))
	return nil
}

// readProducts decodes a catalog and fills in the identifiers and timestamps
// the file leaves out.
func readProducts(r io.Reader) ([]domain.Product, error) {
	var products []domain.Product
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	now := time.Now().UTC()
	for i := range products {
		p := &products[i]
		if p.Name == "" {
			return nil, fmt.Errorf("product %d: name is required", i)
		}
		if len(p.Variants) == 0 {
			return nil, fmt.Errorf("product %q: at least one variant is required", p.Name)
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		for j := range p.Variants {
			v := &p.Variants[j]
			if v.Color == "" {
				return nil, fmt.Errorf("product %q variant %d: %w", p.Name, j, domain.ErrInvalidColor)
			}
			if v.QuantityAvailable < 0 || v.QuantitySold < 0 {
				return nil, fmt.Errorf("product %q variant %q: %w", p.Name, v.Color, domain.ErrInvalidQuantity)
			}
			if v.VariantID == "" {
				v.VariantID = uuid.NewString()
			}
		}
		p.CreatedAt, p.UpdatedAt = now, now
	}
	return products, nil
}
