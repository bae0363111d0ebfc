package baseline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/codedlook/storefront/internal/domain"
)

var ErrNoSource = errors.New("no baseline source resolved")

// Fallback supplies products when every candidate fails. The local
// override store satisfies this.
type Fallback interface {
	Products(ctx context.Context) ([]domain.Product, error)
}

// Loader reads the static baseline catalog. Deployments differ in where
// the document lives, so candidates are tried in order until one resolves.
// Candidates containing a scheme are fetched over HTTP, anything else is
// read as a local file path.
type Loader struct {
	client     *http.Client
	candidates []string
	fallback   Fallback
}

func NewLoader(client *http.Client, candidates []string, fallback Fallback) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Loader{
		client:     client,
		candidates: candidates,
		fallback:   fallback,
	}
}

// Load returns the baseline product list. Products without a positive
// numeric id are dropped.
func (l *Loader) Load(ctx context.Context) ([]domain.Product, error) {
	var lastErr error
	for _, candidate := range l.candidates {
		data, err := l.read(ctx, candidate)
		if err != nil {
			lastErr = err
			continue
		}

		products, err := decodeCatalog(data)
		if err != nil {
			lastErr = fmt.Errorf("decode %s: %w", candidate, err)
			continue
		}

		log.Printf("loaded %d baseline products from %s", len(products), candidate)
		return products, nil
	}

	if l.fallback != nil {
		log.Printf("baseline unavailable, falling back to local store: %v", lastErr)
		return l.fallback.Products(ctx)
	}

	if lastErr == nil {
		lastErr = ErrNoSource
	}
	return nil, lastErr
}

func (l *Loader) read(ctx context.Context, candidate string) ([]byte, error) {
	if strings.Contains(candidate, "://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, candidate, nil)
		if err != nil {
			return nil, err
		}
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("fetch %s: status %d", candidate, resp.StatusCode)
		}
		return io.ReadAll(resp.Body)
	}

	return os.ReadFile(candidate)
}

// decodeCatalog accepts either {"products": [...]} or a bare array.
func decodeCatalog(data []byte) ([]domain.Product, error) {
	var wrapper struct {
		Products []domain.Product `json:"products"`
	}
	if err := json.Unmarshal(data, &wrapper); err == nil && wrapper.Products != nil {
		return keepValid(wrapper.Products), nil
	}

	var bare []domain.Product
	if err := json.Unmarshal(data, &bare); err != nil {
		return nil, err
	}
	return keepValid(bare), nil
}

func keepValid(products []domain.Product) []domain.Product {
	valid := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if p.ID > 0 {
			valid = append(valid, p)
		}
	}
	return valid
}
