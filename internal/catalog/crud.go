package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/codedlook/storefront/internal/domain"
)

const defaultImageURL = "https://i.imgur.com/FRTPdpc.jpeg"

// ProductInput carries raw form fields. Price and stock arrive as strings
// and are parsed here, at the operation boundary.
type ProductInput struct {
	Name     string
	Price    string
	Category string
	Stock    string
	Tags     string
	Image    string
}

func (in ProductInput) parse() (domain.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Product{}, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}

	price, err := strconv.ParseInt(strings.TrimSpace(in.Price), 10, 64)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: price %q is not an integer", ErrInvalidInput, in.Price)
	}

	stock, err := strconv.Atoi(strings.TrimSpace(in.Stock))
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: stock %q is not an integer", ErrInvalidInput, in.Stock)
	}
	if stock < 0 {
		return domain.Product{}, fmt.Errorf("%w: stock must not be negative", ErrInvalidInput)
	}

	var tags []string
	for _, tag := range strings.Split(in.Tags, ",") {
		if t := strings.TrimSpace(tag); t != "" {
			tags = append(tags, t)
		}
	}

	image := strings.TrimSpace(in.Image)
	if image == "" {
		image = defaultImageURL
	}

	return domain.Product{
		Name:     name,
		Price:    price,
		Category: strings.TrimSpace(in.Category),
		Tags:     tags,
		Stock:    stock,
		ImageURL: image,
	}, nil
}

// CreateProduct adds a seller product to the local store, assigns it an
// id strictly greater than every id observed across baseline and
// overrides, pushes best-effort and republishes the merged catalog.
func (e *Engine) CreateProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	if err := e.TryAcquire(); err != nil {
		return domain.Product{}, err
	}
	defer e.Release()

	product, err := in.parse()
	if err != nil {
		return domain.Product{}, err
	}

	if err := e.ensureLoaded(ctx); err != nil {
		return domain.Product{}, err
	}

	e.mu.RLock()
	maxSeen := e.maxSeen
	e.mu.RUnlock()

	if maxSeen <= 0 {
		product.ID = minProductID
	} else {
		product.ID = maxSeen + 1
	}

	overrides, err := e.store.Products(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	overrides = append(overrides, product)
	if err := e.store.SaveProducts(ctx, overrides); err != nil {
		return domain.Product{}, err
	}

	e.markPendingWrite(product.ID)
	e.push(ctx)
	if _, err := e.rebuild(ctx); err != nil {
		return domain.Product{}, err
	}

	return product, nil
}

// UpdateProduct edits a product in the merged view. Baseline-origin ids
// get a shadow override record; the immutable baseline entry stays put
// and is hidden by the override on every merge after this.
func (e *Engine) UpdateProduct(ctx context.Context, id int64, in ProductInput) (domain.Product, error) {
	if err := e.TryAcquire(); err != nil {
		return domain.Product{}, err
	}
	defer e.Release()

	product, err := in.parse()
	if err != nil {
		return domain.Product{}, err
	}
	product.ID = id

	if err := e.ensureLoaded(ctx); err != nil {
		return domain.Product{}, err
	}

	// Existence means presence in the merged view. A tombstoned id must
	// fail here; otherwise the edit writes an override the tombstone
	// hides forever.
	e.mu.RLock()
	_, known := e.byID[id]
	e.mu.RUnlock()
	if !known {
		return domain.Product{}, fmt.Errorf("%w: id %d", ErrProductNotFound, id)
	}

	overrides, err := e.store.Products(ctx)
	if err != nil {
		return domain.Product{}, err
	}

	replaced := false
	for i := range overrides {
		if overrides[i].ID == id {
			overrides[i] = product
			replaced = true
			break
		}
	}
	if !replaced {
		// Known but not overridden yet, so it is baseline-origin; the
		// shadow record hides the immutable baseline entry from now on.
		overrides = append(overrides, product)
	}

	if err := e.store.SaveProducts(ctx, overrides); err != nil {
		return domain.Product{}, err
	}

	e.markPendingWrite(id)
	e.push(ctx)
	if _, err := e.rebuild(ctx); err != nil {
		return domain.Product{}, err
	}

	return product, nil
}

// DeleteProduct removes a product from the merged view. Requests go
// through a dedicated queue so back-to-back deletes from one caller
// complete in submission order instead of racing each other's tombstone
// writes.
func (e *Engine) DeleteProduct(ctx context.Context, id int64) error {
	req := deleteRequest{ctx: ctx, id: id, done: make(chan error, 1)}

	select {
	case e.deletes <- req:
	case <-e.stop:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-req.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) deleteLoop() {
	defer e.wg.Done()

	for {
		select {
		case req := <-e.deletes:
			req.done <- e.deleteProduct(req.ctx, req.id)
		case <-e.stop:
			return
		}
	}
}

func (e *Engine) deleteProduct(ctx context.Context, id int64) error {
	e.acquire()
	defer e.Release()

	if err := e.ensureLoaded(ctx); err != nil {
		return err
	}

	// Deleting an id already absent from the merged view is not found,
	// including ids tombstoned by an earlier delete.
	e.mu.RLock()
	_, known := e.byID[id]
	_, inBaseline := e.baselineIDs[id]
	e.mu.RUnlock()
	if !known {
		return fmt.Errorf("%w: id %d", ErrProductNotFound, id)
	}

	overrides, err := e.store.Products(ctx)
	if err != nil {
		return err
	}

	hasOverride := false
	remaining := make([]domain.Product, 0, len(overrides))
	for _, p := range overrides {
		if p.ID == id {
			hasOverride = true
			continue
		}
		remaining = append(remaining, p)
	}

	if inBaseline {
		// The baseline source is immutable; a tombstone is the only way
		// to make the id disappear from every future merge.
		tombstones, err := e.store.Tombstones(ctx)
		if err != nil {
			return err
		}
		present := false
		for _, t := range tombstones {
			if t == id {
				present = true
				break
			}
		}
		if !present {
			tombstones = append(tombstones, id)
		}
		if err := e.store.SaveTombstones(ctx, tombstones); err != nil {
			return err
		}
		e.markPendingDelete(id)
	}

	if hasOverride {
		if err := e.store.SaveProducts(ctx, remaining); err != nil {
			return err
		}
	}

	e.push(ctx)
	_, err = e.rebuild(ctx)
	return err
}
