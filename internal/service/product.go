package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"agenda/internal/model"
	"agenda/internal/repository"
	"agenda/internal/search"
	"agenda/internal/storage"
)

// imagePrefix marks product images held in object storage.
const imagePrefix = "productos/"

// ProductInput is the writable part of a product.
type ProductInput struct {
	Nombre      string  `json:"nombre" csv:"nombre" validate:"required,max=200"`
	Precio      float64 `json:"precio" csv:"precio" validate:"finite,gte=0,max=9999999999.99"`
	Descripcion string  `json:"descripcion" csv:"descripcion" validate:"max=2000"`
	Categoria   string  `json:"categoria" csv:"categoria" validate:"max=100"`
	Existencia  int     `json:"existencia" csv:"existencia" validate:"gte=0,max=2147483647"`
	Imagen      string  `json:"imagen" csv:"imagen" validate:"max=1024"`
}

func (in *ProductInput) trim() {
	in.Nombre = strings.TrimSpace(in.Nombre)
	in.Descripcion = strings.TrimSpace(in.Descripcion)
	in.Categoria = strings.TrimSpace(in.Categoria)
	in.Imagen = strings.TrimSpace(in.Imagen)
}

// ProductListResult is the service-level DTO for paginated products.
type ProductListResult struct {
	Items []model.Product `json:"data"`
	Total int             `json:"total"`
}

// ProductService defines the catalog use cases.
type ProductService interface {
	Create(ctx context.Context, in ProductInput) (*model.Product, error)
	Get(ctx context.Context, id string) (*model.Product, error)
	// List filters by a diacritic-insensitive query over nombre, descripcion
	// and categoria, and optionally by exact categoria (case-insensitive).
	List(ctx context.Context, query, categoria string, limit, offset int) (*ProductListResult, error)
	// Update replaces the product fields. An empty imagen keeps the current image.
	Update(ctx context.Context, id string, in ProductInput) (*model.Product, error)
	// Delete removes the product and, best effort, its stored image.
	Delete(ctx context.Context, id string) error
	Categories(ctx context.Context) ([]string, error)
	// AdjustStock adds delta (negative to sell) to existencia.
	AdjustStock(ctx context.Context, id string, delta int) (*model.Product, error)

	// UploadImage stores an image object and points the product at it.
	UploadImage(ctx context.Context, id string, r io.Reader, filename, contentType string, size int64) (*model.Product, error)
	// ImageURL returns a downloadable URL for the product image.
	ImageURL(ctx context.Context, id string) (string, error)

	ImportCSV(ctx context.Context, r io.Reader) (*ImportResult[model.Product], error)
	ExportCSV(ctx context.Context, w io.Writer, query, categoria string) error
}

type productService struct {
	repo        repository.ProductRepository
	store       storage.Storage
	imageExpiry time.Duration
	log         *zap.Logger
	now         func() time.Time
}

// NewProductService constructs a new ProductService. store may be nil, in
// which case image operations fail with ErrStorageDisabled.
func NewProductService(repo repository.ProductRepository, store storage.Storage, imageExpiry time.Duration, log *zap.Logger) ProductService {
	if log == nil {
		log = zap.NewNop()
	}
	return &productService{
		repo:        repo,
		store:       store,
		imageExpiry: imageExpiry,
		log:         log.With(zap.String("component", "products")),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func productSearchKey(p *model.Product) string {
	return search.Key(p.Nombre, p.Descripcion, p.Categoria)
}

// ownImagePrefix is where UploadImage stores the objects of product id.
func ownImagePrefix(id string) string {
	return imagePrefix + id + "/"
}

// checkImageRef rejects client-supplied references into stored images. Only
// UploadImage writes those keys; stored is the value the product already has.
func checkImageRef(imagen, stored string) error {
	if imagen == "" || imagen == stored || !strings.HasPrefix(imagen, imagePrefix) {
		return nil
	}
	return &ValidationError{Fields: map[string]string{
		"imagen": "stored images can only be set by uploading a file",
	}}
}

func (s *productService) Create(ctx context.Context, in ProductInput) (*model.Product, error) {
	in.trim()
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if err := checkImageRef(in.Imagen, ""); err != nil {
		return nil, err
	}
	now := s.now()
	p := &model.Product{
		ID:          uuid.NewString(),
		Nombre:      in.Nombre,
		Precio:      in.Precio,
		Descripcion: in.Descripcion,
		Categoria:   in.Categoria,
		Existencia:  in.Existencia,
		Imagen:      in.Imagen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	out, err := s.repo.Create(ctx, p, productSearchKey(p))
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return out, nil
}

func (s *productService) Get(ctx context.Context, id string) (*model.Product, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return p, nil
}

func (s *productService) List(ctx context.Context, query, categoria string, limit, offset int) (*ProductListResult, error) {
	limit, offset = clampPage(limit, offset)
	res, err := s.repo.List(ctx, repository.ProductFilter{
		Query:     search.Normalize(query),
		Categoria: strings.TrimSpace(categoria),
		PageQuery: repository.PageQuery{Limit: limit, Offset: offset},
	})
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *productService) Update(ctx context.Context, id string, in ProductInput) (*model.Product, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	in.trim()
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if err := checkImageRef(in.Imagen, current.Imagen); err != nil {
		return nil, err
	}

	next := *current
	next.Nombre = in.Nombre
	next.Precio = in.Precio
	next.Descripcion = in.Descripcion
	next.Categoria = in.Categoria
	next.Existencia = in.Existencia
	if in.Imagen != "" {
		next.Imagen = in.Imagen
	}
	next.UpdatedAt = s.now()

	out, err := s.repo.Update(ctx, &next, productSearchKey(&next))
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if current.Imagen != out.Imagen {
		s.dropImage(ctx, id, current.Imagen)
	}
	return out, nil
}

func (s *productService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapRepoErr(err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoErr(err)
	}
	s.dropImage(ctx, id, p.Imagen)
	return nil
}

// dropImage removes an image object owned by product id. Keys outside that
// product's prefix are never deleted. Failures only leave an orphan object
// behind, so they are logged rather than returned.
func (s *productService) dropImage(ctx context.Context, id, key string) {
	if s.store == nil || !strings.HasPrefix(key, ownImagePrefix(id)) {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.log.Warn("image_delete_failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *productService) Categories(ctx context.Context) ([]string, error) {
	return s.repo.ListCategories(ctx)
}

func (s *productService) AdjustStock(ctx context.Context, id string, delta int) (*model.Product, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	p, err := s.repo.AdjustStock(ctx, id, delta)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return p, nil
}

func (s *productService) UploadImage(ctx context.Context, id string, r io.Reader, filename, contentType string, size int64) (*model.Product, error) {
	if s.store == nil {
		return nil, ErrStorageDisabled
	}
	if id == "" {
		return nil, ErrIDRequired
	}
	if r == nil {
		return nil, ErrReaderNil
	}
	ctx, span := tracer.Start(ctx, "products.UploadImage")
	defer span.End()

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, mapRepoErr(err)
	}

	key := ownImagePrefix(id) + uuid.NewString() + strings.ToLower(path.Ext(filename))
	span.SetAttributes(attribute.String("storage.key", key), attribute.Int64("storage.size", size))

	if err := s.store.Put(ctx, storage.Object{
		Key:         key,
		Size:        size,
		ContentType: contentType,
		Metadata:    map[string]string{"original-filename": filename, "product-id": id},
	}, r); err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	// Only imagen is written: stock moved while the object was uploading stays.
	prev, out, err := s.repo.SetImage(ctx, id, key)
	if err != nil {
		// Rollback: the new object is unreferenced.
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", mapRepoErr(err))
	}

	s.dropImage(ctx, id, prev)
	return out, nil
}

func (s *productService) ImageURL(ctx context.Context, id string) (string, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	switch {
	case p.Imagen == "":
		return "", ErrNoImage
	case strings.HasPrefix(p.Imagen, "http://"), strings.HasPrefix(p.Imagen, "https://"):
		return p.Imagen, nil
	case !strings.HasPrefix(p.Imagen, ownImagePrefix(p.ID)):
		return "", ErrNoImage
	case s.store == nil:
		return "", ErrStorageDisabled
	}
	return s.store.PresignGet(ctx, p.Imagen, s.imageExpiry)
}

func (s *productService) ImportCSV(ctx context.Context, r io.Reader) (*ImportResult[model.Product], error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	ctx, span := tracer.Start(ctx, "products.ImportCSV")
	defer span.End()

	var rows []*ProductInput
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}

	res := &ImportResult[model.Product]{Items: make([]model.Product, 0, len(rows))}
	for i, row := range rows {
		p, err := s.Create(ctx, *row)
		if err != nil {
			res.Skipped++
			s.log.Warn("csv_import_skip", zap.Int("row", i+1), zap.Error(err))
			continue
		}
		res.Items = append(res.Items, *p)
	}
	res.Imported = len(res.Items)

	span.SetAttributes(
		attribute.Int("import.imported", res.Imported),
		attribute.Int("import.skipped", res.Skipped),
	)
	s.log.Info("csv_import_done", zap.Int("imported", res.Imported), zap.Int("skipped", res.Skipped))
	return res, nil
}

func (s *productService) ExportCSV(ctx context.Context, w io.Writer, query, categoria string) error {
	f := repository.ProductFilter{
		Query:     search.Normalize(query),
		Categoria: strings.TrimSpace(categoria),
		PageQuery: repository.PageQuery{Limit: exportBatch},
	}
	items := make([]model.Product, 0)
	for {
		page, err := s.repo.List(ctx, f)
		if err != nil {
			return err
		}
		items = append(items, page.Items...)
		f.Offset += len(page.Items)
		if len(page.Items) == 0 || f.Offset >= page.Total {
			break
		}
	}
	return gocsv.Marshal(items, w)
}
