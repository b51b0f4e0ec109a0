package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"agenda/internal/model"
	"agenda/internal/repository"
	"agenda/internal/search"
	"agenda/internal/vcard"
)

var tracer = otel.Tracer("agenda/internal/service")

// ContactInput is the writable part of a contact.
type ContactInput struct {
	Nombre   string `json:"nombre" validate:"required,max=100"`
	Apellido string `json:"apellido" validate:"max=100"`
	Telefono string `json:"telefono" validate:"max=40"`
	Email    string `json:"email" validate:"omitempty,email,max=254"`
}

func (in *ContactInput) trim() {
	in.Nombre = strings.TrimSpace(in.Nombre)
	in.Apellido = strings.TrimSpace(in.Apellido)
	in.Telefono = strings.TrimSpace(in.Telefono)
	in.Email = strings.TrimSpace(in.Email)
}

// ContactListResult is the service-level DTO for paginated contacts.
type ContactListResult struct {
	Items []model.Contact `json:"data"`
	Total int             `json:"total"`
}

// ImportResult reports a bulk import. Items holds the records that were created.
type ImportResult[T any] struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Items    []T `json:"data"`
}

// ContactService defines the agenda use cases.
type ContactService interface {
	Create(ctx context.Context, in ContactInput) (*model.Contact, error)
	Get(ctx context.Context, id string) (*model.Contact, error)
	// List filters by a diacritic-insensitive query over nombre, apellido, telefono and email.
	List(ctx context.Context, query string, limit, offset int) (*ContactListResult, error)
	Update(ctx context.Context, id string, in ContactInput) (*model.Contact, error)
	Delete(ctx context.Context, id string) error

	// ImportVCF creates a contact for every named card in r.
	// A card that fails validation or storage is skipped; the rest still import.
	ImportVCF(ctx context.Context, r io.Reader) (*ImportResult[model.Contact], error)
	// ExportVCF writes every contact matching query as vCard 4.0.
	ExportVCF(ctx context.Context, w io.Writer, query string) error
	// ExportCSV writes every contact matching query as CSV with a header row.
	ExportCSV(ctx context.Context, w io.Writer, query string) error
}

type contactService struct {
	repo repository.ContactRepository
	log  *zap.Logger
	now  func() time.Time
}

// NewContactService constructs a new ContactService.
func NewContactService(repo repository.ContactRepository, log *zap.Logger) ContactService {
	if log == nil {
		log = zap.NewNop()
	}
	return &contactService{
		repo: repo,
		log:  log.With(zap.String("component", "contacts")),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func contactSearchKey(c *model.Contact) string {
	return search.Key(c.Nombre, c.Apellido, c.Telefono, c.Email)
}

func (s *contactService) Create(ctx context.Context, in ContactInput) (*model.Contact, error) {
	in.trim()
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	now := s.now()
	c := &model.Contact{
		ID:        uuid.NewString(),
		Nombre:    in.Nombre,
		Apellido:  in.Apellido,
		Telefono:  in.Telefono,
		Email:     in.Email,
		CreatedAt: now,
		UpdatedAt: now,
	}
	out, err := s.repo.Create(ctx, c, contactSearchKey(c))
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return out, nil
}

func (s *contactService) Get(ctx context.Context, id string) (*model.Contact, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return c, nil
}

func (s *contactService) List(ctx context.Context, query string, limit, offset int) (*ContactListResult, error) {
	limit, offset = clampPage(limit, offset)
	res, err := s.repo.List(ctx, repository.ContactFilter{
		Query:     search.Normalize(query),
		PageQuery: repository.PageQuery{Limit: limit, Offset: offset},
	})
	if err != nil {
		return nil, err
	}
	return &ContactListResult{Items: res.Items, Total: res.Total}, nil
}

func (s *contactService) Update(ctx context.Context, id string, in ContactInput) (*model.Contact, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	in.trim()
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	c := &model.Contact{
		ID:        id,
		Nombre:    in.Nombre,
		Apellido:  in.Apellido,
		Telefono:  in.Telefono,
		Email:     in.Email,
		UpdatedAt: s.now(),
	}
	out, err := s.repo.Update(ctx, c, contactSearchKey(c))
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return out, nil
}

func (s *contactService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	return mapRepoErr(s.repo.Delete(ctx, id))
}

func (s *contactService) ImportVCF(ctx context.Context, r io.Reader) (*ImportResult[model.Contact], error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	ctx, span := tracer.Start(ctx, "contacts.ImportVCF")
	defer span.End()

	parsed, err := vcard.Parse(r)
	if err != nil {
		if errors.Is(err, vcard.ErrInvalidVCF) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidVCF, err)
		}
		return nil, err
	}

	res := &ImportResult[model.Contact]{
		Skipped: parsed.Skipped,
		Items:   make([]model.Contact, 0, len(parsed.Contacts)),
	}
	for i, pc := range parsed.Contacts {
		c, err := s.Create(ctx, ContactInput{
			Nombre:   pc.Nombre,
			Apellido: pc.Apellido,
			Telefono: pc.Telefono,
			Email:    pc.Email,
		})
		if err != nil {
			res.Skipped++
			s.log.Warn("vcf_import_skip",
				zap.Int("card", i+1),
				zap.String("nombre", pc.Nombre),
				zap.Error(err),
			)
			continue
		}
		res.Items = append(res.Items, *c)
	}
	res.Imported = len(res.Items)

	span.SetAttributes(
		attribute.Int("import.imported", res.Imported),
		attribute.Int("import.skipped", res.Skipped),
	)
	s.log.Info("vcf_import_done", zap.Int("imported", res.Imported), zap.Int("skipped", res.Skipped))
	return res, nil
}

// all pages through every contact matching query.
func (s *contactService) all(ctx context.Context, query string) ([]model.Contact, error) {
	f := repository.ContactFilter{
		Query:     search.Normalize(query),
		PageQuery: repository.PageQuery{Limit: exportBatch},
	}
	out := make([]model.Contact, 0)
	for {
		page, err := s.repo.List(ctx, f)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
		f.Offset += len(page.Items)
		if len(page.Items) == 0 || f.Offset >= page.Total {
			return out, nil
		}
	}
}

func (s *contactService) ExportVCF(ctx context.Context, w io.Writer, query string) error {
	ctx, span := tracer.Start(ctx, "contacts.ExportVCF", trace.WithAttributes(attribute.String("export.query", query)))
	defer span.End()

	contacts, err := s.all(ctx, query)
	if err != nil {
		return err
	}
	span.SetAttributes(attribute.Int("export.count", len(contacts)))
	return vcard.Write(w, contacts)
}

func (s *contactService) ExportCSV(ctx context.Context, w io.Writer, query string) error {
	contacts, err := s.all(ctx, query)
	if err != nil {
		return err
	}
	return gocsv.Marshal(contacts, w)
}
