package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"agenda/internal/model"
	"agenda/internal/repository"
	"agenda/internal/repository/memory"
	repoMocks "agenda/internal/repository/mocks"
)

func TestContactService_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		in         ContactInput
		setupMocks func(mRepo *repoMocks.MockContactRepository)
		wantErr    error
		wantFields []string
	}{
		{
			name: "happy path trims and indexes",
			in:   ContactInput{Nombre: "  José ", Apellido: "Pérez", Email: "jose@example.com"},
			setupMocks: func(mRepo *repoMocks.MockContactRepository) {
				mRepo.On("Create", ctx, mock.MatchedBy(func(c *model.Contact) bool {
					return c.ID != "" && c.Nombre == "José" && !c.CreatedAt.IsZero()
				}), "jose perez jose@example.com").
					Return(&model.Contact{ID: "gen-id", Nombre: "José"}, nil)
			},
		},
		{
			name:       "validation - missing nombre and bad email",
			in:         ContactInput{Nombre: "   ", Email: "not-an-email"},
			setupMocks: func(mRepo *repoMocks.MockContactRepository) {},
			wantFields: []string{"nombre", "email"},
		},
		{
			name: "duplicate id",
			in:   ContactInput{Nombre: "Ana"},
			setupMocks: func(mRepo *repoMocks.MockContactRepository) {
				mRepo.On("Create", ctx, mock.Anything, "ana").Return(nil, repository.ErrDuplicateID)
			},
			wantErr: ErrDuplicate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockContactRepository)
			svc := NewContactService(mRepo, nil)
			tt.setupMocks(mRepo)

			c, err := svc.Create(ctx, tt.in)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantFields != nil:
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				for _, f := range tt.wantFields {
					assert.Contains(t, verr.Fields, f)
				}
				assert.Equal(t, "this field is required", verr.Fields["nombre"])
			default:
				assert.NoError(t, err)
				assert.NotNil(t, c)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestContactService_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("empty id", func(t *testing.T) {
		svc := NewContactService(new(repoMocks.MockContactRepository), nil)
		_, err := svc.Get(ctx, "")
		assert.ErrorIs(t, err, ErrIDRequired)
	})

	t.Run("not found", func(t *testing.T) {
		mRepo := new(repoMocks.MockContactRepository)
		mRepo.On("FindByID", ctx, "missing").Return(nil, repository.ErrNotFound)
		svc := NewContactService(mRepo, nil)

		c, err := svc.Get(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, c)
	})

	t.Run("generic error passes through", func(t *testing.T) {
		mRepo := new(repoMocks.MockContactRepository)
		mRepo.On("FindByID", ctx, "x").Return(nil, errors.New("db fail"))
		svc := NewContactService(mRepo, nil)

		_, err := svc.Get(ctx, "x")
		assert.EqualError(t, err, "db fail")
	})
}

func TestContactService_List(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		query  string
		limit  int
		offset int
		want   repository.ContactFilter
	}{
		{
			name:  "normalizes query",
			query: "  JOSÉ  Pérez",
			limit: 20,
			want:  repository.ContactFilter{Query: "jose perez", PageQuery: repository.PageQuery{Limit: 20}},
		},
		{
			name:   "defaults",
			limit:  0,
			offset: -5,
			want:   repository.ContactFilter{PageQuery: repository.PageQuery{Limit: 10}},
		},
		{
			name:   "caps limit",
			limit:  1000,
			offset: 30,
			want:   repository.ContactFilter{PageQuery: repository.PageQuery{Limit: 100, Offset: 30}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockContactRepository)
			mRepo.On("List", ctx, tt.want).
				Return(&repository.PageResult[model.Contact]{Items: []model.Contact{{ID: "1"}}, Total: 1}, nil)
			svc := NewContactService(mRepo, nil)

			res, err := svc.List(ctx, tt.query, tt.limit, tt.offset)

			require.NoError(t, err)
			assert.Equal(t, 1, res.Total)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestContactService_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewContactMemory()
	svc := NewContactService(repo, nil)

	c, err := svc.Create(ctx, ContactInput{Nombre: "Ana", Apellido: "López"})
	require.NoError(t, err)

	upd, err := svc.Update(ctx, c.ID, ContactInput{Nombre: "Ana María", Apellido: "López", Telefono: "555"})
	require.NoError(t, err)
	assert.Equal(t, "Ana María", upd.Nombre)
	assert.Equal(t, c.CreatedAt, upd.CreatedAt)

	// The new name is searchable after the update.
	res, err := svc.List(ctx, "maria", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)

	_, err = svc.Update(ctx, "missing", ContactInput{Nombre: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(ctx, c.ID, ContactInput{})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	require.NoError(t, svc.Delete(ctx, c.ID))
	assert.ErrorIs(t, svc.Delete(ctx, c.ID), ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, ""), ErrIDRequired)
}

func TestContactService_ImportVCF(t *testing.T) {
	ctx := context.Background()

	vcf := "BEGIN:VCARD\r\nVERSION:3.0\r\nN:Pérez;José;;;\r\nTEL:555-1234\r\nEND:VCARD\r\n" +
		"BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Mala Dirección\r\nEMAIL:no-es-email\r\nEND:VCARD\r\n" +
		"BEGIN:VCARD\r\nVERSION:3.0\r\nTEL:000\r\nEND:VCARD\r\n" +
		"BEGIN:VCARD\r\nVERSION:3.0\r\nFN:Lucía\r\nEND:VCARD\r\n"

	t.Run("imports named cards and skips the rest", func(t *testing.T) {
		repo := memory.NewContactMemory()
		svc := NewContactService(repo, nil)

		res, err := svc.ImportVCF(ctx, strings.NewReader(vcf))

		require.NoError(t, err)
		assert.Equal(t, 2, res.Imported)
		assert.Equal(t, 2, res.Skipped)
		require.Len(t, res.Items, 2)
		assert.Equal(t, "José", res.Items[0].Nombre)
		assert.NotEmpty(t, res.Items[0].ID)

		found, err := svc.List(ctx, "jose", 10, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, found.Total)
	})

	t.Run("nil reader", func(t *testing.T) {
		svc := NewContactService(memory.NewContactMemory(), nil)
		_, err := svc.ImportVCF(ctx, nil)
		assert.ErrorIs(t, err, ErrReaderNil)
	})

	t.Run("invalid file", func(t *testing.T) {
		svc := NewContactService(memory.NewContactMemory(), nil)
		_, err := svc.ImportVCF(ctx, strings.NewReader("hello"))
		assert.ErrorIs(t, err, ErrInvalidVCF)
	})
}

func TestContactService_Export(t *testing.T) {
	ctx := context.Background()
	svc := NewContactService(memory.NewContactMemory(), nil)

	// More than one export batch.
	for i := 0; i < exportBatch+20; i++ {
		_, err := svc.Create(ctx, ContactInput{Nombre: fmt.Sprintf("Contacto %03d", i), Email: fmt.Sprintf("c%d@example.com", i)})
		require.NoError(t, err)
	}
	_, err := svc.Create(ctx, ContactInput{Nombre: "Ñoño", Apellido: "Gómez"})
	require.NoError(t, err)

	t.Run("csv includes every contact", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, svc.ExportCSV(ctx, &buf, ""))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		assert.Len(t, lines, exportBatch+21+1)
		assert.Equal(t, "id,nombre,apellido,telefono,email", strings.TrimSpace(lines[0]))
	})

	t.Run("vcf honors the query", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, svc.ExportVCF(ctx, &buf, "nono"))

		out := buf.String()
		assert.Equal(t, 1, strings.Count(out, "BEGIN:VCARD"))
		assert.Contains(t, out, "Gómez")
	})

	t.Run("repository error", func(t *testing.T) {
		mRepo := new(repoMocks.MockContactRepository)
		mRepo.On("List", ctx, mock.Anything).Return(nil, errors.New("db fail"))
		svc := NewContactService(mRepo, nil)

		var buf bytes.Buffer
		assert.Error(t, svc.ExportVCF(ctx, &buf, ""))
	})
}
