package app_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-autocrud/framework/app"
	"github.com/km-arc/go-autocrud/framework/container"
	"github.com/km-arc/go-autocrud/framework/entity"
	"github.com/km-arc/go-autocrud/framework/providers"
	"github.com/km-arc/go-autocrud/framework/storage/memory"
)

type book struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

func (b *book) GetID() int64   { return b.ID }
func (b *book) SetID(id int64) { b.ID = id }

func newApp(t *testing.T) *app.Application {
	t.Helper()
	t.Setenv("APP_ENV", "testing")
	t.Setenv("APP_PORT", "0")
	t.Setenv("DB_DRIVER", "memory")
	a, err := app.New(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	return a
}

func TestNew_RegistersCoreProviders(t *testing.T) {
	a := newApp(t)
	assert.True(t, a.IsTesting())
	assert.False(t, a.IsProduction())
	assert.NotNil(t, a.Log())
	assert.NotNil(t, a.Router())
	assert.Len(t, a.Providers.Providers(), 3, "the database provider is deferred")
}

func TestRun_ServesUntilCancelled(t *testing.T) {
	a := newApp(t)
	require.NoError(t, a.Register(&providers.AutoCrudServiceProvider{Entities: []providers.CrudEntity{
		providers.Entity[int64, *book]("/books", memory.Crud[int64, *book]()),
	}}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, a.Run(ctx))
	assert.True(t, a.Providers.Booted())

	svc, err := container.ResolveType[entity.ReadService[int64, *book]](a.Scope(context.Background()))
	require.NoError(t, err)
	assert.NotNil(t, svc)
}
