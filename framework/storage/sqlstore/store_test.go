package sqlstore_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/km-arc/go-autocrud/framework/container"
	"github.com/km-arc/go-autocrud/framework/entity"
	"github.com/km-arc/go-autocrud/framework/generator"
	"github.com/km-arc/go-autocrud/framework/storage/sqlstore"
)

type book struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Pages  int    `json:"pages"`
	entity.Timestamps
}

func (b *book) GetID() int64   { return b.ID }
func (b *book) SetID(id int64) { b.ID = id }

type label struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

func (l *label) GetID() string   { return l.ID }
func (l *label) SetID(id string) { l.ID = id }

func openMemory(t *testing.T) *sqlstore.DB {
	t.Helper()
	db, err := sqlstore.Open(context.Background(), "sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type StoreSuite struct {
	suite.Suite
	ctx   context.Context
	db    *sqlstore.DB
	store *sqlstore.Store[int64, *book]
	now   time.Time
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.db = openMemory(s.T())
	s.now = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	store, err := sqlstore.NewStore[int64, *book](s.db, "books", sqlstore.WithClock(func() time.Time {
		s.now = s.now.Add(time.Hour)
		return s.now
	}))
	s.Require().NoError(err)
	s.Require().NoError(store.ConfigureSchema(s.ctx))
	s.Require().NoError(store.ConfigureSchema(s.ctx), "schema creation is idempotent")
	s.store = store
}

func (s *StoreSuite) add(title, author string, pages int) *book {
	b, err := s.store.Add(s.ctx, &book{Title: title, Author: author, Pages: pages})
	s.Require().NoError(err)
	return b
}

func (s *StoreSuite) TestAddGeneratesKeys() {
	first := s.add("Dune", "Herbert", 412)
	second := s.add("Emma", "Austen", 474)
	s.Equal(int64(1), first.ID)
	s.Equal(int64(2), second.ID)
	s.Equal(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), first.CreatedDate())

	explicit, err := s.store.Add(s.ctx, &book{ID: 40, Title: "Ulysses"})
	s.Require().NoError(err)
	s.Equal(int64(40), explicit.ID)

	_, err = s.store.Add(s.ctx, &book{ID: 40})
	s.Error(err, "duplicate keys are rejected")
}

func (s *StoreSuite) TestGetByKey() {
	added := s.add("Dune", "Herbert", 412)

	got, err := s.store.GetByKey(s.ctx, added.ID)
	s.Require().NoError(err)
	s.Equal("Dune", got.Title)
	s.Equal(added.ID, got.ID, "the stored document carries its key")

	_, err = s.store.GetByKey(s.ctx, 999)
	s.ErrorIs(err, entity.ErrNotFound)
}

func (s *StoreSuite) TestReplaceKeepsCreatedDate() {
	added := s.add("Dune", "Herbert", 412)

	replaced, err := s.store.Replace(s.ctx, &book{ID: added.ID, Title: "Dune Messiah", Author: "Herbert"})
	s.Require().NoError(err)
	s.Equal("Dune Messiah", replaced.Title)
	s.Equal(added.CreatedDate(), replaced.CreatedDate())
	s.True(replaced.ModifiedDate().After(added.ModifiedDate()))

	_, err = s.store.Replace(s.ctx, &book{ID: 77})
	s.ErrorIs(err, entity.ErrNotFound)
}

func (s *StoreSuite) TestRemove() {
	added := s.add("Dune", "Herbert", 412)

	removed, err := s.store.Remove(s.ctx, added.ID)
	s.Require().NoError(err)
	s.Equal("Dune", removed.Title)

	_, err = s.store.Remove(s.ctx, added.ID)
	s.ErrorIs(err, entity.ErrNotFound)
}

func (s *StoreSuite) TestFind() {
	s.add("Dune", "Herbert", 412)
	s.add("Emma", "Austen", 474)
	s.add("Persuasion", "Austen", 249)
	s.add("Ulysses", "Joyce", 730)

	page, err := s.store.Find(s.ctx, entity.Query{Search: "AUSTEN", DoCount: true})
	s.Require().NoError(err)
	s.Len(page.Data, 2)
	s.Equal(int64(2), *page.TotalRecords)

	page, err = s.store.Find(s.ctx, entity.Query{OrderBy: []entity.OrderBy{{Field: "pages", Ascending: false}}})
	s.Require().NoError(err)
	s.Require().Len(page.Data, 4)
	s.Equal("Ulysses", page.Data[0].Title)
	s.Equal("Persuasion", page.Data[3].Title)

	page, err = s.store.Find(s.ctx, entity.Query{PageNumber: 2, PageSize: 3, DoCount: true})
	s.Require().NoError(err)
	s.Require().Len(page.Data, 1)
	s.Equal("Ulysses", page.Data[0].Title)
	s.Equal(int64(4), *page.TotalRecords)
	s.Equal(2, *page.CurrentPage)

	// Created at 09:00, 10:00, 11:00 and 12:00.
	from := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	page, err = s.store.Find(s.ctx, entity.Query{CreatedStart: &from})
	s.Require().NoError(err)
	s.Len(page.Data, 2)
}

func (s *StoreSuite) TestFindIgnoresUnsafeOrderFields() {
	s.add("Dune", "Herbert", 412)
	s.add("Emma", "Austen", 474)

	page, err := s.store.Find(s.ctx, entity.Query{OrderBy: []entity.OrderBy{
		{Field: "title') DESC; DROP TABLE books; --"},
		{Field: "title", Ascending: false},
	}})
	s.Require().NoError(err)
	s.Require().Len(page.Data, 2)
	s.Equal("Emma", page.Data[0].Title)
}

func (s *StoreSuite) TestFindPastTheLastAddressablePage() {
	s.add("Dune", "Herbert", 412)

	page, err := s.store.Find(s.ctx, entity.Query{PageNumber: math.MaxInt, PageSize: 100, DoCount: true})
	s.Require().NoError(err)
	s.Empty(page.Data)
	s.Equal(int64(1), *page.TotalRecords)
}

func (s *StoreSuite) TestSearchTreatsWildcardsLiterally() {
	s.add("Dune", "Herbert", 412)
	s.add("snake_case", "Anon", 12)
	s.add("Fifty!", "Anon", 50)

	page, err := s.store.Find(s.ctx, entity.Query{Search: "_"})
	s.Require().NoError(err)
	s.Require().Len(page.Data, 1)
	s.Equal("snake_case", page.Data[0].Title)

	page, err = s.store.Find(s.ctx, entity.Query{Search: "%"})
	s.Require().NoError(err)
	s.Empty(page.Data)

	page, err = s.store.Find(s.ctx, entity.Query{Search: "fifty!"})
	s.Require().NoError(err)
	s.Len(page.Data, 1)
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func TestStore_StringKeys(t *testing.T) {
	ctx := context.Background()
	store, err := sqlstore.NewStore[string, *label](openMemory(t), "")
	require.NoError(t, err)
	assert.Equal(t, "label", store.Table())
	require.NoError(t, store.ConfigureSchema(ctx))

	added, err := store.Add(ctx, &label{Text: "urgent"})
	require.NoError(t, err)
	assert.Len(t, added.ID, 32)

	got, err := store.GetByKey(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, "urgent", got.Text)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := sqlstore.Open(context.Background(), "oracle", "")
	assert.ErrorContains(t, err, "unsupported driver")
}

func TestNewStore_RejectsTableNames(t *testing.T) {
	_, err := sqlstore.NewStore[int64, *book](openMemory(t), "books; DROP TABLE x")
	assert.ErrorContains(t, err, "invalid table name")
}

// ── Generated registrations ───────────────────────────────────────────────────

func TestCrud_GeneratesServicesOverSQL(t *testing.T) {
	ctx := context.Background()
	c := container.New()
	require.NoError(t, c.Instance(container.KeyFor[*sqlstore.DB](), openMemory(t)))
	require.NoError(t, c.Instance(container.KeyFor[entity.DomainEventPublisher](), entity.NopPublisher{}))

	b := generator.ForEntity[int64, *book]().With(sqlstore.Crud[int64, *book]("books"))
	_, err := generator.New(nil).AddBuilder(b).Generate(c)
	require.NoError(t, err)

	scope := c.Scope(ctx)
	schemas, err := scope.Tagged(generator.TagSchema)
	require.NoError(t, err)
	require.Len(t, schemas, 1)
	require.NoError(t, schemas[0].(entity.SchemaConfigurer).ConfigureSchema(ctx))

	create, err := container.ResolveType[entity.CreateService[int64, *book]](scope)
	require.NoError(t, err)
	created, err := create.Create(ctx, &book{Title: "Dune", Pages: 412})
	require.NoError(t, err)

	update, err := container.ResolveType[entity.UpdateService[int64, *book]](scope)
	require.NoError(t, err)
	patched, err := update.Patch(ctx, created.ID, []byte(`{"pages":896}`))
	require.NoError(t, err)
	assert.Equal(t, 896, patched.Pages)
	assert.Equal(t, "Dune", patched.Title)
}

func TestCrud_RejectsTableNameAtBuild(t *testing.T) {
	b := generator.ForEntity[int64, *book]().With(sqlstore.Crud[int64, *book]("bad name"))
	assert.ErrorContains(t, b.Build(), "invalid table name")
}
