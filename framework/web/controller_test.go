package web_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/km-arc/go-autocrud/framework/container"
	"github.com/km-arc/go-autocrud/framework/entity"
	"github.com/km-arc/go-autocrud/framework/generator"
	"github.com/km-arc/go-autocrud/framework/io/export"
	"github.com/km-arc/go-autocrud/framework/routing"
	"github.com/km-arc/go-autocrud/framework/storage/memory"
	"github.com/km-arc/go-autocrud/framework/web"
)

type person struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	entity.Timestamps
}

func (p *person) GetID() int64   { return p.ID }
func (p *person) SetID(id int64) { p.ID = id }

type ControllerSuite struct {
	suite.Suite
	router *routing.Router
}

func (s *ControllerSuite) SetupTest() {
	c := container.New()
	s.Require().NoError(c.Instance(container.KeyFor[entity.DomainEventPublisher](), entity.NopPublisher{}))

	b := generator.ForEntity[int64, *person]().With(memory.Crud[int64, *person](), export.Feature[int64, *person]())
	generator.Supply[entity.OrderByProvider[int64, *person]](b, entity.OrderByFields[int64, *person]("lastName"))
	_, err := generator.New(nil).AddBuilder(b).Generate(c)
	s.Require().NoError(err)

	s.router = routing.New(nil)
	s.router.Scoped(c)
	ec := web.NewEntityController[int64, *person](c, nil)
	s.router.Get("/people/export", ec.Export)
	s.router.Resource("/people", ec)
}

func (s *ControllerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *ControllerSuite) create(first, last string) person {
	rr := s.do(http.MethodPost, "/people", `{"firstName":"`+first+`","lastName":"`+last+`"}`)
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	var out struct{ Data person }
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &out))
	return out.Data
}

func (s *ControllerSuite) TestStoreAndShow() {
	created := s.create("Ada", "Lovelace")
	s.Equal(int64(1), created.ID)
	s.False(created.CreatedDate().IsZero())

	rr := s.do(http.MethodGet, "/people/1", "")
	s.Equal(http.StatusOK, rr.Code)
	s.Contains(rr.Body.String(), `"firstName":"Ada"`)
}

func (s *ControllerSuite) TestUpdateUsesRouteKey() {
	s.create("Ada", "Lovelace")

	rr := s.do(http.MethodPut, "/people/1", `{"id":99,"firstName":"Augusta","lastName":"King"}`)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	s.Contains(rr.Body.String(), `"id":1`)
	s.Contains(rr.Body.String(), `"firstName":"Augusta"`)
}

func (s *ControllerSuite) TestPatch() {
	s.create("Ada", "Lovelace")

	rr := s.do(http.MethodPatch, "/people/1", `{"lastName":"King"}`)
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	s.Contains(rr.Body.String(), `"firstName":"Ada"`)
	s.Contains(rr.Body.String(), `"lastName":"King"`)

	s.Equal(http.StatusBadRequest, s.do(http.MethodPatch, "/people/1", "").Code)
}

func (s *ControllerSuite) TestDestroy() {
	s.create("Ada", "Lovelace")

	rr := s.do(http.MethodDelete, "/people/1", "")
	s.Equal(http.StatusOK, rr.Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/people/1", "").Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, "/people/1", "").Code)
}

func (s *ControllerSuite) TestBadRequests() {
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/people/abc", "").Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, "/people", "{").Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodPut, "/people/5", `{"firstName":"x"}`).Code)
}

func (s *ControllerSuite) TestIndex() {
	s.create("Grace", "Hopper")
	s.create("Ada", "Lovelace")
	s.create("Alan", "Turing")

	rr := s.do(http.MethodGet, "/people?pageNumber=1&pageSize=2", "")
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())

	var page entity.PagedResponse[person]
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &page))
	s.Require().Len(page.Data, 2)
	s.Equal("Hopper", page.Data[0].LastName, "default order is lastName")
	s.Require().NotNil(page.TotalRecords, "counting defaults to on")
	s.Equal(int64(3), *page.TotalRecords)

	rr = s.do(http.MethodGet, "/people?pageNumber=1&pageSize=10&doCount=false&orderBy=-lastName&search=a", "")
	s.Require().Equal(http.StatusOK, rr.Code)
	page = entity.PagedResponse[person]{}
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &page))
	s.Nil(page.TotalRecords)
	s.Equal("Turing", page.Data[0].LastName)
}

func (s *ControllerSuite) TestIndexValidation() {
	tests := []struct {
		name  string
		query string
		field string
	}{
		{"page number required", "pageSize=10", "pageNumber"},
		{"page size required", "pageNumber=1", "pageSize"},
		{"page size too small", "pageNumber=1&pageSize=0", "pageSize"},
		{"page size too large", "pageNumber=1&pageSize=101", "pageSize"},
		{"created after modified", "pageNumber=1&pageSize=10&createdStartDate=2024-03-01&modifiedStartDate=2024-02-01", "createdStartDate"},
		{"created range reversed", "pageNumber=1&pageSize=10&createdStartDate=2024-03-01&createdEndDate=2024-02-01", "createdStartDate"},
		{"modified range reversed", "pageNumber=1&pageSize=10&modifiedStartDate=2024-03-01&modifiedEndDate=2024-02-01", "modifiedStartDate"},
		{"malformed date", "pageNumber=1&pageSize=10&createdEndDate=soon", "createdEndDate"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			rr := s.do(http.MethodGet, "/people?"+tt.query, "")
			s.Require().Equal(http.StatusUnprocessableEntity, rr.Code)
			var bag struct {
				Errors map[string][]string `json:"errors"`
			}
			s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &bag))
			s.NotEmpty(bag.Errors[tt.field], "errors: %v", bag.Errors)
		})
	}
}

func (s *ControllerSuite) TestExport() {
	s.create("Grace", "Hopper")
	s.create("Ada", "Lovelace")

	rr := s.do(http.MethodGet, "/people/export?format=csv&search=ada", "")
	s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
	s.Equal("text/csv", rr.Header().Get("Content-Type"))
	s.Contains(rr.Header().Get("Content-Disposition"), `filename="person.csv"`)
	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	s.Require().Len(lines, 2)
	s.True(strings.HasPrefix(lines[0], "id,firstName,lastName"))
	s.Contains(lines[1], "Lovelace")

	rr = s.do(http.MethodGet, "/people/export", "")
	s.Equal(http.StatusOK, rr.Code)
	var all []person
	s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &all))
	s.Len(all, 2, "json by default, without paging")

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/people/export?format=xlsx", "").Code)
	s.Equal(http.StatusUnprocessableEntity, s.do(http.MethodGet, "/people/export?createdEndDate=soon", "").Code)
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func TestController_MissingServicesIsServerError(t *testing.T) {
	router := routing.New(nil)
	router.Resource("/people", web.NewEntityController[int64, *person](container.New(), nil))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/people/1", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "Server Error.", body["message"])
}
