// Package web exposes generated entity services over HTTP. Controllers
// resolve the services from the request's container scope on every call, so
// a request sees one consistent set of scoped values.
package web

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/km-arc/go-autocrud/framework/container"
	"github.com/km-arc/go-autocrud/framework/entity"
	gohttp "github.com/km-arc/go-autocrud/framework/http"
	"github.com/km-arc/go-autocrud/framework/http/validation"
	"github.com/km-arc/go-autocrud/framework/routing"
)

// EntityController serves the REST routes of entity E.
//
//	router.Resource("/people", web.NewEntityController[int64, *Person](app.Container, log))
type EntityController[K comparable, E entity.Entity[K]] struct {
	root *container.Container
	log  *zap.Logger
}

// NewEntityController returns a controller resolving services from c.
// Requests that did not pass routing.Scoped get a scope of their own.
func NewEntityController[K comparable, E entity.Entity[K]](c *container.Container, log *zap.Logger) *EntityController[K, E] {
	if log == nil {
		log = zap.NewNop()
	}
	return &EntityController[K, E]{root: c, log: log.Named("web").With(zap.String("entity", entity.Name[E]()))}
}

// searchRules mirror the paging and date-range constraints of a search.
var searchRules = validation.Rules{
	"pageNumber":        "required|integer|gte:1",
	"pageSize":          "required|integer|gte:1|lte:100",
	"doCount":           "nullable|boolean",
	"createdStartDate":  "nullable|date|before_or_equal:modifiedStartDate|before_or_equal:createdEndDate",
	"createdEndDate":    "nullable|date",
	"modifiedStartDate": "nullable|date|before_or_equal:modifiedEndDate",
	"modifiedEndDate":   "nullable|date",
}

// Index searches. Paging is required; counting defaults to on.
//
//	GET /people?search=ada&pageNumber=1&pageSize=20&orderBy=lastName:desc
func (ec *EntityController[K, E]) Index(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)

	input := req.Queries()
	v := validation.Make(input, searchRules)
	if v.Fails() {
		res.ValidationError(v.Errors())
		return
	}
	search := searchRequest(req, input)

	svc, ok := resolve[entity.SearchService[K, E]](ec, res, r)
	if !ok {
		return
	}
	page, err := svc.Page(r.Context(), search)
	if err != nil {
		ec.fail(res, err)
		return
	}
	res.JSON(http.StatusOK, page)
}

// Store creates an entity from the JSON body.
func (ec *EntityController[K, E]) Store(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)

	e := entity.New[E]()
	if err := req.Bind(e); err != nil {
		res.BadRequest(err.Error())
		return
	}
	svc, ok := resolve[entity.CreateService[K, E]](ec, res, r)
	if !ok {
		return
	}
	created, err := svc.Create(r.Context(), e)
	if err != nil {
		ec.fail(res, err)
		return
	}
	res.Created(created)
}

// Show reads the entity named by the {id} route parameter.
func (ec *EntityController[K, E]) Show(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	key, ok := routeKey[K](res, r)
	if !ok {
		return
	}
	svc, ok := resolve[entity.ReadService[K, E]](ec, res, r)
	if !ok {
		return
	}
	e, err := svc.Get(r.Context(), key)
	if err != nil {
		ec.fail(res, err)
		return
	}
	res.Success(e)
}

// Update replaces the entity with the JSON body. The route key wins over any
// key in the body.
func (ec *EntityController[K, E]) Update(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)
	key, ok := routeKey[K](res, r)
	if !ok {
		return
	}
	e := entity.New[E]()
	if err := req.Bind(e); err != nil {
		res.BadRequest(err.Error())
		return
	}
	e.SetID(key)

	svc, ok := resolve[entity.UpdateService[K, E]](ec, res, r)
	if !ok {
		return
	}
	updated, err := svc.Update(r.Context(), e)
	if err != nil {
		ec.fail(res, err)
		return
	}
	res.Success(updated)
}

// Patch applies a JSON merge patch from the body.
func (ec *EntityController[K, E]) Patch(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)
	key, ok := routeKey[K](res, r)
	if !ok {
		return
	}
	patch, err := req.Body()
	if err != nil {
		res.BadRequest(err.Error())
		return
	}
	svc, ok := resolve[entity.UpdateService[K, E]](ec, res, r)
	if !ok {
		return
	}
	patched, err := svc.Patch(r.Context(), key, patch)
	if err != nil {
		ec.fail(res, err)
		return
	}
	res.Success(patched)
}

// Destroy deletes the entity and returns what was deleted.
func (ec *EntityController[K, E]) Destroy(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	key, ok := routeKey[K](res, r)
	if !ok {
		return
	}
	svc, ok := resolve[entity.DeleteService[K, E]](ec, res, r)
	if !ok {
		return
	}
	deleted, err := svc.Delete(r.Context(), key)
	if err != nil {
		ec.fail(res, err)
		return
	}
	res.Success(deleted)
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (ec *EntityController[K, E]) scope(r *http.Request) *container.Container {
	if scope, ok := routing.Scope(r); ok {
		return scope
	}
	return ec.root.Scope(r.Context())
}

// resolve fetches service S from the request scope. A missing registration
// is a server error.
func resolve[S any, K comparable, E entity.Entity[K]](ec *EntityController[K, E], res *gohttp.Response, r *http.Request) (S, bool) {
	svc, err := container.ResolveType[S](ec.scope(r))
	if err != nil {
		ec.log.Error("resolving service", zap.String("contract", container.KeyFor[S]()), zap.Error(err))
		res.ServerError()
		return svc, false
	}
	return svc, true
}

func (ec *EntityController[K, E]) fail(res *gohttp.Response, err error) {
	if errors.Is(err, entity.ErrNotFound) {
		res.NotFound(err.Error())
		return
	}
	ec.log.Error("request failed", zap.Error(err))
	res.ServerError()
}

func routeKey[K comparable](res *gohttp.Response, r *http.Request) (K, bool) {
	key, err := entity.ParseKey[K](routing.Param(r, "id"))
	if err != nil {
		res.BadRequest("invalid key " + strconv.Quote(routing.Param(r, "id")))
		return key, false
	}
	return key, true
}

// searchRequest converts validated query input.
func searchRequest(req *gohttp.Request, input map[string]string) entity.SearchRequest {
	s := entity.SearchRequest{
		Search:  input["search"],
		OrderBy: req.QueryAll("orderBy"),
	}
	page, _ := strconv.Atoi(input["pageNumber"])
	size, _ := strconv.Atoi(input["pageSize"])
	s.PageNumber, s.PageSize = &page, &size

	count := true
	if v := input["doCount"]; v != "" {
		count = truthy(v)
	}
	s.DoCount = &count

	for name, dst := range map[string]**time.Time{
		"createdStartDate":  &s.CreatedStartDate,
		"createdEndDate":    &s.CreatedEndDate,
		"modifiedStartDate": &s.ModifiedStartDate,
		"modifiedEndDate":   &s.ModifiedEndDate,
	} {
		if v := input[name]; v != "" {
			if at, err := validation.ParseDate(v); err == nil {
				*dst = &at
			}
		}
	}
	return s
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true
	}
	return false
}
