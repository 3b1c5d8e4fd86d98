package web

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/km-arc/go-autocrud/framework/entity"
	gohttp "github.com/km-arc/go-autocrud/framework/http"
	"github.com/km-arc/go-autocrud/framework/http/validation"
	"github.com/km-arc/go-autocrud/framework/io/export"
)

var exportRules = validation.Rules{
	"createdStartDate":  searchRules["createdStartDate"],
	"createdEndDate":    searchRules["createdEndDate"],
	"modifiedStartDate": searchRules["modifiedStartDate"],
	"modifiedEndDate":   searchRules["modifiedEndDate"],
}

// Export writes every entity matching the search filters as a file. The
// format defaults to json. The entity needs export.Feature.
//
//	GET /people/export?format=csv&search=ada
func (ec *EntityController[K, E]) Export(w http.ResponseWriter, r *http.Request) {
	req, res := gohttp.NewRequest(r), gohttp.NewResponse(w)

	input := req.Queries()
	v := validation.Make(input, exportRules)
	if v.Fails() {
		res.ValidationError(v.Errors())
		return
	}
	format := input["format"]
	if format == "" {
		format = string(export.JSON)
	}
	fileType, err := export.ParseFileType(format)
	if err != nil {
		res.BadRequest(err.Error())
		return
	}

	search := searchRequest(req, input)
	search.PageNumber, search.PageSize = nil, nil
	noCount := false
	search.DoCount = &noCount

	finder, ok := resolve[entity.SearchService[K, E]](ec, res, r)
	if !ok {
		return
	}
	exporter, ok := resolve[export.Service[E]](ec, res, r)
	if !ok {
		return
	}
	records, err := finder.Search(r.Context(), search)
	if err != nil {
		ec.fail(res, err)
		return
	}
	file, err := exporter.Export(r.Context(), fileType, records)
	if err != nil {
		ec.fail(res, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+entity.Name[E]()+"."+string(fileType)+`"`)
	if err := res.Stream(fileType.ContentType(), file); err != nil {
		ec.log.Warn("streaming export", zap.Error(err))
	}
}
