package search

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Index wraps the bleve index holding product documents. Upserts are
// idempotent: indexing an id twice leaves exactly one document.
type Index struct {
	idx bleve.Index
}

// OpenIndex opens the index at path, creating it with the product mapping
// when it does not exist yet.
func OpenIndex(path string) (*Index, error) {
	idx, err := bleve.Open(path)
	if err == nil {
		return &Index{idx: idx}, nil
	}
	if err != bleve.ErrorIndexPathDoesNotExist {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}

	idx, err = bleve.New(path, buildMapping())
	if err != nil {
		return nil, fmt.Errorf("create index %s: %w", path, err)
	}
	return &Index{idx: idx}, nil
}

// NewMemoryIndex creates a throwaway in-memory index for tests and local
// runs without a data directory.
func NewMemoryIndex() (*Index, error) {
	idx, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, err
	}
	return &Index{idx: idx}, nil
}

// buildMapping declares the product schema: keyword fields for exact
// filters, analyzed text for the descriptive fields, numeric weight and
// date fields for the timestamps.
func buildMapping() mapping.IndexMapping {
	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = keyword.Name

	textField := bleve.NewTextFieldMapping()
	numericField := bleve.NewNumericFieldMapping()
	dateField := bleve.NewDateTimeFieldMapping()

	product := bleve.NewDocumentMapping()
	product.AddFieldMappingsAt("id", keywordField)
	product.AddFieldMappingsAt("gtin", keywordField)
	product.AddFieldMappingsAt("name", textField)
	product.AddFieldMappingsAt("description", textField)
	product.AddFieldMappingsAt("brand", textField)
	product.AddFieldMappingsAt("manufacturer", textField)
	product.AddFieldMappingsAt("netWeight", numericField)
	product.AddFieldMappingsAt("netWeightUnit", keywordField)
	product.AddFieldMappingsAt("status", keywordField)
	product.AddFieldMappingsAt("createdById", keywordField)
	product.AddFieldMappingsAt("approvedById", keywordField)
	product.AddFieldMappingsAt("createdAt", dateField)
	product.AddFieldMappingsAt("updatedAt", dateField)
	product.AddFieldMappingsAt("approvedAt", dateField)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = product
	return m
}

// Upsert indexes the document under its id, overwriting any previous
// version.
func (x *Index) Upsert(doc *Document) error {
	if doc.ID == "" {
		return ErrMissingID
	}
	return x.idx.Index(doc.ID, doc)
}

// Remove deletes the document with the given id. Removing an absent id is
// a no-op, not an error.
func (x *Index) Remove(id string) error {
	return x.idx.Delete(id)
}

// Count returns the number of indexed documents.
func (x *Index) Count() (uint64, error) {
	return x.idx.DocCount()
}

// DeleteAll removes every document, batch by batch. Used by the forced
// resync before a rebuild.
func (x *Index) DeleteAll() error {
	for {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), 1000, 0, false)
		result, err := x.idx.Search(req)
		if err != nil {
			return err
		}
		if len(result.Hits) == 0 {
			return nil
		}

		batch := x.idx.NewBatch()
		for _, hit := range result.Hits {
			batch.Delete(hit.ID)
		}
		if err := x.idx.Batch(batch); err != nil {
			return err
		}
	}
}

// Hit is one search result with its stored fields.
type Hit struct {
	ID     string         `json:"id"`
	Score  float64        `json:"score"`
	Fields map[string]any `json:"fields"`
}

// Search runs a query-string search over the product fields; an empty
// query matches everything.
func (x *Index) Search(query string, size, from int) ([]Hit, uint64, error) {
	if size <= 0 {
		size = 25
	}

	var req *bleve.SearchRequest
	if query == "" {
		req = bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), size, from, false)
	} else {
		q := bleve.NewQueryStringQuery(query)
		req = bleve.NewSearchRequestOptions(q, size, from, false)
	}
	req.Fields = []string{"*"}

	result, err := x.idx.Search(req)
	if err != nil {
		return nil, 0, err
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, h := range result.Hits {
		hits = append(hits, Hit{ID: h.ID, Score: h.Score, Fields: h.Fields})
	}
	return hits, result.Total, nil
}

// Close releases the underlying index.
func (x *Index) Close() error {
	return x.idx.Close()
}
