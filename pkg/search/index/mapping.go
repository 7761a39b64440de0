package index

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping defines the field mappings shared by the per-journal
// indices and the catalog. Tags and identifiers use the keyword analyzer
// so they match as whole tokens; title, content and name go through the
// default analyzer for relevance scoring.
func buildIndexMapping() mapping.IndexMapping {
	text := bleve.NewTextFieldMapping()

	kw := bleve.NewTextFieldMapping()
	kw.Analyzer = keyword.Name

	stamp := bleve.NewDateTimeFieldMapping()

	version := bleve.NewNumericFieldMapping()

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("title", text)
	doc.AddFieldMappingsAt("content", text)
	doc.AddFieldMappingsAt("name", text)
	doc.AddFieldMappingsAt("tag", kw)
	doc.AddFieldMappingsAt("journal_id", kw)
	doc.AddFieldMappingsAt("owner_id", kw)
	doc.AddFieldMappingsAt("index_id", kw)
	doc.AddFieldMappingsAt("version", version)
	doc.AddFieldMappingsAt("created_at", stamp)
	doc.AddFieldMappingsAt("updated_at", stamp)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	return im
}
