package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/pagewise/pagewise-server/internal/retriever"
)

// buildIndexMapping creates the Bleve index mapping for book documents.
//
// Title and genres carry most of the relevance: recommendation queries are
// lists of genre names, search queries are mostly titles or topics.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	// --- Text fields (full-text searchable) ---

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	titleFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(fieldTitle, titleFieldMapping)

	// Genre names with stemming so "Mysteries" matches "Mystery".
	genresFieldMapping := bleve.NewTextFieldMapping()
	genresFieldMapping.Analyzer = en.AnalyzerName
	genresFieldMapping.Store = true
	docMapping.AddFieldMappingsAt(retriever.MetaGenres, genresFieldMapping)

	detailsFieldMapping := bleve.NewTextFieldMapping()
	detailsFieldMapping.Analyzer = en.AnalyzerName
	detailsFieldMapping.Store = true
	docMapping.AddFieldMappingsAt(retriever.MetaDetails, detailsFieldMapping)

	// Author - simple analyzer, names should not be stemmed.
	authorFieldMapping := bleve.NewTextFieldMapping()
	authorFieldMapping.Analyzer = simple.Name
	authorFieldMapping.Store = true
	docMapping.AddFieldMappingsAt(retriever.MetaAuthor, authorFieldMapping)

	// --- Keyword fields (exact match) ---

	genreSlugsFieldMapping := bleve.NewTextFieldMapping()
	genreSlugsFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt(fieldGenreSlugs, genreSlugsFieldMapping)

	// Stored only.
	coverFieldMapping := bleve.NewTextFieldMapping()
	coverFieldMapping.Analyzer = keyword.Name
	coverFieldMapping.Store = true
	coverFieldMapping.Index = false
	docMapping.AddFieldMappingsAt(retriever.MetaCoverImage, coverFieldMapping)

	// --- Numeric and boolean fields ---

	pagesFieldMapping := bleve.NewNumericFieldMapping()
	pagesFieldMapping.Store = true
	docMapping.AddFieldMappingsAt(retriever.MetaNumPages, pagesFieldMapping)

	availableFieldMapping := bleve.NewBooleanFieldMapping()
	availableFieldMapping.Store = true
	docMapping.AddFieldMappingsAt(retriever.MetaAvailable, availableFieldMapping)

	ingestedFieldMapping := bleve.NewNumericFieldMapping()
	ingestedFieldMapping.Store = true
	docMapping.AddFieldMappingsAt(fieldIngestedAt, ingestedFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
