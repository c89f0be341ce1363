package search

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/storage"
)

// BleveEngine indexes the reading history kept in the store.
type BleveEngine struct {
	store *storage.Store
	idx   bleve.Index
}

// NewBleveEngine creates or opens a Bleve index at indexPath and indexes the
// current history.
func NewBleveEngine(store *storage.Store, indexPath string) (*BleveEngine, error) {
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("creating index: %w", err)
		}
	}

	be := &BleveEngine{store: store, idx: idx}
	if err := be.reindexAll(); err != nil {
		_ = idx.Close()
		return nil, err
	}
	return be, nil
}

func (b *BleveEngine) Close() error {
	return b.idx.Close()
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true
	title.IncludeTermVectors = true

	desc := bleve.NewTextFieldMapping()
	desc.Analyzer = standard.Name
	desc.Store = true

	content := bleve.NewTextFieldMapping()
	content.Analyzer = standard.Name
	content.Store = false

	source := bleve.NewTextFieldMapping()
	source.Analyzer = standard.Name
	source.Store = true

	author := bleve.NewTextFieldMapping()
	author.Analyzer = standard.Name
	author.Store = true

	// url is matched exactly, never tokenized
	url := bleve.NewKeywordFieldMapping()
	url.Store = true

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("description", desc)
	dm.AddFieldMappingsAt("content", content)
	dm.AddFieldMappingsAt("source", source)
	dm.AddFieldMappingsAt("author", author)
	dm.AddFieldMappingsAt("url", url)

	im.DefaultMapping = dm
	return im
}

func articleDoc(a *storage.Article) map[string]any {
	return map[string]any{
		"title":       a.Title,
		"description": a.Description,
		"content":     a.Content,
		"source":      a.Source,
		"author":      a.Author,
		"url":         a.URL,
	}
}

func docID(url string) string { return "article:" + storage.ArticleKey(url) }

func (b *BleveEngine) reindexAll() error {
	history, err := b.store.GetHistory(0)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	batch := b.idx.NewBatch()
	for _, a := range history {
		if err := batch.Index(docID(a.URL), articleDoc(a)); err != nil {
			return fmt.Errorf("indexing %s: %w", a.URL, err)
		}
	}
	return b.idx.Batch(batch)
}

func (b *BleveEngine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	// an OR of per-term matches across key fields with boosts
	var qs []bleveQuery.Query
	for _, tok := range tokenize(query) {
		qs = append(qs,
			fieldQuery(bleve.NewMatchQuery(tok), "title", 4.0),
			fieldQuery(bleve.NewPrefixQuery(tok), "title", 3.5),
			fieldQuery(bleve.NewMatchQuery(tok), "description", 2.0),
			fieldQuery(bleve.NewPrefixQuery(tok), "description", 1.8),
			fieldQuery(bleve.NewMatchQuery(tok), "source", 1.5),
			fieldQuery(bleve.NewMatchQuery(tok), "author", 1.5),
			fieldQuery(bleve.NewMatchQuery(tok), "content", 1.0),
			fieldQuery(bleve.NewPrefixQuery(tok), "content", 0.8),
		)
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	srch := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(qs...), limit, 0, false)
	srch.Fields = []string{"title", "description", "source", "author", "url"}
	res, err := b.idx.Search(srch)
	if err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		url, _ := h.Fields["url"].(string)
		if url == "" {
			continue
		}
		a, err := b.store.GetArticle(url)
		if errors.Is(err, storage.ErrNotFound) {
			// forgotten while the index was closed
			debuglog.Debugf("dropping stale index entry %s", url)
			if derr := b.idx.Delete(h.ID); derr != nil {
				debuglog.Warnf("removing stale index entry %s: %v", url, derr)
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", url, err)
		}
		out = append(out, &Result{Article: a, Score: h.Score})
	}
	return out, nil
}

type boostable interface {
	bleveQuery.Query
	SetField(string)
	SetBoost(float64)
}

func fieldQuery(q boostable, field string, boost float64) bleveQuery.Query {
	q.SetField(field)
	q.SetBoost(boost)
	return q
}

// OnArticlesSaved indexes newly read articles.
func (b *BleveEngine) OnArticlesSaved(articles []*storage.Article) {
	batch := b.idx.NewBatch()
	for _, a := range articles {
		if a == nil || a.URL == "" {
			continue
		}
		_ = batch.Index(docID(a.URL), articleDoc(a))
	}
	if err := b.idx.Batch(batch); err != nil {
		debuglog.Warnf("indexing history: %v", err)
	}
}

func (b *BleveEngine) OnArticleDeleted(url string) {
	if err := b.idx.Delete(docID(url)); err != nil {
		debuglog.Warnf("removing %s from index: %v", url, err)
	}
}

// OnHistoryCleared removes every document in batches.
func (b *BleveEngine) OnHistoryCleared() {
	const size = 1000
	for {
		req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), size, 0, false)
		res, err := b.idx.Search(req)
		if err != nil || res == nil || len(res.Hits) == 0 {
			return
		}
		batch := b.idx.NewBatch()
		for _, h := range res.Hits {
			batch.Delete(h.ID)
		}
		if err := b.idx.Batch(batch); err != nil {
			debuglog.Warnf("clearing index: %v", err)
			return
		}
	}
}

// DocCount reports total documents in the index.
func (b *BleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	return int(n), err
}

// tokenize lowercases text and splits it into letter/number runs, skipping
// single characters.
func tokenize(text string) []string {
	var terms []string
	current := strings.Builder{}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else if current.Len() > 0 {
			if term := current.String(); len(term) > 1 {
				terms = append(terms, term)
			}
			current.Reset()
		}
	}

	if current.Len() > 1 {
		terms = append(terms, current.String())
	}

	return terms
}
