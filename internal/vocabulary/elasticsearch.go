package vocabulary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/tidwall/gjson"

	apperrors "intent-engine/internal/common/errors"
)

// ElasticsearchLoader collects the distinct values of three keyword fields with
// one terms aggregation per list.
type ElasticsearchLoader struct {
	es            *elasticsearch.Client
	index         string
	brandsField   string
	branchesField string
	buyersField   string
	maxTerms      int
	now           func() time.Time
}

func NewElasticsearchLoader(es *elasticsearch.Client, index, brandsField, branchesField, buyersField string, maxTerms int) *ElasticsearchLoader {
	if maxTerms <= 0 {
		maxTerms = 5000
	}
	return &ElasticsearchLoader{
		es:            es,
		index:         index,
		brandsField:   brandsField,
		branchesField: branchesField,
		buyersField:   buyersField,
		maxTerms:      maxTerms,
		now:           time.Now,
	}
}

func (l *ElasticsearchLoader) body() ([]byte, error) {
	aggs := map[string]interface{}{}
	for name, field := range map[string]string{
		"brands":   l.brandsField,
		"branches": l.branchesField,
		"buyers":   l.buyersField,
	} {
		if field == "" {
			continue
		}
		aggs[name] = map[string]interface{}{
			"terms": map[string]interface{}{"field": field, "size": l.maxTerms},
		}
	}
	return json.Marshal(map[string]interface{}{
		"size": 0,
		"aggs": aggs,
	})
}

func (l *ElasticsearchLoader) Load(ctx context.Context) (*Snapshot, error) {
	body, err := l.body()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrVocabularyLoadFailed, err)
	}

	req := esapi.SearchRequest{
		Index: []string{l.index},
		Body:  strings.NewReader(string(body)),
	}
	res, err := req.Do(ctx, l.es)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrVocabularyLoadFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: search failed: %s", apperrors.ErrVocabularyLoadFailed, res.String())
	}
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrVocabularyLoadFailed, err)
	}

	doc := gjson.ParseBytes(raw)
	return &Snapshot{
		Brands:   clean(bucketKeys(doc, "brands"), l.maxTerms),
		Branches: clean(bucketKeys(doc, "branches"), l.maxTerms),
		Buyers:   clean(bucketKeys(doc, "buyers"), l.maxTerms),
		Source:   "elasticsearch",
		LoadedAt: l.now(),
	}, nil
}

func bucketKeys(doc gjson.Result, agg string) []string {
	var out []string
	for _, k := range doc.Get("aggregations." + agg + ".buckets.#.key").Array() {
		out = append(out, k.String())
	}
	return out
}
