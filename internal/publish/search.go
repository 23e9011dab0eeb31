// Package publish fans a stored application out to systems that care about
// it after the submitter has its reply. Nothing here affects the reply.
package publish

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"
	jsoniter "github.com/json-iterator/go"

	"admission-intake/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SearchIndexer writes each application to an Elasticsearch index, keyed by
// its application id so a replay overwrites instead of duplicating.
type SearchIndexer struct {
	client *elasticsearch.Client
	index  string
}

func NewSearchIndexer(client *elasticsearch.Client, index string) *SearchIndexer {
	return &SearchIndexer{client: client, index: index}
}

func (s *SearchIndexer) Name() string { return "search-index" }

func (s *SearchIndexer) Publish(ctx context.Context, app *models.StoredApplication) error {
	body, err := json.Marshal(app)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(body),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(app.ApplicationID),
	)
	if err != nil {
		return fmt.Errorf("index %s: %w", app.ApplicationID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("index %s: %s: %s", app.ApplicationID, res.Status(), bytes.TrimSpace(msg))
	}
	return nil
}
