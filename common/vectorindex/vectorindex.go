// Package vectorindex implements the Vector Index (C1): one Qdrant
// collection per course, upserts keyed deterministically by content_id so
// repeated writes overwrite the same point, and course-scoped nearest
// neighbor search.
package vectorindex

import (
	"context"
	"fmt"
	"hash/fnv"

	"github.com/qdrant/go-client/qdrant"
)

const (
	// DefaultDimensions matches the platform's MiniLM-family embedding model.
	DefaultDimensions = 384
)

// Match is one scored hit from a Query call.
type Match struct {
	ContentID string
	Score     float32
	Text      string
	Metadata  map[string]string
}

type Index struct {
	client     *qdrant.Client
	embedder   Embedder
	prefix     string
	dimensions int
}

func collectionName(prefix string, courseID int64) string {
	return fmt.Sprintf("%s%d", prefix, courseID)
}

// contentPointID derives a deterministic Qdrant point ID from a content_id
// string via FNV-1a,.1 ("upsert computes the point ID
// deterministically from content_id... so repeated upserts of the same
// content_id overwrite the same point").
func contentPointID(contentID string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(contentID))
	return h.Sum64()
}

func New(host string, port int, embedder Embedder, collectionPrefix string, dimensions int) (*Index, error) {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	client, err := qdrant.NewClient(&qdrant.Config{Host: host, Port: port})
	if err != nil {
		return nil, fmt.Errorf("vectorindex: create qdrant client: %w", err)
	}
	return &Index{
		client:     client,
		embedder:   embedder,
		prefix:     collectionPrefix,
		dimensions: dimensions,
	}, nil
}

// EnsureCollection lazily creates the course's collection on first write, a
// cosine-distance collection of the configured dimensionality.
func (idx *Index) EnsureCollection(ctx context.Context, courseID int64) error {
	name := collectionName(idx.prefix, courseID)

	exists, err := idx.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("vectorindex: check collection exists: %w", err)
	}
	if exists {
		return nil
	}

	err = idx.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(idx.dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("vectorindex: create collection %s: %w", name, err)
	}
	return nil
}

// Upsert embeds text and writes (or overwrites) the point for contentID in
// course's collection, carrying text and metadata in the payload so Query
// results are self-contained.
func (idx *Index) Upsert(ctx context.Context, courseID int64, contentID, text string, metadata map[string]string) error {
	if err := idx.EnsureCollection(ctx, courseID); err != nil {
		return err
	}

	vector, err := idx.embedder.Embed(ctx, text)
	if err != nil {
		return err
	}

	payload := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		payload[k] = v
	}
	payload["text"] = text
	payload["content_id"] = contentID

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDNum(contentPointID(contentID)),
		Vectors: qdrant.NewVectorsDense(vector),
		Payload: qdrant.NewValueMap(payload),
	}

	_, err = idx.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collectionName(idx.prefix, courseID),
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("vectorindex: upsert %s: %w", contentID, err)
	}
	return nil
}

// Delete removes contentID's point from course's collection, a no-op if the
// collection or point does not exist.
func (idx *Index) Delete(ctx context.Context, courseID int64, contentID string) error {
	exists, err := idx.client.CollectionExists(ctx, collectionName(idx.prefix, courseID))
	if err != nil {
		return fmt.Errorf("vectorindex: check collection exists: %w", err)
	}
	if !exists {
		return nil
	}

	_, err = idx.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collectionName(idx.prefix, courseID),
		Points:         qdrant.NewPointsSelector(qdrant.NewIDNum(contentPointID(contentID))),
	})
	if err != nil {
		return fmt.Errorf("vectorindex: delete %s: %w", contentID, err)
	}
	return nil
}

// Query embeds text and returns the k nearest passages in course's
// collection. filter, if non-nil, restricts to payload fields matching
// exactly (e.g. {"document_id": "..."}).
func (idx *Index) Query(ctx context.Context, courseID int64, text string, k int, filter map[string]string) ([]Match, error) {
	if k <= 0 {
		k = 5
	}

	exists, err := idx.client.CollectionExists(ctx, collectionName(idx.prefix, courseID))
	if err != nil {
		return nil, fmt.Errorf("vectorindex: check collection exists: %w", err)
	}
	if !exists {
		return nil, nil
	}

	vector, err := idx.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	var queryFilter *qdrant.Filter
	if len(filter) > 0 {
		must := make([]*qdrant.Condition, 0, len(filter))
		for field, value := range filter {
			must = append(must, qdrant.NewMatch(field, value))
		}
		queryFilter = &qdrant.Filter{Must: must}
	}

	limit := uint64(k)
	hits, err := idx.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collectionName(idx.prefix, courseID),
		Query:          qdrant.NewQueryDense(vector),
		Limit:          &limit,
		Filter:         queryFilter,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("vectorindex: query: %w", err)
	}

	matches := make([]Match, 0, len(hits))
	for _, hit := range hits {
		metadata := make(map[string]string)
		var text, contentID string
		for field, value := range hit.Payload {
			switch field {
			case "text":
				text = value.GetStringValue()
			case "content_id":
				contentID = value.GetStringValue()
			default:
				metadata[field] = value.GetStringValue()
			}
		}
		matches = append(matches, Match{
			ContentID: contentID,
			Score:     hit.Score,
			Text:      text,
			Metadata:  metadata,
		})
	}
	return matches, nil
}

func (idx *Index) Close() error {
	return idx.client.Close()
}
