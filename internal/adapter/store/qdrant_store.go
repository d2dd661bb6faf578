package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"filmwhisper/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// QdrantStore is the semantic tier's vector index. Each point carries the
// normalized query it was indexed under, its media type, and the fully
// resolved result list as a JSON payload, so a proximity hit can be served
// without touching the metadata provider again.
type QdrantStore struct {
	client         *qdrant.Client
	collectionName string
	dim            uint64
}

func NewQdrantStore(client *qdrant.Client, collectionName string, dim uint64) *QdrantStore {
	return &QdrantStore{
		client:         client,
		collectionName: collectionName,
		dim:            dim,
	}
}

func (s *QdrantStore) InitCollection(ctx context.Context) error {
	_, err := s.client.GetCollectionInfo(ctx, s.collectionName)
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.NotFound {
		return err
	}
	if err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.dim,
			Distance: qdrant.Distance_Cosine,
		}),
	}); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (s *QdrantStore) Search(ctx context.Context, vector []float32, threshold float32, mediaType entity.MediaType) ([]entity.Meta, float32, error) {
	res, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collectionName,
		Query:          qdrant.NewQuery(vector...),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatch("media_type", string(mediaType)),
			},
		},
		Limit:          qdrant.PtrOf(uint64(1)),
		WithPayload:    qdrant.NewWithPayload(true),
		ScoreThreshold: &threshold,
	})
	if err != nil {
		return nil, 0, err
	}
	if len(res) == 0 {
		return nil, 0, entity.ErrCacheMiss
	}

	hit := res[0]
	var metas []entity.Meta
	if err := json.Unmarshal([]byte(hit.Payload["metas"].GetStringValue()), &metas); err != nil {
		return nil, 0, fmt.Errorf("decode cached payload: %w", err)
	}
	return metas, hit.Score, nil
}

func (s *QdrantStore) Save(ctx context.Context, query string, mediaType entity.MediaType, metas []entity.Meta, vector []float32) error {
	blob, err := json.Marshal(metas)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	_, err = s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collectionName,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDUUID(uuid.NewString()),
				Vectors: qdrant.NewVectors(vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					"query":      query,
					"media_type": string(mediaType),
					"metas":      string(blob),
				}),
			},
		},
	})
	return err
}

// Reset drops and recreates the collection. Run on the maintenance
// schedule to bound drift as the catalog changes, never on the request path.
func (s *QdrantStore) Reset(ctx context.Context) error {
	if err := s.client.DeleteCollection(ctx, s.collectionName); err != nil {
		st, ok := status.FromError(err)
		if !ok || st.Code() != codes.NotFound {
			return fmt.Errorf("drop collection: %w", err)
		}
	}
	log.Printf("[QDRANT] Collection %s reset", s.collectionName)
	return s.InitCollection(ctx)
}

// Info returns the number of indexed queries, for the health endpoint.
func (s *QdrantStore) Info(ctx context.Context) (uint64, error) {
	info, err := s.client.GetCollectionInfo(ctx, s.collectionName)
	if err != nil {
		return 0, err
	}
	return info.GetPointsCount(), nil
}
