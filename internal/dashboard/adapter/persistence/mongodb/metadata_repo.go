package mongodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"emr-metadata-dashboard/internal/dashboard/domain/model"
	"emr-metadata-dashboard/internal/dashboard/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// metadataDocument keeps content as the raw JSON text so that reports
// round-trip byte for byte, including key order.
type metadataDocument struct {
	ID           string    `bson:"_id"`
	ProjectID    string    `bson:"project_id"`
	MetadataType string    `bson:"metadata_type"`
	Content      string    `bson:"content"`
	CreatedBy    string    `bson:"created_by,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toDocument(m *model.Metadata) metadataDocument {
	return metadataDocument{
		ID:           m.ID,
		ProjectID:    m.ProjectID,
		MetadataType: m.MetadataType,
		Content:      string(m.Content),
		CreatedBy:    m.CreatedBy,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func (d metadataDocument) toModel() *model.Metadata {
	return &model.Metadata{
		ID:           d.ID,
		ProjectID:    d.ProjectID,
		MetadataType: d.MetadataType,
		Content:      json.RawMessage(d.Content),
		CreatedBy:    d.CreatedBy,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

func metadataFilter(projectID string, f repository.MetadataFilter) bson.M {
	filter := bson.M{"project_id": projectID}
	if f.MetadataType != "" {
		filter["metadata_type"] = f.MetadataType
	}
	return filter
}

type MetadataRepository struct {
	collection *mongo.Collection
}

var _ repository.MetadataRepository = (*MetadataRepository)(nil)

func NewMetadataRepository(db *mongo.Database) *MetadataRepository {
	return &MetadataRepository{collection: db.Collection(metadataCollection)}
}

func (r *MetadataRepository) Create(ctx context.Context, m *model.Metadata) error {
	if _, err := r.collection.InsertOne(ctx, toDocument(m)); err != nil {
		return fmt.Errorf("failed to insert metadata: %w", err)
	}
	return nil
}

func (r *MetadataRepository) Get(ctx context.Context, projectID, id string) (*model.Metadata, error) {
	return r.findOne(ctx, bson.M{"_id": id, "project_id": projectID})
}

func (r *MetadataRepository) Latest(ctx context.Context, projectID, metadataType string) (*model.Metadata, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	return r.findOne(ctx, metadataFilter(projectID, repository.MetadataFilter{MetadataType: metadataType}), opts)
}

func (r *MetadataRepository) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*model.Metadata, error) {
	var doc metadataDocument
	if err := r.collection.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrMetadataNotFound
		}
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MetadataRepository) List(ctx context.Context, projectID string, filter repository.MetadataFilter, opts repository.ListOptions) ([]*model.Metadata, error) {
	cursor, err := r.collection.Find(ctx, metadataFilter(projectID, filter),
		findOptions(opts.Limit, opts.Offset).SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}
	var docs []metadataDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	out := make([]*model.Metadata, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (r *MetadataRepository) Update(ctx context.Context, m *model.Metadata) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": m.ID, "project_id": m.ProjectID}, toDocument(m))
	if err != nil {
		return fmt.Errorf("failed to update metadata: %w", err)
	}
	if res.MatchedCount == 0 {
		return model.ErrMetadataNotFound
	}
	return nil
}

func (r *MetadataRepository) DeleteByProject(ctx context.Context, projectID string) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{"project_id": projectID}); err != nil {
		return fmt.Errorf("failed to delete metadata of project %s: %w", projectID, err)
	}
	return nil
}
