package mongodb

import (
	"context"
	"errors"
	"fmt"

	"emr-metadata-dashboard/internal/dashboard/domain/model"
	"emr-metadata-dashboard/internal/dashboard/domain/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type ProjectRepository struct {
	collection *mongo.Collection
}

var _ repository.ProjectRepository = (*ProjectRepository)(nil)

func NewProjectRepository(db *mongo.Database) *ProjectRepository {
	return &ProjectRepository{collection: db.Collection(projectsCollection)}
}

func (r *ProjectRepository) Create(ctx context.Context, p *model.Project) error {
	if _, err := r.collection.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) Get(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

func (r *ProjectRepository) ListByOrganization(ctx context.Context, orgID string, opts repository.ListOptions) ([]*model.Project, error) {
	return r.find(ctx, bson.M{"organization_id": orgID}, opts)
}

// ListActive returns every active project across organizations.
func (r *ProjectRepository) ListActive(ctx context.Context) ([]*model.Project, error) {
	return r.find(ctx, bson.M{"status": model.ProjectStatusActive}, repository.ListOptions{})
}

func (r *ProjectRepository) find(ctx context.Context, filter bson.M, opts repository.ListOptions) ([]*model.Project, error) {
	cursor, err := r.collection.Find(ctx, filter, findOptions(opts.Limit, opts.Offset).SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	projects := make([]*model.Project, 0)
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}
	return projects, nil
}

func (r *ProjectRepository) Update(ctx context.Context, p *model.Project) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if res.MatchedCount == 0 {
		return model.ErrProjectNotFound
	}
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if res.DeletedCount == 0 {
		return model.ErrProjectNotFound
	}
	return nil
}
