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

// OrganizationRepository stores organizations in the master database.
type OrganizationRepository struct {
	collection *mongo.Collection
}

var _ repository.OrganizationRepository = (*OrganizationRepository)(nil)

func NewOrganizationRepository(db *mongo.Database) *OrganizationRepository {
	return &OrganizationRepository{collection: db.Collection(organizationsCollection)}
}

func (r *OrganizationRepository) Create(ctx context.Context, org *model.Organization) error {
	if _, err := r.collection.InsertOne(ctx, org); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return model.ErrOrganizationExists
		}
		return fmt.Errorf("failed to insert organization: %w", err)
	}
	return nil
}

func (r *OrganizationRepository) Get(ctx context.Context, id string) (*model.Organization, error) {
	var org model.Organization
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&org)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, model.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}

func (r *OrganizationRepository) List(ctx context.Context, opts repository.ListOptions) ([]*model.Organization, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, findOptions(opts.Limit, opts.Offset).SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	orgs := make([]*model.Organization, 0)
	if err := cursor.All(ctx, &orgs); err != nil {
		return nil, fmt.Errorf("failed to decode organizations: %w", err)
	}
	return orgs, nil
}
