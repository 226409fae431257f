package mongodb

import (
	"encoding/json"
	"testing"
	"time"

	"emr-metadata-dashboard/internal/dashboard/domain/model"
	"emr-metadata-dashboard/internal/dashboard/domain/repository"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMetadataDocument_KeepsContentVerbatim(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := &model.Metadata{
		ID:           "m1",
		ProjectID:    "p1",
		MetadataType: model.MetadataTypeReport,
		Content:      json.RawMessage(`{"z":1,"a":{"OCL":"Found"}}`),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	back := toDocument(m).toModel()
	assert.Equal(t, m, back)
	assert.Equal(t, `{"z":1,"a":{"OCL":"Found"}}`, string(back.Content))
}

func TestMetadataFilter(t *testing.T) {
	assert.Equal(t, bson.M{"project_id": "p1"}, metadataFilter("p1", repository.MetadataFilter{}))
	assert.Equal(t, bson.M{"project_id": "p1", "metadata_type": "report"},
		metadataFilter("p1", repository.MetadataFilter{MetadataType: "report"}))
}

func TestFindOptions(t *testing.T) {
	opts := findOptions(10, 20)
	assert.Equal(t, int64(10), *opts.Limit)
	assert.Equal(t, int64(20), *opts.Skip)

	opts = findOptions(0, 0)
	assert.Nil(t, opts.Limit)
	assert.Nil(t, opts.Skip)
}
