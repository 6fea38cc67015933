package repository

import (
	"testing"
	"time"

	"agri-market/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func stageKeys(p mongo.Pipeline) []string {
	keys := make([]string, len(p))
	for i, stage := range p {
		keys[i] = stage[0].Key
	}
	return keys
}

func extJSON(t *testing.T, v interface{}) string {
	t.Helper()
	out, err := bson.MarshalExtJSON(bson.M{"v": v}, false, false)
	require.NoError(t, err)
	return string(out)
}

func TestSalesSincePipeline(t *testing.T) {
	since := time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC)
	p := salesSincePipeline(since)

	require.Equal(t, []string{"$match", "$group", "$sort"}, stageKeys(p))

	match := p[0][0].Value.(bson.D)
	assert.Equal(t, models.OrderStatusDelivered, match[0].Value)
	assert.Equal(t, since, match[1].Value.(bson.D)[0].Value)

	js := extJSON(t, p)
	assert.Contains(t, js, `"format":"%Y-%m-%d"`)
	assert.Contains(t, js, `"timezone":"UTC"`)
	assert.Contains(t, js, `"$sort":{"_id":1}`)
}

func TestFarmerQueuePipeline(t *testing.T) {
	farmer := primitive.NewObjectID()
	p := farmerQueuePipeline(farmer)

	require.Equal(t,
		[]string{"$match", "$unwind", "$lookup", "$match", "$group", "$lookup", "$project", "$sort"},
		stageKeys(p))

	js := extJSON(t, p[0])
	assert.Contains(t, js, `"$ne":"Cancelled"`)
	assert.Contains(t, js, `"$nor":[{"status":"Delivered","paymentStatus":"Completed"}]`)

	assert.Equal(t, farmer, p[3][0].Value.(bson.D)[0].Value)
	assert.Contains(t, extJSON(t, p[6]), `"userDetails.password":0`)
	assert.Contains(t, extJSON(t, p[7]), `"createdAt":-1`)
}

func TestDeliveredItemsPipelineCountsDoneOrders(t *testing.T) {
	farmer := primitive.NewObjectID()
	p := deliveredItemsPipeline(farmer)

	require.Equal(t, []string{"$match", "$unwind", "$lookup", "$unwind", "$match", "$count"}, stageKeys(p))
	js := extJSON(t, p[0])
	assert.Contains(t, js, `"status":"Delivered"`)
	assert.Contains(t, js, `"paymentStatus":"Completed"`)
	assert.Equal(t, "successfullyDelivered", p[5][0].Value)
}

func TestDeliveredRevenuePipeline(t *testing.T) {
	p := deliveredRevenuePipeline()
	require.Equal(t, []string{"$match", "$group"}, stageKeys(p))
	assert.Contains(t, extJSON(t, p), `"totalRevenue":{"$sum":"$totalAmount"}`)
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(mongo.ErrNoDocuments), ErrNotFound)

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{
		Code:    11000,
		Message: `E11000 duplicate key error collection: agrimarket.users index: email_1 dup key: { email: "a@b.c" }`,
	}}}
	var dupErr *DuplicateKeyError
	require.ErrorAs(t, translate(dup, userUniqueFields...), &dupErr)
	assert.Equal(t, "email", dupErr.Field)
}
