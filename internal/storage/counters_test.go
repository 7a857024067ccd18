package storage

import (
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestMongoNextSeqUpdate(t *testing.T) {
	filter, update, opts := nextSeqUpdate("Cats")

	assert.Equal(t, bson.M{"_id": "Cats"}, filter)
	assert.Equal(t, bson.M{"$inc": bson.M{"seq": int64(1)}}, update)
	require.NotNil(t, opts.Upsert)
	assert.True(t, *opts.Upsert)
	require.NotNil(t, opts.ReturnDocument)
	assert.Equal(t, options.After, *opts.ReturnDocument)
}

func TestDynamoNextSeqInput(t *testing.T) {
	in := nextSeqInput("stars", "Cats")

	assert.Equal(t, "stars", aws.StringValue(in.TableName))
	assert.Equal(t, "Cats", aws.StringValue(in.Key["group_name"].S))
	assert.Equal(t, "0", aws.StringValue(in.Key["seq"].N))
	assert.Equal(t, "ADD next_seq :one", aws.StringValue(in.UpdateExpression))
	assert.Equal(t, "1", aws.StringValue(in.ExpressionAttributeValues[":one"].N))
	assert.Equal(t, dynamodb.ReturnValueUpdatedNew, aws.StringValue(in.ReturnValues))
	require.NoError(t, in.Validate())
}

func TestDynamoGroupQuerySkipsCounter(t *testing.T) {
	in := groupQueryInput("stars", "Cats")

	assert.Equal(t, "group_name = :g AND seq > :counter", aws.StringValue(in.KeyConditionExpression))
	assert.Equal(t, "Cats", aws.StringValue(in.ExpressionAttributeValues[":g"].S))
	assert.Equal(t, "0", aws.StringValue(in.ExpressionAttributeValues[":counter"].N))
	assert.True(t, aws.BoolValue(in.ScanIndexForward))
	require.NoError(t, in.Validate())
}
