package dynamo

import (
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/facetdata/fddb-ingest/errors"
	"github.com/facetdata/fddb-ingest/fddb"
)

func recordSequence(n int) []fddb.Record {
	records := make([]fddb.Record, n)
	for i := range records {
		records[i] = testRecord(fmt.Sprintf("2002/08/11/big/img_%03d", i), fddb.Train)
	}
	return records
}

func captureSleeps(tbl *Table) *[]time.Duration {
	sleeps := &[]time.Duration{}
	tbl.sleepFn = func(d time.Duration) {
		*sleeps = append(*sleeps, d)
	}
	return sleeps
}

func TestWriteBatchChunks(t *testing.T) {
	tbl, client := newMockedTable(t)
	tbl.bound = true

	var sizes []int
	client.On("BatchWriteItem", mock.MatchedBy(func(input *dynamodb.BatchWriteItemInput) bool {
		writes, ok := input.RequestItems[testTableName]
		if !ok {
			return false
		}
		sizes = append(sizes, len(writes))
		return writes[0].PutRequest != nil
	})).Return(&dynamodb.BatchWriteItemOutput{}, nil)

	assert.NoError(t, tbl.WriteBatch(recordSequence(60)))
	assert.Equal(t, []int{25, 25, 10}, sizes)
}

func TestWriteBatchRetriesUnprocessed(t *testing.T) {
	tbl, client := newMockedTable(t)
	tbl.bound = true
	sleeps := captureSleeps(tbl)

	records := recordSequence(3)
	leftover := map[string][]*dynamodb.WriteRequest{
		testTableName: {
			{PutRequest: &dynamodb.PutRequest{Item: marshalRecord(t, records[2])}},
		},
	}

	client.On("BatchWriteItem", mock.Anything).
		Return(&dynamodb.BatchWriteItemOutput{UnprocessedItems: leftover}, nil).Once()
	client.On("BatchWriteItem", mock.MatchedBy(func(input *dynamodb.BatchWriteItemInput) bool {
		// The retry resubmits exactly the unprocessed writes.
		return len(input.RequestItems[testTableName]) == 1
	})).Return(&dynamodb.BatchWriteItemOutput{}, nil).Once()

	assert.NoError(t, tbl.WriteBatch(records))
	assert.Equal(t, []time.Duration{1 * time.Second}, *sleeps)
	client.AssertExpectations(t)
}

func TestWriteBatchExhaustsRetries(t *testing.T) {
	tbl, client := newMockedTable(t)
	tbl.bound = true
	sleeps := captureSleeps(tbl)

	records := recordSequence(2)
	leftover := map[string][]*dynamodb.WriteRequest{
		testTableName: {
			{PutRequest: &dynamodb.PutRequest{Item: marshalRecord(t, records[0])}},
		},
	}
	client.On("BatchWriteItem", mock.Anything).
		Return(&dynamodb.BatchWriteItemOutput{UnprocessedItems: leftover}, nil)

	err := tbl.WriteBatch(records)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unprocessed")
	client.AssertNumberOfCalls(t, "BatchWriteItem", maxBatchTries)
	assert.Equal(t, []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
	}, *sleeps)
}

func TestWriteBatchFatalError(t *testing.T) {
	tbl, client := newMockedTable(t)
	tbl.bound = true
	client.On("BatchWriteItem", mock.Anything).
		Return(nil, fmt.Errorf("wild connection reset"))

	err := tbl.WriteBatch(recordSequence(1))
	assert.Error(t, err)
	client.AssertNumberOfCalls(t, "BatchWriteItem", 1)
}

func TestGetBatchSinglePass(t *testing.T) {
	tbl, client := newMockedTable(t)
	tbl.bound = true
	sleeps := captureSleeps(tbl)

	records := recordSequence(3)
	keys := make([]Key, len(records))
	items := make([]map[string]*dynamodb.AttributeValue, len(records))
	for i, rec := range records {
		keys[i] = Key{ImageName: rec.ImageName, TrainSet: rec.TrainSet}
		items[i] = marshalRecord(t, rec)
	}

	client.On("BatchGetItem", mock.MatchedBy(func(input *dynamodb.BatchGetItemInput) bool {
		return len(input.RequestItems[testTableName].Keys) == len(keys)
	})).Return(&dynamodb.BatchGetItemOutput{
		Responses: map[string][]map[string]*dynamodb.AttributeValue{
			testTableName: items,
		},
	}, nil)

	res, err := tbl.GetBatch(keys)
	assert.NoError(t, err)
	assert.True(t, res.Complete())
	assert.Equal(t, records, res.Items)
	assert.Empty(t, *sleeps)
	client.AssertNumberOfCalls(t, "BatchGetItem", 1)
}

func TestGetBatchBackoffExhaustion(t *testing.T) {
	tbl, client := newMockedTable(t)
	tbl.bound = true
	sleeps := captureSleeps(tbl)

	rec := testRecord("2002/08/11/big/img_591", fddb.Train)
	stuck := Key{ImageName: "2002/08/26/big/img_265", TrainSet: fddb.Train}

	// Every attempt resolves one item and hands the other key back.
	client.On("BatchGetItem", mock.Anything).Return(&dynamodb.BatchGetItemOutput{
		Responses: map[string][]map[string]*dynamodb.AttributeValue{
			testTableName: {marshalRecord(t, rec)},
		},
		UnprocessedKeys: map[string]*dynamodb.KeysAndAttributes{
			testTableName: {Keys: []map[string]*dynamodb.AttributeValue{stuck.attributeValues()}},
		},
	}, nil)

	res, err := tbl.GetBatch([]Key{
		{ImageName: rec.ImageName, TrainSet: fddb.Train},
		stuck,
	})
	assert.NoError(t, err)
	assert.False(t, res.Complete())
	assert.Equal(t, 1, res.Unresolved)
	assert.Len(t, res.Items, maxBatchTries)
	client.AssertNumberOfCalls(t, "BatchGetItem", maxBatchTries)
	assert.Equal(t, []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
	}, *sleeps)
}

func TestGetBatchTooManyKeys(t *testing.T) {
	tbl, client := newMockedTable(t)
	tbl.bound = true

	keys := make([]Key, MaxGetSize+1)
	for i := range keys {
		keys[i] = Key{ImageName: fmt.Sprintf("img_%03d", i), TrainSet: fddb.Train}
	}

	_, err := tbl.GetBatch(keys)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTooManyKeys))
	client.AssertNotCalled(t, "BatchGetItem", mock.Anything)
}

func TestGetBatchEmptyKeys(t *testing.T) {
	tbl, client := newMockedTable(t)
	tbl.bound = true

	res, err := tbl.GetBatch(nil)
	assert.NoError(t, err)
	assert.True(t, res.Complete())
	assert.Empty(t, res.Items)
	client.AssertNotCalled(t, "BatchGetItem", mock.Anything)
}
