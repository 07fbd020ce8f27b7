package dynamo

import (
	"fmt"

	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"

	"github.com/facetdata/fddb-ingest/errors"
	"github.com/facetdata/fddb-ingest/fddb"
)

// WriteBatch stores every record, chunked into BatchWriteItem calls of at
// most 25 items. Items the store hands back unprocessed are resubmitted on
// the same bounded backoff schedule as reads. Chunks flushed before a
// failure are not rolled back: the operation is at-least-once, not atomic.
func (t *Table) WriteBatch(records []fddb.Record) error {
	if err := t.requireBound(); err != nil {
		return err
	}

	for start := 0; start < len(records); start += maxPutSize {
		end := start + maxPutSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		writes := make([]*dynamodb.WriteRequest, len(chunk))
		for i, rec := range chunk {
			item, err := dynamodbattribute.MarshalMap(rec)
			if err != nil {
				return errors.Wrapf(err, "marshaling %s", rec.ImageName)
			}
			writes[i] = &dynamodb.WriteRequest{
				PutRequest: &dynamodb.PutRequest{Item: item},
			}
		}

		pending := map[string][]*dynamodb.WriteRequest{t.Name: writes}
		delay := baseBackoff
		for tries := 0; ; tries++ {
			out, err := t.client.BatchWriteItem(&dynamodb.BatchWriteItemInput{
				RequestItems: pending,
			})
			if err != nil {
				t.logStoreError(err, "couldn't load data into table %s", t.Name)
				return errors.Wrapf(err, "batch writing to %s", t.Name)
			}
			unprocessed := 0
			for _, reqs := range out.UnprocessedItems {
				unprocessed += len(reqs)
			}
			if unprocessed == 0 {
				break
			}
			if tries+1 >= maxBatchTries {
				return errors.Errorf("%d write(s) to %s still unprocessed after %d tries",
					unprocessed, t.Name, maxBatchTries)
			}
			t.Log.Infof("%d unprocessed write(s) returned. Sleep, then retry.", unprocessed)
			t.Log.Infof("Sleeping for %s.", delay)
			t.sleep(delay)
			delay *= 2
			if delay > maxBackoff {
				delay = maxBackoff
			}
			pending = out.UnprocessedItems
		}
		t.Log.Debugf("wrote %d record(s) to %s", len(chunk), t.Name)
	}
	return nil
}

// GetBatch fetches up to MaxGetSize records by composite key in one batched
// call, retrying unprocessed keys with exponential backoff: up to five
// attempts, delays doubling from one second and capped at 32. When retries
// exhaust with keys still pending, the accumulated items are returned with
// BatchResult.Unresolved carrying the leftover key count; no error is
// raised for that case.
func (t *Table) GetBatch(keys []Key) (BatchResult, error) {
	var res BatchResult
	if err := t.requireBound(); err != nil {
		return res, err
	}
	if len(keys) > MaxGetSize {
		return res, errors.New(errors.ErrTooManyKeys,
			fmt.Sprintf("batch get is limited to %d keys, got %d", MaxGetSize, len(keys)))
	}
	if len(keys) == 0 {
		return res, nil
	}

	attrKeys := make([]map[string]*dynamodb.AttributeValue, len(keys))
	for i, key := range keys {
		attrKeys[i] = key.attributeValues()
	}
	pending := map[string]*dynamodb.KeysAndAttributes{
		t.Name: {Keys: attrKeys},
	}

	delay := baseBackoff
	for tries := 0; tries < maxBatchTries; tries++ {
		out, err := t.client.BatchGetItem(&dynamodb.BatchGetItemInput{
			RequestItems: pending,
		})
		if err != nil {
			t.logStoreError(err, "couldn't batch get from table %s", t.Name)
			return res, errors.Wrapf(err, "batch getting from %s", t.Name)
		}

		for _, items := range out.Responses {
			page := make([]fddb.Record, 0, len(items))
			if err := dynamodbattribute.UnmarshalListOfMaps(items, &page); err != nil {
				return res, errors.Wrap(err, "unmarshaling batch get response")
			}
			res.Items = append(res.Items, page...)
		}

		unprocessed := 0
		for _, ka := range out.UnprocessedKeys {
			unprocessed += len(ka.Keys)
		}
		res.Unresolved = unprocessed
		if unprocessed == 0 {
			return res, nil
		}
		pending = out.UnprocessedKeys

		t.Log.Infof("%d unprocessed keys returned. Sleep, then retry.", unprocessed)
		t.Log.Infof("Sleeping for %s.", delay)
		t.sleep(delay)
		delay *= 2
		if delay > maxBackoff {
			delay = maxBackoff
		}
	}
	return res, nil
}
