// Package dynamo wraps the DynamoDB table holding the FDDB face dataset.
// The table is keyed by (train_set N, image_name S): the partition flag
// groups each split physically, and image names order items within it.
package dynamo

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

	"github.com/facetdata/fddb-ingest/errors"
	"github.com/facetdata/fddb-ingest/fddb"
	"github.com/facetdata/fddb-ingest/logger"
)

const (
	partitionKey = "train_set"
	sortKey      = "image_name"

	// MaxGetSize is the per-call key ceiling DynamoDB imposes on
	// BatchGetItem. Exceeding it is a caller contract violation.
	MaxGetSize = 100

	// maxPutSize is the per-call item ceiling on BatchWriteItem.
	maxPutSize = 25

	maxBatchTries = 5
	baseBackoff   = 1 * time.Second
	maxBackoff    = 32 * time.Second
)

// Table manages one DynamoDB table of image records. It is not threadsafe:
// a Table is owned by a single ETL run, and every call blocks until the
// store responds or backoff gives up.
type Table struct {
	Name          string
	AWSRegion     string
	AWSProfile    string
	ReadCapacity  int64
	WriteCapacity int64
	Log           logger.Logger

	session *session.Session
	client  dynamodbiface.DynamoDBAPI

	// bound is set once Exists or Create has confirmed the table; the item
	// operations refuse to run without it.
	bound bool

	sleepFn func(time.Duration)
}

// NewTable returns a Table with the capacity defaults the dataset was sized
// for. Call Open before use.
func NewTable(name string) *Table {
	return &Table{
		Name:          name,
		ReadCapacity:  10,
		WriteCapacity: 10,
		Log:           logger.NopLogger,
	}
}

// NewTableWithClient returns a Table backed by the given client instead of
// a live AWS session. Used by tests.
func NewTableWithClient(name string, client dynamodbiface.DynamoDBAPI) *Table {
	t := NewTable(name)
	t.client = client
	return t
}

// Key is the composite key of one stored record.
type Key struct {
	ImageName string
	TrainSet  int
}

// BatchResult carries the outcome of a batched read. Unresolved is nonzero
// when backoff retries exhausted with keys still unprocessed, so callers
// can tell a partial result from a complete one.
type BatchResult struct {
	Items      []fddb.Record
	Unresolved int
}

// Complete reports whether every requested key was resolved.
func (r BatchResult) Complete() bool {
	return r.Unresolved == 0
}

func (t *Table) initAWS() error {
	t.Log.Infof("Initializing AWS session")
	config := &aws.Config{
		// retry on ephemeral AWS errors
		Retryer: client.DefaultRetryer{NumMaxRetries: 10},
	}
	if len(t.AWSProfile) > 0 {
		t.Log.Infof("Overriding default AWS profile %s", t.AWSProfile)
		config.Credentials = credentials.NewSharedCredentials("", t.AWSProfile)
	}
	if len(t.AWSRegion) > 0 {
		t.Log.Infof("Overriding default AWS region: %s", t.AWSRegion)
		config.Region = aws.String(t.AWSRegion)
	}
	sess, err := session.NewSession(config)
	if err != nil {
		return errors.Wrap(err, "creating AWS session")
	}
	t.session = sess
	t.client = dynamodb.New(sess)
	return nil
}

// Open initializes the DynamoDB client.
func (t *Table) Open() error {
	if t.Name == "" {
		return errors.New(errors.ErrUncoded, "missing required table name")
	}
	// allow mocking of AWS dependencies in unit tests
	if t.client == nil {
		if err := t.initAWS(); err != nil {
			return err
		}
	}
	if t.Log == nil {
		t.Log = logger.NopLogger
	}
	return nil
}

func (t *Table) requireBound() error {
	if !t.bound {
		return errors.New(errors.ErrTableNotBound,
			fmt.Sprintf("table %s is not bound; call Exists or Create first", t.Name))
	}
	return nil
}

// logStoreError logs a store failure once, with the AWS error code and
// message when the error carries them.
func (t *Table) logStoreError(err error, format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	if aerr, ok := err.(awserr.Error); ok {
		t.Log.Errorf("%s: %s: %s", msg, aerr.Code(), aerr.Message())
	} else {
		t.Log.Errorf("%s: %s", msg, err)
	}
}

// Exists determines whether the table exists. As a side effect, a found
// table is bound for the item operations.
func (t *Table) Exists() (bool, error) {
	_, err := t.client.DescribeTable(&dynamodb.DescribeTableInput{
		TableName: aws.String(t.Name),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == dynamodb.ErrCodeResourceNotFoundException {
			return false, nil
		}
		t.logStoreError(err, "couldn't check for existence of %s", t.Name)
		return false, errors.Wrapf(err, "describing table %s", t.Name)
	}
	t.bound = true
	return true, nil
}

// Create creates the table with the dataset key schema and blocks until the
// store reports it ready. On rejection the table stays unbound.
func (t *Table) Create() error {
	_, err := t.client.CreateTable(&dynamodb.CreateTableInput{
		TableName: aws.String(t.Name),
		KeySchema: []*dynamodb.KeySchemaElement{
			{AttributeName: aws.String(partitionKey), KeyType: aws.String(dynamodb.KeyTypeHash)},
			{AttributeName: aws.String(sortKey), KeyType: aws.String(dynamodb.KeyTypeRange)},
		},
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{AttributeName: aws.String(partitionKey), AttributeType: aws.String(dynamodb.ScalarAttributeTypeN)},
			{AttributeName: aws.String(sortKey), AttributeType: aws.String(dynamodb.ScalarAttributeTypeS)},
		},
		ProvisionedThroughput: &dynamodb.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(t.ReadCapacity),
			WriteCapacityUnits: aws.Int64(t.WriteCapacity),
		},
	})
	if err != nil {
		t.logStoreError(err, "couldn't create table %s", t.Name)
		return errors.Wrapf(err, "creating table %s", t.Name)
	}
	err = t.client.WaitUntilTableExists(&dynamodb.DescribeTableInput{
		TableName: aws.String(t.Name),
	})
	if err != nil {
		t.logStoreError(err, "table %s never became active", t.Name)
		return errors.Wrapf(err, "waiting for table %s", t.Name)
	}
	t.bound = true
	return nil
}

// Delete deletes the table and unbinds the handle.
func (t *Table) Delete() error {
	if err := t.requireBound(); err != nil {
		return err
	}
	_, err := t.client.DeleteTable(&dynamodb.DeleteTableInput{
		TableName: aws.String(t.Name),
	})
	if err != nil {
		t.logStoreError(err, "couldn't delete table %s", t.Name)
		return errors.Wrapf(err, "deleting table %s", t.Name)
	}
	t.bound = false
	return nil
}

// ItemCount returns the store's item count for the table. DynamoDB updates
// the figure roughly every six hours, so it is a summary number, not a
// strong read.
func (t *Table) ItemCount() (int64, error) {
	if err := t.requireBound(); err != nil {
		return 0, err
	}
	out, err := t.client.DescribeTable(&dynamodb.DescribeTableInput{
		TableName: aws.String(t.Name),
	})
	if err != nil {
		t.logStoreError(err, "couldn't describe table %s", t.Name)
		return 0, errors.Wrapf(err, "describing table %s", t.Name)
	}
	return aws.Int64Value(out.Table.ItemCount), nil
}

// AddEntry puts a single record.
func (t *Table) AddEntry(rec fddb.Record) error {
	if err := t.requireBound(); err != nil {
		return err
	}
	item, err := dynamodbattribute.MarshalMap(rec)
	if err != nil {
		return errors.Wrapf(err, "marshaling %s", rec.ImageName)
	}
	_, err = t.client.PutItem(&dynamodb.PutItemInput{
		TableName: aws.String(t.Name),
		Item:      item,
	})
	if err != nil {
		t.logStoreError(err, "couldn't add entry %s to table %s", rec.ImageName, t.Name)
		return errors.Wrapf(err, "putting %s", rec.ImageName)
	}
	return nil
}

// GetEntry fetches the record stored under the composite key. A missing
// item is an ErrEntryNotFound, distinguishable from store failure.
func (t *Table) GetEntry(imageName string, trainSet int) (fddb.Record, error) {
	var rec fddb.Record
	if err := t.requireBound(); err != nil {
		return rec, err
	}
	out, err := t.client.GetItem(&dynamodb.GetItemInput{
		TableName: aws.String(t.Name),
		Key:       Key{ImageName: imageName, TrainSet: trainSet}.attributeValues(),
	})
	if err != nil {
		t.logStoreError(err, "couldn't get entry %s from table %s", imageName, t.Name)
		return rec, errors.Wrapf(err, "getting %s", imageName)
	}
	if len(out.Item) == 0 {
		return rec, errors.New(errors.ErrEntryNotFound,
			fmt.Sprintf("no entry %s in partition %d", imageName, trainSet))
	}
	if err := dynamodbattribute.UnmarshalMap(out.Item, &rec); err != nil {
		return rec, errors.Wrapf(err, "unmarshaling %s", imageName)
	}
	return rec, nil
}

// QueryPartition returns every record in one partition, in the store's
// native sort-key order.
func (t *Table) QueryPartition(trainSet int) ([]fddb.Record, error) {
	if err := t.requireBound(); err != nil {
		return nil, err
	}
	input := &dynamodb.QueryInput{
		TableName:              aws.String(t.Name),
		KeyConditionExpression: aws.String("#p = :p"),
		ExpressionAttributeNames: map[string]*string{
			"#p": aws.String(partitionKey),
		},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":p": {N: aws.String(strconv.Itoa(trainSet))},
		},
	}

	var records []fddb.Record
	for {
		out, err := t.client.Query(input)
		if err != nil {
			t.logStoreError(err, "couldn't query partition %d of %s", trainSet, t.Name)
			return nil, errors.Wrapf(errors.New(errors.ErrQueryFailed, err.Error()),
				"querying partition %d", trainSet)
		}
		page := make([]fddb.Record, 0, len(out.Items))
		if err := dynamodbattribute.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, errors.Wrap(err, "unmarshaling query page")
		}
		records = append(records, page...)
		if len(out.LastEvaluatedKey) == 0 {
			return records, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (k Key) attributeValues() map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		partitionKey: {N: aws.String(strconv.Itoa(k.TrainSet))},
		sortKey:      {S: aws.String(k.ImageName)},
	}
}

func (t *Table) sleep(d time.Duration) {
	if t.sleepFn != nil {
		t.sleepFn(d)
		return
	}
	time.Sleep(d)
}
