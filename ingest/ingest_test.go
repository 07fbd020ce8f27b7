package ingest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/facetdata/fddb-ingest/dynamo"
	"github.com/facetdata/fddb-ingest/errors"
	"github.com/facetdata/fddb-ingest/ingest"
	"github.com/facetdata/fddb-ingest/ingesttest/mocks"
)

const foldFile = `2002/08/11/big/img_591
1
123.583300 85.549500 1.265839 269.693400 161.781200  1
2002/08/26/big/img_265
1
67.363819 44.511485 -1.476417 105.249970 87.209036  1
2002/07/19/big/img_130
1
101.293431 76.808966 1.451171 133.768414 118.066353  1
`

func writeFold(t *testing.T, name, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestRun(t *testing.T) {
	dir := writeFold(t, "FDDB-fold-01-ellipseList.txt", foldFile)

	client := &mocks.DynamoDBAPI{}
	m := ingest.NewMain()
	m.DataDir = dir
	m.Table = "facial-detection-dataset"
	m.TestFraction = 0.2
	m.Seed = 42
	m.NewTable = func() (*dynamo.Table, error) {
		table := dynamo.NewTableWithClient(m.Table, client)
		table.Log = m.Log()
		return table, table.Open()
	}

	notFound := awserr.New(dynamodb.ErrCodeResourceNotFoundException, "Requested resource not found", nil)
	client.On("DescribeTable", mock.Anything).Return(nil, notFound).Once()
	client.On("CreateTable", mock.Anything).Return(&dynamodb.CreateTableOutput{}, nil)
	client.On("WaitUntilTableExists", mock.Anything).Return(nil)

	var written []map[string]*dynamodb.AttributeValue
	client.On("BatchWriteItem", mock.MatchedBy(func(input *dynamodb.BatchWriteItemInput) bool {
		for _, req := range input.RequestItems["facial-detection-dataset"] {
			written = append(written, req.PutRequest.Item)
		}
		return true
	})).Return(&dynamodb.BatchWriteItemOutput{}, nil)

	client.On("DescribeTable", mock.Anything).Return(&dynamodb.DescribeTableOutput{
		Table: &dynamodb.TableDescription{ItemCount: int64Ptr(3)},
	}, nil)

	assert.NoError(t, m.Run())
	assert.Len(t, written, 3)

	// round(0.2 * 3) = 1 test record, the rest train.
	partitions := map[string]int{}
	for _, item := range written {
		partitions[*item["train_set"].N]++
	}
	assert.Equal(t, 1, partitions["0"])
	assert.Equal(t, 2, partitions["1"])

	client.AssertExpectations(t)
}

func TestRunAbortsOnDuplicate(t *testing.T) {
	dir := writeFold(t, "FDDB-fold-01-ellipseList.txt", foldFile+foldFile)

	m := ingest.NewMain()
	m.DataDir = dir
	m.NewTable = func() (*dynamo.Table, error) {
		t.Fatal("no table client may be built when validation fails")
		return nil, nil
	}

	err := m.Run()
	assert.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDuplicateImageName))
}

func TestRunEmptyCorpus(t *testing.T) {
	m := ingest.NewMain()
	m.DataDir = t.TempDir()
	err := m.Run()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no annotation records")
}

func int64Ptr(v int64) *int64 {
	return &v
}
