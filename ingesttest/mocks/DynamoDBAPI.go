// Package mocks provides a testify mock of the DynamoDB client interface.
// Only the operations the ingester exercises are mocked; the embedded
// interface satisfies the rest of dynamodbiface.DynamoDBAPI, panicking if a
// test reaches an operation without an expectation.
package mocks

import (
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	mock "github.com/stretchr/testify/mock"
)

// DynamoDBAPI is a mock type for the dynamodbiface.DynamoDBAPI type
type DynamoDBAPI struct {
	dynamodbiface.DynamoDBAPI
	mock.Mock
}

// DescribeTable provides a mock function with given fields: input
func (_m *DynamoDBAPI) DescribeTable(input *dynamodb.DescribeTableInput) (*dynamodb.DescribeTableOutput, error) {
	ret := _m.Called(input)

	var r0 *dynamodb.DescribeTableOutput
	if rf, ok := ret.Get(0).(func(*dynamodb.DescribeTableInput) *dynamodb.DescribeTableOutput); ok {
		r0 = rf(input)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*dynamodb.DescribeTableOutput)
	}

	return r0, ret.Error(1)
}

// CreateTable provides a mock function with given fields: input
func (_m *DynamoDBAPI) CreateTable(input *dynamodb.CreateTableInput) (*dynamodb.CreateTableOutput, error) {
	ret := _m.Called(input)

	var r0 *dynamodb.CreateTableOutput
	if rf, ok := ret.Get(0).(func(*dynamodb.CreateTableInput) *dynamodb.CreateTableOutput); ok {
		r0 = rf(input)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*dynamodb.CreateTableOutput)
	}

	return r0, ret.Error(1)
}

// DeleteTable provides a mock function with given fields: input
func (_m *DynamoDBAPI) DeleteTable(input *dynamodb.DeleteTableInput) (*dynamodb.DeleteTableOutput, error) {
	ret := _m.Called(input)

	var r0 *dynamodb.DeleteTableOutput
	if rf, ok := ret.Get(0).(func(*dynamodb.DeleteTableInput) *dynamodb.DeleteTableOutput); ok {
		r0 = rf(input)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*dynamodb.DeleteTableOutput)
	}

	return r0, ret.Error(1)
}

// WaitUntilTableExists provides a mock function with given fields: input
func (_m *DynamoDBAPI) WaitUntilTableExists(input *dynamodb.DescribeTableInput) error {
	ret := _m.Called(input)
	return ret.Error(0)
}

// PutItem provides a mock function with given fields: input
func (_m *DynamoDBAPI) PutItem(input *dynamodb.PutItemInput) (*dynamodb.PutItemOutput, error) {
	ret := _m.Called(input)

	var r0 *dynamodb.PutItemOutput
	if rf, ok := ret.Get(0).(func(*dynamodb.PutItemInput) *dynamodb.PutItemOutput); ok {
		r0 = rf(input)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*dynamodb.PutItemOutput)
	}

	return r0, ret.Error(1)
}

// GetItem provides a mock function with given fields: input
func (_m *DynamoDBAPI) GetItem(input *dynamodb.GetItemInput) (*dynamodb.GetItemOutput, error) {
	ret := _m.Called(input)

	var r0 *dynamodb.GetItemOutput
	if rf, ok := ret.Get(0).(func(*dynamodb.GetItemInput) *dynamodb.GetItemOutput); ok {
		r0 = rf(input)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*dynamodb.GetItemOutput)
	}

	return r0, ret.Error(1)
}

// BatchWriteItem provides a mock function with given fields: input
func (_m *DynamoDBAPI) BatchWriteItem(input *dynamodb.BatchWriteItemInput) (*dynamodb.BatchWriteItemOutput, error) {
	ret := _m.Called(input)

	var r0 *dynamodb.BatchWriteItemOutput
	if rf, ok := ret.Get(0).(func(*dynamodb.BatchWriteItemInput) *dynamodb.BatchWriteItemOutput); ok {
		r0 = rf(input)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*dynamodb.BatchWriteItemOutput)
	}

	return r0, ret.Error(1)
}

// BatchGetItem provides a mock function with given fields: input
func (_m *DynamoDBAPI) BatchGetItem(input *dynamodb.BatchGetItemInput) (*dynamodb.BatchGetItemOutput, error) {
	ret := _m.Called(input)

	var r0 *dynamodb.BatchGetItemOutput
	if rf, ok := ret.Get(0).(func(*dynamodb.BatchGetItemInput) *dynamodb.BatchGetItemOutput); ok {
		r0 = rf(input)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*dynamodb.BatchGetItemOutput)
	}

	return r0, ret.Error(1)
}

// Query provides a mock function with given fields: input
func (_m *DynamoDBAPI) Query(input *dynamodb.QueryInput) (*dynamodb.QueryOutput, error) {
	ret := _m.Called(input)

	var r0 *dynamodb.QueryOutput
	if rf, ok := ret.Get(0).(func(*dynamodb.QueryInput) *dynamodb.QueryOutput); ok {
		r0 = rf(input)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*dynamodb.QueryOutput)
	}

	return r0, ret.Error(1)
}
