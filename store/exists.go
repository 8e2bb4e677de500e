package store

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// exists reports whether an item is stored under (pk, sk). It only projects
// the partition key. The answer is not transactional with any later write:
// a parent removed between this check and the child put leaves an orphan.
func (s *Store) exists(ctx context.Context, pk, sk string) (bool, error) {
	expr, err := expression.NewBuilder().
		WithProjection(expression.NamesList(expression.Name(attrPK))).
		Build()
	if err != nil {
		return false, validationError("build projection", err)
	}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(s.config.TableName),
		Key:                      itemKey(pk, sk),
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		return false, s.transport("GetItem", err)
	}
	return len(result.Item) > 0, nil
}
