// Package ddbtest provides an in-memory DynamoDB double for tests.
//
// Fake understands the single-table layout used by podroom (string "pk" and
// "sk" keys) and the small expression subset the store emits:
// attribute_exists / attribute_not_exists conditions, SET updates,
// pk equality key conditions and begins_with filters. Anything else is
// ignored rather than rejected.
package ddbtest

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	pkAttr = "pk"
	skAttr = "sk"
)

var (
	notExistsRe  = regexp.MustCompile(`attribute_not_exists\s*\(\s*([#\w]+)\s*\)`)
	existsRe     = regexp.MustCompile(`attribute_exists\s*\(\s*([#\w]+)\s*\)`)
	assignRe     = regexp.MustCompile(`([#\w]+)\s*=\s*(:\w+)`)
	beginsWithRe = regexp.MustCompile(`begins_with\s*\(\s*([#\w]+)\s*,\s*(:\w+)\s*\)`)
)

// Fake is an in-memory table. The zero value is not usable; call New.
type Fake struct {
	mu     sync.Mutex
	items  map[string]map[string]map[string]types.AttributeValue
	tables map[string]bool
	calls  map[string]int

	// Errors injects a failure for an operation name such as "PutItem".
	Errors map[string]error

	// CreateStatus is the status reported by CreateTable. Default ACTIVE.
	CreateStatus types.TableStatus

	// DescribeStatuses is consumed one entry per DescribeTable call; the
	// last entry repeats. Empty means ACTIVE.
	DescribeStatuses []types.TableStatus

	// BackupErr fails CreateBackup.
	BackupErr error

	// Backups records requested backup names.
	Backups []string

	// PageSize limits Query and Scan pages. Zero returns everything at once.
	PageSize int
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		items:  make(map[string]map[string]map[string]types.AttributeValue),
		tables: make(map[string]bool),
		calls:  make(map[string]int),
		Errors: make(map[string]error),
	}
}

// Calls returns how many times op was invoked.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Seed stores a raw item without any condition.
func (f *Fake) Seed(item map[string]types.AttributeValue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pk, sk := keyOf(item)
	f.store(pk, sk, item)
}

// Item returns a copy of the raw item stored under (pk, sk), or nil.
func (f *Fake) Item(pk, sk string) map[string]types.AttributeValue {
	f.mu.Lock()
	defer f.mu.Unlock()
	return clone(f.items[pk][sk])
}

// Len returns the number of stored items.
func (f *Fake) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, part := range f.items {
		n += len(part)
	}
	return n
}

func (f *Fake) begin(op string) error {
	f.calls[op]++
	return f.Errors[op]
}

func (f *Fake) store(pk, sk string, item map[string]types.AttributeValue) {
	part, ok := f.items[pk]
	if !ok {
		part = make(map[string]map[string]types.AttributeValue)
		f.items[pk] = part
	}
	part[sk] = clone(item)
}

// PutItem implements the store client.
func (f *Fake) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("PutItem"); err != nil {
		return nil, err
	}

	pk, sk := keyOf(params.Item)
	if pk == "" || sk == "" {
		return nil, fmt.Errorf("ddbtest: item is missing its key")
	}
	existing := f.items[pk][sk]
	if err := checkCondition(params.ConditionExpression, params.ExpressionAttributeNames, existing); err != nil {
		return nil, err
	}
	f.store(pk, sk, params.Item)
	return &dynamodb.PutItemOutput{}, nil
}

// GetItem implements the store client.
func (f *Fake) GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("GetItem"); err != nil {
		return nil, err
	}

	pk, sk := keyOf(params.Key)
	return &dynamodb.GetItemOutput{Item: clone(f.items[pk][sk])}, nil
}

// UpdateItem implements the store client.
func (f *Fake) UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("UpdateItem"); err != nil {
		return nil, err
	}

	pk, sk := keyOf(params.Key)
	existing := f.items[pk][sk]
	if err := checkCondition(params.ConditionExpression, params.ExpressionAttributeNames, existing); err != nil {
		return nil, err
	}

	item := clone(existing)
	if item == nil {
		item = clone(params.Key)
	}
	update := aws.ToString(params.UpdateExpression)
	for _, m := range assignRe.FindAllStringSubmatch(update, -1) {
		name := resolveName(m[1], params.ExpressionAttributeNames)
		value, ok := params.ExpressionAttributeValues[m[2]]
		if !ok {
			return nil, fmt.Errorf("ddbtest: undefined value placeholder %s", m[2])
		}
		item[name] = value
	}
	f.store(pk, sk, item)
	return &dynamodb.UpdateItemOutput{}, nil
}

// DeleteItem implements the store client.
func (f *Fake) DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DeleteItem"); err != nil {
		return nil, err
	}

	pk, sk := keyOf(params.Key)
	if part, ok := f.items[pk]; ok {
		delete(part, sk)
		if len(part) == 0 {
			delete(f.items, pk)
		}
	}
	return &dynamodb.DeleteItemOutput{}, nil
}

// Query implements the store client. Only a pk equality key condition is
// supported; items come back in sort key order.
func (f *Fake) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("Query"); err != nil {
		return nil, err
	}

	var pk string
	for _, m := range assignRe.FindAllStringSubmatch(aws.ToString(params.KeyConditionExpression), -1) {
		if resolveName(m[1], params.ExpressionAttributeNames) == pkAttr {
			pk = stringValue(params.ExpressionAttributeValues[m[2]])
		}
	}
	if pk == "" {
		return nil, fmt.Errorf("ddbtest: query requires a %s equality condition", pkAttr)
	}

	var all []map[string]types.AttributeValue
	for _, item := range f.items[pk] {
		all = append(all, item)
	}
	page, last := f.page(all, params.ExclusiveStartKey)
	return &dynamodb.QueryOutput{Items: page, Count: int32(len(page)), LastEvaluatedKey: last}, nil
}

// Scan implements the store client, honoring a begins_with filter.
func (f *Fake) Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("Scan"); err != nil {
		return nil, err
	}

	var all []map[string]types.AttributeValue
	for _, part := range f.items {
		for _, item := range part {
			all = append(all, item)
		}
	}
	page, last := f.page(all, params.ExclusiveStartKey)

	filter := aws.ToString(params.FilterExpression)
	var kept []map[string]types.AttributeValue
	for _, item := range page {
		if matchesFilter(filter, params.ExpressionAttributeNames, params.ExpressionAttributeValues, item) {
			kept = append(kept, item)
		}
	}
	return &dynamodb.ScanOutput{Items: kept, Count: int32(len(kept)), ScannedCount: int32(len(page)), LastEvaluatedKey: last}, nil
}

// page sorts items by key and returns the page after start.
func (f *Fake) page(all []map[string]types.AttributeValue, start map[string]types.AttributeValue) ([]map[string]types.AttributeValue, map[string]types.AttributeValue) {
	sort.Slice(all, func(i, j int) bool {
		pi, si := keyOf(all[i])
		pj, sj := keyOf(all[j])
		if pi != pj {
			return pi < pj
		}
		return si < sj
	})

	if len(start) > 0 {
		spk, ssk := keyOf(start)
		idx := sort.Search(len(all), func(i int) bool {
			pk, sk := keyOf(all[i])
			return pk > spk || (pk == spk && sk > ssk)
		})
		all = all[idx:]
	}

	if f.PageSize <= 0 || len(all) <= f.PageSize {
		return cloneAll(all), nil
	}
	page := all[:f.PageSize]
	pk, sk := keyOf(page[len(page)-1])
	last := map[string]types.AttributeValue{
		pkAttr: &types.AttributeValueMemberS{Value: pk},
		skAttr: &types.AttributeValueMemberS{Value: sk},
	}
	return cloneAll(page), last
}

// CreateTable implements the store client.
func (f *Fake) CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateTable"); err != nil {
		return nil, err
	}

	name := aws.ToString(params.TableName)
	if f.tables[name] {
		return nil, &types.ResourceInUseException{Message: aws.String("Table already exists: " + name)}
	}
	f.tables[name] = true

	status := f.CreateStatus
	if status == "" {
		status = types.TableStatusActive
	}
	return &dynamodb.CreateTableOutput{
		TableDescription: &types.TableDescription{
			TableName:   aws.String(name),
			TableStatus: status,
		},
	}, nil
}

// DescribeTable implements the store client.
func (f *Fake) DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("DescribeTable"); err != nil {
		return nil, err
	}

	name := aws.ToString(params.TableName)
	if !f.tables[name] {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found: " + name)}
	}

	status := types.TableStatusActive
	if n := len(f.DescribeStatuses); n > 0 {
		idx := f.calls["DescribeTable"] - 1
		if idx >= n {
			idx = n - 1
		}
		status = f.DescribeStatuses[idx]
	}
	return &dynamodb.DescribeTableOutput{
		Table: &types.TableDescription{
			TableName:   aws.String(name),
			TableStatus: status,
		},
	}, nil
}

// CreateBackup implements the store client.
func (f *Fake) CreateBackup(ctx context.Context, params *dynamodb.CreateBackupInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateBackupOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin("CreateBackup"); err != nil {
		return nil, err
	}
	if f.BackupErr != nil {
		return nil, f.BackupErr
	}

	name := aws.ToString(params.BackupName)
	f.Backups = append(f.Backups, name)
	return &dynamodb.CreateBackupOutput{
		BackupDetails: &types.BackupDetails{
			BackupArn:    aws.String(fmt.Sprintf("arn:aws:dynamodb:local:000000000000:table/%s/backup/%s", aws.ToString(params.TableName), name)),
			BackupName:   aws.String(name),
			BackupStatus: types.BackupStatusCreating,
		},
	}, nil
}

// checkCondition evaluates the attribute_exists / attribute_not_exists
// clauses of a condition expression against the current item.
func checkCondition(expr *string, names map[string]string, existing map[string]types.AttributeValue) error {
	cond := aws.ToString(expr)
	if cond == "" {
		return nil
	}
	for _, m := range notExistsRe.FindAllStringSubmatch(cond, -1) {
		if _, ok := existing[resolveName(m[1], names)]; ok {
			return conditionFailed()
		}
	}
	for _, m := range existsRe.FindAllStringSubmatch(cond, -1) {
		if _, ok := existing[resolveName(m[1], names)]; !ok {
			return conditionFailed()
		}
	}
	return nil
}

func matchesFilter(filter string, names map[string]string, values map[string]types.AttributeValue, item map[string]types.AttributeValue) bool {
	if filter == "" {
		return true
	}
	for _, m := range beginsWithRe.FindAllStringSubmatch(filter, -1) {
		attr := stringValue(item[resolveName(m[1], names)])
		if !strings.HasPrefix(attr, stringValue(values[m[2]])) {
			return false
		}
	}
	return true
}

func conditionFailed() error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
}

func resolveName(token string, names map[string]string) string {
	if strings.HasPrefix(token, "#") {
		if name, ok := names[token]; ok {
			return name
		}
	}
	return token
}

func keyOf(item map[string]types.AttributeValue) (string, string) {
	return stringValue(item[pkAttr]), stringValue(item[skAttr])
}

func stringValue(v types.AttributeValue) string {
	if s, ok := v.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func clone(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	if item == nil {
		return nil
	}
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

func cloneAll(items []map[string]types.AttributeValue) []map[string]types.AttributeValue {
	out := make([]map[string]types.AttributeValue, 0, len(items))
	for _, item := range items {
		out = append(out, clone(item))
	}
	return out
}
