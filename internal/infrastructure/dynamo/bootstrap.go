package dynamo

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"
)

const (
	attrEventID   = "event_id"
	attrAppName   = "app_name"
	attrClosedAt  = "closed_at"
	attrExpiresAt = "expires_at"

	indexAppClosedAt = "app_name-closed_at-index"
)

// Bootstrap creates the journal table, its app_name GSI and the TTL on
// expires_at. Safe to call on every startup.
func Bootstrap(ctx context.Context, client API, table string, log zerolog.Logger) {
	createTable(ctx, client, &dynamodb.CreateTableInput{
		TableName:   aws.String(table),
		BillingMode: types.BillingModePayPerRequest,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrEventID), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(attrAppName), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(attrClosedAt), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrEventID), KeyType: types.KeyTypeHash},
		},
		GlobalSecondaryIndexes: []types.GlobalSecondaryIndex{
			gsi(indexAppClosedAt, attrAppName, attrClosedAt),
		},
	}, log)
	enableTTL(ctx, client, table, attrExpiresAt, log)
}

func createTable(ctx context.Context, client API, input *dynamodb.CreateTableInput, log zerolog.Logger) {
	_, err := client.CreateTable(ctx, input)
	if err != nil {
		// ResourceInUseException means the table already exists.
		var riue *types.ResourceInUseException
		if !errors.As(err, &riue) {
			log.Warn().Err(err).Str("table", *input.TableName).Msg("could not create table")
		}
		return
	}
	log.Info().Str("table", *input.TableName).Msg("created table")
}

func enableTTL(ctx context.Context, client API, tableName, ttlAttr string, log zerolog.Logger) {
	_, err := client.UpdateTimeToLive(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(tableName),
		TimeToLiveSpecification: &types.TimeToLiveSpecification{
			Enabled:       aws.Bool(true),
			AttributeName: aws.String(ttlAttr),
		},
	})
	if err != nil {
		log.Warn().Err(err).Str("table", tableName).Msg("could not enable TTL")
	}
}
