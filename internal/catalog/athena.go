package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	athenatypes "github.com/aws/aws-sdk-go-v2/service/athena/types"

	"github.com/arkilian/reloader/internal/errors"
	"github.com/arkilian/reloader/pkg/types"
)

// AthenaService implements QueryService against AWS Athena.
type AthenaService struct {
	client         *athena.Client
	database       string
	workgroup      string
	outputLocation string
}

// AthenaConfig holds configuration for the Athena catalog backend.
type AthenaConfig struct {
	// Region is the AWS region of the Athena endpoint.
	Region string
	// Database is the Glue database queries run against.
	Database string
	// Workgroup is the Athena workgroup, empty for the account default.
	Workgroup string
	// OutputLocation is the S3 URI query results are written under.
	OutputLocation string
}

// NewAthenaService creates a new Athena catalog client.
func NewAthenaService(ctx context.Context, cfg AthenaConfig) (*AthenaService, error) {
	var opts []func(*config.LoadOptions) error

	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &AthenaService{
		client:         athena.NewFromConfig(awsCfg),
		database:       cfg.Database,
		workgroup:      cfg.Workgroup,
		outputLocation: strings.TrimRight(cfg.OutputLocation, "/"),
	}, nil
}

// StartQuery submits a statement to Athena and returns its execution ID.
func (s *AthenaService) StartQuery(ctx context.Context, query string) (string, error) {
	input := &athena.StartQueryExecutionInput{
		QueryString: aws.String(query),
		QueryExecutionContext: &athenatypes.QueryExecutionContext{
			Database: aws.String(s.database),
		},
		ResultConfiguration: &athenatypes.ResultConfiguration{
			OutputLocation: aws.String(s.outputLocation),
		},
	}
	if s.workgroup != "" {
		input.WorkGroup = aws.String(s.workgroup)
	}

	out, err := s.client.StartQueryExecution(ctx, input)
	if err != nil {
		return "", errors.NewSubmissionError("failed to start query execution", err)
	}

	id := aws.ToString(out.QueryExecutionId)
	if id == "" {
		return "", errors.NewSubmissionError("catalog service returned no execution ID", nil)
	}
	return id, nil
}

// GetExecutionStatus returns the current status of an execution.
func (s *AthenaService) GetExecutionStatus(ctx context.Context, executionID string) (types.ExecutionStatusInfo, error) {
	out, err := s.client.GetQueryExecution(ctx, &athena.GetQueryExecutionInput{
		QueryExecutionId: aws.String(executionID),
	})
	if err != nil {
		return types.ExecutionStatusInfo{}, errors.NewPollingError(errors.CodeStatusCheckFailed,
			fmt.Sprintf("failed to get status of execution %s", executionID), err)
	}
	if out.QueryExecution == nil || out.QueryExecution.Status == nil {
		return types.ExecutionStatusInfo{}, errors.NewPollingError(errors.CodeStatusCheckFailed,
			fmt.Sprintf("catalog service returned no status for execution %s", executionID), nil)
	}

	status := out.QueryExecution.Status
	info := types.ExecutionStatusInfo{
		Status: types.ExecutionStatus(status.State),
		Reason: aws.ToString(status.StateChangeReason),
	}
	if status.SubmissionDateTime != nil {
		info.SubmittedAt = status.SubmissionDateTime.UTC()
	}
	if status.CompletionDateTime != nil {
		info.CompletedAt = status.CompletionDateTime.UTC()
	}
	if requestID, ok := awsmiddleware.GetRequestIDMetadata(out.ResultMetadata); ok {
		info.RequestID = requestID
	}
	return info, nil
}

// GetResultPage returns one page of an execution's result rows.
func (s *AthenaService) GetResultPage(ctx context.Context, executionID, pageToken string) (types.ResultPage, error) {
	input := &athena.GetQueryResultsInput{
		QueryExecutionId: aws.String(executionID),
	}
	if pageToken != "" {
		input.NextToken = aws.String(pageToken)
	}

	out, err := s.client.GetQueryResults(ctx, input)
	if err != nil {
		return types.ResultPage{}, errors.NewResultFetchError(
			fmt.Sprintf("failed to fetch results of execution %s", executionID), err)
	}

	page := types.ResultPage{NextToken: aws.ToString(out.NextToken)}
	if out.ResultSet == nil {
		return page, nil
	}

	page.Rows = make([][]string, 0, len(out.ResultSet.Rows))
	for _, row := range out.ResultSet.Rows {
		cols := make([]string, 0, len(row.Data))
		for _, d := range row.Data {
			cols = append(cols, aws.ToString(d.VarCharValue))
		}
		page.Rows = append(page.Rows, cols)
	}
	return page, nil
}

// ResultLocation returns the S3 URI of the execution's result object.
func (s *AthenaService) ResultLocation(executionID string) string {
	return s.outputLocation + "/" + executionID + ".txt"
}
