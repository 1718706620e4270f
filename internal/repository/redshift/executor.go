package redshift

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/redshiftdata"
	"github.com/aws/aws-sdk-go-v2/service/redshiftdata/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/nextelBIS/minubo-event-ingest/internal/domain"
	"github.com/nextelBIS/minubo-event-ingest/internal/repository"
)

const maxPollInterval = 2 * time.Second

// PollPolicy bounds the wait for a submitted statement to reach a terminal
// state. Timeout is the total window, Interval the initial poll spacing
// (doubled up to maxPollInterval between polls).
type PollPolicy struct {
	Timeout  time.Duration
	Interval time.Duration
}

// statement is a single SQL submission against the store.
type statement struct {
	SQL        string
	Parameters []types.SqlParameter
	// Token deduplicates re-submission of the same logical statement on
	// the backend. Empty means no submission-level idempotency.
	Token string
}

// Execute submits a statement and polls its status until it terminates or
// the policy window elapses. All three terminal states are handled: FINISHED
// returns nil, FAILED and ABORTED return ErrPersistFailed; an exhausted
// window returns ErrPersistTimeout. Timing out does not cancel the
// statement — the storage-side write may still complete, which is why
// writes themselves are idempotent by key.
func (c *Client) Execute(ctx context.Context, conn domain.ConnectionContext, stmt statement, policy PollPolicy) error {
	input := &redshiftdata.ExecuteStatementInput{
		WorkgroupName: aws.String(conn.Workgroup),
		Database:      aws.String(conn.Database),
		SecretArn:     aws.String(conn.SecretARN),
		Sql:           aws.String(stmt.SQL),
	}
	if len(stmt.Parameters) > 0 {
		input.Parameters = stmt.Parameters
	}
	if stmt.Token != "" {
		input.ClientToken = aws.String(stmt.Token)
	}

	out, err := c.client.ExecuteStatement(ctx, input)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			c.log.Error("Statement submission rejected",
				zap.String("error_code", apiErr.ErrorCode()),
				zap.Error(err))
		} else {
			c.log.Error("Statement submission rejected", zap.Error(err))
		}
		return fmt.Errorf("%w: %v", repository.ErrSubmissionRejected, err)
	}

	statementID := aws.ToString(out.Id)
	c.log.Info("Statement submitted", zap.String("statement_id", statementID))

	return c.poll(ctx, statementID, policy)
}

// poll drives the second phase of the submit/poll protocol.
func (c *Client) poll(ctx context.Context, statementID string, policy PollPolicy) error {
	ctx, cancel := context.WithTimeout(ctx, policy.Timeout)
	defer cancel()

	interval := policy.Interval
	lastStatus := types.StatusStringSubmitted

	for {
		select {
		case <-ctx.Done():
			c.log.Warn("Statement did not terminate within poll window",
				zap.String("statement_id", statementID),
				zap.String("last_status", string(lastStatus)),
				zap.Duration("timeout", policy.Timeout))
			return fmt.Errorf("%w: statement %s still %s after %s",
				repository.ErrPersistTimeout, statementID, lastStatus, policy.Timeout)
		case <-time.After(interval):
		}

		out, err := c.client.DescribeStatement(ctx, &redshiftdata.DescribeStatementInput{
			Id: aws.String(statementID),
		})
		if err != nil {
			// Transient describe failures burn poll budget, not the request.
			c.log.Warn("Failed to describe statement, retrying",
				zap.String("statement_id", statementID),
				zap.Error(err))
		} else {
			lastStatus = out.Status
			switch out.Status {
			case types.StatusStringFinished:
				c.log.Info("Statement finished",
					zap.String("statement_id", statementID),
					zap.Int64("rows_affected", out.ResultRows))
				return nil
			case types.StatusStringFailed, types.StatusStringAborted:
				c.log.Error("Statement terminated unsuccessfully",
					zap.String("statement_id", statementID),
					zap.String("status", string(out.Status)),
					zap.String("backend_error", aws.ToString(out.Error)))
				return fmt.Errorf("%w: statement %s %s: %s",
					repository.ErrPersistFailed, statementID, out.Status, aws.ToString(out.Error))
			}
		}

		if interval *= 2; interval > maxPollInterval {
			interval = maxPollInterval
		}
	}
}
