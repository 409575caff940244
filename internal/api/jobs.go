package api

import (
	"context"
	"fmt"
	"net/http"
)

// Get retrieves the state of an asynchronous delivery job.
func (s JobsService) Get(ctx context.Context, companyID, channelID, jobID int) (*Job, error) {
	return getJob(ctx, s, companyID, channelID, jobID)
}

func getJob(ctx context.Context, r Requester, companyID, channelID, jobID int) (*Job, error) {
	if err := validateCompanyID(companyID); err != nil {
		return nil, err
	}
	if err := validateChannelID(channelID); err != nil {
		return nil, err
	}
	if jobID < 0 {
		return nil, newValidationError("job_id", "must not be negative (got %d)", jobID)
	}
	path := fmt.Sprintf("/channels/%d/jobs/%d", channelID, jobID)
	var result struct {
		Job Job `json:"job"`
	}
	if err := r.do(ctx, http.MethodGet, r.companyPath(companyID, path), nil, &result); err != nil {
		return nil, err
	}
	return &result.Job, nil
}
